package apperrors

import (
	"errors"
	"fmt"

	"github.com/palemoky/ninety-nine/internal/protocol"
)

// Kind 错误类别
type Kind int

const (
	KindValidation Kind = iota + 1
	KindGameState
	KindNotYourTurn
	KindCardNotInHand
	KindMustFollowSuit
	KindSetup
	KindTable
)

var kindNames = map[Kind]string{
	KindValidation:     "Validation",
	KindGameState:      "GameState",
	KindNotYourTurn:    "NotYourTurn",
	KindCardNotInHand:  "CardNotInHand",
	KindMustFollowSuit: "MustFollowSuit",
	KindSetup:          "SetupError",
	KindTable:          "Table",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// kindCodes 错误类别对应的协议错误码
var kindCodes = map[Kind]int{
	KindValidation:     protocol.ErrCodeInvalidAction,
	KindGameState:      protocol.ErrCodeWrongPhase,
	KindNotYourTurn:    protocol.ErrCodeNotYourTurn,
	KindCardNotInHand:  protocol.ErrCodeCardNotInHand,
	KindMustFollowSuit: protocol.ErrCodeMustFollow,
	KindSetup:          protocol.ErrCodeSetupFailed,
	KindTable:          protocol.ErrCodeUnknown,
}

// GameError 游戏错误，所有被拒绝的操作都以它返回，调用方可重试
type GameError struct {
	Kind    Kind
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// Is 按类别匹配，使带详细信息的错误也能匹配预定义错误
func (e *GameError) Is(target error) bool {
	var t *GameError
	if !errors.As(target, &t) {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	// 牌桌错误共用一个类别，需要再比较错误码
	return t.Kind != KindTable || t.Code == e.Code
}

// New 创建指定类别的错误
func New(kind Kind, msg string) *GameError {
	return &GameError{Kind: kind, Code: kindCodes[kind], Message: msg}
}

// Newf 创建带格式化信息的错误
func Newf(kind Kind, format string, args ...any) *GameError {
	return New(kind, fmt.Sprintf(format, args...))
}

// KindOf 返回错误的类别，非 GameError 返回 0
func KindOf(err error) Kind {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return 0
}

// CodeOf 返回错误对应的协议错误码
func CodeOf(err error) int {
	var ge *GameError
	if errors.As(err, &ge) && ge.Code != 0 {
		return ge.Code
	}
	return protocol.ErrCodeUnknown
}

// 预定义错误
var (
	ErrValidation     = New(KindValidation, "无效的操作")
	ErrWrongPhase     = New(KindGameState, "当前阶段不允许该操作")
	ErrNotYourTurn    = New(KindNotYourTurn, "还没轮到您")
	ErrCardNotInHand  = New(KindCardNotInHand, "这张牌不在您的手中")
	ErrMustFollowSuit = New(KindMustFollowSuit, "您必须跟出首引花色")
	ErrSetup          = New(KindSetup, "牌数不足，无法发牌")

	ErrTableNotFound = &GameError{Kind: KindTable, Code: protocol.ErrCodeTableNotFound, Message: "牌桌不存在"}
	ErrTableFull     = &GameError{Kind: KindTable, Code: protocol.ErrCodeTableFull, Message: "牌桌已满"}
	ErrNotAtTable    = &GameError{Kind: KindTable, Code: protocol.ErrCodeNotAtTable, Message: "您不在牌桌上"}
	ErrGameStarted   = &GameError{Kind: KindTable, Code: protocol.ErrCodeGameStarted, Message: "游戏已开始"}
)
