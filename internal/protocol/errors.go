package protocol

// 错误码
const (
	ErrCodeUnknown       = 1000
	ErrCodeInvalidMsg    = 1001
	ErrCodeRateLimit     = 1002 // 速率限制
	ErrCodeMaintenance   = 1003 // 维护模式
	ErrCodeTableNotFound = 2001
	ErrCodeTableFull     = 2002
	ErrCodeNotAtTable    = 2003
	ErrCodeGameStarted   = 2004 // 游戏已开始
	ErrCodeWrongPhase    = 3001
	ErrCodeNotYourTurn   = 3002
	ErrCodeInvalidAction = 3003
	ErrCodeCardNotInHand = 3004
	ErrCodeMustFollow    = 3005
	ErrCodeSetupFailed   = 3006
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:       "未知错误",
	ErrCodeInvalidMsg:    "无效的消息格式",
	ErrCodeRateLimit:     "请求过于频繁",
	ErrCodeMaintenance:   "服务器维护中，暂停创建牌桌",
	ErrCodeTableNotFound: "牌桌不存在",
	ErrCodeTableFull:     "牌桌已满",
	ErrCodeNotAtTable:    "您不在牌桌上",
	ErrCodeGameStarted:   "游戏已开始",
	ErrCodeWrongPhase:    "当前阶段不允许该操作",
	ErrCodeNotYourTurn:   "还没轮到您",
	ErrCodeInvalidAction: "无效的操作",
	ErrCodeCardNotInHand: "这张牌不在您的手中",
	ErrCodeMustFollow:    "您必须跟出首引花色",
	ErrCodeSetupFailed:   "发牌失败",
}
