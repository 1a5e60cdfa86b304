package bot

import (
	"fmt"
	"math/rand/v2"

	"github.com/palemoky/ninety-nine/internal/game/card"
	"github.com/palemoky/ninety-nine/internal/game/engine"
	"github.com/palemoky/ninety-nine/internal/game/rule"
)

// Level AI 难度
type Level string

const (
	LevelEasy   Level = "easy"
	LevelMedium Level = "medium"
	LevelHard   Level = "hard"
)

// ParseLevel 解析难度，空字符串视为 medium
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case "":
		return LevelMedium, nil
	case LevelEasy, LevelMedium, LevelHard:
		return Level(s), nil
	default:
		return "", fmt.Errorf("未知的 AI 难度: %q", s)
	}
}

// View AI 决策需要的只读对局视图，*engine.Game 实现了它
type View interface {
	Settings() engine.Settings
	TricksPerRound() int
	CardBidMode() bool
	ActivePlayers() []string
	Player(id string) (engine.Player, bool)
	Hand(playerID string) []card.Card
	Card(id string) (card.Card, bool)
	Bid(playerID string) (engine.Bid, bool)
	CurrentTrick() (engine.Trick, bool)
	LegalCards(playerID string) []card.Card
}

var _ View = (*engine.Game)(nil)

// Strategy AI 策略。三个难度只在启发式上不同，出牌仍须通过引擎的合法性校验
type Strategy interface {
	// CalculateBid 计算叫分
	CalculateBid(v View, playerID string) (engine.BidOffer, error)
	// CalculateCardPlay 选择要出的牌，没有可出的牌时返回 false
	CalculateCardPlay(v View, playerID string) (string, bool)
	// DetermineTrickWinner 计算一墩的赢家
	DetermineTrickWinner(t engine.Trick, v View) (string, bool)
}

// NewStrategy 根据难度创建策略，rng 为 nil 时使用随机种子
func NewStrategy(level Level, rng *rand.Rand) (Strategy, error) {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	switch level {
	case LevelEasy:
		return &EasyBot{rng: rng}, nil
	case LevelMedium:
		return &MediumBot{}, nil
	case LevelHard:
		return &HardBot{}, nil
	default:
		return nil, fmt.Errorf("未知的 AI 难度: %q", level)
	}
}

// trickWinner 各难度共用的墩赢家计算
type trickWinner struct{}

// DetermineTrickWinner 按首引花色和王牌计算一墩的赢家
func (trickWinner) DetermineTrickWinner(t engine.Trick, v View) (string, bool) {
	return rule.ResolveTrick(trickPlays(t, v), t.LeadSuit, t.Trump)
}

func trickPlays(t engine.Trick, v View) []rule.Play {
	plays := make([]rule.Play, 0, len(t.Order))
	for _, id := range t.Order {
		c, ok := v.Card(t.Plays[id])
		if !ok {
			continue
		}
		plays = append(plays, rule.Play{PlayerID: id, Card: c})
	}
	return plays
}

// EasyBot 按高牌数叫分，随机出一张合法牌
type EasyBot struct {
	trickWinner
	rng *rand.Rand
}

// CalculateBid 高牌数即叫分墩数
func (b *EasyBot) CalculateBid(v View, playerID string) (engine.BidOffer, error) {
	return makeOffer(v, playerID, highCards(v.Hand(playerID)))
}

// CalculateCardPlay 从合法牌中随机选一张
func (b *EasyBot) CalculateCardPlay(v View, playerID string) (string, bool) {
	legal := v.LegalCards(playerID)
	if len(legal) == 0 {
		return "", false
	}
	return legal[b.rng.IntN(len(legal))].ID, true
}

// MediumBot 有长套时多叫一墩；出牌时首引出最大，跟牌出最小
type MediumBot struct {
	trickWinner
}

// CalculateBid 高牌数加上长套奖励一墩
func (b *MediumBot) CalculateBid(v View, playerID string) (engine.BidOffer, error) {
	hand := v.Hand(playerID)
	estimate := highCards(hand)
	if longSuits(hand) > 0 {
		estimate++
	}
	return makeOffer(v, playerID, estimate)
}

// CalculateCardPlay 首引出最大的牌，跟牌出最小的牌
func (b *MediumBot) CalculateCardPlay(v View, playerID string) (string, bool) {
	legal := v.LegalCards(playerID)
	if len(legal) == 0 {
		return "", false
	}
	return naturalPlay(v, legal).ID, true
}

// HardBot 每个长套多叫一墩；出牌时根据还差几墩决定抢墩还是避墩
type HardBot struct {
	trickWinner
}

// CalculateBid 高牌数加上长套数
func (b *HardBot) CalculateBid(v View, playerID string) (engine.BidOffer, error) {
	hand := v.Hand(playerID)
	return makeOffer(v, playerID, highCards(hand)+longSuits(hand))
}

// CalculateCardPlay 还差墩数时争取赢下本墩，已够时出最大的输牌
func (b *HardBot) CalculateCardPlay(v View, playerID string) (string, bool) {
	legal := v.LegalCards(playerID)
	if len(legal) == 0 {
		return "", false
	}
	return lookaheadPlay(v, playerID, legal).ID, true
}
