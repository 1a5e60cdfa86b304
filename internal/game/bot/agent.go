package bot

import (
	"errors"
	"math/rand/v2"

	"github.com/palemoky/ninety-nine/internal/apperrors"
	"github.com/palemoky/ninety-nine/internal/game/engine"
)

var errNoBidCards = apperrors.New(apperrors.KindValidation, "手牌不足，无法选出叫分牌")

// Action AI 本次执行的操作
type Action string

const (
	ActionNone   Action = ""
	ActionBid    Action = "bid"
	ActionReveal Action = "reveal"
	ActionPlay   Action = "play"
)

// Agent 代替一名玩家行动，和真人走同样的引擎入口
type Agent struct {
	PlayerID string
	Strategy Strategy
}

// NewAgent 创建指定难度的 AI 玩家
func NewAgent(playerID string, level Level, rng *rand.Rand) (*Agent, error) {
	s, err := NewStrategy(level, rng)
	if err != nil {
		return nil, err
	}
	return &Agent{PlayerID: playerID, Strategy: s}, nil
}

// TakeTurn 如果轮到该玩家则执行一步操作。
// 叫分结束后先亮分；出牌被拒绝为未跟花色时换一张合法牌重试
func (a *Agent) TakeTurn(g *engine.Game) (Action, error) {
	switch g.Phase() {
	case engine.PhaseBidding, engine.PhasePlaying:
	default:
		return ActionNone, nil
	}

	if g.Phase() == engine.PhaseBidding && !g.BidPhaseComplete() {
		if g.CurrentBidderID() != a.PlayerID {
			return ActionNone, nil
		}
		offer, err := a.Strategy.CalculateBid(g, a.PlayerID)
		if err != nil {
			return ActionNone, err
		}
		return ActionBid, g.PlaceBid(a.PlayerID, offer)
	}

	if b, ok := g.Bid(a.PlayerID); ok && !b.Revealed {
		return ActionReveal, g.RevealBid(a.PlayerID)
	}

	if g.Phase() != engine.PhasePlaying || g.CurrentPlayerID() != a.PlayerID {
		return ActionNone, nil
	}
	cardID, ok := a.Strategy.CalculateCardPlay(g, a.PlayerID)
	if !ok {
		return ActionNone, apperrors.New(apperrors.KindValidation, "没有可出的牌")
	}
	err := g.PlayCard(a.PlayerID, cardID)
	if errors.Is(err, apperrors.ErrMustFollowSuit) {
		for _, c := range g.LegalCards(a.PlayerID) {
			if err = g.PlayCard(a.PlayerID, c.ID); err == nil {
				break
			}
		}
	}
	return ActionPlay, err
}

// Pending 是否有需要该 AI 执行的操作
func (a *Agent) Pending(g *engine.Game) bool {
	switch g.Phase() {
	case engine.PhaseBidding:
		if !g.BidPhaseComplete() {
			return g.CurrentBidderID() == a.PlayerID
		}
	case engine.PhasePlaying:
	default:
		return false
	}
	if b, ok := g.Bid(a.PlayerID); ok && !b.Revealed {
		return true
	}
	return g.Phase() == engine.PhasePlaying && g.CurrentPlayerID() == a.PlayerID
}
