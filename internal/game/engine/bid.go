package engine

import (
	"slices"

	"github.com/palemoky/ninety-nine/internal/apperrors"
	"github.com/palemoky/ninety-nine/internal/game/card"
	"github.com/palemoky/ninety-nine/internal/game/rule"
)

// CardBidMode 本局是否用牌叫分
func (g *Game) CardBidMode() bool {
	return g.settings.BidCards > 0
}

// checkBid 校验叫分，返回归一化后的叫分值和扣下的牌；不修改状态
func (g *Game) checkBid(playerID string, offer BidOffer) (int, []string, error) {
	if g.phase != PhaseBidding {
		return 0, nil, apperrors.Newf(apperrors.KindGameState, "%s 阶段不能叫分", g.phase)
	}
	if g.bidPhaseComplete {
		return 0, nil, apperrors.New(apperrors.KindGameState, "叫分已经结束")
	}
	p, ok := g.players[playerID]
	if !ok || !p.Active {
		return 0, nil, apperrors.Newf(apperrors.KindValidation, "玩家 %s 不在本局中", playerID)
	}
	if _, done := g.bids[playerID]; done {
		return 0, nil, apperrors.Newf(apperrors.KindValidation, "玩家 %s 本局已经叫过分", playerID)
	}
	if g.CurrentBidderID() != playerID {
		return 0, nil, apperrors.ErrNotYourTurn
	}

	if g.CardBidMode() {
		if offer.Value != nil {
			return 0, nil, apperrors.New(apperrors.KindValidation, "本局需要用牌叫分")
		}
		if len(offer.Cards) != g.settings.BidCards {
			return 0, nil, apperrors.Newf(apperrors.KindValidation, "需要扣下 %d 张牌叫分", g.settings.BidCards)
		}
		cards := make([]card.Card, 0, len(offer.Cards))
		for i, id := range offer.Cards {
			if slices.Contains(offer.Cards[:i], id) {
				return 0, nil, apperrors.Newf(apperrors.KindValidation, "叫分牌重复: %s", id)
			}
			if !slices.Contains(p.Hand, id) {
				return 0, nil, apperrors.Newf(apperrors.KindCardNotInHand, "%s 不在手牌中", id)
			}
			cards = append(cards, g.cards[id])
		}
		return rule.BidValue(cards), append([]string(nil), offer.Cards...), nil
	}

	if len(offer.Cards) > 0 || offer.Value == nil {
		return 0, nil, apperrors.New(apperrors.KindValidation, "本局需要直接报数")
	}
	v := *offer.Value
	if v < 0 || v > g.TricksPerRound() {
		return 0, nil, apperrors.Newf(apperrors.KindValidation, "叫分必须在 0-%d 之间", g.TricksPerRound())
	}
	return v, nil, nil
}

// ValidateBid 校验叫分是否合法，不修改状态
func (g *Game) ValidateBid(playerID string, offer BidOffer) error {
	_, _, err := g.checkBid(playerID, offer)
	return err
}

// PlaceBid 叫分。叫分严格按座位顺序进行，用牌叫分时扣下的牌离开手牌。
// 最后一人叫完后叫分结束
func (g *Game) PlaceBid(playerID string, offer BidOffer) error {
	defer g.flush()
	value, cards, err := g.checkBid(playerID, offer)
	if err != nil {
		return err
	}

	now := g.touch()
	p := g.players[playerID]
	if len(cards) > 0 {
		p.Hand = card.RemoveCards(p.Hand, cards...)
		p.UpdatedAt = now
	}
	g.bids[playerID] = &Bid{
		PlayerID:  playerID,
		Cards:     cards,
		Value:     value,
		PlacedAt:  now,
		UpdatedAt: now,
	}
	g.emit(Event{Type: EventBidPlaced, PlayerID: playerID})

	g.advanceBidder()
	if g.bidPhaseComplete && !g.settings.RevealBeforePlay {
		g.startPlay()
	}
	return nil
}

// advanceBidder 移到下一个还没叫分的座位，全部叫完则结束叫分
func (g *Game) advanceBidder() {
	n := len(g.order)
	for i := 1; i <= n; i++ {
		seat := (g.currentBidder + i) % n
		id := g.order[seat]
		if !g.players[id].Active {
			continue
		}
		if _, done := g.bids[id]; !done {
			g.currentBidder = seat
			return
		}
	}
	g.currentBidder = -1
	g.bidPhaseComplete = true
}

// RevealBid 亮出叫分。叫分结束后才能亮分，亮分与出牌顺序无关；
// 需要全部亮分才开始出牌时，最后一人亮分后进入出牌阶段
func (g *Game) RevealBid(playerID string) error {
	defer g.flush()
	if g.phase != PhaseBidding && g.phase != PhasePlaying {
		return apperrors.Newf(apperrors.KindGameState, "%s 阶段不能亮分", g.phase)
	}
	if !g.bidPhaseComplete {
		return apperrors.New(apperrors.KindGameState, "叫分尚未结束")
	}
	b, ok := g.bids[playerID]
	if !ok {
		return apperrors.Newf(apperrors.KindValidation, "玩家 %s 没有叫分", playerID)
	}
	if b.Revealed {
		return apperrors.Newf(apperrors.KindValidation, "玩家 %s 已经亮过分", playerID)
	}

	b.Revealed = true
	b.UpdatedAt = g.touch()
	g.emit(Event{Type: EventBidRevealed, PlayerID: playerID})

	if g.phase == PhaseBidding && g.allRevealed() {
		g.startPlay()
	}
	return nil
}

func (g *Game) allRevealed() bool {
	for _, b := range g.bids {
		if !b.Revealed {
			return false
		}
	}
	return len(g.bids) > 0
}

// BidCards 返回玩家扣下的叫分牌
func (g *Game) BidCards(playerID string) []card.Card {
	b, ok := g.bids[playerID]
	if !ok {
		return nil
	}
	cards := make([]card.Card, 0, len(b.Cards))
	for _, id := range b.Cards {
		cards = append(cards, g.cards[id])
	}
	return cards
}
