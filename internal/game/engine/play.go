package engine

import (
	"slices"

	"github.com/palemoky/ninety-nine/internal/apperrors"
	"github.com/palemoky/ninety-nine/internal/game/card"
	"github.com/palemoky/ninety-nine/internal/game/rule"
)

// CheckPlay 校验出牌，不修改状态
func (g *Game) CheckPlay(playerID, cardID string) error {
	if g.phase != PhasePlaying {
		return apperrors.Newf(apperrors.KindGameState, "%s 阶段不能出牌", g.phase)
	}
	p, ok := g.players[playerID]
	if !ok || !p.Active {
		return apperrors.Newf(apperrors.KindValidation, "玩家 %s 不在本局中", playerID)
	}
	if g.CurrentPlayerID() != playerID {
		return apperrors.ErrNotYourTurn
	}
	if !slices.Contains(p.Hand, cardID) {
		return apperrors.Newf(apperrors.KindCardNotInHand, "%s 不在手牌中", cardID)
	}
	t := g.tricks[g.currentTrickID]
	if !rule.CanFollow(g.handCards(p), g.cards[cardID], t.LeadSuit) {
		return apperrors.Newf(apperrors.KindMustFollowSuit, "必须跟出 %s", *t.LeadSuit)
	}
	return nil
}

// IsLegalPlay 出这张牌是否合法
func (g *Game) IsLegalPlay(playerID, cardID string) bool {
	return g.CheckPlay(playerID, cardID) == nil
}

// LegalCards 返回玩家当前可以出的牌，不是该玩家出牌时为空
func (g *Game) LegalCards(playerID string) []card.Card {
	if g.phase != PhasePlaying || g.CurrentPlayerID() != playerID {
		return nil
	}
	p := g.players[playerID]
	return rule.LegalCards(g.handCards(p), g.tricks[g.currentTrickID].LeadSuit)
}

// PlayCard 出牌。一墩出齐后结算赢家，赢家引下一墩；
// 本局所有墩打完后自动进入结算
func (g *Game) PlayCard(playerID, cardID string) error {
	defer g.flush()
	if err := g.CheckPlay(playerID, cardID); err != nil {
		return err
	}

	now := g.touch()
	p := g.players[playerID]
	p.Hand = card.RemoveCards(p.Hand, cardID)
	p.UpdatedAt = now

	c := g.cards[cardID]
	c.FaceUp = true
	g.cards[cardID] = c

	t := g.tricks[g.currentTrickID]
	if len(t.Order) == 0 {
		s := c.Suit
		t.LeadSuit = &s
	}
	t.Order = append(t.Order, playerID)
	t.Plays[playerID] = cardID
	t.UpdatedAt = now
	g.emit(Event{Type: EventCardPlayed, PlayerID: playerID, CardID: cardID, TrickID: t.ID})

	if len(t.Order) < len(g.activeOrder()) {
		g.currentPlayer = g.nextActiveSeat(g.currentPlayer + 1)
		return nil
	}
	g.completeTrick(t)
	return nil
}

// completeTrick 结算一墩，赢家成为下一墩的首引
func (g *Game) completeTrick(t *Trick) {
	plays := make([]rule.Play, 0, len(t.Order))
	for _, id := range t.Order {
		plays = append(plays, rule.Play{PlayerID: id, Card: g.cards[t.Plays[id]]})
	}
	winnerID, _ := rule.ResolveTrick(plays, t.LeadSuit, t.Trump)

	now := g.touch()
	t.WinnerID = winnerID
	t.Complete = true
	t.UpdatedAt = now
	winner := g.players[winnerID]
	winner.TricksWon++
	winner.UpdatedAt = now

	g.history = append(g.history, t.ID)
	g.tricksPlayed++
	g.currentPlayer = g.seatOf(winnerID)
	g.emit(Event{Type: EventTrickCompleted, PlayerID: winnerID, TrickID: t.ID})

	if g.tricksPlayed >= g.TricksPerRound() {
		g.scoreRound()
		return
	}
	g.openTrick()
}
