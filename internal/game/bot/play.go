package bot

import (
	"github.com/palemoky/ninety-nine/internal/game/card"
	"github.com/palemoky/ninety-nine/internal/game/rule"
)

// naturalPlay 首引出最大的牌，否则出最小的合法牌（有首引花色时即该花色最小的牌）
func naturalPlay(v View, legal []card.Card) card.Card {
	t, ok := v.CurrentTrick()
	if !ok || len(t.Order) == 0 {
		c, _ := card.Highest(legal)
		return c
	}
	c, _ := card.Lowest(legal)
	return c
}

// lookaheadPlay 还差墩数时用最小的能赢的牌抢墩，赢不了就垫最小的；
// 已够叫分时出最大的不会赢的牌，实在躲不开就用最小的牌
func lookaheadPlay(v View, playerID string, legal []card.Card) card.Card {
	need := 0
	if b, ok := v.Bid(playerID); ok {
		need = b.Value
	}
	if p, ok := v.Player(playerID); ok {
		need -= p.TricksWon
	}

	t, ok := v.CurrentTrick()
	if !ok || len(t.Order) == 0 {
		if need > 0 {
			c, _ := card.Highest(legal)
			return c
		}
		c, _ := card.Lowest(legal)
		return c
	}

	plays := trickPlays(t, v)
	var winning, losing []card.Card
	for _, c := range legal {
		candidate := append(append([]rule.Play(nil), plays...), rule.Play{PlayerID: playerID, Card: c})
		if winner, _ := rule.ResolveTrick(candidate, t.LeadSuit, t.Trump); winner == playerID {
			winning = append(winning, c)
		} else {
			losing = append(losing, c)
		}
	}

	if need > 0 {
		if c, ok := card.Lowest(winning); ok {
			return c
		}
		c, _ := card.Lowest(losing)
		return c
	}
	if c, ok := card.Highest(losing); ok {
		return c
	}
	c, _ := card.Lowest(winning)
	return c
}
