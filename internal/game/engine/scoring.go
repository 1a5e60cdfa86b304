package engine

import (
	"slices"

	"github.com/palemoky/ninety-nine/internal/game/card"
	"github.com/palemoky/ninety-nine/internal/game/rule"
	"github.com/palemoky/ninety-nine/internal/game/score"
)

// scoreRound 比较每位玩家的墩数与叫分，更新累计分并进入 scoring
func (g *Game) scoreRound() {
	g.setPhase(PhaseScoring)
	g.currentPlayer = -1
	g.currentTrickID = ""

	result := RoundResult{
		Round:  g.round,
		Deltas: make(map[string]score.Delta),
		Scores: make(map[string]int),
		Trump:  trumpOf(g.trump),
	}

	now := g.touch()
	for _, id := range g.activeOrder() {
		p := g.players[id]
		b, ok := g.bids[id]
		if !ok {
			continue
		}
		combo := rule.ComboNone
		if len(b.Cards) > 0 {
			combo = rule.DetectCombo(g.BidCards(id))
		}
		d := score.RoundDelta(b.Value, p.TricksWon, combo, g.settings.Scoring)
		p.Score += d.Total
		p.UpdatedAt = now
		result.Deltas[id] = d
	}
	for id, p := range g.players {
		result.Scores[id] = p.Score
	}
	g.results = append(g.results, result)
	g.emit(Event{Type: EventRoundScored})
}

// Standings 按累计分从高到低排列的玩家，同分按座位顺序
func (g *Game) Standings() []Player {
	players := make([]Player, 0, len(g.order))
	for _, id := range g.order {
		players = append(players, *g.players[id].clone())
	}
	slices.SortStableFunc(players, func(a, b Player) int {
		return b.Score - a.Score
	})
	return players
}

// trumpOf 本局主花色的指针副本
func trumpOf(s *card.Suit) *card.Suit {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
