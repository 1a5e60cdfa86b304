package bot

import (
	"github.com/palemoky/ninety-nine/internal/game/card"
	"github.com/palemoky/ninety-nine/internal/game/engine"
	"github.com/palemoky/ninety-nine/internal/game/rule"
)

// highCardRank 不小于该点数的牌算作高牌
const highCardRank = card.Rank10

// highCards 统计高牌数，王牌也算
func highCards(hand []card.Card) int {
	n := 0
	for _, c := range hand {
		if c.IsJoker() || c.Rank >= highCardRank {
			n++
		}
	}
	return n
}

// longSuits 统计不少于 3 张的花色数
func longSuits(hand []card.Card) int {
	n := 0
	for s, count := range card.CountBySuit(hand) {
		if s != card.Joker && count >= 3 {
			n++
		}
	}
	return n
}

// makeOffer 把估计的墩数换成叫分：直接报数时封顶到本局墩数，
// 用牌叫分时选出最接近目标的叫分牌
func makeOffer(v View, playerID string, estimate int) (engine.BidOffer, error) {
	settings := v.Settings()
	limit := v.TricksPerRound()
	if v.CardBidMode() {
		limit = min(limit, rule.MaxCardBid(settings.BidCards))
	}
	target := max(0, min(estimate, limit))

	if !v.CardBidMode() {
		return engine.ValueBid(target), nil
	}
	cards := chooseBidCards(v.Hand(playerID), settings.BidCards, target)
	if len(cards) == 0 {
		return engine.BidOffer{}, errNoBidCards
	}
	ids := make([]string, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	return engine.CardBid(ids...), nil
}

// chooseBidCards 在手牌中选 n 张叫分牌，使叫分最接近 target；
// 同样接近时扣下点数较小的牌，把大牌留着打墩
func chooseBidCards(hand []card.Card, n, target int) []card.Card {
	if n <= 0 || len(hand) < n {
		return nil
	}

	var best []card.Card
	bestDiff, bestStrength := -1, 0
	combo := make([]card.Card, 0, n)

	var walk func(start int)
	walk = func(start int) {
		if len(combo) == n {
			diff := abs(rule.BidValue(combo) - target)
			strength := 0
			for _, c := range combo {
				strength += c.Strength()
			}
			if bestDiff < 0 || diff < bestDiff || (diff == bestDiff && strength < bestStrength) {
				best = append(best[:0], combo...)
				bestDiff, bestStrength = diff, strength
			}
			return
		}
		for i := start; i <= len(hand)-(n-len(combo)); i++ {
			combo = append(combo, hand[i])
			walk(i + 1)
			combo = combo[:len(combo)-1]
		}
	}
	walk(0)
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
