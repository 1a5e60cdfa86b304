package rule

import (
	"github.com/palemoky/ninety-nine/internal/game/card"
)

// Play 一墩中某位玩家出的牌
type Play struct {
	PlayerID string
	Card     card.Card
}

// Beats 判断 a 是否压过 b。王牌无条件最大，其次是主牌，
// 非主牌只有首引花色才能赢
func Beats(a, b card.Card, lead, trump *card.Suit) bool {
	if a.IsJoker() != b.IsJoker() {
		return a.IsJoker()
	}
	if trump != nil {
		aTrump, bTrump := a.Suit == *trump, b.Suit == *trump
		if aTrump != bTrump {
			return aTrump
		}
		if aTrump {
			return a.Strength() > b.Strength()
		}
	}
	if lead != nil {
		aLead, bLead := a.Suit == *lead, b.Suit == *lead
		if aLead != bLead {
			return aLead
		}
		if aLead {
			return a.Strength() > b.Strength()
		}
	}
	return false
}

// ResolveTrick 计算一墩的赢家。结果只取决于出的牌、首引花色和主花色。
// 没有出牌时返回 false
func ResolveTrick(plays []Play, lead, trump *card.Suit) (string, bool) {
	if len(plays) == 0 {
		return "", false
	}

	// 王牌先于主牌和首引花色判断
	for _, p := range plays {
		if p.Card.IsJoker() {
			return p.PlayerID, true
		}
	}

	if lead == nil {
		s := plays[0].Card.Suit
		lead = &s
	}

	best := 0
	for i := 1; i < len(plays); i++ {
		if Beats(plays[i].Card, plays[best].Card, lead, trump) {
			best = i
		}
	}
	return plays[best].PlayerID, true
}
