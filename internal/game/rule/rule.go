package rule

import (
	"github.com/palemoky/ninety-nine/internal/game/card"
)

// leadRestricts 首引花色是否限制跟牌，王牌首引时不限制
func leadRestricts(lead *card.Suit) bool {
	return lead != nil && *lead != card.Joker
}

// CanFollow 判断出这张牌是否满足跟牌规则：
// 手中有首引花色时必须跟出该花色，否则可以出任意牌（包括主牌）
func CanFollow(hand []card.Card, c card.Card, lead *card.Suit) bool {
	if !leadRestricts(lead) {
		return true
	}
	if c.Suit == *lead {
		return true
	}
	return !card.HasSuit(hand, *lead)
}

// LegalCards 返回手牌中所有可以合法打出的牌
func LegalCards(hand []card.Card, lead *card.Suit) []card.Card {
	if leadRestricts(lead) && card.HasSuit(hand, *lead) {
		return card.OfSuit(hand, *lead)
	}
	return append([]card.Card(nil), hand...)
}
