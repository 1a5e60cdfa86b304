package rule

import (
	"slices"

	"github.com/palemoky/ninety-nine/internal/game/card"
)

// suitBidValues 用牌叫分时各花色代表的点数
var suitBidValues = map[card.Suit]int{
	card.Clubs:    3,
	card.Hearts:   2,
	card.Spades:   1,
	card.Diamonds: 0,
	card.Joker:    0,
}

// SuitBidValue 返回花色的叫分点数
func SuitBidValue(s card.Suit) int {
	return suitBidValues[s]
}

// BidValue 将一组叫分牌换算成叫分
func BidValue(cards []card.Card) int {
	total := 0
	for _, c := range cards {
		total += SuitBidValue(c.Suit)
	}
	return total
}

// MaxCardBid n 张叫分牌能表示的最大叫分
func MaxCardBid(n int) int {
	return n * suitBidValues[card.Clubs]
}

// Combo 叫分牌中的特殊组合
type Combo int

const (
	ComboNone        Combo = iota
	ComboMarriage          // 同花色的 K 和 Q
	ComboRun               // 同花色三张连续
	ComboThreeOfKind       // 三张同点数
)

var comboNames = map[Combo]string{
	ComboNone:        "none",
	ComboMarriage:    "marriage",
	ComboRun:         "run",
	ComboThreeOfKind: "three-of-a-kind",
}

func (c Combo) String() string {
	return comboNames[c]
}

// DetectCombo 检查叫分牌中的特殊组合，多个组合同时存在时只取最高的一个
func DetectCombo(cards []card.Card) Combo {
	if hasThreeOfKind(cards) {
		return ComboThreeOfKind
	}
	if hasRun(cards) {
		return ComboRun
	}
	if hasMarriage(cards) {
		return ComboMarriage
	}
	return ComboNone
}

// hasThreeOfKind 是否有三张同点数
func hasThreeOfKind(cards []card.Card) bool {
	counts := make(map[card.Rank]int)
	for _, c := range cards {
		if c.IsJoker() {
			continue
		}
		counts[c.Rank]++
		if counts[c.Rank] >= 3 {
			return true
		}
	}
	return false
}

// hasRun 是否有同花色三张连续
func hasRun(cards []card.Card) bool {
	bySuit := make(map[card.Suit][]int)
	for _, c := range cards {
		if c.IsJoker() {
			continue
		}
		bySuit[c.Suit] = append(bySuit[c.Suit], c.Strength())
	}
	for _, strengths := range bySuit {
		if len(strengths) < 3 {
			continue
		}
		slices.Sort(strengths)
		strengths = slices.Compact(strengths)
		for i := 0; i+2 < len(strengths); i++ {
			if strengths[i+1] == strengths[i]+1 && strengths[i+2] == strengths[i]+2 {
				return true
			}
		}
	}
	return false
}

// hasMarriage 是否有同花色的 K 和 Q
func hasMarriage(cards []card.Card) bool {
	kings := make(map[card.Suit]bool)
	queens := make(map[card.Suit]bool)
	for _, c := range cards {
		switch c.Rank {
		case card.RankK:
			kings[c.Suit] = true
		case card.RankQ:
			queens[c.Suit] = true
		}
	}
	for s := range kings {
		if queens[s] {
			return true
		}
	}
	return false
}
