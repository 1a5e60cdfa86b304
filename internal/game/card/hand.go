package card

import (
	"fmt"
	"slices"
	"strings"
)

// suitByCode 用于快速查找字母对应的花色
var suitByCode = map[byte]Suit{
	'C': Clubs,
	'D': Diamonds,
	'H': Hearts,
	'S': Spades,
}

// rankByName 用于快速查找字符串对应的点数
var rankByName = map[string]Rank{
	"2":  Rank2,
	"3":  Rank3,
	"4":  Rank4,
	"5":  Rank5,
	"6":  Rank6,
	"7":  Rank7,
	"8":  Rank8,
	"9":  Rank9,
	"10": Rank10,
	"T":  Rank10,
	"J":  RankJ,
	"Q":  RankQ,
	"K":  RankK,
	"A":  RankA,
}

// ParseID 将牌 ID 解析为一张牌
func ParseID(id string) (Card, error) {
	clean := strings.ToUpper(strings.TrimSpace(id))
	if clean == "JK" {
		return New(Joker, RankJoker), nil
	}
	if len(clean) < 2 {
		return Card{}, fmt.Errorf("无法识别的牌: %q", id)
	}
	suit, ok := suitByCode[clean[0]]
	if !ok {
		return Card{}, fmt.Errorf("无法识别的花色: %q", id)
	}
	rank, ok := rankByName[clean[1:]]
	if !ok {
		return Card{}, fmt.Errorf("无法识别的点数: %q", id)
	}
	return New(suit, rank), nil
}

// IndexOf 查找牌在手牌中的位置
func IndexOf(hand []Card, id string) int {
	return slices.IndexFunc(hand, func(c Card) bool { return c.ID == id })
}

// HasSuit 手牌中是否有指定花色
func HasSuit(hand []Card, s Suit) bool {
	return slices.ContainsFunc(hand, func(c Card) bool { return c.Suit == s })
}

// OfSuit 返回手牌中指定花色的牌
func OfSuit(hand []Card, s Suit) []Card {
	var result []Card
	for _, c := range hand {
		if c.Suit == s {
			result = append(result, c)
		}
	}
	return result
}

// CountBySuit 统计手牌中各花色的数量
func CountBySuit(hand []Card) map[Suit]int {
	counts := make(map[Suit]int)
	for _, c := range hand {
		counts[c.Suit]++
	}
	return counts
}

// SortHand 按花色、再按点数从大到小排序
func SortHand(hand []Card) {
	slices.SortStableFunc(hand, func(a, b Card) int {
		if a.Suit != b.Suit {
			return int(a.Suit) - int(b.Suit)
		}
		return b.Strength() - a.Strength()
	})
}

// Highest 返回点数最大的牌，相同时取先出现的
func Highest(cards []Card) (Card, bool) {
	if len(cards) == 0 {
		return Card{}, false
	}
	best := cards[0]
	for _, c := range cards[1:] {
		if c.Strength() > best.Strength() {
			best = c
		}
	}
	return best, true
}

// Lowest 返回点数最小的牌，相同时取先出现的
func Lowest(cards []Card) (Card, bool) {
	if len(cards) == 0 {
		return Card{}, false
	}
	best := cards[0]
	for _, c := range cards[1:] {
		if c.Strength() < best.Strength() {
			best = c
		}
	}
	return best, true
}

// RemoveCards 从手牌中移除指定 ID 的牌
func RemoveCards(hand []string, toRemove ...string) []string {
	result := make([]string, 0, len(hand))
	for _, id := range hand {
		if !slices.Contains(toRemove, id) {
			result = append(result, id)
		}
	}
	return result
}
