package card

import (
	"fmt"
	"math/rand/v2"

	"github.com/palemoky/ninety-nine/internal/apperrors"
)

// Variant 牌组类型
type Variant string

const (
	VariantStandard   Variant = "standard"    // 52 张
	VariantNinetyNine Variant = "ninety-nine" // 6..A 共 36 张加 1 张王
)

// ParseVariant 解析牌组类型
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantStandard, VariantNinetyNine:
		return Variant(s), nil
	default:
		return "", fmt.Errorf("未知的牌组类型: %q", s)
	}
}

// Size 返回牌组总张数
func (v Variant) Size() int {
	switch v {
	case VariantStandard:
		return 52
	case VariantNinetyNine:
		return 37
	default:
		return 0
	}
}

// lowestRank 牌组中最小的点数
func (v Variant) lowestRank() Rank {
	if v == VariantNinetyNine {
		return Rank6
	}
	return Rank2
}

// Deck 定义一副牌
type Deck []Card

// NewDeck 创建并洗好一副牌，rng 为 nil 时使用全局随机源
func NewDeck(v Variant, rng *rand.Rand) (Deck, error) {
	if v.Size() == 0 {
		return nil, fmt.Errorf("未知的牌组类型: %q", v)
	}
	deck := make(Deck, 0, v.Size())
	for _, s := range StandardSuits {
		for r := v.lowestRank(); r <= RankA; r++ {
			deck = append(deck, New(s, r))
		}
	}
	if v == VariantNinetyNine {
		deck = append(deck, New(Joker, RankJoker))
	}
	deck.Shuffle(rng)
	return deck, nil
}

// Shuffle Fisher-Yates 洗牌
func (d Deck) Shuffle(rng *rand.Rand) {
	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}
	for i := len(d) - 1; i > 0; i-- {
		j := intN(i + 1)
		d[i], d[j] = d[j], d[i]
	}
}

// DealResult 发牌结果
type DealResult struct {
	Hands  [][]Card
	Stock  Deck
	Turnup *Card // 翻开的定主牌，牌堆恰好发完时为 nil
}

// Deal 轮流发牌，每轮每人一张，发完后再翻开下一张作为定主牌
func Deal(deck Deck, numPlayers, cardsPerPlayer int) (DealResult, error) {
	if numPlayers <= 0 || cardsPerPlayer <= 0 {
		return DealResult{}, apperrors.Newf(apperrors.KindSetup, "无效的发牌参数: %d 人，每人 %d 张", numPlayers, cardsPerPlayer)
	}
	need := numPlayers * cardsPerPlayer
	if len(deck) < need {
		return DealResult{}, apperrors.Newf(apperrors.KindSetup, "牌数不足: 需要 %d 张，只有 %d 张", need, len(deck))
	}

	hands := make([][]Card, numPlayers)
	for i := range hands {
		hands[i] = make([]Card, 0, cardsPerPlayer)
	}
	pos := 0
	for range cardsPerPlayer {
		for i := range numPlayers {
			hands[i] = append(hands[i], deck[pos])
			pos++
		}
	}

	result := DealResult{Hands: hands}
	if pos < len(deck) {
		turnup := deck[pos]
		turnup.FaceUp = true
		result.Turnup = &turnup
		pos++
	}
	result.Stock = append(Deck(nil), deck[pos:]...)
	return result, nil
}
