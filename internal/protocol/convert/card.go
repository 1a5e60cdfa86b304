package convert

import (
	"github.com/palemoky/ninety-nine/internal/game/card"
	"github.com/palemoky/ninety-nine/internal/protocol"
)

// CardToInfo 将 card.Card 转换为 protocol.CardInfo
func CardToInfo(c card.Card) protocol.CardInfo {
	return protocol.CardInfo{
		ID:   c.ID,
		Suit: int(c.Suit),
		Rank: int(c.Rank),
	}
}

// CardsToInfos 将 []card.Card 转换为 []protocol.CardInfo
func CardsToInfos(cards []card.Card) []protocol.CardInfo {
	infos := make([]protocol.CardInfo, len(cards))
	for i, c := range cards {
		infos[i] = CardToInfo(c)
	}
	return infos
}

// InfoToCard 将 protocol.CardInfo 转换为 card.Card，ID 由花色和点数重新生成
func InfoToCard(info protocol.CardInfo) card.Card {
	return card.New(card.Suit(info.Suit), card.Rank(info.Rank))
}

// InfosToCards 将 []protocol.CardInfo 转换为 []card.Card
func InfosToCards(infos []protocol.CardInfo) []card.Card {
	cards := make([]card.Card, len(infos))
	for i, info := range infos {
		cards[i] = InfoToCard(info)
	}
	return cards
}

// SuitCode 返回花色字母，nil 表示无
func SuitCode(s *card.Suit) string {
	if s == nil {
		return ""
	}
	return s.Code()
}
