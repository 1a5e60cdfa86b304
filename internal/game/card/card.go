package card

import (
	"fmt"
	"strconv"
)

// Suit 定义花色
type Suit int

// Rank 定义点数
type Rank int

const (
	Clubs    Suit = iota // 梅花
	Diamonds             // 方块
	Hearts               // 红心
	Spades               // 黑桃
	Joker                // 王牌
)

// StandardSuits 四种常规花色
var StandardSuits = []Suit{Clubs, Diamonds, Hearts, Spades}

// suitSymbols 花色符号映射表
var suitSymbols = map[Suit]string{
	Clubs:    "♣",
	Diamonds: "♦",
	Hearts:   "♥",
	Spades:   "♠",
	Joker:    "🃏",
}

// suitCodes 花色字母，用于生成牌 ID
var suitCodes = map[Suit]string{
	Clubs:    "C",
	Diamonds: "D",
	Hearts:   "H",
	Spades:   "S",
	Joker:    "J",
}

func (s Suit) String() string {
	if symbol, ok := suitSymbols[s]; ok {
		return symbol
	}
	return ""
}

// Code 返回花色字母
func (s Suit) Code() string {
	return suitCodes[s]
}

// Valid 是否为已知花色
func (s Suit) Valid() bool {
	_, ok := suitCodes[s]
	return ok
}

const (
	Rank2 Rank = iota + 2
	Rank3
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
	Rank9
	Rank10
	RankJ // Jack
	RankQ // Queen
	RankK // King
	RankA // Ace
	RankJoker
)

// rankNames 牌面值字符串映射表
var rankNames = map[Rank]string{
	Rank2:     "2",
	Rank3:     "3",
	Rank4:     "4",
	Rank5:     "5",
	Rank6:     "6",
	Rank7:     "7",
	Rank8:     "8",
	Rank9:     "9",
	Rank10:    "10",
	RankJ:     "J",
	RankQ:     "Q",
	RankK:     "K",
	RankA:     "A",
	RankJoker: "Joker",
}

// rankStrength 点数大小表，整个引擎的比较都只读这一张表
var rankStrength = map[Rank]int{
	Rank2:     2,
	Rank3:     3,
	Rank4:     4,
	Rank5:     5,
	Rank6:     6,
	Rank7:     7,
	Rank8:     8,
	Rank9:     9,
	Rank10:    10,
	RankJ:     11,
	RankQ:     12,
	RankK:     13,
	RankA:     14,
	RankJoker: 15,
}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return strconv.Itoa(int(r))
}

// Strength 返回点数强度，未知点数为 0
func (r Rank) Strength() int {
	return rankStrength[r]
}

// Card 定义一张牌，发出后只有 FaceUp 会变化
type Card struct {
	ID     string `json:"id"`
	Suit   Suit   `json:"suit"`
	Rank   Rank   `json:"rank"`
	FaceUp bool   `json:"face_up,omitempty"`
}

// New 创建一张牌并生成 ID
func New(s Suit, r Rank) Card {
	return Card{ID: MakeID(s, r), Suit: s, Rank: r}
}

// MakeID 生成牌 ID，例如 "HA"、"C10"、"JK"
func MakeID(s Suit, r Rank) string {
	if s == Joker {
		return "JK"
	}
	return s.Code() + rankNames[r]
}

// IsJoker 是否为王牌
func (c Card) IsJoker() bool {
	return c.Suit == Joker || c.Rank == RankJoker
}

// Strength 返回牌的点数强度
func (c Card) Strength() int {
	return c.Rank.Strength()
}

func (c Card) String() string {
	if c.IsJoker() {
		return "Joker"
	}
	return fmt.Sprintf("%s%s", c.Suit, c.Rank)
}
