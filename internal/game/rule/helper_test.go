package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/ninety-nine/internal/game/card"
)

func suitPtr(s card.Suit) *card.Suit {
	return &s
}

func play(player string, s card.Suit, r card.Rank) Play {
	return Play{PlayerID: player, Card: card.New(s, r)}
}

func TestResolveTrick(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		plays  []Play
		lead   *card.Suit
		trump  *card.Suit
		winner string
	}{
		{
			name: "Lone low trump beats everything",
			plays: []Play{
				play("p1", card.Clubs, card.Rank10),
				play("p2", card.Hearts, card.Rank2),
				play("p3", card.Clubs, card.RankA),
				play("p4", card.Spades, card.RankK),
			},
			lead:   suitPtr(card.Clubs),
			trump:  suitPtr(card.Hearts),
			winner: "p2",
		},
		{
			name: "No trump, off-suit ace cannot win",
			plays: []Play{
				play("p1", card.Spades, card.Rank9),
				play("p2", card.Spades, card.RankK),
				play("p3", card.Diamonds, card.RankA),
			},
			lead:   suitPtr(card.Spades),
			trump:  nil,
			winner: "p2",
		},
		{
			name: "Highest trump among several",
			plays: []Play{
				play("p1", card.Diamonds, card.RankA),
				play("p2", card.Hearts, card.Rank6),
				play("p3", card.Hearts, card.RankJ),
			},
			lead:   suitPtr(card.Diamonds),
			trump:  suitPtr(card.Hearts),
			winner: "p3",
		},
		{
			name: "Highest of lead suit when no trump played",
			plays: []Play{
				play("p1", card.Diamonds, card.Rank7),
				play("p2", card.Clubs, card.RankA),
				play("p3", card.Diamonds, card.RankQ),
			},
			lead:   suitPtr(card.Diamonds),
			trump:  suitPtr(card.Hearts),
			winner: "p3",
		},
		{
			name: "Joker outranks trump",
			plays: []Play{
				play("p1", card.Hearts, card.RankA),
				play("p2", card.Joker, card.RankJoker),
				play("p3", card.Hearts, card.RankK),
			},
			lead:   suitPtr(card.Hearts),
			trump:  suitPtr(card.Hearts),
			winner: "p2",
		},
		{
			name: "Missing lead falls back to first card suit",
			plays: []Play{
				play("p1", card.Clubs, card.Rank8),
				play("p2", card.Clubs, card.Rank9),
			},
			winner: "p2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			winner, ok := ResolveTrick(tt.plays, tt.lead, tt.trump)
			require.True(t, ok)
			assert.Equal(t, tt.winner, winner)

			again, _ := ResolveTrick(tt.plays, tt.lead, tt.trump)
			assert.Equal(t, winner, again)
		})
	}
}

func TestResolveTrick_Empty(t *testing.T) {
	t.Parallel()

	_, ok := ResolveTrick(nil, nil, nil)
	assert.False(t, ok)
}

func TestCanFollow(t *testing.T) {
	t.Parallel()

	hand := []card.Card{
		card.New(card.Spades, card.Rank9),
		card.New(card.Hearts, card.RankA),
		card.New(card.Clubs, card.Rank6),
	}
	spades := suitPtr(card.Spades)

	assert.True(t, CanFollow(hand, hand[0], spades))
	assert.False(t, CanFollow(hand, hand[1], spades))
	assert.False(t, CanFollow(hand, hand[2], spades))
	assert.True(t, CanFollow(hand, hand[1], suitPtr(card.Diamonds)))
	assert.True(t, CanFollow(hand, hand[1], nil))
	assert.True(t, CanFollow(hand, hand[1], suitPtr(card.Joker)))

	legal := LegalCards(hand, spades)
	require.Len(t, legal, 1)
	assert.Equal(t, "S9", legal[0].ID)
	assert.Len(t, LegalCards(hand, suitPtr(card.Diamonds)), 3)
}

// 手中有首引花色时，非该花色的牌都不合法，且至少有一张合法牌
func TestFollowSuitProperty(t *testing.T) {
	t.Parallel()

	deck, err := card.NewDeck(card.VariantNinetyNine, nil)
	require.NoError(t, err)

	for start := 0; start+9 <= len(deck); start += 9 {
		hand := deck[start : start+9]
		for _, lead := range card.StandardSuits {
			if !card.HasSuit(hand, lead) {
				continue
			}
			anyLegal := false
			for _, c := range hand {
				legal := CanFollow(hand, c, &lead)
				if c.Suit != lead {
					assert.False(t, legal, "%s should not follow %s", c, lead)
				}
				anyLegal = anyLegal || legal
			}
			assert.True(t, anyLegal)
		}
	}
}

func TestBidValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cards []card.Card
		value int
	}{
		{name: "Three clubs", cards: []card.Card{card.New(card.Clubs, card.Rank6), card.New(card.Clubs, card.Rank7), card.New(card.Clubs, card.Rank8)}, value: 9},
		{name: "Mixed", cards: []card.Card{card.New(card.Hearts, card.Rank6), card.New(card.Spades, card.Rank7), card.New(card.Diamonds, card.Rank8)}, value: 3},
		{name: "Zero", cards: []card.Card{card.New(card.Diamonds, card.Rank6), card.New(card.Diamonds, card.Rank7), card.New(card.Joker, card.RankJoker)}, value: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.value, BidValue(tt.cards))
		})
	}
	assert.Equal(t, 9, MaxCardBid(3))
}

func TestDetectCombo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cards []card.Card
		combo Combo
	}{
		{
			name:  "Three of a kind",
			cards: []card.Card{card.New(card.Clubs, card.Rank9), card.New(card.Hearts, card.Rank9), card.New(card.Spades, card.Rank9)},
			combo: ComboThreeOfKind,
		},
		{
			name:  "Run",
			cards: []card.Card{card.New(card.Hearts, card.Rank8), card.New(card.Hearts, card.Rank10), card.New(card.Hearts, card.Rank9)},
			combo: ComboRun,
		},
		{
			name:  "Marriage",
			cards: []card.Card{card.New(card.Spades, card.RankK), card.New(card.Spades, card.RankQ), card.New(card.Clubs, card.Rank6)},
			combo: ComboMarriage,
		},
		{
			name:  "Run beats marriage",
			cards: []card.Card{card.New(card.Spades, card.RankK), card.New(card.Spades, card.RankQ), card.New(card.Spades, card.RankJ)},
			combo: ComboRun,
		},
		{
			name:  "King and queen of different suits",
			cards: []card.Card{card.New(card.Spades, card.RankK), card.New(card.Hearts, card.RankQ), card.New(card.Clubs, card.Rank6)},
			combo: ComboNone,
		},
		{
			name:  "Gap is not a run",
			cards: []card.Card{card.New(card.Hearts, card.Rank6), card.New(card.Hearts, card.Rank8), card.New(card.Hearts, card.Rank9)},
			combo: ComboNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.combo, DetectCombo(tt.cards))
		})
	}
	assert.Equal(t, "marriage", ComboMarriage.String())
}
