package engine

import (
	"fmt"

	"github.com/palemoky/ninety-nine/internal/apperrors"
	"github.com/palemoky/ninety-nine/internal/game/card"
	"github.com/palemoky/ninety-nine/internal/game/score"
)

// Phase 游戏阶段
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseDealing
	PhaseBidding
	PhasePlaying
	PhaseScoring
	PhaseFinished
)

var phaseNames = map[Phase]string{
	PhaseSetup:    "setup",
	PhaseDealing:  "dealing",
	PhaseBidding:  "bidding",
	PhasePlaying:  "playing",
	PhaseScoring:  "scoring",
	PhaseFinished: "finished",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText 快照中以名称保存阶段
func (p Phase) MarshalText() ([]byte, error) {
	if _, ok := phaseNames[p]; !ok {
		return nil, fmt.Errorf("未知的阶段: %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText 解析阶段名称
func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("未知的阶段: %q", text)
}

// Settings 对局设置
type Settings struct {
	Variant          card.Variant `json:"variant"`
	MinPlayers       int          `json:"min_players"`
	MaxPlayers       int          `json:"max_players"`
	CardsPerPlayer   int          `json:"cards_per_player"`
	BidCards         int          `json:"bid_cards"` // 用牌叫分时每人扣下的张数，0 表示直接报数
	MaxRounds        int          `json:"max_rounds"` // 0 表示不限局数
	TrumpAllowed     bool         `json:"trump_allowed"`
	RevealBeforePlay bool         `json:"reveal_before_play"` // 所有叫分亮出后才开始出牌
	Scoring          score.Table  `json:"scoring"`
}

// NinetyNineSettings 三人 37 张牌的经典玩法
func NinetyNineSettings() Settings {
	return Settings{
		Variant:          card.VariantNinetyNine,
		MinPlayers:       3,
		MaxPlayers:       3,
		CardsPerPlayer:   12,
		BidCards:         3,
		MaxRounds:        9,
		TrumpAllowed:     true,
		RevealBeforePlay: true,
		Scoring:          score.DefaultTable(),
	}
}

// StandardSettings 52 张牌、直接报数的玩法
func StandardSettings() Settings {
	return Settings{
		Variant:          card.VariantStandard,
		MinPlayers:       2,
		MaxPlayers:       4,
		CardsPerPlayer:   13,
		BidCards:         0,
		MaxRounds:        10,
		TrumpAllowed:     true,
		RevealBeforePlay: true,
		Scoring:          score.DefaultTable(),
	}
}

// TricksPerRound 每局的墩数
func (s Settings) TricksPerRound() int {
	return s.CardsPerPlayer - s.BidCards
}

// Validate 检查设置是否自洽
func (s Settings) Validate() error {
	if s.Variant.Size() == 0 {
		return apperrors.Newf(apperrors.KindValidation, "未知的牌组类型: %q", s.Variant)
	}
	if s.MinPlayers < 2 || s.MaxPlayers < s.MinPlayers {
		return apperrors.Newf(apperrors.KindValidation, "无效的人数范围: %d-%d", s.MinPlayers, s.MaxPlayers)
	}
	if s.CardsPerPlayer <= 0 || s.BidCards < 0 || s.TricksPerRound() <= 0 {
		return apperrors.Newf(apperrors.KindValidation, "无效的发牌设置: 每人 %d 张，叫分 %d 张", s.CardsPerPlayer, s.BidCards)
	}
	if s.MaxRounds < 0 {
		return apperrors.New(apperrors.KindValidation, "局数上限不能为负")
	}
	return nil
}

// Player 玩家
type Player struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Hand      []string `json:"hand"`
	TricksWon int      `json:"tricks_won"`
	Score     int      `json:"score"`
	Active    bool     `json:"active"`
	AI        bool     `json:"ai"`
	Level     string   `json:"level,omitempty"`
	UpdatedAt int64    `json:"updated_at"`
}

func (p *Player) clone() *Player {
	cp := *p
	cp.Hand = append([]string(nil), p.Hand...)
	return &cp
}

// PlayerSpec 加入对局时的玩家信息
type PlayerSpec struct {
	ID    string
	Name  string
	AI    bool
	Level string
}

// Trick 一墩
type Trick struct {
	ID        string            `json:"id"`
	Order     []string          `json:"order"` // 出牌顺序
	Plays     map[string]string `json:"plays"` // 玩家 ID -> 牌 ID
	LeadSuit  *card.Suit        `json:"lead_suit,omitempty"`
	Trump     *card.Suit        `json:"trump,omitempty"`
	WinnerID  string            `json:"winner_id,omitempty"`
	Complete  bool              `json:"complete"`
	UpdatedAt int64             `json:"updated_at"`
}

func (t *Trick) clone() *Trick {
	cp := *t
	cp.Order = append([]string(nil), t.Order...)
	cp.Plays = make(map[string]string, len(t.Plays))
	for k, v := range t.Plays {
		cp.Plays[k] = v
	}
	if t.LeadSuit != nil {
		s := *t.LeadSuit
		cp.LeadSuit = &s
	}
	if t.Trump != nil {
		s := *t.Trump
		cp.Trump = &s
	}
	return &cp
}

// Bid 玩家的叫分
type Bid struct {
	PlayerID  string   `json:"player_id"`
	Cards     []string `json:"cards,omitempty"`
	Value     int      `json:"value"`
	Revealed  bool     `json:"revealed"`
	PlacedAt  int64    `json:"placed_at"` // 只用于排序，不参与规则
	UpdatedAt int64    `json:"updated_at"`
}

func (b *Bid) clone() *Bid {
	cp := *b
	cp.Cards = append([]string(nil), b.Cards...)
	return &cp
}

// BidOffer 叫分请求，Cards 和 Value 只能填一个
type BidOffer struct {
	Cards []string `json:"cards,omitempty"`
	Value *int     `json:"value,omitempty"`
}

// CardBid 用牌叫分
func CardBid(ids ...string) BidOffer {
	return BidOffer{Cards: ids}
}

// ValueBid 直接报数
func ValueBid(v int) BidOffer {
	return BidOffer{Value: &v}
}

// RoundResult 一局结束后的得分
type RoundResult struct {
	Round  int                    `json:"round"`
	Trump  *card.Suit             `json:"trump,omitempty"`
	Deltas map[string]score.Delta `json:"deltas"`
	Scores map[string]int         `json:"scores"` // 结算后的累计分
}
