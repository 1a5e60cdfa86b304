package engine

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/palemoky/ninety-nine/internal/apperrors"
	"github.com/palemoky/ninety-nine/internal/game/card"
)

// Snapshot 对局的完整可序列化状态，用于持久化和多端同步
type Snapshot struct {
	Settings         Settings             `json:"settings"`
	Phase            Phase                `json:"phase"`
	Round            int                  `json:"round"`
	Order            []string             `json:"order"`
	Players          map[string]*Player   `json:"players"`
	Cards            map[string]card.Card `json:"cards"`
	Tricks           map[string]*Trick    `json:"tricks"`
	Bids             map[string]*Bid      `json:"bids"`
	Stock            []string             `json:"stock"`
	TurnupID         string               `json:"turnup_id,omitempty"`
	Trump            *card.Suit           `json:"trump,omitempty"`
	StartSeat        int                  `json:"start_seat"`
	CurrentPlayer    int                  `json:"current_player"`
	CurrentBidder    int                  `json:"current_bidder"`
	BidPhaseComplete bool                 `json:"bid_phase_complete"`
	CurrentTrickID   string               `json:"current_trick_id,omitempty"`
	History          []string             `json:"history"`
	TricksPlayed     int                  `json:"tricks_played"`
	Results          []RoundResult        `json:"results"`
	UpdatedAt        int64                `json:"updated_at"`
}

// requiredKeys 解码快照时必须存在的字段
var requiredKeys = []string{
	"settings", "phase", "round", "order", "players", "cards",
	"tricks", "bids", "current_player", "current_bidder", "updated_at",
}

// Snapshot 导出对局状态的深拷贝
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Settings:         g.settings,
		Phase:            g.phase,
		Round:            g.round,
		Order:            append([]string(nil), g.order...),
		Players:          make(map[string]*Player, len(g.players)),
		Cards:            maps.Clone(g.cards),
		Tricks:           make(map[string]*Trick, len(g.tricks)),
		Bids:             make(map[string]*Bid, len(g.bids)),
		Stock:            append([]string(nil), g.stock...),
		TurnupID:         g.turnupID,
		Trump:            trumpOf(g.trump),
		StartSeat:        g.startSeat,
		CurrentPlayer:    g.currentPlayer,
		CurrentBidder:    g.currentBidder,
		BidPhaseComplete: g.bidPhaseComplete,
		CurrentTrickID:   g.currentTrickID,
		History:          append([]string(nil), g.history...),
		TricksPlayed:     g.tricksPlayed,
		Results:          append([]RoundResult(nil), g.results...),
		UpdatedAt:        g.updatedAt,
	}
	for id, p := range g.players {
		s.Players[id] = p.clone()
	}
	for id, t := range g.tricks {
		s.Tricks[id] = t.clone()
	}
	for id, b := range g.bids {
		s.Bids[id] = b.clone()
	}
	return s
}

// MarshalJSON 序列化快照
func (g *Game) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Snapshot())
}

// DecodeSnapshot 解析快照 JSON，缺少必要字段或结构不一致时返回 Validation 错误
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, apperrors.Newf(apperrors.KindValidation, "无效的快照: %v", err)
	}
	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			return Snapshot{}, apperrors.Newf(apperrors.KindValidation, "快照缺少字段: %s", key)
		}
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, apperrors.Newf(apperrors.KindValidation, "无效的快照: %v", err)
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Validate 检查快照内部引用是否一致
func (s Snapshot) Validate() error {
	if err := s.Settings.Validate(); err != nil {
		return err
	}
	for _, id := range s.Order {
		if s.Players[id] == nil {
			return invalidSnapshot("座位中的玩家 %s 不存在", id)
		}
	}
	if len(s.Players) != len(s.Order) {
		return invalidSnapshot("玩家数与座位数不一致")
	}
	if s.CurrentPlayer < -1 || s.CurrentPlayer >= len(s.Order) {
		return invalidSnapshot("当前玩家下标越界: %d", s.CurrentPlayer)
	}
	if s.CurrentBidder < -1 || s.CurrentBidder >= len(s.Order) {
		return invalidSnapshot("当前叫分下标越界: %d", s.CurrentBidder)
	}
	for id, p := range s.Players {
		for _, cid := range p.Hand {
			if _, ok := s.Cards[cid]; !ok {
				return invalidSnapshot("玩家 %s 的手牌 %s 不存在", id, cid)
			}
		}
	}
	for id, b := range s.Bids {
		if s.Players[id] == nil {
			return invalidSnapshot("叫分的玩家 %s 不存在", id)
		}
		for _, cid := range b.Cards {
			if _, ok := s.Cards[cid]; !ok {
				return invalidSnapshot("叫分牌 %s 不存在", cid)
			}
		}
	}
	if s.CurrentTrickID != "" && s.Tricks[s.CurrentTrickID] == nil {
		return invalidSnapshot("当前墩 %s 不存在", s.CurrentTrickID)
	}
	for _, id := range s.History {
		if s.Tricks[id] == nil {
			return invalidSnapshot("历史墩 %s 不存在", id)
		}
	}
	if s.Phase == PhasePlaying && s.Tricks[s.CurrentTrickID] == nil {
		return invalidSnapshot("出牌阶段缺少当前墩")
	}
	return nil
}

func invalidSnapshot(format string, args ...any) error {
	return apperrors.New(apperrors.KindValidation, "快照不一致: "+fmt.Sprintf(format, args...))
}

// Restore 从快照恢复对局
func Restore(s Snapshot, opts ...Option) (*Game, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	g, err := New(s.Settings, opts...)
	if err != nil {
		return nil, err
	}
	g.phase = s.Phase
	g.round = s.Round
	g.order = append([]string(nil), s.Order...)
	g.cards = maps.Clone(s.Cards)
	if g.cards == nil {
		g.cards = make(map[string]card.Card)
	}
	for id, p := range s.Players {
		g.players[id] = p.clone()
	}
	for id, t := range s.Tricks {
		cp := t.clone()
		if cp.Plays == nil {
			cp.Plays = make(map[string]string)
		}
		g.tricks[id] = cp
	}
	for id, b := range s.Bids {
		g.bids[id] = b.clone()
	}
	g.stock = append([]string(nil), s.Stock...)
	g.turnupID = s.TurnupID
	g.trump = trumpOf(s.Trump)
	g.startSeat = s.StartSeat
	g.currentPlayer = s.CurrentPlayer
	g.currentBidder = s.CurrentBidder
	g.bidPhaseComplete = s.BidPhaseComplete
	g.currentTrickID = s.CurrentTrickID
	g.history = append([]string(nil), s.History...)
	g.tricksPlayed = s.TricksPlayed
	g.results = append([]RoundResult(nil), s.Results...)
	g.updatedAt = s.UpdatedAt
	return g, nil
}

// Merge 合并本地与远端快照：玩家、墩、叫分逐个实体取更新时间较新的版本，
// 阶段、指针等标量取整体更新时间较新的一方。
// 两边不在同一局时实体不能混用，直接取局数较大的一方
func Merge(local, remote Snapshot) Snapshot {
	base, other := local, remote
	switch {
	case remote.Round != local.Round:
		if remote.Round > local.Round {
			base, other = remote, local
		}
		other = Snapshot{}
	case remote.UpdatedAt > local.UpdatedAt:
		base, other = remote, local
	}

	merged := base
	merged.Order = append([]string(nil), base.Order...)
	merged.Stock = append([]string(nil), base.Stock...)
	merged.History = append([]string(nil), base.History...)
	merged.Results = append([]RoundResult(nil), base.Results...)
	merged.Trump = trumpOf(base.Trump)

	merged.Players = mergeEntities(base.Players, other.Players,
		func(p *Player) int64 { return p.UpdatedAt }, (*Player).clone)
	// 座位以较新的一方为准
	maps.DeleteFunc(merged.Players, func(id string, _ *Player) bool {
		return !slices.Contains(merged.Order, id)
	})
	merged.Tricks = mergeEntities(base.Tricks, other.Tricks,
		func(t *Trick) int64 { return t.UpdatedAt }, (*Trick).clone)
	merged.Bids = mergeEntities(base.Bids, other.Bids,
		func(b *Bid) int64 { return b.UpdatedAt }, (*Bid).clone)

	merged.Cards = maps.Clone(other.Cards)
	if merged.Cards == nil {
		merged.Cards = make(map[string]card.Card)
	}
	maps.Copy(merged.Cards, base.Cards)
	return merged
}

// mergeEntities 按 ID 合并两组实体，同 ID 时取更新时间较新的，相同时保留 base
func mergeEntities[T any](base, other map[string]*T, updatedAt func(*T) int64, clone func(*T) *T) map[string]*T {
	result := make(map[string]*T, len(base))
	for id, e := range base {
		result[id] = clone(e)
	}
	for id, e := range other {
		cur, ok := result[id]
		if !ok || updatedAt(e) > updatedAt(cur) {
			result[id] = clone(e)
		}
	}
	return result
}
