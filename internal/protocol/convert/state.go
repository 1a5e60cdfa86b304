package convert

import (
	"slices"

	"github.com/palemoky/ninety-nine/internal/game/card"
	"github.com/palemoky/ninety-nine/internal/game/engine"
	"github.com/palemoky/ninety-nine/internal/game/rule"
	"github.com/palemoky/ninety-nine/internal/protocol"
)

// PlayerInfos 按座位顺序生成玩家信息，叫分按 viewerID 的视角裁剪
func PlayerInfos(g *engine.Game, viewerID string) []protocol.PlayerInfo {
	order := g.PlayerOrder()
	infos := make([]protocol.PlayerInfo, 0, len(order))
	for seat, id := range order {
		p, _ := g.Player(id)
		info := protocol.PlayerInfo{
			ID:         p.ID,
			Name:       p.Name,
			Seat:       seat,
			Active:     p.Active,
			AI:         p.AI,
			Level:      p.Level,
			CardsCount: len(p.Hand),
			TricksWon:  p.TricksWon,
			Score:      p.Score,
		}
		if bid, ok := g.Bid(id); ok {
			info.Bid = bidInfo(g, bid, viewerID)
		}
		infos = append(infos, info)
	}
	return infos
}

// bidInfo 未亮出的叫分只对本人可见
func bidInfo(g *engine.Game, bid engine.Bid, viewerID string) *protocol.BidInfo {
	info := &protocol.BidInfo{Placed: true, Revealed: bid.Revealed}
	if !bid.Revealed && bid.PlayerID != viewerID {
		return info
	}
	value := bid.Value
	info.Value = &value
	if len(bid.Cards) > 0 {
		info.Cards = CardsToInfos(lookupCards(g, bid.Cards))
	}
	return info
}

// BuildGameState 生成 viewerID 看到的对局状态，其他玩家的手牌不会出现
func BuildGameState(g *engine.Game, tableCode, viewerID string) *protocol.GameStateDTO {
	settings := g.Settings()
	state := &protocol.GameStateDTO{
		TableCode:      tableCode,
		Variant:        string(settings.Variant),
		Phase:          g.Phase().String(),
		Round:          g.Round(),
		MaxRounds:      settings.MaxRounds,
		TricksPerRound: g.TricksPerRound(),
		TricksPlayed:   g.TricksPlayed(),
		CardBidMode:    g.CardBidMode(),
		Players:        PlayerInfos(g, viewerID),
		StockSize:      g.StockSize(),
		CurrentPlayer:  g.CurrentPlayerID(),
		CurrentBidder:  g.CurrentBidderID(),
	}

	hand := g.Hand(viewerID)
	card.SortHand(hand)
	state.Hand = CardsToInfos(hand)
	if bidCards := g.BidCards(viewerID); len(bidCards) > 0 {
		state.BidCards = CardsToInfos(bidCards)
	}
	for _, c := range g.LegalCards(viewerID) {
		state.LegalCards = append(state.LegalCards, c.ID)
	}

	if turnup, ok := g.Turnup(); ok {
		info := CardToInfo(turnup)
		state.Turnup = &info
	}
	if trump, ok := g.Trump(); ok {
		state.Trump = trump.Code()
	}
	if t, ok := g.CurrentTrick(); ok {
		state.CurrentTrick = TrickToInfo(g, t)
	}
	if history := g.History(); len(history) > 0 {
		state.LastTrick = TrickToInfo(g, history[len(history)-1])
	}
	return state
}

// TrickToInfo 按出牌顺序转换一墩
func TrickToInfo(g *engine.Game, t engine.Trick) *protocol.TrickInfo {
	info := &protocol.TrickInfo{
		ID:       t.ID,
		LeadSuit: SuitCode(t.LeadSuit),
		Plays:    make([]protocol.PlayInfo, 0, len(t.Order)),
		WinnerID: t.WinnerID,
	}
	for _, pid := range t.Order {
		c, _ := g.Card(t.Plays[pid])
		info.Plays = append(info.Plays, protocol.PlayInfo{PlayerID: pid, Card: CardToInfo(c)})
	}
	return info
}

// BuildRoundResult 生成一局的结算通知，玩家按座位顺序
func BuildRoundResult(g *engine.Game, r engine.RoundResult) *protocol.RoundResultPayload {
	payload := &protocol.RoundResultPayload{
		Round: r.Round,
		Trump: SuitCode(r.Trump),
	}
	for _, id := range g.PlayerOrder() {
		d, ok := r.Deltas[id]
		if !ok {
			continue
		}
		p, _ := g.Player(id)
		entry := protocol.PlayerRoundInfo{
			PlayerID:   id,
			PlayerName: p.Name,
			Bid:        d.Bid,
			TricksWon:  d.TricksWon,
			Exact:      d.Exact,
			Delta:      d.Total,
			Score:      r.Scores[id],
		}
		if d.Combo != rule.ComboNone {
			entry.Combo = d.Combo.String()
		}
		payload.Results = append(payload.Results, entry)
	}
	return payload
}

// BuildGameOver 生成最终排名，同分同名次
func BuildGameOver(g *engine.Game) *protocol.GameOverPayload {
	payload := &protocol.GameOverPayload{
		WinnerIDs: g.Leaders(),
		Rounds:    len(g.Results()),
	}
	rank := 0
	prev := 0
	for i, p := range g.Standings() {
		if i == 0 || p.Score != prev {
			rank = i + 1
			prev = p.Score
		}
		payload.Standings = append(payload.Standings, protocol.StandingEntry{
			Rank:       rank,
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Score:      p.Score,
		})
	}
	return payload
}

func lookupCards(g *engine.Game, ids []string) []card.Card {
	cards := make([]card.Card, 0, len(ids))
	for _, id := range ids {
		if c, ok := g.Card(id); ok {
			cards = append(cards, c)
		}
	}
	slices.SortFunc(cards, func(a, b card.Card) int { return b.Strength() - a.Strength() })
	return cards
}
