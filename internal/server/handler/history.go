package handler

import (
	"context"
	"strings"

	"github.com/palemoky/ninety-nine/internal/protocol"
	"github.com/palemoky/ninety-nine/internal/protocol/codec"
	"github.com/palemoky/ninety-nine/internal/types"
)

// maxRecentGames 单次最多返回的对局数
const maxRecentGames = 20

// --- 历史记录处理 ---

// handleGetTableHistory 返回一张牌桌已归档的每局结果，不要求玩家在座
func (h *Handler) handleGetTableHistory(client types.ClientInterface, msg *protocol.Message) {
	if h.history == nil {
		client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, "历史记录未启用"))
		return
	}
	payload, err := codec.ParsePayload[protocol.GetTableHistoryPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	code := strings.TrimSpace(payload.TableCode)
	if code == "" {
		code = client.GetTable()
	}
	if code == "" {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()

	records, err := h.history.RoundsForTable(ctx, code)
	if err != nil {
		client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, "获取历史记录失败"))
		return
	}

	rounds := make([]protocol.RoundHistoryItem, 0, len(records))
	for _, r := range records {
		rounds = append(rounds, protocol.RoundHistoryItem{
			Round:      r.Round,
			Trump:      r.Trump,
			PlayerID:   r.PlayerID,
			PlayerName: r.PlayerName,
			Bid:        r.Bid,
			TricksWon:  r.TricksWon,
			Exact:      r.Exact,
			Combo:      r.Combo,
			Delta:      r.Delta,
			Score:      r.Score,
		})
	}
	client.SendMessage(codec.MustNewMessage(protocol.MsgTableHistoryResult, protocol.TableHistoryResultPayload{
		TableCode: code,
		Rounds:    rounds,
	}))
}

// handleGetRecentGames 返回最近结束的对局
func (h *Handler) handleGetRecentGames(client types.ClientInterface, msg *protocol.Message) {
	if h.history == nil {
		client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, "历史记录未启用"))
		return
	}
	payload, err := codec.ParsePayload[protocol.GetRecentGamesPayload](msg)
	if err != nil {
		payload = &protocol.GetRecentGamesPayload{}
	}
	if payload.Limit <= 0 || payload.Limit > maxRecentGames {
		payload.Limit = 10
	}

	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()

	finished, err := h.history.RecentGames(ctx, payload.Limit)
	if err != nil {
		client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, "获取历史记录失败"))
		return
	}

	games := make([]protocol.FinishedGameItem, 0, len(finished))
	for _, g := range finished {
		games = append(games, protocol.FinishedGameItem{
			TableCode:  g.TableCode,
			Rounds:     g.Rounds,
			WinnerIDs:  g.WinnerIDs,
			FinishedAt: g.FinishedAt.UnixMilli(),
		})
	}
	client.SendMessage(codec.MustNewMessage(protocol.MsgRecentGamesResult, protocol.RecentGamesResultPayload{
		Games: games,
	}))
}
