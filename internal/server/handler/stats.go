package handler

import (
	"context"
	"time"

	"github.com/palemoky/ninety-nine/internal/protocol"
	"github.com/palemoky/ninety-nine/internal/protocol/codec"
	"github.com/palemoky/ninety-nine/internal/server/storage"
	"github.com/palemoky/ninety-nine/internal/types"
)

// statsTimeout 统计查询超时
const statsTimeout = 3 * time.Second

// --- 排行榜处理 ---

// handleGetStats 获取个人统计
func (h *Handler) handleGetStats(client types.ClientInterface) {
	if h.stats == nil {
		client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, "排行榜未启用"))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()

	playerStats, err := h.stats.GetPlayerStats(ctx, client.GetID())
	if err != nil {
		client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, "获取统计失败"))
		return
	}

	if playerStats == nil {
		// 没有统计数据，返回空数据
		client.SendMessage(codec.MustNewMessage(protocol.MsgStatsResult, protocol.StatsResultPayload{
			PlayerID:   client.GetID(),
			PlayerName: client.GetName(),
		}))
		return
	}

	// 获取排名
	rank, _ := h.stats.GetPlayerRank(ctx, client.GetID())

	client.SendMessage(codec.MustNewMessage(protocol.MsgStatsResult, protocol.StatsResultPayload{
		PlayerID:      playerStats.PlayerID,
		PlayerName:    playerStats.PlayerName,
		TotalGames:    playerStats.TotalGames,
		Wins:          playerStats.Wins,
		Losses:        playerStats.Losses,
		WinRate:       playerStats.WinRate(),
		RoundsPlayed:  playerStats.RoundsPlayed,
		ExactBids:     playerStats.ExactBids,
		ExactRate:     playerStats.ExactRate(),
		Score:         playerStats.Score,
		Rank:          int(rank),
		CurrentStreak: playerStats.CurrentStreak,
		MaxWinStreak:  playerStats.MaxWinStreak,
	}))
}

// handleGetLeaderboard 获取排行榜
func (h *Handler) handleGetLeaderboard(client types.ClientInterface, msg *protocol.Message) {
	if h.stats == nil {
		client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, "排行榜未启用"))
		return
	}
	payload, err := codec.ParsePayload[protocol.GetLeaderboardPayload](msg)
	if err != nil {
		// 默认获取总排行榜前 10
		payload = &protocol.GetLeaderboardPayload{
			Type:   storage.LeaderboardTotal,
			Offset: 0,
			Limit:  10,
		}
	}

	switch payload.Type {
	case storage.LeaderboardTotal, storage.LeaderboardDaily, storage.LeaderboardWeekly:
	default:
		payload.Type = storage.LeaderboardTotal
	}
	// 限制请求数量
	if payload.Limit <= 0 || payload.Limit > 50 {
		payload.Limit = 10
	}
	if payload.Offset < 0 {
		payload.Offset = 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()

	entries, err := h.stats.GetLeaderboard(ctx, payload.Type, payload.Offset, payload.Limit)
	if err != nil {
		client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, "获取排行榜失败"))
		return
	}

	// 转换为协议格式
	protocolEntries := make([]protocol.LeaderboardEntry, 0, len(entries))
	for _, entry := range entries {
		protocolEntries = append(protocolEntries, protocol.LeaderboardEntry{
			Rank:       entry.Rank,
			PlayerID:   entry.PlayerID,
			PlayerName: entry.PlayerName,
			Score:      entry.Score,
			Wins:       entry.Wins,
			WinRate:    entry.WinRate,
		})
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgLeaderboardResult, protocol.LeaderboardResultPayload{
		Type:    payload.Type,
		Entries: protocolEntries,
	}))
}

// handleGetOnlineCount 获取在线人数（按需）
func (h *Handler) handleGetOnlineCount(client types.ClientInterface) {
	count := h.server.GetOnlineCount()

	client.SendMessage(codec.MustNewMessage(protocol.MsgOnlineCount, protocol.OnlineCountPayload{
		Count: count,
	}))
}
