package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLeaderboardManager(t *testing.T) *LeaderboardManager {
	t.Helper()
	client, _ := newTestRedisClient(t)
	lm := NewLeaderboardManager(client)
	lm.now = func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) }
	return lm
}

func TestLeaderboard_RecordGameResult_NewPlayer(t *testing.T) {
	t.Parallel()

	lm := newTestLeaderboardManager(t)
	ctx := context.Background()

	err := lm.RecordGameResult(ctx, GameRecord{
		PlayerID: "p1", PlayerName: "Player1", Winner: true,
		Rounds: 5, ExactBids: 2, FinalScore: 110,
	})
	require.NoError(t, err)

	stats, err := lm.GetPlayerStats(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.TotalGames)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 5, stats.RoundsPlayed)
	assert.Equal(t, 2, stats.ExactBids)
	assert.Equal(t, 110, stats.GamePoints)
	assert.Equal(t, WinPoints+2*ExactBidPoints, stats.Score)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.InDelta(t, 40.0, stats.ExactRate(), 0.001)
	assert.InDelta(t, 100.0, stats.WinRate(), 0.001)
}

func TestLeaderboard_RecordGameResult_ScoreFloorsAtZero(t *testing.T) {
	t.Parallel()

	lm := newTestLeaderboardManager(t)
	ctx := context.Background()

	require.NoError(t, lm.RecordGameResult(ctx, GameRecord{PlayerID: "p1", PlayerName: "Player1"}))
	require.NoError(t, lm.RecordGameResult(ctx, GameRecord{PlayerID: "p1", PlayerName: "Renamed"}))

	stats, err := lm.GetPlayerStats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Losses)
	assert.Equal(t, 0, stats.Score)
	assert.Equal(t, -2, stats.CurrentStreak)
	assert.Equal(t, "Renamed", stats.PlayerName)
}

func TestLeaderboard_StreakBonus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, calculateStreakBonus(2))
	assert.Equal(t, StreakBonus3, calculateStreakBonus(3))
	assert.Equal(t, StreakBonus5, calculateStreakBonus(7))
	assert.Equal(t, StreakBonus10, calculateStreakBonus(12))

	lm := newTestLeaderboardManager(t)
	ctx := context.Background()
	for range 3 {
		require.NoError(t, lm.RecordGameResult(ctx, GameRecord{PlayerID: "p1", PlayerName: "P1", Winner: true}))
	}
	stats, err := lm.GetPlayerStats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3*WinPoints+StreakBonus3, stats.Score)
	assert.Equal(t, 3, stats.MaxWinStreak)
}

func TestLeaderboard_GetLeaderboardAndRank(t *testing.T) {
	t.Parallel()

	lm := newTestLeaderboardManager(t)
	ctx := context.Background()

	require.NoError(t, lm.RecordGameResult(ctx, GameRecord{PlayerID: "p1", PlayerName: "P1", Winner: true}))
	require.NoError(t, lm.RecordGameResult(ctx, GameRecord{PlayerID: "p2", PlayerName: "P2", Winner: true, ExactBids: 3}))
	require.NoError(t, lm.RecordGameResult(ctx, GameRecord{PlayerID: "p3", PlayerName: "P3"}))

	for _, board := range []string{LeaderboardTotal, LeaderboardDaily, LeaderboardWeekly} {
		entries, err := lm.GetLeaderboard(ctx, board, 0, 10)
		require.NoError(t, err)
		require.Len(t, entries, 3, board)
		assert.Equal(t, "p2", entries[0].PlayerID)
		assert.Equal(t, "p1", entries[1].PlayerID)
		assert.Equal(t, 3, entries[2].Rank)
	}

	page, err := lm.GetLeaderboard(ctx, LeaderboardTotal, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "p1", page[0].PlayerID)
	assert.Equal(t, 2, page[0].Rank)

	rank, err := lm.GetPlayerRank(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rank)

	rank, err = lm.GetPlayerRank(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), rank)
}

func TestLeaderboard_UnknownPlayer(t *testing.T) {
	t.Parallel()

	lm := newTestLeaderboardManager(t)
	stats, err := lm.GetPlayerStats(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, stats)

	entries, err := lm.GetLeaderboard(context.Background(), LeaderboardTotal, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
