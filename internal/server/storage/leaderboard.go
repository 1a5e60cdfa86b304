package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key
	playerStatsKey    = "player:stats:"
	leaderboardKey    = "leaderboard:score"
	dailyLeaderboard  = "leaderboard:daily:"
	weeklyLeaderboard = "leaderboard:weekly:"
)

// 排行榜类型
const (
	LeaderboardTotal  = "total"
	LeaderboardDaily  = "daily"
	LeaderboardWeekly = "weekly"
)

// PlayerStats 玩家统计数据
type PlayerStats struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`

	// 对局
	TotalGames int `json:"total_games"`
	Wins       int `json:"wins"` // 终局分数最高（含并列）
	Losses     int `json:"losses"`

	// 叫分
	RoundsPlayed int `json:"rounds_played"`
	ExactBids    int `json:"exact_bids"`
	GamePoints   int `json:"game_points"` // 历次对局的终局分数之和

	// 天梯积分
	Score int `json:"score"`

	// 连胜/连败
	CurrentStreak int `json:"current_streak"` // 正数为连胜，负数为连败
	MaxWinStreak  int `json:"max_win_streak"`

	LastPlayedAt int64 `json:"last_played_at"`
	CreatedAt    int64 `json:"created_at"`
}

// WinRate 胜率（百分比）
func (s *PlayerStats) WinRate() float64 {
	if s.TotalGames == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.TotalGames) * 100
}

// ExactRate 叫中率（百分比）
func (s *PlayerStats) ExactRate() float64 {
	if s.RoundsPlayed == 0 {
		return 0
	}
	return float64(s.ExactBids) / float64(s.RoundsPlayed) * 100
}

// 天梯积分规则
const (
	WinPoints      = 30  // 获胜
	LosePoints     = -10 // 失败
	ExactBidPoints = 2   // 每次叫中

	// 连胜加成
	StreakBonus3  = 5
	StreakBonus5  = 10
	StreakBonus10 = 20
)

// GameRecord 一名玩家一整场对局的结果
type GameRecord struct {
	PlayerID   string
	PlayerName string
	Winner     bool
	Rounds     int
	ExactBids  int
	FinalScore int
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Score      int     `json:"score"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"win_rate"`
}

// LeaderboardManager 排行榜管理器
type LeaderboardManager struct {
	redis *redis.Client
	now   func() time.Time
}

// NewLeaderboardManager 创建排行榜管理器
func NewLeaderboardManager(client *redis.Client) *LeaderboardManager {
	return &LeaderboardManager{redis: client, now: time.Now}
}

// GetPlayerStats 获取玩家统计，未参与过对局时返回 nil, nil
func (lm *LeaderboardManager) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	data, err := lm.redis.Get(ctx, playerStatsKey+playerID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SavePlayerStats 保存玩家统计
func (lm *LeaderboardManager) SavePlayerStats(ctx context.Context, stats *PlayerStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return lm.redis.Set(ctx, playerStatsKey+stats.PlayerID, data, 0).Err()
}

func (lm *LeaderboardManager) getOrCreateStats(ctx context.Context, playerID, playerName string) (*PlayerStats, error) {
	stats, err := lm.GetPlayerStats(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return &PlayerStats{
			PlayerID:   playerID,
			PlayerName: playerName,
			CreatedAt:  lm.now().Unix(),
		}, nil
	}
	return stats, nil
}

// updateWinLossStats 更新胜负统计和连胜/连败
func updateWinLossStats(stats *PlayerStats, isWinner bool) {
	if isWinner {
		stats.Wins++
		stats.CurrentStreak = max(1, stats.CurrentStreak+1)
	} else {
		stats.Losses++
		stats.CurrentStreak = min(-1, stats.CurrentStreak-1)
	}

	if stats.CurrentStreak > stats.MaxWinStreak {
		stats.MaxWinStreak = stats.CurrentStreak
	}
}

// calculateStreakBonus 计算连胜加成
func calculateStreakBonus(streak int) int {
	switch {
	case streak >= 10:
		return StreakBonus10
	case streak >= 5:
		return StreakBonus5
	case streak >= 3:
		return StreakBonus3
	default:
		return 0
	}
}

// RecordGameResult 记录一名玩家的对局结果并更新排行榜
func (lm *LeaderboardManager) RecordGameResult(ctx context.Context, rec GameRecord) error {
	stats, err := lm.getOrCreateStats(ctx, rec.PlayerID, rec.PlayerName)
	if err != nil {
		return err
	}

	stats.PlayerName = rec.PlayerName
	stats.TotalGames++
	stats.RoundsPlayed += rec.Rounds
	stats.ExactBids += rec.ExactBids
	stats.GamePoints += rec.FinalScore
	stats.LastPlayedAt = lm.now().Unix()

	updateWinLossStats(stats, rec.Winner)
	scoreChange := LosePoints
	if rec.Winner {
		scoreChange = WinPoints
	}
	scoreChange += rec.ExactBids*ExactBidPoints + calculateStreakBonus(stats.CurrentStreak)
	stats.Score = max(0, stats.Score+scoreChange)

	if err := lm.SavePlayerStats(ctx, stats); err != nil {
		return err
	}
	return lm.UpdateLeaderboard(ctx, stats)
}

func (lm *LeaderboardManager) boardKey(boardType string) string {
	now := lm.now()
	switch boardType {
	case LeaderboardDaily:
		return dailyLeaderboard + now.Format("2006-01-02")
	case LeaderboardWeekly:
		year, week := now.ISOWeek()
		return fmt.Sprintf("%s%d-W%02d", weeklyLeaderboard, year, week)
	default:
		return leaderboardKey
	}
}

// UpdateLeaderboard 更新总榜、日榜和周榜
func (lm *LeaderboardManager) UpdateLeaderboard(ctx context.Context, stats *PlayerStats) error {
	member := redis.Z{Score: float64(stats.Score), Member: stats.PlayerID}

	pipe := lm.redis.TxPipeline()
	pipe.ZAdd(ctx, leaderboardKey, member)

	dailyKey := lm.boardKey(LeaderboardDaily)
	pipe.ZAdd(ctx, dailyKey, member)
	pipe.Expire(ctx, dailyKey, 48*time.Hour)

	weeklyKey := lm.boardKey(LeaderboardWeekly)
	pipe.ZAdd(ctx, weeklyKey, member)
	pipe.Expire(ctx, weeklyKey, 8*24*time.Hour)

	_, err := pipe.Exec(ctx)
	return err
}

// GetLeaderboard 获取排行榜，boardType 为 total/daily/weekly
func (lm *LeaderboardManager) GetLeaderboard(ctx context.Context, boardType string, offset, limit int) ([]*LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	offset = max(0, offset)

	results, err := lm.redis.ZRevRangeWithScores(ctx, lm.boardKey(boardType), int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*LeaderboardEntry, 0, len(results))
	for i, result := range results {
		playerID, ok := result.Member.(string)
		if !ok {
			continue
		}
		stats, err := lm.GetPlayerStats(ctx, playerID)
		if err != nil || stats == nil {
			continue
		}
		entries = append(entries, &LeaderboardEntry{
			Rank:       offset + i + 1,
			PlayerID:   playerID,
			PlayerName: stats.PlayerName,
			Score:      int(result.Score),
			Wins:       stats.Wins,
			WinRate:    stats.WinRate(),
		})
	}
	return entries, nil
}

// GetPlayerRank 获取玩家在总榜的排名，未上榜返回 -1
func (lm *LeaderboardManager) GetPlayerRank(ctx context.Context, playerID string) (int64, error) {
	rank, err := lm.redis.ZRevRank(ctx, leaderboardKey, playerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil
}
