package types

import (
	"context"
	"time"

	"github.com/palemoky/ninety-nine/internal/protocol"
	"github.com/palemoky/ninety-nine/internal/server/storage"
)

// ServerInterface 定义服务器接口（用于打破循环依赖）
type ServerInterface interface {
	IsMaintenanceMode() bool
	GetOnlineCount() int
}

// ClientInterface 定义客户端接口
type ClientInterface interface {
	GetID() string
	GetName() string
	GetTable() string
	SetTable(code string)
	SendMessage(msg *protocol.Message)
	Close()
}

// TableStore 牌桌快照存储
type TableStore interface {
	SaveTable(ctx context.Context, data *storage.TableData) error
	LoadTable(ctx context.Context, code string) (*storage.TableData, error)
	DeleteTable(ctx context.Context, code string) error
	SetTableExpiration(ctx context.Context, code string, expiration time.Duration) error
	GetAllTableCodes(ctx context.Context) ([]string, error)
}

// StatsStore 玩家统计与排行榜
type StatsStore interface {
	RecordGameResult(ctx context.Context, rec storage.GameRecord) error
	GetPlayerStats(ctx context.Context, playerID string) (*storage.PlayerStats, error)
	GetPlayerRank(ctx context.Context, playerID string) (int64, error)
	GetLeaderboard(ctx context.Context, boardType string, offset, limit int) ([]*storage.LeaderboardEntry, error)
}

// GameArchive 对局归档
type GameArchive interface {
	RecordRound(ctx context.Context, records []storage.RoundRecord) error
	RecordGame(ctx context.Context, g storage.FinishedGame) error
}

// GameHistory 归档查询
type GameHistory interface {
	RoundsForTable(ctx context.Context, tableCode string) ([]storage.RoundRecord, error)
	RecentGames(ctx context.Context, limit int) ([]storage.FinishedGame, error)
}

var (
	_ TableStore  = (*storage.RedisStore)(nil)
	_ StatsStore  = (*storage.LeaderboardManager)(nil)
	_ GameArchive = (*storage.Archive)(nil)
	_ GameHistory = (*storage.Archive)(nil)
)
