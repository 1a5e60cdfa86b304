//go:build !production

package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/ninety-nine/internal/server/storage"
)

// MockStats 玩家统计与排行榜 mock
type MockStats struct {
	mock.Mock
}

func (m *MockStats) RecordGameResult(ctx context.Context, rec storage.GameRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockStats) GetPlayerStats(ctx context.Context, playerID string) (*storage.PlayerStats, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.PlayerStats), args.Error(1)
}

func (m *MockStats) GetPlayerRank(ctx context.Context, playerID string) (int64, error) {
	args := m.Called(ctx, playerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStats) GetLeaderboard(ctx context.Context, boardType string, offset, limit int) ([]*storage.LeaderboardEntry, error) {
	args := m.Called(ctx, boardType, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.LeaderboardEntry), args.Error(1)
}

// MockTableStore 牌桌存储 mock
type MockTableStore struct {
	mock.Mock
}

func (m *MockTableStore) SaveTable(ctx context.Context, data *storage.TableData) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *MockTableStore) LoadTable(ctx context.Context, code string) (*storage.TableData, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.TableData), args.Error(1)
}

func (m *MockTableStore) DeleteTable(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockTableStore) SetTableExpiration(ctx context.Context, code string, expiration time.Duration) error {
	args := m.Called(ctx, code, expiration)
	return args.Error(0)
}

func (m *MockTableStore) GetAllTableCodes(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockArchive 对局归档 mock
type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) RecordRound(ctx context.Context, records []storage.RoundRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockArchive) RecordGame(ctx context.Context, g storage.FinishedGame) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}
