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
	// Redis key 前缀
	tableKeyPrefix = "table:"

	// 牌桌数据过期时间
	tableExpiration = 2 * time.Hour
)

// TableData 牌桌数据（用于 Redis 序列化）
type TableData struct {
	Code      string          `json:"code"`
	Variant   string          `json:"variant"`
	CreatedAt int64           `json:"created_at"`
	Seats     []SeatData      `json:"seats"`
	Game      json.RawMessage `json:"game"` // engine.Snapshot 的 JSON
}

// SeatData 座位上的玩家
type SeatData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	AI    bool   `json:"ai"`
	Level string `json:"level,omitempty"`
}

// RedisStore Redis 存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// SaveTable 保存牌桌及对局快照
func (rs *RedisStore) SaveTable(ctx context.Context, data *TableData) error {
	if data == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化牌桌数据失败: %w", err)
	}

	return rs.client.Set(ctx, tableKeyPrefix+data.Code, jsonData, tableExpiration).Err()
}

// LoadTable 从 Redis 加载牌桌，不存在时返回 nil, nil
func (rs *RedisStore) LoadTable(ctx context.Context, code string) (*TableData, error) {
	data, err := rs.client.Get(ctx, tableKeyPrefix+code).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var tableData TableData
	if err := json.Unmarshal(data, &tableData); err != nil {
		return nil, fmt.Errorf("反序列化牌桌数据失败: %w", err)
	}
	return &tableData, nil
}

// DeleteTable 从 Redis 删除牌桌
func (rs *RedisStore) DeleteTable(ctx context.Context, code string) error {
	return rs.client.Del(ctx, tableKeyPrefix+code).Err()
}

// GetAllTableCodes 获取所有已保存的牌桌号
func (rs *RedisStore) GetAllTableCodes(ctx context.Context) ([]string, error) {
	var codes []string
	iter := rs.client.Scan(ctx, 0, tableKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		codes = append(codes, iter.Val()[len(tableKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return codes, nil
}

// SetTableExpiration 设置牌桌过期时间
func (rs *RedisStore) SetTableExpiration(ctx context.Context, code string, expiration time.Duration) error {
	return rs.client.Expire(ctx, tableKeyPrefix+code, expiration).Err()
}
