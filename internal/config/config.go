package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/palemoky/ninety-nine/internal/game/score"
)

// envPrefix 环境变量前缀，例如 NN_SERVER_PORT
const envPrefix = "NN_"

// 默认值
const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 1799
	defaultMaxConnections = 1000
	defaultEncoding       = "json"
	defaultRedisAddr      = "localhost:6379"
	defaultArchivePath    = "data/archive.db"
	defaultVariant        = "ninety-nine"
	defaultBotLevel       = "medium"
	defaultAIDelayMs      = 800
	defaultTurnTimeout    = 30
	defaultTableTimeout   = 10
	defaultShutdownWait   = 10
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Redis    RedisConfig    `yaml:"redis" envPrefix:"REDIS_"`
	Archive  ArchiveConfig  `yaml:"archive" envPrefix:"ARCHIVE_"`
	Game     GameConfig     `yaml:"game" envPrefix:"GAME_"`
	Security SecurityConfig `yaml:"security" envPrefix:"SECURITY_"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host" env:"HOST"`
	Port           int    `yaml:"port" env:"PORT"`
	MaxConnections int    `yaml:"max_connections" env:"MAX_CONNECTIONS"`
	Encoding       string `yaml:"encoding" env:"ENCODING"` // json 或 protobuf
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
}

// ArchiveConfig 对局归档（SQLite）配置
type ArchiveConfig struct {
	Path string `yaml:"path" env:"PATH"` // ":memory:" 表示不落盘
}

// GameConfig 游戏配置
type GameConfig struct {
	Variant      string       `yaml:"variant" env:"VARIANT"`             // ninety-nine 或 standard
	BotLevel     string       `yaml:"bot_level" env:"BOT_LEVEL"`         // 默认 AI 难度
	AIDelayMs    int          `yaml:"ai_delay_ms" env:"AI_DELAY_MS"`     // AI 行动前的停顿（毫秒），只影响节奏
	TurnTimeout  int          `yaml:"turn_timeout" env:"TURN_TIMEOUT"`   // 叫分/出牌提示时限（秒），不会强制代打
	TableTimeout int          `yaml:"table_timeout" env:"TABLE_TIMEOUT"` // 空闲牌桌回收时间（分钟）
	ShutdownWait int          `yaml:"shutdown_wait" env:"SHUTDOWN_WAIT"` // 优雅关闭时等待对局结束的时间（分钟）
	MaxRounds    int          `yaml:"max_rounds" env:"MAX_ROUNDS"`       // 0 表示使用玩法默认值
	Scoring      *score.Table `yaml:"scoring"`                           // 为空时使用默认计分表
}

// AIDelay 返回 AI 行动延迟
func (c *GameConfig) AIDelay() time.Duration {
	return time.Duration(c.AIDelayMs) * time.Millisecond
}

// TurnTimeoutDuration 返回出牌提示时限
func (c *GameConfig) TurnTimeoutDuration() time.Duration {
	return time.Duration(c.TurnTimeout) * time.Second
}

// TableTimeoutDuration 返回空闲牌桌回收时间
func (c *GameConfig) TableTimeoutDuration() time.Duration {
	return time.Duration(c.TableTimeout) * time.Minute
}

// ShutdownWaitDuration 返回优雅关闭等待时间
func (c *GameConfig) ShutdownWaitDuration() time.Duration {
	return time.Duration(c.ShutdownWait) * time.Minute
}

// ScoreTable 返回生效的计分表
func (c *GameConfig) ScoreTable() score.Table {
	if c.Scoring == nil {
		return score.DefaultTable()
	}
	return *c.Scoring
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
	IPWhitelist    []string           `yaml:"ip_whitelist" env:"IP_WHITELIST" envSeparator:","` // 为空表示不限制
	IPBlacklist    []string           `yaml:"ip_blacklist" env:"IP_BLACKLIST" envSeparator:","`
	RateLimit      RateLimitConfig    `yaml:"rate_limit" envPrefix:"RATE_LIMIT_"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit" envPrefix:"MESSAGE_LIMIT_"`
}

// RateLimitConfig 连接速率限制
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second" env:"MAX_PER_SECOND"`
	MaxPerMinute int `yaml:"max_per_minute" env:"MAX_PER_MINUTE"`
	BanDuration  int `yaml:"ban_duration" env:"BAN_DURATION"` // 秒
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// MessageLimitConfig 已连接客户端的消息速率限制。
// MaxPerSecond 约束所有消息，查询和牌桌进出另有各自的额度
type MessageLimitConfig struct {
	MaxPerSecond   int `yaml:"max_per_second" env:"MAX_PER_SECOND"`
	QueryPerSecond int `yaml:"query_per_second" env:"QUERY_PER_SECOND"` // 状态、统计、排行榜、历史查询
	TablePerMinute int `yaml:"table_per_minute" env:"TABLE_PER_MINUTE"` // 创建、加入、离开牌桌
}

// Load 加载配置文件，再用环境变量覆盖，最后补齐默认值
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default 返回默认配置，同样接受环境变量覆盖
func Default() *Config {
	var cfg Config
	if err := applyEnv(&cfg); err != nil {
		log.Printf("⚠️ 环境变量配置无效，已忽略: %v", err)
		cfg = Config{}
	}
	applyDefaults(&cfg)
	return &cfg
}

func applyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = defaultMaxConnections
	}
	if cfg.Server.Encoding == "" {
		cfg.Server.Encoding = defaultEncoding
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = defaultRedisAddr
	}
	if cfg.Archive.Path == "" {
		cfg.Archive.Path = defaultArchivePath
	}
	if cfg.Game.Variant == "" {
		cfg.Game.Variant = defaultVariant
	}
	if cfg.Game.BotLevel == "" {
		cfg.Game.BotLevel = defaultBotLevel
	}
	if cfg.Game.AIDelayMs == 0 {
		cfg.Game.AIDelayMs = defaultAIDelayMs
	}
	if cfg.Game.TurnTimeout == 0 {
		cfg.Game.TurnTimeout = defaultTurnTimeout
	}
	if cfg.Game.TableTimeout == 0 {
		cfg.Game.TableTimeout = defaultTableTimeout
	}
	if cfg.Game.ShutdownWait == 0 {
		cfg.Game.ShutdownWait = defaultShutdownWait
	}
	if len(cfg.Security.AllowedOrigins) == 0 {
		cfg.Security.AllowedOrigins = []string{"*"}
	}
	if cfg.Security.RateLimit.MaxPerSecond == 0 {
		cfg.Security.RateLimit.MaxPerSecond = 10
	}
	if cfg.Security.RateLimit.MaxPerMinute == 0 {
		cfg.Security.RateLimit.MaxPerMinute = 60
	}
	if cfg.Security.RateLimit.BanDuration == 0 {
		cfg.Security.RateLimit.BanDuration = 60
	}
	if cfg.Security.MessageLimit.MaxPerSecond == 0 {
		cfg.Security.MessageLimit.MaxPerSecond = 20
	}
	if cfg.Security.MessageLimit.QueryPerSecond == 0 {
		cfg.Security.MessageLimit.QueryPerSecond = 5
	}
	if cfg.Security.MessageLimit.TablePerMinute == 0 {
		cfg.Security.MessageLimit.TablePerMinute = 20
	}
}
