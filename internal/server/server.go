package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/palemoky/ninety-nine/internal/config"
	"github.com/palemoky/ninety-nine/internal/game/bot"
	"github.com/palemoky/ninety-nine/internal/game/card"
	"github.com/palemoky/ninety-nine/internal/game/table"
	"github.com/palemoky/ninety-nine/internal/protocol/codec"
	"github.com/palemoky/ninety-nine/internal/server/handler"
	"github.com/palemoky/ninety-nine/internal/server/storage"
)

// Server WebSocket 服务器
type Server struct {
	config      *config.Config
	redis       *redis.Client
	redisStore  *storage.RedisStore
	leaderboard *storage.LeaderboardManager
	archive     *storage.Archive
	tables      *table.Manager
	clients     map[string]*Client
	clientsMu   sync.RWMutex
	handler     *handler.Handler
	format      codec.Format
	upgrader    websocket.Upgrader
	httpServer  *http.Server

	// 安全组件
	policy      *accessPolicy
	connLimiter *connLimiter
	limiter     *messageLimiter

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex

	stop      chan struct{}
	closeOnce sync.Once
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) (*Server, error) {
	// 初始化 Redis 客户端
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 测试 Redis 连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}

	s, err := newServer(cfg, rdb)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return s, nil
}

// newServer 用已连接的 Redis 组装服务器，并从 Redis 恢复牌桌
func newServer(cfg *config.Config, rdb *redis.Client) (*Server, error) {
	format, err := codec.ParseFormat(cfg.Server.Encoding)
	if err != nil {
		return nil, err
	}
	variant, err := card.ParseVariant(cfg.Game.Variant)
	if err != nil {
		return nil, fmt.Errorf("game.variant: %w", err)
	}
	level, err := bot.ParseLevel(cfg.Game.BotLevel)
	if err != nil {
		return nil, fmt.Errorf("game.bot_level: %w", err)
	}

	archive, err := storage.OpenArchive(cfg.Archive.Path)
	if err != nil {
		return nil, fmt.Errorf("打开对局归档失败: %w", err)
	}

	s := &Server{
		config:      cfg,
		redis:       rdb,
		redisStore:  storage.NewRedisStore(rdb),
		leaderboard: storage.NewLeaderboardManager(rdb),
		archive:     archive,
		clients:     make(map[string]*Client),
		format:      format,
		// 初始化安全组件
		policy:      newAccessPolicy(cfg.Security),
		connLimiter: newConnLimiter(cfg.Security.RateLimit),
		limiter:     newMessageLimiter(cfg.Security.MessageLimit),
		// 初始化连接控制
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
		stop:           make(chan struct{}),
	}
	go s.connLimiter.run()

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// 来源在握手前已由 accessPolicy 校验
		CheckOrigin: func(r *http.Request) bool { return true },
		// 消息都很小，压缩收益不抵 CPU 开销
		EnableCompression: false,
	}

	// 初始化牌桌管理器
	s.tables = table.NewManager(table.Deps{
		Store:   s.redisStore,
		Stats:   s.leaderboard,
		Archive: s.archive,
	}, table.Config{
		Variant:      variant,
		BotLevel:     level,
		MaxRounds:    cfg.Game.MaxRounds,
		Scoring:      cfg.Game.ScoreTable(),
		AIDelay:      cfg.Game.AIDelay(),
		TurnReminder: cfg.Game.TurnTimeoutDuration(),
		Timeout:      cfg.Game.TableTimeoutDuration(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := s.tables.RestoreTables(ctx); err != nil {
		log.Printf("⚠️  恢复牌桌失败: %v", err)
	}

	// 初始化消息处理器
	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server:  s,
		Tables:  s.tables,
		Stats:   s.leaderboard,
		History: s.archive,
	})

	limits := cfg.Security.MessageLimit
	log.Printf("🔒 安全配置: 连接限制=%d/s, 消息限制=%d/s (查询 %d/s, 进出牌桌 %d/min), 最大连接数=%d, 编码=%s",
		cfg.Security.RateLimit.MaxPerSecond, limits.MaxPerSecond, limits.QueryPerSecond, limits.TablePerMinute,
		cfg.Server.MaxConnections, format)

	return s, nil
}

// routes 注册 HTTP 路由
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start 启动服务器，Shutdown 后返回 nil
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	// 启动监控 goroutine
	go s.monitorStats()

	log.Printf("🚀 服务器启动在 ws://%s/ws (CPU核心数: %d)", addr, runtime.NumCPU())
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
