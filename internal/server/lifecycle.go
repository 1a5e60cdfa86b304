package server

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/palemoky/ninety-nine/internal/protocol"
	"github.com/palemoky/ninety-nine/internal/protocol/codec"
)

const (
	// 监控日志间隔
	monitorInterval = 30 * time.Second
	// 优雅关闭时检查对局的间隔
	shutdownCheckInterval = 5 * time.Second
)

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-s.stop:
			return
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		log.Printf("📊 [监控] 在线: %d | 牌桌: %d | 对局中: %d | Goroutines: %d | 活跃连接: %d/%d | 内存: %.2f MB",
			s.GetOnlineCount(),
			s.tables.TableCount(),
			s.tables.GetActiveGamesCount(),
			runtime.NumGoroutine(),
			len(s.semaphore),
			s.maxConnections,
			float64(m.Alloc)/1024/1024)
	}
}

// EnterMaintenanceMode 进入维护模式
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	// 通知大厅用户
	s.BroadcastToLobby(codec.MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    protocol.ErrCodeMaintenance,
		Message: "👷🏻‍♂️ 维护模式：停止新的牌桌创建",
	}))

	log.Println("🔧 进入维护模式：停止新连接和牌桌创建")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 优雅关闭服务器，最多等待 timeout 让进行中的对局结束
func (s *Server) GracefulShutdown(timeout time.Duration) {
	// 1. 进入维护模式
	s.EnterMaintenanceMode()

	// 2. 等待对局结束
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(shutdownCheckInterval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		activeGames := s.tables.GetActiveGamesCount()
		if activeGames == 0 {
			log.Println("✅ 所有对局已结束，关闭服务器")
			break
		}
		log.Printf("⏳ 等待 %d 个对局结束...", activeGames)
		<-ticker.C
	}

	// 3. 超时检查，未结束的对局已存入 Redis，重启后由 AI 代打
	if activeGames := s.tables.GetActiveGamesCount(); activeGames > 0 {
		log.Printf("⚠️ 超时，仍有 %d 个对局进行中，强制关闭", activeGames)
		s.Broadcast(codec.MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
			Code:    protocol.ErrCodeMaintenance,
			Message: fmt.Sprintf("🚧 服务器停机维护，%d 个对局已保存", activeGames),
		}))
	}

	// 4. 关闭服务器
	s.Shutdown()
}

// shuttingDown 是否已开始关闭
func (s *Server) shuttingDown() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// Shutdown 关闭服务器，可重复调用
func (s *Server) Shutdown() {
	s.closeOnce.Do(func() {
		close(s.stop)

		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.httpServer.Shutdown(ctx); err != nil {
				log.Printf("⚠️  HTTP 服务关闭失败: %v", err)
			}
			cancel()
		}

		// 关闭所有客户端连接
		s.clientsMu.Lock()
		for _, client := range s.clients {
			client.Close()
		}
		s.clientsMu.Unlock()

		// 等待牌桌的后台存储写完，再关闭存储
		s.tables.Close()
		s.connLimiter.Stop()
		if err := s.archive.Close(); err != nil {
			log.Printf("⚠️  关闭对局归档失败: %v", err)
		}
		_ = s.redis.Close()

		log.Println("服务器已关闭")
	})
}
