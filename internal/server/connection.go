package server

import (
	"log"
	"net/http"

	"github.com/palemoky/ninety-nine/internal/protocol"
	"github.com/palemoky/ninety-nine/internal/protocol/codec"
	"github.com/palemoky/ninety-nine/internal/types"
)

// rejection 握手被拒绝的原因
type rejection struct {
	status int
	text   string
}

// admit 按维护模式、IP 名单、来源、连接频率的顺序校验握手，通过时返回 nil。
// 被名单或来源拒绝的请求不计入频率
func (s *Server) admit(r *http.Request, ip string) *rejection {
	switch {
	case s.IsMaintenanceMode():
		log.Printf("🔧 维护模式，拒绝新连接: %s", ip)
		return &rejection{http.StatusServiceUnavailable, "Server is under maintenance, please try again later"}
	case !s.policy.allowIP(ip):
		log.Printf("🚫 IP %s 不在允许范围内", ip)
		return &rejection{http.StatusForbidden, "Forbidden"}
	case !s.policy.allowOrigin(r):
		log.Printf("🚫 来源验证失败: %s (IP: %s)", r.Header.Get("Origin"), ip)
		return &rejection{http.StatusForbidden, "Origin not allowed"}
	case !s.connLimiter.allow(ip):
		return &rejection{http.StatusTooManyRequests, "Too Many Requests"}
	}
	return nil
}

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)
	if rej := s.admit(r, ip); rej != nil {
		http.Error(w, rej.text, rej.status)
		return
	}

	// 信号量只限制同时进行的握手数，握手结束后释放
	select {
	case s.semaphore <- struct{}{}:
		defer func() { <-s.semaphore }()
	default:
		log.Printf("🚫 达到最大连接数限制 (%d), IP: %s", s.maxConnections, ip)
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket 升级失败: %v", err)
		return
	}

	client := NewClient(s, conn)
	client.IP = ip
	s.registerClient(client)

	client.SendMessage(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		PlayerID:   client.ID,
		PlayerName: client.Name,
	}))
	log.Printf("✅ 玩家 %s (%s) 已连接", client.Name, client.ID)

	go client.readPump()
	go client.writePump()
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.ID] = client
}

func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[client.ID]; ok {
		delete(s.clients, client.ID)
		log.Printf("❌ 玩家 %s (%s) 已断开", client.Name, client.ID)
	}
}

var _ types.ServerInterface = (*Server)(nil)
