// Package transport 是无界面的 WebSocket 客户端，供脚本化玩家和端到端测试使用
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/ninety-nine/internal/protocol"
	"github.com/palemoky/ninety-nine/internal/protocol/codec"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	handshakeTimeout = 10 * time.Second
	bufferSize       = 256
)

var (
	// ErrClosed 连接已关闭
	ErrClosed = errors.New("connection closed")
	// ErrTimeout 等待消息超时
	ErrTimeout = errors.New("receive timeout")
)

// Client WebSocket 客户端
type Client struct {
	ServerURL string
	Format    codec.Format

	conn    *websocket.Conn
	send    chan []byte
	receive chan *protocol.Message
	done    chan struct{}

	mu         sync.RWMutex
	playerID   string
	playerName string
	closed     bool
	latency    atomic.Int64 // 毫秒
}

// NewClient 创建客户端
func NewClient(serverURL string, format codec.Format) *Client {
	return &Client{
		ServerURL: serverURL,
		Format:    format,
		send:      make(chan []byte, bufferSize),
		receive:   make(chan *protocol.Message, bufferSize),
		done:      make(chan struct{}),
	}
}

// Connect 连接服务器并启动读写协程
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	conn, resp, err := dialer.DialContext(ctx, c.ServerURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (status %d)", c.ServerURL, err, resp.StatusCode)
		}
		return fmt.Errorf("dial %s: %w", c.ServerURL, err)
	}
	c.conn = conn

	go c.readPump()
	go c.writePump()
	return nil
}

// SendMessage 发送消息
func (c *Client) SendMessage(msg *protocol.Message) error {
	data, err := codec.EncodeAs(c.Format, msg)
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

// Receive 接收下一条消息（阻塞）
func (c *Client) Receive() (*protocol.Message, error) {
	select {
	case msg := <-c.receive:
		return msg, nil
	case <-c.done:
		return nil, ErrClosed
	}
}

// ReceiveWithTimeout 带超时接收消息
func (c *Client) ReceiveWithTimeout(timeout time.Duration) (*protocol.Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-c.receive:
		return msg, nil
	case <-timer.C:
		return nil, ErrTimeout
	case <-c.done:
		return nil, ErrClosed
	}
}

// WaitFor 丢弃其他消息，直到收到指定类型的消息
func (c *Client) WaitFor(msgType protocol.MessageType, timeout time.Duration) (*protocol.Message, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("wait for %s: %w", msgType, ErrTimeout)
		}
		msg, err := c.ReceiveWithTimeout(remaining)
		if err != nil {
			return nil, fmt.Errorf("wait for %s: %w", msgType, err)
		}
		if msg.Type == msgType {
			return msg, nil
		}
	}
}

// Close 关闭连接，可重复调用
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
}

// IsConnected 是否已连接
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.closed
}

// PlayerID 服务器分配的玩家 ID，收到 connected 之前为空
func (c *Client) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// PlayerName 服务器分配的昵称
func (c *Client) PlayerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerName
}

// Latency 最近一次 ping 的往返延迟（毫秒）
func (c *Client) Latency() int64 {
	return c.latency.Load()
}
