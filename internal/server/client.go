package server

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/palemoky/ninety-nine/internal/protocol"
	"github.com/palemoky/ninety-nine/internal/protocol/codec"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // 必须小于 pongWait
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Client 一条玩家连接。断线后连接即作废，牌桌上的座位交给 AI
type Client struct {
	ID   string
	Name string
	IP   string

	server *Server
	conn   *websocket.Conn
	send   chan []byte

	mu        sync.RWMutex
	tableCode string
	closed    bool
}

// NewClient 创建新客户端
func NewClient(s *Server, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.New().String(),
		Name:   GenerateNickname(),
		server: s,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}
}

// readPump 读取消息直到连接断开或因多次超限被踢出
func (c *Client) readPump() {
	defer c.handleDisconnect()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("读取错误: %v", err)
			}
			return
		}
		if !c.dispatch(data) {
			return
		}
	}
}

// dispatch 解码一条消息，按类型限流后交给处理器。返回 false 表示应断开连接
func (c *Client) dispatch(data []byte) bool {
	msg, decodeErr := codec.DecodeAs(c.server.format, data)
	var msgType protocol.MessageType
	if decodeErr == nil {
		msgType = msg.Type
		defer codec.PutMessage(msg)
	}

	switch v, text := c.server.limiter.check(c.ID, msgType); v {
	case verdictDrop:
		log.Printf("🚫 客户端 %s (IP: %s) 多次超出消息限制，断开连接", c.Name, c.IP)
		return false
	case verdictReject:
		c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, text))
		return true
	case verdictWarn:
		c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, text))
	}

	if decodeErr != nil {
		log.Printf("消息解析错误: %v", decodeErr)
		c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return true
	}
	// 处理器不会持有消息
	c.server.handler.Handle(c, msg)
	return true
}

// writePump 发送队列中的消息并定时 ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	frame := websocket.TextMessage
	if c.server.format == codec.FormatProtobuf {
		frame = websocket.BinaryMessage
	}
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(frame, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 按服务器的传输格式编码后入队，队列满时断开这个慢客户端
func (c *Client) SendMessage(msg *protocol.Message) {
	data, err := codec.EncodeAs(c.server.format, msg)
	if err != nil {
		log.Printf("消息编码错误: %v", err)
		return
	}

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return
	}
	queued := true
	select {
	case c.send <- data:
	default:
		queued = false
	}
	c.mu.RUnlock()

	if !queued {
		log.Printf("客户端 %s 发送缓冲区已满", c.ID)
		c.Close()
	}
}

// handleDisconnect 对局中的座位由 AI 接管，等待中的座位直接释放。
// 停机时保留座位，重启后从 Redis 恢复
func (c *Client) handleDisconnect() {
	if !c.server.shuttingDown() {
		c.server.tables.LeaveTable(c)
	}
	c.server.limiter.remove(c.ID)
	c.server.unregisterClient(c)
	c.Close()
	_ = c.conn.Close()
}

// Close 关闭发送队列，writePump 随后关闭连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) SetTable(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tableCode = code
}

func (c *Client) GetTable() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tableCode
}

func (c *Client) GetID() string   { return c.ID }
func (c *Client) GetName() string { return c.Name }
