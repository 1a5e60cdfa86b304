package transport

import (
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/ninety-nine/internal/logger"
	"github.com/palemoky/ninety-nine/internal/protocol"
	"github.com/palemoky/ninety-nine/internal/protocol/codec"
)

// readPump 从服务器读取消息
func (c *Client) readPump() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		c.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.LogError("读取错误: %v", err)
			}
			return
		}

		msg, err := codec.DecodeAs(c.Format, data)
		if err != nil {
			log.Printf("消息解析错误: %v", err)
			continue
		}

		c.handleInternalMessage(msg)

		select {
		case c.receive <- msg:
		case <-c.done:
			return
		}
	}
}

// handleInternalMessage 记录连接信息和延迟
func (c *Client) handleInternalMessage(msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgConnected:
		if payload, err := codec.ParsePayload[protocol.ConnectedPayload](msg); err == nil {
			c.mu.Lock()
			c.playerID = payload.PlayerID
			c.playerName = payload.PlayerName
			c.mu.Unlock()
		}
	case protocol.MsgPong:
		if payload, err := codec.ParsePayload[protocol.PongPayload](msg); err == nil {
			c.latency.Store(time.Now().UnixMilli() - payload.ClientTimestamp)
		}
	}
}

// writePump 向服务器写入消息
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		ticker.Stop()
		_ = c.conn.Close()
	}()

	frame := websocket.TextMessage
	if c.Format == codec.FormatProtobuf {
		frame = websocket.BinaryMessage
	}

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(frame, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
