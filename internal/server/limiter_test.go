package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/ninety-nine/internal/config"
	"github.com/palemoky/ninety-nine/internal/game/table"
	"github.com/palemoky/ninety-nine/internal/protocol"
	"github.com/palemoky/ninety-nine/internal/protocol/codec"
	"github.com/palemoky/ninety-nine/internal/server/handler"
)

func newTestLimiter(cfg config.MessageLimitConfig) (*messageLimiter, *fakeClock) {
	clock := newFakeClock()
	l := newMessageLimiter(cfg)
	l.now = clock.Now
	return l, clock
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msgType protocol.MessageType
		want    actionClass
	}{
		{protocol.MsgPlayCard, classGame},
		{protocol.MsgPlaceBid, classGame},
		{protocol.MsgPing, classGame},
		{"", classGame},
		{protocol.MsgCreateTable, classTable},
		{protocol.MsgJoinTable, classTable},
		{protocol.MsgLeaveTable, classTable},
		{protocol.MsgGetState, classQuery},
		{protocol.MsgGetLeaderboard, classQuery},
		{protocol.MsgGetTableHistory, classQuery},
		{protocol.MsgGetRecentGames, classQuery},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classify(tt.msgType), "type %q", tt.msgType)
	}
}

func TestMessageLimiter_GameActions(t *testing.T) {
	t.Parallel()

	l, clock := newTestLimiter(config.MessageLimitConfig{MaxPerSecond: 4, QueryPerSecond: 10, TablePerMinute: 10})

	got := make([]verdict, 0, 5)
	for range 5 {
		v, _ := l.check("c1", protocol.MsgPlayCard)
		got = append(got, v)
	}
	assert.Equal(t, []verdict{verdictAllow, verdictAllow, verdictWarn, verdictWarn, verdictReject}, got)

	clock.Advance(time.Second)
	v, text := l.check("c1", protocol.MsgPlayCard)
	assert.Equal(t, verdictAllow, v)
	assert.Empty(t, text)
}

func TestMessageLimiter_QueriesDoNotStarveGameActions(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(config.MessageLimitConfig{MaxPerSecond: 20, QueryPerSecond: 2, TablePerMinute: 10})

	for range 2 {
		v, _ := l.check("c1", protocol.MsgGetState)
		assert.Equal(t, verdictAllow, v)
	}
	v, text := l.check("c1", protocol.MsgGetState)
	assert.Equal(t, verdictReject, v)
	assert.Contains(t, text, "查询")

	v, _ = l.check("c1", protocol.MsgPlaceBid)
	assert.Equal(t, verdictAllow, v)

	// 额度按客户端分开
	v, _ = l.check("c2", protocol.MsgGetState)
	assert.Equal(t, verdictAllow, v)
}

func TestMessageLimiter_TableOpsPerMinute(t *testing.T) {
	t.Parallel()

	l, clock := newTestLimiter(config.MessageLimitConfig{MaxPerSecond: 20, QueryPerSecond: 5, TablePerMinute: 2})

	for _, mt := range []protocol.MessageType{protocol.MsgCreateTable, protocol.MsgLeaveTable} {
		v, _ := l.check("c1", mt)
		assert.Equal(t, verdictAllow, v)
		clock.Advance(5 * time.Second)
	}
	v, text := l.check("c1", protocol.MsgJoinTable)
	assert.Equal(t, verdictReject, v)
	assert.Contains(t, text, "牌桌")

	clock.Advance(time.Minute)
	v, _ = l.check("c1", protocol.MsgJoinTable)
	assert.Equal(t, verdictAllow, v)
}

func TestMessageLimiter_DropsRepeatOffenders(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(config.MessageLimitConfig{MaxPerSecond: 100, QueryPerSecond: 1, TablePerMinute: 10})
	l.check("c1", protocol.MsgGetStats)

	for i := range maxStrikes {
		v, _ := l.check("c1", protocol.MsgGetStats)
		assert.Equal(t, verdictReject, v, "strike %d", i+1)
	}
	v, _ := l.check("c1", protocol.MsgGetStats)
	assert.Equal(t, verdictDrop, v)

	// 重新连接后从零开始
	l.remove("c1")
	v, _ = l.check("c1", protocol.MsgGetStats)
	assert.Equal(t, verdictAllow, v)
}

// newDispatchClient 不经过 WebSocket，直接驱动 dispatch
func newDispatchClient(t *testing.T, limits config.MessageLimitConfig) (*Client, *fakeClock) {
	t.Helper()
	tables := table.NewManager(table.Deps{}, table.Config{})
	t.Cleanup(tables.Close)

	limiter, clock := newTestLimiter(limits)
	s := &Server{
		clients: make(map[string]*Client),
		format:  codec.FormatJSON,
		limiter: limiter,
		tables:  tables,
	}
	s.handler = handler.NewHandler(handler.HandlerDeps{Server: s, Tables: tables})
	return &Client{ID: "c1", Name: "Alice", server: s, send: make(chan []byte, 64)}, clock
}

// drain 取出已入队的消息
func drain(t *testing.T, c *Client) []*protocol.Message {
	t.Helper()
	var out []*protocol.Message
	for {
		select {
		case data := <-c.send:
			msg, err := codec.Decode(data)
			require.NoError(t, err)
			out = append(out, msg)
		default:
			return out
		}
	}
}

func encode(t *testing.T, msgType protocol.MessageType, payload any) []byte {
	t.Helper()
	data, err := codec.EncodeAs(codec.FormatJSON, codec.MustNewMessage(msgType, payload))
	require.NoError(t, err)
	return data
}

func errorCode(t *testing.T, msg *protocol.Message) int {
	t.Helper()
	require.Equal(t, protocol.MsgError, msg.Type)
	p, err := codec.ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	return p.Code
}

func TestClient_DispatchAppliesLimits(t *testing.T) {
	t.Parallel()

	c, _ := newDispatchClient(t, config.MessageLimitConfig{MaxPerSecond: 50, QueryPerSecond: 2, TablePerMinute: 5})

	for range 2 {
		require.True(t, c.dispatch(encode(t, protocol.MsgGetOnlineCount, nil)))
	}
	require.True(t, c.dispatch(encode(t, protocol.MsgGetOnlineCount, nil)))
	msgs := drain(t, c)
	require.Len(t, msgs, 3)
	assert.Equal(t, protocol.MsgOnlineCount, msgs[0].Type)
	assert.Equal(t, protocol.MsgOnlineCount, msgs[1].Type)
	assert.Equal(t, protocol.ErrCodeRateLimit, errorCode(t, msgs[2]))

	// 查询用完额度后仍可以操作
	require.True(t, c.dispatch(encode(t, protocol.MsgPing, protocol.PingPayload{Timestamp: 1})))
	msgs = drain(t, c)
	require.Len(t, msgs, 1)
	assert.Equal(t, protocol.MsgPong, msgs[0].Type)

	// 无法解码的消息同样先经过限流，再回复格式错误
	require.True(t, c.dispatch([]byte("{")))
	msgs = drain(t, c)
	require.Len(t, msgs, 1)
	assert.Equal(t, protocol.ErrCodeInvalidMsg, errorCode(t, msgs[0]))
}

func TestClient_DispatchDisconnectsFlooder(t *testing.T) {
	t.Parallel()

	c, clock := newDispatchClient(t, config.MessageLimitConfig{MaxPerSecond: 50, QueryPerSecond: 5, TablePerMinute: 1})
	data := encode(t, protocol.MsgLeaveTable, nil)

	require.True(t, c.dispatch(data))
	for range maxStrikes {
		clock.Advance(time.Second)
		require.True(t, c.dispatch(data))
	}
	assert.False(t, c.dispatch(data))

	msgs := drain(t, c)
	assert.Len(t, msgs, maxStrikes)
	for _, msg := range msgs {
		assert.Equal(t, protocol.ErrCodeRateLimit, errorCode(t, msg))
	}
}
