package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/ninety-nine/internal/config"
	"github.com/palemoky/ninety-nine/internal/protocol"
	"github.com/palemoky/ninety-nine/internal/protocol/codec"
	"github.com/palemoky/ninety-nine/internal/testutil"
	"github.com/palemoky/ninety-nine/internal/transport"
)

func testConfig(mutate func(*config.Config)) *config.Config {
	cfg := config.Default()
	cfg.Archive.Path = ":memory:"
	cfg.Game.AIDelayMs = 1
	if mutate != nil {
		mutate(cfg)
	}
	return cfg
}

func newTestServer(t *testing.T, mr *miniredis.Miniredis, cfg *config.Config) *Server {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s, err := newServer(cfg, rdb)
	require.NoError(t, err)
	t.Cleanup(s.Shutdown)
	return s
}

// serve 启动 httptest 服务并返回 WebSocket 地址
func serve(t *testing.T, s *Server) string {
	t.Helper()
	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func writeMsg(t *testing.T, conn *websocket.Conn, f codec.Format, msgType protocol.MessageType, payload any) {
	t.Helper()
	data, err := codec.EncodeAs(f, codec.MustNewMessage(msgType, payload))
	require.NoError(t, err)
	frame := websocket.TextMessage
	if f == codec.FormatProtobuf {
		frame = websocket.BinaryMessage
	}
	require.NoError(t, conn.WriteMessage(frame, data))
}

// readUntil 读取消息直到出现指定类型
func readUntil(t *testing.T, conn *websocket.Conn, f codec.Format, want protocol.MessageType) *protocol.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		msg, err := codec.DecodeAs(f, data)
		require.NoError(t, err)
		if msg.Type == want {
			return msg
		}
	}
}

func TestServer_WebSocketFlow(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, miniredis.RunT(t), testConfig(nil))
	conn := dial(t, serve(t, s))

	connected, err := codec.ParsePayload[protocol.ConnectedPayload](readUntil(t, conn, codec.FormatJSON, protocol.MsgConnected))
	require.NoError(t, err)
	assert.NotEmpty(t, connected.PlayerID)
	assert.NotEmpty(t, connected.PlayerName)
	assert.Equal(t, 1, s.GetOnlineCount())

	writeMsg(t, conn, codec.FormatJSON, protocol.MsgCreateTable, protocol.CreateTablePayload{Bots: 2})
	created, err := codec.ParsePayload[protocol.TableCreatedPayload](readUntil(t, conn, codec.FormatJSON, protocol.MsgTableCreated))
	require.NoError(t, err)
	assert.Len(t, created.TableCode, 6)

	writeMsg(t, conn, codec.FormatJSON, protocol.MsgStartGame, nil)
	for {
		state, err := codec.ParsePayload[protocol.GameStateDTO](readUntil(t, conn, codec.FormatJSON, protocol.MsgGameState))
		require.NoError(t, err)
		if state.Phase == "bidding" {
			assert.Len(t, state.Players, 3)
			break
		}
	}
	assert.Equal(t, 1, s.tables.GetActiveGamesCount())

	// 断开后唯一的真人离开，牌桌解散
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return s.GetOnlineCount() == 0 && s.tables.TableCount() == 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestServer_ProtobufEncoding(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, miniredis.RunT(t), testConfig(func(c *config.Config) {
		c.Server.Encoding = "protobuf"
	}))
	conn := dial(t, serve(t, s))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	frame, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, frame)
	msg, err := codec.DecodeProto(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgConnected, msg.Type)

	writeMsg(t, conn, codec.FormatProtobuf, protocol.MsgPing, protocol.PingPayload{Timestamp: 99})
	pong, err := codec.ParsePayload[protocol.PongPayload](readUntil(t, conn, codec.FormatProtobuf, protocol.MsgPong))
	require.NoError(t, err)
	assert.Equal(t, int64(99), pong.ClientTimestamp)
}

func TestServer_InvalidMessage(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, miniredis.RunT(t), testConfig(nil))
	conn := dial(t, serve(t, s))
	readUntil(t, conn, codec.FormatJSON, protocol.MsgConnected)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"payload":{}}`)))
	p, err := codec.ParsePayload[protocol.ErrorPayload](readUntil(t, conn, codec.FormatJSON, protocol.MsgError))
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeInvalidMsg, p.Code)
}

func TestServer_RejectsConnections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cfg    func(*config.Config)
		setup  func(*Server)
		header http.Header
		status int
	}{
		{
			name:   "maintenance",
			setup:  func(s *Server) { s.EnterMaintenanceMode() },
			status: http.StatusServiceUnavailable,
		},
		{
			name:   "blacklisted ip",
			cfg:    func(c *config.Config) { c.Security.IPBlacklist = []string{"127.0.0.1"} },
			status: http.StatusForbidden,
		},
		{
			name:   "origin not allowed",
			cfg:    func(c *config.Config) { c.Security.AllowedOrigins = []string{"https://ninety-nine.example"} },
			header: http.Header{"Origin": {"https://evil.example"}},
			status: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestServer(t, miniredis.RunT(t), testConfig(tt.cfg))
			if tt.setup != nil {
				tt.setup(s)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(serve(t, s), tt.header)
			if conn != nil {
				_ = conn.Close()
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			_ = resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestServer_HandleHealth(t *testing.T) {
	t.Parallel()

	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	res := w.Result()
	defer func() { _ = res.Body.Close() }()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestServer_RestoresTablesFromRedis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	first := newTestServer(t, mr, testConfig(nil))
	c := testutil.NewSimpleClient("p1", "Alice")
	tbl, err := first.tables.CreateTable(c, "", 2, "easy")
	require.NoError(t, err)
	require.NoError(t, first.tables.StartGame(c))
	first.Shutdown()
	require.True(t, mr.Exists("table:"+tbl.Code))

	second := newTestServer(t, mr, testConfig(nil))
	assert.Equal(t, 1, second.tables.TableCount())
	restored := second.tables.GetTable(tbl.Code)
	require.NotNil(t, restored)
	assert.NotEqual(t, "waiting", restored.Phase())
}

func TestServer_GracefulShutdown(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, miniredis.RunT(t), testConfig(nil))
	lobby := NewClient(s, nil)
	s.registerClient(lobby)

	done := make(chan struct{})
	go func() {
		s.GracefulShutdown(time.Minute)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("GracefulShutdown should return once no games are running")
	}
	assert.True(t, s.IsMaintenanceMode())
	assert.True(t, s.shuttingDown())

	// 大厅玩家收到维护通知，随后发送通道被关闭
	data, ok := <-lobby.send
	require.True(t, ok)
	msg, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgError, msg.Type)
}

// autoPlay 作为真人玩家完成整场对局：叫分用前几张手牌，轮到自己时出第一张合法牌
func autoPlay(t *testing.T, c *transport.Client) *protocol.GameOverPayload {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		msg, err := c.ReceiveWithTimeout(5 * time.Second)
		require.NoError(t, err)

		switch msg.Type {
		case protocol.MsgGameOver:
			over, err := codec.ParsePayload[protocol.GameOverPayload](msg)
			require.NoError(t, err)
			return over
		case protocol.MsgGameState:
			state, err := codec.ParsePayload[protocol.GameStateDTO](msg)
			require.NoError(t, err)
			// 过期状态引起的重复操作会被服务器拒绝，不影响对局
			require.NoError(t, autoAct(c, state))
		}
	}
	t.Fatal("game did not finish in time")
	return nil
}

func autoAct(c *transport.Client, state *protocol.GameStateDTO) error {
	me := c.PlayerID()
	switch state.Phase {
	case "bidding":
		if state.CurrentBidder == me {
			if state.CardBidMode {
				ids := make([]string, 0, 3)
				for _, card := range state.Hand[:3] {
					ids = append(ids, card.ID)
				}
				return c.PlaceCardBid(ids)
			}
			return c.PlaceValueBid(1)
		}
		if state.CurrentBidder == "" {
			for _, p := range state.Players {
				if p.ID == me && p.Bid != nil && !p.Bid.Revealed {
					return c.RevealBid()
				}
			}
		}
	case "playing":
		if state.CurrentPlayer == me && len(state.LegalCards) > 0 {
			return c.PlayCard(state.LegalCards[0])
		}
	case "scoring":
		return c.NextRound()
	}
	return nil
}

func TestServer_FullGameOverTransport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		variant string
		format  codec.Format
	}{
		{name: "ninety-nine json", variant: "ninety-nine", format: codec.FormatJSON},
		{name: "standard protobuf", variant: "standard", format: codec.FormatProtobuf},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t, miniredis.RunT(t), testConfig(func(c *config.Config) {
				c.Server.Encoding = tt.format.String()
				c.Game.MaxRounds = 2
			}))
			c := transport.NewClient(serve(t, s), tt.format)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			require.NoError(t, c.Connect(ctx))
			t.Cleanup(c.Close)

			_, err := c.WaitFor(protocol.MsgConnected, 5*time.Second)
			require.NoError(t, err)
			require.NotEmpty(t, c.PlayerID())

			require.NoError(t, c.CreateTable(tt.variant, 2, "easy"))
			created, err := c.WaitFor(protocol.MsgTableCreated, 5*time.Second)
			require.NoError(t, err)
			info, err := codec.ParsePayload[protocol.TableCreatedPayload](created)
			require.NoError(t, err)
			assert.Equal(t, c.PlayerID(), info.Player.ID)

			require.NoError(t, c.StartGame())
			over := autoPlay(t, c)
			assert.Equal(t, 2, over.Rounds)
			assert.Len(t, over.Standings, 3)
			assert.NotEmpty(t, over.WinnerIDs)

			s.tables.Flush()
			require.NoError(t, c.GetStats())
			res, err := c.WaitFor(protocol.MsgStatsResult, 5*time.Second)
			require.NoError(t, err)
			stats, err := codec.ParsePayload[protocol.StatsResultPayload](res)
			require.NoError(t, err)
			assert.Equal(t, 1, stats.TotalGames)
			assert.Equal(t, 2, stats.RoundsPlayed)

			require.NoError(t, c.GetTableHistory(info.TableCode))
			res, err = c.WaitFor(protocol.MsgTableHistoryResult, 5*time.Second)
			require.NoError(t, err)
			history, err := codec.ParsePayload[protocol.TableHistoryResultPayload](res)
			require.NoError(t, err)
			assert.Equal(t, info.TableCode, history.TableCode)
			assert.Len(t, history.Rounds, 6, "每局每位玩家一条")

			require.NoError(t, c.GetRecentGames(5))
			res, err = c.WaitFor(protocol.MsgRecentGamesResult, 5*time.Second)
			require.NoError(t, err)
			recent, err := codec.ParsePayload[protocol.RecentGamesResultPayload](res)
			require.NoError(t, err)
			require.Len(t, recent.Games, 1)
			assert.Equal(t, info.TableCode, recent.Games[0].TableCode)
			assert.ElementsMatch(t, over.WinnerIDs, recent.Games[0].WinnerIDs)

			require.NoError(t, c.Ping())
			_, err = c.WaitFor(protocol.MsgPong, 5*time.Second)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, c.Latency(), int64(0))
		})
	}
}
