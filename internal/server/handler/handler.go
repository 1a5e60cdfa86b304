package handler

import (
	"log"

	"github.com/palemoky/ninety-nine/internal/apperrors"
	"github.com/palemoky/ninety-nine/internal/game/table"
	"github.com/palemoky/ninety-nine/internal/protocol"
	"github.com/palemoky/ninety-nine/internal/protocol/codec"
	"github.com/palemoky/ninety-nine/internal/types"
)

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server  types.ServerInterface
	Tables  *table.Manager
	Stats   types.StatsStore  // 为 nil 时排行榜相关请求返回错误
	History types.GameHistory // 为 nil 时历史记录请求返回错误
}

// Handler 消息处理器
type Handler struct {
	server   types.ServerInterface
	tables   *table.Manager
	stats    types.StatsStore
	history  types.GameHistory
	handlers map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server:  deps.Server,
		tables:  deps.Tables,
		stats:   deps.Stats,
		history: deps.History,
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing: h.handlePing,

		// 牌桌操作
		protocol.MsgCreateTable: h.handleCreateTable,
		protocol.MsgJoinTable:   h.handleJoinTable,
		protocol.MsgLeaveTable:  func(c types.ClientInterface, _ *protocol.Message) { h.handleLeaveTable(c) },
		protocol.MsgAddBot:      h.handleAddBot,
		protocol.MsgStartGame:   func(c types.ClientInterface, _ *protocol.Message) { h.handleStartGame(c) },

		// 游戏操作
		protocol.MsgPlaceBid:  h.handlePlaceBid,
		protocol.MsgRevealBid: func(c types.ClientInterface, _ *protocol.Message) { h.handleRevealBid(c) },
		protocol.MsgPlayCard:  h.handlePlayCard,
		protocol.MsgNextRound: func(c types.ClientInterface, _ *protocol.Message) { h.handleNextRound(c) },
		protocol.MsgGetState:  func(c types.ClientInterface, _ *protocol.Message) { h.handleGetState(c) },

		// 信息查询
		protocol.MsgGetStats:       func(c types.ClientInterface, _ *protocol.Message) { h.handleGetStats(c) },
		protocol.MsgGetLeaderboard: h.handleGetLeaderboard,
		protocol.MsgGetTableList:   func(c types.ClientInterface, _ *protocol.Message) { h.handleGetTableList(c) },
		protocol.MsgGetOnlineCount: func(c types.ClientInterface, _ *protocol.Message) { h.handleGetOnlineCount(c) },

		// 历史记录
		protocol.MsgGetTableHistory: h.handleGetTableHistory,
		protocol.MsgGetRecentGames:  h.handleGetRecentGames,
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	log.Printf("⚠️  未知消息类型: '%s' (来自玩家: %s, ID: %s)", msg.Type, client.GetName(), client.GetID())
	log.Printf("    消息详情: Payload长度=%d bytes", len(msg.Payload))
	client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}

// sendError 把操作错误回给发起者，错误不影响牌桌状态
func sendError(client types.ClientInterface, err error) {
	client.SendMessage(codec.NewErrorMessageWithText(apperrors.CodeOf(err), err.Error()))
}
