package handler

import (
	"github.com/palemoky/ninety-nine/internal/protocol"
	"github.com/palemoky/ninety-nine/internal/protocol/codec"
	"github.com/palemoky/ninety-nine/internal/types"
)

// handleCreateTable 处理创建牌桌
func (h *Handler) handleCreateTable(client types.ClientInterface, msg *protocol.Message) {
	// 维护模式检查
	if h.server.IsMaintenanceMode() {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeMaintenance))
		return
	}

	payload, err := codec.ParsePayload[protocol.CreateTablePayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	// 如果已在牌桌上，先离开
	if client.GetTable() != "" {
		h.tables.LeaveTable(client)
	}

	t, err := h.tables.CreateTable(client, payload.Variant, payload.Bots, payload.BotLevel)
	if err != nil {
		sendError(client, err)
		return
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgTableCreated, protocol.TableCreatedPayload{
		TableCode: t.Code,
		Player:    t.PlayerInfo(client.GetID()),
	}))
	if err := h.tables.SendState(client); err != nil {
		sendError(client, err)
	}
}

// handleJoinTable 处理加入牌桌
func (h *Handler) handleJoinTable(client types.ClientInterface, msg *protocol.Message) {
	if h.server.IsMaintenanceMode() {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeMaintenance))
		return
	}

	payload, err := codec.ParsePayload[protocol.JoinTablePayload](msg)
	if err != nil || payload.TableCode == "" {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if client.GetTable() != "" {
		h.tables.LeaveTable(client)
	}

	t, err := h.tables.JoinTable(client, payload.TableCode)
	if err != nil {
		sendError(client, err)
		return
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgTableJoined, protocol.TableJoinedPayload{
		TableCode: t.Code,
		Player:    t.PlayerInfo(client.GetID()),
		Players:   t.Players(client.GetID()),
	}))
	if err := h.tables.SendState(client); err != nil {
		sendError(client, err)
	}
}

// handleLeaveTable 处理离开牌桌
func (h *Handler) handleLeaveTable(client types.ClientInterface) {
	h.tables.LeaveTable(client)
}

// handleAddBot 处理添加 AI
func (h *Handler) handleAddBot(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.AddBotPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	if _, err := h.tables.AddBot(client, payload.Level); err != nil {
		sendError(client, err)
	}
}

// handleGetTableList 获取可加入的牌桌列表
func (h *Handler) handleGetTableList(client types.ClientInterface) {
	client.SendMessage(codec.MustNewMessage(protocol.MsgTableListResult, protocol.TableListResultPayload{
		Tables: h.tables.GetTableList(),
	}))
}
