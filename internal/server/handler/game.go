package handler

import (
	"github.com/palemoky/ninety-nine/internal/game/card"
	"github.com/palemoky/ninety-nine/internal/protocol"
	"github.com/palemoky/ninety-nine/internal/protocol/codec"
	"github.com/palemoky/ninety-nine/internal/types"
)

// handleStartGame 处理开始游戏
func (h *Handler) handleStartGame(client types.ClientInterface) {
	if err := h.tables.StartGame(client); err != nil {
		sendError(client, err)
	}
}

// handlePlaceBid 处理叫分
func (h *Handler) handlePlaceBid(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.PlaceBidPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	if len(payload.Cards) > 0 {
		ids, ok := canonicalCardIDs(payload.Cards...)
		if !ok {
			client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			return
		}
		payload.Cards = ids
	}
	if err := h.tables.PlaceBid(client, *payload); err != nil {
		sendError(client, err)
	}
}

// handleRevealBid 处理亮出叫分
func (h *Handler) handleRevealBid(client types.ClientInterface) {
	if err := h.tables.RevealBid(client); err != nil {
		sendError(client, err)
	}
}

// handlePlayCard 处理出牌
func (h *Handler) handlePlayCard(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.PlayCardPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	ids, ok := canonicalCardIDs(payload.CardID)
	if !ok {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	if err := h.tables.PlayCard(client, ids[0]); err != nil {
		sendError(client, err)
	}
}

// handleNextRound 处理开始下一局
func (h *Handler) handleNextRound(client types.ClientInterface) {
	if err := h.tables.NextRound(client); err != nil {
		sendError(client, err)
	}
}

// handleGetState 重新下发当前状态
func (h *Handler) handleGetState(client types.ClientInterface) {
	if err := h.tables.SendState(client); err != nil {
		sendError(client, err)
	}
}

// canonicalCardIDs 校验客户端传来的牌 ID 并统一为 "HA"、"C10" 这样的写法
func canonicalCardIDs(ids ...string) ([]string, bool) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		c, err := card.ParseID(id)
		if err != nil {
			return nil, false
		}
		out = append(out, c.ID)
	}
	return out, true
}
