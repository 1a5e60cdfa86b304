package table

import (
	"time"

	"github.com/palemoky/ninety-nine/internal/apperrors"
	"github.com/palemoky/ninety-nine/internal/game/engine"
	"github.com/palemoky/ninety-nine/internal/protocol"
	"github.com/palemoky/ninety-nine/internal/protocol/codec"
	"github.com/palemoky/ninety-nine/internal/types"
)

var errNotStarted = apperrors.New(apperrors.KindGameState, "对局尚未开始")

// StartGame 开始对局。上一场结束后可以用当前座位重新开始
func (m *Manager) StartGame(client types.ClientInterface) error {
	t, err := m.tableOf(client)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.seatOfLocked(client.GetID()) == nil {
		return apperrors.ErrNotAtTable
	}
	if err := t.startLocked(); err != nil {
		return err
	}
	t.touched = time.Now()
	t.settleLocked()
	return nil
}

// PlaceBid 叫分
func (m *Manager) PlaceBid(client types.ClientInterface, payload protocol.PlaceBidPayload) error {
	offer := engine.BidOffer{Cards: payload.Cards, Value: payload.Value}
	return m.act(client, func(g *engine.Game, seatID string) error {
		return g.PlaceBid(seatID, offer)
	})
}

// RevealBid 亮出自己的叫分
func (m *Manager) RevealBid(client types.ClientInterface) error {
	return m.act(client, func(g *engine.Game, seatID string) error {
		return g.RevealBid(seatID)
	})
}

// PlayCard 出牌
func (m *Manager) PlayCard(client types.ClientInterface, cardID string) error {
	return m.act(client, func(g *engine.Game, seatID string) error {
		return g.PlayCard(seatID, cardID)
	})
}

// NextRound 结算后开始下一局，达到结束条件时结束对局
func (m *Manager) NextRound(client types.ClientInterface) error {
	return m.act(client, func(g *engine.Game, _ string) error {
		return g.NextRound()
	})
}

// act 在牌桌锁内用客户端的座位执行一次引擎操作，成功后推送状态并驱动 AI
func (m *Manager) act(client types.ClientInterface, fn func(g *engine.Game, seatID string) error) error {
	t, err := m.tableOf(client)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	seat := t.seatOfLocked(client.GetID())
	if seat == nil {
		return apperrors.ErrNotAtTable
	}
	if t.game == nil {
		return errNotStarted
	}
	if err := fn(t.game, seat.ID); err != nil {
		return err
	}
	t.touched = time.Now()
	t.settleLocked()
	return nil
}

// SendState 给客户端发送它当前看到的状态
func (m *Manager) SendState(client types.ClientInterface) error {
	t, err := m.tableOf(client)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	seat := t.seatOfLocked(client.GetID())
	if seat == nil {
		return apperrors.ErrNotAtTable
	}
	client.SendMessage(codec.MustNewMessage(protocol.MsgGameState, t.stateForLocked(seat.ID)))
	return nil
}

// Players 按座位顺序返回 viewerID 看到的玩家信息
func (t *Table) Players(viewerID string) []protocol.PlayerInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s := t.seatOfLocked(viewerID); s != nil {
		viewerID = s.ID
	}
	return t.playerInfosLocked(viewerID)
}

// PlayerInfo 返回客户端所在座位的信息
func (t *Table) PlayerInfo(clientID string) protocol.PlayerInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	seatID := clientID
	if s := t.seatOfLocked(clientID); s != nil {
		seatID = s.ID
	}
	return t.playerInfoLocked(seatID)
}
