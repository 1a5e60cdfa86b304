package transport

import (
	"time"

	"github.com/palemoky/ninety-nine/internal/protocol"
	"github.com/palemoky/ninety-nine/internal/protocol/codec"
)

// --- 便捷方法 ---

func (c *Client) sendAction(msgType protocol.MessageType, payload any) error {
	msg, err := codec.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	return c.SendMessage(msg)
}

// CreateTable 创建牌桌，variant 为空时用服务器默认玩法
func (c *Client) CreateTable(variant string, bots int, botLevel string) error {
	return c.sendAction(protocol.MsgCreateTable, protocol.CreateTablePayload{
		Variant:  variant,
		Bots:     bots,
		BotLevel: botLevel,
	})
}

// JoinTable 加入牌桌
func (c *Client) JoinTable(code string) error {
	return c.sendAction(protocol.MsgJoinTable, protocol.JoinTablePayload{TableCode: code})
}

// LeaveTable 离开牌桌
func (c *Client) LeaveTable() error {
	return c.sendAction(protocol.MsgLeaveTable, nil)
}

// AddBot 添加 AI
func (c *Client) AddBot(level string) error {
	return c.sendAction(protocol.MsgAddBot, protocol.AddBotPayload{Level: level})
}

// StartGame 开始游戏
func (c *Client) StartGame() error {
	return c.sendAction(protocol.MsgStartGame, nil)
}

// PlaceCardBid 用叫分牌叫分
func (c *Client) PlaceCardBid(cardIDs []string) error {
	return c.sendAction(protocol.MsgPlaceBid, protocol.PlaceBidPayload{Cards: cardIDs})
}

// PlaceValueBid 直接报数叫分
func (c *Client) PlaceValueBid(value int) error {
	return c.sendAction(protocol.MsgPlaceBid, protocol.PlaceBidPayload{Value: &value})
}

// RevealBid 亮出叫分
func (c *Client) RevealBid() error {
	return c.sendAction(protocol.MsgRevealBid, nil)
}

// PlayCard 出牌
func (c *Client) PlayCard(cardID string) error {
	return c.sendAction(protocol.MsgPlayCard, protocol.PlayCardPayload{CardID: cardID})
}

// NextRound 开始下一局
func (c *Client) NextRound() error {
	return c.sendAction(protocol.MsgNextRound, nil)
}

// GetState 拉取当前状态
func (c *Client) GetState() error {
	return c.sendAction(protocol.MsgGetState, nil)
}

// GetStats 获取个人统计
func (c *Client) GetStats() error {
	return c.sendAction(protocol.MsgGetStats, nil)
}

// GetLeaderboard 获取排行榜
func (c *Client) GetLeaderboard(boardType string, offset, limit int) error {
	return c.sendAction(protocol.MsgGetLeaderboard, protocol.GetLeaderboardPayload{
		Type:   boardType,
		Offset: offset,
		Limit:  limit,
	})
}

// GetTableList 获取牌桌列表
func (c *Client) GetTableList() error {
	return c.sendAction(protocol.MsgGetTableList, nil)
}

// GetTableHistory 获取牌桌已归档的每局结果，tableCode 为空时查询当前牌桌
func (c *Client) GetTableHistory(tableCode string) error {
	return c.sendAction(protocol.MsgGetTableHistory, protocol.GetTableHistoryPayload{TableCode: tableCode})
}

// GetRecentGames 获取最近结束的对局
func (c *Client) GetRecentGames(limit int) error {
	return c.sendAction(protocol.MsgGetRecentGames, protocol.GetRecentGamesPayload{Limit: limit})
}

// Ping 发送心跳，延迟在收到 pong 后更新
func (c *Client) Ping() error {
	return c.sendAction(protocol.MsgPing, protocol.PingPayload{Timestamp: time.Now().UnixMilli()})
}
