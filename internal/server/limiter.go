package server

import (
	"sync"
	"time"

	"github.com/palemoky/ninety-nine/internal/config"
	"github.com/palemoky/ninety-nine/internal/protocol"
)

// actionClass 消息按对牌桌的影响分类，分别限流
type actionClass int

const (
	classGame  actionClass = iota // 叫分、出牌等对局操作，只受总额度约束
	classTable                    // 创建、加入、离开牌桌
	classQuery                    // 只读查询
)

func classify(t protocol.MessageType) actionClass {
	switch t {
	case protocol.MsgCreateTable, protocol.MsgJoinTable, protocol.MsgLeaveTable:
		return classTable
	case protocol.MsgGetState, protocol.MsgGetStats, protocol.MsgGetLeaderboard,
		protocol.MsgGetTableList, protocol.MsgGetOnlineCount,
		protocol.MsgGetTableHistory, protocol.MsgGetRecentGames:
		return classQuery
	default:
		return classGame
	}
}

// verdict 限流结果
type verdict int

const (
	verdictAllow  verdict = iota
	verdictWarn           // 放行，但已超过每秒额度的一半
	verdictReject         // 丢弃本条消息
	verdictDrop           // 多次超限，断开连接
)

// maxStrikes 被拒绝超过此次数后断开连接
const maxStrikes = 5

type clientBudget struct {
	total   window
	queries window
	tables  window
	strikes int
}

// messageLimiter 已连接客户端的消息限流。查询和牌桌进出在总额度之外另有额度，
// 刷新状态或反复进出牌桌不会用光出牌的额度
type messageLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBudget
	cfg     config.MessageLimitConfig
	now     func() time.Time
}

func newMessageLimiter(cfg config.MessageLimitConfig) *messageLimiter {
	return &messageLimiter{
		clients: make(map[string]*clientBudget),
		cfg:     cfg,
		now:     time.Now,
	}
}

// check 记录一条消息，返回处理结果和需要回给客户端的提示。
// 无法解码的消息以空类型计入总额度
func (l *messageLimiter) check(clientID string, t protocol.MessageType) (verdict, string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.clients[clientID]
	if !ok {
		b = &clientBudget{
			total:   window{size: time.Second},
			queries: window{size: time.Second},
			tables:  window{size: time.Minute},
		}
		l.clients[clientID] = b
	}

	total := b.total.hit(now)
	text := "消息发送过于频繁"
	over := total > l.cfg.MaxPerSecond
	switch classify(t) {
	case classQuery:
		if b.queries.hit(now) > l.cfg.QueryPerSecond {
			over, text = true, "查询过于频繁，请稍后再试"
		}
	case classTable:
		if b.tables.hit(now) > l.cfg.TablePerMinute {
			over, text = true, "创建或进出牌桌过于频繁，请一分钟后再试"
		}
	}

	if over {
		b.strikes++
		if b.strikes > maxStrikes {
			return verdictDrop, text
		}
		return verdictReject, text
	}
	if total > l.cfg.MaxPerSecond/2 {
		return verdictWarn, "请求过于频繁，请放慢速度"
	}
	return verdictAllow, ""
}

// remove 连接断开时清除记录
func (l *messageLimiter) remove(clientID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.clients, clientID)
}
