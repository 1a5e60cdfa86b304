package table

import (
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/palemoky/ninety-nine/internal/apperrors"
	"github.com/palemoky/ninety-nine/internal/game/bot"
	"github.com/palemoky/ninety-nine/internal/game/card"
	"github.com/palemoky/ninety-nine/internal/game/engine"
	"github.com/palemoky/ninety-nine/internal/protocol"
	"github.com/palemoky/ninety-nine/internal/protocol/codec"
	"github.com/palemoky/ninety-nine/internal/types"
)

var errAlreadySeated = apperrors.New(apperrors.KindValidation, "您已在牌桌上")

// botNames AI 座位名称前缀
var botNames = map[bot.Level]string{
	bot.LevelEasy:   "新手AI",
	bot.LevelMedium: "老手AI",
	bot.LevelHard:   "高手AI",
}

// newTable 创建空牌桌，调用方负责登记到管理器
func (m *Manager) newTable(code string, v card.Variant) *Table {
	now := time.Now()
	return &Table{
		Code:      code,
		Variant:   v,
		CreatedAt: now,
		manager:   m,
		settings:  m.settingsFor(v),
		rng:       m.cfg.NewRand(),
		seats:     make(map[string]*Seat),
		touched:   now,
	}
}

// CreateTable 创建牌桌，创建者坐第一个座位，随后坐入 bots 个 AI
func (m *Manager) CreateTable(client types.ClientInterface, variant string, bots int, level string) (*Table, error) {
	if client.GetTable() != "" {
		return nil, errAlreadySeated
	}
	v := m.cfg.Variant
	if variant != "" {
		parsed, err := card.ParseVariant(variant)
		if err != nil {
			return nil, apperrors.New(apperrors.KindValidation, err.Error())
		}
		v = parsed
	}
	lvl := m.cfg.BotLevel
	if level != "" {
		parsed, err := bot.ParseLevel(level)
		if err != nil {
			return nil, apperrors.New(apperrors.KindValidation, err.Error())
		}
		lvl = parsed
	}

	m.mu.Lock()
	t := m.newTable(m.generateTableCode(), v)
	m.tables[t.Code] = t
	m.mu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.order = append(t.order, client.GetID())
	t.seats[client.GetID()] = &Seat{ID: client.GetID(), Name: client.GetName(), Client: client}
	client.SetTable(t.Code)

	for range min(bots, t.settings.MaxPlayers-1) {
		if _, err := t.addBotLocked(lvl); err != nil {
			return nil, err
		}
	}

	log.Printf("🃏 牌桌 %s 已创建（%s），玩家 %s", t.Code, v, client.GetName())
	t.saveLocked()
	return t, nil
}

// JoinTable 加入牌桌。对局进行中时只能接手真人离开后空出的座位
func (m *Manager) JoinTable(client types.ClientInterface, code string) (*Table, error) {
	if client.GetTable() != "" {
		return nil, errAlreadySeated
	}
	t := m.GetTable(code)
	if t == nil {
		return nil, apperrors.ErrTableNotFound
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, apperrors.ErrTableNotFound
	}

	if t.inGame() {
		seat := t.vacatedSeatLocked()
		if seat == nil {
			return nil, apperrors.ErrGameStarted
		}
		seat.Client = client
		seat.Agent = nil
		seat.Vacated = false
		client.SetTable(t.Code)
		t.touched = time.Now()
		log.Printf("👤 玩家 %s 接手牌桌 %s 的座位 %s", client.GetName(), t.Code, seat.Name)
		t.broadcastExceptLocked(client.GetID(), codec.MustNewMessage(protocol.MsgPlayerJoined, protocol.PlayerJoinedPayload{
			Player: t.playerInfoLocked(seat.ID),
		}))
		t.settleLocked()
		return t, nil
	}

	if len(t.order) >= t.settings.MaxPlayers {
		return nil, apperrors.ErrTableFull
	}
	t.order = append(t.order, client.GetID())
	t.seats[client.GetID()] = &Seat{ID: client.GetID(), Name: client.GetName(), Client: client}
	client.SetTable(t.Code)
	t.touched = time.Now()

	log.Printf("👤 玩家 %s 加入牌桌 %s", client.GetName(), t.Code)

	t.broadcastExceptLocked(client.GetID(), codec.MustNewMessage(protocol.MsgPlayerJoined, protocol.PlayerJoinedPayload{
		Player: t.playerInfoLocked(client.GetID()),
	}))
	t.saveLocked()
	return t, nil
}

// LeaveTable 离开牌桌。对局进行中由 AI 接管座位，没有真人时牌桌解散
func (m *Manager) LeaveTable(client types.ClientInterface) {
	code := client.GetTable()
	if code == "" {
		return
	}
	client.SetTable("")

	t := m.GetTable(code)
	if t == nil {
		return
	}

	t.mu.Lock()
	seat := t.seatOfLocked(client.GetID())
	if seat == nil {
		t.mu.Unlock()
		return
	}

	t.broadcastExceptLocked(client.GetID(), codec.MustNewMessage(protocol.MsgPlayerLeft, protocol.PlayerLeftPayload{
		PlayerID:   seat.ID,
		PlayerName: seat.Name,
	}))

	if t.inGame() {
		seat.Client = nil
		seat.Vacated = true
		seat.Level = m.cfg.BotLevel
		agent, err := bot.NewAgent(seat.ID, seat.Level, t.rng)
		if err != nil {
			log.Printf("❌ 牌桌 %s 创建代打 AI 失败: %v", t.Code, err)
		} else {
			seat.Agent = agent
		}
		log.Printf("👋 玩家 %s 离开牌桌 %s，由 AI 代打", client.GetName(), t.Code)
	} else {
		delete(t.seats, seat.ID)
		t.order = slices.DeleteFunc(t.order, func(id string) bool { return id == seat.ID })
		log.Printf("👋 玩家 %s 离开牌桌 %s", client.GetName(), t.Code)
	}

	if t.humans() > 0 {
		t.settleLocked()
		t.saveLocked()
		t.mu.Unlock()
		return
	}

	t.closeLocked()
	t.deleteLocked()
	t.mu.Unlock()
	m.removeTable(code)
	log.Printf("🃏 牌桌 %s 已解散", code)
}

// AddBot 在对局开始前添加一名 AI
func (m *Manager) AddBot(client types.ClientInterface, level string) (*Seat, error) {
	t, err := m.tableOf(client)
	if err != nil {
		return nil, err
	}
	lvl := m.cfg.BotLevel
	if level != "" {
		if lvl, err = bot.ParseLevel(level); err != nil {
			return nil, apperrors.New(apperrors.KindValidation, err.Error())
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.seatOfLocked(client.GetID()) == nil {
		return nil, apperrors.ErrNotAtTable
	}
	if t.inGame() {
		return nil, apperrors.ErrGameStarted
	}
	seat, err := t.addBotLocked(lvl)
	if err != nil {
		return nil, err
	}
	t.broadcastLocked(codec.MustNewMessage(protocol.MsgPlayerJoined, protocol.PlayerJoinedPayload{
		Player: t.playerInfoLocked(seat.ID),
	}))
	t.saveLocked()
	return seat, nil
}

// addBotLocked 坐入一名 AI
func (t *Table) addBotLocked(level bot.Level) (*Seat, error) {
	if len(t.order) >= t.settings.MaxPlayers {
		return nil, apperrors.ErrTableFull
	}
	t.botSeq++
	id := fmt.Sprintf("bot-%s-%d", t.Code, t.botSeq)
	agent, err := bot.NewAgent(id, level, t.rng)
	if err != nil {
		return nil, apperrors.New(apperrors.KindValidation, err.Error())
	}
	seat := &Seat{
		ID:    id,
		Name:  fmt.Sprintf("%s%d", botNames[level], t.botSeq),
		Level: level,
		Agent: agent,
	}
	t.order = append(t.order, id)
	t.seats[id] = seat
	t.touched = time.Now()
	log.Printf("🤖 牌桌 %s 加入 AI %s（%s）", t.Code, seat.Name, level)
	return seat, nil
}

// GetTable 获取牌桌
func (m *Manager) GetTable(code string) *Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tables[code]
}

// tableOf 返回客户端所在的牌桌
func (m *Manager) tableOf(client types.ClientInterface) (*Table, error) {
	code := client.GetTable()
	if code == "" {
		return nil, apperrors.ErrNotAtTable
	}
	t := m.GetTable(code)
	if t == nil {
		return nil, apperrors.ErrTableNotFound
	}
	return t, nil
}

// snapshotTables 复制牌桌列表，避免持有管理器锁时再去锁牌桌
func (m *Manager) snapshotTables() []*Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tables := make([]*Table, 0, len(m.tables))
	for _, t := range m.tables {
		tables = append(tables, t)
	}
	return tables
}

// GetTableList 获取可加入的牌桌列表
func (m *Manager) GetTableList() []protocol.TableListItem {
	var items []protocol.TableListItem
	for _, t := range m.snapshotTables() {
		t.mu.Lock()
		joinable := !t.closed && ((!t.inGame() && len(t.order) < t.settings.MaxPlayers) ||
			(t.inGame() && t.vacatedSeatLocked() != nil))
		if joinable {
			items = append(items, protocol.TableListItem{
				TableCode:   t.Code,
				Variant:     string(t.Variant),
				Phase:       t.phaseLocked(),
				PlayerCount: t.occupiedLocked(),
				MaxPlayers:  t.settings.MaxPlayers,
			})
		}
		t.mu.Unlock()
	}
	slices.SortFunc(items, func(a, b protocol.TableListItem) int {
		return strings.Compare(a.TableCode, b.TableCode)
	})
	return items
}

// GetActiveGamesCount 获取进行中的对局数量
func (m *Manager) GetActiveGamesCount() int {
	count := 0
	for _, t := range m.snapshotTables() {
		t.mu.Lock()
		if t.inGame() {
			count++
		}
		t.mu.Unlock()
	}
	return count
}

// TableCount 当前牌桌数量
func (m *Manager) TableCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables)
}

// removeTable 从管理器中移除牌桌
func (m *Manager) removeTable(code string) {
	m.mu.Lock()
	delete(m.tables, code)
	m.mu.Unlock()
}

// seatOfLocked 返回客户端占用的座位
func (t *Table) seatOfLocked(clientID string) *Seat {
	if s, ok := t.seats[clientID]; ok && s.Client != nil {
		return s
	}
	for _, s := range t.seats {
		if s.Client != nil && s.Client.GetID() == clientID {
			return s
		}
	}
	return nil
}

// occupiedLocked 有人（真人或 AI）坐着的座位数
func (t *Table) occupiedLocked() int {
	n := 0
	for _, s := range t.seats {
		if !s.Vacated {
			n++
		}
	}
	return n
}

// vacatedSeatLocked 返回第一个可接手的座位
func (t *Table) vacatedSeatLocked() *Seat {
	for _, id := range t.order {
		if s := t.seats[id]; s.Vacated {
			return s
		}
	}
	return nil
}

// startLocked 用当前座位创建新对局并发第一局牌
func (t *Table) startLocked() error {
	if t.inGame() {
		return apperrors.ErrGameStarted
	}
	g, err := engine.New(t.settings, engine.WithRand(t.rng))
	if err != nil {
		return err
	}
	for _, id := range t.order {
		s := t.seats[id]
		spec := engine.PlayerSpec{ID: s.ID, Name: s.Name, AI: s.IsAI()}
		if s.IsAI() {
			spec.Level = string(s.Level)
		}
		if err := g.AddPlayer(spec); err != nil {
			return err
		}
	}

	prev, prevPending := t.game, t.pending
	t.game = g
	t.pending = nil
	g.Subscribe(t.onEvent)
	if err := g.Start(); err != nil {
		t.game, t.pending = prev, prevPending
		return err
	}
	log.Printf("🎮 牌桌 %s 开始对局，玩家 %v", t.Code, t.order)
	return nil
}
