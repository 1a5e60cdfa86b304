package table

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/palemoky/ninety-nine/internal/game/bot"
	"github.com/palemoky/ninety-nine/internal/game/card"
	"github.com/palemoky/ninety-nine/internal/game/engine"
	"github.com/palemoky/ninety-nine/internal/server/storage"
)

const (
	// storageTimeout 单次后台存储操作的超时
	storageTimeout = 5 * time.Second
	// finishedTableTTL 对局结束后牌桌数据只保留到玩家看完结算
	finishedTableTTL = 10 * time.Minute
)

// async 在后台执行存储操作，Flush 会等待它们完成
func (m *Manager) async(fn func(ctx context.Context)) {
	m.bg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()
		fn(ctx)
	})
}

// toTableDataLocked 转换为 Redis 存储格式
func (t *Table) toTableDataLocked() (*storage.TableData, error) {
	data := &storage.TableData{
		Code:      t.Code,
		Variant:   string(t.Variant),
		CreatedAt: t.CreatedAt.Unix(),
		Seats:     make([]storage.SeatData, 0, len(t.order)),
	}
	for _, id := range t.order {
		s := t.seats[id]
		data.Seats = append(data.Seats, storage.SeatData{
			ID:    s.ID,
			Name:  s.Name,
			AI:    s.IsAI() && !s.Vacated,
			Level: string(s.Level),
		})
	}
	if t.game != nil {
		raw, err := json.Marshal(t.game.Snapshot())
		if err != nil {
			return nil, fmt.Errorf("marshal snapshot: %w", err)
		}
		data.Game = raw
	}
	return data, nil
}

// saveLocked 异步保存牌桌，快照在锁内生成。已结束的对局改用较短的过期时间
func (t *Table) saveLocked() {
	store := t.manager.deps.Store
	if store == nil || t.closed {
		return
	}
	data, err := t.toTableDataLocked()
	if err != nil {
		log.Printf("⚠️  保存牌桌 %s 失败: %v", t.Code, err)
		return
	}
	finished := t.game != nil && t.game.Phase() == engine.PhaseFinished
	t.persistLocked(func(ctx context.Context) error {
		if err := store.SaveTable(ctx, data); err != nil {
			return err
		}
		if finished {
			return store.SetTableExpiration(ctx, data.Code, finishedTableTTL)
		}
		return nil
	})
}

// deleteLocked 异步删除牌桌数据，排在此前所有保存之后
func (t *Table) deleteLocked() {
	store := t.manager.deps.Store
	if store == nil {
		return
	}
	code := t.Code
	t.persistLocked(func(ctx context.Context) error {
		return store.DeleteTable(ctx, code)
	})
}

// persistLocked 按安排顺序执行存储操作，已被更新操作取代的直接跳过
func (t *Table) persistLocked(op func(ctx context.Context) error) {
	t.saveSeq++
	seq := t.saveSeq
	code := t.Code
	t.manager.async(func(ctx context.Context) {
		t.saveMu.Lock()
		defer t.saveMu.Unlock()
		if seq < t.savedSeq {
			return
		}
		t.savedSeq = seq
		if err := op(ctx); err != nil {
			log.Printf("⚠️  牌桌 %s 存储失败: %v", code, err)
		}
	})
}

// RestoreTables 从 Redis 恢复牌桌。服务器重启后真人连接都已断开，
// 对局中的真人座位改由 AI 代打，等待新玩家接手；未开始的牌桌只保留 AI 座位
func (m *Manager) RestoreTables(ctx context.Context) (int, error) {
	store := m.deps.Store
	if store == nil {
		return 0, nil
	}
	codes, err := store.GetAllTableCodes(ctx)
	if err != nil {
		return 0, fmt.Errorf("list tables: %w", err)
	}

	restored := 0
	for _, code := range codes {
		data, err := store.LoadTable(ctx, code)
		if err != nil {
			log.Printf("⚠️  读取牌桌 %s 失败: %v", code, err)
			continue
		}
		if data == nil {
			continue
		}
		t, err := m.restoreTable(data)
		if err != nil || t == nil {
			if err != nil {
				log.Printf("⚠️  恢复牌桌 %s 失败: %v", code, err)
			}
			if err := store.DeleteTable(ctx, code); err != nil {
				log.Printf("⚠️  删除牌桌 %s 失败: %v", code, err)
			}
			continue
		}

		m.mu.Lock()
		if _, exists := m.tables[t.Code]; exists {
			m.mu.Unlock()
			continue
		}
		m.tables[t.Code] = t
		m.mu.Unlock()
		restored++
	}

	if restored > 0 {
		log.Printf("♻️  已从 Redis 恢复 %d 张牌桌", restored)
	}
	return restored, nil
}

// restoreTable 从存储数据重建牌桌，没有可用座位时返回 nil
func (m *Manager) restoreTable(data *storage.TableData) (*Table, error) {
	v, err := card.ParseVariant(data.Variant)
	if err != nil {
		return nil, err
	}
	t := m.newTable(data.Code, v)
	t.CreatedAt = time.Unix(data.CreatedAt, 0)

	if len(data.Game) > 0 && string(data.Game) != "null" {
		snap, err := engine.DecodeSnapshot(data.Game)
		if err != nil {
			return nil, err
		}
		g, err := engine.Restore(snap, engine.WithRand(t.rng))
		if err != nil {
			return nil, err
		}
		g.Subscribe(t.onEvent)
		t.game = g
		t.settings = g.Settings()
	}

	t.botSeq = len(data.Seats)
	for _, sd := range data.Seats {
		level, err := bot.ParseLevel(sd.Level)
		if err != nil {
			level = m.cfg.BotLevel
		}
		seat := &Seat{ID: sd.ID, Name: sd.Name, Level: level}
		switch {
		case sd.AI:
		case t.inGame():
			seat.Vacated = true
		default:
			continue
		}
		if seat.Agent, err = bot.NewAgent(seat.ID, level, t.rng); err != nil {
			return nil, err
		}
		t.order = append(t.order, seat.ID)
		t.seats[seat.ID] = seat
	}

	if len(t.order) == 0 {
		return nil, nil
	}
	return t, nil
}
