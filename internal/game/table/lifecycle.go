package table

import (
	"log"
	"math/rand/v2"
	"time"

	"github.com/palemoky/ninety-nine/internal/protocol"
	"github.com/palemoky/ninety-nine/internal/protocol/codec"
)

// generateTableCode 生成唯一牌桌号，调用方需持有 m.mu
func (m *Manager) generateTableCode() string {
	for {
		b := make([]byte, tableCodeLength)
		for i := range b {
			b[i] = tableCodeChars[rand.IntN(len(tableCodeChars))]
		}
		code := string(b)
		if _, exists := m.tables[code]; !exists {
			return code
		}
	}
}

// cleanupLoop 定期清理超时牌桌
func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup(time.Now())
		case <-m.stop:
			return
		}
	}
}

// cleanup 清理长时间无操作的牌桌。有真人在座的对局不会被清理，
// 重启后无人接手的对局超时后同样清理
func (m *Manager) cleanup(now time.Time) int {
	removed := 0
	for _, t := range m.snapshotTables() {
		t.mu.Lock()
		idle := !t.inGame() || t.humans() == 0
		expired := !t.closed && idle && now.Sub(t.touched) > m.cfg.Timeout
		if !expired {
			t.mu.Unlock()
			continue
		}
		t.broadcastLocked(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, "牌桌超时已关闭"))
		for _, s := range t.seats {
			if s.Client != nil {
				s.Client.SetTable("")
			}
		}
		t.closeLocked()
		t.deleteLocked()
		t.mu.Unlock()

		m.removeTable(t.Code)
		removed++
		log.Printf("🃏 牌桌 %s 超时已清理", t.Code)
	}
	return removed
}

// Flush 等待后台存储操作完成
func (m *Manager) Flush() {
	m.bg.Wait()
}

// Close 停止清理循环和所有牌桌的定时器，并等待后台存储完成
func (m *Manager) Close() {
	m.once.Do(func() { close(m.stop) })
	for _, t := range m.snapshotTables() {
		t.mu.Lock()
		t.stopTimersLocked()
		t.mu.Unlock()
	}
	m.Flush()
}
