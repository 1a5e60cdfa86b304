package table

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/palemoky/ninety-nine/internal/game/bot"
	"github.com/palemoky/ninety-nine/internal/game/engine"
	"github.com/palemoky/ninety-nine/internal/protocol"
	"github.com/palemoky/ninety-nine/internal/protocol/codec"
	"github.com/palemoky/ninety-nine/internal/protocol/convert"
	"github.com/palemoky/ninety-nine/internal/server/storage"
)

// onEvent 引擎事件在变更完成后同步到达，此时已持有 t.mu
func (t *Table) onEvent(e engine.Event) {
	t.pending = append(t.pending, e)
}

// settleLocked 推送积压的事件，然后让轮到的 AI 行动。
// AIDelay > 0 时 AI 由定时器逐步驱动，否则在当前调用中连续执行
func (t *Table) settleLocked() {
	for {
		t.flushLocked()
		if t.closed || t.game == nil {
			return
		}
		agent := t.pendingAgentLocked()
		if agent == nil {
			t.scheduleReminderLocked()
			return
		}
		if t.manager.cfg.AIDelay > 0 {
			t.scheduleAILocked()
			return
		}
		if !t.runAgentLocked(agent) {
			return
		}
	}
}

// flushLocked 把积压的事件转换成广播
func (t *Table) flushLocked() {
	events := t.pending
	t.pending = nil
	if len(events) == 0 || t.game == nil {
		return
	}

	t.broadcastStateLocked()
	for _, e := range events {
		switch e.Type {
		case engine.EventSetupFailed:
			t.broadcastLocked(codec.NewErrorMessage(protocol.ErrCodeSetupFailed))
		case engine.EventRoundScored:
			t.onRoundScoredLocked()
		case engine.EventGameFinished:
			t.onGameFinishedLocked()
		}
	}
	t.saveLocked()
}

// onRoundScoredLocked 广播本局结算并归档
func (t *Table) onRoundScoredLocked() {
	results := t.game.Results()
	if len(results) == 0 {
		return
	}
	r := results[len(results)-1]
	payload := convert.BuildRoundResult(t.game, r)
	t.broadcastLocked(codec.MustNewMessage(protocol.MsgRoundResult, payload))
	log.Printf("📊 牌桌 %s 第 %d 局结算完成", t.Code, r.Round)

	archive := t.manager.deps.Archive
	if archive == nil {
		return
	}
	now := time.Now()
	records := make([]storage.RoundRecord, 0, len(payload.Results))
	for _, pr := range payload.Results {
		records = append(records, storage.RoundRecord{
			TableCode:  t.Code,
			Round:      payload.Round,
			Trump:      payload.Trump,
			PlayerID:   pr.PlayerID,
			PlayerName: pr.PlayerName,
			Bid:        pr.Bid,
			TricksWon:  pr.TricksWon,
			Exact:      pr.Exact,
			Combo:      pr.Combo,
			Delta:      pr.Delta,
			Score:      pr.Score,
			CreatedAt:  now,
		})
	}
	code := t.Code
	t.manager.async(func(ctx context.Context) {
		if err := archive.RecordRound(ctx, records); err != nil {
			log.Printf("⚠️  归档牌桌 %s 第 %d 局失败: %v", code, payload.Round, err)
		}
	})
}

// onGameFinishedLocked 广播最终排名，更新真人玩家的统计并归档整场对局
func (t *Table) onGameFinishedLocked() {
	payload := convert.BuildGameOver(t.game)
	t.broadcastLocked(codec.MustNewMessage(protocol.MsgGameOver, payload))
	t.stopTimersLocked()
	log.Printf("🏁 牌桌 %s 对局结束，胜者 %v", t.Code, payload.WinnerIDs)

	winners := make(map[string]bool, len(payload.WinnerIDs))
	for _, id := range payload.WinnerIDs {
		winners[id] = true
	}
	exact := make(map[string]int)
	for _, r := range t.game.Results() {
		for id, d := range r.Deltas {
			if d.Exact {
				exact[id]++
			}
		}
	}

	if stats := t.manager.deps.Stats; stats != nil {
		var records []storage.GameRecord
		for _, entry := range payload.Standings {
			seat := t.seats[entry.PlayerID]
			if seat == nil || seat.IsAI() {
				continue
			}
			records = append(records, storage.GameRecord{
				PlayerID:   entry.PlayerID,
				PlayerName: entry.PlayerName,
				Winner:     winners[entry.PlayerID],
				Rounds:     payload.Rounds,
				ExactBids:  exact[entry.PlayerID],
				FinalScore: entry.Score,
			})
		}
		t.manager.async(func(ctx context.Context) {
			for _, rec := range records {
				if err := stats.RecordGameResult(ctx, rec); err != nil {
					log.Printf("⚠️  记录玩家 %s 战绩失败: %v", rec.PlayerID, err)
				}
			}
		})
	}

	if archive := t.manager.deps.Archive; archive != nil {
		snapshot, err := json.Marshal(t.game.Snapshot())
		if err != nil {
			log.Printf("⚠️  序列化牌桌 %s 快照失败: %v", t.Code, err)
			return
		}
		finished := storage.FinishedGame{
			TableCode:  t.Code,
			Rounds:     payload.Rounds,
			WinnerIDs:  payload.WinnerIDs,
			Snapshot:   snapshot,
			FinishedAt: time.Now(),
		}
		t.manager.async(func(ctx context.Context) {
			if err := archive.RecordGame(ctx, finished); err != nil {
				log.Printf("⚠️  归档牌桌 %s 对局失败: %v", finished.TableCode, err)
			}
		})
	}
}

// --- AI 调度 ---

// pendingAgentLocked 返回第一个需要行动的 AI
func (t *Table) pendingAgentLocked() *bot.Agent {
	for _, id := range t.order {
		if s := t.seats[id]; s != nil && s.Agent != nil && s.Agent.Pending(t.game) {
			return s.Agent
		}
	}
	return nil
}

// runAgentLocked 执行一步 AI 操作，没有进展时返回 false
func (t *Table) runAgentLocked(agent *bot.Agent) bool {
	action, err := agent.TakeTurn(t.game)
	if err != nil {
		log.Printf("🤖 牌桌 %s 的 AI %s 行动失败: %v", t.Code, agent.PlayerID, err)
		return false
	}
	t.touched = time.Now()
	return action != bot.ActionNone
}

// scheduleAILocked 延迟执行下一步 AI 操作，已有定时器时不重复安排
func (t *Table) scheduleAILocked() {
	if t.aiTimer != nil {
		return
	}
	t.aiTimer = time.AfterFunc(t.manager.cfg.AIDelay, t.runAI)
}

func (t *Table) runAI() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.aiTimer = nil
	if t.closed || t.game == nil {
		return
	}
	agent := t.pendingAgentLocked()
	if agent == nil {
		return
	}
	if t.runAgentLocked(agent) {
		t.settleLocked()
	}
}

// --- 操作提醒 ---

// awaitingLocked 返回正在等待操作的真人座位及操作类型
func (t *Table) awaitingLocked() (*Seat, string) {
	human := func(id string) *Seat {
		if s := t.seats[id]; s != nil && !s.IsAI() && s.Client != nil {
			return s
		}
		return nil
	}

	switch t.game.Phase() {
	case engine.PhaseBidding:
		if !t.game.BidPhaseComplete() {
			return human(t.game.CurrentBidderID()), "bid"
		}
		for _, id := range t.order {
			if b, ok := t.game.Bid(id); ok && !b.Revealed {
				if s := human(id); s != nil {
					return s, "reveal"
				}
			}
		}
	case engine.PhasePlaying:
		return human(t.game.CurrentPlayerID()), "play"
	}
	return nil, ""
}

// scheduleReminderLocked 同一个等待状态只安排一次提醒，提醒不会跳过玩家
func (t *Table) scheduleReminderLocked() {
	delay := t.manager.cfg.TurnReminder
	if delay <= 0 {
		return
	}
	seat, action := t.awaitingLocked()
	key := ""
	if seat != nil {
		key = fmt.Sprintf("%d/%s/%d/%s/%s", t.game.Round(), t.game.Phase(), t.game.TricksPlayed(), seat.ID, action)
	}
	if key == t.remindKey {
		return
	}
	if t.remindTimer != nil {
		t.remindTimer.Stop()
		t.remindTimer = nil
	}
	t.remindKey = key
	if seat == nil {
		return
	}
	t.remindTimer = time.AfterFunc(delay, func() { t.remind(key, seat.ID, action, delay) })
}

func (t *Table) remind(key, seatID, action string, waited time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.remindKey != key {
		return
	}
	t.remindTimer = nil
	seat := t.seats[seatID]
	if seat == nil || seat.Client == nil {
		return
	}
	seat.Client.SendMessage(codec.MustNewMessage(protocol.MsgTurnReminder, protocol.TurnReminderPayload{
		Phase:   t.phaseLocked(),
		Action:  action,
		Waiting: int(waited.Seconds()),
	}))
}

// stopTimersLocked 停止 AI 和提醒定时器
func (t *Table) stopTimersLocked() {
	if t.aiTimer != nil {
		t.aiTimer.Stop()
		t.aiTimer = nil
	}
	if t.remindTimer != nil {
		t.remindTimer.Stop()
		t.remindTimer = nil
	}
	t.remindKey = ""
}

// closeLocked 标记牌桌关闭，之后到期的定时器不再执行
func (t *Table) closeLocked() {
	t.closed = true
	t.stopTimersLocked()
}

// --- 广播 ---

// broadcastLocked 发送给所有在座的真人
func (t *Table) broadcastLocked(msg *protocol.Message) {
	for _, id := range t.order {
		if s := t.seats[id]; s != nil && s.Client != nil {
			s.Client.SendMessage(msg)
		}
	}
}

// broadcastExceptLocked 发送给除 clientID 外的真人
func (t *Table) broadcastExceptLocked(clientID string, msg *protocol.Message) {
	for _, id := range t.order {
		if s := t.seats[id]; s != nil && s.Client != nil && s.Client.GetID() != clientID {
			s.Client.SendMessage(msg)
		}
	}
}

// broadcastStateLocked 给每位真人发送各自视角的对局状态
func (t *Table) broadcastStateLocked() {
	for _, id := range t.order {
		if s := t.seats[id]; s != nil && s.Client != nil {
			s.Client.SendMessage(codec.MustNewMessage(protocol.MsgGameState, t.stateForLocked(s.ID)))
		}
	}
}

// stateForLocked 生成座位 seatID 看到的状态，未开始时只有座位信息
func (t *Table) stateForLocked(seatID string) *protocol.GameStateDTO {
	if t.game == nil {
		return &protocol.GameStateDTO{
			TableCode:      t.Code,
			Variant:        string(t.Variant),
			Phase:          phaseWaiting,
			MaxRounds:      t.settings.MaxRounds,
			TricksPerRound: t.settings.TricksPerRound(),
			CardBidMode:    t.settings.BidCards > 0,
			Players:        t.playerInfosLocked(seatID),
		}
	}
	state := convert.BuildGameState(t.game, t.Code, seatID)
	state.Players = t.playerInfosLocked(seatID)
	return state
}

// playerInfosLocked 按座位顺序生成玩家信息，在线和 AI 状态以牌桌为准
func (t *Table) playerInfosLocked(viewerID string) []protocol.PlayerInfo {
	if t.game == nil || !t.gameMatchesSeatsLocked() {
		infos := make([]protocol.PlayerInfo, 0, len(t.order))
		for i, id := range t.order {
			infos = append(infos, t.seatInfo(t.seats[id], i))
		}
		return infos
	}
	infos := convert.PlayerInfos(t.game, viewerID)
	for i := range infos {
		if s := t.seats[infos[i].ID]; s != nil {
			infos[i].Online = s.Client != nil
			infos[i].AI = s.IsAI()
			infos[i].Level = string(s.Level)
		}
	}
	return infos
}

// gameMatchesSeatsLocked 结束后有人离开时座位与上一局的玩家不再一致
func (t *Table) gameMatchesSeatsLocked() bool {
	order := t.game.PlayerOrder()
	if len(order) != len(t.order) {
		return false
	}
	for i, id := range order {
		if t.order[i] != id {
			return false
		}
	}
	return true
}

// playerInfoLocked 返回单个座位的信息
func (t *Table) playerInfoLocked(seatID string) protocol.PlayerInfo {
	for _, info := range t.playerInfosLocked(seatID) {
		if info.ID == seatID {
			return info
		}
	}
	return protocol.PlayerInfo{ID: seatID}
}

func (t *Table) seatInfo(s *Seat, idx int) protocol.PlayerInfo {
	return protocol.PlayerInfo{
		ID:     s.ID,
		Name:   s.Name,
		Seat:   idx,
		Active: true,
		AI:     s.IsAI(),
		Level:  string(s.Level),
		Online: s.Client != nil,
	}
}
