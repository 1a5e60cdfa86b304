package engine

// EventType 状态变化通知类型
type EventType string

const (
	EventPlayerJoined   EventType = "player_joined"
	EventRoundStarted   EventType = "round_started"
	EventSetupFailed    EventType = "setup_failed"
	EventBidPlaced      EventType = "bid_placed"
	EventBidRevealed    EventType = "bid_revealed"
	EventPlayStarted    EventType = "play_started"
	EventCardPlayed     EventType = "card_played"
	EventTrickCompleted EventType = "trick_completed"
	EventRoundScored    EventType = "round_scored"
	EventGameFinished   EventType = "game_finished"
)

// Event 一次已生效的状态变化
type Event struct {
	Type     EventType
	Phase    Phase
	Round    int
	PlayerID string
	CardID   string
	TrickID  string
}

// Listener 只读订阅者（音效、统计、界面刷新等）
type Listener func(Event)

// Subscribe 注册订阅者，事件在变更完成后同步通知
func (g *Game) Subscribe(l Listener) {
	if l != nil {
		g.listeners = append(g.listeners, l)
	}
}

// emit 记录事件，阶段和局数取产生事件时的值；由 flush 在变更完成后统一通知
func (g *Game) emit(e Event) {
	e.Phase = g.phase
	e.Round = g.round
	g.pending = append(g.pending, e)
}

// flush 通知积压的事件，公开的变更方法在返回前调用。
// 订阅者在回调里再次变更时，新事件排在后面继续通知
func (g *Game) flush() {
	for len(g.pending) > 0 {
		events := g.pending
		g.pending = nil
		for _, e := range events {
			for _, l := range g.listeners {
				l(e)
			}
		}
	}
}
