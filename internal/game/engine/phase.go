package engine

import (
	"fmt"

	"github.com/palemoky/ninety-nine/internal/apperrors"
	"github.com/palemoky/ninety-nine/internal/game/card"
)

// transitions 合法的阶段转换。除"开始新一局"（scoring -> dealing）
// 和发牌失败回到 setup 外，阶段只能单向前进
var transitions = map[Phase][]Phase{
	PhaseSetup:    {PhaseDealing},
	PhaseDealing:  {PhaseBidding, PhaseSetup},
	PhaseBidding:  {PhasePlaying},
	PhasePlaying:  {PhaseScoring},
	PhaseScoring:  {PhaseDealing, PhaseFinished},
	PhaseFinished: nil,
}

// CanTransition 是否允许从 from 转到 to
func CanTransition(from, to Phase) bool {
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

func (g *Game) setPhase(to Phase) {
	g.phase = to
	g.touch()
}

// Transition 显式的阶段转换请求。
// setup/scoring -> dealing 开始新一局，scoring -> finished 结束对局；
// 其余转换由叫分、出牌自动完成，显式请求会被拒绝
func (g *Game) Transition(to Phase) error {
	defer g.flush()
	if !CanTransition(g.phase, to) {
		return apperrors.Newf(apperrors.KindGameState, "不能从 %s 转到 %s", g.phase, to)
	}
	switch {
	case g.phase == PhaseSetup && to == PhaseDealing:
		return g.Start()
	case g.phase == PhaseScoring && to == PhaseDealing:
		if g.roundLimitReached() || g.IsGameOver() {
			return apperrors.New(apperrors.KindGameState, "对局已结束，不能再开新局")
		}
		return g.NextRound()
	case g.phase == PhaseScoring && to == PhaseFinished:
		g.finish()
		return nil
	default:
		return apperrors.Newf(apperrors.KindGameState, "%s -> %s 由对局自动完成", g.phase, to)
	}
}

// Start 校验人数后开始第一局
func (g *Game) Start() error {
	defer g.flush()
	if g.phase != PhaseSetup {
		return apperrors.Newf(apperrors.KindGameState, "%s 阶段不能开始对局", g.phase)
	}
	active := len(g.activeOrder())
	if active < g.settings.MinPlayers || active > g.settings.MaxPlayers {
		return apperrors.Newf(apperrors.KindValidation, "需要 %d-%d 名玩家，当前 %d 名",
			g.settings.MinPlayers, g.settings.MaxPlayers, active)
	}
	if g.round == 0 {
		g.round = 1
		g.startSeat = 0
	}
	return g.beginRound()
}

// NextRound 结算后开始下一局；达到结束条件时进入 finished
func (g *Game) NextRound() error {
	defer g.flush()
	if g.phase != PhaseScoring {
		return apperrors.Newf(apperrors.KindGameState, "%s 阶段不能开始新一局", g.phase)
	}
	if g.roundLimitReached() || g.IsGameOver() {
		g.finish()
		return nil
	}
	active := len(g.activeOrder())
	if active < g.settings.MinPlayers || active > g.settings.MaxPlayers {
		return apperrors.Newf(apperrors.KindValidation, "需要 %d-%d 名玩家，当前 %d 名",
			g.settings.MinPlayers, g.settings.MaxPlayers, active)
	}
	g.round++
	g.startSeat = (g.startSeat + 1) % len(g.order)
	return g.beginRound()
}

func (g *Game) roundLimitReached() bool {
	return g.settings.MaxRounds > 0 && g.round >= g.settings.MaxRounds
}

func (g *Game) finish() {
	g.setPhase(PhaseFinished)
	g.currentPlayer = -1
	g.currentBidder = -1
	g.emit(Event{Type: EventGameFinished})
}

// resetRound 清空本局实体，保留累计分
func (g *Game) resetRound() {
	now := g.touch()
	for _, p := range g.players {
		p.Hand = nil
		p.TricksWon = 0
		p.UpdatedAt = now
	}
	g.cards = make(map[string]card.Card)
	g.tricks = make(map[string]*Trick)
	g.bids = make(map[string]*Bid)
	g.stock = nil
	g.turnupID = ""
	g.trump = nil
	g.currentPlayer = -1
	g.currentBidder = -1
	g.bidPhaseComplete = false
	g.currentTrickID = ""
	g.history = nil
	g.tricksPlayed = 0
}

// beginRound 洗牌、发牌、定主，然后进入叫分。
// 发牌失败对本局是致命的，强制回到 setup
func (g *Game) beginRound() error {
	g.setPhase(PhaseDealing)
	g.resetRound()

	active := g.activeOrder()
	deck, err := card.NewDeck(g.settings.Variant, g.rng)
	if err != nil {
		g.setPhase(PhaseSetup)
		g.emit(Event{Type: EventSetupFailed})
		return apperrors.Newf(apperrors.KindSetup, "创建牌组失败: %v", err)
	}
	dealt, err := card.Deal(deck, len(active), g.settings.CardsPerPlayer)
	if err != nil {
		g.setPhase(PhaseSetup)
		g.emit(Event{Type: EventSetupFailed})
		return err
	}

	now := g.now()
	for i, id := range active {
		p := g.players[id]
		p.Hand = make([]string, 0, len(dealt.Hands[i]))
		for _, c := range dealt.Hands[i] {
			g.cards[c.ID] = c
			p.Hand = append(p.Hand, c.ID)
		}
		p.UpdatedAt = now
	}
	for _, c := range dealt.Stock {
		g.cards[c.ID] = c
		g.stock = append(g.stock, c.ID)
	}
	if dealt.Turnup != nil {
		g.cards[dealt.Turnup.ID] = *dealt.Turnup
		g.turnupID = dealt.Turnup.ID
		if g.settings.TrumpAllowed && !dealt.Turnup.IsJoker() {
			s := dealt.Turnup.Suit
			g.trump = &s
		}
	}

	g.setPhase(PhaseBidding)
	g.currentBidder = g.nextActiveSeat(g.startSeat)
	g.emit(Event{Type: EventRoundStarted})
	return nil
}

// startPlay 叫分结束后进入出牌阶段，由本局起始座位首引
func (g *Game) startPlay() {
	g.setPhase(PhasePlaying)
	g.currentPlayer = g.nextActiveSeat(g.startSeat)
	g.openTrick()
	g.emit(Event{Type: EventPlayStarted, PlayerID: g.CurrentPlayerID()})
}

func (g *Game) openTrick() {
	id := fmt.Sprintf("r%d-t%d", g.round, g.tricksPlayed+1)
	t := &Trick{
		ID:        id,
		Plays:     make(map[string]string),
		Trump:     trumpOf(g.trump),
		UpdatedAt: g.touch(),
	}
	g.tricks[id] = t
	g.currentTrickID = id
}
