package engine

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/palemoky/ninety-nine/internal/apperrors"
	"github.com/palemoky/ninety-nine/internal/game/card"
	"github.com/palemoky/ninety-nine/internal/game/score"
)

// Game 对局的唯一可变根状态。
// 所有实体按 ID 存放，引用关系（当前墩、当前玩家）只保存 ID 或下标。
// 每个变更操作先完整校验再修改，失败时状态不变。
type Game struct {
	settings Settings
	phase    Phase
	round    int

	order   []string // 玩家座位顺序
	players map[string]*Player
	cards   map[string]card.Card
	tricks  map[string]*Trick
	bids    map[string]*Bid

	stock    []string
	turnupID string
	trump    *card.Suit

	startSeat        int // 本局第一个叫分、首引的座位
	currentPlayer    int // -1 表示无
	currentBidder    int // -1 表示无
	bidPhaseComplete bool
	currentTrickID   string
	history          []string // 已完成的墩
	tricksPlayed     int
	results          []RoundResult

	rng       *rand.Rand
	clock     func() time.Time
	listeners []Listener
	pending   []Event
	updatedAt int64
}

// Option 对局选项
type Option func(*Game)

// WithRand 注入随机源，便于测试复现
func WithRand(rng *rand.Rand) Option {
	return func(g *Game) { g.rng = rng }
}

// WithClock 注入时钟，用于实体时间戳
func WithClock(clock func() time.Time) Option {
	return func(g *Game) { g.clock = clock }
}

// NewSeededRand 用固定种子创建随机源
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// New 创建处于 setup 阶段的对局
func New(settings Settings, opts ...Option) (*Game, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	g := &Game{
		settings:      settings,
		phase:         PhaseSetup,
		players:       make(map[string]*Player),
		cards:         make(map[string]card.Card),
		tricks:        make(map[string]*Trick),
		bids:          make(map[string]*Bid),
		currentPlayer: -1,
		currentBidder: -1,
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.touch()
	return g, nil
}

func (g *Game) now() int64 {
	return g.clock().UnixMilli()
}

func (g *Game) touch() int64 {
	g.updatedAt = g.now()
	return g.updatedAt
}

// AddPlayer 在 setup 阶段加入玩家，座位按加入顺序
func (g *Game) AddPlayer(spec PlayerSpec) error {
	defer g.flush()
	if g.phase != PhaseSetup {
		return apperrors.Newf(apperrors.KindGameState, "%s 阶段不能加入玩家", g.phase)
	}
	if spec.ID == "" {
		return apperrors.New(apperrors.KindValidation, "玩家 ID 不能为空")
	}
	if _, exists := g.players[spec.ID]; exists {
		return apperrors.Newf(apperrors.KindValidation, "玩家 %s 已在对局中", spec.ID)
	}
	if len(g.order) >= g.settings.MaxPlayers {
		return apperrors.Newf(apperrors.KindValidation, "人数已达上限 %d", g.settings.MaxPlayers)
	}

	name := spec.Name
	if name == "" {
		name = spec.ID
	}
	g.players[spec.ID] = &Player{
		ID:        spec.ID,
		Name:      name,
		Active:    true,
		AI:        spec.AI,
		Level:     spec.Level,
		UpdatedAt: g.touch(),
	}
	g.order = append(g.order, spec.ID)
	g.emit(Event{Type: EventPlayerJoined, PlayerID: spec.ID})
	return nil
}

// SetPlayerActive 设置玩家是否参与下一局，只能在 setup 或两局之间调用
func (g *Game) SetPlayerActive(playerID string, active bool) error {
	if g.phase != PhaseSetup && g.phase != PhaseScoring {
		return apperrors.Newf(apperrors.KindGameState, "%s 阶段不能调整玩家", g.phase)
	}
	p, ok := g.players[playerID]
	if !ok {
		return apperrors.Newf(apperrors.KindValidation, "玩家 %s 不存在", playerID)
	}
	p.Active = active
	p.UpdatedAt = g.touch()
	return nil
}

// activeOrder 按座位顺序返回参与本局的玩家
func (g *Game) activeOrder() []string {
	ids := make([]string, 0, len(g.order))
	for _, id := range g.order {
		if g.players[id].Active {
			ids = append(ids, id)
		}
	}
	return ids
}

// nextActiveSeat 从 from（含）开始顺时针找下一个参与本局的座位
func (g *Game) nextActiveSeat(from int) int {
	n := len(g.order)
	for i := range n {
		seat := (from + i) % n
		if g.players[g.order[seat]].Active {
			return seat
		}
	}
	return -1
}

func (g *Game) seatOf(playerID string) int {
	return slices.Index(g.order, playerID)
}

func (g *Game) handCards(p *Player) []card.Card {
	hand := make([]card.Card, 0, len(p.Hand))
	for _, id := range p.Hand {
		hand = append(hand, g.cards[id])
	}
	return hand
}

// --- 只读查询 ---

// Phase 当前阶段
func (g *Game) Phase() Phase { return g.phase }

// Round 当前局数，从 1 开始
func (g *Game) Round() int { return g.round }

// Settings 对局设置
func (g *Game) Settings() Settings { return g.settings }

// TricksPerRound 每局墩数
func (g *Game) TricksPerRound() int { return g.settings.TricksPerRound() }

// TricksPlayed 本局已完成的墩数
func (g *Game) TricksPlayed() int { return g.tricksPlayed }

// PlayerOrder 玩家座位顺序
func (g *Game) PlayerOrder() []string {
	return append([]string(nil), g.order...)
}

// ActivePlayers 参与本局的玩家
func (g *Game) ActivePlayers() []string {
	return g.activeOrder()
}

// Player 返回玩家副本
func (g *Game) Player(id string) (Player, bool) {
	p, ok := g.players[id]
	if !ok {
		return Player{}, false
	}
	return *p.clone(), true
}

// Hand 返回玩家手牌
func (g *Game) Hand(playerID string) []card.Card {
	p, ok := g.players[playerID]
	if !ok {
		return nil
	}
	return g.handCards(p)
}

// Card 根据 ID 查找本局的牌
func (g *Game) Card(id string) (card.Card, bool) {
	c, ok := g.cards[id]
	return c, ok
}

// CurrentPlayerID 当前应出牌的玩家
func (g *Game) CurrentPlayerID() string {
	if g.currentPlayer < 0 {
		return ""
	}
	return g.order[g.currentPlayer]
}

// CurrentBidderID 当前应叫分的玩家
func (g *Game) CurrentBidderID() string {
	if g.currentBidder < 0 {
		return ""
	}
	return g.order[g.currentBidder]
}

// BidPhaseComplete 所有人是否都已叫分
func (g *Game) BidPhaseComplete() bool { return g.bidPhaseComplete }

// Bid 返回玩家本局的叫分
func (g *Game) Bid(playerID string) (Bid, bool) {
	b, ok := g.bids[playerID]
	if !ok {
		return Bid{}, false
	}
	return *b.clone(), true
}

// RevealOrder 亮分的推荐顺序，仅为界面方便，与规则无关
func (g *Game) RevealOrder() []string {
	return g.activeOrder()
}

// CurrentTrick 返回当前墩
func (g *Game) CurrentTrick() (Trick, bool) {
	t, ok := g.tricks[g.currentTrickID]
	if !ok {
		return Trick{}, false
	}
	return *t.clone(), true
}

// History 返回本局已完成的墩
func (g *Game) History() []Trick {
	result := make([]Trick, 0, len(g.history))
	for _, id := range g.history {
		result = append(result, *g.tricks[id].clone())
	}
	return result
}

// Turnup 返回定主牌
func (g *Game) Turnup() (card.Card, bool) {
	if g.turnupID == "" {
		return card.Card{}, false
	}
	return g.cards[g.turnupID], true
}

// Trump 返回本局主花色，无主时返回 false
func (g *Game) Trump() (card.Suit, bool) {
	if g.trump == nil {
		return 0, false
	}
	return *g.trump, true
}

// StockSize 剩余牌堆张数
func (g *Game) StockSize() int { return len(g.stock) }

// Results 历局得分
func (g *Game) Results() []RoundResult {
	return append([]RoundResult(nil), g.results...)
}

// Scores 所有玩家的累计分
func (g *Game) Scores() map[string]int {
	scores := make(map[string]int, len(g.players))
	for id, p := range g.players {
		scores[id] = p.Score
	}
	return scores
}

// IsGameOver 是否有玩家累计分达到结束阈值
func (g *Game) IsGameOver() bool {
	scores := make([]int, 0, len(g.players))
	for _, p := range g.players {
		scores = append(scores, p.Score)
	}
	return score.IsGameOver(scores, g.settings.Scoring)
}

// Leaders 返回累计分最高的玩家（可能并列）
func (g *Game) Leaders() []string {
	var leaders []string
	best := 0
	for _, id := range g.order {
		s := g.players[id].Score
		switch {
		case len(leaders) == 0 || s > best:
			leaders = []string{id}
			best = s
		case s == best:
			leaders = append(leaders, id)
		}
	}
	return leaders
}
