package table

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/palemoky/ninety-nine/internal/game/bot"
	"github.com/palemoky/ninety-nine/internal/game/card"
	"github.com/palemoky/ninety-nine/internal/game/engine"
	"github.com/palemoky/ninety-nine/internal/game/score"
	"github.com/palemoky/ninety-nine/internal/types"
)

const (
	tableCodeLength = 6            // 牌桌号长度
	tableCodeChars  = "0123456789" // 牌桌号字符集
)

// 牌桌在对局开始前的阶段名称
const phaseWaiting = "waiting"

// Config 牌桌行为配置
type Config struct {
	Variant      card.Variant
	BotLevel     bot.Level
	MaxRounds    int // 0 表示使用玩法默认值
	Scoring      score.Table
	AIDelay      time.Duration // AI 行动前的停顿，<= 0 时立即执行
	TurnReminder time.Duration // 真人长时间未操作时提醒，<= 0 关闭
	Timeout      time.Duration // 等待中的牌桌超时回收
	NewRand      func() *rand.Rand
}

// Deps 牌桌的外部依赖，均可为 nil
type Deps struct {
	Store   types.TableStore
	Stats   types.StatsStore
	Archive types.GameArchive
}

// Seat 牌桌上的座位，ID 即对局中的玩家 ID
type Seat struct {
	ID      string
	Name    string
	Level   bot.Level
	Client  types.ClientInterface // AI 或已离开时为 nil
	Agent   *bot.Agent            // AI 座位，或真人离开后由 AI 代打
	Vacated bool                  // 真人中途离开，新玩家可以接手
}

// IsAI 是否由 AI 控制
func (s *Seat) IsAI() bool {
	return s.Agent != nil
}

// Table 一张牌桌，持有一局对局。所有引擎调用都在 mu 下串行执行
type Table struct {
	Code      string
	Variant   card.Variant
	CreatedAt time.Time

	manager  *Manager
	settings engine.Settings
	rng      *rand.Rand
	order    []string
	seats    map[string]*Seat
	game     *engine.Game // 开始前为 nil
	pending  []engine.Event
	botSeq   int
	touched  time.Time

	aiTimer     *time.Timer
	remindTimer *time.Timer
	remindKey   string
	closed      bool
	saveSeq     int64 // 已安排的存储操作序号

	mu sync.Mutex

	// 后台存储按序号生效，较旧的写入不会覆盖较新的
	saveMu   sync.Mutex
	savedSeq int64
}

// Manager 牌桌管理器
type Manager struct {
	cfg    Config
	deps   Deps
	tables map[string]*Table
	mu     sync.RWMutex

	bg   sync.WaitGroup
	stop chan struct{}
	once sync.Once
}

// NewManager 创建牌桌管理器并启动超时清理
func NewManager(deps Deps, cfg Config) *Manager {
	if cfg.Variant == "" {
		cfg.Variant = card.VariantNinetyNine
	}
	if cfg.BotLevel == "" {
		cfg.BotLevel = bot.LevelMedium
	}
	if cfg.Scoring == (score.Table{}) {
		cfg.Scoring = score.DefaultTable()
	}
	if cfg.NewRand == nil {
		cfg.NewRand = func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
	}
	m := &Manager{
		cfg:    cfg,
		deps:   deps,
		tables: make(map[string]*Table),
		stop:   make(chan struct{}),
	}

	if cfg.Timeout > 0 {
		go m.cleanupLoop()
	}
	return m
}

// settingsFor 返回玩法对应的对局设置，并套用服务器的局数和计分配置
func (m *Manager) settingsFor(v card.Variant) engine.Settings {
	s := engine.NinetyNineSettings()
	if v == card.VariantStandard {
		s = engine.StandardSettings()
	}
	if m.cfg.MaxRounds > 0 {
		s.MaxRounds = m.cfg.MaxRounds
	}
	s.Scoring = m.cfg.Scoring
	return s
}

// Phase 牌桌当前阶段，未开始时为 waiting
func (t *Table) Phase() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phaseLocked()
}

func (t *Table) phaseLocked() string {
	if t.game == nil {
		return phaseWaiting
	}
	return t.game.Phase().String()
}

// inGame 对局是否进行中
func (t *Table) inGame() bool {
	return t.game != nil && t.game.Phase() != engine.PhaseFinished && t.game.Phase() != engine.PhaseSetup
}

// PlayerIDs 按座位顺序返回玩家
func (t *Table) PlayerIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.order...)
}

// Game 返回对局快照，未开始时返回 false
func (t *Table) Game() (engine.Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.game == nil {
		return engine.Snapshot{}, false
	}
	return t.game.Snapshot(), true
}

// humans 当前在座的真人数量
func (t *Table) humans() int {
	n := 0
	for _, s := range t.seats {
		if s.Client != nil {
			n++
		}
	}
	return n
}
