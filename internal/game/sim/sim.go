// Package sim 在没有服务器的情况下让 AI 打完整场对局，用来比较不同难度的表现
package sim

import (
	"fmt"
	"math/rand/v2"

	"github.com/palemoky/ninety-nine/internal/apperrors"
	"github.com/palemoky/ninety-nine/internal/game/bot"
	"github.com/palemoky/ninety-nine/internal/game/card"
	"github.com/palemoky/ninety-nine/internal/game/engine"
)

// maxSteps 单场对局的操作上限，超过说明流程卡住了
const maxSteps = 100000

// Config 模拟参数
type Config struct {
	Variant   card.Variant
	Levels    []bot.Level // 每个座位的 AI 难度
	Games     int
	Seed      uint64
	MaxRounds int // 0 表示使用玩法默认值
}

// SeatReport 单个座位的累计表现
type SeatReport struct {
	Seat       int
	Level      bot.Level
	Wins       int // 终局分数最高（含并列）
	Rounds     int
	ExactBids  int
	TotalScore int
}

// ExactRate 叫中率（百分比）
func (r SeatReport) ExactRate() float64 {
	if r.Rounds == 0 {
		return 0
	}
	return float64(r.ExactBids) / float64(r.Rounds) * 100
}

// AvgScore 场均终局分
func (r SeatReport) AvgScore(games int) float64 {
	if games == 0 {
		return 0
	}
	return float64(r.TotalScore) / float64(games)
}

// Report 模拟结果
type Report struct {
	Games  int
	Rounds int
	Seats  []SeatReport
}

// Run 依次模拟 cfg.Games 场对局，同样的配置和种子得到同样的结果
func Run(cfg Config) (*Report, error) {
	settings := engine.NinetyNineSettings()
	if cfg.Variant == card.VariantStandard {
		settings = engine.StandardSettings()
	}
	if cfg.MaxRounds > 0 {
		settings.MaxRounds = cfg.MaxRounds
	}
	if n := len(cfg.Levels); n < settings.MinPlayers || n > settings.MaxPlayers {
		return nil, apperrors.Newf(apperrors.KindValidation, "%s 需要 %d-%d 个座位，当前 %d 个",
			settings.Variant, settings.MinPlayers, settings.MaxPlayers, n)
	}

	report := &Report{Seats: make([]SeatReport, len(cfg.Levels))}
	for i, level := range cfg.Levels {
		report.Seats[i] = SeatReport{Seat: i, Level: level}
	}

	rng := engine.NewSeededRand(cfg.Seed)
	for n := range cfg.Games {
		g, err := playGame(settings, cfg.Levels, rng)
		if err != nil {
			return nil, fmt.Errorf("game %d: %w", n+1, err)
		}
		report.tally(g)
	}
	return report, nil
}

// playGame 让所有座位的 AI 打完一场
func playGame(settings engine.Settings, levels []bot.Level, rng *rand.Rand) (*engine.Game, error) {
	gameRng := engine.NewSeededRand(rng.Uint64())
	g, err := engine.New(settings, engine.WithRand(gameRng))
	if err != nil {
		return nil, err
	}

	agents := make([]*bot.Agent, 0, len(levels))
	for i, level := range levels {
		id := seatID(i)
		if err := g.AddPlayer(engine.PlayerSpec{ID: id, Name: id, AI: true, Level: string(level)}); err != nil {
			return nil, err
		}
		agent, err := bot.NewAgent(id, level, gameRng)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	if err := g.Start(); err != nil {
		return nil, err
	}

	for range maxSteps {
		switch g.Phase() {
		case engine.PhaseFinished:
			return g, nil
		case engine.PhaseScoring:
			if err := g.NextRound(); err != nil {
				return nil, err
			}
			continue
		}

		progressed := false
		for _, a := range agents {
			action, err := a.TakeTurn(g)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", a.PlayerID, err)
			}
			if action != bot.ActionNone {
				progressed = true
			}
		}
		if !progressed {
			return nil, fmt.Errorf("对局卡在 %s 阶段", g.Phase())
		}
	}
	return nil, fmt.Errorf("超过 %d 步仍未结束", maxSteps)
}

// tally 累计一场对局的结果
func (r *Report) tally(g *engine.Game) {
	r.Games++
	results := g.Results()
	r.Rounds += len(results)

	scores := g.Scores()
	seats := make(map[string]int, len(r.Seats))
	for i := range r.Seats {
		id := seatID(i)
		seats[id] = i
		seat := &r.Seats[i]
		seat.TotalScore += scores[id]
		for _, res := range results {
			if d, ok := res.Deltas[id]; ok {
				seat.Rounds++
				if d.Exact {
					seat.ExactBids++
				}
			}
		}
	}
	for _, id := range g.Leaders() {
		if i, ok := seats[id]; ok {
			r.Seats[i].Wins++
		}
	}
}

func seatID(i int) string {
	return fmt.Sprintf("seat-%d", i)
}
