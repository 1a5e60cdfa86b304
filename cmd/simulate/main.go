package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/palemoky/ninety-nine/internal/game/bot"
	"github.com/palemoky/ninety-nine/internal/game/card"
	"github.com/palemoky/ninety-nine/internal/game/sim"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func main() {
	variant := flag.String("variant", "ninety-nine", "玩法: ninety-nine 或 standard")
	levels := flag.String("levels", "easy,medium,hard", "每个座位的 AI 难度，逗号分隔")
	games := flag.Int("games", 100, "模拟场数")
	seed := flag.Uint64("seed", 1, "随机种子")
	rounds := flag.Int("rounds", 0, "每场局数上限，0 表示玩法默认值")
	flag.Parse()
	log.SetFlags(0)

	cfg, err := buildConfig(*variant, *levels, *games, *seed, *rounds)
	if err != nil {
		log.Fatalf("参数错误: %v", err)
	}

	report, err := sim.Run(cfg)
	if err != nil {
		log.Fatalf("模拟失败: %v", err)
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("🃏 %s · %d 场 · %d 局 · 种子 %d",
		cfg.Variant, report.Games, report.Rounds, cfg.Seed)))
	fmt.Println(render(report))
}

func buildConfig(variant, levels string, games int, seed uint64, rounds int) (sim.Config, error) {
	v, err := card.ParseVariant(variant)
	if err != nil {
		return sim.Config{}, err
	}
	if games <= 0 {
		return sim.Config{}, fmt.Errorf("games 必须为正数")
	}
	cfg := sim.Config{Variant: v, Games: games, Seed: seed, MaxRounds: rounds}
	for _, s := range strings.Split(levels, ",") {
		level, err := bot.ParseLevel(strings.TrimSpace(s))
		if err != nil {
			return sim.Config{}, err
		}
		cfg.Levels = append(cfg.Levels, level)
	}
	return cfg, nil
}

func render(r *sim.Report) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("座位", "难度", "胜场", "胜率", "叫中率", "场均分").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, s := range r.Seats {
		winRate := 0.0
		if r.Games > 0 {
			winRate = float64(s.Wins) / float64(r.Games) * 100
		}
		t.Row(
			strconv.Itoa(s.Seat+1),
			string(s.Level),
			strconv.Itoa(s.Wins),
			fmt.Sprintf("%.1f%%", winRate),
			fmt.Sprintf("%.1f%%", s.ExactRate()),
			fmt.Sprintf("%.1f", s.AvgScore(r.Games)),
		)
	}
	return t.Render()
}
