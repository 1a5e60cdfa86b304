package score

import (
	"github.com/palemoky/ninety-nine/internal/game/rule"
)

// Table 计分规则
type Table struct {
	PerTrick     int `yaml:"per_trick" json:"per_trick"`           // 叫中时每墩得分
	ExactBonus   int `yaml:"exact_bonus" json:"exact_bonus"`       // 叫中奖励
	MissPenalty  int `yaml:"miss_penalty" json:"miss_penalty"`     // 每差一墩的扣分
	ZeroBidBonus int `yaml:"zero_bid_bonus" json:"zero_bid_bonus"` // 叫 0 且一墩未得的奖励
	ComboBonus   int `yaml:"combo_bonus" json:"combo_bonus"`       // 叫分牌特殊组合奖励
	GameOverAt   int `yaml:"game_over_at" json:"game_over_at"`     // 累计达到该分数即结束
}

// DefaultTable 返回默认计分规则
func DefaultTable() Table {
	return Table{
		PerTrick:     10,
		ExactBonus:   30,
		MissPenalty:  10,
		ZeroBidBonus: 50,
		ComboBonus:   20,
		GameOverAt:   100,
	}
}

// Delta 一名玩家一局的得分明细
type Delta struct {
	Bid       int        `json:"bid"`
	TricksWon int        `json:"tricks_won"`
	Exact     bool       `json:"exact"`
	Base      int        `json:"base"`
	Combo     rule.Combo `json:"combo"`
	Bonus     int        `json:"bonus"`
	Total     int        `json:"total"`
}

// RoundDelta 根据叫分和实际墩数计算得分变化
func RoundDelta(bid, tricksWon int, combo rule.Combo, t Table) Delta {
	d := Delta{Bid: bid, TricksWon: tricksWon, Combo: combo}

	switch {
	case bid == tricksWon && bid == 0:
		d.Exact = true
		d.Base = t.ZeroBidBonus
	case bid == tricksWon:
		d.Exact = true
		d.Base = t.ExactBonus + t.PerTrick*tricksWon
	default:
		d.Base = -t.MissPenalty * abs(tricksWon-bid)
	}

	if combo != rule.ComboNone {
		d.Bonus = t.ComboBonus
	}
	d.Total = d.Base + d.Bonus
	return d
}

// IsGameOver 任意玩家累计分数达到阈值即结束
func IsGameOver(scores []int, t Table) bool {
	for _, s := range scores {
		if s >= t.GameOverAt {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
