package server

import (
	"math/rand/v2"
)

// 昵称词库
var (
	adjectives = []string{
		"稳健的", "大胆的", "冷静的", "精明的", "谨慎的",
		"幸运的", "果断的", "机敏的", "沉着的", "老练的",
		"狡猾的", "专注的", "悠闲的", "执着的", "敏锐的",
	}

	nouns = []string{
		"牌手", "庄家", "赌神", "算牌手", "王牌",
		"黑桃", "红心", "梅花", "方块", "将军",
		"掌柜", "先生", "侠客", "船长", "学徒",
	}
)

// GenerateNickname 生成随机昵称
func GenerateNickname() string {
	adj := adjectives[rand.IntN(len(adjectives))]
	noun := nouns[rand.IntN(len(nouns))]
	return adj + noun
}
