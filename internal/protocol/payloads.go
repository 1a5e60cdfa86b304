package protocol

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// CreateTablePayload 创建牌桌请求
type CreateTablePayload struct {
	Variant  string `json:"variant,omitempty"`   // ninety-nine / standard，为空时用服务器默认
	Bots     int    `json:"bots,omitempty"`      // 创建后立即加入的 AI 数量
	BotLevel string `json:"bot_level,omitempty"` // easy / medium / hard
}

// JoinTablePayload 加入牌桌请求
type JoinTablePayload struct {
	TableCode string `json:"table_code"`
}

// AddBotPayload 添加 AI 请求
type AddBotPayload struct {
	Level string `json:"level,omitempty"`
}

// PlaceBidPayload 叫分请求，Cards 与 Value 只能填一个
type PlaceBidPayload struct {
	Cards []string `json:"cards,omitempty"`
	Value *int     `json:"value,omitempty"`
}

// PlayCardPayload 出牌请求
type PlayCardPayload struct {
	CardID string `json:"card_id"`
}

// GetLeaderboardPayload 获取排行榜请求
type GetLeaderboardPayload struct {
	Type   string `json:"type"`   // total/daily/weekly
	Offset int    `json:"offset"` // 偏移量
	Limit  int    `json:"limit"`  // 数量
}

// GetTableHistoryPayload 获取牌桌历史请求
type GetTableHistoryPayload struct {
	TableCode string `json:"table_code"`
}

// GetRecentGamesPayload 获取最近对局请求
type GetRecentGamesPayload struct {
	Limit int `json:"limit"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"` // 客户端发送的时间戳
	ServerTimestamp int64 `json:"server_timestamp"` // 服务器时间戳（毫秒）
}

// OnlineCountPayload 在线人数更新
type OnlineCountPayload struct {
	Count int `json:"count"`
}

// TableCreatedPayload 牌桌创建成功响应
type TableCreatedPayload struct {
	TableCode string     `json:"table_code"`
	Player    PlayerInfo `json:"player"`
}

// TableJoinedPayload 加入牌桌成功响应
type TableJoinedPayload struct {
	TableCode string       `json:"table_code"`
	Player    PlayerInfo   `json:"player"`
	Players   []PlayerInfo `json:"players"`
}

// PlayerJoinedPayload 其他玩家加入通知
type PlayerJoinedPayload struct {
	Player PlayerInfo `json:"player"`
}

// PlayerLeftPayload 玩家离开通知
type PlayerLeftPayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// GameStateDTO 某位玩家看到的对局状态，其他人的手牌和未亮出的叫分牌不会下发
type GameStateDTO struct {
	TableCode      string       `json:"table_code"`
	Variant        string       `json:"variant"`
	Phase          string       `json:"phase"`
	Round          int          `json:"round"`
	MaxRounds      int          `json:"max_rounds"`
	TricksPerRound int          `json:"tricks_per_round"`
	TricksPlayed   int          `json:"tricks_played"`
	CardBidMode    bool         `json:"card_bid_mode"`
	Players        []PlayerInfo `json:"players"`
	Hand           []CardInfo   `json:"hand"`                  // 自己的手牌
	BidCards       []CardInfo   `json:"bid_cards,omitempty"`   // 自己扣下的叫分牌
	LegalCards     []string     `json:"legal_cards,omitempty"` // 轮到自己时可出的牌
	Turnup         *CardInfo    `json:"turnup,omitempty"`
	Trump          string       `json:"trump,omitempty"`
	StockSize      int          `json:"stock_size"`
	CurrentPlayer  string       `json:"current_player,omitempty"`
	CurrentBidder  string       `json:"current_bidder,omitempty"`
	CurrentTrick   *TrickInfo   `json:"current_trick,omitempty"`
	LastTrick      *TrickInfo   `json:"last_trick,omitempty"`
}

// RoundResultPayload 一局结算通知
type RoundResultPayload struct {
	Round   int               `json:"round"`
	Trump   string            `json:"trump,omitempty"`
	Results []PlayerRoundInfo `json:"results"`
}

// PlayerRoundInfo 单个玩家一局的结算
type PlayerRoundInfo struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Bid        int    `json:"bid"`
	TricksWon  int    `json:"tricks_won"`
	Exact      bool   `json:"exact"`
	Combo      string `json:"combo,omitempty"`
	Delta      int    `json:"delta"`
	Score      int    `json:"score"`
}

// GameOverPayload 游戏结束通知
type GameOverPayload struct {
	WinnerIDs []string        `json:"winner_ids"` // 可能并列
	Standings []StandingEntry `json:"standings"`
	Rounds    int             `json:"rounds"`
}

// TurnReminderPayload 轮到玩家操作的提醒
type TurnReminderPayload struct {
	Phase   string `json:"phase"`
	Action  string `json:"action"`  // bid / reveal / play
	Waiting int    `json:"waiting"` // 已等待秒数
}

// StandingEntry 最终排名
type StandingEntry struct {
	Rank       int    `json:"rank"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Score      int    `json:"score"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// StatsResultPayload 个人统计结果
type StatsResultPayload struct {
	PlayerID      string  `json:"player_id"`
	PlayerName    string  `json:"player_name"`
	TotalGames    int     `json:"total_games"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinRate       float64 `json:"win_rate"`
	RoundsPlayed  int     `json:"rounds_played"`
	ExactBids     int     `json:"exact_bids"`
	ExactRate     float64 `json:"exact_rate"`
	Score         int     `json:"score"`
	Rank          int     `json:"rank"`
	CurrentStreak int     `json:"current_streak"`
	MaxWinStreak  int     `json:"max_win_streak"`
}

// LeaderboardResultPayload 排行榜结果
type LeaderboardResultPayload struct {
	Type    string             `json:"type"`
	Entries []LeaderboardEntry `json:"entries"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Score      int     `json:"score"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"win_rate"`
}

// TableListResultPayload 牌桌列表结果
type TableListResultPayload struct {
	Tables []TableListItem `json:"tables"`
}

// TableListItem 牌桌列表项
type TableListItem struct {
	TableCode   string `json:"table_code"`
	Variant     string `json:"variant"`
	Phase       string `json:"phase"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
}

// TableHistoryResultPayload 牌桌历史结果，按局数排列
type TableHistoryResultPayload struct {
	TableCode string             `json:"table_code"`
	Rounds    []RoundHistoryItem `json:"rounds"`
}

// RoundHistoryItem 某一局中一位玩家的结算
type RoundHistoryItem struct {
	Round      int    `json:"round"`
	Trump      string `json:"trump"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Bid        int    `json:"bid"`
	TricksWon  int    `json:"tricks_won"`
	Exact      bool   `json:"exact"`
	Combo      string `json:"combo,omitempty"`
	Delta      int    `json:"delta"`
	Score      int    `json:"score"`
}

// RecentGamesResultPayload 最近对局结果
type RecentGamesResultPayload struct {
	Games []FinishedGameItem `json:"games"`
}

// FinishedGameItem 一场结束的对局
type FinishedGameItem struct {
	TableCode  string   `json:"table_code"`
	Rounds     int      `json:"rounds"`
	WinnerIDs  []string `json:"winner_ids"`
	FinishedAt int64    `json:"finished_at"` // Unix 毫秒
}

// --- 通用数据结构 ---

// PlayerInfo 玩家信息
type PlayerInfo struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Seat       int      `json:"seat"`
	Active     bool     `json:"active"`
	AI         bool     `json:"ai"`
	Level      string   `json:"level,omitempty"`
	Online     bool     `json:"online"`
	CardsCount int      `json:"cards_count"`
	TricksWon  int      `json:"tricks_won"`
	Score      int      `json:"score"`
	Bid        *BidInfo `json:"bid,omitempty"` // 未叫分时为空
}

// BidInfo 叫分信息，未亮出时只有 Placed 为 true
type BidInfo struct {
	Placed   bool       `json:"placed"`
	Revealed bool       `json:"revealed"`
	Value    *int       `json:"value,omitempty"`
	Cards    []CardInfo `json:"cards,omitempty"`
}

// TrickInfo 一墩的出牌情况
type TrickInfo struct {
	ID       string     `json:"id"`
	LeadSuit string     `json:"lead_suit,omitempty"`
	Plays    []PlayInfo `json:"plays"`
	WinnerID string     `json:"winner_id,omitempty"`
}

// PlayInfo 一次出牌
type PlayInfo struct {
	PlayerID string   `json:"player_id"`
	Card     CardInfo `json:"card"`
}

// CardInfo 牌信息
type CardInfo struct {
	ID   string `json:"id"`   // 例如 "HA"、"C10"、"JK"
	Suit int    `json:"suit"` // 0=梅花, 1=方块, 2=红心, 3=黑桃, 4=王
	Rank int    `json:"rank"` // 2-14，王为 15
}
