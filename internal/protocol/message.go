package protocol

import "encoding/json"

// Message 基础消息结构，Payload 始终是 JSON，传输格式由 codec 决定
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgPing MessageType = "ping" // 心跳 ping

	// 牌桌操作
	MsgCreateTable MessageType = "create_table" // 创建牌桌
	MsgJoinTable   MessageType = "join_table"   // 加入牌桌
	MsgLeaveTable  MessageType = "leave_table"  // 离开牌桌
	MsgAddBot      MessageType = "add_bot"      // 添加 AI 玩家
	MsgStartGame   MessageType = "start_game"   // 开始游戏

	// 游戏操作
	MsgPlaceBid  MessageType = "place_bid"  // 叫分
	MsgRevealBid MessageType = "reveal_bid" // 亮出叫分
	MsgPlayCard  MessageType = "play_card"  // 出牌
	MsgNextRound MessageType = "next_round" // 开始下一局
	MsgGetState  MessageType = "get_state"  // 拉取当前状态

	// 排行榜
	MsgGetStats       MessageType = "get_stats"        // 获取个人统计
	MsgGetLeaderboard MessageType = "get_leaderboard"  // 获取排行榜
	MsgGetTableList   MessageType = "get_table_list"   // 获取牌桌列表
	MsgGetOnlineCount MessageType = "get_online_count" // 获取在线人数

	// 历史记录
	MsgGetTableHistory MessageType = "get_table_history" // 获取牌桌每局结果
	MsgGetRecentGames  MessageType = "get_recent_games"  // 获取最近结束的对局
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected   MessageType = "connected"    // 连接成功
	MsgPong        MessageType = "pong"         // 心跳 pong
	MsgOnlineCount MessageType = "online_count" // 在线人数更新

	// 牌桌相关
	MsgTableCreated MessageType = "table_created" // 牌桌创建成功
	MsgTableJoined  MessageType = "table_joined"  // 加入牌桌成功
	MsgPlayerJoined MessageType = "player_joined" // 其他玩家加入
	MsgPlayerLeft   MessageType = "player_left"   // 玩家离开

	// 游戏流程
	MsgGameState    MessageType = "game_state"    // 对局状态（按观察者裁剪）
	MsgRoundResult  MessageType = "round_result"  // 本局结果
	MsgGameOver     MessageType = "game_over"     // 游戏结束
	MsgTurnReminder MessageType = "turn_reminder" // 操作提醒，不会跳过回合

	// 排行榜
	MsgStatsResult       MessageType = "stats_result"       // 个人统计结果
	MsgLeaderboardResult MessageType = "leaderboard_result" // 排行榜结果
	MsgTableListResult   MessageType = "table_list_result"  // 牌桌列表结果

	// 历史记录
	MsgTableHistoryResult MessageType = "table_history_result" // 牌桌历史结果
	MsgRecentGamesResult  MessageType = "recent_games_result"  // 最近对局结果

	// 错误
	MsgError MessageType = "error" // 错误消息
)
