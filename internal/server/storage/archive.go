package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// memoryPath 不落盘的归档
const memoryPath = ":memory:"

var archiveSchema = []string{`
CREATE TABLE IF NOT EXISTS round_results (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	table_code  TEXT    NOT NULL,
	round       INTEGER NOT NULL,
	trump       TEXT    NOT NULL DEFAULT '',
	player_id   TEXT    NOT NULL,
	player_name TEXT    NOT NULL,
	bid         INTEGER NOT NULL,
	tricks_won  INTEGER NOT NULL,
	exact       INTEGER NOT NULL,
	combo       TEXT    NOT NULL DEFAULT '',
	delta       INTEGER NOT NULL,
	score       INTEGER NOT NULL,
	created_at  INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_round_results_table ON round_results (table_code, round)`,
	`
CREATE TABLE IF NOT EXISTS finished_games (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	table_code  TEXT    NOT NULL,
	rounds      INTEGER NOT NULL,
	winner_ids  TEXT    NOT NULL,
	snapshot    TEXT    NOT NULL,
	finished_at INTEGER NOT NULL
)`,
}

// RoundRecord 一局结算后每位玩家的一行
type RoundRecord struct {
	TableCode  string
	Round      int
	Trump      string
	PlayerID   string
	PlayerName string
	Bid        int
	TricksWon  int
	Exact      bool
	Combo      string
	Delta      int
	Score      int
	CreatedAt  time.Time
}

// FinishedGame 一场结束的对局
type FinishedGame struct {
	TableCode  string
	Rounds     int
	WinnerIDs  []string
	Snapshot   json.RawMessage
	FinishedAt time.Time
}

// Archive SQLite 对局归档
type Archive struct {
	sqlDB *sql.DB
}

// OpenArchive 打开归档并建表，path 为 ":memory:" 时只保存在内存中
func OpenArchive(path string) (*Archive, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("archive path is required")
	}

	dsn := memoryPath
	if path != memoryPath {
		cleanPath := filepath.Clean(path)
		if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
		dsn = cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// 内存库每个连接各自独立，写入也需要串行
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	for _, stmt := range archiveSchema {
		if _, err := sqlDB.Exec(stmt); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &Archive{sqlDB: sqlDB}, nil
}

// Close 关闭数据库
func (a *Archive) Close() error {
	if a == nil || a.sqlDB == nil {
		return nil
	}
	return a.sqlDB.Close()
}

// RecordRound 在一个事务中写入一局的所有玩家结果
func (a *Archive) RecordRound(ctx context.Context, records []RoundRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := a.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO round_results (
	table_code, round, trump, player_id, player_name,
	bid, tricks_won, exact, combo, delta, score, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		if r.TableCode == "" || r.PlayerID == "" {
			return fmt.Errorf("table code and player id are required")
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx,
			r.TableCode, r.Round, r.Trump, r.PlayerID, r.PlayerName,
			r.Bid, r.TricksWon, boolToInt(r.Exact), r.Combo, r.Delta, r.Score,
			r.CreatedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("record round: %w", err)
		}
	}
	return tx.Commit()
}

// RoundsForTable 按局数、写入顺序返回一张牌桌的所有结果
func (a *Archive) RoundsForTable(ctx context.Context, tableCode string) ([]RoundRecord, error) {
	rows, err := a.sqlDB.QueryContext(ctx, `
SELECT table_code, round, trump, player_id, player_name,
	bid, tricks_won, exact, combo, delta, score, created_at
FROM round_results
WHERE table_code = ?
ORDER BY round, id
`, tableCode)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []RoundRecord
	for rows.Next() {
		var (
			r         RoundRecord
			exact     int
			createdAt int64
		)
		if err := rows.Scan(
			&r.TableCode, &r.Round, &r.Trump, &r.PlayerID, &r.PlayerName,
			&r.Bid, &r.TricksWon, &exact, &r.Combo, &r.Delta, &r.Score, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		r.Exact = exact != 0
		r.CreatedAt = time.UnixMilli(createdAt).UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

// RecordGame 保存结束的对局及其最终快照
func (a *Archive) RecordGame(ctx context.Context, g FinishedGame) error {
	if g.TableCode == "" {
		return fmt.Errorf("table code is required")
	}
	winners, err := json.Marshal(g.WinnerIDs)
	if err != nil {
		return err
	}
	if g.FinishedAt.IsZero() {
		g.FinishedAt = time.Now()
	}
	_, err = a.sqlDB.ExecContext(ctx, `
INSERT INTO finished_games (table_code, rounds, winner_ids, snapshot, finished_at)
VALUES (?, ?, ?, ?, ?)
`, g.TableCode, g.Rounds, string(winners), string(g.Snapshot), g.FinishedAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("record game: %w", err)
	}
	return nil
}

// RecentGames 按结束时间倒序返回最近的对局
func (a *Archive) RecentGames(ctx context.Context, limit int) ([]FinishedGame, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := a.sqlDB.QueryContext(ctx, `
SELECT table_code, rounds, winner_ids, snapshot, finished_at
FROM finished_games
ORDER BY finished_at DESC, id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var games []FinishedGame
	for rows.Next() {
		var (
			g          FinishedGame
			winners    string
			snapshot   string
			finishedAt int64
		)
		if err := rows.Scan(&g.TableCode, &g.Rounds, &winners, &snapshot, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		if err := json.Unmarshal([]byte(winners), &g.WinnerIDs); err != nil {
			return nil, fmt.Errorf("decode winners: %w", err)
		}
		g.Snapshot = json.RawMessage(snapshot)
		g.FinishedAt = time.UnixMilli(finishedAt).UTC()
		games = append(games, g)
	}
	return games, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
