package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := OpenArchive(memoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestOpenArchive_RequiresPath(t *testing.T) {
	t.Parallel()

	_, err := OpenArchive("  ")
	assert.Error(t, err)
}

func TestArchive_RecordRoundAndQuery(t *testing.T) {
	t.Parallel()

	a := openTestArchive(t)
	ctx := context.Background()
	at := time.UnixMilli(1_700_000_000_000).UTC()

	round1 := []RoundRecord{
		{TableCode: "123456", Round: 1, Trump: "H", PlayerID: "p1", PlayerName: "A", Bid: 3, TricksWon: 3, Exact: true, Delta: 60, Score: 60, CreatedAt: at},
		{TableCode: "123456", Round: 1, Trump: "H", PlayerID: "p2", PlayerName: "B", Bid: 2, TricksWon: 4, Combo: "run", Delta: 0, Score: 0, CreatedAt: at},
	}
	round2 := []RoundRecord{
		{TableCode: "123456", Round: 2, PlayerID: "p1", PlayerName: "A", Bid: 0, TricksWon: 0, Exact: true, Delta: 50, Score: 110, CreatedAt: at},
	}
	other := []RoundRecord{{TableCode: "654321", Round: 1, PlayerID: "x", PlayerName: "X", CreatedAt: at}}

	require.NoError(t, a.RecordRound(ctx, round2))
	require.NoError(t, a.RecordRound(ctx, round1))
	require.NoError(t, a.RecordRound(ctx, other))
	require.NoError(t, a.RecordRound(ctx, nil))

	rows, err := a.RoundsForTable(ctx, "123456")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, round1[0], rows[0])
	assert.Equal(t, round1[1], rows[1])
	assert.Equal(t, round2[0], rows[2])

	rows, err = a.RoundsForTable(ctx, "000000")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestArchive_RecordRoundRollsBackOnInvalidRow(t *testing.T) {
	t.Parallel()

	a := openTestArchive(t)
	ctx := context.Background()

	err := a.RecordRound(ctx, []RoundRecord{
		{TableCode: "123456", Round: 1, PlayerID: "p1"},
		{TableCode: "123456", Round: 1},
	})
	require.Error(t, err)

	rows, err := a.RoundsForTable(ctx, "123456")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestArchive_RecordRoundCanceled(t *testing.T) {
	t.Parallel()

	a := openTestArchive(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, a.RecordRound(ctx, []RoundRecord{{TableCode: "1", PlayerID: "p"}}))
}

func TestArchive_FinishedGames(t *testing.T) {
	t.Parallel()

	a := openTestArchive(t)
	ctx := context.Background()

	first := FinishedGame{
		TableCode:  "111111",
		Rounds:     4,
		WinnerIDs:  []string{"p1"},
		Snapshot:   json.RawMessage(`{"phase":"finished"}`),
		FinishedAt: time.UnixMilli(1_000).UTC(),
	}
	second := FinishedGame{
		TableCode:  "222222",
		Rounds:     9,
		WinnerIDs:  []string{"p2", "p3"},
		Snapshot:   json.RawMessage(`{"phase":"finished","round":9}`),
		FinishedAt: time.UnixMilli(2_000).UTC(),
	}
	require.NoError(t, a.RecordGame(ctx, first))
	require.NoError(t, a.RecordGame(ctx, second))
	assert.Error(t, a.RecordGame(ctx, FinishedGame{}))

	games, err := a.RecentGames(ctx, 10)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, second, games[0])
	assert.Equal(t, first, games[1])

	_, err = a.RecentGames(ctx, 0)
	assert.Error(t, err)
}

func TestArchive_FileBacked(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "archive.db")
	a, err := OpenArchive(path)
	require.NoError(t, err)
	require.NoError(t, a.RecordRound(context.Background(), []RoundRecord{{TableCode: "1", PlayerID: "p", PlayerName: "P"}}))
	require.NoError(t, a.Close())

	reopened, err := OpenArchive(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	rows, err := reopened.RoundsForTable(context.Background(), "1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
