package table

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/ninety-nine/internal/apperrors"
	"github.com/palemoky/ninety-nine/internal/protocol"
	"github.com/palemoky/ninety-nine/internal/server/storage"
	"github.com/palemoky/ninety-nine/internal/testutil"
)

func TestRestoreTables_DropsUnreadableEntries(t *testing.T) {
	t.Parallel()

	store := &testutil.MockTableStore{}
	store.On("GetAllTableCodes", mock.Anything).Return([]string{"BAD001", "GONE01"}, nil)
	store.On("LoadTable", mock.Anything, "BAD001").Return(&storage.TableData{Code: "BAD001", Variant: "bogus"}, nil)
	store.On("LoadTable", mock.Anything, "GONE01").Return(nil, nil)
	store.On("DeleteTable", mock.Anything, "BAD001").Return(nil)

	m := newTestManager(t, Deps{Store: store}, Config{})
	n, err := m.RestoreTables(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, m.TableCount())
	store.AssertExpectations(t)
}

func TestRestoreTables_ListError(t *testing.T) {
	t.Parallel()

	store := &testutil.MockTableStore{}
	store.On("GetAllTableCodes", mock.Anything).Return(nil, errors.New("redis down"))

	m := newTestManager(t, Deps{Store: store}, Config{})
	_, err := m.RestoreTables(context.Background())
	assert.Error(t, err)
}

func TestStorageFailures_DoNotInterruptGame(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	store := &testutil.MockTableStore{}
	store.On("SaveTable", mock.Anything, mock.Anything).Return(boom)
	store.On("DeleteTable", mock.Anything, mock.Anything).Return(boom).Maybe()
	archive := &testutil.MockArchive{}
	archive.On("RecordRound", mock.Anything, mock.Anything).Return(boom)
	archive.On("RecordGame", mock.Anything, mock.Anything).Return(boom)

	m := newTestManager(t, Deps{Store: store, Archive: archive}, Config{MaxRounds: 1})
	c := testutil.NewSimpleClient("human", "Alice")
	tbl, err := m.CreateTable(c, "standard", 2, "easy")
	require.NoError(t, err)
	require.NoError(t, m.StartGame(c))
	playToEnd(t, m, tbl, c)

	assert.NotNil(t, c.LastOfType(protocol.MsgGameOver))
	m.Flush()
	store.AssertCalled(t, "SaveTable", mock.Anything, mock.Anything)
	archive.AssertNumberOfCalls(t, "RecordRound", 1)
	archive.AssertNumberOfCalls(t, "RecordGame", 1)
}

func TestSendState_RequiresSeat(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, Deps{}, Config{})

	lobby := &testutil.MockClient{}
	lobby.On("GetTable").Return("")
	assert.ErrorIs(t, m.SendState(lobby), apperrors.ErrNotAtTable)

	stale := &testutil.MockClient{}
	stale.On("GetTable").Return("NOPE00")
	assert.ErrorIs(t, m.SendState(stale), apperrors.ErrTableNotFound)

	for _, c := range []*testutil.MockClient{lobby, stale} {
		c.AssertExpectations(t)
		c.AssertNotCalled(t, "SendMessage", mock.Anything)
	}
}
