package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/palemoky/ninety-nine/internal/protocol"
)

func TestGameError_IsMatchesKind(t *testing.T) {
	t.Parallel()

	err := Newf(KindNotYourTurn, "还没轮到 %s", "p2")
	assert.ErrorIs(t, err, ErrNotYourTurn)
	assert.NotErrorIs(t, err, ErrMustFollowSuit)

	wrapped := fmt.Errorf("play: %w", err)
	assert.ErrorIs(t, wrapped, ErrNotYourTurn)
	assert.Equal(t, KindNotYourTurn, KindOf(wrapped))
	assert.Equal(t, protocol.ErrCodeNotYourTurn, CodeOf(wrapped))
}

func TestGameError_TableErrorsCompareCode(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, ErrTableFull, ErrTableFull)
	assert.NotErrorIs(t, ErrTableFull, ErrTableNotFound)
}

func TestCodeOf_NonGameError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, protocol.ErrCodeUnknown, CodeOf(errors.New("boom")))
	assert.Equal(t, Kind(0), KindOf(errors.New("boom")))
	assert.Equal(t, "SetupError", KindSetup.String())
}
