package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tecu23/match-server/internal/color"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestNewBoardStartingPosition(t *testing.T) {
	for _, position := range []string{"", "startpos"} {
		b, err := NewBoard(position)
		require.NoError(t, err)

		assert.Equal(t, color.White, b.SideToMove())
		assert.Equal(t, startFEN, b.Position())
		assert.False(t, b.IsGameOver())
	}
}

func TestNewBoardFromFEN(t *testing.T) {
	fen := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"

	b, err := NewBoard(fen)
	require.NoError(t, err)
	assert.Equal(t, color.Black, b.SideToMove())
}

func TestNewBoardRejectsGarbage(t *testing.T) {
	_, err := NewBoard("not a position")
	assert.Error(t, err)
}

func TestApplyMoveSwitchesTurn(t *testing.T) {
	b, err := NewBoard("")
	require.NoError(t, err)

	require.NoError(t, b.ApplyMove("e2e4"))
	assert.Equal(t, color.Black, b.SideToMove())

	require.NoError(t, b.ApplyMove("e7e5"))
	assert.Equal(t, color.White, b.SideToMove())
}

func TestApplyMoveRejectsIllegal(t *testing.T) {
	b, err := NewBoard("")
	require.NoError(t, err)

	before := b.Position()

	err = b.ApplyMove("e2e5")
	require.ErrorIs(t, err, ErrIllegalMove)
	assert.Equal(t, before, b.Position(), "rejected move leaves the position unchanged")
	assert.Equal(t, color.White, b.SideToMove())
}

func TestApplyMoveAcceptsAlgebraic(t *testing.T) {
	b, err := NewBoard("")
	require.NoError(t, err)

	for _, move := range []string{"e4", "e5", "Nf3"} {
		require.NoError(t, b.ApplyMove(move), move)
	}
	assert.Equal(t, color.Black, b.SideToMove())
}

func TestApplyMoveCastling(t *testing.T) {
	// White is ready to castle king side.
	b, err := NewBoard("r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 4 4")
	require.NoError(t, err)

	require.NoError(t, b.ApplyMove("e1g1"))
	assert.Equal(t, color.Black, b.SideToMove())
	assert.Contains(t, b.Position(), "RNBQ1RK1", "king and rook land on castled squares")
}

func TestApplyMovePromotion(t *testing.T) {
	b, err := NewBoard("8/4P1k1/8/8/8/8/8/4K3 w - - 0 1")
	require.NoError(t, err)

	require.NoError(t, b.ApplyMove("e7e8q"))
	assert.Contains(t, b.Position(), "4Q3", "pawn became a queen on e8")

	// A promotion push without the piece suffix is not a legal move.
	b2, err := NewBoard("8/4P1k1/8/8/8/8/8/4K3 w - - 0 1")
	require.NoError(t, err)
	assert.ErrorIs(t, b2.ApplyMove("e7e8"), ErrIllegalMove)
}

func TestCheckWithoutMate(t *testing.T) {
	b, err := NewBoard("")
	require.NoError(t, err)

	// 1.e4 d5 2.Bb5+ is check but far from mate.
	for _, move := range []string{"e2e4", "d7d5", "f1b5"} {
		require.NoError(t, b.ApplyMove(move), move)
	}

	assert.Equal(t, color.Black, b.SideToMove())
	assert.True(t, b.IsCheck())
	assert.False(t, b.IsCheckmate())
	assert.False(t, b.IsGameOver())
}

func TestNewBoardFromFENReportsCheck(t *testing.T) {
	// The b5 bishop checks the black king on e8.
	b, err := NewBoard("rnbqkbnr/ppp1pppp/8/1B1p4/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 1 2")
	require.NoError(t, err)

	assert.True(t, b.IsCheck())
	assert.False(t, b.IsCheckmate())
}

func TestCheckmateDetection(t *testing.T) {
	b, err := NewBoard("")
	require.NoError(t, err)

	// Fool's mate.
	for _, move := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		require.NoError(t, b.ApplyMove(move), move)
	}

	assert.True(t, b.IsCheck())
	assert.True(t, b.IsCheckmate())
	assert.True(t, b.IsGameOver())
	assert.False(t, b.IsDraw())
	// White, the mated side, is to move.
	assert.Equal(t, color.White, b.SideToMove())
}

func TestStalemateIsDraw(t *testing.T) {
	// Black to move with no legal moves and no check.
	b, err := NewBoard("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	require.NoError(t, err)

	assert.False(t, b.IsCheck())
	assert.True(t, b.IsDraw())
	assert.True(t, b.IsGameOver())
	assert.False(t, b.IsCheckmate())
}

func TestGameOverRejectsFurtherMoves(t *testing.T) {
	b, err := NewBoard("")
	require.NoError(t, err)

	for _, move := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		require.NoError(t, b.ApplyMove(move))
	}

	assert.Error(t, b.ApplyMove("e2e4"))
}
