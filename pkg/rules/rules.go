// Package rules defines the narrow contract the match core needs from a
// chess rules engine and provides the default implementation backed by
// github.com/corentings/chess/v2.
package rules

import (
	"errors"
	"fmt"

	"github.com/corentings/chess/v2"

	"github.com/tecu23/match-server/internal/color"
)

// ErrIllegalMove is returned by Board.ApplyMove when the rules engine
// rejects the move for the current position.
var ErrIllegalMove = errors.New("illegal move")

// Board is the query/mutation surface of a single game's position. The
// match core holds one per session and never inspects position internals
// beyond this contract.
type Board interface {
	// ApplyMove plays the given move, returning ErrIllegalMove if the
	// rules engine rejects it. The position is unchanged on error.
	ApplyMove(move string) error
	SideToMove() color.Color
	IsCheck() bool
	IsCheckmate() bool
	IsDraw() bool
	IsGameOver() bool
	// Position returns the serialized position (FEN).
	Position() string
}

// Factory builds a fresh Board from a serialized position. An empty
// position string means the standard starting position.
type Factory func(position string) (Board, error)

type board struct {
	game *chess.Game
}

// NewBoard creates a Board from a position string, or from the standard
// starting position when the string is empty or "startpos".
func NewBoard(position string) (Board, error) {
	if position == "" || position == "startpos" {
		return &board{game: chess.NewGame()}, nil
	}

	fen, err := chess.FEN(position)
	if err != nil {
		return nil, fmt.Errorf("parse position: %w", err)
	}

	return &board{game: chess.NewGame(fen)}, nil
}

func (b *board) ApplyMove(move string) error {
	decoded, err := chess.UCINotation{}.Decode(nil, move)
	if err != nil {
		// Not coordinate notation. PushMove parses algebraic directly.
		if pushErr := b.game.PushMove(move, nil); pushErr != nil {
			return fmt.Errorf("%w: %s", ErrIllegalMove, move)
		}
		return nil
	}

	// PushMove only speaks algebraic, so match the coordinate pair against
	// the legal moves and re-encode the winner.
	for _, legal := range b.game.ValidMoves() {
		if legal.S1() != decoded.S1() || legal.S2() != decoded.S2() || legal.Promo() != decoded.Promo() {
			continue
		}
		san := chess.AlgebraicNotation{}.Encode(b.game.Position(), &legal)
		if pushErr := b.game.PushMove(san, nil); pushErr != nil {
			return fmt.Errorf("%w: %s", ErrIllegalMove, move)
		}
		return nil
	}

	return fmt.Errorf("%w: %s", ErrIllegalMove, move)
}

func (b *board) SideToMove() color.Color {
	if b.game.Position().Turn() == chess.White {
		return color.White
	}
	return color.Black
}

func (b *board) IsCheck() bool {
	pos := b.game.Position()
	return kingAttacked(pos.Board().SquareMap(), pos.Turn())
}

func (b *board) IsCheckmate() bool {
	return b.game.Method() == chess.Checkmate
}

func (b *board) IsDraw() bool {
	return b.game.Outcome() == chess.Draw
}

func (b *board) IsGameOver() bool {
	return b.game.Outcome() != chess.NoOutcome
}

func (b *board) Position() string {
	return b.game.FEN()
}

// kingAttacked reports whether turn's king is attacked by any opposing
// piece. The library computes this internally but does not expose it, so
// it is rebuilt here from the exported square map.
func kingAttacked(pieces map[chess.Square]chess.Piece, turn chess.Color) bool {
	kingSq := chess.NoSquare
	for sq, p := range pieces {
		if p.Type() == chess.King && p.Color() == turn {
			kingSq = sq
			break
		}
	}
	if kingSq == chess.NoSquare {
		return false
	}

	for sq, p := range pieces {
		if p.Color() == turn {
			continue
		}
		if attacksSquare(pieces, sq, p, kingSq) {
			return true
		}
	}
	return false
}

func attacksSquare(pieces map[chess.Square]chess.Piece, from chess.Square, p chess.Piece, target chess.Square) bool {
	df := int(target.File()) - int(from.File())
	dr := int(target.Rank()) - int(from.Rank())
	adf, adr := abs(df), abs(dr)

	switch p.Type() {
	case chess.Pawn:
		forward := 1
		if p.Color() == chess.Black {
			forward = -1
		}
		return dr == forward && adf == 1
	case chess.Knight:
		return (adf == 1 && adr == 2) || (adf == 2 && adr == 1)
	case chess.King:
		return adf <= 1 && adr <= 1 && (adf != 0 || adr != 0)
	case chess.Bishop:
		return adf == adr && adf != 0 && rayClear(pieces, from, target)
	case chess.Rook:
		return (df == 0) != (dr == 0) && rayClear(pieces, from, target)
	case chess.Queen:
		diagonal := adf == adr && adf != 0
		straight := (df == 0) != (dr == 0)
		return (diagonal || straight) && rayClear(pieces, from, target)
	}
	return false
}

// rayClear reports whether every square strictly between from and to is
// empty. Callers guarantee the squares share a rank, file or diagonal.
func rayClear(pieces map[chess.Square]chess.Piece, from, to chess.Square) bool {
	df := sign(int(to.File()) - int(from.File()))
	dr := sign(int(to.Rank()) - int(from.Rank()))

	f, r := int(from.File())+df, int(from.Rank())+dr
	for f != int(to.File()) || r != int(to.Rank()) {
		if _, occupied := pieces[chess.NewSquare(chess.File(f), chess.Rank(r))]; occupied {
			return false
		}
		f += df
		r += dr
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}
