package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

// String returns the single-character tag used in board keys.
func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return "-"
	}
}

// Opponent returns the other side. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

var ErrInvalidSide = errors.New("side must be X or O")

// ParseSide reads "X" or "O", case-insensitive.
func ParseSide(s string) (Cell, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return X, nil
	case "O":
		return O, nil
	}
	return Empty, fmt.Errorf("%w: %q", ErrInvalidSide, s)
}

// Pos is a zero-based row/column pair.
type Pos struct {
	Row int
	Col int
}

func (p Pos) index() int { return p.Row*3 + p.Col }

func posOf(idx int) Pos { return Pos{Row: idx / 3, Col: idx % 3} }

func inBounds(r, c int) bool { return r >= 0 && r < 3 && c >= 0 && c < 3 }

// Board is a fixed 3x3 board stored row-major.
type Board [9]Cell

var lines = [8][3]int{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

// At returns the cell at row r, column c.
func (b Board) At(r, c int) Cell { return b[r*3+c] }

// WinsFor reports whether side fills any row, column or diagonal.
func (b Board) WinsFor(side Cell) bool {
	if side == Empty {
		return false
	}
	for _, ln := range lines {
		if b[ln[0]] == side && b[ln[1]] == side && b[ln[2]] == side {
			return true
		}
	}
	return false
}

// Full is true when no empty cell remains, regardless of any win.
func (b Board) Full() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

// EmptyCells lists the empty positions in row-major order.
func (b Board) EmptyCells() []Pos {
	idx := lo.Filter(lo.Range(len(b)), func(i int, _ int) bool { return b[i] == Empty })
	return lo.Map(idx, func(i int, _ int) Pos { return posOf(i) })
}

// Key serializes the board row-major, one tag per cell.
func (b Board) Key() string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteString(c.String())
	}
	return sb.String()
}

var ErrBadKey = errors.New("malformed board key")

// ParseKey rebuilds a board from the output of Key.
func ParseKey(key string) (Board, error) {
	var b Board
	if len(key) != len(b) {
		return Board{}, fmt.Errorf("%w: want %d cells, got %d", ErrBadKey, len(b), len(key))
	}
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '-':
			b[i] = Empty
		case 'X':
			b[i] = X
		case 'O':
			b[i] = O
		default:
			return Board{}, fmt.Errorf("%w: bad tag %q at %d", ErrBadKey, key[i], i)
		}
	}
	return b, nil
}

// String renders the board as three text rows.
func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			sb.WriteString(b.At(r, c).String())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
