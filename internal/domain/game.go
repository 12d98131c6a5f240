package domain

import (
	"errors"
	"fmt"
)

// Errors returned by domain operations. Every move rejection matches
// ErrInvalidMove.
var (
	ErrInvalidMove = errors.New("invalid move")
	ErrOutOfBounds = fmt.Errorf("%w: out of bounds", ErrInvalidMove)
	ErrOccupied    = fmt.Errorf("%w: cell occupied", ErrInvalidMove)
	ErrGameOver    = fmt.Errorf("%w: game over", ErrInvalidMove)

	ErrNotReady = errors.New("game not ready")
)

// Reasons carried by NotReadyError.
const (
	ReasonChooseSide       = "Please choose a side first"
	ReasonChooseDifficulty = "Please choose a difficulty first"
)

// NotReadyError reports an operation requested before the game was set up.
type NotReadyError struct {
	Reason string
}

func (e *NotReadyError) Error() string { return e.Reason }

func (e *NotReadyError) Is(target error) bool { return target == ErrNotReady }

// Game holds the state of one human-versus-AI match. A Game is not safe
// for concurrent use; the owner serializes calls.
type Game struct {
	board      Board
	human      Cell
	ai         Cell
	turn       Cell
	over       bool
	difficulty Difficulty

	rnd  Rand
	memo Memo
}

// Option configures a Game.
type Option func(*Game)

// WithRand sets the randomness used by the easy AI.
func WithRand(r Rand) Option {
	return func(g *Game) {
		if r != nil {
			g.rnd = r
		}
	}
}

// WithMemo sets the minimax score cache used by the hard AI.
func WithMemo(m Memo) Option {
	return func(g *Game) {
		if m != nil {
			g.memo = m
		}
	}
}

// New returns an empty game with no sides chosen.
func New(opts ...Option) *Game {
	g := &Game{rnd: frandSource{}, memo: NewBoardMemo()}
	for _, o := range opts {
		o(g)
	}
	return g
}

// ChooseSide assigns the human's side; the AI takes the other one. X
// always moves first, whichever side the human picked.
func (g *Game) ChooseSide(side Cell) {
	g.human = side
	g.ai = side.Opponent()
	g.turn = X
	// cached scores are relative to the previous side assignment
	g.memo.Reset()
}

// SetDifficulty selects the AI strategy. A side must be chosen first.
func (g *Game) SetDifficulty(d Difficulty) error {
	if g.human == Empty {
		return &NotReadyError{Reason: ReasonChooseSide}
	}
	g.difficulty = d
	return nil
}

// ApplyMove places side at row r, column c (0..2). The board is left
// untouched when the move is rejected.
func (g *Game) ApplyMove(r, c int, side Cell) error {
	if g.over {
		return ErrGameOver
	}
	if !inBounds(r, c) {
		return ErrOutOfBounds
	}
	idx := r*3 + c
	if g.board[idx] != Empty {
		return ErrOccupied
	}
	g.place(idx, side)
	return nil
}

// Play applies a move for the human side.
func (g *Game) Play(r, c int) error { return g.ApplyMove(r, c, g.human) }

func (g *Game) place(idx int, side Cell) {
	g.board[idx] = side
	if g.CheckWin() || g.IsBoardFull() {
		g.over = true
	}
}

// SwitchTurn hands the move to the other side.
func (g *Game) SwitchTurn() {
	if g.turn == X {
		g.turn = O
	} else {
		g.turn = X
	}
}

// CheckWin reports whether CurrentTurn's marker fills a line. The test is
// relative to the turn, not to the last move: call it before SwitchTurn
// to ask whether the side that just moved has won.
func (g *Game) CheckWin() bool { return g.board.WinsFor(g.turn) }

// IsBoardFull reports whether every cell is occupied.
func (g *Game) IsBoardFull() bool { return g.board.Full() }

func (g *Game) Board() Board           { return g.board }
func (g *Game) HumanSide() Cell        { return g.human }
func (g *Game) AISide() Cell           { return g.ai }
func (g *Game) CurrentTurn() Cell      { return g.turn }
func (g *Game) IsOver() bool           { return g.over }
func (g *Game) Difficulty() Difficulty { return g.difficulty }

// Outcome is the result of a match from the human's point of view.
type Outcome uint8

const (
	OutcomePending Outcome = iota
	OutcomeHumanWin
	OutcomeAIWin
	OutcomeTie
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHumanWin:
		return "human_win"
	case OutcomeAIWin:
		return "ai_win"
	case OutcomeTie:
		return "tie"
	default:
		return "pending"
	}
}

// Delta is a leaderboard increment.
type Delta struct {
	Wins   int
	Losses int
	Ties   int
}

// Delta returns the leaderboard increment for a finished match; a pending
// match yields the zero Delta.
func (o Outcome) Delta() Delta {
	switch o {
	case OutcomeHumanWin:
		return Delta{Wins: 1}
	case OutcomeAIWin:
		return Delta{Losses: 1}
	case OutcomeTie:
		return Delta{Ties: 1}
	}
	return Delta{}
}

// Outcome inspects the board of a finished game for the winning side.
func (g *Game) Outcome() Outcome {
	switch {
	case !g.over:
		return OutcomePending
	case g.board.WinsFor(g.human):
		return OutcomeHumanWin
	case g.board.WinsFor(g.ai):
		return OutcomeAIWin
	default:
		return OutcomeTie
	}
}

// Snapshot is a read-only copy of a game's state.
type Snapshot struct {
	Board      Board
	HumanSide  Cell
	AISide     Cell
	Turn       Cell
	Over       bool
	Difficulty Difficulty
	Outcome    Outcome
	Moves      int
}

func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Board:      g.board,
		HumanSide:  g.human,
		AISide:     g.ai,
		Turn:       g.turn,
		Over:       g.over,
		Difficulty: g.difficulty,
		Outcome:    g.Outcome(),
		Moves:      9 - len(g.board.EmptyCells()),
	}
}
