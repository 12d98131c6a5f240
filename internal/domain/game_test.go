package domain

import (
	"errors"
	"testing"
)

// helper to apply a sequence of alternating moves starting with X
func playMoves(t *testing.T, g *Game, moves [][2]int) {
	t.Helper()
	for i, m := range moves {
		if err := g.ApplyMove(m[0], m[1], g.CurrentTurn()); err != nil {
			t.Fatalf("move %d (%v) failed: %v", i, m, err)
		}
		if !g.IsOver() {
			g.SwitchTurn()
		}
	}
}

func newSidedGame(human Cell) *Game {
	g := New()
	g.ChooseSide(human)
	return g
}

func TestNewGameInitialState(t *testing.T) {
	g := New()
	if g.HumanSide() != Empty || g.AISide() != Empty {
		t.Fatalf("expected no sides, got human=%v ai=%v", g.HumanSide(), g.AISide())
	}
	if g.Difficulty() != Unset {
		t.Fatalf("expected unset difficulty, got %v", g.Difficulty())
	}
	if g.IsOver() {
		t.Fatalf("expected game not over")
	}
	for i, c := range g.Board() {
		if c != Empty {
			t.Fatalf("expected empty board, cell %d = %v", i, c)
		}
	}
}

func TestChooseSideAlwaysStartsWithX(t *testing.T) {
	for _, human := range []Cell{X, O} {
		g := newSidedGame(human)
		if g.HumanSide() != human || g.AISide() != human.Opponent() {
			t.Fatalf("human=%v: got human=%v ai=%v", human, g.HumanSide(), g.AISide())
		}
		if g.CurrentTurn() != X {
			t.Fatalf("human=%v: expected X to start, got %v", human, g.CurrentTurn())
		}
	}
}

func TestApplyMoveOutOfBounds(t *testing.T) {
	g := newSidedGame(X)
	cases := [][2]int{{-1, 0}, {0, -1}, {3, 0}, {0, 3}, {5, 5}}
	for _, m := range cases {
		err := g.ApplyMove(m[0], m[1], X)
		if err != ErrOutOfBounds {
			t.Fatalf("expected ErrOutOfBounds for %v, got %v", m, err)
		}
		if !errors.Is(err, ErrInvalidMove) {
			t.Fatalf("expected ErrOutOfBounds to match ErrInvalidMove")
		}
	}
	if g.Board() != (Board{}) {
		t.Fatalf("board changed by rejected moves: %v", g.Board())
	}
}

func TestApplyMoveOccupiedRejectedEveryTime(t *testing.T) {
	g := newSidedGame(X)
	if err := g.Play(0, 0); err != nil {
		t.Fatalf("first move failed: %v", err)
	}
	before := g.Board()
	for i := 0; i < 2; i++ {
		if err := g.ApplyMove(0, 0, O); err != ErrOccupied {
			t.Fatalf("attempt %d: expected ErrOccupied, got %v", i, err)
		}
		if g.Board() != before {
			t.Fatalf("attempt %d: board changed on rejected move", i)
		}
	}
}

func TestSwitchTurnFlips(t *testing.T) {
	g := newSidedGame(X)
	g.SwitchTurn()
	if g.CurrentTurn() != O {
		t.Fatalf("expected O after switch, got %v", g.CurrentTurn())
	}
	g.SwitchTurn()
	if g.CurrentTurn() != X {
		t.Fatalf("expected X after second switch, got %v", g.CurrentTurn())
	}
}

var winningLines = [][][2]int{
	// rows
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	// cols
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	// diags
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

func onLine(line [][2]int, f [2]int) bool {
	return f == line[0] || f == line[1] || f == line[2]
}

func TestWinConditionsForX(t *testing.T) {
	filler := [][2]int{{1, 2}, {2, 1}, {1, 0}, {2, 0}, {0, 2}, {0, 1}}
	for _, line := range winningLines {
		g := newSidedGame(X)
		var fillers [][2]int
		for _, f := range filler {
			if !onLine(line, f) {
				fillers = append(fillers, f)
			}
		}
		// X, O, X, O, X with X on the line
		seq := [][2]int{line[0], fillers[0], line[1], fillers[1], line[2]}
		playMoves(t, g, seq)
		if !g.IsOver() || !g.CheckWin() || g.CurrentTurn() != X {
			t.Fatalf("expected X to win on line %v; over=%v turn=%v", line, g.IsOver(), g.CurrentTurn())
		}
		if g.Outcome() != OutcomeHumanWin {
			t.Fatalf("expected human win, got %v", g.Outcome())
		}
	}
}

func TestWinConditionsForO(t *testing.T) {
	filler := [][2]int{{1, 2}, {2, 1}, {1, 0}, {2, 0}, {0, 2}, {0, 1}, {2, 2}, {1, 1}}
	for _, line := range winningLines {
		g := newSidedGame(X)
		var fillers [][2]int
		for _, f := range filler {
			if !onLine(line, f) {
				fillers = append(fillers, f)
			}
		}
		// A filler set that itself forms a line would end the game early.
		seq := [][2]int{fillers[0], line[0], fillers[1], line[1], fillers[3], line[2]}
		playMoves(t, g, seq)
		if !g.IsOver() || g.CurrentTurn() != O {
			t.Fatalf("expected O to win on line %v; over=%v turn=%v\n%v", line, g.IsOver(), g.CurrentTurn(), g.Board())
		}
		if g.Outcome() != OutcomeAIWin {
			t.Fatalf("expected AI win, got %v", g.Outcome())
		}
	}
}

func TestCheckWinIsTurnRelative(t *testing.T) {
	g := newSidedGame(X)
	playMoves(t, g, [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0, 2}})
	if !g.CheckWin() {
		t.Fatalf("expected win for X while it is X's turn")
	}
	g.SwitchTurn()
	if g.CheckWin() {
		t.Fatalf("expected no win for O on the same board")
	}
}

func TestDrawNoWinner(t *testing.T) {
	g := newSidedGame(X)
	// Draw pattern (no three in a row)
	seq := [][2]int{
		{0, 0}, {0, 1}, {0, 2},
		{1, 1}, {1, 0}, {1, 2},
		{2, 1}, {2, 0}, {2, 2},
	}
	playMoves(t, g, seq)
	if !g.IsOver() || !g.IsBoardFull() {
		t.Fatalf("expected game over on full board")
	}
	if g.CheckWin() {
		t.Fatalf("expected no winner on draw")
	}
	if g.Outcome() != OutcomeTie {
		t.Fatalf("expected tie, got %v", g.Outcome())
	}
}

func TestGameOverBlocksFurtherMoves(t *testing.T) {
	g := newSidedGame(X)
	// X wins quickly on top row
	playMoves(t, g, [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0, 2}})
	if !g.IsOver() {
		t.Fatalf("expected X win before extra move")
	}
	if err := g.ApplyMove(2, 2, O); err != ErrGameOver {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
	if g.Board().At(2, 2) != Empty {
		t.Fatalf("board changed after game over")
	}
	g.SwitchTurn()
	if !g.IsOver() {
		t.Fatalf("over flag must not revert")
	}
}

func TestSetDifficultyRequiresSide(t *testing.T) {
	g := New()
	err := g.SetDifficulty(Hard)
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	var nr *NotReadyError
	if !errors.As(err, &nr) || nr.Reason != ReasonChooseSide {
		t.Fatalf("expected reason %q, got %v", ReasonChooseSide, err)
	}
	if g.Difficulty() != Unset {
		t.Fatalf("difficulty must stay unset")
	}
	g.ChooseSide(O)
	if err := g.SetDifficulty(Hard); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Difficulty() != Hard {
		t.Fatalf("expected hard, got %v", g.Difficulty())
	}
}

func TestOutcomeDelta(t *testing.T) {
	cases := map[Outcome]Delta{
		OutcomePending:  {},
		OutcomeHumanWin: {Wins: 1},
		OutcomeAIWin:    {Losses: 1},
		OutcomeTie:      {Ties: 1},
	}
	for o, want := range cases {
		if got := o.Delta(); got != want {
			t.Fatalf("%v: expected %+v, got %+v", o, want, got)
		}
	}
}

func TestSnapshotCopiesState(t *testing.T) {
	g := newSidedGame(O)
	if err := g.SetDifficulty(Easy); err != nil {
		t.Fatalf("difficulty: %v", err)
	}
	if err := g.ApplyMove(1, 1, X); err != nil {
		t.Fatalf("move: %v", err)
	}
	s := g.Snapshot()
	if s.Board.At(1, 1) != X || s.HumanSide != O || s.AISide != X || s.Moves != 1 || s.Difficulty != Easy {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	s.Board[0] = O
	if g.Board()[0] != Empty {
		t.Fatalf("snapshot aliases the live board")
	}
}
