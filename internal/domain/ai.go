package domain

import "lukechampine.com/frand"

// Rand is the randomness consumed by the easy AI.
type Rand interface {
	// Intn returns a value in [0, n).
	Intn(n int) int
}

type frandSource struct{}

func (frandSource) Intn(n int) int { return frand.Intn(n) }

// PerformAIMove picks and places the AI's marker according to the
// difficulty. An unset difficulty plays as Medium.
func (g *Game) PerformAIMove() (Pos, error) {
	if g.human == Empty {
		return Pos{}, &NotReadyError{Reason: ReasonChooseSide}
	}
	if g.over {
		return Pos{}, ErrGameOver
	}
	switch g.difficulty {
	case Easy:
		return g.easyMove(), nil
	case Hard:
		return g.hardMove(), nil
	default:
		return g.mediumMove(), nil
	}
}

func (g *Game) easyMove() Pos {
	empty := g.board.EmptyCells()
	p := empty[g.rnd.Intn(len(empty))]
	g.place(p.index(), g.ai)
	return p
}

var (
	center  = Pos{1, 1}
	corners = []Pos{{0, 0}, {0, 2}, {2, 0}, {2, 2}}
	edges   = []Pos{{0, 1}, {1, 0}, {1, 2}, {2, 1}}
)

// mediumMove runs the strategies in priority order and stops at the first
// one that places a marker.
func (g *Game) mediumMove() Pos {
	strategies := []func() (Pos, bool){
		func() (Pos, bool) { return g.takeWinningCell(g.ai) },
		func() (Pos, bool) { return g.takeWinningCell(g.human) },
		func() (Pos, bool) { return g.takeFirstEmpty([]Pos{center}) },
		func() (Pos, bool) { return g.takeFirstEmpty(corners) },
		func() (Pos, bool) { return g.takeFirstEmpty(edges) },
	}
	for _, s := range strategies {
		if p, ok := s(); ok {
			return p
		}
	}
	// only reachable on a full board, which PerformAIMove rules out
	return Pos{0, 0}
}

// takeWinningCell finds the first empty cell (row-major) where side would
// complete a line and occupies it with the AI's marker. For the AI that is
// a win, for the human it is a block.
func (g *Game) takeWinningCell(side Cell) (Pos, bool) {
	for i := range g.board {
		if g.board[i] != Empty || !g.winsWith(i, side) {
			continue
		}
		g.place(i, g.ai)
		return posOf(i), true
	}
	return Pos{}, false
}

// winsWith probes idx for side with the turn set to side, restoring both
// the cell and the turn before returning.
func (g *Game) winsWith(idx int, side Cell) bool {
	saved := g.turn
	g.board[idx] = side
	g.turn = side
	won := g.CheckWin()
	g.board[idx] = Empty
	g.turn = saved
	return won
}

func (g *Game) takeFirstEmpty(cells []Pos) (Pos, bool) {
	for _, p := range cells {
		if g.board[p.index()] != Empty {
			continue
		}
		g.place(p.index(), g.ai)
		return p, true
	}
	return Pos{}, false
}
