package domain

import "math"

// Memo caches minimax scores. Implementations decide which parts of the
// search position form the key.
type Memo interface {
	Lookup(b Board, depth int, maximizing bool) (int, bool)
	Store(b Board, depth int, maximizing bool, score int)
	Reset()
}

// BoardMemo keys scores on the board contents alone. A score cached at one
// depth or perspective is returned for any other search that reaches the
// same board.
type BoardMemo struct {
	scores map[string]int
}

func NewBoardMemo() *BoardMemo { return &BoardMemo{scores: make(map[string]int)} }

func (m *BoardMemo) Lookup(b Board, _ int, _ bool) (int, bool) {
	s, ok := m.scores[b.Key()]
	return s, ok
}

func (m *BoardMemo) Store(b Board, _ int, _ bool, score int) { m.scores[b.Key()] = score }

func (m *BoardMemo) Reset() { clear(m.scores) }

func (m *BoardMemo) Len() int { return len(m.scores) }

type perspectiveKey struct {
	board      Board
	depth      int
	maximizing bool
}

// PerspectiveMemo keys scores on the board, the depth and the side to
// maximize, so a hit always matches the search that stored it.
type PerspectiveMemo struct {
	scores map[perspectiveKey]int
}

func NewPerspectiveMemo() *PerspectiveMemo {
	return &PerspectiveMemo{scores: make(map[perspectiveKey]int)}
}

func (m *PerspectiveMemo) Lookup(b Board, depth int, maximizing bool) (int, bool) {
	s, ok := m.scores[perspectiveKey{b, depth, maximizing}]
	return s, ok
}

func (m *PerspectiveMemo) Store(b Board, depth int, maximizing bool, score int) {
	m.scores[perspectiveKey{b, depth, maximizing}] = score
}

func (m *PerspectiveMemo) Reset() { clear(m.scores) }

func (m *PerspectiveMemo) Len() int { return len(m.scores) }

const winScore = 10

// hardMove scores every empty cell with minimax and plays the strictly best
// one; on equal scores the earlier cell in row-major order is kept.
func (g *Game) hardMove() Pos {
	best := -1
	bestScore := math.MinInt
	for i := range g.board {
		if g.board[i] != Empty {
			continue
		}
		next := g.board
		next[i] = g.ai
		score := g.minimax(next, 0, false)
		if score <= bestScore {
			continue
		}
		bestScore = score
		best = i
	}
	g.place(best, g.ai)
	return posOf(best)
}

// minimax scores b from the AI's point of view. b is owned by this call;
// children get their own copy. The win test is turn-relative: the turn
// being tested is the side that produced b, which is the AI when the
// human is to move next and the human otherwise.
func (g *Game) minimax(b Board, depth int, maximizing bool) int {
	if score, ok := g.memo.Lookup(b, depth, maximizing); ok {
		return score
	}

	lastMover, mover := g.ai, g.human
	if maximizing {
		lastMover, mover = g.human, g.ai
	}

	var score int
	switch {
	case b.WinsFor(lastMover):
		if maximizing {
			score = -winScore + depth
		} else {
			score = winScore - depth
		}
	case b.Full():
		score = 0
	default:
		if maximizing {
			score = math.MinInt
		} else {
			score = math.MaxInt
		}
		for i := range b {
			if b[i] != Empty {
				continue
			}
			next := b
			next[i] = mover
			s := g.minimax(next, depth+1, !maximizing)
			if maximizing {
				score = max(score, s)
			} else {
				score = min(score, s)
			}
		}
	}

	g.memo.Store(b, depth, maximizing, score)
	return score
}
