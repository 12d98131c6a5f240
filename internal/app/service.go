package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

// Errors exposed by the service layer.
var (
	ErrNotFound       = errors.New("game not found")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrGameInProgress = errors.New("game already in progress")
)

// Recorder receives leaderboard increments for finished matches.
type Recorder interface {
	Record(ctx context.Context, username string, d domain.Delta) error
}

// GameState is a copy of a session's state handed to callers.
type GameState struct {
	ID      string
	Game    domain.Snapshot
	Created time.Time
	Updated time.Time
}

// TurnResult describes what happened during one human turn.
type TurnResult struct {
	State    GameState
	AIMoved  bool
	AIMove   domain.Pos
	GameOver bool
	Message  string
}

type session struct {
	id      string
	game    *domain.Game
	created time.Time
	updated time.Time
}

func (s *session) state() GameState {
	return GameState{ID: s.id, Game: s.game.Snapshot(), Created: s.created, Updated: s.updated}
}

type subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service manages one game per session and its subscribers. The engine
// itself is not thread safe; every access goes through mu.
type Service struct {
	mu       sync.Mutex
	games    map[string]*session
	subs     map[string]map[*subscriber]struct{}
	render   func(GameState) []byte
	recorder Recorder
	newGame  func() *domain.Game
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithRenderer sets the function used to build broadcast payloads.
func WithRenderer(renderer func(GameState) []byte) Option {
	return func(s *Service) {
		if renderer != nil {
			s.render = renderer
		}
	}
}

// WithRecorder sets the leaderboard sink.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithGameFactory sets how fresh games are built, e.g. to pick the memo
// variant or inject randomness.
func WithGameFactory(f func() *domain.Game) Option {
	return func(s *Service) {
		if f != nil {
			s.newGame = f
		}
	}
}

// NewService creates a service. Without options nothing is broadcast and
// finished matches are not recorded.
func NewService(opts ...Option) *Service {
	s := &Service{
		games:   make(map[string]*session),
		subs:    make(map[string]map[*subscriber]struct{}),
		render:  func(GameState) []byte { return nil },
		newGame: func() *domain.Game { return domain.New() },
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		s.render = func(GameState) []byte { return nil }
		return
	}
	s.render = renderer
}

// CreateGame creates and registers a new game.
func (s *Service) CreateGame() (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sess := &session{id: newSessionID(), game: s.newGame(), created: now, updated: now}
	s.games[sess.id] = sess
	liveSessions.Set(float64(len(s.games)))
	st := sess.state()
	return &st, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.games[id]
	if !ok {
		return nil, false
	}
	st := sess.state()
	return &st, true
}

// Reset replaces the session's game with a fresh one.
func (s *Service) Reset(id string) (*GameState, error) {
	return s.mutate(id, func(sess *session) (TurnResult, error) {
		sess.game = s.newGame()
		return TurnResult{}, nil
	})
}

// ChooseSide assigns the human's side. When a difficulty is already set
// and X belongs to the AI, the AI opens immediately.
func (s *Service) ChooseSide(id string, side domain.Cell) (*TurnResult, error) {
	st, res, err := s.mutateTurn(id, func(sess *session) (TurnResult, error) {
		g := sess.game
		if g.Snapshot().Moves > 0 {
			return TurnResult{}, ErrGameInProgress
		}
		g.ChooseSide(side)
		if g.Difficulty() == domain.Unset {
			return TurnResult{}, nil
		}
		return s.aiOpen(g)
	})
	if err != nil {
		return nil, err
	}
	res.State = *st
	return &res, nil
}

// ChooseDifficulty sets the AI strength. On a fresh board where the AI
// holds X, the AI opens.
func (s *Service) ChooseDifficulty(id string, d domain.Difficulty) (*TurnResult, error) {
	st, res, err := s.mutateTurn(id, func(sess *session) (TurnResult, error) {
		g := sess.game
		if err := g.SetDifficulty(d); err != nil {
			return TurnResult{}, err
		}
		return s.aiOpen(g)
	})
	if err != nil {
		return nil, err
	}
	res.State = *st
	return &res, nil
}

func (s *Service) aiOpen(g *domain.Game) (TurnResult, error) {
	if g.IsOver() || g.CurrentTurn() != g.AISide() || g.Snapshot().Moves > 0 {
		return TurnResult{}, nil
	}
	p, err := s.aiMove(g)
	if err != nil {
		return TurnResult{}, err
	}
	g.SwitchTurn()
	return TurnResult{AIMoved: true, AIMove: p}, nil
}

// Play applies the human's move at r, c and lets the AI answer. username
// may be empty; finished matches are only recorded for named players.
func (s *Service) Play(ctx context.Context, id, username string, r, c int) (*TurnResult, error) {
	var outcome domain.Outcome
	var diff domain.Difficulty
	st, res, err := s.mutateTurn(id, func(sess *session) (TurnResult, error) {
		g := sess.game
		switch {
		case g.HumanSide() == domain.Empty:
			return TurnResult{}, &domain.NotReadyError{Reason: domain.ReasonChooseSide}
		case g.Difficulty() == domain.Unset:
			return TurnResult{}, &domain.NotReadyError{Reason: domain.ReasonChooseDifficulty}
		case !g.IsOver() && g.CurrentTurn() != g.HumanSide():
			return TurnResult{}, ErrNotYourTurn
		}
		if err := g.Play(r, c); err != nil {
			return TurnResult{}, err
		}
		diff = g.Difficulty()
		if g.IsOver() {
			outcome = g.Outcome()
			return TurnResult{GameOver: true, Message: winMessage(g)}, nil
		}
		g.SwitchTurn()
		p, err := s.aiMove(g)
		if err != nil {
			return TurnResult{}, err
		}
		res := TurnResult{AIMoved: true, AIMove: p}
		if g.IsOver() {
			outcome = g.Outcome()
			res.GameOver = true
			res.Message = winMessage(g)
			return res, nil
		}
		g.SwitchTurn()
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	res.State = *st
	if res.GameOver {
		s.finish(ctx, id, username, outcome, diff)
	}
	return &res, nil
}

func (s *Service) aiMove(g *domain.Game) (domain.Pos, error) {
	start := time.Now()
	p, err := g.PerformAIMove()
	aiMoveSeconds.WithLabelValues(g.Difficulty().String()).Observe(time.Since(start).Seconds())
	return p, err
}

// winMessage is evaluated before the turn is switched, so CheckWin refers
// to the side that just moved.
func winMessage(g *domain.Game) string {
	if g.CheckWin() {
		return fmt.Sprintf("%s wins!", g.CurrentTurn())
	}
	return "It's a tie!"
}

func (s *Service) finish(ctx context.Context, id, username string, o domain.Outcome, d domain.Difficulty) {
	gamesFinished.WithLabelValues(o.String(), d.String()).Inc()
	if username == "" || s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, username, o.Delta()); err != nil {
		log.Error().Err(err).Str("game", id).Str("user", username).Msg("record-leaderboard-failed")
		return
	}
	log.Debug().Str("game", id).Str("user", username).Stringer("outcome", o).Msg("recorded-result")
}

// mutate runs fn under the lock, stamps the session and broadcasts the new
// state to subscribers.
func (s *Service) mutate(id string, fn func(*session) (TurnResult, error)) (*GameState, error) {
	st, _, err := s.mutateTurn(id, fn)
	return st, err
}

func (s *Service) mutateTurn(id string, fn func(*session) (TurnResult, error)) (*GameState, TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.games[id]
	if !ok {
		return nil, TurnResult{}, ErrNotFound
	}
	res, err := fn(sess)
	if err != nil {
		return nil, TurnResult{}, err
	}
	sess.updated = s.now()

	st := sess.state()
	s.broadcastLocked(id, s.render(st))
	return &st, res, nil
}

// broadcastLocked fans payload out without blocking. Subscribers whose
// buffer is still full are closed and dropped. Sends and closes both
// happen under mu.
func (s *Service) broadcastLocked(id string, payload []byte) {
	set := s.subs[id]
	for sub := range set {
		select {
		case sub.ch <- payload:
		default:
			sub.close()
			delete(set, sub)
		}
	}
}

// Subscribe registers a subscriber for a game. Returns a channel and an
// unsubscribe func; the channel is closed when ctx ends.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return nil, nil, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, 1)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub, nil
}

// Prune drops sessions idle for longer than maxIdle and closes their
// subscribers. It returns the number of sessions removed.
func (s *Service) Prune(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-maxIdle)
	n := 0
	for id, sess := range s.games {
		if sess.updated.After(cutoff) {
			continue
		}
		for sub := range s.subs[id] {
			sub.close()
		}
		delete(s.subs, id)
		delete(s.games, id)
		n++
	}
	liveSessions.Set(float64(len(s.games)))
	return n
}
