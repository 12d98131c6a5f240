// Package leaderboard stores per-player win/loss/tie totals.
package leaderboard

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

var ErrEmptyUsername = errors.New("username required")

// Entry is one player's totals.
type Entry struct {
	Username string `json:"username"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Ties     int    `json:"ties"`
}

// Store accumulates match results and lists the best players.
type Store interface {
	Record(ctx context.Context, username string, d domain.Delta) error
	Top(ctx context.Context, n int) ([]Entry, error)
}

// sortEntries orders by wins descending, then username.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		return entries[i].Username < entries[j].Username
	})
}

func normalize(username string) (string, error) {
	u := strings.TrimSpace(username)
	if u == "" {
		return "", ErrEmptyUsername
	}
	return u, nil
}

// MemoryStore keeps totals in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

func (m *MemoryStore) Record(_ context.Context, username string, d domain.Delta) error {
	u, err := normalize(username)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[u]
	if !ok {
		e = &Entry{Username: u}
		m.entries[u] = e
	}
	e.Wins += d.Wins
	e.Losses += d.Losses
	e.Ties += d.Ties
	return nil
}

func (m *MemoryStore) Top(_ context.Context, n int) ([]Entry, error) {
	m.mu.Lock()
	out := lo.Map(lo.Values(m.entries), func(e *Entry, _ int) Entry { return *e })
	m.mu.Unlock()
	sortEntries(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}
