package leaderboard

import (
	"context"
	"fmt"
	"strconv"

	redis "github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

// RedisStore keeps one hash per player plus a sorted set ranking players
// by wins.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client. Keys are namespaced by prefix.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "tictactoe:lb"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (r *RedisStore) rankKey() string           { return r.prefix + ":wins" }
func (r *RedisStore) userKey(name string) string { return r.prefix + ":user:" + name }

func (r *RedisStore) Record(ctx context.Context, username string, d domain.Delta) error {
	u, err := normalize(username)
	if err != nil {
		return err
	}
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		key := r.userKey(u)
		p.HIncrBy(ctx, key, "wins", int64(d.Wins))
		p.HIncrBy(ctx, key, "losses", int64(d.Losses))
		p.HIncrBy(ctx, key, "ties", int64(d.Ties))
		p.ZIncrBy(ctx, r.rankKey(), float64(d.Wins), u)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record %s: %w", u, err)
	}
	return nil
}

func (r *RedisStore) Top(ctx context.Context, n int) ([]Entry, error) {
	names, err := r.rankedNames(ctx, n)
	if err != nil {
		return nil, err
	}
	cmds := make([]*redis.MapStringStringCmd, len(names))
	_, err = r.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, name := range names {
			cmds[i] = p.HGetAll(ctx, r.userKey(name))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load leaderboard entries: %w", err)
	}
	out := make([]Entry, 0, len(names))
	for i, name := range names {
		vals := cmds[i].Val()
		out = append(out, Entry{
			Username: name,
			Wins:     atoi(vals["wins"]),
			Losses:   atoi(vals["losses"]),
			Ties:     atoi(vals["ties"]),
		})
	}
	// equal scores come back in reverse lexical order
	sortEntries(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// rankedNames returns every player needed to build the top n. When the
// n-th place is tied, all players sharing that score are included so the
// username tie-break can be applied before trimming.
func (r *RedisStore) rankedNames(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		names, err := r.rdb.ZRevRange(ctx, r.rankKey(), 0, -1).Result()
		if err != nil {
			return nil, fmt.Errorf("rank leaderboard: %w", err)
		}
		return names, nil
	}
	top, err := r.rdb.ZRevRangeWithScores(ctx, r.rankKey(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("rank leaderboard: %w", err)
	}
	if len(top) < n {
		return lo.Map(top, func(z redis.Z, _ int) string { return z.Member.(string) }), nil
	}
	cutoff := strconv.FormatFloat(top[len(top)-1].Score, 'f', -1, 64)
	names, err := r.rdb.ZRevRangeByScore(ctx, r.rankKey(), &redis.ZRangeBy{Min: cutoff, Max: "+inf"}).Result()
	if err != nil {
		return nil, fmt.Errorf("rank leaderboard ties: %w", err)
	}
	return names, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
