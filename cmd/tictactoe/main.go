package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jaminalder/tictactoe-ai/internal/app"
	"github.com/jaminalder/tictactoe-ai/internal/config"
	"github.com/jaminalder/tictactoe-ai/internal/domain"
	"github.com/jaminalder/tictactoe-ai/internal/identity"
	"github.com/jaminalder/tictactoe-ai/internal/leaderboard"
	"github.com/jaminalder/tictactoe-ai/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	setupLogging(cfg)

	ctx := context.Background()
	scores, closeScores, err := openLeaderboard(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Leaderboard).Msg("leaderboard")
	}
	defer closeScores()

	var issuer *identity.Issuer
	if cfg.JWTSecret != "" {
		issuer, err = identity.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("identity")
		}
	} else {
		log.Warn().Msg("TICTACTOE_JWT_SECRET not set, players stay anonymous")
	}

	svc := app.NewService(
		app.WithRecorder(scores),
		app.WithGameFactory(gameFactory(cfg.HardMemo)),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           web.NewServer(svc, scores, issuer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	pruneCtx, stopPrune := context.WithCancel(ctx)
	defer stopPrune()
	go pruneLoop(pruneCtx, svc, cfg.SessionTTL)

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("leaderboard", cfg.Leaderboard).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}

func setupLogging(cfg *config.Config) {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if !cfg.LogJSON {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func openLeaderboard(ctx context.Context, cfg *config.Config) (leaderboard.Store, func(), error) {
	switch cfg.Leaderboard {
	case config.BackendSQLite:
		st, err := leaderboard.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return leaderboard.NewRedisStore(rdb, "tictactoe"), func() { _ = rdb.Close() }, nil
	default:
		return leaderboard.NewMemoryStore(), func() {}, nil
	}
}

func gameFactory(memo string) func() *domain.Game {
	return func() *domain.Game {
		if memo == config.MemoPerspective {
			return domain.New(domain.WithMemo(domain.NewPerspectiveMemo()))
		}
		return domain.New()
	}
}

func pruneLoop(ctx context.Context, svc *app.Service, ttl time.Duration) {
	t := time.NewTicker(ttl / 4)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := svc.Prune(ttl); n > 0 {
				log.Debug().Int("pruned", n).Msg("sessions-pruned")
			}
		}
	}
}
