// Package config loads server settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Leaderboard backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Memo variants for the hard AI.
const (
	MemoBoard       = "board"
	MemoPerspective = "perspective"
)

type Config struct {
	Addr        string
	LogLevel    string
	LogJSON     bool
	JWTSecret   string
	TokenTTL    time.Duration
	SessionTTL  time.Duration
	Leaderboard string
	SQLitePath  string
	RedisAddr   string
	RedisPass   string
	RedisDB     int
	HardMemo    string
}

// Load reads TICTACTOE_* variables. Values from a .env file in the working
// directory are used when the variable is not already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TICTACTOE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", "24h")
	v.SetDefault("session_ttl", "2h")
	v.SetDefault("leaderboard", BackendMemory)
	v.SetDefault("sqlite_path", "tictactoe.db")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("hard_memo", MemoBoard)

	cfg := &Config{
		Addr:        v.GetString("addr"),
		LogLevel:    strings.ToLower(v.GetString("log_level")),
		LogJSON:     v.GetBool("log_json"),
		JWTSecret:   v.GetString("jwt_secret"),
		TokenTTL:    v.GetDuration("token_ttl"),
		SessionTTL:  v.GetDuration("session_ttl"),
		Leaderboard: strings.ToLower(v.GetString("leaderboard")),
		SQLitePath:  v.GetString("sqlite_path"),
		RedisAddr:   v.GetString("redis_addr"),
		RedisPass:   v.GetString("redis_password"),
		RedisDB:     v.GetInt("redis_db"),
		HardMemo:    strings.ToLower(v.GetString("hard_memo")),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Leaderboard {
	case BackendMemory, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("unknown leaderboard backend %q", c.Leaderboard)
	}
	switch c.HardMemo {
	case MemoBoard, MemoPerspective:
	default:
		return fmt.Errorf("unknown hard memo %q", c.HardMemo)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL)
	}
	return nil
}
