package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Difficulty selects the AI strategy.
type Difficulty uint8

const (
	Unset Difficulty = iota
	Easy
	Medium
	Hard
)

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return "unset"
	}
}

var ErrInvalidDifficulty = errors.New("difficulty must be easy, medium or hard")

// ParseDifficulty reads a difficulty name, case-insensitive.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return Unset, fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
}
