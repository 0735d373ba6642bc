package search

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownDifficulty = errors.New("unknown difficulty")

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty accepts the names case-insensitively. An empty string is Medium.
func ParseDifficulty(value string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(value))) {
	case "", Medium:
		return Medium, nil
	case Easy:
		return Easy, nil
	case Hard:
		return Hard, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, value)
	}
}

// Depth is the number of plies minimax looks ahead.
func (that Difficulty) Depth() int {
	switch that {
	case Easy:
		return 1
	case Hard:
		return 4
	default:
		return 2
	}
}

func (that Difficulty) String() string {
	return string(that)
}
