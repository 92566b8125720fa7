package game

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Hint tells the guesser which direction the secret lies.
type Hint int

const (
	HintCorrect Hint = iota
	HintHigher
	HintLower
)

// GuessState is a number-guessing game: a secret integer in [1, rangeMax]
// and a fixed attempt budget.
type GuessState struct {
	secret       int
	rangeMax     int
	maxAttempts  int
	attemptsUsed int
}

func NewNumberGuess(rangeMax, maxAttempts int, rng *rand.Rand) (*GuessState, error) {
	if rangeMax < 2 {
		return nil, fmt.Errorf("range max must be at least 2")
	}
	if maxAttempts < 1 {
		return nil, fmt.Errorf("max attempts must be at least 1")
	}

	return &GuessState{
		secret:      rng.Intn(rangeMax) + 1,
		rangeMax:    rangeMax,
		maxAttempts: maxAttempts,
	}, nil
}

// reconstructGuess builds a state with a known secret, for tests.
func reconstructGuess(secret, rangeMax, maxAttempts, attemptsUsed int) *GuessState {
	return &GuessState{
		secret:       secret,
		rangeMax:     rangeMax,
		maxAttempts:  maxAttempts,
		attemptsUsed: attemptsUsed,
	}
}

func (g *GuessState) GameType() GameType {
	return TypeGuess
}

func (g *GuessState) RangeMax() int {
	return g.rangeMax
}

func (g *GuessState) AttemptsUsed() int {
	return g.attemptsUsed
}

func (g *GuessState) AttemptsLeft() int {
	return g.maxAttempts - g.attemptsUsed
}

// Guess consumes one attempt for a well-formed numeric reply and returns the
// direction hint. Malformed or out-of-range replies do not spend an attempt.
func (g *GuessState) Guess(text string) (Outcome, Hint, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return OutcomeContinue, HintCorrect, fmt.Errorf("guess must be a number")
	}
	if n < 1 || n > g.rangeMax {
		return OutcomeContinue, HintCorrect, fmt.Errorf("guess must be between 1 and %d", g.rangeMax)
	}

	g.attemptsUsed++

	if n == g.secret {
		return OutcomeWin, HintCorrect, nil
	}

	hint := HintHigher
	if n > g.secret {
		hint = HintLower
	}

	if g.attemptsUsed >= g.maxAttempts {
		return OutcomeLose, hint, nil
	}
	return OutcomeContinue, hint, nil
}

// Secret exposes the answer for end-of-game reveals.
func (g *GuessState) Secret() int {
	return g.secret
}
