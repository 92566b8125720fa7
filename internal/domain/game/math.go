package game

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// MathState is a single arithmetic challenge with exactly one attempt.
// Difficulty selects the operand range and whether multiplication is in the
// operator pool; the expected answer is precomputed at generation time.
type MathState struct {
	question string
	answer   int
}

func NewMathChallenge(difficulty Difficulty, rng *rand.Rand) (*MathState, error) {
	if !difficulty.IsValid() {
		return nil, fmt.Errorf("invalid difficulty: %s", difficulty)
	}

	var operandMax int
	var ops []byte
	switch difficulty {
	case DifficultyEasy:
		operandMax = 10
		ops = []byte{'+', '-'}
	case DifficultyNormal:
		operandMax = 50
		ops = []byte{'+', '-', '*'}
	default:
		operandMax = 100
		ops = []byte{'+', '-', '*'}
	}

	num1 := rng.Intn(operandMax) + 1
	num2 := rng.Intn(operandMax) + 1
	op := ops[rng.Intn(len(ops))]

	var answer int
	switch op {
	case '+':
		answer = num1 + num2
	case '-':
		answer = num1 - num2
	case '*':
		answer = num1 * num2
	}

	return &MathState{
		question: fmt.Sprintf("%d %c %d", num1, op, num2),
		answer:   answer,
	}, nil
}

func (m *MathState) GameType() GameType {
	return TypeMath
}

func (m *MathState) Question() string {
	return m.question
}

func (m *MathState) Answer() int {
	return m.answer
}

// Attempt compares the single free-text reply against the expected answer.
// A non-numeric reply is invalid input, not a spent attempt.
func (m *MathState) Attempt(text string) (Outcome, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return OutcomeContinue, fmt.Errorf("answer must be a number")
	}

	if n == m.answer {
		return OutcomeWin, nil
	}
	return OutcomeLose, nil
}
