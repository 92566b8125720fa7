package game

import (
	"fmt"
	"math/rand"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

var validDifficulties = map[Difficulty]bool{
	DifficultyEasy:   true,
	DifficultyNormal: true,
	DifficultyHard:   true,
}

func (d Difficulty) IsValid() bool {
	return validDifficulties[d]
}

func NewDifficulty(s string) (Difficulty, error) {
	d := Difficulty(s)
	if !d.IsValid() {
		return "", fmt.Errorf("invalid difficulty: %s", s)
	}
	return d, nil
}

const (
	CellEmpty  byte = 0
	CellPlayer byte = 'X'
	CellAI     byte = 'O'

	// normalOptimalChance is the per-move probability that normal difficulty
	// plays the minimax move instead of a random one. Intentional
	// suboptimality keeps the game winnable.
	normalOptimalChance = 0.7
)

var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // columns
	{0, 4, 8}, {2, 4, 6}, // diagonals
}

// TicTacToeState is a 3x3 grid, player X against AI O. The player always
// moves first.
type TicTacToeState struct {
	board      [9]byte
	difficulty Difficulty
}

func NewTicTacToe(difficulty Difficulty) (*TicTacToeState, error) {
	if !difficulty.IsValid() {
		return nil, fmt.Errorf("invalid difficulty: %s", difficulty)
	}
	return &TicTacToeState{difficulty: difficulty}, nil
}

func (t *TicTacToeState) GameType() GameType {
	return TypeTicTacToe
}

func (t *TicTacToeState) Difficulty() Difficulty {
	return t.difficulty
}

// Board returns a copy of the grid, row-major.
func (t *TicTacToeState) Board() [9]byte {
	return t.board
}

// Cell returns the symbol at pos (0-8), or CellEmpty.
func (t *TicTacToeState) Cell(pos int) byte {
	if pos < 0 || pos > 8 {
		return CellEmpty
	}
	return t.board[pos]
}

// PlayerMove places the player's symbol on an empty cell and evaluates the
// board. OutcomeContinue means the AI still has to move.
func (t *TicTacToeState) PlayerMove(pos int) (Outcome, error) {
	if pos < 0 || pos > 8 {
		return OutcomeContinue, fmt.Errorf("cell must be between 0 and 8")
	}
	if t.board[pos] != CellEmpty {
		return OutcomeContinue, fmt.Errorf("cell %d is already taken", pos)
	}

	t.board[pos] = CellPlayer
	return t.evaluate(), nil
}

// AIMove computes and places the AI's move per the difficulty gating:
// easy is uniformly random, hard is always minimax, normal flips a
// per-move coin between the two.
func (t *TicTacToeState) AIMove(rng *rand.Rand) (int, Outcome) {
	empty := t.emptyCells()
	if len(empty) == 0 {
		return -1, OutcomeTie
	}

	var pos int
	switch t.difficulty {
	case DifficultyEasy:
		pos = empty[rng.Intn(len(empty))]
	case DifficultyNormal:
		if rng.Float64() < normalOptimalChance {
			pos = t.bestMove()
		} else {
			pos = empty[rng.Intn(len(empty))]
		}
	default:
		pos = t.bestMove()
	}

	t.board[pos] = CellAI
	return pos, t.evaluate()
}

// Winner returns the winning symbol, or CellEmpty when nobody has three in a row.
func (t *TicTacToeState) Winner() byte {
	return winner(t.board)
}

// IsFull reports whether no empty cell remains.
func (t *TicTacToeState) IsFull() bool {
	return len(t.emptyCells()) == 0
}

func (t *TicTacToeState) evaluate() Outcome {
	switch winner(t.board) {
	case CellPlayer:
		return OutcomeWin
	case CellAI:
		return OutcomeLose
	}
	if t.IsFull() {
		return OutcomeTie
	}
	return OutcomeContinue
}

func (t *TicTacToeState) emptyCells() []int {
	cells := make([]int, 0, 9)
	for i, c := range t.board {
		if c == CellEmpty {
			cells = append(cells, i)
		}
	}
	return cells
}

// bestMove returns the minimax-optimal cell for the AI. Ties in scoring pick
// the first move enumerated; equally-scored moves are game-theoretically
// equivalent.
func (t *TicTacToeState) bestMove() int {
	bestScore := -1000
	bestPos := -1

	for _, pos := range t.emptyCells() {
		t.board[pos] = CellAI
		score := minimax(&t.board, CellPlayer)
		t.board[pos] = CellEmpty

		if score > bestScore {
			bestScore = score
			bestPos = pos
		}
	}

	return bestPos
}

// minimax scores the board for the AI with utilities +10 (AI win), -10
// (player win) and 0 (tie). The search space is at most 9 plies, so no depth
// discount is applied.
func minimax(board *[9]byte, mover byte) int {
	switch winner(*board) {
	case CellAI:
		return 10
	case CellPlayer:
		return -10
	}

	full := true
	for _, c := range board {
		if c == CellEmpty {
			full = false
			break
		}
	}
	if full {
		return 0
	}

	var next byte
	if mover == CellAI {
		next = CellPlayer
	} else {
		next = CellAI
	}

	if mover == CellAI {
		best := -1000
		for i := range board {
			if board[i] != CellEmpty {
				continue
			}
			board[i] = mover
			if score := minimax(board, next); score > best {
				best = score
			}
			board[i] = CellEmpty
		}
		return best
	}

	best := 1000
	for i := range board {
		if board[i] != CellEmpty {
			continue
		}
		board[i] = mover
		if score := minimax(board, next); score < best {
			best = score
		}
		board[i] = CellEmpty
	}
	return best
}

func winner(board [9]byte) byte {
	for _, line := range winLines {
		a, b, c := board[line[0]], board[line[1]], board[line[2]]
		if a != CellEmpty && a == b && b == c {
			return a
		}
	}
	return CellEmpty
}
