package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicTacToe_PlayerMove(t *testing.T) {
	ttt, err := NewTicTacToe(DifficultyHard)
	require.NoError(t, err)

	outcome, err := ttt.PlayerMove(4)
	require.NoError(t, err)
	assert.Equal(t, OutcomeContinue, outcome)
	assert.Equal(t, CellPlayer, ttt.Cell(4))

	_, err = ttt.PlayerMove(4)
	require.Error(t, err, "occupied cell rejected")

	_, err = ttt.PlayerMove(9)
	require.Error(t, err, "out of range rejected")
	_, err = ttt.PlayerMove(-1)
	require.Error(t, err)
}

func TestTicTacToe_WinDetection(t *testing.T) {
	tests := []struct {
		name  string
		cells []int
	}{
		{name: "top row", cells: []int{0, 1, 2}},
		{name: "middle column", cells: []int{1, 4, 7}},
		{name: "main diagonal", cells: []int{0, 4, 8}},
		{name: "anti diagonal", cells: []int{2, 4, 6}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ttt, err := NewTicTacToe(DifficultyEasy)
			require.NoError(t, err)
			for _, pos := range tc.cells {
				ttt.board[pos] = CellPlayer
			}
			assert.Equal(t, CellPlayer, ttt.Winner())
		})
	}
}

func TestTicTacToe_TieOnFullBoard(t *testing.T) {
	ttt, err := NewTicTacToe(DifficultyEasy)
	require.NoError(t, err)

	// X O X / X O O / O X X: full, no three in a row.
	layout := [9]byte{
		CellPlayer, CellAI, CellPlayer,
		CellPlayer, CellAI, CellAI,
		CellAI, CellPlayer, CellPlayer,
	}
	ttt.board = layout

	assert.Equal(t, CellEmpty, ttt.Winner())
	assert.True(t, ttt.IsFull())
	assert.Equal(t, OutcomeTie, ttt.evaluate())
}

// TestTicTacToe_HardAINeverLoses plays full games against a random opponent.
// Hard difficulty is plain minimax, so every game must end in an AI win or a
// tie, never a player win.
func TestTicTacToe_HardAINeverLoses(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for game := 0; game < 200; game++ {
		ttt, err := NewTicTacToe(DifficultyHard)
		require.NoError(t, err)

		for {
			empty := ttt.emptyCells()
			if len(empty) == 0 {
				break
			}
			outcome, err := ttt.PlayerMove(empty[rng.Intn(len(empty))])
			require.NoError(t, err)
			require.NotEqual(t, OutcomeWin, outcome,
				"random player beat hard AI on game %d: %v", game, ttt.Board())
			if outcome != OutcomeContinue {
				break
			}

			_, outcome = ttt.AIMove(rng)
			require.NotEqual(t, OutcomeWin, outcome,
				"AI move produced a player win, game %d", game)
			if outcome != OutcomeContinue {
				break
			}
		}
	}
}

func TestTicTacToe_AITakesImmediateWin(t *testing.T) {
	ttt, err := NewTicTacToe(DifficultyHard)
	require.NoError(t, err)

	// O O _ on the top row; AI to move must complete it.
	ttt.board = [9]byte{
		CellAI, CellAI, CellEmpty,
		CellPlayer, CellPlayer, CellEmpty,
		CellEmpty, CellEmpty, CellEmpty,
	}

	pos, outcome := ttt.AIMove(rand.New(rand.NewSource(1)))
	assert.Equal(t, 2, pos)
	assert.Equal(t, OutcomeLose, outcome, "player loses when AI completes the row")
}

func TestTicTacToe_AIBlocksPlayerWin(t *testing.T) {
	ttt, err := NewTicTacToe(DifficultyHard)
	require.NoError(t, err)

	// X X _ on the top row with no AI threat; AI must block cell 2.
	ttt.board = [9]byte{
		CellPlayer, CellPlayer, CellEmpty,
		CellEmpty, CellAI, CellEmpty,
		CellEmpty, CellEmpty, CellEmpty,
	}

	pos, outcome := ttt.AIMove(rand.New(rand.NewSource(1)))
	assert.Equal(t, 2, pos)
	assert.Equal(t, OutcomeContinue, outcome)
}

func TestTicTacToe_EasyAIMovesAreLegal(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ttt, err := NewTicTacToe(DifficultyEasy)
	require.NoError(t, err)

	_, err = ttt.PlayerMove(0)
	require.NoError(t, err)

	pos, _ := ttt.AIMove(rng)
	require.NotEqual(t, 0, pos)
	assert.Equal(t, CellAI, ttt.Cell(pos))
}

func TestNewDifficulty(t *testing.T) {
	for _, valid := range []string{"easy", "normal", "hard"} {
		d, err := NewDifficulty(valid)
		require.NoError(t, err)
		assert.True(t, d.IsValid())
	}

	_, err := NewDifficulty("impossible")
	require.Error(t, err)
}
