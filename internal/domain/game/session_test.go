package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	state := NewRPS()
	s, err := NewSession("gs_test1", "user-1", "chan-1", state)
	require.NoError(t, err)
	return s
}

func TestNewSession(t *testing.T) {
	s := newTestSession(t)

	assert.Equal(t, TypeRPS, s.GameType())
	assert.False(t, s.Terminated())
	assert.False(t, s.StartedAt().IsZero())

	_, err := NewSession("", "user-1", "chan-1", NewRPS())
	require.Error(t, err)
	_, err = NewSession("gs_x", "", "chan-1", NewRPS())
	require.Error(t, err)
	_, err = NewSession("gs_x", "user-1", "chan-1", nil)
	require.Error(t, err)
}

func TestSession_ClaimTermination_OnlyOneWinner(t *testing.T) {
	s := newTestSession(t)

	assert.True(t, s.ClaimTermination(ResultWin))
	assert.False(t, s.ClaimTermination(ResultTimeout), "second claim is a no-op")

	assert.True(t, s.Terminated())
	assert.Equal(t, ResultWin, s.Result(), "loser's result never recorded")
}

// TestSession_ClaimTermination_Race drives the player path and the timeout
// path concurrently; exactly one of them may win the terminating write.
func TestSession_ClaimTermination_Race(t *testing.T) {
	for i := 0; i < 100; i++ {
		s := newTestSession(t)

		var wg sync.WaitGroup
		results := make(chan bool, 2)

		wg.Add(2)
		go func() {
			defer wg.Done()
			results <- s.ClaimTermination(ResultWin)
		}()
		go func() {
			defer wg.Done()
			results <- s.ClaimTermination(ResultTimeout)
		}()
		wg.Wait()
		close(results)

		winners := 0
		for won := range results {
			if won {
				winners++
			}
		}
		assert.Equal(t, 1, winners)
	}
}

func TestSession_ClaimTermination_CancelsTimer(t *testing.T) {
	s := newTestSession(t)

	fired := make(chan struct{}, 1)
	timer := time.AfterFunc(50*time.Millisecond, func() {
		fired <- struct{}{}
	})
	s.SetTimeoutHandle(timer)

	require.True(t, s.ClaimTermination(ResultWin))

	select {
	case <-fired:
		t.Fatal("timeout fired after a non-timeout termination")
	case <-time.After(120 * time.Millisecond):
	}
}

func TestSession_Duration(t *testing.T) {
	s := newTestSession(t)
	time.Sleep(10 * time.Millisecond)

	require.True(t, s.ClaimTermination(ResultTie))
	assert.GreaterOrEqual(t, s.Duration(), 10*time.Millisecond)
}

func TestGameType(t *testing.T) {
	assert.True(t, TypeMath.IsMessageDriven())
	assert.True(t, TypeGuess.IsMessageDriven())
	assert.False(t, TypeTicTacToe.IsMessageDriven())
	assert.False(t, TypeRPS.IsMessageDriven())

	_, err := NewGameType("chess")
	require.Error(t, err)

	g, err := NewGameType("hangman")
	require.NoError(t, err)
	assert.Equal(t, TypeHangman, g)
}
