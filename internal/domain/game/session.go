// Package game contains the mini-game session envelope and the per-variant
// state machines. Each variant owns its transition rules; the session owns
// the lifecycle: start, single live session per user, and a single
// terminating write that both the player path and the timeout path race for.
package game

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

type GameType string

const (
	TypeTicTacToe GameType = "tictactoe"
	TypeMath      GameType = "math"
	TypeGuess     GameType = "guess"
	TypeRPS       GameType = "rps"
	TypeTrivia    GameType = "trivia"
	TypeHangman   GameType = "hangman"
)

var validGameTypes = map[GameType]bool{
	TypeTicTacToe: true,
	TypeMath:      true,
	TypeGuess:     true,
	TypeRPS:       true,
	TypeTrivia:    true,
	TypeHangman:   true,
}

func (g GameType) String() string {
	return string(g)
}

// AllGameTypes returns every variant in menu order.
func AllGameTypes() []GameType {
	return []GameType{TypeTicTacToe, TypeMath, TypeGuess, TypeRPS, TypeTrivia, TypeHangman}
}

// Label returns the variant's display name.
func (g GameType) Label() string {
	switch g {
	case TypeTicTacToe:
		return "Tic-Tac-Toe"
	case TypeMath:
		return "Math Challenge"
	case TypeGuess:
		return "Number Guessing"
	case TypeRPS:
		return "Rock-Paper-Scissors"
	case TypeTrivia:
		return "Trivia"
	case TypeHangman:
		return "Hangman"
	default:
		return string(g)
	}
}

func (g GameType) IsValid() bool {
	return validGameTypes[g]
}

// IsMessageDriven reports whether the variant is played through plain chat
// messages rather than button presses.
func (g GameType) IsMessageDriven() bool {
	return g == TypeMath || g == TypeGuess
}

func NewGameType(s string) (GameType, error) {
	g := GameType(s)
	if !g.IsValid() {
		return "", fmt.Errorf("invalid game type: %s", s)
	}
	return g, nil
}

// Result is the terminal outcome of a session.
type Result string

const (
	ResultWin     Result = "win"
	ResultLose    Result = "lose"
	ResultTie     Result = "tie"
	ResultTimeout Result = "timeout"
)

// Outcome is the effect of a single move inside a variant.
type Outcome int

const (
	OutcomeContinue Outcome = iota
	OutcomeWin
	OutcomeLose
	OutcomeTie
)

// ToResult maps a terminal move outcome to a session result.
func (o Outcome) ToResult() (Result, bool) {
	switch o {
	case OutcomeWin:
		return ResultWin, true
	case OutcomeLose:
		return ResultLose, true
	case OutcomeTie:
		return ResultTie, true
	default:
		return "", false
	}
}

// State is the variant-specific payload of a session.
type State interface {
	GameType() GameType
}

// Session is the live state of exactly one in-progress mini-game for a user.
type Session struct {
	id        string
	userID    string
	channelID string
	gameType  GameType
	startedAt time.Time
	state     State

	// terminated is the single ownership flag for the terminal transition.
	// Whoever flips it first (player move or timeout) runs the teardown side
	// effects; the loser's continuation is a no-op.
	terminated atomic.Bool

	mu      sync.Mutex
	timer   *time.Timer
	endedAt time.Time
	result  Result
}

func NewSession(id, userID, channelID string, state State) (*Session, error) {
	if len(id) == 0 {
		return nil, fmt.Errorf("session ID is required")
	}
	if len(userID) == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if state == nil {
		return nil, fmt.Errorf("game state is required")
	}

	return &Session{
		id:        id,
		userID:    userID,
		channelID: channelID,
		gameType:  state.GameType(),
		startedAt: time.Now(),
		state:     state,
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) UserID() string {
	return s.userID
}

func (s *Session) ChannelID() string {
	return s.channelID
}

func (s *Session) GameType() GameType {
	return s.gameType
}

func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

func (s *Session) State() State {
	return s.state
}

// SetTimeoutHandle registers the pending expiry timer so any terminating path
// can cancel it.
func (s *Session) SetTimeoutHandle(t *time.Timer) {
	s.mu.Lock()
	s.timer = t
	s.mu.Unlock()
}

// ClaimTermination attempts the single terminating write. It returns true for
// exactly one caller per session; that caller records the result, cancels any
// pending timer and must run the teardown side effects. All later callers get
// false and must do nothing.
func (s *Session) ClaimTermination(result Result) bool {
	if !s.terminated.CompareAndSwap(false, true) {
		return false
	}

	s.mu.Lock()
	s.result = result
	s.endedAt = time.Now()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	return true
}

// Terminated reports whether the terminal transition has been claimed.
func (s *Session) Terminated() bool {
	return s.terminated.Load()
}

// Result returns the terminal result. Only meaningful after termination.
func (s *Session) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Duration returns how long the session ran. Only meaningful after termination.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endedAt.Sub(s.startedAt)
}
