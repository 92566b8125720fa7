// Package game is the application layer of the mini-game engine: session
// lifecycle, input routing per variant, timeout expiry and unconditional
// teardown.
package game

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"helpbot/internal/application/gateway"
	domain "helpbot/internal/domain/game"
	"helpbot/internal/domain/shared/events"
	"helpbot/internal/domain/user"
	sharedConfig "helpbot/internal/shared/config"
	"helpbot/internal/shared/errors"
	"helpbot/internal/shared/goroutine"
	"helpbot/internal/shared/id"
	"helpbot/internal/shared/logger"
)

// RateLimiter is the slice of the limiter contract the game engine needs.
type RateLimiter interface {
	Allow(key string) (bool, error)
	RetryAfter(key string) (time.Duration, error)
}

// StartResult is returned to the dispatcher for rendering.
type StartResult struct {
	SessionID string
	GameType  domain.GameType
	Prompt    gateway.Post
}

// MoveResult describes the effect of one routed input.
type MoveResult struct {
	Finished bool
	Result   domain.Result
	Response gateway.Post
}

type Service struct {
	registry   domain.Registry
	limiter    RateLimiter
	gw         gateway.Gateway
	userRepo   user.Repository
	history    domain.HistoryRepository
	dispatcher events.EventDispatcher
	logger     logger.Interface
	config     sharedConfig.GameConfig
	timeout    time.Duration

	rngMu sync.Mutex
	rng   *rand.Rand

	// schedule registers the expiry timer; injected for tests.
	schedule func(d time.Duration, fn func()) *time.Timer
}

func NewService(
	registry domain.Registry,
	limiter RateLimiter,
	gw gateway.Gateway,
	userRepo user.Repository,
	history domain.HistoryRepository,
	dispatcher events.EventDispatcher,
	log logger.Interface,
	config sharedConfig.GameConfig,
) *Service {
	s := &Service{
		registry:   registry,
		limiter:    limiter,
		gw:         gw,
		userRepo:   userRepo,
		history:    history,
		dispatcher: dispatcher,
		logger:     log.Named("game"),
		config:     config,
		timeout:    time.Duration(config.TimeoutSeconds) * time.Second,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.schedule = func(d time.Duration, fn func()) *time.Timer {
		return time.AfterFunc(d, func() {
			goroutine.SafeCall(s.logger, "game-timeout", fn)
		})
	}
	return s
}

// Start creates a session for the user, enforcing the one-session invariant
// and the per-user game rate limit.
func (s *Service) Start(ctx context.Context, userID, channelID, gameTypeRaw string) (*StartResult, error) {
	gameType, err := domain.NewGameType(gameTypeRaw)
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}

	// The active-session check runs before the limiter so retrying with a
	// running game costs no quota. PutIfAbsent below stays the authoritative
	// atomic check.
	existing, err := s.registry.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.NewSessionAlreadyActiveError("finish your current game first")
	}

	if err := s.allowAction(userID); err != nil {
		return nil, err
	}

	state, err := s.newState(gameType)
	if err != nil {
		return nil, err
	}

	session, err := domain.NewSession(id.MustGenerateWithPrefix(id.PrefixSession, id.DefaultLength), userID, channelID, state)
	if err != nil {
		return nil, errors.NewInternalError(err.Error())
	}

	stored, err := s.registry.PutIfAbsent(ctx, session)
	if err != nil {
		return nil, err
	}
	if !stored {
		return nil, errors.NewSessionAlreadyActiveError("finish your current game first")
	}

	if s.timeout > 0 {
		session.SetTimeoutHandle(s.schedule(s.timeout, func() {
			s.expire(session)
		}))
	}

	if err := s.dispatcher.Publish(domain.NewGameStartedEvent(session.ID(), userID, gameType, time.Now())); err != nil {
		s.logger.Warnw("failed to publish game start", "session_id", session.ID(), "error", err)
	}

	s.logger.Infow("game started", "session_id", session.ID(), "user_id", userID, "type", gameType)

	return &StartResult{
		SessionID: session.ID(),
		GameType:  gameType,
		Prompt:    s.renderPrompt(session),
	}, nil
}

func (s *Service) newState(gameType domain.GameType) (domain.State, error) {
	difficulty, err := domain.NewDifficulty(s.config.Difficulty)
	if err != nil {
		return nil, errors.NewInternalError(err.Error())
	}

	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	switch gameType {
	case domain.TypeTicTacToe:
		return domain.NewTicTacToe(difficulty)
	case domain.TypeMath:
		return domain.NewMathChallenge(difficulty, s.rng)
	case domain.TypeGuess:
		return domain.NewNumberGuess(s.config.GuessRangeMax, s.config.GuessMaxAttempts, s.rng)
	case domain.TypeRPS:
		return domain.NewRPS(), nil
	case domain.TypeTrivia:
		return domain.NewTrivia(pickTriviaQuestion(s.rng))
	case domain.TypeHangman:
		return domain.NewHangman(pickHangmanWord(s.rng), s.config.HangmanMaxWrong)
	default:
		return nil, errors.NewInvalidInputError("unknown game type")
	}
}

// allowAction charges one token of the game quota and converts exhaustion
// into a rate-limited error.
func (s *Service) allowAction(userID string) error {
	allowed, err := s.limiter.Allow(userID)
	if err != nil {
		return errors.NewInternalError("rate limiter unavailable")
	}
	if !allowed {
		wait, _ := s.limiter.RetryAfter(userID)
		return errors.NewRateLimitedError(
			"too many game requests",
			fmt.Sprintf("retry in %s", wait.Round(time.Second)),
		)
	}
	return nil
}

// HandleButton routes a button-driven move. action is the decoded payload
// after its prefix, e.g. ttt_4 -> "4".
func (s *Service) HandleButton(ctx context.Context, userID string, gameType domain.GameType, payload string) (*MoveResult, error) {
	session, err := s.registry.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.NewSessionNotFoundError("you have no active game")
	}
	if session.GameType() != gameType {
		return nil, errors.NewInvalidTransitionError(
			fmt.Sprintf("your active game is %s", session.GameType().Label()),
		)
	}

	// Moves share the start quota so button mashing cannot sidestep it.
	if err := s.allowAction(userID); err != nil {
		return nil, err
	}

	switch state := session.State().(type) {
	case *domain.TicTacToeState:
		return s.playTicTacToe(ctx, session, state, payload)
	case *domain.RPSState:
		return s.playRPS(ctx, session, state, payload)
	case *domain.TriviaState:
		return s.playTrivia(ctx, session, state, payload)
	case *domain.HangmanState:
		return s.playHangman(ctx, session, state, payload)
	default:
		return nil, errors.NewInvalidTransitionError("this game is played through chat messages")
	}
}

// HandleMessage routes a plain chat message to the user's message-driven
// session. Messages from users without a matching session, or from a context
// other than the session's origin channel, are ignored.
func (s *Service) HandleMessage(ctx context.Context, userID, channelID, text string) (*MoveResult, error) {
	session, err := s.registry.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil || !session.GameType().IsMessageDriven() {
		return nil, nil
	}
	if session.ChannelID() != channelID {
		return nil, nil
	}

	// Charged only after the origin match so unrelated chatter costs nothing.
	if err := s.allowAction(userID); err != nil {
		return nil, err
	}

	switch state := session.State().(type) {
	case *domain.MathState:
		outcome, err := state.Attempt(text)
		if err != nil {
			return nil, errors.NewInvalidInputError(err.Error())
		}
		return s.resolve(ctx, session, outcome, s.mathSummary(state, outcome))
	case *domain.GuessState:
		outcome, hint, err := state.Guess(text)
		if err != nil {
			return nil, errors.NewInvalidInputError(err.Error())
		}
		return s.resolve(ctx, session, outcome, s.guessSummary(state, outcome, hint))
	default:
		return nil, nil
	}
}

func (s *Service) playTicTacToe(ctx context.Context, session *domain.Session, state *domain.TicTacToeState, payload string) (*MoveResult, error) {
	pos, err := strconv.Atoi(payload)
	if err != nil {
		return nil, errors.NewInvalidInputError("invalid cell")
	}

	outcome, err := state.PlayerMove(pos)
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}

	if outcome == domain.OutcomeContinue {
		s.rngMu.Lock()
		_, outcome = state.AIMove(s.rng)
		s.rngMu.Unlock()
	}

	post := gateway.Post{
		Title:       "Tic-Tac-Toe",
		Description: renderBoard(state),
	}
	if outcome == domain.OutcomeContinue {
		post.Buttons = boardButtons(state)
	}

	return s.resolve(ctx, session, outcome, post)
}

func (s *Service) playRPS(ctx context.Context, session *domain.Session, state *domain.RPSState, payload string) (*MoveResult, error) {
	choice, err := domain.NewRPSChoice(payload)
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}

	s.rngMu.Lock()
	outcome, err := state.Play(choice, s.rng)
	s.rngMu.Unlock()
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}

	post := gateway.Post{
		Title:       "Rock-Paper-Scissors",
		Description: fmt.Sprintf("You played %s, I played %s.", choice, state.BotChoice()),
	}
	return s.resolve(ctx, session, outcome, post)
}

func (s *Service) playTrivia(ctx context.Context, session *domain.Session, state *domain.TriviaState, payload string) (*MoveResult, error) {
	index, err := strconv.Atoi(payload)
	if err != nil {
		return nil, errors.NewInvalidInputError("invalid answer")
	}

	outcome, err := state.Answer(index)
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}

	post := gateway.Post{
		Title:       "Trivia",
		Description: fmt.Sprintf("The correct answer was: %s", state.Question().Options[state.Question().CorrectIndex]),
	}
	return s.resolve(ctx, session, outcome, post)
}

func (s *Service) playHangman(ctx context.Context, session *domain.Session, state *domain.HangmanState, payload string) (*MoveResult, error) {
	outcome, err := state.GuessLetter(payload)
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}

	description := fmt.Sprintf("%s\nWrong guesses: %d/%d", state.Revealed(), state.WrongGuesses(), state.MaxWrong())
	if outcome == domain.OutcomeLose {
		description = fmt.Sprintf("The word was %s.", state.Word())
	}

	post := gateway.Post{Title: "Hangman", Description: description}
	return s.resolve(ctx, session, outcome, post)
}

// resolve turns a move outcome into either a continuing response or a full
// session teardown.
func (s *Service) resolve(ctx context.Context, session *domain.Session, outcome domain.Outcome, post gateway.Post) (*MoveResult, error) {
	result, terminal := outcome.ToResult()
	if !terminal {
		return &MoveResult{Response: post}, nil
	}

	if !session.ClaimTermination(result) {
		// The timeout already won the race; this move's continuation is a
		// no-op and never a crash.
		return nil, errors.NewSessionNotFoundError("the game already ended")
	}

	s.teardown(ctx, session)

	post.Description = post.Description + "\n" + verdict(result)
	post.Buttons = append(post.Buttons, playAgainRow(session.GameType()))

	return &MoveResult{Finished: true, Result: result, Response: post}, nil
}

// expire is the timer path of the termination race.
func (s *Service) expire(session *domain.Session) {
	if !session.ClaimTermination(domain.ResultTimeout) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.teardown(ctx, session)

	post := gateway.Post{
		Title:       session.GameType().Label(),
		Description: "Time is up, the game ended.",
		Buttons:     [][]gateway.Button{playAgainRow(session.GameType())},
	}
	if session.ChannelID() != "" {
		if err := s.gw.PostMessage(ctx, session.ChannelID(), post); err != nil {
			s.logger.Warnw("failed to post timeout notice", "session_id", session.ID(), "error", err)
		}
	}
}

// teardown runs the unconditional cleanup for the termination winner: remove
// the session, bump games_played, persist the historical row and emit the
// game_ended event.
func (s *Service) teardown(ctx context.Context, session *domain.Session) {
	if _, err := s.registry.Remove(ctx, session.UserID()); err != nil {
		s.logger.Warnw("failed to remove session", "session_id", session.ID(), "error", err)
	}

	player, err := s.userRepo.GetOrCreate(ctx, session.UserID())
	if err != nil {
		s.logger.Warnw("failed to load user for games counter", "user_id", session.UserID(), "error", err)
	} else {
		player.IncrementGamesPlayed()
		if err := s.userRepo.Update(ctx, player); err != nil {
			s.logger.Warnw("failed to update games_played counter", "user_id", session.UserID(), "error", err)
		}
	}

	if s.history != nil {
		if err := s.history.SaveFinished(ctx, session); err != nil {
			s.logger.Warnw("failed to save game record", "session_id", session.ID(), "error", err)
		}
	}

	event := domain.NewGameEndedEvent(
		session.ID(), session.UserID(), session.GameType(),
		session.Result(), session.Duration(), time.Now(),
	)
	if err := s.dispatcher.Publish(event); err != nil {
		s.logger.Warnw("failed to publish game end", "session_id", session.ID(), "error", err)
	}

	s.logger.Infow("game ended",
		"session_id", session.ID(),
		"user_id", session.UserID(),
		"result", session.Result(),
		"duration", session.Duration(),
	)
}

func (s *Service) renderPrompt(session *domain.Session) gateway.Post {
	switch state := session.State().(type) {
	case *domain.TicTacToeState:
		return gateway.Post{
			Title:       "Tic-Tac-Toe",
			Description: "You are X. Pick a cell.",
			Buttons:     boardButtons(state),
		}
	case *domain.MathState:
		return gateway.Post{
			Title:       "Math Challenge",
			Description: fmt.Sprintf("What is %s? Reply with the answer.", state.Question()),
		}
	case *domain.GuessState:
		return gateway.Post{
			Title:       "Number Guessing",
			Description: fmt.Sprintf("I picked a number between 1 and %d. You have %d attempts.", state.RangeMax(), state.AttemptsLeft()),
		}
	case *domain.RPSState:
		return gateway.Post{
			Title: "Rock-Paper-Scissors",
			Buttons: [][]gateway.Button{{
				{Label: "Rock", Action: "rps_rock"},
				{Label: "Paper", Action: "rps_paper"},
				{Label: "Scissors", Action: "rps_scissors"},
			}},
		}
	case *domain.TriviaState:
		q := state.Question()
		buttons := make([]gateway.Button, 0, 4)
		for i, option := range q.Options {
			buttons = append(buttons, gateway.Button{
				Label:  option,
				Action: fmt.Sprintf("trivia_%d", i),
			})
		}
		return gateway.Post{
			Title:       "Trivia",
			Description: q.Question,
			Buttons:     [][]gateway.Button{buttons},
		}
	case *domain.HangmanState:
		return gateway.Post{
			Title:       "Hangman",
			Description: fmt.Sprintf("%s\nGuess one letter at a time (press a letter button).", state.Revealed()),
			Buttons:     letterButtons(),
		}
	default:
		return gateway.Post{Title: session.GameType().Label()}
	}
}

func (s *Service) mathSummary(state *domain.MathState, outcome domain.Outcome) gateway.Post {
	description := "Correct!"
	if outcome == domain.OutcomeLose {
		description = fmt.Sprintf("Wrong, the answer was %d.", state.Answer())
	}
	return gateway.Post{Title: "Math Challenge", Description: description}
}

func (s *Service) guessSummary(state *domain.GuessState, outcome domain.Outcome, hint domain.Hint) gateway.Post {
	var description string
	switch {
	case outcome == domain.OutcomeWin:
		description = fmt.Sprintf("Correct, it was %d!", state.Secret())
	case outcome == domain.OutcomeLose:
		description = fmt.Sprintf("Out of attempts, the number was %d.", state.Secret())
	case hint == domain.HintHigher:
		description = fmt.Sprintf("Higher. %d attempts left.", state.AttemptsLeft())
	default:
		description = fmt.Sprintf("Lower. %d attempts left.", state.AttemptsLeft())
	}
	return gateway.Post{Title: "Number Guessing", Description: description}
}

func verdict(result domain.Result) string {
	switch result {
	case domain.ResultWin:
		return "You win!"
	case domain.ResultLose:
		return "You lose."
	case domain.ResultTie:
		return "It's a tie."
	default:
		return "The game timed out."
	}
}

func playAgainRow(gameType domain.GameType) []gateway.Button {
	return []gateway.Button{
		{Label: "Play again", Action: "play_again_" + gameType.String()},
		{Label: "Another game", Action: "change_game"},
	}
}

func renderBoard(state *domain.TicTacToeState) string {
	board := state.Board()
	var b strings.Builder
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			cell := board[row*3+col]
			if cell == domain.CellEmpty {
				b.WriteByte('.')
			} else {
				b.WriteByte(cell)
			}
			if col < 2 {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func boardButtons(state *domain.TicTacToeState) [][]gateway.Button {
	rows := make([][]gateway.Button, 0, 3)
	for row := 0; row < 3; row++ {
		buttons := make([]gateway.Button, 0, 3)
		for col := 0; col < 3; col++ {
			pos := row*3 + col
			label := "·"
			if cell := state.Cell(pos); cell != domain.CellEmpty {
				label = string(cell)
			}
			buttons = append(buttons, gateway.Button{
				Label:  label,
				Action: fmt.Sprintf("ttt_%d", pos),
			})
		}
		rows = append(rows, buttons)
	}
	return rows
}

func letterButtons() [][]gateway.Button {
	var rows [][]gateway.Button
	var row []gateway.Button
	for letter := 'A'; letter <= 'Z'; letter++ {
		row = append(row, gateway.Button{
			Label:  string(letter),
			Action: "hangman_" + string(letter),
		})
		if len(row) == 7 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}
