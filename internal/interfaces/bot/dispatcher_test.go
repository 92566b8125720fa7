package bot

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appgame "helpbot/internal/application/game"
	"helpbot/internal/application/gateway"
	domaingame "helpbot/internal/domain/game"
	"helpbot/internal/domain/ticket"
	vo "helpbot/internal/domain/ticket/valueobjects"
	"helpbot/internal/infrastructure/telegram"
	sharedConfig "helpbot/internal/shared/config"
	"helpbot/internal/shared/errors"
	"helpbot/internal/shared/logger"
)

const staffChatID int64 = -100200300

type sentMessage struct {
	ChatID   int64
	ThreadID int64
	Text     string
	Keyboard *telegram.InlineKeyboardMarkup
}

type mockResponder struct {
	mu       sync.Mutex
	messages []sentMessage
	answers  []string
}

func (m *mockResponder) SendMessage(ctx context.Context, chatID, threadID int64, text string, keyboard *telegram.InlineKeyboardMarkup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, sentMessage{chatID, threadID, text, keyboard})
	return nil
}

func (m *mockResponder) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string, showAlert bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, text)
	return nil
}

type mockRecorder struct {
	mu      sync.Mutex
	entries map[string][]gateway.HistoryEntry
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{entries: make(map[string][]gateway.HistoryEntry)}
}

func (m *mockRecorder) RecordInbound(channelID string, entry gateway.HistoryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[channelID] = append(m.entries[channelID], entry)
}

type mockTicketRepo struct {
	findByChannelIDFn func(ctx context.Context, channelID string) (*ticket.Ticket, error)
	updateFn          func(ctx context.Context, t *ticket.Ticket) error
}

func (m *mockTicketRepo) Save(ctx context.Context, t *ticket.Ticket) error { return nil }
func (m *mockTicketRepo) Update(ctx context.Context, t *ticket.Ticket) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, t)
	}
	return nil
}

func (m *mockTicketRepo) FindByID(ctx context.Context, id uint) (*ticket.Ticket, error) {
	return nil, errors.NewNotFoundError("ticket not found")
}

func (m *mockTicketRepo) FindByNumber(ctx context.Context, number string) (*ticket.Ticket, error) {
	return nil, errors.NewNotFoundError("ticket not found")
}

func (m *mockTicketRepo) FindByChannelID(ctx context.Context, channelID string) (*ticket.Ticket, error) {
	if m.findByChannelIDFn != nil {
		return m.findByChannelIDFn(ctx, channelID)
	}
	return nil, errors.NewNotFoundError("this topic has no ticket")
}

func (m *mockTicketRepo) FindActiveByUserID(ctx context.Context, userID string) (*ticket.Ticket, error) {
	return nil, errors.NewNotFoundError("no active ticket for user")
}

func (m *mockTicketRepo) FindLatestClosedByUserID(ctx context.Context, userID string) (*ticket.Ticket, error) {
	return nil, errors.NewNotFoundError("no closed ticket for user")
}

func (m *mockTicketRepo) MarkClaimed(ctx context.Context, number, staffID string) (bool, error) {
	return true, nil
}

func (m *mockTicketRepo) MarkClosed(ctx context.Context, number, staffID, reason string) (bool, error) {
	return true, nil
}

func (m *mockTicketRepo) SetTranscriptRef(ctx context.Context, number, ref string) error {
	return nil
}

func (m *mockTicketRepo) CountClaimedByStaff(ctx context.Context) (map[string]int, error) {
	return map[string]int{}, nil
}

func (m *mockTicketRepo) List(ctx context.Context, filter ticket.Filter) ([]*ticket.Ticket, int64, error) {
	return nil, 0, nil
}

type mockGameEngine struct {
	startFn         func(ctx context.Context, userID, channelID, gameType string) (*appgame.StartResult, error)
	handleButtonFn  func(ctx context.Context, userID string, gameType domaingame.GameType, payload string) (*appgame.MoveResult, error)
	handleMessageFn func(ctx context.Context, userID, channelID, text string) (*appgame.MoveResult, error)
}

func (m *mockGameEngine) Start(ctx context.Context, userID, channelID, gameType string) (*appgame.StartResult, error) {
	if m.startFn != nil {
		return m.startFn(ctx, userID, channelID, gameType)
	}
	return &appgame.StartResult{SessionID: "gs_1", Prompt: gateway.Post{Title: "Game"}}, nil
}

func (m *mockGameEngine) HandleButton(ctx context.Context, userID string, gameType domaingame.GameType, payload string) (*appgame.MoveResult, error) {
	if m.handleButtonFn != nil {
		return m.handleButtonFn(ctx, userID, gameType, payload)
	}
	return &appgame.MoveResult{Response: gateway.Post{Title: "Move"}}, nil
}

func (m *mockGameEngine) HandleMessage(ctx context.Context, userID, channelID, text string) (*appgame.MoveResult, error) {
	if m.handleMessageFn != nil {
		return m.handleMessageFn(ctx, userID, channelID, text)
	}
	return nil, nil
}

type botFixture struct {
	dispatcher *Dispatcher
	responder  *mockResponder
	recorder   *mockRecorder
	games      *mockGameEngine
	tickets    *mockTicketRepo
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()
	f := &botFixture{
		responder: &mockResponder{},
		recorder:  newMockRecorder(),
		games:     &mockGameEngine{},
		tickets:   &mockTicketRepo{},
	}
	f.dispatcher = NewDispatcher(
		nil, nil, nil, nil, nil, nil, nil,
		f.games, f.tickets, f.recorder, f.responder,
		sharedConfig.TelegramConfig{StaffChatID: staffChatID},
		logger.NewLogger(),
	)
	return f
}

func callbackUpdate(userID int64, data string, chatID, threadID int64) *telegram.Update {
	return &telegram.Update{
		UpdateID: 1,
		CallbackQuery: &telegram.CallbackQuery{
			ID:   "cb-1",
			From: &telegram.User{ID: userID, Username: "alice"},
			Data: data,
			Message: &telegram.Message{
				MessageID:       10,
				MessageThreadID: threadID,
				Chat:            &telegram.Chat{ID: chatID},
			},
		},
	}
}

func messageUpdate(userID int64, text string, chatID, threadID int64) *telegram.Update {
	return &telegram.Update{
		UpdateID: 2,
		Message: &telegram.Message{
			MessageID:       11,
			MessageThreadID: threadID,
			From:            &telegram.User{ID: userID, Username: "alice"},
			Chat:            &telegram.Chat{ID: chatID},
			Text:            text,
		},
	}
}

func TestDecode(t *testing.T) {
	t.Run("callback with value", func(t *testing.T) {
		in, ok := Decode(callbackUpdate(7, "game_select:tictactoe", staffChatID, 42))
		require.True(t, ok)
		assert.Equal(t, KindButtonPress, in.Kind)
		assert.Equal(t, "7", in.UserID)
		assert.Equal(t, "game_select", in.Action)
		assert.Equal(t, "tictactoe", in.Value)
		assert.Equal(t, int64(42), in.ThreadID)
	})

	t.Run("callback without value", func(t *testing.T) {
		in, ok := Decode(callbackUpdate(7, "rate_5", 7, 0))
		require.True(t, ok)
		assert.Equal(t, "rate_5", in.Action)
		assert.Empty(t, in.Value)
	})

	t.Run("value keeps embedded colons", func(t *testing.T) {
		in, ok := Decode(callbackUpdate(7, "ref:123:456", 7, 0))
		require.True(t, ok)
		assert.Equal(t, "ref", in.Action)
		assert.Equal(t, "123:456", in.Value)
	})

	t.Run("plain message", func(t *testing.T) {
		in, ok := Decode(messageUpdate(7, " hello ", 7, 0))
		require.True(t, ok)
		assert.Equal(t, KindMessage, in.Kind)
		assert.Equal(t, "hello", in.Text)
	})

	t.Run("bot messages are dropped", func(t *testing.T) {
		u := messageUpdate(7, "hi", 7, 0)
		u.Message.From.IsBot = true
		_, ok := Decode(u)
		assert.False(t, ok)
	})

	t.Run("empty update is dropped", func(t *testing.T) {
		_, ok := Decode(&telegram.Update{UpdateID: 3})
		assert.False(t, ok)
	})
}

func TestSplitCommand(t *testing.T) {
	cases := []struct {
		text    string
		command string
		args    string
	}{
		{"/close broken printer", "/close", "broken printer"},
		{"/claim", "/claim", ""},
		{"/close@helpbot too noisy", "/close", "too noisy"},
		{"/lock ", "/lock", ""},
	}
	for _, tc := range cases {
		command, args := splitCommand(tc.text)
		assert.Equal(t, tc.command, command, tc.text)
		assert.Equal(t, tc.args, args, tc.text)
	}
}

func TestGameRouting(t *testing.T) {
	ctx := context.Background()

	t.Run("game select starts in the topic channel", func(t *testing.T) {
		f := newBotFixture(t)
		var gotChannel, gotType string
		f.games.startFn = func(ctx context.Context, userID, channelID, gameType string) (*appgame.StartResult, error) {
			gotChannel, gotType = channelID, gameType
			return &appgame.StartResult{Prompt: gateway.Post{Title: "Tic-Tac-Toe"}}, nil
		}

		err := f.dispatcher.HandleUpdate(ctx, callbackUpdate(7, "game_select:tictactoe", staffChatID, 42))
		require.NoError(t, err)
		assert.Equal(t, "42", gotChannel)
		assert.Equal(t, "tictactoe", gotType)
		require.Len(t, f.responder.messages, 1)
		assert.Contains(t, f.responder.messages[0].Text, "Tic-Tac-Toe")
	})

	t.Run("dm start carries a chat-scoped origin", func(t *testing.T) {
		f := newBotFixture(t)
		var gotChannel string
		f.games.startFn = func(ctx context.Context, userID, channelID, gameType string) (*appgame.StartResult, error) {
			gotChannel = channelID
			return &appgame.StartResult{Prompt: gateway.Post{Title: "Number Guessing"}}, nil
		}

		err := f.dispatcher.HandleUpdate(ctx, callbackUpdate(7, "game_select:guess", 7, 0))
		require.NoError(t, err)
		assert.Equal(t, "chat:7", gotChannel)
	})

	t.Run("play again restarts the same game", func(t *testing.T) {
		f := newBotFixture(t)
		var gotType string
		f.games.startFn = func(ctx context.Context, userID, channelID, gameType string) (*appgame.StartResult, error) {
			gotType = gameType
			return &appgame.StartResult{Prompt: gateway.Post{Title: "Hangman"}}, nil
		}

		err := f.dispatcher.HandleUpdate(ctx, callbackUpdate(7, "play_again_hangman", 7, 0))
		require.NoError(t, err)
		assert.Equal(t, "hangman", gotType)
	})

	t.Run("move buttons carry their payload", func(t *testing.T) {
		f := newBotFixture(t)
		var gotType domaingame.GameType
		var gotPayload string
		f.games.handleButtonFn = func(ctx context.Context, userID string, gameType domaingame.GameType, payload string) (*appgame.MoveResult, error) {
			gotType, gotPayload = gameType, payload
			return &appgame.MoveResult{Response: gateway.Post{Title: "Board"}}, nil
		}

		err := f.dispatcher.HandleUpdate(ctx, callbackUpdate(7, "ttt_4", staffChatID, 42))
		require.NoError(t, err)
		assert.Equal(t, domaingame.TypeTicTacToe, gotType)
		assert.Equal(t, "4", gotPayload)
	})

	t.Run("engine errors surface as callback alerts", func(t *testing.T) {
		f := newBotFixture(t)
		f.games.handleButtonFn = func(ctx context.Context, userID string, gameType domaingame.GameType, payload string) (*appgame.MoveResult, error) {
			return nil, errors.NewSessionNotFoundError("you have no active game")
		}

		err := f.dispatcher.HandleUpdate(ctx, callbackUpdate(7, "hangman_A", 7, 0))
		require.NoError(t, err)
		require.Len(t, f.responder.answers, 1)
		assert.Equal(t, "you have no active game", f.responder.answers[0])
	})

	t.Run("unknown action answers with a notice", func(t *testing.T) {
		f := newBotFixture(t)

		err := f.dispatcher.HandleUpdate(ctx, callbackUpdate(7, "self_destruct", 7, 0))
		require.NoError(t, err)
		require.Len(t, f.responder.answers, 1)
		assert.Contains(t, f.responder.answers[0], "no longer active")
	})
}

func TestMessageRouting(t *testing.T) {
	ctx := context.Background()

	t.Run("topic messages feed the transcript", func(t *testing.T) {
		f := newBotFixture(t)

		err := f.dispatcher.HandleUpdate(ctx, messageUpdate(7, "my printer is on fire", staffChatID, 42))
		require.NoError(t, err)

		entries := f.recorder.entries["42"]
		require.Len(t, entries, 1)
		assert.Equal(t, "7", entries[0].AuthorID)
		assert.Equal(t, "my printer is on fire", entries[0].Text)
	})

	t.Run("direct messages do not touch the transcript", func(t *testing.T) {
		f := newBotFixture(t)

		err := f.dispatcher.HandleUpdate(ctx, messageUpdate(7, "hello", 7, 0))
		require.NoError(t, err)
		assert.Empty(t, f.recorder.entries)
	})

	t.Run("every chat gets its own game origin", func(t *testing.T) {
		f := newBotFixture(t)
		var origins []string
		f.games.handleMessageFn = func(ctx context.Context, userID, channelID, text string) (*appgame.MoveResult, error) {
			origins = append(origins, channelID)
			return nil, nil
		}

		require.NoError(t, f.dispatcher.HandleUpdate(ctx, messageUpdate(7, "17", 7, 0)))
		require.NoError(t, f.dispatcher.HandleUpdate(ctx, messageUpdate(7, "17", -4242, 0)))
		require.NoError(t, f.dispatcher.HandleUpdate(ctx, messageUpdate(7, "17", -4242, 9)))
		require.NoError(t, f.dispatcher.HandleUpdate(ctx, messageUpdate(7, "17", staffChatID, 42)))

		assert.Equal(t, []string{"chat:7", "chat:-4242", "chat:-4242:9", "42"}, origins)
	})

	t.Run("game reply is rendered back", func(t *testing.T) {
		f := newBotFixture(t)
		f.games.handleMessageFn = func(ctx context.Context, userID, channelID, text string) (*appgame.MoveResult, error) {
			return &appgame.MoveResult{Response: gateway.Post{Title: "Number Guessing", Description: "Higher."}}, nil
		}

		err := f.dispatcher.HandleUpdate(ctx, messageUpdate(7, "17", staffChatID, 42))
		require.NoError(t, err)
		require.Len(t, f.responder.messages, 1)
		assert.Contains(t, f.responder.messages[0].Text, "Higher.")
	})

	t.Run("ignored message sends nothing", func(t *testing.T) {
		f := newBotFixture(t)

		err := f.dispatcher.HandleUpdate(ctx, messageUpdate(7, "just chatting", 7, 0))
		require.NoError(t, err)
		assert.Empty(t, f.responder.messages)
	})

	t.Run("ticket menu on /ticket", func(t *testing.T) {
		f := newBotFixture(t)

		err := f.dispatcher.HandleUpdate(ctx, messageUpdate(7, "/ticket", 7, 0))
		require.NoError(t, err)
		require.Len(t, f.responder.messages, 1)
		msg := f.responder.messages[0]
		assert.Contains(t, msg.Text, "Open a ticket")
		require.NotNil(t, msg.Keyboard)
		assert.Len(t, msg.Keyboard.InlineKeyboard, 5)
		assert.Equal(t, "ticket_type:support", msg.Keyboard.InlineKeyboard[2][0].CallbackData)
	})

	t.Run("help for unknown commands", func(t *testing.T) {
		f := newBotFixture(t)

		err := f.dispatcher.HandleUpdate(ctx, messageUpdate(7, "/frobnicate", 7, 0))
		require.NoError(t, err)
		require.Len(t, f.responder.messages, 1)
		assert.Contains(t, f.responder.messages[0].Text, "/ticket")
	})
}

func TestFormCapture(t *testing.T) {
	ctx := context.Background()

	newTopicTicket := func(t *testing.T, userID string) *ticket.Ticket {
		t.Helper()
		tk, err := ticket.NewTicket("T-0001", userID, vo.TypeSupport, vo.PriorityNormal, nil)
		require.NoError(t, err)
		return tk
	}

	t.Run("owner's first topic message becomes the description", func(t *testing.T) {
		f := newBotFixture(t)
		tk := newTopicTicket(t, "7")
		f.tickets.findByChannelIDFn = func(ctx context.Context, channelID string) (*ticket.Ticket, error) {
			return tk, nil
		}
		var updates int
		f.tickets.updateFn = func(ctx context.Context, t2 *ticket.Ticket) error {
			updates++
			return nil
		}

		require.NoError(t, f.dispatcher.HandleUpdate(ctx, messageUpdate(7, "my printer is on fire", staffChatID, 42)))
		assert.Equal(t, 1, updates)
		assert.Equal(t, "my printer is on fire", tk.FormData()[ticket.FormFieldDescription])

		require.NoError(t, f.dispatcher.HandleUpdate(ctx, messageUpdate(7, "still on fire", staffChatID, 42)))
		assert.Equal(t, 1, updates, "later messages leave the form untouched")
		assert.Equal(t, "my printer is on fire", tk.FormData()[ticket.FormFieldDescription])
	})

	t.Run("messages from other users never touch the form", func(t *testing.T) {
		f := newBotFixture(t)
		tk := newTopicTicket(t, "7")
		f.tickets.findByChannelIDFn = func(ctx context.Context, channelID string) (*ticket.Ticket, error) {
			return tk, nil
		}
		var updates int
		f.tickets.updateFn = func(ctx context.Context, t2 *ticket.Ticket) error {
			updates++
			return nil
		}

		require.NoError(t, f.dispatcher.HandleUpdate(ctx, messageUpdate(99, "checking in", staffChatID, 42)))
		assert.Zero(t, updates)
		assert.Empty(t, tk.FormData())
	})
}
