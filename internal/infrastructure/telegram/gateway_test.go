package telegram

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpbot/internal/application/gateway"
	sharedConfig "helpbot/internal/shared/config"
	"helpbot/internal/shared/logger"
)

func TestSplitMessage(t *testing.T) {
	t.Run("short message stays whole", func(t *testing.T) {
		chunks := splitMessage("hello", 10)
		assert.Equal(t, []string{"hello"}, chunks)
	})

	t.Run("splits at paragraph boundary", func(t *testing.T) {
		text := strings.Repeat("a", 6) + "\n\n" + strings.Repeat("b", 6)
		chunks := splitMessage(text, 10)
		assert.Len(t, chunks, 2)
		assert.Equal(t, strings.Repeat("a", 6)+"\n\n", chunks[0])
		assert.Equal(t, strings.Repeat("b", 6), chunks[1])
	})

	t.Run("hard cut preserves rune boundaries", func(t *testing.T) {
		text := strings.Repeat("日", 15)
		chunks := splitMessage(text, 10)
		assert.Len(t, chunks, 2)
		assert.Equal(t, 10, len([]rune(chunks[0])))
		assert.Equal(t, 5, len([]rune(chunks[1])))
	})
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "a &amp; b &lt;c&gt;", EscapeHTML("a & b <c>"))
}

func TestRenderPost(t *testing.T) {
	text, keyboard := renderPost(gateway.Post{
		Title:       "Ticket tk_1",
		Description: "a <b> tag",
		Fields:      []gateway.Field{{Name: "Priority", Value: "high"}},
		Buttons: [][]gateway.Button{
			{{Label: "Claim", Action: "claim_ticket:tk_1"}},
		},
		Menu: &gateway.Menu{
			Action: "game_select",
			Options: []gateway.MenuOption{
				{Label: "Tic-Tac-Toe", Value: "tictactoe"},
			},
		},
	})

	assert.Contains(t, text, "<b>Ticket tk_1</b>")
	assert.Contains(t, text, "a &lt;b&gt; tag")
	assert.Contains(t, text, "<b>Priority:</b> high")

	assert.Len(t, keyboard.InlineKeyboard, 2)
	assert.Equal(t, "claim_ticket:tk_1", keyboard.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "game_select:tictactoe", keyboard.InlineKeyboard[1][0].CallbackData)
}

func TestHistoryStore(t *testing.T) {
	store := newHistoryStore(3)

	for i := 0; i < 5; i++ {
		store.Record("42", gateway.HistoryEntry{
			AuthorID: "u1",
			Text:     strings.Repeat("x", i+1),
			SentAt:   time.Now(),
		})
	}

	entries := store.Entries("42", 0)
	assert.Len(t, entries, 3, "oldest entries are evicted")
	assert.Equal(t, "xxx", entries[0].Text)
	assert.Equal(t, "xxxxx", entries[2].Text)

	limited := store.Entries("42", 2)
	assert.Len(t, limited, 2)
	assert.Equal(t, "xxxxx", limited[1].Text, "newest last")

	store.Drop("42")
	assert.Empty(t, store.Entries("42", 0))
}

func TestParseChatOrigin(t *testing.T) {
	cases := []struct {
		key      string
		chatID   int64
		threadID int64
		ok       bool
	}{
		{"chat:7", 7, 0, true},
		{"chat:-4242", -4242, 0, true},
		{"chat:-4242:9", -4242, 9, true},
		{"42", 0, 0, false},
		{"chat:x", 0, 0, false},
		{"chat:7:x", 0, 0, false},
	}
	for _, tc := range cases {
		chatID, threadID, ok := parseChatOrigin(tc.key)
		assert.Equal(t, tc.ok, ok, tc.key)
		assert.Equal(t, tc.chatID, chatID, tc.key)
		assert.Equal(t, tc.threadID, threadID, tc.key)
	}
}

func TestUserChannelIndex(t *testing.T) {
	ctx := context.Background()
	g := NewChannelGateway(nil, sharedConfig.TelegramConfig{}, 10, logger.NewLogger())

	has, err := g.UserHasActiveTicketChannel(ctx, "7")
	require.NoError(t, err)
	assert.False(t, has, "index starts empty")

	// A restart repopulates the index from persisted active tickets.
	g.SeedUserChannels(map[string]string{"7": "42", "8": "43"})

	has, err = g.UserHasActiveTicketChannel(ctx, "7")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = g.UserHasActiveTicketChannel(ctx, "9")
	require.NoError(t, err)
	assert.False(t, has)
}
