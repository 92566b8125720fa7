package telegram

import (
	"sync"

	"helpbot/internal/application/gateway"
)

// historyStore keeps a bounded per-channel transcript buffer. The Bot API
// cannot read chat history back, so entries are recorded as messages pass
// through the bot in either direction.
type historyStore struct {
	mu         sync.Mutex
	maxEntries int
	channels   map[string][]gateway.HistoryEntry
}

func newHistoryStore(maxEntries int) *historyStore {
	if maxEntries <= 0 {
		maxEntries = 500
	}
	return &historyStore{
		maxEntries: maxEntries,
		channels:   make(map[string][]gateway.HistoryEntry),
	}
}

// Record appends an entry, evicting the oldest when the buffer is full.
func (h *historyStore) Record(channelID string, entry gateway.HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := append(h.channels[channelID], entry)
	if len(entries) > h.maxEntries {
		entries = entries[len(entries)-h.maxEntries:]
	}
	h.channels[channelID] = entries
}

// Entries returns up to limit entries, newest last. limit <= 0 means all.
func (h *historyStore) Entries(channelID string, limit int) []gateway.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := h.channels[channelID]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	out := make([]gateway.HistoryEntry, len(entries))
	copy(out, entries)
	return out
}

// Drop discards the buffer for a deleted channel.
func (h *historyStore) Drop(channelID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.channels, channelID)
}
