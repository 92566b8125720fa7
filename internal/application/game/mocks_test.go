package game

import (
	"context"
	"sync"
	"time"

	"helpbot/internal/application/gateway"
	domain "helpbot/internal/domain/game"
	"helpbot/internal/domain/shared/events"
	"helpbot/internal/domain/user"
	sharedConfig "helpbot/internal/shared/config"
	"helpbot/internal/shared/logger"
)

type mockGateway struct {
	postMessageFn func(ctx context.Context, channelID string, post gateway.Post) error

	mu       sync.Mutex
	posted   []gateway.Post
	postedTo []string
}

func (m *mockGateway) CreateTicketChannel(ctx context.Context, ticketNumber, userID string) (string, error) {
	return "chan-" + ticketNumber, nil
}

func (m *mockGateway) DeleteChannel(ctx context.Context, channelID string) error { return nil }

func (m *mockGateway) SetChannelVisibility(ctx context.Context, channelID string, staffOnly bool) error {
	return nil
}

func (m *mockGateway) SendDirectMessage(ctx context.Context, userID string, post gateway.Post) error {
	return nil
}

func (m *mockGateway) PostMessage(ctx context.Context, channelID string, post gateway.Post) error {
	m.mu.Lock()
	m.posted = append(m.posted, post)
	m.postedTo = append(m.postedTo, channelID)
	m.mu.Unlock()
	if m.postMessageFn != nil {
		return m.postMessageFn(ctx, channelID, post)
	}
	return nil
}

func (m *mockGateway) PostLog(ctx context.Context, channel gateway.LogChannel, post gateway.Post) error {
	return nil
}

func (m *mockGateway) FetchChannelHistory(ctx context.Context, channelID string, limit int) ([]gateway.HistoryEntry, error) {
	return nil, nil
}

func (m *mockGateway) UploadTranscript(ctx context.Context, ticketNumber string, content []byte) (string, error) {
	return "ref-" + ticketNumber, nil
}

func (m *mockGateway) ListStaffMembers(ctx context.Context) ([]gateway.StaffMember, error) {
	return nil, nil
}

func (m *mockGateway) UserHasActiveTicketChannel(ctx context.Context, userID string) (bool, error) {
	return false, nil
}

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*user.User)}
}

func (m *mockUserRepo) Save(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.PlatformID()] = u
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.PlatformID()] = u
	return nil
}

func (m *mockUserRepo) FindByPlatformID(ctx context.Context, platformID string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[platformID], nil
}

func (m *mockUserRepo) GetOrCreate(ctx context.Context, platformID string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[platformID]; ok {
		return u, nil
	}
	u, err := user.NewUser(platformID)
	if err != nil {
		return nil, err
	}
	m.users[platformID] = u
	return u, nil
}

func (m *mockUserRepo) gamesPlayed(platformID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[platformID]; ok {
		return u.GamesPlayed()
	}
	return 0
}

type mockHistory struct {
	saveFinishedFn func(ctx context.Context, s *domain.Session) error

	mu    sync.Mutex
	saved []*domain.Session
}

func (m *mockHistory) SaveFinished(ctx context.Context, s *domain.Session) error {
	m.mu.Lock()
	m.saved = append(m.saved, s)
	m.mu.Unlock()
	if m.saveFinishedFn != nil {
		return m.saveFinishedFn(ctx, s)
	}
	return nil
}

func (m *mockHistory) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

type mockDispatcher struct {
	mu        sync.Mutex
	published []events.DomainEvent
}

func (m *mockDispatcher) Publish(event events.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, event)
	return nil
}

func (m *mockDispatcher) PublishAll(evts []events.DomainEvent) error {
	for _, e := range evts {
		if err := m.Publish(e); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockDispatcher) Subscribe(eventType string, handler events.EventHandler) error { return nil }

func (m *mockDispatcher) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.published))
	for _, e := range m.published {
		types = append(types, e.GetEventType())
	}
	return types
}

type mockRateLimiter struct {
	allowFn func(key string) (bool, error)
}

func (m *mockRateLimiter) Allow(key string) (bool, error) {
	if m.allowFn != nil {
		return m.allowFn(key)
	}
	return true, nil
}

func (m *mockRateLimiter) RetryAfter(key string) (time.Duration, error) {
	return 30 * time.Second, nil
}

func testGameConfig() sharedConfig.GameConfig {
	return sharedConfig.GameConfig{
		TimeoutSeconds:   120,
		GuessMaxAttempts: 5,
		GuessRangeMax:    50,
		HangmanMaxWrong:  6,
		Difficulty:       "hard",
	}
}

func testLogger() logger.Interface {
	return logger.NewLogger()
}
