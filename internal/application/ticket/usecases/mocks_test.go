package usecases

import (
	"context"
	"time"

	"helpbot/internal/application/gateway"
	"helpbot/internal/domain/shared/events"
	"helpbot/internal/domain/ticket"
	"helpbot/internal/domain/user"
	"helpbot/internal/shared/errors"
	"helpbot/internal/shared/logger"
)

type mockTicketRepo struct {
	saveFn                   func(ctx context.Context, t *ticket.Ticket) error
	updateFn                 func(ctx context.Context, t *ticket.Ticket) error
	findByIDFn               func(ctx context.Context, id uint) (*ticket.Ticket, error)
	findByNumberFn           func(ctx context.Context, number string) (*ticket.Ticket, error)
	findByChannelIDFn        func(ctx context.Context, channelID string) (*ticket.Ticket, error)
	findActiveByUserIDFn     func(ctx context.Context, userID string) (*ticket.Ticket, error)
	findLatestClosedByUserFn func(ctx context.Context, userID string) (*ticket.Ticket, error)
	markClaimedFn            func(ctx context.Context, number, staffID string) (bool, error)
	markClosedFn             func(ctx context.Context, number, staffID, reason string) (bool, error)
	setTranscriptRefFn       func(ctx context.Context, number, ref string) error
	countClaimedByStaffFn    func(ctx context.Context) (map[string]int, error)
	listFn                   func(ctx context.Context, filter ticket.Filter) ([]*ticket.Ticket, int64, error)
}

func (m *mockTicketRepo) Save(ctx context.Context, t *ticket.Ticket) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, t)
	}
	return nil
}

func (m *mockTicketRepo) Update(ctx context.Context, t *ticket.Ticket) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, t)
	}
	return nil
}

func (m *mockTicketRepo) FindByID(ctx context.Context, id uint) (*ticket.Ticket, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, errors.NewNotFoundError("ticket not found")
}

func (m *mockTicketRepo) FindByNumber(ctx context.Context, number string) (*ticket.Ticket, error) {
	if m.findByNumberFn != nil {
		return m.findByNumberFn(ctx, number)
	}
	return nil, errors.NewNotFoundError("ticket not found")
}

func (m *mockTicketRepo) FindByChannelID(ctx context.Context, channelID string) (*ticket.Ticket, error) {
	if m.findByChannelIDFn != nil {
		return m.findByChannelIDFn(ctx, channelID)
	}
	return nil, errors.NewNotFoundError("ticket not found")
}

func (m *mockTicketRepo) FindActiveByUserID(ctx context.Context, userID string) (*ticket.Ticket, error) {
	if m.findActiveByUserIDFn != nil {
		return m.findActiveByUserIDFn(ctx, userID)
	}
	return nil, errors.NewNotFoundError("no active ticket for user")
}

func (m *mockTicketRepo) FindLatestClosedByUserID(ctx context.Context, userID string) (*ticket.Ticket, error) {
	if m.findLatestClosedByUserFn != nil {
		return m.findLatestClosedByUserFn(ctx, userID)
	}
	return nil, errors.NewNotFoundError("no closed ticket for user")
}

func (m *mockTicketRepo) MarkClaimed(ctx context.Context, number, staffID string) (bool, error) {
	if m.markClaimedFn != nil {
		return m.markClaimedFn(ctx, number, staffID)
	}
	return true, nil
}

func (m *mockTicketRepo) MarkClosed(ctx context.Context, number, staffID, reason string) (bool, error) {
	if m.markClosedFn != nil {
		return m.markClosedFn(ctx, number, staffID, reason)
	}
	return true, nil
}

func (m *mockTicketRepo) SetTranscriptRef(ctx context.Context, number, ref string) error {
	if m.setTranscriptRefFn != nil {
		return m.setTranscriptRefFn(ctx, number, ref)
	}
	return nil
}

func (m *mockTicketRepo) CountClaimedByStaff(ctx context.Context) (map[string]int, error) {
	if m.countClaimedByStaffFn != nil {
		return m.countClaimedByStaffFn(ctx)
	}
	return map[string]int{}, nil
}

func (m *mockTicketRepo) List(ctx context.Context, filter ticket.Filter) ([]*ticket.Ticket, int64, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, 0, nil
}

type mockUserRepo struct {
	saveFn             func(ctx context.Context, u *user.User) error
	updateFn           func(ctx context.Context, u *user.User) error
	findByPlatformIDFn func(ctx context.Context, platformID string) (*user.User, error)
	getOrCreateFn      func(ctx context.Context, platformID string) (*user.User, error)
}

func (m *mockUserRepo) Save(ctx context.Context, u *user.User) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, u)
	}
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, u *user.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, u)
	}
	return nil
}

func (m *mockUserRepo) FindByPlatformID(ctx context.Context, platformID string) (*user.User, error) {
	if m.findByPlatformIDFn != nil {
		return m.findByPlatformIDFn(ctx, platformID)
	}
	return nil, errors.NewNotFoundError("user not found")
}

func (m *mockUserRepo) GetOrCreate(ctx context.Context, platformID string) (*user.User, error) {
	if m.getOrCreateFn != nil {
		return m.getOrCreateFn(ctx, platformID)
	}
	return user.NewUser(platformID)
}

type mockGateway struct {
	createTicketChannelFn  func(ctx context.Context, ticketNumber, userID string) (string, error)
	deleteChannelFn        func(ctx context.Context, channelID string) error
	setChannelVisibilityFn func(ctx context.Context, channelID string, staffOnly bool) error
	sendDirectMessageFn    func(ctx context.Context, userID string, post gateway.Post) error
	postMessageFn          func(ctx context.Context, channelID string, post gateway.Post) error
	postLogFn              func(ctx context.Context, channel gateway.LogChannel, post gateway.Post) error
	fetchChannelHistoryFn  func(ctx context.Context, channelID string, limit int) ([]gateway.HistoryEntry, error)
	uploadTranscriptFn     func(ctx context.Context, ticketNumber string, content []byte) (string, error)
	listStaffMembersFn     func(ctx context.Context) ([]gateway.StaffMember, error)
	userHasActiveChannelFn func(ctx context.Context, userID string) (bool, error)
}

func (m *mockGateway) CreateTicketChannel(ctx context.Context, ticketNumber, userID string) (string, error) {
	if m.createTicketChannelFn != nil {
		return m.createTicketChannelFn(ctx, ticketNumber, userID)
	}
	return "chan-" + ticketNumber, nil
}

func (m *mockGateway) DeleteChannel(ctx context.Context, channelID string) error {
	if m.deleteChannelFn != nil {
		return m.deleteChannelFn(ctx, channelID)
	}
	return nil
}

func (m *mockGateway) SetChannelVisibility(ctx context.Context, channelID string, staffOnly bool) error {
	if m.setChannelVisibilityFn != nil {
		return m.setChannelVisibilityFn(ctx, channelID, staffOnly)
	}
	return nil
}

func (m *mockGateway) SendDirectMessage(ctx context.Context, userID string, post gateway.Post) error {
	if m.sendDirectMessageFn != nil {
		return m.sendDirectMessageFn(ctx, userID, post)
	}
	return nil
}

func (m *mockGateway) PostMessage(ctx context.Context, channelID string, post gateway.Post) error {
	if m.postMessageFn != nil {
		return m.postMessageFn(ctx, channelID, post)
	}
	return nil
}

func (m *mockGateway) PostLog(ctx context.Context, channel gateway.LogChannel, post gateway.Post) error {
	if m.postLogFn != nil {
		return m.postLogFn(ctx, channel, post)
	}
	return nil
}

func (m *mockGateway) FetchChannelHistory(ctx context.Context, channelID string, limit int) ([]gateway.HistoryEntry, error) {
	if m.fetchChannelHistoryFn != nil {
		return m.fetchChannelHistoryFn(ctx, channelID, limit)
	}
	return nil, nil
}

func (m *mockGateway) UploadTranscript(ctx context.Context, ticketNumber string, content []byte) (string, error) {
	if m.uploadTranscriptFn != nil {
		return m.uploadTranscriptFn(ctx, ticketNumber, content)
	}
	return "ref-" + ticketNumber, nil
}

func (m *mockGateway) ListStaffMembers(ctx context.Context) ([]gateway.StaffMember, error) {
	if m.listStaffMembersFn != nil {
		return m.listStaffMembersFn(ctx)
	}
	return nil, nil
}

func (m *mockGateway) UserHasActiveTicketChannel(ctx context.Context, userID string) (bool, error) {
	if m.userHasActiveChannelFn != nil {
		return m.userHasActiveChannelFn(ctx, userID)
	}
	return false, nil
}

type mockStaffChecker struct {
	staffIDs map[string]bool
}

func (m *mockStaffChecker) IsStaff(ctx context.Context, actorID string) (bool, error) {
	return m.staffIDs[actorID], nil
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

type mockDispatcher struct {
	published []events.DomainEvent
}

func (m *mockDispatcher) Publish(event events.DomainEvent) error {
	m.published = append(m.published, event)
	return nil
}

func (m *mockDispatcher) PublishAll(evts []events.DomainEvent) error {
	m.published = append(m.published, evts...)
	return nil
}

func (m *mockDispatcher) Subscribe(eventType string, handler events.EventHandler) error {
	return nil
}

func (m *mockDispatcher) eventTypes() []string {
	types := make([]string, 0, len(m.published))
	for _, e := range m.published {
		types = append(types, e.GetEventType())
	}
	return types
}

func testLogger() logger.Interface {
	return logger.NewLogger()
}

// immediate makes scheduled callbacks run synchronously in tests.
func immediate(d time.Duration, fn func()) *time.Timer {
	fn()
	return time.NewTimer(time.Hour)
}
