package mappers

import (
	"encoding/json"
	"fmt"
	"time"

	"helpbot/internal/domain/ticket"
	vo "helpbot/internal/domain/ticket/valueobjects"
	"helpbot/internal/infrastructure/persistence/models"
)

// TicketMapper handles the conversion between Ticket domain entities and persistence models.
type TicketMapper interface {
	ToModel(t *ticket.Ticket) *models.TicketModel
	ToDomain(model *models.TicketModel) (*ticket.Ticket, error)
}

type ticketMapper struct{}

// NewTicketMapper creates a new TicketMapper.
func NewTicketMapper() TicketMapper {
	return &ticketMapper{}
}

func (m *ticketMapper) ToModel(t *ticket.Ticket) *models.TicketModel {
	model := &models.TicketModel{
		ID:            t.ID(),
		Number:        t.Number(),
		ChannelID:     t.ChannelID(),
		UserID:        t.UserID(),
		Type:          t.Type().String(),
		Priority:      t.Priority().String(),
		Status:        t.Status().String(),
		ClaimedBy:     t.ClaimedBy(),
		ClosedBy:      t.ClosedBy(),
		CloseReason:   t.CloseReason(),
		TranscriptRef: t.TranscriptRef(),
		CreatedAt:     t.CreatedAt().UnixMilli(),
		UpdatedAt:     t.UpdatedAt().UnixMilli(),
	}

	if len(t.FormData()) > 0 {
		dataJSON, _ := json.Marshal(t.FormData())
		model.FormData = string(dataJSON)
	}

	if t.ClaimedAt() != nil {
		claimed := t.ClaimedAt().UnixMilli()
		model.ClaimedAt = &claimed
	}

	if t.ClosedAt() != nil {
		closed := t.ClosedAt().UnixMilli()
		model.ClosedAt = &closed
	}

	return model
}

func (m *ticketMapper) ToDomain(model *models.TicketModel) (*ticket.Ticket, error) {
	ticketType, err := vo.NewTicketType(model.Type)
	if err != nil {
		return nil, fmt.Errorf("ticket %d: %w", model.ID, err)
	}
	priority, err := vo.NewPriority(model.Priority)
	if err != nil {
		return nil, fmt.Errorf("ticket %d: %w", model.ID, err)
	}
	status, err := vo.NewStatus(model.Status)
	if err != nil {
		return nil, fmt.Errorf("ticket %d: %w", model.ID, err)
	}

	var formData map[string]string
	if model.FormData != "" {
		if err := json.Unmarshal([]byte(model.FormData), &formData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ticket form data (id=%d): %w", model.ID, err)
		}
	}

	var claimedAt, closedAt *time.Time
	if model.ClaimedAt != nil {
		ts := millisToTime(*model.ClaimedAt)
		claimedAt = &ts
	}
	if model.ClosedAt != nil {
		ts := millisToTime(*model.ClosedAt)
		closedAt = &ts
	}

	return ticket.ReconstructTicket(
		model.ID,
		model.Number,
		model.ChannelID,
		model.UserID,
		ticketType,
		priority,
		status,
		formData,
		model.ClaimedBy,
		claimedAt,
		model.ClosedBy,
		closedAt,
		model.CloseReason,
		model.TranscriptRef,
		millisToTime(model.CreatedAt),
		millisToTime(model.UpdatedAt),
	)
}

func millisToTime(millis int64) time.Time {
	return time.Unix(0, millis*int64(time.Millisecond))
}
