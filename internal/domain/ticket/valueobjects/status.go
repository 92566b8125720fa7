package valueobjects

import "fmt"

type Status string

const (
	StatusOpen    Status = "open"
	StatusClaimed Status = "claimed"
	StatusClosed  Status = "closed"
)

var validStatuses = map[Status]bool{
	StatusOpen:    true,
	StatusClaimed: true,
	StatusClosed:  true,
}

// statusTransitions encodes the full lifecycle: a ticket can be closed while
// still unclaimed, and closed is terminal.
var statusTransitions = map[Status][]Status{
	StatusOpen: {
		StatusClaimed,
		StatusClosed,
	},
	StatusClaimed: {
		StatusClosed,
	},
	StatusClosed: {},
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	return validStatuses[s]
}

func (s Status) CanTransitionTo(newStatus Status) bool {
	allowed, ok := statusTransitions[s]
	if !ok {
		return false
	}

	for _, a := range allowed {
		if a == newStatus {
			return true
		}
	}
	return false
}

func (s Status) IsOpen() bool {
	return s == StatusOpen
}

func (s Status) IsClaimed() bool {
	return s == StatusClaimed
}

func (s Status) IsClosed() bool {
	return s == StatusClosed
}

// IsActive reports whether a ticket in this status still occupies the owner's
// single-active-ticket slot.
func (s Status) IsActive() bool {
	return s == StatusOpen || s == StatusClaimed
}

func NewStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", fmt.Errorf("invalid ticket status: %s", s)
	}
	return st, nil
}
