package valueobjects

import "fmt"

type TicketType string

const (
	TypePurchaseHelp TicketType = "purchase_help"
	TypeIdea         TicketType = "idea"
	TypeSupport      TicketType = "support"
	TypePartnership  TicketType = "partnership"
	TypePartisanship TicketType = "partisanship"
)

var validTicketTypes = map[TicketType]bool{
	TypePurchaseHelp: true,
	TypeIdea:         true,
	TypeSupport:      true,
	TypePartnership:  true,
	TypePartisanship: true,
}

// ticketTypeLabels are the human-readable names rendered in menus and embeds.
var ticketTypeLabels = map[TicketType]string{
	TypePurchaseHelp: "Purchase Help",
	TypeIdea:         "Idea",
	TypeSupport:      "Support",
	TypePartnership:  "Partnership",
	TypePartisanship: "Partisanship",
}

func (t TicketType) String() string {
	return string(t)
}

func (t TicketType) IsValid() bool {
	return validTicketTypes[t]
}

func (t TicketType) Label() string {
	if label, ok := ticketTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// AllTicketTypes returns the closed set of ticket types in menu order.
func AllTicketTypes() []TicketType {
	return []TicketType{
		TypePurchaseHelp,
		TypeIdea,
		TypeSupport,
		TypePartnership,
		TypePartisanship,
	}
}

func NewTicketType(s string) (TicketType, error) {
	t := TicketType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid ticket type: %s", s)
	}
	return t, nil
}
