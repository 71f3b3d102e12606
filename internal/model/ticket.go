package model

import "time"

type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "open"
	TicketStatusAnswered TicketStatus = "answered"
	TicketStatusClosed   TicketStatus = "closed"
)

type Ticket struct {
	ID             string
	UserTelegramID int64
	Subject        string
	Status         TicketStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Messages       []TicketMessage
}

type TicketMessage struct {
	ID        int64
	TicketID  string
	FromAdmin bool
	Body      string
	CreatedAt time.Time
}
