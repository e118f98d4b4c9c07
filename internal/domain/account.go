package domain

import "time"

// Account is a payout account credited by escrow transfers.
// RejectsFunds models a recipient that refuses incoming transfers.
type Account struct {
	Address      Identity
	Balance      Amount
	RejectsFunds bool
	UpdatedAt    time.Time
}

// OutboxMessage is a committed event waiting to be published to the message bus.
type OutboxMessage struct {
	ID            string
	ProjectID     int64
	EventType     EventType
	RoutingKey    string
	Payload       []byte
	Status        OutboxStatus
	Attempts      int
	LastError     string
	OccurredAt    time.Time
	NextAttemptAt time.Time
	SentAt        *time.Time
}
