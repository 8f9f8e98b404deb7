package model

import "time"

type DeliveryOutcome string

const (
	OutcomeDelivered DeliveryOutcome = "delivered"
	OutcomeInvalid   DeliveryOutcome = "invalid"
	OutcomeTimeout   DeliveryOutcome = "timeout"
	OutcomeRejected  DeliveryOutcome = "rejected"
	OutcomeTransport DeliveryOutcome = "transport"
	OutcomeClosed    DeliveryOutcome = "closed"
)

func (o DeliveryOutcome) String() string {
	return string(o)
}

func (o DeliveryOutcome) Valid() bool {
	switch o {
	case OutcomeDelivered, OutcomeInvalid, OutcomeTimeout, OutcomeRejected, OutcomeTransport, OutcomeClosed:
		return true
	}
	return false
}

// Delivery is the audit row written once per processed record.
type Delivery struct {
	ID          string          `db:"id"          json:"id"` // ULID
	MessageID   string          `db:"message_id"  json:"message_id"`
	GroupID     string          `db:"group_id"    json:"group_id"`
	Environment string          `db:"environment" json:"environment"`
	Topic       string          `db:"topic"       json:"topic"`
	Outcome     DeliveryOutcome `db:"outcome"     json:"outcome"`
	Error       string          `db:"error"       json:"error,omitempty"`
	CreatedAt   time.Time       `db:"created_at"  json:"created_at"`
}

// DeliverySummary is an aggregated count per outcome.
type DeliverySummary struct {
	Environment string          `db:"environment" json:"environment"`
	Outcome     DeliveryOutcome `db:"outcome"     json:"outcome"`
	Count       uint64          `db:"cnt"         json:"count"`
}
