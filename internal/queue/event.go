// Package queue defines the reservation events exchanged over RabbitMQ
// together with their publisher and the log-writing consumer.
package queue

// QueueName is the durable queue carrying reservation events.
const QueueName = "reservation.events"

// Event types.
const (
	EventReservationCreated       = "reservation.created"
	EventReservationCancelled     = "reservation.cancelled"
	EventReservationStatusChanged = "reservation.status_changed"
)

// ReservationEvent is published after a reservation change commits.
// It carries enough for downstream consumers to log or notify without
// querying the primary database.
type ReservationEvent struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ReservationID   uint64 `json:"reservation_id"`
	AccommodationID uint64 `json:"accommodation_id"`
	MemberID        uint64 `json:"member_id"`
	PreviousStatus  string `json:"previous_status,omitempty"`
	Status          string `json:"status"`
	ReservedFrom    string `json:"reserved_from"`
	ReservedTo      string `json:"reserved_to"`
	OccurredAt      string `json:"occurred_at"`
}
