package model

import (
	"fmt"
	"strings"
	"time"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCancelled ReservationStatus = "CANCELLED"
	StatusCompleted ReservationStatus = "COMPLETED"
)

// reservationTransitions is the full transition table.  Active
// statuses may move freely between each other and to COMPLETED; only
// PENDING may be cancelled.  CANCELLED and COMPLETED accept nothing,
// since reopening would take back an accommodation that may already be
// held by someone else.
var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:   {StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled},
	StatusConfirmed: {StatusPending, StatusConfirmed, StatusCompleted},
	StatusCancelled: {},
	StatusCompleted: {},
}

// IsValid reports whether s is one of the four known statuses.
func (s ReservationStatus) IsValid() bool {
	_, ok := reservationTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to target is legal.
func (s ReservationStatus) CanTransitionTo(target ReservationStatus) bool {
	for _, t := range reservationTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsActive reports whether a reservation in this status holds its
// accommodation (PENDING or CONFIRMED).
func (s ReservationStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// IsTerminal reports whether no further transitions are possible.
func (s ReservationStatus) IsTerminal() bool {
	allowed, ok := reservationTransitions[s]
	return !ok || len(allowed) == 0
}

func (s ReservationStatus) String() string { return string(s) }

// ParseReservationStatus accepts a status name in any letter case.
func ParseReservationStatus(raw string) (ReservationStatus, error) {
	s := ReservationStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("invalid reservation status: %q", raw)
	}
	return s, nil
}

// ActiveStatuses lists the statuses that hold an accommodation.
func ActiveStatuses() []ReservationStatus {
	return []ReservationStatus{StatusPending, StatusConfirmed}
}

// Reservation is a member's booking of one accommodation for an
// inclusive date range.  ContactName and ContactPhone are captured at
// booking time and do not follow later changes to the member record.
type Reservation struct {
	ID              uint64            `json:"id"`                 // reservations.id
	AccommodationID uint64            `json:"accommodation_id"`   // reservations.accommodation_id
	MemberID        uint64            `json:"member_id"`          // reservations.member_id
	ReservedFrom    Date              `json:"reserved_from"`      // reservations.reserved_from
	ReservedTo      Date              `json:"reserved_to"`        // reservations.reserved_to
	ContactName     string            `json:"contact_name"`       // reservations.contact_name
	ContactPhone    string            `json:"contact_phone"`      // reservations.contact_phone
	Status          ReservationStatus `json:"status"`             // reservations.status
	CreatedAt       time.Time         `json:"created_at"`         // reservations.created_at
	UpdatedAt       time.Time         `json:"updated_at"`         // reservations.updated_at
	Accommodation   *AccommodationRef `json:"accommodation,omitempty"`
}

// AccommodationRef is the short accommodation summary embedded in
// reservation listings.
type AccommodationRef struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	BuildingName string `json:"building_name"`
	Address      string `json:"address"`
}
