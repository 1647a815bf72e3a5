package model

import (
	"fmt"
	"strings"
	"time"
)

// ActionType is the closed set of audited actions.  The value is
// persisted as text.
type ActionType string

const (
	ActionCreateAccommodation     ActionType = "CREATE_ACCOMMODATION"
	ActionUpdateAccommodation     ActionType = "UPDATE_ACCOMMODATION"
	ActionDeleteAccommodation     ActionType = "DELETE_ACCOMMODATION"
	ActionMarkUnavailable         ActionType = "MARK_UNAVAILABLE"
	ActionMarkAvailable           ActionType = "MARK_AVAILABLE"
	ActionCreateReservation       ActionType = "CREATE_RESERVATION"
	ActionUpdateReservationStatus ActionType = "UPDATE_RESERVATION_STATUS"
	ActionCancelReservation       ActionType = "CANCEL_RESERVATION"
	ActionCreateRating            ActionType = "CREATE_RATING"
	ActionModerateRating          ActionType = "MODERATE_RATING"
	ActionUploadPhoto             ActionType = "UPLOAD_PHOTO"
	ActionDeletePhoto             ActionType = "DELETE_PHOTO"
)

var actionTypes = map[ActionType]bool{
	ActionCreateAccommodation:     true,
	ActionUpdateAccommodation:     true,
	ActionDeleteAccommodation:     true,
	ActionMarkUnavailable:         true,
	ActionMarkAvailable:           true,
	ActionCreateReservation:       true,
	ActionUpdateReservationStatus: true,
	ActionCancelReservation:       true,
	ActionCreateRating:            true,
	ActionModerateRating:          true,
	ActionUploadPhoto:             true,
	ActionDeletePhoto:             true,
}

func (a ActionType) IsValid() bool { return actionTypes[a] }

// ParseActionType accepts an action name in any letter case.
func ParseActionType(raw string) (ActionType, error) {
	a := ActionType(strings.ToUpper(strings.TrimSpace(raw)))
	if !a.IsValid() {
		return "", fmt.Errorf("invalid action type: %q", raw)
	}
	return a, nil
}

// ActorType identifies who performed an audited action.
type ActorType string

const (
	ActorMember     ActorType = "MEMBER"
	ActorSpecialist ActorType = "SPECIALIST"
	ActorOwner      ActorType = "OWNER"
	ActorSystem     ActorType = "SYSTEM"
)

func (a ActorType) IsValid() bool {
	switch a {
	case ActorMember, ActorSpecialist, ActorOwner, ActorSystem:
		return true
	}
	return false
}

// ParseActorType accepts an actor name in any letter case.
func ParseActorType(raw string) (ActorType, error) {
	a := ActorType(strings.ToUpper(strings.TrimSpace(raw)))
	if !a.IsValid() {
		return "", fmt.Errorf("invalid user type: %q", raw)
	}
	return a, nil
}

// Actor is the identity recorded on an audit entry.  ID is nil for
// SYSTEM and anonymous callers.
type Actor struct {
	Type ActorType
	ID   *uint64
}

// SystemActor is used when no authenticated identity is available.
var SystemActor = Actor{Type: ActorSystem}

// ActionLog is an append-only audit entry.  Rows are never updated
// or deleted.
type ActionLog struct {
	ID              uint64     `json:"id"`               // action_logs.id
	ActionType      ActionType `json:"action_type"`      // action_logs.action_type
	UserType        ActorType  `json:"user_type"`        // action_logs.user_type
	UserID          *uint64    `json:"user_id"`          // action_logs.user_id (nullable)
	AccommodationID *uint64    `json:"accommodation_id"` // action_logs.accommodation_id (nullable)
	ReservationID   *uint64    `json:"reservation_id"`   // action_logs.reservation_id (nullable)
	RatingID        *uint64    `json:"rating_id"`        // action_logs.rating_id (nullable)
	Details         string     `json:"details"`          // action_logs.details
	CreatedAt       time.Time  `json:"created_at"`       // action_logs.created_at
}
