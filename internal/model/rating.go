package model

import "time"

const (
	MinScore = 0
	MaxScore = 5
)

// Rating is a member's score for a completed reservation.  A
// reservation produces at most one rating.  New ratings are approved
// until a specialist decides otherwise.
type Rating struct {
	ID              uint64     `json:"id"`               // ratings.id
	AccommodationID uint64     `json:"accommodation_id"` // ratings.accommodation_id
	MemberID        uint64     `json:"member_id"`        // ratings.member_id
	ReservationID   uint64     `json:"reservation_id"`   // ratings.reservation_id (unique)
	Score           int        `json:"score"`            // ratings.score
	Comment         string     `json:"comment"`          // ratings.comment
	IsApproved      bool       `json:"is_approved"`      // ratings.is_approved
	ModeratedBy     *uint64    `json:"moderated_by"`     // ratings.moderated_by (nullable)
	ModerationDate  *time.Time `json:"moderation_date"`  // ratings.moderation_date (nullable)
	ModerationNote  string     `json:"moderation_note"`  // ratings.moderation_note
	CreatedAt       time.Time  `json:"created_at"`       // ratings.created_at
}
