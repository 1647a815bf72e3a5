package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/unihaven/placement-api/internal/model"
	"github.com/unihaven/placement-api/internal/repository"
)

// RatingGate decides whether a reservation may be rated and runs the
// moderation workflow.
type RatingGate struct {
	d     Deps
	audit *AuditLog
}

func NewRatingGate(d Deps) *RatingGate { return &RatingGate{d: d, audit: NewAuditLog(d)} }

// Submit rates a COMPLETED reservation.  Each reservation can be rated
// once; the rating starts approved and unmoderated.
func (g *RatingGate) Submit(ctx context.Context, reservationID uint64, score int, comment string) (*model.Rating, error) {
	var rt *model.Rating
	err := withTx(ctx, g.d.DB, func(tx *sql.Tx) error {
		res, err := g.d.Reservations.GetForUpdateTx(ctx, tx, reservationID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReservationNotFound
		}
		if err != nil {
			return err
		}
		if res.Status != model.StatusCompleted {
			return ErrNotCompleted
		}
		rated, err := g.d.Ratings.ExistsForReservationTx(ctx, tx, res.ID)
		if err != nil {
			return err
		}
		if rated {
			return ErrAlreadyRated
		}
		if score < model.MinScore || score > model.MaxScore {
			return ErrInvalidScore
		}

		rt = &model.Rating{
			AccommodationID: res.AccommodationID,
			MemberID:        res.MemberID,
			ReservationID:   res.ID,
			Score:           score,
			Comment:         strings.TrimSpace(comment),
		}
		if err := g.d.Ratings.CreateTx(ctx, tx, rt); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyRated
			}
			return err
		}
		return g.audit.recordTx(ctx, tx, model.Actor{Type: model.ActorMember, ID: ptr(res.MemberID)}, entry{
			action:        model.ActionCreateRating,
			accommodation: ptr(res.AccommodationID),
			reservation:   ptr(res.ID),
			rating:        ptr(rt.ID),
			details:       fmt.Sprintf("score %d", score),
		})
	})
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// ModerateInput is a specialist's decision on a rating.
type ModerateInput struct {
	RatingID     uint64
	SpecialistID uint64
	IsApproved   bool
	Note         string
}

// Moderate records a decision, overwriting any earlier one.
func (g *RatingGate) Moderate(ctx context.Context, in ModerateInput) (*model.Rating, error) {
	var rt *model.Rating
	err := withTx(ctx, g.d.DB, func(tx *sql.Tx) error {
		var err error
		rt, err = g.d.Ratings.GetForUpdateTx(ctx, tx, in.RatingID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRatingNotFound
		}
		if err != nil {
			return err
		}
		if _, err := g.d.Specialists.GetTx(ctx, tx, in.SpecialistID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrSpecialistNotFound
			}
			return err
		}

		at := g.d.now().UTC()
		note := strings.TrimSpace(in.Note)
		if err := g.d.Ratings.ModerateTx(ctx, tx, rt.ID, in.SpecialistID, in.IsApproved, note, at); err != nil {
			return err
		}
		rt.IsApproved = in.IsApproved
		rt.ModeratedBy = ptr(in.SpecialistID)
		rt.ModerationDate = &at
		rt.ModerationNote = note

		decision := "approved"
		if !in.IsApproved {
			decision = "rejected"
		}
		if note != "" {
			decision += ": " + note
		}
		return g.audit.recordTx(ctx, tx, model.Actor{Type: model.ActorSpecialist, ID: ptr(in.SpecialistID)}, entry{
			action:        model.ActionModerateRating,
			accommodation: ptr(rt.AccommodationID),
			reservation:   ptr(rt.ReservationID),
			rating:        ptr(rt.ID),
			details:       decision,
		})
	})
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// ListPending returns ratings no specialist has reviewed, oldest first.
func (g *RatingGate) ListPending(ctx context.Context) ([]model.Rating, error) {
	return g.d.Ratings.ListPending(ctx)
}

// ListForAccommodation returns the approved ratings of a listing.
func (g *RatingGate) ListForAccommodation(ctx context.Context, accommodationID uint64) ([]model.Rating, error) {
	if _, err := g.d.Accommodations.GetByID(ctx, accommodationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccommodationNotFound
		}
		return nil, err
	}
	return g.d.Ratings.ListApprovedByAccommodation(ctx, accommodationID)
}
