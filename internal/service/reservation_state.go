package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/unihaven/placement-api/internal/model"
	"github.com/unihaven/placement-api/internal/queue"
)

// ReservationStates applies status transitions to a single reservation
// together with their side effects.
//
// Cancelling directly and setting the status to CANCELLED are the same
// transition with the same guard: only a PENDING reservation can be
// cancelled.  Any transition out of an active status releases the
// accommodation through the ledger.
type ReservationStates struct {
	d      Deps
	ledger *Ledger
	audit  *AuditLog
}

func NewReservationStates(d Deps, ledger *Ledger) *ReservationStates {
	if ledger == nil {
		ledger = NewLedger(d)
	}
	return &ReservationStates{d: d, ledger: ledger, audit: NewAuditLog(d)}
}

// Get returns a reservation by id.
func (s *ReservationStates) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := s.d.Reservations.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	return res, err
}

// Cancel moves a PENDING reservation to CANCELLED, releases the
// accommodation and notifies every specialist.
func (s *ReservationStates) Cancel(ctx context.Context, id uint64, actor model.Actor) (*model.Reservation, error) {
	return s.transition(ctx, id, model.StatusCancelled, model.ActionCancelReservation, actor)
}

// SetStatus moves a reservation to the status named by raw.  Any
// active status may be set, including COMPLETED straight from PENDING;
// CANCELLED keeps the Cancel guard and terminal reservations stay
// closed.
func (s *ReservationStates) SetStatus(ctx context.Context, id uint64, raw string, actor model.Actor) (*model.Reservation, error) {
	target, err := model.ParseReservationStatus(raw)
	if err != nil {
		return nil, ErrInvalidStatus
	}
	return s.transition(ctx, id, target, model.ActionUpdateReservationStatus, actor)
}

func (s *ReservationStates) transition(ctx context.Context, id uint64, target model.ReservationStatus, action model.ActionType, actor model.Actor) (*model.Reservation, error) {
	var (
		res      *model.Reservation
		previous model.ReservationStatus
	)
	err := withTx(ctx, s.d.DB, func(tx *sql.Tx) error {
		var err error
		res, err = s.d.Reservations.GetForUpdateTx(ctx, tx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReservationNotFound
		}
		if err != nil {
			return err
		}
		previous = res.Status
		if !previous.CanTransitionTo(target) {
			return ErrInvalidTransition.WithMessage(fmt.Sprintf("cannot change reservation from %s to %s", previous, target))
		}

		if err := s.d.Reservations.UpdateStatusTx(ctx, tx, res.ID, target); err != nil {
			return err
		}
		res.Status = target

		if previous.IsActive() && !target.IsActive() {
			if err := s.ledger.ReleaseTx(ctx, tx, res.AccommodationID); err != nil {
				return err
			}
		}
		if target == model.StatusCancelled {
			if err := s.ledger.notifyTx(ctx, tx, res.ID, model.NotificationCancellation); err != nil {
				return err
			}
		}
		return s.audit.recordTx(ctx, tx, actor, entry{
			action:        action,
			accommodation: ptr(res.AccommodationID),
			reservation:   ptr(res.ID),
			details:       fmt.Sprintf("%s -> %s", previous, target),
		})
	})
	if err != nil {
		return nil, err
	}

	typ := queue.EventReservationStatusChanged
	if target == model.StatusCancelled {
		typ = queue.EventReservationCancelled
	}
	s.d.publish(ctx, typ, res, previous)
	return res, nil
}
