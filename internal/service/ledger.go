package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/unihaven/placement-api/internal/model"
	"github.com/unihaven/placement-api/internal/queue"
	"github.com/unihaven/placement-api/internal/repository"
)

// Ledger owns the accommodation availability flag.  An accommodation
// has at most one active (PENDING or CONFIRMED) reservation, and
// is_available is true exactly when it has none.  Every write to the
// flag goes through this type.
type Ledger struct {
	d     Deps
	audit *AuditLog
}

func NewLedger(d Deps) *Ledger { return &Ledger{d: d, audit: NewAuditLog(d)} }

// ReserveInput is a member's booking request.
type ReserveInput struct {
	AccommodationID uint64
	MemberID        uint64
	ReservedFrom    model.Date
	ReservedTo      model.Date
	ContactName     string
	ContactPhone    string
}

// today is the current calendar day in the service time zone.
func (l *Ledger) today() model.Date {
	return model.NewDate(l.d.now().In(l.d.loc()))
}

// Reserve creates a PENDING reservation and takes the accommodation off
// the market.  The accommodation row is locked for the whole
// transaction, so concurrent attempts on the same listing are
// serialised and all but the first fail with ErrUnavailable.
func (l *Ledger) Reserve(ctx context.Context, in ReserveInput) (*model.Reservation, error) {
	if in.ReservedFrom.IsZero() || in.ReservedTo.IsZero() {
		return nil, Validation("dates_required", "reserved_from and reserved_to are required")
	}
	today := l.today()

	var res *model.Reservation
	err := withTx(ctx, l.d.DB, func(tx *sql.Tx) error {
		acc, err := l.d.Accommodations.GetForUpdateTx(ctx, tx, in.AccommodationID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAccommodationNotFound
		}
		if err != nil {
			return err
		}
		member, err := l.d.Members.GetTx(ctx, tx, in.MemberID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMemberNotFound
		}
		if err != nil {
			return err
		}
		if !acc.IsAvailable {
			return ErrUnavailable
		}
		if in.ReservedFrom.After(in.ReservedTo) {
			return ErrInvalidRange
		}
		if in.ReservedFrom.Before(today) {
			return ErrPastDate
		}
		if !acc.Covers(in.ReservedFrom, in.ReservedTo) {
			return ErrOutsideWindow
		}

		if err := l.d.Accommodations.MarkUnavailableTx(ctx, tx, acc.ID); err != nil {
			if errors.Is(err, repository.ErrNotAvailable) {
				return ErrUnavailable
			}
			return err
		}

		name := strings.TrimSpace(in.ContactName)
		if name == "" {
			name = member.Name
		}
		phone := strings.TrimSpace(in.ContactPhone)
		if phone == "" {
			phone = member.Phone
		}
		res = &model.Reservation{
			AccommodationID: acc.ID,
			MemberID:        member.ID,
			ReservedFrom:    in.ReservedFrom,
			ReservedTo:      in.ReservedTo,
			ContactName:     name,
			ContactPhone:    phone,
			Status:          model.StatusPending,
		}
		if err := l.d.Reservations.CreateTx(ctx, tx, res); err != nil {
			return err
		}
		if err := l.notifyTx(ctx, tx, res.ID, model.NotificationReservation); err != nil {
			return err
		}
		return l.audit.recordTx(ctx, tx, model.Actor{Type: model.ActorMember, ID: ptr(member.ID)}, entry{
			action:        model.ActionCreateReservation,
			accommodation: ptr(acc.ID),
			reservation:   ptr(res.ID),
			details:       fmt.Sprintf("reserved %s to %s", res.ReservedFrom, res.ReservedTo),
		})
	})
	if err != nil {
		return nil, err
	}
	l.d.publish(ctx, queue.EventReservationCreated, res, "")
	return res, nil
}

// ReleaseTx puts an accommodation back on the market.  It is called
// whenever a reservation leaves an active status.
func (l *Ledger) ReleaseTx(ctx context.Context, tx *sql.Tx, accommodationID uint64) error {
	return l.d.Accommodations.SetAvailableTx(ctx, tx, accommodationID)
}

// Restore puts a withdrawn listing back on the market.  It refuses
// while a PENDING or CONFIRMED reservation still holds the listing.
func (l *Ledger) Restore(ctx context.Context, accommodationID uint64, actor model.Actor) (*model.Accommodation, error) {
	var acc *model.Accommodation
	err := withTx(ctx, l.d.DB, func(tx *sql.Tx) error {
		var err error
		acc, err = l.d.Accommodations.GetForUpdateTx(ctx, tx, accommodationID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAccommodationNotFound
		}
		if err != nil {
			return err
		}
		if acc.IsAvailable {
			return ErrAlreadyAvailable
		}
		active, err := l.d.Reservations.CountActiveTx(ctx, tx, acc.ID)
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrActiveReservations
		}
		if err := l.ReleaseTx(ctx, tx, acc.ID); err != nil {
			return err
		}
		acc.IsAvailable = true
		return l.audit.recordTx(ctx, tx, actor, entry{
			action:        model.ActionMarkAvailable,
			accommodation: ptr(acc.ID),
			details:       "marked available",
		})
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// Withdraw is the staff override that takes a listing off the market
// without a reservation.  It is the one path where is_available can be
// false with no active reservation; the audit entry records why.
func (l *Ledger) Withdraw(ctx context.Context, accommodationID uint64, actor model.Actor, reason string) (*model.Accommodation, error) {
	var acc *model.Accommodation
	err := withTx(ctx, l.d.DB, func(tx *sql.Tx) error {
		var err error
		acc, err = l.d.Accommodations.GetForUpdateTx(ctx, tx, accommodationID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAccommodationNotFound
		}
		if err != nil {
			return err
		}
		if err := l.d.Accommodations.MarkUnavailableTx(ctx, tx, acc.ID); err != nil {
			if errors.Is(err, repository.ErrNotAvailable) {
				return ErrUnavailable.WithMessage("accommodation is already unavailable")
			}
			return err
		}
		acc.IsAvailable = false
		details := "marked unavailable"
		if r := strings.TrimSpace(reason); r != "" {
			details += ": " + r
		}
		return l.audit.recordTx(ctx, tx, actor, entry{
			action:        model.ActionMarkUnavailable,
			accommodation: ptr(acc.ID),
			details:       details,
		})
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// notifyTx fans a notification out to every recipient specialist.
func (l *Ledger) notifyTx(ctx context.Context, tx *sql.Tx, reservationID uint64, typ model.NotificationType) error {
	recipients := l.d.Recipients
	if recipients == nil {
		recipients = l.d.Specialists
	}
	ids, err := recipients.ListIDsTx(ctx, tx)
	if err != nil {
		return err
	}
	return l.d.Notifications.CreateBulkTx(ctx, tx, ids, reservationID, typ)
}
