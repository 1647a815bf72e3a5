// Package service holds the placement rules: the availability ledger,
// the reservation state machine, rating moderation, search, listing
// intake and the audit trail.  Every mutating operation runs in one
// database transaction together with its notifications and audit
// entry; domain events are published only after commit.
package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/unihaven/placement-api/internal/geo"
	"github.com/unihaven/placement-api/internal/queue"
	"github.com/unihaven/placement-api/internal/repository"
	"github.com/unihaven/placement-api/internal/storage"
)

// Recipients selects which specialists are notified about a
// reservation event.  It runs in the transaction of the write it
// accompanies.
type Recipients interface {
	ListIDsTx(ctx context.Context, tx *sql.Tx) ([]uint64, error)
}

// EventPublisher delivers committed reservation events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// Deps is the shared wiring of every service in this package.
type Deps struct {
	DB             *sql.DB
	Accommodations *repository.AccommodationRepo
	Reservations   *repository.ReservationRepo
	Ratings        *repository.RatingRepo
	Notifications  *repository.NotificationRepo
	Members        *repository.MemberRepo
	Specialists    *repository.SpecialistRepo
	Owners         *repository.OwnerRepo
	Campuses       *repository.CampusRepo
	Photos         *repository.PhotoRepo
	ActionLogs     *repository.ActionLogRepo

	// Recipients defaults to every specialist.
	Recipients Recipients
	// Events may be nil, in which case nothing is published.
	Events EventPublisher
	Geo    geo.Lookup
	Store  storage.PhotoStore

	// Now and Location define "today" for past-date checks.
	Now      func() time.Time
	Location *time.Location
}

// NewDeps builds repositories over db.  Callers set the optional
// collaborators (Events, Geo, Store, Location) afterwards.
func NewDeps(db *sql.DB) Deps {
	specialists := repository.NewSpecialistRepo(db)
	return Deps{
		DB:             db,
		Accommodations: repository.NewAccommodationRepo(db),
		Reservations:   repository.NewReservationRepo(db),
		Ratings:        repository.NewRatingRepo(db),
		Notifications:  repository.NewNotificationRepo(db),
		Members:        repository.NewMemberRepo(db),
		Specialists:    specialists,
		Owners:         repository.NewOwnerRepo(db),
		Campuses:       repository.NewCampusRepo(db),
		Photos:         repository.NewPhotoRepo(db),
		ActionLogs:     repository.NewActionLogRepo(db),
		Recipients:     specialists,
		Now:            time.Now,
		Location:       time.UTC,
	}
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d Deps) loc() *time.Location {
	if d.Location == nil {
		return time.UTC
	}
	return d.Location
}

// withTx runs fn in a transaction, committing when it returns nil and
// rolling back otherwise.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
