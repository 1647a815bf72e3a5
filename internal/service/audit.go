package service

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/unihaven/placement-api/internal/model"
	"github.com/unihaven/placement-api/internal/repository"
)

const (
	defaultLogPageSize = 20
	maxLogPageSize     = 100
)

// AuditLog records and queries the append-only action trail.
type AuditLog struct {
	d Deps
}

func NewAuditLog(d Deps) *AuditLog { return &AuditLog{d: d} }

// entry describes what an action touched.
type entry struct {
	action        model.ActionType
	accommodation *uint64
	reservation   *uint64
	rating        *uint64
	details       string
}

// recordTx appends an audit entry inside the caller's transaction, so
// the entry commits or rolls back with the change it describes.
func (a *AuditLog) recordTx(ctx context.Context, tx *sql.Tx, actor model.Actor, e entry) error {
	if !actor.Type.IsValid() {
		actor = model.SystemActor
	}
	return a.d.ActionLogs.AppendTx(ctx, tx, &model.ActionLog{
		ActionType:      e.action,
		UserType:        actor.Type,
		UserID:          actor.ID,
		AccommodationID: e.accommodation,
		ReservationID:   e.reservation,
		RatingID:        e.rating,
		Details:         e.details,
	})
}

// LogFilter is the raw query of the audit listing.  Empty strings mean
// "no constraint".  Dates are YYYY-MM-DD in the service time zone and
// both ends are inclusive.
type LogFilter struct {
	ActionType      string
	UserType        string
	UserID          string
	AccommodationID string
	StartDate       string
	EndDate         string
	Page            int
	PageSize        int
}

// LogPage is one page of audit entries, newest first.
type LogPage struct {
	Results  []model.ActionLog `json:"results"`
	Count    int64             `json:"count"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// List validates the filter and returns the matching page.
func (a *AuditLog) List(ctx context.Context, f LogFilter) (*LogPage, error) {
	q := repository.ActionLogQuery{Page: f.Page, PageSize: f.PageSize}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultLogPageSize
	}
	if q.PageSize > maxLogPageSize {
		q.PageSize = maxLogPageSize
	}

	if s := strings.TrimSpace(f.ActionType); s != "" {
		at, err := model.ParseActionType(s)
		if err != nil {
			return nil, Validation("invalid_action_type", err.Error())
		}
		q.ActionType = at
	}
	if s := strings.TrimSpace(f.UserType); s != "" {
		ut, err := model.ParseActorType(s)
		if err != nil {
			return nil, Validation("invalid_user_type", err.Error())
		}
		q.UserType = ut
	}
	var err error
	if q.UserID, err = optionalID("user_id", f.UserID); err != nil {
		return nil, err
	}
	if q.AccommodationID, err = optionalID("accommodation_id", f.AccommodationID); err != nil {
		return nil, err
	}

	var start, end model.Date
	if start, err = optionalDate("start_date", f.StartDate); err != nil {
		return nil, err
	}
	if end, err = optionalDate("end_date", f.EndDate); err != nil {
		return nil, err
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return nil, ErrInvalidRange
	}
	if !start.IsZero() {
		q.Start = startOfDay(start, a.d.loc())
	}
	if !end.IsZero() {
		q.End = startOfDay(end.AddDays(1), a.d.loc()).Add(-time.Nanosecond)
	}

	logs, total, err := a.d.ActionLogs.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &LogPage{Results: logs, Count: total, Page: q.Page, PageSize: q.PageSize}, nil
}

func startOfDay(d model.Date, loc *time.Location) time.Time {
	y, m, day := d.Time().Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}

func optionalID(field, raw string) (*uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, Validation("invalid_"+field, field+" must be a positive integer")
	}
	return &n, nil
}

func optionalDate(field, raw string) (model.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.Date{}, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return model.Date{}, Validation("invalid_"+field, field+" must be YYYY-MM-DD")
	}
	return d, nil
}

func ptr[T any](v T) *T { return &v }
