package service

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/unihaven/placement-api/internal/model"
	"github.com/unihaven/placement-api/internal/queue"
)

const publishTimeout = 5 * time.Second

// publish sends a committed reservation change to the broker.  Failures
// are logged only: the change itself has already been committed.
func (d Deps) publish(ctx context.Context, typ string, res *model.Reservation, previous model.ReservationStatus) {
	if d.Events == nil {
		return
	}
	ev := queue.ReservationEvent{
		Type:            typ,
		ReservationID:   res.ID,
		AccommodationID: res.AccommodationID,
		MemberID:        res.MemberID,
		PreviousStatus:  string(previous),
		Status:          string(res.Status),
		ReservedFrom:    res.ReservedFrom.String(),
		ReservedTo:      res.ReservedTo.String(),
		OccurredAt:      d.now().UTC().Format(time.RFC3339),
	}
	// detach from the request so a client disconnect does not drop the event
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := d.Events.Publish(pctx, ev); err != nil {
		log.Warnf("events: publish %s for reservation %d failed: %v", typ, res.ID, err)
	}
}
