package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/sony/gobreaker"
)

// Breaker wraps a Lookup with a circuit breaker.  After a run of
// upstream failures, calls fail fast until the cooldown has passed.
// Answers without a match count as successes.
type Breaker struct {
	next Lookup
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker trips after failures consecutive upstream errors and
// probes again after cooldown.
func NewBreaker(next Lookup, failures uint32, cooldown time.Duration) *Breaker {
	if failures == 0 {
		failures = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "geo-lookup",
		Timeout: cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoMatch)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("geo: circuit %s changed from %s to %s", name, from, to)
		},
	})
	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) Lookup(ctx context.Context, buildingName string) (Location, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Lookup(ctx, buildingName)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Location{}, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	if err != nil {
		return Location{}, err
	}
	return v.(Location), nil
}

// State reports the breaker state for diagnostics.
func (b *Breaker) State() gobreaker.State { return b.cb.State() }
