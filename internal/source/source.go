package source

import (
	"context"

	"github.com/signalgrid/nodescope/internal/telemetry"
)

// Source produces telemetry events for the viewer loop.
type Source interface {
	// Begin starts production. Events land on out until ctx is canceled;
	// the returned channel delivers a terminal error, or closes clean
	// once production has fully stopped. Calling Begin on a running
	// source is an error.
	Begin(ctx context.Context, out chan telemetry.Event) (<-chan error, error)
}

// offer enqueues ev without ever blocking the producer. When out is full
// the oldest queued event is dropped to make room. Safe only with a
// single producer per channel. Reports whether ev was enqueued.
func offer(out chan telemetry.Event, ev telemetry.Event) bool {
	select {
	case out <- ev:
		return true
	default:
	}

	select {
	case <-out:
	default:
	}

	select {
	case out <- ev:
		return true
	default:
		return false
	}
}
