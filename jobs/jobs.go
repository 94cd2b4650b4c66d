// Package jobs runs the periodic maintenance work of the booking service.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const sweepTimeout = 2 * time.Minute

// Completer persists the completion of appointments whose slot has passed.
type Completer interface {
	CompleteDue(ctx context.Context) (int, error)
}

// StartCompletionScheduler sweeps due appointments on the given cron schedule
// in loc. Stop the returned cron to end it.
func StartCompletionScheduler(schedule string, loc *time.Location, completer Completer, log zerolog.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(schedule, func() {
		RunCompletionSweep(context.Background(), completer, log)
	}); err != nil {
		return nil, fmt.Errorf("schedule completion sweep %q: %w", schedule, err)
	}
	c.Start()
	log.Info().Str("schedule", schedule).Msg("completion sweep scheduled")
	return c, nil
}

// RunCompletionSweep runs one sweep and reports how many appointments it completed.
func RunCompletionSweep(ctx context.Context, completer Completer, log zerolog.Logger) int {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	n, err := completer.CompleteDue(ctx)
	if err != nil {
		log.Error().Err(err).Int("completed", n).Msg("completion sweep failed")
		return n
	}
	log.Debug().Int("completed", n).Msg("completion sweep finished")
	return n
}
