package scheduler

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Task is a repeating job that re-arms itself after every run with a freshly drawn delay.
// There is no fixed rate: the next delay is only drawn once the previous run has returned.
type Task struct {
	name  string
	clock clockwork.Clock
	delay func() time.Duration
	run   func(ctx context.Context)
}

// NewTask creates a jittered repeating task. delay is called from the task goroutine only.
func NewTask(name string, clock clockwork.Clock, delay func() time.Duration, run func(ctx context.Context)) *Task {
	return &Task{
		name:  name,
		clock: clock,
		delay: delay,
		run:   run,
	}
}

// Run executes the job immediately and then after each drawn delay until ctx is cancelled
func (t *Task) Run(ctx context.Context) {
	log.Debug().Str("task", t.name).Msg("task started")

	for {
		if ctx.Err() != nil {
			log.Debug().Str("task", t.name).Msg("task stopped")
			return
		}

		t.run(ctx)

		next := t.delay()
		timer := t.clock.NewTimer(next)

		log.Trace().
			Str("task", t.name).
			Dur("delay", next).
			Msg("task rescheduled")

		select {
		case <-timer.Chan():
		case <-ctx.Done():
			stopAndDrainTimer(timer)
			log.Debug().Str("task", t.name).Msg("task stopped")
			return
		}
	}
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
