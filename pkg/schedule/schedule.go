package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Schedule determines when a recurring run happens.
type Schedule interface {
	// Next returns the first run time strictly after from.
	Next(from time.Time) time.Time
}

// Func adapts a function to Schedule.
type Func func(from time.Time) time.Time

// Next calls f.
func (f Func) Next(from time.Time) time.Time { return f(from) }

// Every runs at a fixed interval after the previous slot.
func Every(d time.Duration) Schedule {
	return Func(func(from time.Time) time.Time { return from.Add(d) })
}

// wallClock fires at hour:minute UTC, on every day or on one weekday.
type wallClock struct {
	hour, minute int
	weekday      time.Weekday
	weekly       bool
}

// Daily runs every day at hour:minute UTC.
func Daily(hour, minute int) Schedule {
	return wallClock{hour: hour, minute: minute}
}

// Weekly runs on day at hour:minute UTC.
func Weekly(day time.Weekday, hour, minute int) Schedule {
	return wallClock{hour: hour, minute: minute, weekday: day, weekly: true}
}

func (c wallClock) Next(from time.Time) time.Time {
	from = from.UTC()
	step, offset := 1, 0
	if c.weekly {
		step = 7
		offset = (int(c.weekday) - int(from.Weekday()) + 7) % 7
	}
	next := time.Date(from.Year(), from.Month(), from.Day()+offset, c.hour, c.minute, 0, 0, time.UTC)
	if !next.After(from) {
		next = next.AddDate(0, 0, step)
	}
	return next
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Cron parses a five-field cron expression or a descriptor such as
// "@hourly" or "@every 30m".
func Cron(expr string) (Schedule, error) {
	s, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return s, nil
}

// MustCron is like Cron but panics on an invalid expression.
func MustCron(expr string) Schedule {
	s, err := Cron(expr)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// Loop calls fn at every time produced by s until ctx is done. Runs never
// overlap: a run that overshoots the next slot skips it. Errors from fn are
// logged and do not end the loop.
func Loop(ctx context.Context, s Schedule, logger zerolog.Logger, fn func(context.Context) error) error {
	next := s.Next(time.Now())
	for {
		logger.Info().Time("next_run", next).Msg("waiting for next scheduled run")
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err := fn(ctx); err != nil {
			logger.Error().Err(err).Msg("scheduled run failed")
		}

		now := time.Now()
		next = s.Next(next)
		for !next.After(now) {
			next = s.Next(next)
		}
	}
}
