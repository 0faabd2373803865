package observer

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jdziat/pdfbatch/pkg/core"
)

// Source produces batch events. batch.Batch satisfies it.
type Source interface {
	Events() <-chan core.Event
	Unsubscribe(ch <-chan core.Event)
}

// Observer receives events in emission order.
type Observer interface {
	Observe(e core.Event)
}

// Func adapts a function to Observer.
type Func func(e core.Event)

// Observe calls f(e).
func (f Func) Observe(e core.Event) { f(e) }

// Subscription buffers the events of one source.
type Subscription struct {
	src  Source
	ch   <-chan core.Event
	once sync.Once
}

// Subscribe registers a new event channel on src.
func Subscribe(src Source) *Subscription {
	return &Subscription{src: src, ch: src.Events()}
}

// Run forwards events until BatchDone arrives or ctx ends. When ctx ends the
// events already buffered are still delivered. It returns the summary of
// the run and whether BatchDone was seen.
func (s *Subscription) Run(ctx context.Context, observers ...Observer) (core.Summary, bool) {
	deliver := func(e core.Event) (core.Summary, bool) {
		for _, o := range observers {
			o.Observe(e)
		}
		if done, ok := e.(*core.BatchDone); ok {
			return done.Summary, true
		}
		return core.Summary{}, false
	}

	for {
		select {
		case e := <-s.ch:
			if summary, done := deliver(e); done {
				return summary, true
			}
		case <-ctx.Done():
			for {
				select {
				case e := <-s.ch:
					if summary, done := deliver(e); done {
						return summary, true
					}
				default:
					return core.Summary{}, false
				}
			}
		}
	}
}

// Close unsubscribes from the source. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() { s.src.Unsubscribe(s.ch) })
}

// Log writes one structured log line per event.
type Log struct {
	logger zerolog.Logger
}

// NewLog returns an observer logging to logger.
func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger}
}

// Observe logs e. Item progress is logged at debug level.
func (l *Log) Observe(e core.Event) {
	switch ev := e.(type) {
	case *core.BatchStarted:
		l.logger.Info().Str("batch_id", ev.BatchID).Str("run_id", ev.RunID).Int("total", ev.Total).Msg("batch started")
	case *core.JobStarted:
		l.job(l.logger.Info(), ev.Job).Int("attempt", ev.Attempt).Msg("job started")
	case *core.ItemProgress:
		l.job(l.logger.Debug(), ev.Job).Str("item", ev.Label).Int("percent", ev.Percent).Msg("item progress")
	case *core.OverallProgress:
		l.logger.Debug().Int("value", ev.Value).Int("max", ev.Max).Msg(ev.Message)
	case *core.JobCompleted:
		l.job(l.logger.Info(), ev.Job).Dur("duration", ev.Duration).Strs("outputs", ev.Job.Outputs).Msg("job completed")
	case *core.JobRetrying:
		l.job(l.logger.Warn(), ev.Job).Int("attempt", ev.Attempt).Err(ev.Error).Msg("job retrying")
	case *core.JobFailed:
		l.job(l.logger.Error(), ev.Job).Err(ev.Error).Msg("job failed")
	case *core.JobCancelled:
		l.job(l.logger.Warn(), ev.Job).Msg("job cancelled")
	case *core.BatchDone:
		s := ev.Summary
		l.logger.Info().
			Str("batch_id", s.BatchID).
			Int("total", s.Total).
			Int("completed", s.Completed).
			Int("failed", s.Failed).
			Int("cancelled", s.Cancelled).
			Int("not_attempted", s.NotAttempted).
			Bool("interrupted", s.Interrupted).
			Dur("duration", s.Duration).
			Msg("batch done")
	}
}

func (l *Log) job(ev *zerolog.Event, job *core.Job) *zerolog.Event {
	if job == nil {
		return ev
	}
	return ev.Str("job_id", job.ID).Str("kind", string(job.Kind))
}
