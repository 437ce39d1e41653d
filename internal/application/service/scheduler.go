package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"pulse/internal/application/port"
)

// ErrUnknownDataType rejects a manual trigger for a name no job carries.
var ErrUnknownDataType = errors.New("unknown data type")

// Cadences holds the per-job cron expressions (5-field, evaluated in UTC).
type Cadences struct {
	Prices    string
	Calendar  string
	Cot       string
	News      string
	Retention string
}

type job struct {
	name     string
	schedule cron.Schedule
	run      func(context.Context) error

	entry    cron.EntryID
	inFlight atomic.Bool
}

// Scheduler owns the recurring fetch jobs. Each job fires on its own UTC
// cadence; an overlapping fire of the same job is skipped while distinct
// jobs run concurrently. A scheduled fire swallows its own error after
// logging so the other jobs keep their cadence.
type Scheduler struct {
	fetcher port.Fetcher

	mu   sync.Mutex
	cron *cron.Cron
	jobs []*job
	ctx  context.Context
}

// JobStatus reports one job's scheduling state.
type JobStatus struct {
	Running bool       `json:"running"`
	NextRun *time.Time `json:"nextRun,omitempty"`
}

// Status reports the scheduler as a whole.
type Status struct {
	Running bool                 `json:"running"`
	Jobs    map[string]JobStatus `json:"jobs"`
}

// NewScheduler parses the cadence table up front so a malformed expression
// fails at startup, not at first fire.
func NewScheduler(fetcher port.Fetcher, cadences Cadences) (*Scheduler, error) {
	s := &Scheduler{fetcher: fetcher}

	table := []struct {
		name string
		expr string
		run  func(context.Context) error
	}{
		{"prices", cadences.Prices, fetcher.FetchPrices},
		{"calendar", cadences.Calendar, fetcher.FetchCalendar},
		{"cot", cadences.Cot, fetcher.FetchCot},
		{"news", cadences.News, fetcher.FetchNews},
		{"retention", cadences.Retention, fetcher.PruneExpired},
	}
	for _, entry := range table {
		schedule, err := cron.ParseStandard(entry.expr)
		if err != nil {
			return nil, fmt.Errorf("parsing %s cadence %q: %w", entry.name, entry.expr, err)
		}
		s.jobs = append(s.jobs, &job{name: entry.name, schedule: schedule, run: entry.run})
	}
	return s, nil
}

// Start registers and activates all jobs. Calling Start on a running
// scheduler is a no-op; timers are never double-registered.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		log.Info().Msg("scheduler already running")
		return
	}

	s.ctx = ctx
	c := cron.New(cron.WithLocation(time.UTC))
	for _, j := range s.jobs {
		j := j
		j.entry = c.Schedule(j.schedule, cron.FuncJob(func() { s.fire(j) }))
	}
	c.Start()
	s.cron = c

	log.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
}

func (s *Scheduler) fire(j *job) {
	if !j.inFlight.CompareAndSwap(false, true) {
		log.Warn().Str("job", j.name).Msg("previous run still in flight, skipping fire")
		return
	}
	defer j.inFlight.Store(false)

	log.Info().Str("job", j.name).Msg("scheduled fetch triggered")
	if err := j.run(s.ctx); err != nil {
		log.Error().Str("job", j.name).Err(err).Msg("scheduled fetch failed")
	}
}

// Stop deactivates and discards all jobs. Safe to call when nothing runs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil

	log.Info().Msg("scheduler stopped")
}

// Status reports whether jobs are registered and, per job, its next fire
// time on the current cadence.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Running: s.cron != nil,
		Jobs:    make(map[string]JobStatus, len(s.jobs)),
	}
	for _, j := range s.jobs {
		js := JobStatus{Running: s.cron != nil}
		if s.cron != nil {
			if next := s.cron.Entry(j.entry).Next; !next.IsZero() {
				n := next
				js.NextRun = &n
			}
		}
		status.Jobs[j.name] = js
	}
	return status
}

// Trigger runs the named job's fetch routine immediately, out of band from
// its cadence and outside the per-job in-flight guard: a manual run may
// overlap a scheduled one, and the store's natural keys absorb the overlap.
// "all" runs prices, calendar, and news concurrently; cot and retention must
// be triggered by name. Errors propagate to the caller.
func (s *Scheduler) Trigger(ctx context.Context, dataType string) error {
	log.Info().Str("data_type", dataType).Msg("manual fetch trigger")

	switch dataType {
	case "prices":
		return s.fetcher.FetchPrices(ctx)
	case "calendar":
		return s.fetcher.FetchCalendar(ctx)
	case "cot":
		return s.fetcher.FetchCot(ctx)
	case "news":
		return s.fetcher.FetchNews(ctx)
	case "retention":
		return s.fetcher.PruneExpired(ctx)
	case "all":
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return s.fetcher.FetchPrices(gctx) })
		g.Go(func() error { return s.fetcher.FetchCalendar(gctx) })
		g.Go(func() error { return s.fetcher.FetchNews(gctx) })
		return g.Wait()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownDataType, dataType)
	}
}
