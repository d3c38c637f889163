package jobs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// JobScheduler runs the periodic maintenance jobs.
type JobScheduler struct {
	scheduler gocron.Scheduler
	sweeper   *OrphanSweeper
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler registers the orphan sweeper every sweepInterval. A zero
// interval disables it.
func NewJobScheduler(sweeper *OrphanSweeper, sweepInterval time.Duration) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler: scheduler,
		sweeper:   sweeper,
		jobs:      make(map[string]gocron.Job),
	}

	if sweepInterval > 0 {
		job, err := scheduler.NewJob(
			gocron.DurationJob(sweepInterval),
			gocron.NewTask(js.sweepOrphans, context.Background()),
			gocron.WithName("orphan-image-sweep"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = scheduler.Shutdown()
			return nil, err
		}
		js.jobs["orphan-image-sweep"] = job
	}

	log.Info().Str("component", "scheduler").Int("jobs", len(js.jobs)).Msg("registered background jobs")
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Info().Str("component", "scheduler").Msg("starting background job scheduler")
	js.scheduler.Start()
}

// Stop waits for running jobs and stops the scheduler.
func (js *JobScheduler) Stop() error {
	log.Info().Str("component", "scheduler").Msg("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// JobNames lists the registered jobs.
func (js *JobScheduler) JobNames() []string {
	js.mu.RLock()
	defer js.mu.RUnlock()
	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (js *JobScheduler) sweepOrphans(ctx context.Context) {
	start := time.Now()
	purged, err := js.sweeper.Sweep(ctx)
	if err != nil {
		log.Error().Err(err).Str("component", "orphan-sweeper").Msg("orphan sweep failed")
		return
	}
	log.Debug().
		Str("component", "orphan-sweeper").
		Int("purged", purged).
		Dur("took", time.Since(start)).
		Msg("orphan sweep finished")
}
