package daemon

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	ferrors "git.home.luguber.info/inful/docportal/internal/foundation/errors"
	"git.home.luguber.info/inful/docportal/internal/logfields"
)

// Scheduler wraps gocron for periodic rebuilds.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "create scheduler").Build()
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins running jobs.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler", logfields.Count(len(s.scheduler.Jobs())))
	s.scheduler.Start()
}

// Stop waits for running jobs and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleEvery runs task every interval. A run that is still busy when the
// next tick fires causes that tick to be skipped.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, task func()) (string, error) {
	if interval <= 0 {
		return "", ferrors.ValidationError("schedule interval must be positive").
			WithContext("interval", interval.String()).Build()
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryDaemon, "create periodic job").
			WithContext("name", name).Build()
	}
	return job.ID().String(), nil
}

// NextRun returns when the named job fires next.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	for _, j := range s.scheduler.Jobs() {
		if j.Name() != name {
			continue
		}
		next, err := j.NextRun()
		if err != nil {
			return time.Time{}, false
		}
		return next, true
	}
	return time.Time{}, false
}
