package scheduler

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

const checkJobName = "alarm-check"

// CronLoop runs the check as a gocron duration job. A run that is still going
// when the next one is due is rescheduled instead of overlapping.
type CronLoop struct {
	clock clockwork.Clock

	mu    sync.Mutex
	sched gocron.Scheduler
}

// NewCronLoop creates a loop whose job timing follows clock.
func NewCronLoop(clock clockwork.Clock) *CronLoop {
	return &CronLoop{clock: clock}
}

// Start schedules fn every period. It does nothing if already started.
func (l *CronLoop) Start(period time.Duration, fn func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sched != nil {
		return nil
	}

	s, err := gocron.NewScheduler(gocron.WithClock(l.clock))
	if err != nil {
		return err
	}

	_, err = s.NewJob(
		gocron.DurationJob(period),
		gocron.NewTask(fn),
		gocron.WithName(checkJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return err
	}

	s.Start()
	l.sched = s
	return nil
}

// Stop shuts the job down, waiting for a running check to return.
func (l *CronLoop) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sched == nil {
		return nil
	}
	err := l.sched.Shutdown()
	l.sched = nil
	return err
}
