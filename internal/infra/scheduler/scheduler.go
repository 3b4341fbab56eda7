package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// JobScheduler runs the recurring scheduling ticks and one-shot deferred
// send jobs. Recurring jobs go through the cron engine; one-shots are
// timer-backed and identified by job ID so they can be cancelled. Each
// job invocation is isolated: a panicking callback is recovered and
// logged, siblings and future ticks are unaffected.
type JobScheduler struct {
	cronEngine *cron.Cron
	log        *logrus.Entry

	mu       sync.Mutex
	oneShots map[string]*time.Timer
	stopped  bool
}

func New(log *logrus.Entry) *JobScheduler {
	return &JobScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)),
		log:        log,
		oneShots:   make(map[string]*time.Timer),
	}
}

// AddRecurring registers a cron job under the given spec.
func (s *JobScheduler) AddRecurring(spec, name string, fn func()) error {
	_, err := s.cronEngine.AddFunc(spec, func() {
		s.runIsolated(name, fn)
	})
	return err
}

// ScheduleOnce registers a one-shot job that fires at fireAt. A fire
// time in the past fires immediately. The job is removed from the
// active set before its callback runs.
func (s *JobScheduler) ScheduleOnce(fireAt time.Time, jobID string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		s.log.Warnf("Scheduler stopped, dropping one-shot job %s", jobID)
		return
	}
	if old, ok := s.oneShots[jobID]; ok {
		old.Stop()
	}
	delay := time.Until(fireAt)
	if delay < 0 {
		delay = 0
	}
	s.oneShots[jobID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.oneShots, jobID)
		s.mu.Unlock()
		s.runIsolated(jobID, fn)
	})
}

// Cancel stops a pending one-shot job. Returns false if the job already
// fired or never existed.
func (s *JobScheduler) Cancel(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.oneShots[jobID]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.oneShots, jobID)
	return true
}

// PendingCount returns the number of one-shot jobs not yet fired.
func (s *JobScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.oneShots)
}

func (s *JobScheduler) runIsolated(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("Job %s panicked: %v", name, r)
		}
	}()
	fn()
}

func (s *JobScheduler) Start() {
	s.cronEngine.Start()
	s.log.Info("Job scheduler started.")
}

// Stop halts the cron engine, waits for running jobs and cancels all
// pending one-shots. Pending sends are lost on shutdown; the next hourly
// scan after restart re-evaluates and may re-admit.
func (s *JobScheduler) Stop() {
	s.log.Info("Stopping job scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()

	s.mu.Lock()
	s.stopped = true
	for id, t := range s.oneShots {
		t.Stop()
		delete(s.oneShots, id)
	}
	s.mu.Unlock()
	s.log.Info("Job scheduler stopped.")
}

// TickService is what the recurring jobs drive: the hourly scheduling
// scan, the daily planning pass and the daily mood-reminder sweep.
type TickService interface {
	OnHourlyTick(ctx context.Context)
	OnDailyTick(ctx context.Context)
	OnMoodReminderTick(ctx context.Context)
}

// RegisterTicks wires the three recurring jobs to the service. Each tick
// runs under its own timeout so a slow scan cannot pile up behind the
// next one.
func RegisterTicks(s *JobScheduler, svc TickService, hourlySpec, dailySpec, moodReminderSpec string) error {
	if err := s.AddRecurring(hourlySpec, "hourly_scan", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		svc.OnHourlyTick(ctx)
	}); err != nil {
		return err
	}
	if err := s.AddRecurring(dailySpec, "daily_planning", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		svc.OnDailyTick(ctx)
	}); err != nil {
		return err
	}
	return s.AddRecurring(moodReminderSpec, "mood_reminder_sweep", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		svc.OnMoodReminderTick(ctx)
	})
}
