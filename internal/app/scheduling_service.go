package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"motivator_bot/internal/domain/engagement"
	"motivator_bot/internal/domain/mood"
	"motivator_bot/internal/domain/timing"
	"motivator_bot/internal/domain/user"
	idb "motivator_bot/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DecisionReason explains why a send was or was not admitted this hour.
type DecisionReason string

const (
	ReasonAdmitted           DecisionReason = "admitted"
	ReasonOutsideActiveHours DecisionReason = "outside_active_hours"
	ReasonQuotaMet           DecisionReason = "quota_met"
	ReasonGapNotElapsed      DecisionReason = "gap_not_elapsed"
	ReasonDegenerateWindow   DecisionReason = "degenerate_window"
	ReasonProbabilityMiss    DecisionReason = "probability_miss"
)

// Decision is the outcome of one hourly admission check for one user.
// Probability carries the computed per-hour chance even when the roll
// misses, so tests and logs can assert on it.
type Decision struct {
	Admitted    bool
	Reason      DecisionReason
	Probability float64
}

// ScheduledSendJob describes an admitted send handed to the timer.
type ScheduledSendJob struct {
	JobID  string
	UserID int64
	FireAt time.Time
}

// Rand is the random source driving admission rolls and send delays.
// *rand.Rand satisfies it; tests inject a seeded or scripted one.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Dispatcher composes and transmits a single message. The returned
// content ID (0 when a fallback text was used) goes into the engagement
// log. ErrUserPaused signals a skip for a meanwhile-paused user.
// Delivery retries, if any, live behind this interface.
type Dispatcher interface {
	DispatchMotivational(ctx context.Context, userID int64) (contentID int64, err error)
	SendMoodReminder(ctx context.Context, u *user.User) error
}

// JobRegistry is the slice of the timer facility the engine needs.
type JobRegistry interface {
	ScheduleOnce(fireAt time.Time, jobID string, fn func())
}

const (
	minSendDelayMinutes = 5 // avoids near-zero delays racing the next hourly tick
	maxSendDelayMinutes = 60
	dispatchTimeout     = 30 * time.Second
)

// SchedulingService decides, per user and per hour, whether to admit a
// motivational send and schedules admitted sends at a randomized offset.
// State is reconstructed from the stores on every evaluation; the only
// in-memory state is the registry of not-yet-fired one-shot jobs, which
// is intentionally lost on restart.
type SchedulingService struct {
	users        user.Repository
	prefs        timing.Repository
	moods        mood.Repository
	engagements  engagement.Repository
	jobs         JobRegistry
	dispatcher   Dispatcher
	rng          Rand
	now          func() time.Time
	log          *logrus.Entry
	lookbackDays int

	mu         sync.Mutex
	pending    map[int64][]pendingSend
	evaluating map[int64]bool
}

type pendingSend struct {
	jobID  string
	fireAt time.Time
}

func NewSchedulingService(
	users user.Repository,
	prefs timing.Repository,
	moods mood.Repository,
	engagements engagement.Repository,
	jobs JobRegistry,
	dispatcher Dispatcher,
	rng Rand,
	now func() time.Time,
	log *logrus.Entry,
	moodLookbackDays int,
) *SchedulingService {
	return &SchedulingService{
		users:        users,
		prefs:        prefs,
		moods:        moods,
		engagements:  engagements,
		jobs:         jobs,
		dispatcher:   dispatcher,
		rng:          rng,
		now:          now,
		log:          log,
		lookbackDays: moodLookbackDays,
		pending:      make(map[int64][]pendingSend),
		evaluating:   make(map[int64]bool),
	}
}

// OnHourlyTick evaluates every active user for the current hour. Users
// are processed sequentially; one user's failure never aborts the scan.
func (s *SchedulingService) OnHourlyTick(ctx context.Context) {
	hour := s.now().Hour()
	users, err := s.users.ListActive(ctx)
	if err != nil {
		s.log.WithError(err).Error("Hourly scan: could not list active users")
		return
	}
	s.log.WithFields(logrus.Fields{"hour": hour, "users": len(users)}).Debug("Hourly scheduling scan")

	for _, u := range users {
		s.evaluateAndSchedule(ctx, u, hour)
	}
}

// evaluateAndSchedule runs one guarded evaluation and, on admission,
// hands a send job to the timer.
func (s *SchedulingService) evaluateAndSchedule(ctx context.Context, u *user.User, hour int) {
	if !s.tryLockUser(u.ID) {
		s.log.WithField("user_id", u.ID).Warn("Evaluation already in progress, skipping")
		return
	}
	defer s.unlockUser(u.ID)

	decision, err := s.EvaluateUser(ctx, u, hour)
	if err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Error("Evaluation failed, treating as not admitted")
		return
	}
	if !decision.Admitted {
		s.log.WithFields(logrus.Fields{
			"user_id": u.ID, "reason": decision.Reason, "probability": decision.Probability,
		}).Debug("Send not admitted")
		return
	}

	job := s.ScheduleSend(u.ID)
	s.log.WithFields(logrus.Fields{
		"user_id": u.ID, "job_id": job.JobID, "fire_at": job.FireAt.Format(time.RFC3339),
	}).Info("Send admitted and scheduled")
}

// EvaluateUser applies the admission gates in order: active hours, daily
// quota (mood-boosted), minimum gap, then the peak-weighted hourly
// probability roll. The caller must have filtered for active users.
func (s *SchedulingService) EvaluateUser(ctx context.Context, u *user.User, hour int) (Decision, error) {
	pref, err := s.loadOrCreatePreference(ctx, u.ID)
	if err != nil {
		return Decision{}, err
	}

	if !timing.WithinActiveWindow(hour, pref.ActiveStartHour, pref.ActiveEndHour) {
		return Decision{Reason: ReasonOutsideActiveHours}, nil
	}

	factor := s.moodBoostFactor(ctx, u.ID, pref)
	effective := float64(u.MessageFrequency) * factor

	sentToday, err := s.engagements.CountSentOn(ctx, u.ID, s.now())
	if err != nil {
		return Decision{}, fmt.Errorf("counting today's sends for user %d: %w", u.ID, err)
	}
	alreadyToday := sentToday + s.pendingTodayCount(u.ID)
	if alreadyToday >= int(effective) {
		return Decision{Reason: ReasonQuotaMet}, nil
	}

	lastSent, err := s.engagements.LastSentAt(ctx, u.ID)
	if err != nil && err != idb.ErrNoEngagement {
		return Decision{}, fmt.Errorf("getting last send time for user %d: %w", u.ID, err)
	}
	if err == nil && s.now().Sub(lastSent) < pref.MinGap() {
		return Decision{Reason: ReasonGapNotElapsed}, nil
	}

	activeHours := timing.ActiveHourCount(pref.ActiveStartHour, pref.ActiveEndHour)
	if activeHours == 0 {
		s.log.WithField("user_id", u.ID).Warn("Degenerate active window, never admitting")
		return Decision{Reason: ReasonDegenerateWindow, Probability: 0}, nil
	}

	probability := effective / float64(activeHours)
	if timing.InPeakWindow(hour, pref.PeakWindows()) {
		probability *= 2.0
	} else {
		probability *= 0.5
	}

	if s.rng.Float64() < probability {
		return Decision{Admitted: true, Reason: ReasonAdmitted, Probability: probability}, nil
	}
	return Decision{Reason: ReasonProbabilityMiss, Probability: probability}, nil
}

// ScheduleSend registers a one-shot dispatch at now plus a uniform
// random delay of 5–60 minutes and tracks it as pending for the quota
// gate until it fires.
func (s *SchedulingService) ScheduleSend(userID int64) ScheduledSendJob {
	delay := s.SendDelay()
	now := s.now()
	job := ScheduledSendJob{
		JobID:  fmt.Sprintf("send_%d_%s", userID, uuid.NewString()),
		UserID: userID,
		FireAt: now.Add(delay),
	}

	s.mu.Lock()
	s.pending[userID] = append(s.pending[userID], pendingSend{jobID: job.JobID, fireAt: job.FireAt})
	s.mu.Unlock()

	s.jobs.ScheduleOnce(job.FireAt, job.JobID, func() {
		s.fireSend(job)
	})
	return job
}

// SendDelay draws the randomized within-hour offset, inclusive on both
// bounds.
func (s *SchedulingService) SendDelay() time.Duration {
	minutes := minSendDelayMinutes + s.rng.Intn(maxSendDelayMinutes-minSendDelayMinutes+1)
	return time.Duration(minutes) * time.Minute
}

// fireSend runs in the timer goroutine: dispatch, then record the
// attempt in the engagement log regardless of transport outcome.
// Failures are logged and swallowed; there is no retry here.
// The pending slot is released only after the engagement record is
// written: while the dispatch is in flight an overlapping hourly
// evaluation must still see the send in one of the two quota counts.
// The brief window where both count it can only under-admit.
func (s *SchedulingService) fireSend(job ScheduledSendJob) {
	defer s.removePending(job.UserID, job.JobID)

	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	contentID, err := s.dispatcher.DispatchMotivational(ctx, job.UserID)
	delivered := err == nil
	switch {
	case err == ErrUserPaused:
		s.log.WithField("user_id", job.UserID).Info("User paused before dispatch, nothing sent")
	case err != nil:
		s.log.WithError(err).WithField("user_id", job.UserID).Error("Dispatch failed")
	}

	rec := &engagement.Record{
		UserID:      job.UserID,
		ScheduledAt: job.FireAt,
		SentAt:      s.now(),
		Type:        engagement.TypeMotivational,
		Delivered:   delivered,
	}
	if contentID != 0 {
		rec.ContentID.Int64 = contentID
		rec.ContentID.Valid = true
	}
	if err := s.engagements.Add(ctx, rec); err != nil {
		s.log.WithError(err).WithField("user_id", job.UserID).Error("Could not record engagement")
	}
}

// OnDailyTick is the daily planning pass. Distribution planning ahead of
// time is not implemented; the hourly scan covers it.
func (s *SchedulingService) OnDailyTick(ctx context.Context) {
	s.log.Info("Daily planning tick: relying on hourly admission checks")
	s.prunePending()
}

// OnMoodReminderTick sends the daily mood check-in to every active user
// who has not logged a mood entry today.
func (s *SchedulingService) OnMoodReminderTick(ctx context.Context) {
	users, err := s.users.ListActive(ctx)
	if err != nil {
		s.log.WithError(err).Error("Mood reminder sweep: could not list active users")
		return
	}

	today := s.now()
	for _, u := range users {
		entries, err := s.moods.ListRecent(ctx, u.ID, 1)
		if err != nil {
			s.log.WithError(err).WithField("user_id", u.ID).Error("Mood reminder sweep: lookup failed")
			continue
		}
		if len(entries) > 0 && sameDay(entries[0].CreatedAt, today) {
			continue // already logged mood today
		}
		if err := s.dispatcher.SendMoodReminder(ctx, u); err != nil {
			s.log.WithError(err).WithField("user_id", u.ID).Error("Mood reminder send failed")
		}
	}
}

// loadOrCreatePreference returns the user's timing preference, lazily
// materializing and persisting the defaults on first evaluation.
func (s *SchedulingService) loadOrCreatePreference(ctx context.Context, userID int64) (*timing.Preference, error) {
	pref, err := s.prefs.Get(ctx, userID)
	if err == nil {
		return pref, nil
	}
	if err != idb.ErrPreferenceNotFound {
		return nil, fmt.Errorf("loading timing preference for user %d: %w", userID, err)
	}

	pref = timing.Default(userID)
	if err := s.prefs.Create(ctx, pref); err != nil {
		return nil, fmt.Errorf("creating default timing preference for user %d: %w", userID, err)
	}
	s.log.WithField("user_id", userID).Info("Created default timing preference")
	return pref, nil
}

// moodBoostFactor derives the frequency multiplier from the latest mood
// entry within the lookback. Always-latest-mood semantics: the factor is
// recomputed fresh each evaluation, no expiring boost window is kept.
func (s *SchedulingService) moodBoostFactor(ctx context.Context, userID int64, pref *timing.Preference) float64 {
	if !pref.MoodBoostEnabled {
		return 1.0
	}
	entries, err := s.moods.ListRecent(ctx, userID, s.lookbackDays)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("Mood lookup failed, using neutral factor")
		return 1.0
	}
	if len(entries) == 0 {
		return 1.0
	}
	return mood.BoostFactor(entries[0].Score)
}

// pendingTodayCount counts not-yet-fired jobs whose fire time falls on
// today, so admitted-but-unfired sends hold their quota slot.
func (s *SchedulingService) pendingTodayCount(userID int64) int {
	today := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.pending[userID] {
		if sameDay(p.fireAt, today) {
			n++
		}
	}
	return n
}

func (s *SchedulingService) removePending(userID int64, jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := s.pending[userID]
	for i, p := range jobs {
		if p.jobID == jobID {
			s.pending[userID] = append(jobs[:i], jobs[i+1:]...)
			break
		}
	}
	if len(s.pending[userID]) == 0 {
		delete(s.pending, userID)
	}
}

// prunePending drops stale pending entries whose fire time passed some
// while ago, e.g. jobs lost to a scheduler restart mid-process.
func (s *SchedulingService) prunePending() {
	cutoff := s.now().Add(-2 * time.Hour)
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, jobs := range s.pending {
		kept := jobs[:0]
		for _, p := range jobs {
			if p.fireAt.After(cutoff) {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			delete(s.pending, userID)
		} else {
			s.pending[userID] = kept
		}
	}
}

func (s *SchedulingService) tryLockUser(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evaluating[userID] {
		return false
	}
	s.evaluating[userID] = true
	return true
}

func (s *SchedulingService) unlockUser(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.evaluating, userID)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
