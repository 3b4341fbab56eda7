package app

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"motivator_bot/internal/domain/engagement"
	"motivator_bot/internal/domain/mood"
	"motivator_bot/internal/domain/timing"
	"motivator_bot/internal/domain/user"
	idb "motivator_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeUserRepo struct {
	users []*user.User
}

func (f *fakeUserRepo) Create(_ context.Context, u *user.User) error { f.users = append(f.users, u); return nil }
func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*user.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, idb.ErrUserNotFound
}
func (f *fakeUserRepo) Update(context.Context, *user.User) error          { return nil }
func (f *fakeUserRepo) SetActive(context.Context, int64, bool) error      { return nil }
func (f *fakeUserRepo) TouchLastActive(context.Context, int64) error      { return nil }
func (f *fakeUserRepo) Delete(context.Context, int64) error               { return nil }
func (f *fakeUserRepo) ListAll(context.Context) ([]*user.User, error)     { return f.users, nil }
func (f *fakeUserRepo) ListActive(context.Context) ([]*user.User, error) {
	active := make([]*user.User, 0)
	for _, u := range f.users {
		if u.IsActive {
			active = append(active, u)
		}
	}
	return active, nil
}

type fakeTimingRepo struct {
	prefs   map[int64]*timing.Preference
	getErr  error
	creates int
}

func newFakeTimingRepo() *fakeTimingRepo {
	return &fakeTimingRepo{prefs: make(map[int64]*timing.Preference)}
}
func (f *fakeTimingRepo) Get(_ context.Context, userID int64) (*timing.Preference, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.prefs[userID]
	if !ok {
		return nil, idb.ErrPreferenceNotFound
	}
	return p, nil
}
func (f *fakeTimingRepo) Create(_ context.Context, p *timing.Preference) error {
	f.creates++
	f.prefs[p.UserID] = p
	return nil
}
func (f *fakeTimingRepo) Update(_ context.Context, p *timing.Preference) error {
	f.prefs[p.UserID] = p
	return nil
}
func (f *fakeTimingRepo) Delete(_ context.Context, userID int64) error {
	delete(f.prefs, userID)
	return nil
}

type fakeMoodRepo struct {
	entries map[int64][]*mood.Entry
}

func newFakeMoodRepo() *fakeMoodRepo { return &fakeMoodRepo{entries: make(map[int64][]*mood.Entry)} }
func (f *fakeMoodRepo) Add(_ context.Context, e *mood.Entry) error {
	f.entries[e.UserID] = append([]*mood.Entry{e}, f.entries[e.UserID]...)
	return nil
}
func (f *fakeMoodRepo) ListRecent(_ context.Context, userID int64, _ int) ([]*mood.Entry, error) {
	return f.entries[userID], nil
}
func (f *fakeMoodRepo) Count(context.Context) (int, error)        { return 0, nil }
func (f *fakeMoodRepo) DeleteByUser(context.Context, int64) error { return nil }

type fakeEngagementRepo struct {
	records []*engagement.Record
}

func (f *fakeEngagementRepo) Add(_ context.Context, r *engagement.Record) error {
	f.records = append(f.records, r)
	return nil
}
func (f *fakeEngagementRepo) CountSentOn(_ context.Context, userID int64, day time.Time) (int, error) {
	n := 0
	for _, r := range f.records {
		if r.UserID == userID && r.Type == engagement.TypeMotivational && r.Delivered && sameDay(r.SentAt, day) {
			n++
		}
	}
	return n, nil
}
func (f *fakeEngagementRepo) LastSentAt(_ context.Context, userID int64) (time.Time, error) {
	var last time.Time
	found := false
	for _, r := range f.records {
		if r.UserID == userID && r.Type == engagement.TypeMotivational && r.Delivered && r.SentAt.After(last) {
			last = r.SentAt
			found = true
		}
	}
	if !found {
		return time.Time{}, idb.ErrNoEngagement
	}
	return last, nil
}
func (f *fakeEngagementRepo) RecentContentIDs(context.Context, int64, int) ([]int64, error) {
	return nil, nil
}
func (f *fakeEngagementRepo) CountByUser(context.Context, int64) (int, error) { return 0, nil }
func (f *fakeEngagementRepo) Count(context.Context) (int, error)              { return 0, nil }
func (f *fakeEngagementRepo) DeleteByUser(context.Context, int64) error       { return nil }

type capturedJob struct {
	jobID  string
	fireAt time.Time
	fn     func()
}

type fakeJobs struct {
	jobs    []capturedJob
	fireNow bool
}

func (f *fakeJobs) ScheduleOnce(fireAt time.Time, jobID string, fn func()) {
	f.jobs = append(f.jobs, capturedJob{jobID: jobID, fireAt: fireAt, fn: fn})
	if f.fireNow {
		fn()
	}
}

type fakeDispatcher struct {
	motivational []int64
	reminders    []int64
	contentID    int64
	err          error
}

func (f *fakeDispatcher) DispatchMotivational(_ context.Context, userID int64) (int64, error) {
	f.motivational = append(f.motivational, userID)
	return f.contentID, f.err
}
func (f *fakeDispatcher) SendMoodReminder(_ context.Context, u *user.User) error {
	f.reminders = append(f.reminders, u.ID)
	return nil
}

// scriptedRand returns queued values, then zeros.
type scriptedRand struct {
	floats []float64
	ints   []int
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}
func (r *scriptedRand) Intn(int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v
}

// --- harness ---

var testNow = time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC) // Monday, hour 9

type testEnv struct {
	svc        *SchedulingService
	users      *fakeUserRepo
	prefs      *fakeTimingRepo
	moods      *fakeMoodRepo
	engaged    *fakeEngagementRepo
	jobs       *fakeJobs
	dispatcher *fakeDispatcher
	rng        *scriptedRand
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:      &fakeUserRepo{},
		prefs:      newFakeTimingRepo(),
		moods:      newFakeMoodRepo(),
		engaged:    &fakeEngagementRepo{},
		jobs:       &fakeJobs{},
		dispatcher: &fakeDispatcher{contentID: 7},
		rng:        &scriptedRand{},
	}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	env.svc = NewSchedulingService(
		env.users, env.prefs, env.moods, env.engaged,
		env.jobs, env.dispatcher, env.rng,
		func() time.Time { return testNow },
		logrus.NewEntry(log), 1,
	)
	return env
}

func (e *testEnv) addUser(id int64, frequency int, active bool) *user.User {
	u := &user.User{ID: id, FirstName: "Test", Language: "de", MessageFrequency: frequency, IsActive: active}
	e.users.users = append(e.users.users, u)
	return u
}

// prefWithoutPeaks keeps the default active window but clears the peak
// windows so off-peak damping applies everywhere.
func prefWithoutPeaks(userID int64) *timing.Preference {
	p := timing.Default(userID)
	p.PeakMorning = timing.Window{}
	p.PeakAfternoon = timing.Window{}
	p.PeakEvening = timing.Window{}
	return p
}

// --- tests ---

func TestEvaluateOutsideActiveHours(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(1, 2, true)
	env.prefs.prefs[1] = timing.Default(1)

	d, err := env.svc.EvaluateUser(context.Background(), u, 3)
	require.NoError(t, err)
	assert.False(t, d.Admitted)
	assert.Equal(t, ReasonOutsideActiveHours, d.Reason)
}

func TestEvaluateWrappingWindow(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(1, 2, true)
	p := prefWithoutPeaks(1)
	p.ActiveStartHour = 22
	p.ActiveEndHour = 6
	env.prefs.prefs[1] = p

	d, err := env.svc.EvaluateUser(context.Background(), u, 10)
	require.NoError(t, err)
	assert.Equal(t, ReasonOutsideActiveHours, d.Reason)

	for _, hour := range []int{23, 2} {
		d, err := env.svc.EvaluateUser(context.Background(), u, hour)
		require.NoError(t, err)
		assert.NotEqual(t, ReasonOutsideActiveHours, d.Reason, "hour %d should be inside", hour)
	}
}

func TestEvaluateQuotaMet(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(1, 4, true)
	p := timing.Default(1)
	p.MoodBoostEnabled = false
	env.prefs.prefs[1] = p

	for i := 0; i < 4; i++ {
		env.engaged.records = append(env.engaged.records, &engagement.Record{
			UserID: 1, Type: engagement.TypeMotivational, Delivered: true,
			SentAt: testNow.Add(-time.Duration(i+2) * time.Hour),
		})
	}

	d, err := env.svc.EvaluateUser(context.Background(), u, 9)
	require.NoError(t, err)
	assert.Equal(t, ReasonQuotaMet, d.Reason)
}

func TestPendingJobsHoldQuotaSlots(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(1, 1, true)
	env.prefs.prefs[1] = timing.Default(1)

	env.svc.ScheduleSend(1)
	require.Len(t, env.jobs.jobs, 1)

	d, err := env.svc.EvaluateUser(context.Background(), u, 9)
	require.NoError(t, err)
	assert.Equal(t, ReasonQuotaMet, d.Reason)

	// Firing the job frees the pending slot; quota is then met by the
	// recorded send instead, so the reason stays the same.
	env.jobs.jobs[0].fn()
	assert.Equal(t, 0, env.svc.pendingTodayCount(1))
}

func TestEvaluateMinimumGap(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(1, 4, true)
	p := prefWithoutPeaks(1)
	p.MinGapHours = 2
	p.MoodBoostEnabled = false
	env.prefs.prefs[1] = p

	env.engaged.records = append(env.engaged.records, &engagement.Record{
		UserID: 1, Type: engagement.TypeMotivational, Delivered: true,
		SentAt: testNow.Add(-1 * time.Hour),
	})

	d, err := env.svc.EvaluateUser(context.Background(), u, 9)
	require.NoError(t, err)
	assert.Equal(t, ReasonGapNotElapsed, d.Reason)

	// Exactly at the gap boundary the gate passes.
	env.engaged.records[0].SentAt = testNow.Add(-2 * time.Hour)
	env.rng.floats = []float64{0.0}
	d, err = env.svc.EvaluateUser(context.Background(), u, 9)
	require.NoError(t, err)
	assert.True(t, d.Admitted)
}

func TestEvaluateProbabilityOffPeak(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(1, 2, true)
	env.prefs.prefs[1] = prefWithoutPeaks(1)

	env.rng.floats = []float64{0.99} // force a miss so we see the probability
	d, err := env.svc.EvaluateUser(context.Background(), u, 9)
	require.NoError(t, err)
	assert.Equal(t, ReasonProbabilityMiss, d.Reason)
	// 2 msgs / 14 active hours, damped by 0.5 off-peak.
	assert.InDelta(t, 2.0/14.0*0.5, d.Probability, 1e-9)
}

func TestEvaluateProbabilityPeak(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(1, 2, true)
	env.prefs.prefs[1] = timing.Default(1) // hour 9 sits in the 8–10 peak

	env.rng.floats = []float64{0.99}
	d, err := env.svc.EvaluateUser(context.Background(), u, 9)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/14.0*2.0, d.Probability, 1e-9)
}

func TestEvaluateDegenerateWindow(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(1, 2, true)
	p := prefWithoutPeaks(1)
	p.ActiveStartHour = 8
	p.ActiveEndHour = 8
	env.prefs.prefs[1] = p

	d, err := env.svc.EvaluateUser(context.Background(), u, 8)
	require.NoError(t, err)
	assert.False(t, d.Admitted)
	assert.Equal(t, ReasonDegenerateWindow, d.Reason)
	assert.Zero(t, d.Probability)
}

func TestMoodBoostRaisesQuota(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(1, 2, true)
	env.prefs.prefs[1] = prefWithoutPeaks(1)

	for i := 0; i < 2; i++ {
		env.engaged.records = append(env.engaged.records, &engagement.Record{
			UserID: 1, Type: engagement.TypeMotivational, Delivered: true,
			SentAt: testNow.Add(-time.Duration(i+2) * time.Hour),
		})
	}

	// Neutral mood: 2 sends against effective frequency 2 meets quota.
	d, err := env.svc.EvaluateUser(context.Background(), u, 9)
	require.NoError(t, err)
	assert.Equal(t, ReasonQuotaMet, d.Reason)

	// Low mood doubles the effective frequency, so the quota gate opens.
	require.NoError(t, env.moods.Add(context.Background(), &mood.Entry{UserID: 1, Score: 2, CreatedAt: testNow}))
	env.rng.floats = []float64{0.99}
	d, err = env.svc.EvaluateUser(context.Background(), u, 9)
	require.NoError(t, err)
	assert.Equal(t, ReasonProbabilityMiss, d.Reason)

	// Boost disabled: back to quota met regardless of the low score.
	env.prefs.prefs[1].MoodBoostEnabled = false
	d, err = env.svc.EvaluateUser(context.Background(), u, 9)
	require.NoError(t, err)
	assert.Equal(t, ReasonQuotaMet, d.Reason)
}

func TestSendDelayBounds(t *testing.T) {
	env := newTestEnv()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc := NewSchedulingService(
		env.users, env.prefs, env.moods, env.engaged,
		env.jobs, env.dispatcher, rand.New(rand.NewSource(1)),
		func() time.Time { return testNow }, logrus.NewEntry(log), 1,
	)

	for i := 0; i < 1000; i++ {
		delay := svc.SendDelay()
		assert.GreaterOrEqual(t, delay, 5*time.Minute)
		assert.LessOrEqual(t, delay, 60*time.Minute)
	}
}

func TestScheduleSendFiresAndRecords(t *testing.T) {
	env := newTestEnv()
	env.addUser(1, 2, true)
	env.rng.ints = []int{10} // delay = 5 + 10 minutes

	job := env.svc.ScheduleSend(1)
	assert.Equal(t, testNow.Add(15*time.Minute), job.FireAt)
	require.Len(t, env.jobs.jobs, 1)
	assert.Equal(t, job.JobID, env.jobs.jobs[0].jobID)

	env.jobs.jobs[0].fn()
	assert.Equal(t, []int64{1}, env.dispatcher.motivational)
	require.Len(t, env.engaged.records, 1)
	rec := env.engaged.records[0]
	assert.True(t, rec.Delivered)
	assert.Equal(t, engagement.TypeMotivational, rec.Type)
	assert.Equal(t, job.FireAt, rec.ScheduledAt)
	assert.True(t, rec.ContentID.Valid)
}

func TestDispatchFailureRecordedUndelivered(t *testing.T) {
	env := newTestEnv()
	env.addUser(1, 2, true)
	env.dispatcher.err = fmt.Errorf("transport down")

	env.svc.ScheduleSend(1)
	env.jobs.jobs[0].fn()

	require.Len(t, env.engaged.records, 1)
	assert.False(t, env.engaged.records[0].Delivered)
}

func TestPauseBeforeFireRecordedUndelivered(t *testing.T) {
	env := newTestEnv()
	env.addUser(1, 2, true)
	env.dispatcher.err = ErrUserPaused
	env.dispatcher.contentID = 0

	env.svc.ScheduleSend(1)
	env.jobs.jobs[0].fn()

	require.Len(t, env.engaged.records, 1)
	assert.False(t, env.engaged.records[0].Delivered)
	assert.False(t, env.engaged.records[0].ContentID.Valid)
}

// blockingDispatcher holds a dispatch open until released, so tests can
// evaluate the quota gate while a send is in flight.
type blockingDispatcher struct {
	started chan struct{}
	release chan struct{}
}

func (d *blockingDispatcher) DispatchMotivational(_ context.Context, _ int64) (int64, error) {
	close(d.started)
	<-d.release
	return 7, nil
}
func (d *blockingDispatcher) SendMoodReminder(context.Context, *user.User) error { return nil }

func TestQuotaHeldWhileDispatchInFlight(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(1, 1, true)
	env.prefs.prefs[1] = timing.Default(1)

	blocking := &blockingDispatcher{started: make(chan struct{}), release: make(chan struct{})}
	env.svc.dispatcher = blocking

	env.svc.ScheduleSend(1)
	done := make(chan struct{})
	go func() {
		env.jobs.jobs[0].fn()
		close(done)
	}()
	<-blocking.started

	// Mid-dispatch the send is neither recorded nor fired, but it must
	// still hold its quota slot.
	d, err := env.svc.EvaluateUser(context.Background(), u, 9)
	require.NoError(t, err)
	assert.Equal(t, ReasonQuotaMet, d.Reason)

	close(blocking.release)
	<-done

	// After the fire the slot moved from pending to the engagement log.
	assert.Equal(t, 0, env.svc.pendingTodayCount(1))
	d, err = env.svc.EvaluateUser(context.Background(), u, 9)
	require.NoError(t, err)
	assert.Equal(t, ReasonQuotaMet, d.Reason)
}

func TestLazyDefaultPreferencePersisted(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(1, 2, true)

	_, err := env.svc.EvaluateUser(context.Background(), u, 3)
	require.NoError(t, err)
	require.Contains(t, env.prefs.prefs, int64(1))
	assert.Equal(t, timing.Default(1), env.prefs.prefs[1])

	// Subsequent evaluations reuse the stored preference.
	_, err = env.svc.EvaluateUser(context.Background(), u, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, env.prefs.creates)
}

func TestPausedUsersNeverDispatched(t *testing.T) {
	env := newTestEnv()
	env.addUser(1, 24, true)
	env.addUser(2, 24, false)
	env.prefs.prefs[1] = timing.Default(1)
	env.prefs.prefs[2] = timing.Default(2)
	env.jobs.fireNow = true

	// A full simulated day of hourly scans, with rolls that always admit.
	for hour := 0; hour < 24; hour++ {
		env.svc.OnHourlyTick(context.Background())
	}

	assert.NotContains(t, env.dispatcher.motivational, int64(2))
	assert.NotEmpty(t, env.dispatcher.motivational)
}

func TestScanIsolatesPerUserFailures(t *testing.T) {
	env := newTestEnv()
	env.addUser(1, 2, true)
	env.addUser(2, 2, true)
	env.jobs.fireNow = true

	// User 1's preference lookup blows up; user 2 must still be served.
	failing := newFakeTimingRepo()
	failing.prefs[2] = timing.Default(2)
	failing.getErr = nil
	env.svc.prefs = &selectiveFailTimingRepo{inner: failing, failFor: 1}

	env.svc.OnHourlyTick(context.Background())
	assert.NotContains(t, env.dispatcher.motivational, int64(1))
	assert.Contains(t, env.dispatcher.motivational, int64(2))
}

type selectiveFailTimingRepo struct {
	inner   *fakeTimingRepo
	failFor int64
}

func (s *selectiveFailTimingRepo) Get(ctx context.Context, userID int64) (*timing.Preference, error) {
	if userID == s.failFor {
		return nil, fmt.Errorf("storage unavailable")
	}
	return s.inner.Get(ctx, userID)
}
func (s *selectiveFailTimingRepo) Create(ctx context.Context, p *timing.Preference) error {
	return s.inner.Create(ctx, p)
}
func (s *selectiveFailTimingRepo) Update(ctx context.Context, p *timing.Preference) error {
	return s.inner.Update(ctx, p)
}
func (s *selectiveFailTimingRepo) Delete(ctx context.Context, userID int64) error {
	return s.inner.Delete(ctx, userID)
}

func TestReentrancyGuard(t *testing.T) {
	env := newTestEnv()
	require.True(t, env.svc.tryLockUser(1))
	assert.False(t, env.svc.tryLockUser(1))
	assert.True(t, env.svc.tryLockUser(2))
	env.svc.unlockUser(1)
	assert.True(t, env.svc.tryLockUser(1))
}

func TestMoodReminderSkipsUsersWhoLoggedToday(t *testing.T) {
	env := newTestEnv()
	env.addUser(1, 2, true)
	env.addUser(2, 2, true)
	env.addUser(3, 2, false)

	// User 1 logged mood today, user 2 yesterday.
	require.NoError(t, env.moods.Add(context.Background(), &mood.Entry{UserID: 1, Score: 4, CreatedAt: testNow.Add(-time.Hour)}))
	require.NoError(t, env.moods.Add(context.Background(), &mood.Entry{UserID: 2, Score: 4, CreatedAt: testNow.Add(-26 * time.Hour)}))

	env.svc.OnMoodReminderTick(context.Background())
	assert.Equal(t, []int64{2}, env.dispatcher.reminders)
}
