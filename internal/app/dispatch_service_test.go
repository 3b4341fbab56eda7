package app

import (
	"context"
	"fmt"
	"testing"

	"motivator_bot/internal/domain/content"
	"motivator_bot/internal/domain/mood"
	"motivator_bot/internal/domain/user"
	idb "motivator_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

type fakeContentRepo struct {
	items []*content.Item
}

func (f *fakeContentRepo) Add(_ context.Context, item *content.Item) error {
	f.items = append(f.items, item)
	return nil
}
func (f *fakeContentRepo) PickForMood(_ context.Context, language string, score int, exclude []int64) (*content.Item, error) {
	excluded := make(map[int64]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}
	for _, item := range f.items {
		if item.Language != language || excluded[item.ID] {
			continue
		}
		if item.MinMood <= score && score <= item.MaxMood {
			return item, nil
		}
	}
	return nil, idb.ErrNoContent
}
func (f *fakeContentRepo) Count(context.Context) (int, error) { return len(f.items), nil }

type sentMessage struct {
	chatID  int64
	text    string
	options *telebot.SendOptions
}

type fakeClient struct {
	sent []sentMessage
	err  error
}

func (f *fakeClient) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, options: options})
	return nil
}

type dispatchEnv struct {
	svc      *DispatchService
	users    *fakeUserRepo
	moods    *fakeMoodRepo
	contents *fakeContentRepo
	engaged  *fakeEngagementRepo
	client   *fakeClient
}

func newDispatchEnv() *dispatchEnv {
	env := &dispatchEnv{
		users:    &fakeUserRepo{},
		moods:    newFakeMoodRepo(),
		contents: &fakeContentRepo{},
		engaged:  &fakeEngagementRepo{},
		client:   &fakeClient{},
	}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	env.svc = NewDispatchService(env.users, env.moods, env.contents, env.engaged, env.client, logrus.NewEntry(log))
	return env
}

func (e *dispatchEnv) addUser(id int64, language string, active bool) *user.User {
	u := &user.User{ID: id, Language: language, MessageFrequency: 2, IsActive: active}
	e.users.users = append(e.users.users, u)
	return u
}

func TestDispatchMotivationalPicksByMood(t *testing.T) {
	env := newDispatchEnv()
	env.addUser(1, "de", true)
	env.contents.items = []*content.Item{
		{ID: 10, Body: "Für schwere Tage", Language: "de", MinMood: 1, MaxMood: 2},
		{ID: 11, Body: "Für gute Tage", Language: "de", MinMood: 3, MaxMood: 5},
	}
	require.NoError(t, env.moods.Add(context.Background(), &mood.Entry{UserID: 1, Score: 2, CreatedAt: testNow}))

	contentID, err := env.svc.DispatchMotivational(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), contentID)
	require.Len(t, env.client.sent, 1)
	assert.Equal(t, "Für schwere Tage", env.client.sent[0].text)
}

func TestDispatchMotivationalNeutralWithoutMoodHistory(t *testing.T) {
	env := newDispatchEnv()
	env.addUser(1, "de", true)
	env.contents.items = []*content.Item{
		{ID: 10, Body: "low", Language: "de", MinMood: 1, MaxMood: 2},
		{ID: 11, Body: "mid", Language: "de", MinMood: 3, MaxMood: 5},
	}

	contentID, err := env.svc.DispatchMotivational(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(11), contentID)
}

func TestDispatchMotivationalFallbackText(t *testing.T) {
	env := newDispatchEnv()
	env.addUser(1, "en", true)

	contentID, err := env.svc.DispatchMotivational(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, contentID)
	require.Len(t, env.client.sent, 1)
	assert.Equal(t, fallbackMessages["en"], env.client.sent[0].text)
}

func TestDispatchMotivationalSkipsPausedUser(t *testing.T) {
	env := newDispatchEnv()
	env.addUser(1, "de", false)

	contentID, err := env.svc.DispatchMotivational(context.Background(), 1)
	assert.Equal(t, ErrUserPaused, err)
	assert.Zero(t, contentID)
	assert.Empty(t, env.client.sent)
}

func TestDispatchMotivationalTransportError(t *testing.T) {
	env := newDispatchEnv()
	env.addUser(1, "de", true)
	env.client.err = fmt.Errorf("telegram unreachable")

	_, err := env.svc.DispatchMotivational(context.Background(), 1)
	assert.Error(t, err)
}

func TestSendNowRecordsEngagement(t *testing.T) {
	env := newDispatchEnv()
	env.addUser(1, "de", true)
	env.contents.items = []*content.Item{
		{ID: 10, Body: "Weiter so!", Language: "de", MinMood: 1, MaxMood: 5},
	}

	require.NoError(t, env.svc.SendNow(context.Background(), 1))
	require.Len(t, env.engaged.records, 1)
	rec := env.engaged.records[0]
	assert.True(t, rec.Delivered)
	assert.Equal(t, int64(10), rec.ContentID.Int64)
	assert.Equal(t, rec.ScheduledAt, rec.SentAt)
}

func TestSendMoodReminderUsesMarkdown(t *testing.T) {
	env := newDispatchEnv()
	u := env.addUser(1, "en", true)

	require.NoError(t, env.svc.SendMoodReminder(context.Background(), u))
	require.Len(t, env.client.sent, 1)
	assert.Equal(t, moodReminderMessages["en"], env.client.sent[0].text)
	require.NotNil(t, env.client.sent[0].options)
	assert.Equal(t, telebot.ModeMarkdown, env.client.sent[0].options.ParseMode)
}
