package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"motivator_bot/internal/domain/content"
	"motivator_bot/internal/domain/engagement"
	"motivator_bot/internal/domain/mood"
	domainTelegram "motivator_bot/internal/domain/telegram"
	"motivator_bot/internal/domain/user"
	idb "motivator_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const recentContentWindow = 5 // sends to look back when avoiding repeats

// ErrUserPaused reports that the target paused messages between
// admission and fire; nothing was sent.
var ErrUserPaused = fmt.Errorf("user paused before dispatch")

// Fallback texts for users whose language has no matching content yet.
var fallbackMessages = map[string]string{
	"de": "💪 Du schaffst das! Ein Schritt nach dem anderen.",
	"en": "💪 You've got this! One step at a time.",
}

var moodReminderMessages = map[string]string{
	"de": "🌙 *Tägliche Erinnerung*\n\nWie war dein Tag heute? Verwende /mood um deine Stimmung zu erfassen.",
	"en": "🌙 *Daily Check-in*\n\nHow was your day today? Use /mood to log how you're feeling.",
}

// DispatchService composes and transmits one message to one user:
// content selection by language and latest mood, repeat avoidance,
// transport send. It implements the Dispatcher contract the scheduling
// engine drives.
type DispatchService struct {
	users       user.Repository
	moods       mood.Repository
	contents    content.Repository
	engagements engagement.Repository
	client      domainTelegram.Client
	log         *logrus.Entry
}

func NewDispatchService(
	users user.Repository,
	moods mood.Repository,
	contents content.Repository,
	engagements engagement.Repository,
	client domainTelegram.Client,
	log *logrus.Entry,
) *DispatchService {
	return &DispatchService{
		users:       users,
		moods:       moods,
		contents:    contents,
		engagements: engagements,
		client:      client,
		log:         log,
	}
}

// DispatchMotivational sends one motivational message. Returns the
// content ID that was sent, or 0 when the fallback text was used.
// Returns ErrUserPaused when the user paused since admission, so the
// engagement log records the skip as not delivered.
func (s *DispatchService) DispatchMotivational(ctx context.Context, userID int64) (int64, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("loading user %d for dispatch: %w", userID, err)
	}
	if !u.IsActive {
		s.log.WithField("user_id", userID).Info("User paused before dispatch, skipping")
		return 0, ErrUserPaused
	}

	score := s.latestMoodScore(ctx, userID)
	recent, err := s.engagements.RecentContentIDs(ctx, userID, recentContentWindow)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("Could not load recent content IDs")
		recent = nil
	}

	item, err := s.contents.PickForMood(ctx, u.Language, score, recent)
	if err == idb.ErrNoContent {
		// Retry without the exclusion before falling back to static text.
		item, err = s.contents.PickForMood(ctx, u.Language, score, nil)
	}
	if err != nil {
		if err != idb.ErrNoContent {
			s.log.WithError(err).WithField("user_id", userID).Error("Content selection failed")
		}
		text := fallbackText(u.Language)
		if sendErr := s.client.SendMessage(u.ID, text, nil); sendErr != nil {
			return 0, fmt.Errorf("sending fallback message to user %d: %w", userID, sendErr)
		}
		return 0, nil
	}

	if err := s.client.SendMessage(u.ID, item.Body, nil); err != nil {
		return 0, fmt.Errorf("sending message to user %d: %w", userID, err)
	}
	return item.ID, nil
}

// SendNow dispatches immediately (the /motivateme path) and records the
// engagement itself, with scheduled and sent times both set to now.
func (s *DispatchService) SendNow(ctx context.Context, userID int64) error {
	contentID, err := s.DispatchMotivational(ctx, userID)
	now := time.Now()
	rec := &engagement.Record{
		UserID:      userID,
		ScheduledAt: now,
		SentAt:      now,
		Type:        engagement.TypeMotivational,
		Delivered:   err == nil,
	}
	if contentID != 0 {
		rec.ContentID = sql.NullInt64{Int64: contentID, Valid: true}
	}
	if recErr := s.engagements.Add(ctx, rec); recErr != nil {
		s.log.WithError(recErr).WithField("user_id", userID).Error("Could not record immediate send")
	}
	return err
}

// SendMoodReminder sends the daily mood check-in text.
func (s *DispatchService) SendMoodReminder(ctx context.Context, u *user.User) error {
	text, ok := moodReminderMessages[u.Language]
	if !ok {
		text = moodReminderMessages[user.DefaultLanguage]
	}
	return s.client.SendMessage(u.ID, text, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
}

func (s *DispatchService) latestMoodScore(ctx context.Context, userID int64) int {
	entries, err := s.moods.ListRecent(ctx, userID, 1)
	if err != nil || len(entries) == 0 {
		return 3 // neutral
	}
	return entries[0].Score
}

func fallbackText(language string) string {
	if text, ok := fallbackMessages[language]; ok {
		return text
	}
	return fallbackMessages[user.DefaultLanguage]
}
