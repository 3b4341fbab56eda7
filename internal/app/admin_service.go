package app

import (
	"context"
	"fmt"

	"motivator_bot/internal/domain/engagement"
	"motivator_bot/internal/domain/goal"
	"motivator_bot/internal/domain/mood"
	domainTelegram "motivator_bot/internal/domain/telegram"
	"motivator_bot/internal/domain/timing"
	"motivator_bot/internal/domain/user"

	"github.com/sirupsen/logrus"
)

// Custom application-level errors for admin operations
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")

// Stats is the aggregate snapshot shown to the admin.
type Stats struct {
	TotalUsers      int
	ActiveUsers     int
	DeliveredSends  int
	TotalMoodChecks int
}

type AdminService struct {
	users           user.Repository
	prefs           timing.Repository
	moods           mood.Repository
	engagements     engagement.Repository
	goals           goal.Repository
	client          domainTelegram.Client
	log             *logrus.Entry
	adminTelegramID int64
}

func NewAdminService(
	users user.Repository,
	prefs timing.Repository,
	moods mood.Repository,
	engagements engagement.Repository,
	goals goal.Repository,
	client domainTelegram.Client,
	log *logrus.Entry,
	adminID int64,
) *AdminService {
	return &AdminService{
		users:           users,
		prefs:           prefs,
		moods:           moods,
		engagements:     engagements,
		goals:           goals,
		client:          client,
		log:             log,
		adminTelegramID: adminID,
	}
}

func (s *AdminService) authorize(performingID int64) error {
	if performingID != s.adminTelegramID {
		return ErrAdminNotAuthorized
	}
	return nil
}

// Stats collects the aggregate counters.
func (s *AdminService) Stats(ctx context.Context, performingID int64) (*Stats, error) {
	if err := s.authorize(performingID); err != nil {
		return nil, err
	}

	all, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users for stats: %w", err)
	}
	active := 0
	for _, u := range all {
		if u.IsActive {
			active++
		}
	}

	sends, err := s.engagements.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting sends for stats: %w", err)
	}
	moods, err := s.moods.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting mood entries for stats: %w", err)
	}

	return &Stats{
		TotalUsers:      len(all),
		ActiveUsers:     active,
		DeliveredSends:  sends,
		TotalMoodChecks: moods,
	}, nil
}

// ListUsers returns all users for the admin overview.
func (s *AdminService) ListUsers(ctx context.Context, performingID int64) ([]*user.User, error) {
	if err := s.authorize(performingID); err != nil {
		return nil, err
	}
	return s.users.ListAll(ctx)
}

// Broadcast sends a text to every active user and returns the number of
// successful sends. Individual failures are logged and skipped.
func (s *AdminService) Broadcast(ctx context.Context, performingID int64, text string) (int, error) {
	if err := s.authorize(performingID); err != nil {
		return 0, err
	}

	users, err := s.users.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing active users for broadcast: %w", err)
	}

	sent := 0
	for _, u := range users {
		if err := s.client.SendMessage(u.ID, text, nil); err != nil {
			s.log.WithError(err).WithField("user_id", u.ID).Error("Broadcast send failed")
			continue
		}
		sent++
	}
	return sent, nil
}

// ResetUser deletes all data for a user: mood entries, engagement log,
// goals, timing preference and finally the user row itself.
func (s *AdminService) ResetUser(ctx context.Context, performingID, userID int64) error {
	if err := s.authorize(performingID); err != nil {
		return err
	}

	if err := s.moods.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("resetting mood entries: %w", err)
	}
	if err := s.engagements.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("resetting engagement log: %w", err)
	}
	if err := s.goals.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("resetting goals: %w", err)
	}
	if err := s.prefs.Delete(ctx, userID); err != nil {
		return fmt.Errorf("resetting timing preference: %w", err)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("resetting user record: %w", err)
	}
	s.log.WithField("user_id", userID).Info("User fully reset by admin")
	return nil
}
