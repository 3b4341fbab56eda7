package telegram

import (
	"context"
	"fmt"
	"strings"

	"motivator_bot/internal/app"
	"motivator_bot/internal/domain/engagement"
	"motivator_bot/internal/domain/goal"
	"motivator_bot/internal/domain/mood"
	"motivator_bot/internal/domain/timing"
	"motivator_bot/internal/domain/user"
	idb "motivator_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// UserHandlerDeps bundles what the user-facing command handlers need.
type UserHandlerDeps struct {
	Users       user.Repository
	Prefs       timing.Repository
	Moods       mood.Repository
	Goals       goal.Repository
	Engagements engagement.Repository
	Dispatch    *app.DispatchService
	Log         *logrus.Entry
}

// loadPreference mirrors the engine's lazy-default behavior so /settings
// works before the first evaluation ever ran.
func loadPreference(ctx context.Context, prefs timing.Repository, userID int64) (*timing.Preference, error) {
	p, err := prefs.Get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if err != idb.ErrPreferenceNotFound {
		return nil, err
	}
	p = timing.Default(userID)
	if err := prefs.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RegisterUserCommands wires the end-user command handlers.
func RegisterUserCommands(ctx context.Context, b *telebot.Bot, deps UserHandlerDeps) {
	log := deps.Log.WithField("handler_group", "user_commands")

	b.Handle("/start", func(c telebot.Context) error {
		sender := c.Sender()
		logCtx := log.WithField("command", "/start").WithField("sender_id", sender.ID)

		existing, err := deps.Users.GetByID(ctx, sender.ID)
		if err == nil {
			logCtx.Info("Known user restarted the bot")
			if !existing.IsActive {
				if err := deps.Users.SetActive(ctx, existing.ID, true); err != nil {
					logCtx.WithError(err).Error("Could not reactivate user")
					return c.Send(text(errorTexts, existing.Language))
				}
			}
			_ = deps.Users.TouchLastActive(ctx, existing.ID)
			return c.Send(fmt.Sprintf(text(welcomeBackTexts, existing.Language), existing.FirstName))
		}
		if err != idb.ErrUserNotFound {
			logCtx.WithError(err).Error("User lookup failed on /start")
			return c.Send(text(errorTexts, user.DefaultLanguage))
		}

		newUser := user.New(sender.ID, sender.Username, sender.FirstName)
		if err := deps.Users.Create(ctx, newUser); err != nil {
			logCtx.WithError(err).Error("Could not create user")
			return c.Send(text(errorTexts, newUser.Language))
		}
		logCtx.Info("New user registered")
		return c.Send(fmt.Sprintf(text(welcomeTexts, newUser.Language), newUser.FirstName))
	})

	b.Handle("/help", func(c telebot.Context) error {
		u := loadUser(ctx, deps.Users, c, log)
		return c.Send(text(helpTexts, languageOf(u)))
	})

	b.Handle("/pause", func(c telebot.Context) error {
		u := loadUser(ctx, deps.Users, c, log)
		if u == nil {
			return c.Send(text(errorTexts, user.DefaultLanguage))
		}
		if err := deps.Users.SetActive(ctx, u.ID, false); err != nil {
			log.WithError(err).WithField("user_id", u.ID).Error("Could not pause user")
			return c.Send(text(errorTexts, u.Language))
		}
		return c.Send(text(pausedTexts, u.Language))
	})

	b.Handle("/resume", func(c telebot.Context) error {
		u := loadUser(ctx, deps.Users, c, log)
		if u == nil {
			return c.Send(text(errorTexts, user.DefaultLanguage))
		}
		if err := deps.Users.SetActive(ctx, u.ID, true); err != nil {
			log.WithError(err).WithField("user_id", u.ID).Error("Could not resume user")
			return c.Send(text(errorTexts, u.Language))
		}
		return c.Send(text(resumedTexts, u.Language))
	})

	b.Handle("/motivateme", func(c telebot.Context) error {
		u := loadUser(ctx, deps.Users, c, log)
		if u == nil {
			return c.Send(text(errorTexts, user.DefaultLanguage))
		}
		_ = deps.Users.TouchLastActive(ctx, u.ID)
		if err := deps.Dispatch.SendNow(ctx, u.ID); err != nil {
			log.WithError(err).WithField("user_id", u.ID).Error("Immediate send failed")
			return c.Send(text(errorTexts, u.Language))
		}
		return nil
	})

	b.Handle("/mood", func(c telebot.Context) error {
		u := loadUser(ctx, deps.Users, c, log)
		if u == nil {
			return c.Send(text(errorTexts, user.DefaultLanguage))
		}
		markup := &telebot.ReplyMarkup{}
		row := telebot.Row{}
		labels := []string{"😞 1", "🙁 2", "😐 3", "🙂 4", "😄 5"}
		for i, label := range labels {
			row = append(row, markup.Data(label, fmt.Sprintf("mood_%d", i+1)))
		}
		markup.Inline(row)
		return c.Send(text(moodPromptTexts, u.Language), markup)
	})

	b.Handle("/stats", func(c telebot.Context) error {
		u := loadUser(ctx, deps.Users, c, log)
		if u == nil {
			return c.Send(text(errorTexts, user.DefaultLanguage))
		}

		entries, err := deps.Moods.ListRecent(ctx, u.ID, 7)
		if err != nil {
			log.WithError(err).WithField("user_id", u.ID).Error("Could not load mood history")
			return c.Send(text(errorTexts, u.Language))
		}
		sends, err := deps.Engagements.CountByUser(ctx, u.ID)
		if err != nil {
			log.WithError(err).WithField("user_id", u.ID).Error("Could not count sends")
			return c.Send(text(errorTexts, u.Language))
		}

		var sb strings.Builder
		if u.Language == "en" {
			sb.WriteString("📊 *Your stats*\n\n")
			fmt.Fprintf(&sb, "Messages received: %d\nMood check-ins (7 days): %d\n", sends, len(entries))
		} else {
			sb.WriteString("📊 *Deine Statistik*\n\n")
			fmt.Fprintf(&sb, "Erhaltene Nachrichten: %d\nStimmungs-Einträge (7 Tage): %d\n", sends, len(entries))
		}
		if len(entries) > 0 {
			sum := 0
			for _, e := range entries {
				sum += e.Score
			}
			avg := float64(sum) / float64(len(entries))
			if u.Language == "en" {
				fmt.Fprintf(&sb, "Average mood: %.1f/5\n", avg)
			} else {
				fmt.Fprintf(&sb, "Durchschnittliche Stimmung: %.1f/5\n", avg)
			}
		}
		return c.Send(sb.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	b.Handle("/goals", func(c telebot.Context) error {
		u := loadUser(ctx, deps.Users, c, log)
		if u == nil {
			return c.Send(text(errorTexts, user.DefaultLanguage))
		}
		return sendGoalList(ctx, c, deps, u)
	})

	b.Handle("/newgoal", func(c telebot.Context) error {
		u := loadUser(ctx, deps.Users, c, log)
		if u == nil {
			return c.Send(text(errorTexts, user.DefaultLanguage))
		}
		title := strings.TrimSpace(c.Message().Payload)
		if title == "" {
			if u.Language == "en" {
				return c.Send("Usage: /newgoal <goal text>")
			}
			return c.Send("Verwendung: /newgoal <Zieltext>")
		}
		g := &goal.Goal{UserID: u.ID, Title: title, Category: goal.CategoryPersonal}
		if err := deps.Goals.Create(ctx, g); err != nil {
			log.WithError(err).WithField("user_id", u.ID).Error("Could not create goal")
			return c.Send(text(errorTexts, u.Language))
		}
		return c.Send(fmt.Sprintf(text(goalAddedTexts, u.Language), g.Title))
	})

	b.Handle("/settings", func(c telebot.Context) error {
		u := loadUser(ctx, deps.Users, c, log)
		if u == nil {
			return c.Send(text(errorTexts, user.DefaultLanguage))
		}
		return sendSettings(ctx, c, deps, u)
	})
}

// loadUser resolves the sender to a registered user, nil when unknown.
func loadUser(ctx context.Context, users user.Repository, c telebot.Context, log *logrus.Entry) *user.User {
	u, err := users.GetByID(ctx, c.Sender().ID)
	if err != nil {
		if err != idb.ErrUserNotFound {
			log.WithError(err).WithField("sender_id", c.Sender().ID).Error("User lookup failed")
		}
		return nil
	}
	return u
}

func languageOf(u *user.User) string {
	if u == nil {
		return user.DefaultLanguage
	}
	return u.Language
}

func sendGoalList(ctx context.Context, c telebot.Context, deps UserHandlerDeps, u *user.User) error {
	goals, err := deps.Goals.ListByUser(ctx, u.ID, false)
	if err != nil {
		deps.Log.WithError(err).WithField("user_id", u.ID).Error("Could not list goals")
		return c.Send(text(errorTexts, u.Language))
	}

	markup := &telebot.ReplyMarkup{}
	var rows []telebot.Row
	for _, g := range goals {
		title := g.Title
		if len(title) > 30 {
			title = title[:27] + "..."
		}
		rows = append(rows, markup.Row(
			markup.Data("✅ "+title, fmt.Sprintf("goal_done_%d", g.ID)),
			markup.Data("🗑", fmt.Sprintf("goal_del_%d", g.ID)),
		))
	}
	templateLabel := "➕ Vorlagen"
	header := "🎯 *Deine Ziele*"
	if u.Language == "en" {
		templateLabel = "➕ Templates"
		header = "🎯 *Your goals*"
	}
	rows = append(rows, markup.Row(markup.Data(templateLabel, "goal_templates")))
	markup.Inline(rows...)

	if len(goals) == 0 {
		return c.Send(text(goalsEmptyTexts, u.Language), markup)
	}
	return c.Send(header, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown, ReplyMarkup: markup})
}

func sendSettings(ctx context.Context, c telebot.Context, deps UserHandlerDeps, u *user.User) error {
	pref, err := loadPreference(ctx, deps.Prefs, u.ID)
	if err != nil {
		deps.Log.WithError(err).WithField("user_id", u.ID).Error("Could not load timing preference")
		return c.Send(text(errorTexts, u.Language))
	}

	boostLabel := map[bool]string{true: "✅", false: "❌"}[pref.MoodBoostEnabled]
	body := fmt.Sprintf(text(settingsTexts, u.Language),
		u.MessageFrequency, u.Language, pref.ActiveStartHour, pref.ActiveEndHour, boostLabel)

	markup := &telebot.ReplyMarkup{}
	freqRow := telebot.Row{}
	for _, n := range []int{1, 2, 3, 5} {
		freqRow = append(freqRow, markup.Data(fmt.Sprintf("%d✉️", n), fmt.Sprintf("set_freq_%d", n)))
	}
	boostData := "set_boost_on"
	if pref.MoodBoostEnabled {
		boostData = "set_boost_off"
	}
	boostLabelBtn := "Boost: " + boostLabel
	markup.Inline(
		freqRow,
		markup.Row(
			markup.Data("🇩🇪 Deutsch", "set_lang_de"),
			markup.Data("🇬🇧 English", "set_lang_en"),
		),
		markup.Row(
			markup.Data("🕗 8–22", "set_window_8_22"),
			markup.Data("🕘 9–18", "set_window_9_18"),
			markup.Data("🕙 10–23", "set_window_10_23"),
		),
		markup.Row(markup.Data(boostLabelBtn, boostData)),
	)
	return c.Send(body, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown, ReplyMarkup: markup})
}
