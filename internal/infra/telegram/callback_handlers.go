package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"motivator_bot/internal/domain/goal"
	"motivator_bot/internal/domain/mood"
	"motivator_bot/internal/domain/user"

	"gopkg.in/telebot.v3"
)

// RegisterCallbackHandlers wires the single OnCallback endpoint and
// routes by data prefix: mood_ (mood scale), set_ (settings), goal_
// (goal actions). telebot allows only one OnCallback handler, so all
// inline-button flows meet here.
func RegisterCallbackHandlers(ctx context.Context, b *telebot.Bot, deps UserHandlerDeps) {
	log := deps.Log.WithField("handler_group", "callbacks")

	b.Handle(telebot.OnCallback, func(c telebot.Context) error {
		data := strings.TrimPrefix(c.Callback().Data, "\f")
		// Unique-tagged callbacks arrive as "unique|payload".
		if i := strings.IndexByte(data, '|'); i >= 0 {
			data = data[:i]
		}

		u := loadUser(ctx, deps.Users, c, log)
		if u == nil {
			return c.Respond(&telebot.CallbackResponse{Text: "Please /start first."})
		}
		_ = deps.Users.TouchLastActive(ctx, u.ID)

		switch {
		case strings.HasPrefix(data, "mood_"):
			return handleMoodCallback(ctx, c, deps, u, data)
		case strings.HasPrefix(data, "set_"):
			return handleSettingsCallback(ctx, c, deps, u, data)
		case strings.HasPrefix(data, "goal_"):
			return handleGoalCallback(ctx, c, deps, u, data)
		}

		log.WithField("data", data).Warn("Unhandled callback")
		return c.Respond(&telebot.CallbackResponse{Text: "Unknown action."})
	})
}

func handleMoodCallback(ctx context.Context, c telebot.Context, deps UserHandlerDeps, u *user.User, data string) error {
	score, err := strconv.Atoi(strings.TrimPrefix(data, "mood_"))
	if err != nil || score < mood.MinScore || score > mood.MaxScore {
		return c.Respond(&telebot.CallbackResponse{Text: "Invalid mood value."})
	}

	entry := &mood.Entry{UserID: u.ID, Score: score}
	if err := deps.Moods.Add(ctx, entry); err != nil {
		deps.Log.WithError(err).WithField("user_id", u.ID).Error("Could not store mood entry")
		return c.Respond(&telebot.CallbackResponse{Text: text(errorTexts, u.Language)})
	}

	reply := text(moodThanksHigh, u.Language)
	if score <= 2 {
		reply = text(moodThanksLow, u.Language)
	}
	if err := c.Edit(reply); err != nil {
		return c.Send(reply)
	}
	return c.Respond()
}

func handleSettingsCallback(ctx context.Context, c telebot.Context, deps UserHandlerDeps, u *user.User, data string) error {
	switch {
	case strings.HasPrefix(data, "set_freq_"):
		n, err := strconv.Atoi(strings.TrimPrefix(data, "set_freq_"))
		if err != nil || n < 1 || n > 10 {
			return c.Respond(&telebot.CallbackResponse{Text: "Invalid frequency."})
		}
		u.MessageFrequency = n
		if err := deps.Users.Update(ctx, u); err != nil {
			deps.Log.WithError(err).WithField("user_id", u.ID).Error("Could not update frequency")
			return c.Respond(&telebot.CallbackResponse{Text: text(errorTexts, u.Language)})
		}

	case strings.HasPrefix(data, "set_lang_"):
		lang := strings.TrimPrefix(data, "set_lang_")
		if lang != "de" && lang != "en" {
			return c.Respond(&telebot.CallbackResponse{Text: "Unsupported language."})
		}
		u.Language = lang
		if err := deps.Users.Update(ctx, u); err != nil {
			deps.Log.WithError(err).WithField("user_id", u.ID).Error("Could not update language")
			return c.Respond(&telebot.CallbackResponse{Text: text(errorTexts, u.Language)})
		}

	case data == "set_boost_on" || data == "set_boost_off":
		pref, err := loadPreference(ctx, deps.Prefs, u.ID)
		if err != nil {
			deps.Log.WithError(err).WithField("user_id", u.ID).Error("Could not load preference")
			return c.Respond(&telebot.CallbackResponse{Text: text(errorTexts, u.Language)})
		}
		pref.MoodBoostEnabled = data == "set_boost_on"
		if err := deps.Prefs.Update(ctx, pref); err != nil {
			deps.Log.WithError(err).WithField("user_id", u.ID).Error("Could not update boost flag")
			return c.Respond(&telebot.CallbackResponse{Text: text(errorTexts, u.Language)})
		}

	case strings.HasPrefix(data, "set_window_"):
		parts := strings.Split(strings.TrimPrefix(data, "set_window_"), "_")
		if len(parts) != 2 {
			return c.Respond(&telebot.CallbackResponse{Text: "Invalid window."})
		}
		start, err1 := strconv.Atoi(parts[0])
		end, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || start < 0 || start > 23 || end < 0 || end > 23 {
			return c.Respond(&telebot.CallbackResponse{Text: "Invalid window."})
		}
		pref, err := loadPreference(ctx, deps.Prefs, u.ID)
		if err != nil {
			deps.Log.WithError(err).WithField("user_id", u.ID).Error("Could not load preference")
			return c.Respond(&telebot.CallbackResponse{Text: text(errorTexts, u.Language)})
		}
		pref.ActiveStartHour = start
		pref.ActiveEndHour = end
		if err := deps.Prefs.Update(ctx, pref); err != nil {
			deps.Log.WithError(err).WithField("user_id", u.ID).Error("Could not update active window")
			return c.Respond(&telebot.CallbackResponse{Text: text(errorTexts, u.Language)})
		}

	default:
		return c.Respond(&telebot.CallbackResponse{Text: "Unknown setting."})
	}

	if u.Language == "en" {
		_ = c.Respond(&telebot.CallbackResponse{Text: "Saved ✓"})
	} else {
		_ = c.Respond(&telebot.CallbackResponse{Text: "Gespeichert ✓"})
	}
	return sendSettings(ctx, c, deps, u)
}

func handleGoalCallback(ctx context.Context, c telebot.Context, deps UserHandlerDeps, u *user.User, data string) error {
	switch {
	case data == "goal_templates":
		markup := &telebot.ReplyMarkup{}
		var rows []telebot.Row
		for _, t := range goal.Templates(u.Language) {
			rows = append(rows, markup.Row(markup.Data(t.Title, "goal_tpl_"+t.ID)))
		}
		markup.Inline(rows...)
		prompt := "Wähle eine Vorlage:"
		if u.Language == "en" {
			prompt = "Pick a template:"
		}
		return c.Send(prompt, markup)

	case strings.HasPrefix(data, "goal_tpl_"):
		t, ok := goal.TemplateByID(strings.TrimPrefix(data, "goal_tpl_"))
		if !ok {
			return c.Respond(&telebot.CallbackResponse{Text: "Unknown template."})
		}
		g := &goal.Goal{UserID: u.ID, Title: t.Title, Category: t.Category}
		if err := deps.Goals.Create(ctx, g); err != nil {
			deps.Log.WithError(err).WithField("user_id", u.ID).Error("Could not create goal from template")
			return c.Respond(&telebot.CallbackResponse{Text: text(errorTexts, u.Language)})
		}
		_ = c.Respond()
		return c.Send(fmt.Sprintf(text(goalAddedTexts, u.Language), g.Title))

	case strings.HasPrefix(data, "goal_done_"):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "goal_done_"), 10, 64)
		if err != nil {
			return c.Respond(&telebot.CallbackResponse{Text: "Invalid goal ID."})
		}
		if err := deps.Goals.MarkDone(ctx, id, u.ID); err != nil {
			deps.Log.WithError(err).WithField("goal_id", id).Warn("Could not mark goal done")
			return c.Respond(&telebot.CallbackResponse{Text: text(errorTexts, u.Language)})
		}
		_ = c.Respond(&telebot.CallbackResponse{Text: text(goalDoneTexts, u.Language)})
		return sendGoalList(ctx, c, deps, u)

	case strings.HasPrefix(data, "goal_del_"):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "goal_del_"), 10, 64)
		if err != nil {
			return c.Respond(&telebot.CallbackResponse{Text: "Invalid goal ID."})
		}
		if err := deps.Goals.Delete(ctx, id, u.ID); err != nil {
			deps.Log.WithError(err).WithField("goal_id", id).Warn("Could not delete goal")
			return c.Respond(&telebot.CallbackResponse{Text: text(errorTexts, u.Language)})
		}
		_ = c.Respond()
		return sendGoalList(ctx, c, deps, u)
	}

	return c.Respond(&telebot.CallbackResponse{Text: "Unknown goal action."})
}
