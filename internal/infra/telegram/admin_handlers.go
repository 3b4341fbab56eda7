package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"motivator_bot/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterAdminHandlers wires the admin-only commands. Authorization
// lives in the AdminService; handlers only translate and report.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, log *logrus.Entry) {
	adminLog := log.WithField("handler_group", "admin")

	b.Handle("/admin_stats", func(c telebot.Context) error {
		stats, err := adminService.Stats(ctx, c.Sender().ID)
		if err != nil {
			return replyAdminError(c, err)
		}
		return c.Send(fmt.Sprintf(
			"📈 *Bot stats*\n\nUsers: %d (%d active)\nDelivered messages: %d\nMood check-ins: %d",
			stats.TotalUsers, stats.ActiveUsers, stats.DeliveredSends, stats.TotalMoodChecks,
		), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	b.Handle("/admin_users", func(c telebot.Context) error {
		users, err := adminService.ListUsers(ctx, c.Sender().ID)
		if err != nil {
			return replyAdminError(c, err)
		}
		if len(users) == 0 {
			return c.Send("No users registered.")
		}
		var sb strings.Builder
		sb.WriteString("👥 Users:\n")
		for _, u := range users {
			state := "active"
			if !u.IsActive {
				state = "paused"
			}
			fmt.Fprintf(&sb, "• %d %s (%s, %dx/day, %s)\n", u.ID, u.FirstName, u.Language, u.MessageFrequency, state)
		}
		return c.Send(sb.String())
	})

	b.Handle("/admin_broadcast", func(c telebot.Context) error {
		text := strings.TrimSpace(c.Message().Payload)
		if text == "" {
			return c.Send("Usage: /admin_broadcast <message>")
		}
		sent, err := adminService.Broadcast(ctx, c.Sender().ID, text)
		if err != nil {
			return replyAdminError(c, err)
		}
		adminLog.WithField("sent", sent).Info("Broadcast completed")
		return c.Send(fmt.Sprintf("Broadcast delivered to %d users.", sent))
	})

	b.Handle("/admin_reset", func(c telebot.Context) error {
		payload := strings.TrimSpace(c.Message().Payload)
		userID, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return c.Send("Usage: /admin_reset <user ID>")
		}
		if err := adminService.ResetUser(ctx, c.Sender().ID, userID); err != nil {
			adminLog.WithError(err).WithField("target", userID).Error("User reset failed")
			return replyAdminError(c, err)
		}
		return c.Send(fmt.Sprintf("User %d fully reset.", userID))
	})
}

func replyAdminError(c telebot.Context, err error) error {
	if err == app.ErrAdminNotAuthorized {
		return c.Send("You are not authorized for admin commands.")
	}
	return c.Send("Admin command failed: " + err.Error())
}
