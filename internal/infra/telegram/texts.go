package telegram

// User-facing texts, keyed by language ("de" default, "en").

var welcomeTexts = map[string]string{
	"de": "Hallo %s! 👋 Ich bin dein Motivations-Bot.\n\nIch schicke dir über den Tag verteilt motivierende Nachrichten, angepasst an deine Stimmung. Nutze /mood um deine Stimmung zu erfassen, /goals für deine Ziele und /settings für deine Einstellungen.",
	"en": "Hi %s! 👋 I'm your motivation bot.\n\nI'll send you motivational messages spread over the day, adapted to your mood. Use /mood to log how you feel, /goals for your goals and /settings to configure me.",
}

var welcomeBackTexts = map[string]string{
	"de": "Willkommen zurück, %s! Deine Nachrichten sind weiterhin aktiv.",
	"en": "Welcome back, %s! Your messages are still active.",
}

var helpTexts = map[string]string{
	"de": "Verfügbare Befehle:\n\n" +
		"/mood – Stimmung erfassen (1–5)\n" +
		"/stats – Deine Statistik ansehen\n" +
		"/goals – Ziele verwalten\n" +
		"/newgoal <Text> – Eigenes Ziel anlegen\n" +
		"/motivateme – Sofort eine Motivationsnachricht\n" +
		"/settings – Einstellungen (Häufigkeit, Sprache, Zeiten)\n" +
		"/pause – Nachrichten pausieren\n" +
		"/resume – Nachrichten fortsetzen",
	"en": "Available commands:\n\n" +
		"/mood – log your mood (1–5)\n" +
		"/stats – view your statistics\n" +
		"/goals – manage your goals\n" +
		"/newgoal <text> – create a custom goal\n" +
		"/motivateme – get a motivational message now\n" +
		"/settings – settings (frequency, language, hours)\n" +
		"/pause – pause messages\n" +
		"/resume – resume messages",
}

var pausedTexts = map[string]string{
	"de": "⏸ Nachrichten pausiert. Mit /resume geht es weiter.",
	"en": "⏸ Messages paused. Use /resume to continue.",
}

var resumedTexts = map[string]string{
	"de": "▶️ Nachrichten wieder aktiv!",
	"en": "▶️ Messages resumed!",
}

var moodPromptTexts = map[string]string{
	"de": "Wie fühlst du dich gerade? (1 = sehr schlecht, 5 = sehr gut)",
	"en": "How are you feeling right now? (1 = very bad, 5 = very good)",
}

var moodThanksLow = map[string]string{
	"de": "Danke für deine Ehrlichkeit. 💙 Ich melde mich heute etwas öfter bei dir.",
	"en": "Thanks for being honest. 💙 I'll check in with you a bit more often today.",
}

var moodThanksHigh = map[string]string{
	"de": "Super! 🎉 Weiter so!",
	"en": "Great! 🎉 Keep it up!",
}

var goalsEmptyTexts = map[string]string{
	"de": "Du hast noch keine Ziele. Wähle eine Vorlage oder lege mit /newgoal <Text> ein eigenes an.",
	"en": "You have no goals yet. Pick a template or create your own with /newgoal <text>.",
}

var goalAddedTexts = map[string]string{
	"de": "🎯 Ziel hinzugefügt: %s",
	"en": "🎯 Goal added: %s",
}

var goalDoneTexts = map[string]string{
	"de": "✅ Ziel erledigt – stark!",
	"en": "✅ Goal completed – well done!",
}

var settingsTexts = map[string]string{
	"de": "⚙️ *Einstellungen*\n\nNachrichten/Tag: %d\nSprache: %s\nAktive Zeit: %02d–%02d Uhr\nStimmungs-Boost: %s",
	"en": "⚙️ *Settings*\n\nMessages/day: %d\nLanguage: %s\nActive hours: %02d–%02d\nMood boost: %s",
}

var errorTexts = map[string]string{
	"de": "Da ist etwas schiefgelaufen. Bitte versuche es später erneut.",
	"en": "Something went wrong. Please try again later.",
}

func text(m map[string]string, language string) string {
	if t, ok := m[language]; ok {
		return t
	}
	return m["de"]
}
