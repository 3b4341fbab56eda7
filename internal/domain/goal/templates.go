package goal

// Template is a predefined goal a user can adopt with one tap.
type Template struct {
	ID       string
	Title    string
	Category Category
}

var templatesByLanguage = map[string][]Template{
	"de": {
		{ID: "de_meditation", Title: "10 Minuten täglich meditieren", Category: CategoryHealth},
		{ID: "de_walk", Title: "30 Minuten täglich spazieren", Category: CategoryHealth},
		{ID: "de_water", Title: "2 Liter Wasser täglich trinken", Category: CategoryHealth},
		{ID: "de_reading", Title: "20 Minuten täglich lesen", Category: CategoryLearning},
		{ID: "de_journal", Title: "Reflexions-Tagebuch führen", Category: CategoryPersonal},
		{ID: "de_gratitude", Title: "Dankbarkeits-Tagebuch führen", Category: CategoryPersonal},
		{ID: "de_contact", Title: "Jeden Tag jemanden kontaktieren", Category: CategoryPersonal},
		{ID: "de_skill", Title: "Eine neue Fähigkeit lernen", Category: CategoryCareer},
	},
	"en": {
		{ID: "en_meditation", Title: "Meditate 10 minutes daily", Category: CategoryHealth},
		{ID: "en_walk", Title: "Take a 30 minute walk every day", Category: CategoryHealth},
		{ID: "en_water", Title: "Drink 2 liters of water daily", Category: CategoryHealth},
		{ID: "en_reading", Title: "Read 20 minutes daily", Category: CategoryLearning},
		{ID: "en_journal", Title: "Keep a reflection journal", Category: CategoryPersonal},
		{ID: "en_gratitude", Title: "Keep a gratitude journal", Category: CategoryPersonal},
		{ID: "en_contact", Title: "Reach out to someone every day", Category: CategoryPersonal},
		{ID: "en_skill", Title: "Learn a new skill", Category: CategoryCareer},
	},
}

// Templates returns the template catalog for a language, falling back to
// German when the language is unknown.
func Templates(language string) []Template {
	if ts, ok := templatesByLanguage[language]; ok {
		return ts
	}
	return templatesByLanguage["de"]
}

// TemplateByID looks up a template across all languages.
func TemplateByID(id string) (Template, bool) {
	for _, ts := range templatesByLanguage {
		for _, t := range ts {
			if t.ID == id {
				return t, true
			}
		}
	}
	return Template{}, false
}
