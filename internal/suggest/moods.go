package suggest

import "wasfa/models"

// moodTags expands each mood into the descriptive tags used by the
// by-mood companion endpoint. Built once at process start and never
// mutated afterwards.
var moodTags = map[string][]string{
	models.MoodHungry:    {"hearty", "filling", "carbs"},
	models.MoodSad:       {"comfort", "homemade", "sweet"},
	models.MoodStressed:  {"soothing", "warm", "light"},
	models.MoodTired:     {"energy", "fast", "high-protein"},
	models.MoodRelaxed:   {"healthy", "balanced", "vegetarian"},
	models.MoodHappy:     {"fun", "colorful", "creative"},
	models.MoodBored:     {"snacks", "crispy", "easy"},
	models.MoodRomantic:  {"elegant", "shared", "gourmet"},
	models.MoodAnxious:   {"calming", "soups", "warm"},
	models.MoodEnergetic: {"light", "refreshing", "on-the-go"},
}

// TagsForMood returns the tag expansion for a mood. The second return
// value is false for unrecognised moods. Callers receive a copy; the
// table itself is shared read-only state.
func TagsForMood(mood string) ([]string, bool) {
	tags, ok := moodTags[mood]
	if !ok {
		return nil, false
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out, true
}
