package models

import (
	"gorm.io/gorm"
)

// Moods a recipe can be tagged with.
const (
	MoodHungry    = "hungry"
	MoodSad       = "sad"
	MoodStressed  = "stressed"
	MoodTired     = "tired"
	MoodRelaxed   = "relaxed"
	MoodHappy     = "happy"
	MoodBored     = "bored"
	MoodRomantic  = "romantic"
	MoodAnxious   = "anxious"
	MoodEnergetic = "energetic"
)

// DefaultMood is assigned when a recipe is created without a mood.
const DefaultMood = MoodHungry

// Moods lists every recognised mood value.
var Moods = []string{
	MoodHungry,
	MoodSad,
	MoodStressed,
	MoodTired,
	MoodRelaxed,
	MoodHappy,
	MoodBored,
	MoodRomantic,
	MoodAnxious,
	MoodEnergetic,
}

// ValidMood reports whether the value is a recognised mood. Matching is
// exact and case-sensitive.
func ValidMood(value string) bool {
	for _, mood := range Moods {
		if value == mood {
			return true
		}
	}
	return false
}

// Difficulty levels for a recipe.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// ValidDifficulty reports whether the value is a recognised difficulty.
func ValidDifficulty(value string) bool {
	switch value {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Recipe is a user-submitted dish with localized text fields and a cached
// average rating maintained by the review handlers.
type Recipe struct {
	gorm.Model
	Title         LocalizedText `gorm:"embedded;embeddedPrefix:title_" json:"title"`
	Ingredients   []Ingredient  `gorm:"foreignKey:RecipeID" json:"ingredients"`
	Instructions  LocalizedText `gorm:"embedded;embeddedPrefix:instructions_" json:"instructions"`
	Image         string        `gorm:"default:''" json:"image"`
	ImageID       string        `gorm:"default:''" json:"imageId,omitempty"`
	CookTime      int           `json:"cookTime"`
	Difficulty    string        `gorm:"type:varchar(16)" json:"difficulty"`
	Mood          string        `gorm:"type:varchar(16);index;default:hungry" json:"mood"`
	Tags          []string      `gorm:"serializer:json" json:"tags"`
	UserID        uint          `gorm:"not null;index" json:"userId"`
	User          *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	AverageRating float64       `gorm:"not null;default:0" json:"averageRating"`
}

// Ingredient holds one recipe component with a localized name and a
// free-text quantity.
type Ingredient struct {
	gorm.Model
	RecipeID uint          `gorm:"not null;index" json:"-"`
	Name     LocalizedText `gorm:"embedded;embeddedPrefix:name_" json:"name"`
	Quantity string        `gorm:"default:''" json:"quantity"`
}
