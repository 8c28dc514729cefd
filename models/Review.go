package models

import "gorm.io/gorm"

// Rating bounds enforced on review submission.
const (
	MinRating = 1
	MaxRating = 5
)

// Review records one user's rating of one recipe. The composite unique
// index guarantees at most one review per (user, recipe) pair; writers
// must use an ON CONFLICT upsert rather than find-then-write.
type Review struct {
	gorm.Model
	UserID   uint   `gorm:"not null;uniqueIndex:idx_reviews_user_recipe" json:"userId"`
	RecipeID uint   `gorm:"not null;uniqueIndex:idx_reviews_user_recipe" json:"recipeId"`
	Rating   int    `gorm:"not null" json:"rating"`
	Comment  string `gorm:"type:text;default:''" json:"comment"`
}

// ValidRating reports whether the rating is inside the accepted range.
func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}
