package handlers

import (
	"errors"
	"math"
	"net/http"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	applog "wasfa/internal/log"
	"wasfa/models"
)

type reviewPayload struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// rateRecipe upserts the caller's review of a recipe. The composite
// unique index plus ON CONFLICT keeps the one-review-per-pair invariant
// even under concurrent submissions.
func rateRecipe(w http.ResponseWriter, r *http.Request, recipeID uint, claims *authClaims) {
	var payload reviewPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !models.ValidRating(payload.Rating) {
		respondError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}

	if _, ok := loadRecipe(w, r, recipeID); !ok {
		return
	}

	var existing int64
	err := database.WithContext(r.Context()).Model(&models.Review{}).
		Where("user_id = ? AND recipe_id = ?", claims.UserID, recipeID).
		Count(&existing).Error
	if err != nil {
		applog.Error(r.Context(), "failed to check existing review", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save review")
		return
	}

	review := models.Review{
		UserID:   claims.UserID,
		RecipeID: recipeID,
		Rating:   payload.Rating,
		Comment:  payload.Comment,
	}
	err = database.WithContext(r.Context()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "recipe_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
	}).Create(&review).Error
	if err != nil {
		applog.Error(r.Context(), "failed to upsert review", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save review")
		return
	}

	// Reload so updates carry the stored row's id and timestamps.
	if err := database.WithContext(r.Context()).
		Where("user_id = ? AND recipe_id = ?", claims.UserID, recipeID).
		First(&review).Error; err != nil {
		applog.Error(r.Context(), "failed to reload review", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save review")
		return
	}

	if err := recomputeAverageRating(r, recipeID); err != nil {
		applog.Error(r.Context(), "failed to recompute average rating", "error", err, "recipeID", recipeID)
		respondError(w, http.StatusInternalServerError, "failed to save review")
		return
	}

	if existing > 0 {
		respondJSON(w, http.StatusOK, struct {
			Message string        `json:"message"`
			Review  models.Review `json:"review"`
		}{"Review updated", review})
		return
	}
	respondJSON(w, http.StatusCreated, struct {
		Message string        `json:"message"`
		Review  models.Review `json:"review"`
	}{"Review created", review})
}

// ReviewResource dispatches the /api/reviews/ subtree.
func ReviewResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		respondError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/reviews")
	path = strings.Trim(path, "/")
	if path == "" || strings.Contains(path, "/") {
		http.NotFound(w, r)
		return
	}

	id, ok := parseID(path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodPost:
		claims, ok := requireUser(w, r)
		if !ok {
			return
		}
		createReview(w, r, id, claims)
	case http.MethodGet:
		listReviews(w, r, id)
	case http.MethodDelete:
		claims, ok := requireUser(w, r)
		if !ok {
			return
		}
		deleteReview(w, r, id, claims)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// createReview is the create-only review path: a second submission from
// the same user is rejected rather than updated.
func createReview(w http.ResponseWriter, r *http.Request, recipeID uint, claims *authClaims) {
	var payload reviewPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !models.ValidRating(payload.Rating) {
		respondError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}

	if _, ok := loadRecipe(w, r, recipeID); !ok {
		return
	}

	review := models.Review{
		UserID:   claims.UserID,
		RecipeID: recipeID,
		Rating:   payload.Rating,
		Comment:  payload.Comment,
	}
	err := database.WithContext(r.Context()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "recipe_id"}},
		DoNothing: true,
	}).Create(&review).Error
	if err != nil {
		applog.Error(r.Context(), "failed to create review", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save review")
		return
	}
	if review.ID == 0 {
		respondError(w, http.StatusBadRequest, "You already reviewed this recipe.")
		return
	}

	if err := recomputeAverageRating(r, recipeID); err != nil {
		applog.Error(r.Context(), "failed to recompute average rating", "error", err, "recipeID", recipeID)
		respondError(w, http.StatusInternalServerError, "failed to save review")
		return
	}

	respondJSON(w, http.StatusCreated, review)
}

type reviewListResponse struct {
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	TotalPages int             `json:"totalPages"`
	Reviews    []models.Review `json:"reviews"`
}

func listReviews(w http.ResponseWriter, r *http.Request, recipeID uint) {
	p := parsePagination(r, 5)

	var total int64
	if err := database.WithContext(r.Context()).Model(&models.Review{}).
		Where("recipe_id = ?", recipeID).Count(&total).Error; err != nil {
		applog.Error(r.Context(), "failed to count reviews", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list reviews")
		return
	}

	var reviews []models.Review
	err := database.WithContext(r.Context()).
		Where("recipe_id = ?", recipeID).
		Order("created_at DESC").
		Offset(p.offset()).
		Limit(p.Limit).
		Find(&reviews).Error
	if err != nil {
		applog.Error(r.Context(), "failed to list reviews", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list reviews")
		return
	}

	respondJSON(w, http.StatusOK, reviewListResponse{
		Total:      total,
		Page:       p.Page,
		TotalPages: totalPages(total, p.Limit),
		Reviews:    reviews,
	})
}

func deleteReview(w http.ResponseWriter, r *http.Request, reviewID uint, claims *authClaims) {
	var review models.Review
	err := database.WithContext(r.Context()).First(&review, reviewID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, "Review not found!")
		return
	}
	if err != nil {
		applog.Error(r.Context(), "failed to load review", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete review")
		return
	}

	if review.UserID != claims.UserID && claims.Role != models.RoleAdmin {
		respondError(w, http.StatusForbidden, "Not authorized to delete this review!")
		return
	}

	// Hard delete: a soft-deleted row would keep occupying the
	// (user, recipe) unique index and block a future review.
	if err := database.WithContext(r.Context()).Unscoped().Delete(&review).Error; err != nil {
		applog.Error(r.Context(), "failed to delete review", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete review")
		return
	}

	if err := recomputeAverageRating(r, review.RecipeID); err != nil {
		applog.Error(r.Context(), "failed to recompute average rating", "error", err, "recipeID", review.RecipeID)
	}

	respondMessage(w, http.StatusOK, "Review deleted!")
}

// ratingAggregate computes the live mean and count for one recipe.
func ratingAggregate(r *http.Request, recipeID uint) (float64, int64, error) {
	var row struct {
		Avg   float64
		Total int64
	}
	err := database.WithContext(r.Context()).Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS total").
		Where("recipe_id = ?", recipeID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Avg, row.Total, nil
}

// recomputeAverageRating persists the recipe's cached mean, rounded to
// one decimal place, or 0 when no reviews remain.
func recomputeAverageRating(r *http.Request, recipeID uint) error {
	avg, _, err := ratingAggregate(r, recipeID)
	if err != nil {
		return err
	}
	rounded := math.Round(avg*10) / 10
	return database.WithContext(r.Context()).Model(&models.Recipe{}).
		Where("id = ?", recipeID).
		Update("average_rating", rounded).Error
}
