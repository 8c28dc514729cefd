package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"wasfa/models"
)

func TestRateRecipeCreatesThenUpdates(t *testing.T) {
	db := withTestDatabase(t)
	withTestConfig(t)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	alice := createTestUser(t, db, "alice", models.RoleUser)
	token := authTokenFor(t, alice)
	recipe := seedTestRecipe(t, db, "koshari", admin.ID, models.MoodHungry, "rice")

	req := authorize(jsonRequest(t, http.MethodPost, "/api/recipes/1/rate", map[string]any{
		"rating":  5,
		"comment": "delicious",
	}), token)
	w := httptest.NewRecorder()
	RecipeResource(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		Message string        `json:"message"`
		Review  models.Review `json:"review"`
	}
	decodeBody(t, w, &created)
	if created.Message != "Review created" {
		t.Fatalf("unexpected message %q", created.Message)
	}
	if created.Review.Rating != 5 || created.Review.UserID != alice.ID {
		t.Fatalf("unexpected review %+v", created.Review)
	}

	// A second submission from the same user must update in place.
	req = authorize(jsonRequest(t, http.MethodPost, "/api/recipes/1/rate", map[string]any{
		"rating":  3,
		"comment": "changed my mind",
	}), token)
	w = httptest.NewRecorder()
	RecipeResource(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated struct {
		Message string        `json:"message"`
		Review  models.Review `json:"review"`
	}
	decodeBody(t, w, &updated)
	if updated.Message != "Review updated" {
		t.Fatalf("unexpected message %q", updated.Message)
	}
	if updated.Review.ID != created.Review.ID {
		t.Fatalf("expected the same review row, got %d and %d", created.Review.ID, updated.Review.ID)
	}

	var count int64
	if err := db.Model(&models.Review{}).Where("user_id = ? AND recipe_id = ?", alice.ID, recipe.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count reviews: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one review per user and recipe, got %d", count)
	}

	var stored models.Recipe
	if err := db.First(&stored, recipe.ID).Error; err != nil {
		t.Fatalf("failed to reload recipe: %v", err)
	}
	if stored.AverageRating != 3 {
		t.Fatalf("expected cached average 3, got %v", stored.AverageRating)
	}
}

func TestRateRecipeRejectsOutOfRangeRating(t *testing.T) {
	db := withTestDatabase(t)
	withTestConfig(t)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	alice := createTestUser(t, db, "alice", models.RoleUser)
	token := authTokenFor(t, alice)
	seedTestRecipe(t, db, "koshari", admin.ID, models.MoodHungry, "rice")

	for _, rating := range []int{0, 6, -1} {
		req := authorize(jsonRequest(t, http.MethodPost, "/api/recipes/1/rate", map[string]any{
			"rating": rating,
		}), token)
		w := httptest.NewRecorder()
		RecipeResource(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("rating %d: expected status 400, got %d", rating, w.Code)
		}
		if msg := bodyMessage(t, w); msg != "Rating must be between 1 and 5" {
			t.Fatalf("rating %d: unexpected message %q", rating, msg)
		}
	}
}

func TestRateRecipeRequiresAuth(t *testing.T) {
	db := withTestDatabase(t)
	withTestConfig(t)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	seedTestRecipe(t, db, "koshari", admin.ID, models.MoodHungry, "rice")

	req := jsonRequest(t, http.MethodPost, "/api/recipes/1/rate", map[string]any{"rating": 4})
	w := httptest.NewRecorder()
	RecipeResource(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", w.Code)
	}
}

func TestRateRecipeUnknownRecipe(t *testing.T) {
	db := withTestDatabase(t)
	withTestConfig(t)
	alice := createTestUser(t, db, "alice", models.RoleUser)
	token := authTokenFor(t, alice)

	req := authorize(jsonRequest(t, http.MethodPost, "/api/recipes/99/rate", map[string]any{"rating": 4}), token)
	w := httptest.NewRecorder()
	RecipeResource(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestCreateReviewRejectsDuplicate(t *testing.T) {
	db := withTestDatabase(t)
	withTestConfig(t)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	alice := createTestUser(t, db, "alice", models.RoleUser)
	token := authTokenFor(t, alice)
	seedTestRecipe(t, db, "koshari", admin.ID, models.MoodHungry, "rice")

	req := authorize(jsonRequest(t, http.MethodPost, "/api/reviews/1", map[string]any{
		"rating":  4,
		"comment": "solid",
	}), token)
	w := httptest.NewRecorder()
	ReviewResource(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	req = authorize(jsonRequest(t, http.MethodPost, "/api/reviews/1", map[string]any{
		"rating": 5,
	}), token)
	w = httptest.NewRecorder()
	ReviewResource(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	if msg := bodyMessage(t, w); msg != "You already reviewed this recipe." {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestListReviewsNewestFirst(t *testing.T) {
	db := withTestDatabase(t)
	withTestConfig(t)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	recipe := seedTestRecipe(t, db, "koshari", admin.ID, models.MoodHungry, "rice")

	for i := 1; i <= 7; i++ {
		user := createTestUser(t, db, "user"+string(rune('a'+i)), models.RoleUser)
		review := models.Review{UserID: user.ID, RecipeID: recipe.ID, Rating: (i % 5) + 1}
		if err := db.Create(&review).Error; err != nil {
			t.Fatalf("failed to seed review: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/reviews/1", nil)
	w := httptest.NewRecorder()
	ReviewResource(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp reviewListResponse
	decodeBody(t, w, &resp)
	if resp.Total != 7 {
		t.Fatalf("expected total 7, got %d", resp.Total)
	}
	if len(resp.Reviews) != 5 {
		t.Fatalf("expected default page size 5, got %d", len(resp.Reviews))
	}
	if resp.TotalPages != 2 {
		t.Fatalf("expected 2 pages, got %d", resp.TotalPages)
	}
}

func TestDeleteReviewOwnership(t *testing.T) {
	db := withTestDatabase(t)
	withTestConfig(t)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	alice := createTestUser(t, db, "alice", models.RoleUser)
	bob := createTestUser(t, db, "bob", models.RoleUser)
	recipe := seedTestRecipe(t, db, "koshari", admin.ID, models.MoodHungry, "rice")
	review := models.Review{UserID: alice.ID, RecipeID: recipe.ID, Rating: 4}
	if err := db.Create(&review).Error; err != nil {
		t.Fatalf("failed to seed review: %v", err)
	}

	// A different non-admin user must not be able to delete it.
	req := authorize(httptest.NewRequest(http.MethodDelete, "/api/reviews/1", nil), authTokenFor(t, bob))
	w := httptest.NewRecorder()
	ReviewResource(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", w.Code)
	}

	req = authorize(httptest.NewRequest(http.MethodDelete, "/api/reviews/1", nil), authTokenFor(t, alice))
	w = httptest.NewRecorder()
	ReviewResource(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if msg := bodyMessage(t, w); msg != "Review deleted!" {
		t.Fatalf("unexpected message %q", msg)
	}

	var stored models.Recipe
	if err := db.First(&stored, recipe.ID).Error; err != nil {
		t.Fatalf("failed to reload recipe: %v", err)
	}
	if stored.AverageRating != 0 {
		t.Fatalf("expected average reset to 0, got %v", stored.AverageRating)
	}
}

func TestRecomputeAverageRounding(t *testing.T) {
	db := withTestDatabase(t)
	withTestConfig(t)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	recipe := seedTestRecipe(t, db, "koshari", admin.ID, models.MoodHungry, "rice")

	ratings := []int{5, 4, 4} // mean 4.333…, cached as 4.3
	for i, rating := range ratings {
		user := createTestUser(t, db, "rater"+string(rune('a'+i)), models.RoleUser)
		review := models.Review{UserID: user.ID, RecipeID: recipe.ID, Rating: rating}
		if err := db.Create(&review).Error; err != nil {
			t.Fatalf("failed to seed review: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := recomputeAverageRating(req, recipe.ID); err != nil {
		t.Fatalf("recomputeAverageRating failed: %v", err)
	}

	var stored models.Recipe
	if err := db.First(&stored, recipe.ID).Error; err != nil {
		t.Fatalf("failed to reload recipe: %v", err)
	}
	if stored.AverageRating != 4.3 {
		t.Fatalf("expected cached average 4.3, got %v", stored.AverageRating)
	}
}
