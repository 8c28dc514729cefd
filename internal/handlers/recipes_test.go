package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wasfa/models"
)

func recipePayloadFor(title string, ingredients ...string) map[string]any {
	payload := map[string]any{
		"title":        localized(title),
		"instructions": localized("steps for " + title),
		"cookTime":     25,
		"difficulty":   models.DifficultyEasy,
		"mood":         models.MoodHungry,
		"tags":         []string{"hearty"},
	}
	var ings []map[string]any
	for _, name := range ingredients {
		ings = append(ings, map[string]any{"name": localized(name), "quantity": "2 cups"})
	}
	payload["ingredients"] = ings
	return payload
}

func TestListRecipesPaginates(t *testing.T) {
	db := withTestDatabase(t)
	withTestConfig(t)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	for _, title := range []string{"koshari", "tagine", "falafel"} {
		seedTestRecipe(t, db, title, admin.ID, models.MoodHungry, "rice")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/recipes?page=1&limit=2", nil)
	w := httptest.NewRecorder()
	RecipesCollection(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp recipeListResponse
	decodeBody(t, w, &resp)
	if resp.Total != 3 || resp.TotalPages != 2 || len(resp.Recipes) != 2 {
		t.Fatalf("unexpected page: total=%d totalPages=%d len=%d", resp.Total, resp.TotalPages, len(resp.Recipes))
	}
	if len(resp.Recipes[0].Ingredients) != 1 {
		t.Fatal("expected ingredients to be preloaded")
	}
}

func TestListRecipesSearchUsesRequestLanguage(t *testing.T) {
	db := withTestDatabase(t)
	withTestConfig(t)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	recipe := seedTestRecipe(t, db, "koshari", admin.ID, models.MoodHungry, "rice")

	req := httptest.NewRequest(http.MethodGet, "/api/recipes?search=koshari-fr", nil)
	req.Header.Set("Accept-Language", "fr")
	w := httptest.NewRecorder()
	RecipesCollection(w, req)

	var resp recipeListResponse
	decodeBody(t, w, &resp)
	if len(resp.Recipes) != 1 || resp.Recipes[0].ID != recipe.ID {
		t.Fatalf("expected the french title to match, got %d results", len(resp.Recipes))
	}

	// The same term must not match under the english column.
	req = httptest.NewRequest(http.MethodGet, "/api/recipes?search=koshari-fr", nil)
	w = httptest.NewRecorder()
	RecipesCollection(w, req)
	decodeBody(t, w, &resp)
	if len(resp.Recipes) != 0 {
		t.Fatalf("expected no english matches, got %d", len(resp.Recipes))
	}
}

func TestCreateRecipeRequiresAdmin(t *testing.T) {
	db := withTestDatabase(t)
	withTestConfig(t)
	user := createTestUser(t, db, "amira", models.RoleUser)
	token := authTokenFor(t, user)

	req := authorize(jsonRequest(t, http.MethodPost, "/api/recipes", recipePayloadFor("koshari", "rice")), token)
	w := httptest.NewRecorder()
	RecipesCollection(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", w.Code)
	}
}

func TestCreateRecipeRoundTripsLocalizedFields(t *testing.T) {
	db := withTestDatabase(t)
	withTestConfig(t)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	token := authTokenFor(t, admin)

	payload := map[string]any{
		"title": models.LocalizedText{EN: "Lentil soup", FR: "Soupe de lentilles", AR: "شوربة عدس"},
		"ingredients": []map[string]any{
			{
				"name":     models.LocalizedText{EN: "lentils", FR: "lentilles", AR: "عدس"},
				"quantity": "1 cup",
			},
		},
		"instructions": models.LocalizedText{EN: "Simmer.", FR: "Mijoter.", AR: "اطبخ."},
		"cookTime":     40,
		"difficulty":   models.DifficultyMedium,
		"mood":         models.MoodSad,
	}

	req := authorize(jsonRequest(t, http.MethodPost, "/api/recipes", payload), token)
	w := httptest.NewRecorder()
	RecipesCollection(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var created models.Recipe
	decodeBody(t, w, &created)
	if created.ID == 0 {
		t.Fatal("expected a persisted recipe id")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/recipes/1", nil)
	w = httptest.NewRecorder()
	RecipeResource(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var fetched models.Recipe
	decodeBody(t, w, &fetched)
	if fetched.Title.AR != "شوربة عدس" || fetched.Title.FR != "Soupe de lentilles" {
		t.Fatalf("localized title not preserved: %+v", fetched.Title)
	}
	if len(fetched.Ingredients) != 1 || fetched.Ingredients[0].Name.AR != "عدس" {
		t.Fatalf("localized ingredient not preserved: %+v", fetched.Ingredients)
	}
}

func TestCreateRecipeRejectsIncompleteTranslations(t *testing.T) {
	db := withTestDatabase(t)
	withTestConfig(t)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	token := authTokenFor(t, admin)

	payload := recipePayloadFor("koshari", "rice")
	payload["title"] = models.LocalizedText{EN: "only english"}

	req := authorize(jsonRequest(t, http.MethodPost, "/api/recipes", payload), token)
	w := httptest.NewRecorder()
	RecipesCollection(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestCreateRecipeRejectsUnknownMood(t *testing.T) {
	db := withTestDatabase(t)
	withTestConfig(t)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	token := authTokenFor(t, admin)

	payload := recipePayloadFor("koshari", "rice")
	payload["mood"] = "melancholy"

	req := authorize(jsonRequest(t, http.MethodPost, "/api/recipes", payload), token)
	w := httptest.NewRecorder()
	RecipesCollection(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	if msg := bodyMessage(t, w); msg != "Invalid or missing mood" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestShowRecipeIncludesLiveRatings(t *testing.T) {
	db := withTestDatabase(t)
	withTestConfig(t)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	alice := createTestUser(t, db, "alice", models.RoleUser)
	bob := createTestUser(t, db, "bob", models.RoleUser)
	recipe := seedTestRecipe(t, db, "koshari", admin.ID, models.MoodHungry, "rice")

	for _, seed := range []struct {
		userID uint
		rating int
	}{{alice.ID, 5}, {bob.ID, 4}} {
		review := models.Review{UserID: seed.userID, RecipeID: recipe.ID, Rating: seed.rating}
		if err := db.Create(&review).Error; err != nil {
			t.Fatalf("failed to seed review: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/1", nil)
	w := httptest.NewRecorder()
	RecipeResource(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp struct {
		models.Recipe
		TotalReviews int64 `json:"totalReviews"`
	}
	decodeBody(t, w, &resp)
	if resp.TotalReviews != 2 {
		t.Fatalf("expected 2 reviews, got %d", resp.TotalReviews)
	}
	if resp.AverageRating != 4.5 {
		t.Fatalf("expected average 4.5, got %v", resp.AverageRating)
	}
}

func TestShowRecipeWithReviews(t *testing.T) {
	db := withTestDatabase(t)
	withTestConfig(t)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	alice := createTestUser(t, db, "alice", models.RoleUser)
	recipe := seedTestRecipe(t, db, "koshari", admin.ID, models.MoodHungry, "rice")
	review := models.Review{UserID: alice.ID, RecipeID: recipe.ID, Rating: 3, Comment: "decent"}
	if err := db.Create(&review).Error; err != nil {
		t.Fatalf("failed to seed review: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/with-reviews/1", nil)
	w := httptest.NewRecorder()
	RecipeResource(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		models.Recipe
		Reviews []models.Review `json:"reviews"`
	}
	decodeBody(t, w, &resp)
	if len(resp.Reviews) != 1 || resp.Reviews[0].Comment != "decent" {
		t.Fatalf("expected embedded reviews, got %+v", resp.Reviews)
	}
}

func TestUpdateRecipeReplacesIngredients(t *testing.T) {
	db := withTestDatabase(t)
	withTestConfig(t)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	token := authTokenFor(t, admin)
	seedTestRecipe(t, db, "koshari", admin.ID, models.MoodHungry, "rice", "lentils")

	req := authorize(jsonRequest(t, http.MethodPut, "/api/recipes/1", recipePayloadFor("kushari", "pasta")), token)
	w := httptest.NewRecorder()
	RecipeResource(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated models.Recipe
	decodeBody(t, w, &updated)
	if updated.Title.EN != "kushari" {
		t.Fatalf("expected updated title, got %q", updated.Title.EN)
	}
	if len(updated.Ingredients) != 1 || updated.Ingredients[0].Name.EN != "pasta" {
		t.Fatalf("expected ingredients replaced, got %+v", updated.Ingredients)
	}

	var count int64
	if err := db.Model(&models.Ingredient{}).Where("recipe_id = ?", 1).Count(&count).Error; err != nil {
		t.Fatalf("failed to count ingredients: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 stored ingredient, got %d", count)
	}
}

func TestUpdateRecipeReplacesImage(t *testing.T) {
	db := withTestDatabase(t)
	withTestConfig(t)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	token := authTokenFor(t, admin)
	seedTestRecipe(t, db, "koshari", admin.ID, models.MoodHungry, "rice")

	oldFile := filepath.Join(uploadDir, "old.png")
	if err := os.WriteFile(oldFile, []byte("old-bytes"), 0o644); err != nil {
		t.Fatalf("failed to write old image: %v", err)
	}
	if err := db.Model(&models.Recipe{}).Where("id = ?", 1).Update("image", "/uploads/old.png").Error; err != nil {
		t.Fatalf("failed to set recipe image: %v", err)
	}

	payload, err := json.Marshal(recipePayloadFor("koshari", "rice"))
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("payload", string(payload)); err != nil {
		t.Fatalf("failed to write payload field: %v", err)
	}
	part, err := form.CreateFormFile("image", "new.png")
	if err != nil {
		t.Fatalf("failed to create image part: %v", err)
	}
	if _, err := part.Write([]byte("new-bytes")); err != nil {
		t.Fatalf("failed to write image bytes: %v", err)
	}
	form.Close()

	req := httptest.NewRequest(http.MethodPut, "/api/recipes/1", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req = authorize(req, token)
	w := httptest.NewRecorder()
	RecipeResource(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated models.Recipe
	decodeBody(t, w, &updated)
	if updated.Image == "/uploads/old.png" || !strings.HasPrefix(updated.Image, "/uploads/") {
		t.Fatalf("expected a fresh stored image path, got %q", updated.Image)
	}
	if _, err := os.Stat(filepath.Join(uploadDir, filepath.Base(updated.Image))); err != nil {
		t.Fatalf("expected new image file on disk: %v", err)
	}
	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Fatal("expected old image file to be removed after the update")
	}
}

func TestDeleteRecipeCascades(t *testing.T) {
	db := withTestDatabase(t)
	withTestConfig(t)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	alice := createTestUser(t, db, "alice", models.RoleUser)
	token := authTokenFor(t, admin)
	recipe := seedTestRecipe(t, db, "koshari", admin.ID, models.MoodHungry, "rice")
	review := models.Review{UserID: alice.ID, RecipeID: recipe.ID, Rating: 4}
	if err := db.Create(&review).Error; err != nil {
		t.Fatalf("failed to seed review: %v", err)
	}

	req := authorize(httptest.NewRequest(http.MethodDelete, "/api/recipes/1", nil), token)
	w := httptest.NewRecorder()
	RecipeResource(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if msg := bodyMessage(t, w); msg != "Recipe deleted successfully!" {
		t.Fatalf("unexpected message %q", msg)
	}

	for _, model := range []any{&models.Ingredient{}, &models.Review{}} {
		var count int64
		if err := db.Model(model).Where("recipe_id = ?", recipe.ID).Count(&count).Error; err != nil {
			t.Fatalf("failed to count rows: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected cascade delete, found %d rows for %T", count, model)
		}
	}
}

func TestListRecipesByMood(t *testing.T) {
	db := withTestDatabase(t)
	withTestConfig(t)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	seedTestRecipe(t, db, "koshari", admin.ID, models.MoodHungry, "rice")
	seedTestRecipe(t, db, "soup", admin.ID, models.MoodSad, "lentils")

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/mood/sad", nil)
	w := httptest.NewRecorder()
	RecipeResource(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var recipes []models.Recipe
	decodeBody(t, w, &recipes)
	if len(recipes) != 1 || recipes[0].Mood != models.MoodSad {
		t.Fatalf("expected one sad recipe, got %+v", recipes)
	}
}

func TestListRecipesByMoodRejectsUnknown(t *testing.T) {
	withTestDatabase(t)
	withTestConfig(t)

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/mood/melancholy", nil)
	w := httptest.NewRecorder()
	RecipeResource(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	if msg := bodyMessage(t, w); msg != "Invalid or missing mood" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestRecipeResourceUnknownPath(t *testing.T) {
	withTestDatabase(t)
	withTestConfig(t)

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/not-a-number", nil)
	w := httptest.NewRecorder()
	RecipeResource(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestShowRecipeNotFound(t *testing.T) {
	withTestDatabase(t)
	withTestConfig(t)

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/99", nil)
	w := httptest.NewRecorder()
	RecipeResource(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
	if msg := bodyMessage(t, w); msg != "Recipe not found!" {
		t.Fatalf("unexpected message %q", msg)
	}
}
