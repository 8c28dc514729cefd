package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	applog "wasfa/internal/log"
	"wasfa/models"
)

type ingredientPayload struct {
	Name     models.LocalizedText `json:"name"`
	Quantity string               `json:"quantity"`
}

type recipePayload struct {
	Title        models.LocalizedText `json:"title"`
	Ingredients  []ingredientPayload  `json:"ingredients" validate:"required,min=1"`
	Instructions models.LocalizedText `json:"instructions"`
	CookTime     int                  `json:"cookTime" validate:"gte=0"`
	Difficulty   string               `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Mood         string               `json:"mood"`
	Tags         []string             `json:"tags"`
}

func (p *recipePayload) check() error {
	if !p.Title.Complete() {
		return errors.New("title must be provided in every supported language")
	}
	for _, ing := range p.Ingredients {
		if !ing.Name.Complete() {
			return errors.New("every ingredient name must be provided in every supported language")
		}
	}
	if p.Mood == "" {
		p.Mood = models.DefaultMood
	}
	if !models.ValidMood(p.Mood) {
		return errors.New("Invalid or missing mood")
	}
	return nil
}

// RecipesCollection handles /api/recipes: listing and creation.
func RecipesCollection(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		respondError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	switch r.Method {
	case http.MethodGet:
		listRecipes(w, r)
	case http.MethodPost:
		claims, ok := requireAdmin(w, r)
		if !ok {
			return
		}
		createRecipe(w, r, claims)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// RecipeResource dispatches the /api/recipes/ subtree.
func RecipeResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		respondError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/recipes")
	path = strings.Trim(path, "/")
	if path == "" {
		RecipesCollection(w, r)
		return
	}

	segments := strings.Split(path, "/")

	switch segments[0] {
	case "smart-suggestions":
		requirePost(w, r, SmartSuggestions)
		return
	case "ai-suggestions":
		requirePost(w, r, AISuggestions)
		return
	case "suggestions":
		if len(segments) == 2 && segments[1] == "by-mood" {
			requirePost(w, r, MoodSuggestions)
			return
		}
		http.NotFound(w, r)
		return
	case "mood":
		if len(segments) == 2 && r.Method == http.MethodGet {
			listRecipesByMood(w, r, segments[1])
			return
		}
		http.NotFound(w, r)
		return
	case "with-reviews":
		if len(segments) == 2 && r.Method == http.MethodGet {
			if id, ok := parseID(segments[1]); ok {
				showRecipeWithReviews(w, r, id)
				return
			}
		}
		http.NotFound(w, r)
		return
	}

	id, ok := parseID(segments[0])
	if !ok {
		http.NotFound(w, r)
		return
	}

	if len(segments) == 2 && segments[1] == "rate" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		claims, ok := requireUser(w, r)
		if !ok {
			return
		}
		rateRecipe(w, r, id, claims)
		return
	}

	if len(segments) != 1 {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showRecipe(w, r, id)
	case http.MethodPut:
		if _, ok := requireAdmin(w, r); ok {
			updateRecipe(w, r, id)
		}
	case http.MethodDelete:
		if _, ok := requireAdmin(w, r); ok {
			deleteRecipe(w, r, id)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func requirePost(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	next(w, r)
}

func titleColumn(lang string) string {
	switch lang {
	case models.LangFR:
		return "title_fr"
	case models.LangAR:
		return "title_ar"
	default:
		return "title_en"
	}
}

type recipeListResponse struct {
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	TotalPages int             `json:"totalPages"`
	Recipes    []models.Recipe `json:"recipes"`
}

func listRecipes(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r, 10)
	lang := requestLanguage(r)

	query := database.WithContext(r.Context()).Model(&models.Recipe{}).Preload("Ingredients")

	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		query = query.Where(titleColumn(lang)+" LIKE ?", "%"+search+"%")
	}
	if mood := r.URL.Query().Get("mood"); mood != "" {
		query = query.Where("mood = ?", mood)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		applog.Error(r.Context(), "failed to count recipes", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list recipes")
		return
	}

	var recipes []models.Recipe
	if err := query.Offset(p.offset()).Limit(p.Limit).Find(&recipes).Error; err != nil {
		applog.Error(r.Context(), "failed to list recipes", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list recipes")
		return
	}

	respondJSON(w, http.StatusOK, recipeListResponse{
		Total:      total,
		Page:       p.Page,
		TotalPages: totalPages(total, p.Limit),
		Recipes:    recipes,
	})
}

func createRecipe(w http.ResponseWriter, r *http.Request, claims *authClaims) {
	payload, imagePath, imageID, err := parseRecipeRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipe := models.Recipe{
		Title:        payload.Title,
		Instructions: payload.Instructions,
		CookTime:     payload.CookTime,
		Difficulty:   payload.Difficulty,
		Mood:         payload.Mood,
		Tags:         payload.Tags,
		UserID:       claims.UserID,
		Image:        imagePath,
		ImageID:      imageID,
	}
	for _, ing := range payload.Ingredients {
		recipe.Ingredients = append(recipe.Ingredients, models.Ingredient{
			Name:     ing.Name,
			Quantity: ing.Quantity,
		})
	}

	if err := database.WithContext(r.Context()).Create(&recipe).Error; err != nil {
		applog.Error(r.Context(), "failed to create recipe", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create recipe")
		return
	}

	applog.Info(r.Context(), "recipe created", "recipeID", recipe.ID, "userID", claims.UserID)
	respondJSON(w, http.StatusCreated, recipe)
}

func showRecipe(w http.ResponseWriter, r *http.Request, id uint) {
	recipe, ok := loadRecipe(w, r, id)
	if !ok {
		return
	}

	avg, count, err := ratingAggregate(r, id)
	if err != nil {
		applog.Error(r.Context(), "failed to aggregate ratings", "error", err, "recipeID", id)
		respondError(w, http.StatusInternalServerError, "failed to load recipe")
		return
	}
	recipe.AverageRating = avg

	respondJSON(w, http.StatusOK, struct {
		models.Recipe
		TotalReviews int64 `json:"totalReviews"`
	}{Recipe: recipe, TotalReviews: count})
}

func showRecipeWithReviews(w http.ResponseWriter, r *http.Request, id uint) {
	recipe, ok := loadRecipe(w, r, id)
	if !ok {
		return
	}

	var reviews []models.Review
	if err := database.WithContext(r.Context()).
		Where("recipe_id = ?", id).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		applog.Error(r.Context(), "failed to load reviews", "error", err, "recipeID", id)
		respondError(w, http.StatusInternalServerError, "failed to load recipe")
		return
	}

	avg, count, err := ratingAggregate(r, id)
	if err != nil {
		applog.Error(r.Context(), "failed to aggregate ratings", "error", err, "recipeID", id)
		respondError(w, http.StatusInternalServerError, "failed to load recipe")
		return
	}
	recipe.AverageRating = avg

	respondJSON(w, http.StatusOK, struct {
		models.Recipe
		Reviews      []models.Review `json:"reviews"`
		TotalReviews int64           `json:"totalReviews"`
	}{Recipe: recipe, Reviews: reviews, TotalReviews: count})
}

func updateRecipe(w http.ResponseWriter, r *http.Request, id uint) {
	recipe, ok := loadRecipe(w, r, id)
	if !ok {
		return
	}

	payload, imagePath, imageID, err := parseRecipeRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipe.Title = payload.Title
	recipe.Instructions = payload.Instructions
	recipe.CookTime = payload.CookTime
	recipe.Difficulty = payload.Difficulty
	recipe.Mood = payload.Mood
	recipe.Tags = payload.Tags

	oldImage := ""
	if imagePath != "" {
		oldImage = recipe.Image
		recipe.Image = imagePath
		recipe.ImageID = imageID
	}

	err = database.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("recipe_id = ?", id).Delete(&models.Ingredient{}).Error; err != nil {
			return err
		}
		for _, ing := range payload.Ingredients {
			row := models.Ingredient{RecipeID: id, Name: ing.Name, Quantity: ing.Quantity}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		// Save would also upsert the preloaded ingredient rows that
		// were just replaced, so the association is cleared and
		// omitted from the update.
		recipe.Ingredients = nil
		return tx.Omit("Ingredients").Save(&recipe).Error
	})
	if err != nil {
		applog.Error(r.Context(), "failed to update recipe", "error", err, "recipeID", id)
		respondError(w, http.StatusInternalServerError, "failed to update recipe")
		return
	}

	if oldImage != "" {
		removeStoredImage(oldImage)
	}

	updated, ok := loadRecipe(w, r, id)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func deleteRecipe(w http.ResponseWriter, r *http.Request, id uint) {
	recipe, ok := loadRecipe(w, r, id)
	if !ok {
		return
	}

	err := database.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("recipe_id = ?", id).Delete(&models.Ingredient{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("recipe_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_favorites WHERE recipe_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, id).Error
	})
	if err != nil {
		applog.Error(r.Context(), "failed to delete recipe", "error", err, "recipeID", id)
		respondError(w, http.StatusInternalServerError, "failed to delete recipe")
		return
	}

	removeStoredImage(recipe.Image)

	applog.Info(r.Context(), "recipe deleted", "recipeID", id)
	respondMessage(w, http.StatusOK, "Recipe deleted successfully!")
}

func listRecipesByMood(w http.ResponseWriter, r *http.Request, mood string) {
	if !models.ValidMood(mood) {
		respondError(w, http.StatusBadRequest, "Invalid or missing mood")
		return
	}

	var recipes []models.Recipe
	err := database.WithContext(r.Context()).
		Preload("Ingredients").
		Where("mood = ?", mood).
		Limit(suggestCfg.Limit).
		Find(&recipes).Error
	if err != nil {
		applog.Error(r.Context(), "failed to list recipes by mood", "error", err, "mood", mood)
		respondError(w, http.StatusInternalServerError, "failed to list recipes")
		return
	}

	respondJSON(w, http.StatusOK, recipes)
}

func loadRecipe(w http.ResponseWriter, r *http.Request, id uint) (models.Recipe, bool) {
	var recipe models.Recipe
	err := database.WithContext(r.Context()).Preload("Ingredients").First(&recipe, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, "Recipe not found!")
		return models.Recipe{}, false
	}
	if err != nil {
		applog.Error(r.Context(), "failed to load recipe", "error", err, "recipeID", id)
		respondError(w, http.StatusInternalServerError, "failed to load recipe")
		return models.Recipe{}, false
	}
	return recipe, true
}

// parseRecipeRequest decodes a recipe payload from either a JSON body or
// a multipart form carrying a "payload" JSON field plus an optional
// "image" file.
func parseRecipeRequest(r *http.Request) (recipePayload, string, string, error) {
	var payload recipePayload

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(16 << 20); err != nil {
			return payload, "", "", errors.New("invalid multipart form")
		}
		raw := r.FormValue("payload")
		if strings.TrimSpace(raw) == "" {
			return payload, "", "", errors.New("missing recipe payload")
		}
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return payload, "", "", errors.New("invalid JSON payload")
		}
		if err := validate.Struct(&payload); err != nil {
			return payload, "", "", errors.New("invalid recipe payload")
		}
		if err := payload.check(); err != nil {
			return payload, "", "", err
		}

		imagePath, imageID, err := saveUploadedImage(r)
		if err != nil {
			return payload, "", "", err
		}
		return payload, imagePath, imageID, nil
	}

	if err := decodeJSON(r, &payload); err != nil {
		return payload, "", "", err
	}
	if err := payload.check(); err != nil {
		return payload, "", "", err
	}
	return payload, "", "", nil
}

// saveUploadedImage stores the optional "image" form file under the
// upload directory with a random name.
func saveUploadedImage(r *http.Request) (string, string, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", "", nil
	}
	if err != nil {
		return "", "", errors.New("invalid image upload")
	}
	defer file.Close()

	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return "", "", fmt.Errorf("prepare upload directory: %w", err)
	}

	imageID := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return "", "", errors.New("unsupported image format")
	}

	name := imageID + ext
	dst, err := os.Create(filepath.Join(uploadDir, name))
	if err != nil {
		return "", "", fmt.Errorf("store image: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", "", fmt.Errorf("store image: %w", err)
	}

	return "/uploads/" + name, imageID, nil
}

func removeStoredImage(imagePath string) {
	if !strings.HasPrefix(imagePath, "/uploads/") {
		return
	}
	name := filepath.Base(strings.TrimPrefix(imagePath, "/uploads/"))
	if name == "" || name == "." {
		return
	}
	os.Remove(filepath.Join(uploadDir, name))
}
