package suggest

import (
	"context"
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"

	applog "wasfa/internal/log"
	"wasfa/models"
)

// DefaultLimit caps the ranked result list when the caller does not
// supply one.
const DefaultLimit = 10

// ErrInsufficientCriteria is returned before any storage access when a
// request carries neither a mood nor at least two ingredients.
var ErrInsufficientCriteria = errors.New("Please provide at least a mood or two ingredients")

// Request describes one recommendation query. Lang must be a normalized
// language code; Limit falls back to DefaultLimit when non-positive.
type Request struct {
	Mood        string
	Ingredients []string
	MaxCookTime int
	MinRating   float64
	Lang        string
	Limit       int
}

// scored pairs a candidate with its match score and rating aggregate
// while ranking. Scoring metadata never leaves this package.
type scored struct {
	recipe    models.Recipe
	score     float64
	avgRating float64
}

// Normalize trims ingredient entries, drops blanks, and resolves the
// language code.
func (r *Request) Normalize() {
	cleaned := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if trimmed := strings.TrimSpace(ing); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	r.Ingredients = cleaned
	r.Lang = models.NormalizeLanguage(r.Lang)
	if r.Limit <= 0 {
		r.Limit = DefaultLimit
	}
}

// Validate rejects requests that would otherwise rank the entire recipe
// set. Mood matching downstream is exact and case-sensitive.
func (r *Request) Validate() error {
	if r.Mood == "" && len(r.Ingredients) < 2 {
		return ErrInsufficientCriteria
	}
	return nil
}

// Suggest runs the full pipeline: candidate filter, scorer, ranker.
func Suggest(ctx context.Context, db *gorm.DB, req Request) ([]models.Recipe, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	candidates, err := candidates(ctx, db, req)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []models.Recipe{}, nil
	}

	ids := make([]uint, 0, len(candidates))
	for _, recipe := range candidates {
		ids = append(ids, recipe.ID)
	}

	ratings, err := averageRatings(ctx, db, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]scored, 0, len(candidates))
	for _, recipe := range candidates {
		avg := ratings[recipe.ID]
		if avg < req.MinRating {
			continue
		}
		entries = append(entries, scored{
			recipe:    recipe,
			score:     matchScore(recipe, req.Ingredients, req.Lang),
			avgRating: avg,
		})
	}

	rank(entries)

	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	applog.Debug(ctx, "suggestion pipeline completed",
		"candidates", len(candidates),
		"ranked", len(entries),
		"lang", req.Lang,
	)

	results := make([]models.Recipe, 0, len(entries))
	for _, entry := range entries {
		results = append(results, entry.recipe)
	}
	return results, nil
}

// candidates narrows the recipe set to those satisfying every supplied
// hard constraint.
func candidates(ctx context.Context, db *gorm.DB, req Request) ([]models.Recipe, error) {
	query := db.WithContext(ctx).Model(&models.Recipe{}).Preload("Ingredients")

	if req.Mood != "" {
		query = query.Where("mood = ?", req.Mood)
	}

	if len(req.Ingredients) >= 2 {
		sub := db.WithContext(ctx).Model(&models.Ingredient{}).
			Select("recipe_id").
			Where(ingredientNameColumn(req.Lang)+" IN ?", req.Ingredients)
		query = query.Where("id IN (?)", sub)
	}

	if req.MaxCookTime > 0 {
		query = query.Where("cook_time <= ?", req.MaxCookTime)
	}

	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// ingredientNameColumn maps a normalized language code to the localized
// name column. Only the three supported codes can reach SQL.
func ingredientNameColumn(lang string) string {
	switch lang {
	case models.LangFR:
		return "name_fr"
	case models.LangAR:
		return "name_ar"
	default:
		return "name_en"
	}
}

// matchScore computes the fraction of a recipe's ingredients that appear
// in the requested set under the given language. Mood-only requests
// score 1 by convention; recipes with no ingredients score 0.
func matchScore(recipe models.Recipe, requested []string, lang string) float64 {
	if len(requested) < 2 {
		return 1
	}
	if len(recipe.Ingredients) == 0 {
		return 0
	}

	wanted := make(map[string]struct{}, len(requested))
	for _, ing := range requested {
		wanted[ing] = struct{}{}
	}

	common := 0
	for _, ing := range recipe.Ingredients {
		if _, ok := wanted[ing.Name.In(lang)]; ok {
			common++
		}
	}
	return float64(common) / float64(len(recipe.Ingredients))
}

// rank orders entries by descending match score, breaking ties on
// descending average rating and then ascending recipe id so repeated
// runs are deterministic.
func rank(entries []scored) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		if entries[i].avgRating != entries[j].avgRating {
			return entries[i].avgRating > entries[j].avgRating
		}
		return entries[i].recipe.ID < entries[j].recipe.ID
	})
}

// averageRatings computes the rating mean for every recipe id in one
// grouped query. Recipes without reviews are absent from the map.
func averageRatings(ctx context.Context, db *gorm.DB, recipeIDs []uint) (map[uint]float64, error) {
	if len(recipeIDs) == 0 {
		return map[uint]float64{}, nil
	}

	var rows []struct {
		RecipeID  uint
		AvgRating float64
	}
	err := db.WithContext(ctx).
		Model(&models.Review{}).
		Select("recipe_id, AVG(rating) AS avg_rating").
		Where("recipe_id IN ?", recipeIDs).
		Group("recipe_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ratings := make(map[uint]float64, len(rows))
	for _, row := range rows {
		ratings[row.RecipeID] = row.AvgRating
	}
	return ratings, nil
}

// ByMood returns recipes whose tag list intersects the mood's tag
// expansion, capped at limit. The mood must be a recognised key.
func ByMood(ctx context.Context, db *gorm.DB, mood string, limit int) ([]models.Recipe, error) {
	tags, ok := TagsForMood(mood)
	if !ok {
		return nil, errors.New("Invalid or missing mood")
	}
	if limit <= 0 {
		limit = 5
	}

	// Tags are stored as a JSON array column, so intersection happens
	// in process over the mood-agnostic recipe set.
	var recipes []models.Recipe
	if err := db.WithContext(ctx).Preload("Ingredients").Find(&recipes).Error; err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		wanted[tag] = struct{}{}
	}

	matched := make([]models.Recipe, 0, limit)
	for _, recipe := range recipes {
		for _, tag := range recipe.Tags {
			if _, ok := wanted[tag]; ok {
				matched = append(matched, recipe)
				break
			}
		}
		if len(matched) == limit {
			break
		}
	}
	return matched, nil
}
