package handlers

import (
	"errors"
	"net/http"

	"golang.org/x/time/rate"

	"wasfa/internal/ai"
	applog "wasfa/internal/log"
	"wasfa/internal/suggest"
	"wasfa/models"
)

// aiLimiter throttles the OpenAI-backed endpoint; every other route is
// cheap enough to leave unmetered.
var aiLimiter = rate.NewLimiter(rate.Limit(1), 5)

type smartSuggestionsRequest struct {
	Mood        string   `json:"mood"`
	Ingredients []string `json:"ingredients"`
	Servings    int      `json:"servings"`
	MaxCookTime int      `json:"maxCookTime" validate:"gte=0"`
	MinRating   float64  `json:"minRating" validate:"gte=0,lte=5"`
}

// SmartSuggestions runs the scored recommendation pipeline.
func SmartSuggestions(w http.ResponseWriter, r *http.Request) {
	var req smartSuggestionsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipes, err := suggest.Suggest(r.Context(), database, suggest.Request{
		Mood:        req.Mood,
		Ingredients: req.Ingredients,
		MaxCookTime: req.MaxCookTime,
		MinRating:   req.MinRating,
		Lang:        requestLanguage(r),
		Limit:       suggestCfg.Limit,
	})
	if errors.Is(err, suggest.ErrInsufficientCriteria) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		applog.Error(r.Context(), "suggestion pipeline failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to compute suggestions")
		return
	}

	respondJSON(w, http.StatusOK, recipes)
}

type moodSuggestionsRequest struct {
	Mood string `json:"mood"`
}

type moodSuggestionsResponse struct {
	Mood    string          `json:"mood"`
	Recipes []models.Recipe `json:"recipes"`
}

// MoodSuggestions filters recipes whose tags intersect the mood's tag
// expansion.
func MoodSuggestions(w http.ResponseWriter, r *http.Request) {
	var req moodSuggestionsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipes, err := suggest.ByMood(r.Context(), database, req.Mood, suggestCfg.MoodLimit)
	if err != nil {
		if _, known := suggest.TagsForMood(req.Mood); !known {
			respondError(w, http.StatusBadRequest, "Invalid or missing mood")
			return
		}
		applog.Error(r.Context(), "mood suggestions failed", "error", err, "mood", req.Mood)
		respondError(w, http.StatusInternalServerError, "failed to compute suggestions")
		return
	}

	respondJSON(w, http.StatusOK, moodSuggestionsResponse{Mood: req.Mood, Recipes: recipes})
}

type aiSuggestionsRequest struct {
	Prompt      string   `json:"prompt" validate:"required"`
	Mood        string   `json:"mood"`
	Ingredients []string `json:"ingredients"`
	Servings    int      `json:"servings" validate:"gte=0"`
}

// AISuggestions asks the language model for freshly generated recipes.
func AISuggestions(w http.ResponseWriter, r *http.Request) {
	if suggester == nil {
		respondError(w, http.StatusServiceUnavailable, "AI suggestions are not configured")
		return
	}
	if !aiLimiter.Allow() {
		respondError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}

	var req aiSuggestionsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := suggester.SuggestRecipes(r.Context(), ai.SuggestionRequest{
		Prompt:      req.Prompt,
		Mood:        req.Mood,
		Ingredients: req.Ingredients,
		Servings:    req.Servings,
		Lang:        requestLanguage(r),
	})
	if errors.Is(err, ai.ErrUnavailable) {
		respondError(w, http.StatusServiceUnavailable, "AI suggestions are temporarily unavailable. Please try again later.")
		return
	}
	if err != nil {
		applog.Error(r.Context(), "ai suggestions failed", "error", err)
		respondError(w, http.StatusBadGateway, "AI service error. Please try again later.")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
