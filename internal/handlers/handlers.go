package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"wasfa/internal/ai"
	"wasfa/internal/config"
	applog "wasfa/internal/log"
	"wasfa/models"
)

// RecipeSuggester is the slice of the AI client the handlers depend on.
// A nil value disables the AI-backed endpoint.
type RecipeSuggester interface {
	SuggestRecipes(ctx context.Context, req ai.SuggestionRequest) (ai.SuggestionResult, error)
}

var (
	database   *gorm.DB
	authCfg    config.AuthConfig
	suggestCfg config.SuggestConfig
	uploadDir  string
	suggester  RecipeSuggester
	validate   = validator.New()
)

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(db *gorm.DB, cfg config.Config, ai RecipeSuggester) {
	database = db
	authCfg = cfg.Auth
	suggestCfg = cfg.Suggest
	uploadDir = cfg.Server.UploadDir
	suggester = ai
}

type errorResponse struct {
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Message: message})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, messageResponse{Message: message})
}

// decodeJSON parses the request body into dst and runs struct
// validation. Returned messages are safe to show to clients.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body must not be empty")
		}
		return errors.New("invalid JSON payload")
	}
	if err := validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return errors.New("invalid request payload")
		}
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return errors.New("invalid value for field " + strings.ToLower(fields[0].Field()))
		}
		return err
	}
	return nil
}

// pagination captures the page/limit query parameters shared by the
// list endpoints.
type pagination struct {
	Page  int
	Limit int
}

func parsePagination(r *http.Request, defaultLimit int) pagination {
	p := pagination{Page: 1, Limit: defaultLimit}
	if raw := r.URL.Query().Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			p.Page = page
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 && limit <= 100 {
			p.Limit = limit
		}
	}
	return p
}

func (p pagination) offset() int {
	return (p.Page - 1) * p.Limit
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return int(pages)
}

// parseID extracts a numeric identifier from a path segment.
func parseID(segment string) (uint, bool) {
	value, err := strconv.ParseUint(segment, 10, 64)
	if err != nil || value == 0 {
		return 0, false
	}
	return uint(value), true
}

// requestLanguage resolves the Accept-Language header to a supported
// code, defaulting to English.
func requestLanguage(r *http.Request) string {
	return models.NormalizeLanguage(r.Header.Get("Accept-Language"))
}
