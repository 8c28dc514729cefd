package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	applog "wasfa/internal/log"
	"wasfa/models"
)

// UsersCollection handles /api/users: admin-only listing.
func UsersCollection(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		respondError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	listUsers(w, r)
}

// UserResource dispatches the /api/users/ subtree.
func UserResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		respondError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/users")
	path = strings.Trim(path, "/")
	if path == "" {
		UsersCollection(w, r)
		return
	}

	segments := strings.Split(path, "/")

	if segments[0] == "favorites" {
		claims, ok := requireUser(w, r)
		if !ok {
			return
		}
		switch {
		case len(segments) == 1 && r.Method == http.MethodGet:
			listFavorites(w, r, claims)
		case len(segments) == 2:
			recipeID, ok := parseID(segments[1])
			if !ok {
				http.NotFound(w, r)
				return
			}
			switch r.Method {
			case http.MethodPost:
				addFavorite(w, r, claims, recipeID)
			case http.MethodDelete:
				removeFavorite(w, r, claims, recipeID)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}
		default:
			http.NotFound(w, r)
		}
		return
	}

	id, ok := parseID(segments[0])
	if !ok || len(segments) != 1 {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		if _, ok := requireAdmin(w, r); ok {
			showUser(w, r, id)
		}
	case http.MethodPut:
		if claims, ok := requireSelfOrAdmin(w, r, id); ok {
			updateUser(w, r, id, claims)
		}
	case http.MethodDelete:
		if _, ok := requireSelfOrAdmin(w, r, id); ok {
			deleteUser(w, r, id)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func requireSelfOrAdmin(w http.ResponseWriter, r *http.Request, id uint) (*authClaims, bool) {
	claims, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}
	if claims.UserID != id && claims.Role != models.RoleAdmin {
		respondError(w, http.StatusForbidden, "You are not authorized!")
		return nil, false
	}
	return claims, true
}

type userListResponse struct {
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	Users      []models.User `json:"users"`
}

func listUsers(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r, 10)

	query := database.WithContext(r.Context()).Model(&models.User{})
	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		query = query.Where("username LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		applog.Error(r.Context(), "failed to count users", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	var users []models.User
	if err := query.Offset(p.offset()).Limit(p.Limit).Find(&users).Error; err != nil {
		applog.Error(r.Context(), "failed to list users", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	respondJSON(w, http.StatusOK, userListResponse{
		Total:      total,
		Page:       p.Page,
		TotalPages: totalPages(total, p.Limit),
		Users:      users,
	})
}

func showUser(w http.ResponseWriter, r *http.Request, id uint) {
	user, ok := loadUser(w, r, id)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, user)
}

type userUpdateRequest struct {
	Username string `json:"username" validate:"omitempty,min=3,max=64"`
	Email    string `json:"email" validate:"omitempty,email"`
}

func updateUser(w http.ResponseWriter, r *http.Request, id uint, claims *authClaims) {
	user, ok := loadUser(w, r, id)
	if !ok {
		return
	}

	var req userUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Username != "" {
		user.Username = strings.TrimSpace(req.Username)
	}
	if req.Email != "" {
		user.Email = strings.ToLower(strings.TrimSpace(req.Email))
	}

	if err := database.WithContext(r.Context()).Save(&user).Error; err != nil {
		applog.Error(r.Context(), "failed to update user", "error", err, "userID", id)
		respondError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	applog.Info(r.Context(), "user updated", "userID", id, "by", claims.UserID)
	respondJSON(w, http.StatusOK, user)
}

// deleteUser removes the account together with its recipes and reviews,
// then refreshes the cached average of every recipe the user had
// reviewed.
func deleteUser(w http.ResponseWriter, r *http.Request, id uint) {
	if _, ok := loadUser(w, r, id); !ok {
		return
	}

	var reviewedRecipeIDs []uint
	if err := database.WithContext(r.Context()).Model(&models.Review{}).
		Where("user_id = ?", id).
		Distinct().
		Pluck("recipe_id", &reviewedRecipeIDs).Error; err != nil {
		applog.Error(r.Context(), "failed to collect reviewed recipes", "error", err, "userID", id)
		respondError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	err := database.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var ownedRecipeIDs []uint
		if err := tx.Model(&models.Recipe{}).Where("user_id = ?", id).Pluck("id", &ownedRecipeIDs).Error; err != nil {
			return err
		}
		if len(ownedRecipeIDs) > 0 {
			if err := tx.Unscoped().Where("recipe_id IN ?", ownedRecipeIDs).Delete(&models.Ingredient{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("recipe_id IN ?", ownedRecipeIDs).Delete(&models.Review{}).Error; err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM user_favorites WHERE recipe_id IN ?", ownedRecipeIDs).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", id).Delete(&models.Recipe{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Unscoped().Where("user_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_favorites WHERE user_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		applog.Error(r.Context(), "failed to delete user", "error", err, "userID", id)
		respondError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	for _, recipeID := range reviewedRecipeIDs {
		if err := recomputeAverageRating(r, recipeID); err != nil {
			applog.Error(r.Context(), "failed to refresh rating after user delete", "error", err, "recipeID", recipeID)
		}
	}

	applog.Info(r.Context(), "user deleted", "userID", id)
	respondMessage(w, http.StatusOK, "User deleted successfully!")
}

func loadUser(w http.ResponseWriter, r *http.Request, id uint) (models.User, bool) {
	var user models.User
	err := database.WithContext(r.Context()).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, "User not found!")
		return models.User{}, false
	}
	if err != nil {
		applog.Error(r.Context(), "failed to load user", "error", err, "userID", id)
		respondError(w, http.StatusInternalServerError, "failed to load user")
		return models.User{}, false
	}
	return user, true
}

func addFavorite(w http.ResponseWriter, r *http.Request, claims *authClaims, recipeID uint) {
	user, ok := loadUser(w, r, claims.UserID)
	if !ok {
		return
	}
	recipe, ok := loadRecipe(w, r, recipeID)
	if !ok {
		return
	}

	var count int64
	if err := database.WithContext(r.Context()).
		Table("user_favorites").
		Where("user_id = ? AND recipe_id = ?", user.ID, recipeID).
		Count(&count).Error; err != nil {
		applog.Error(r.Context(), "failed to check favorites", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update favorites")
		return
	}
	if count > 0 {
		respondError(w, http.StatusBadRequest, "Recipe already in favorites")
		return
	}

	if err := database.WithContext(r.Context()).Model(&user).Association("Favorites").Append(&recipe); err != nil {
		applog.Error(r.Context(), "failed to add favorite", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update favorites")
		return
	}

	respondMessage(w, http.StatusOK, "Recipe added to favorites!")
}

func removeFavorite(w http.ResponseWriter, r *http.Request, claims *authClaims, recipeID uint) {
	user, ok := loadUser(w, r, claims.UserID)
	if !ok {
		return
	}

	recipe := models.Recipe{Model: gorm.Model{ID: recipeID}}
	if err := database.WithContext(r.Context()).Model(&user).Association("Favorites").Delete(&recipe); err != nil {
		applog.Error(r.Context(), "failed to remove favorite", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update favorites")
		return
	}

	respondMessage(w, http.StatusOK, "Recipe removed from favorites")
}

func listFavorites(w http.ResponseWriter, r *http.Request, claims *authClaims) {
	user, ok := loadUser(w, r, claims.UserID)
	if !ok {
		return
	}

	favorites := []models.Recipe{}
	err := database.WithContext(r.Context()).
		Preload("Ingredients").
		Joins("JOIN user_favorites ON user_favorites.recipe_id = recipes.id").
		Where("user_favorites.user_id = ?", user.ID).
		Find(&favorites).Error
	if err != nil {
		applog.Error(r.Context(), "failed to list favorites", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list favorites")
		return
	}

	respondJSON(w, http.StatusOK, favorites)
}
