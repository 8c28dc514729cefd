package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	applog "wasfa/internal/log"
	"wasfa/models"
)

// authClaims is the JWT payload issued at login.
type authClaims struct {
	UserID   uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
	Email    string `json:"email" validate:"required,email"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates a new account.
func Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if database == nil {
		respondError(w, http.StatusServiceUnavailable, "registration not available")
		return
	}

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var count int64
	if err := database.WithContext(r.Context()).Model(&models.User{}).
		Where("username = ?", req.Username).Count(&count).Error; err != nil {
		applog.Error(r.Context(), "failed to check existing username", "error", err)
		respondError(w, http.StatusInternalServerError, "We couldn't create your account right now.")
		return
	}
	if count > 0 {
		respondError(w, http.StatusBadRequest, "Username already exists!")
		return
	}

	if err := database.WithContext(r.Context()).Model(&models.User{}).
		Where("lower(email) = ?", strings.ToLower(req.Email)).Count(&count).Error; err != nil {
		applog.Error(r.Context(), "failed to check existing email", "error", err)
		respondError(w, http.StatusInternalServerError, "We couldn't create your account right now.")
		return
	}
	if count > 0 {
		respondError(w, http.StatusBadRequest, "Email already exists!")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		applog.Error(r.Context(), "failed to hash password", "error", err)
		respondError(w, http.StatusInternalServerError, "We couldn't create your account right now.")
		return
	}

	user := models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hashed),
		Role:         models.RoleUser,
	}
	if err := database.WithContext(r.Context()).Create(&user).Error; err != nil {
		applog.Error(r.Context(), "failed to create user", "error", err)
		respondError(w, http.StatusInternalServerError, "We couldn't create your account right now.")
		return
	}

	applog.Info(r.Context(), "user registered", "userID", user.ID)
	respondMessage(w, http.StatusOK, "User has been created!")
}

// Login verifies credentials and issues the auth cookie.
func Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if database == nil {
		respondError(w, http.StatusServiceUnavailable, "authentication not available")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var user models.User
	err := database.WithContext(r.Context()).
		Where("lower(email) = ?", strings.ToLower(req.Email)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, "User not found!")
		return
	}
	if err != nil {
		applog.Error(r.Context(), "failed to load user during login", "error", err)
		respondError(w, http.StatusInternalServerError, "We were unable to sign you in.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(w, http.StatusBadRequest, "Wrong email or password!")
		return
	}

	token, err := issueToken(&user)
	if err != nil {
		applog.Error(r.Context(), "failed to sign token", "error", err)
		respondError(w, http.StatusInternalServerError, "We were unable to sign you in.")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(authCfg.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   authCfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	applog.Info(r.Context(), "user logged in", "userID", user.ID)
	respondJSON(w, http.StatusOK, user)
}

// Profile echoes the authenticated token claims.
func Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireUser(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, claims)
}

// Logout clears the auth cookie.
func Logout(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodPost:
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	respondMessage(w, http.StatusOK, "Logged out successfully!")
}

func issueToken(user *models.User) (string, error) {
	if strings.TrimSpace(authCfg.JWTSecret) == "" {
		return "", errors.New("jwt secret not configured")
	}

	now := time.Now().UTC()
	claims := authClaims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(authCfg.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(authCfg.JWTSecret))
}

// tokenFromRequest looks for the auth cookie first and falls back to a
// Bearer header.
func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(authCfg.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func parseToken(raw string) (*authClaims, error) {
	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(authCfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	return claims, nil
}

// requireUser resolves the request's token and writes the error response
// itself when authentication fails.
func requireUser(w http.ResponseWriter, r *http.Request) (*authClaims, bool) {
	raw := tokenFromRequest(r)
	if raw == "" {
		respondError(w, http.StatusForbidden, "Access denied!")
		return nil, false
	}
	claims, err := parseToken(raw)
	if err != nil {
		applog.Debug(r.Context(), "token rejected", "error", err)
		respondError(w, http.StatusForbidden, "Token is not valid!")
		return nil, false
	}
	return claims, true
}

// requireAdmin is requireUser plus an admin role check.
func requireAdmin(w http.ResponseWriter, r *http.Request) (*authClaims, bool) {
	claims, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}
	if claims.Role != models.RoleAdmin {
		respondError(w, http.StatusForbidden, "You are not an admin!")
		return nil, false
	}
	return claims, true
}
