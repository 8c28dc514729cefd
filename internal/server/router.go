package server

import (
	"context"
	"net/http"

	"wasfa/internal/handlers"
	applog "wasfa/internal/log"
)

func newRouter(uploadDir string) http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")
	mux.HandleFunc("/healthz", handlers.Health)
	applog.Debug(context.Background(), "route registered", "path", "/healthz")
	mux.HandleFunc("/api/auth/register", handlers.Register)
	mux.HandleFunc("/api/auth/login", handlers.Login)
	mux.HandleFunc("/api/auth/profile", handlers.Profile)
	mux.HandleFunc("/api/auth/logout", handlers.Logout)
	applog.Debug(context.Background(), "route registered", "path", "/api/auth")
	mux.HandleFunc("/api/recipes", handlers.RecipesCollection)
	mux.HandleFunc("/api/recipes/", handlers.RecipeResource)
	applog.Debug(context.Background(), "route registered", "path", "/api/recipes")
	mux.HandleFunc("/api/reviews/", handlers.ReviewResource)
	applog.Debug(context.Background(), "route registered", "path", "/api/reviews")
	mux.HandleFunc("/api/users", handlers.UsersCollection)
	mux.HandleFunc("/api/users/", handlers.UserResource)
	applog.Debug(context.Background(), "route registered", "path", "/api/users")
	mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))
	applog.Debug(context.Background(), "route registered", "path", "/uploads/", "static", true)
	return mux
}
