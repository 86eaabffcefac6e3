package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/AdSnap-Studio/adsnap/internal/activity"
	"github.com/AdSnap-Studio/adsnap/internal/auth"
	"github.com/AdSnap-Studio/adsnap/internal/bria"
	"github.com/AdSnap-Studio/adsnap/internal/config"
	"github.com/AdSnap-Studio/adsnap/internal/database"
	"github.com/AdSnap-Studio/adsnap/internal/email"
	"github.com/AdSnap-Studio/adsnap/internal/storage"
)

type Api struct {
	Config   *config.Config
	Router   *chi.Mux
	sessions *auth.Controller
	tracker  *activity.Tracker
	engine   *bria.Client
	mailer   *email.Sender
	archive  *storage.Archive // nil when object storage is not configured
}

func NewApi(cfg *config.Config) (*Api, error) {
	api := &Api{
		Config:   cfg,
		Router:   chi.NewRouter(),
		sessions: auth.NewController(cfg.Session.Secret, time.Duration(cfg.Session.TTLHours)*time.Hour),
		tracker:  activity.NewTracker(),
		engine:   bria.NewClient(cfg.Bria.BaseURL, cfg.Bria.APIKey),
		mailer:   email.NewSender(cfg),
	}

	if cfg.ArchiveEnabled() {
		archive, err := storage.NewArchive(cfg)
		if err != nil {
			return nil, err
		}
		api.archive = archive
	}

	api.setupRoutes()
	return api, nil
}

func (api *Api) setupRoutes() {
	r := api.Router

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Heartbeat("/heartbeat"))

	r.Use(api.sessions.Middleware)

	// Public routes
	r.Post("/auth/register", api.RegisterHandler)
	r.Post("/auth/login", api.LoginHandler)
	r.Post("/auth/reset/request", api.RequestPasswordResetHandler)
	r.Post("/auth/reset/confirm", api.ConfirmPasswordResetHandler)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Post("/auth/logout", api.LogoutHandler)
		r.Get("/auth/me", api.MeHandler)
		r.Put("/auth/profile", api.UpdateProfileHandler)
		r.Put("/auth/password", api.ChangePasswordHandler)

		r.Post("/images/generate", api.GenerateImageHandler)
		r.Post("/images/packshot", api.PackshotHandler)
		r.Post("/images/shadow", api.ShadowHandler)
		r.Post("/images/fill", api.GenerativeFillHandler)
		r.Post("/images/erase", api.EraseForegroundHandler)
		r.Post("/images/lifestyle-text", api.LifestyleByTextHandler)
		r.Post("/images/lifestyle-image", api.LifestyleByImageHandler)
		r.Post("/prompts/enhance", api.EnhancePromptHandler)
		r.Get("/images/recent", api.RecentImagesHandler)
		r.Get("/images/{imageID}/download", api.ImageDownloadHandler)

		r.Get("/activities", api.ActivitiesHandler)
		r.Get("/stats", api.StatsHandler)
		r.Post("/projects", api.CreateProjectHandler)
		r.Get("/projects", api.ListProjectsHandler)
	})
}

func (api *Api) Serve() {
	// Periodically drop expired sessions and reset tokens
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			if err := auth.CleanupExpiredSessions(); err != nil {
				log.Printf("Error cleaning up expired sessions: %v", err)
			}
			if err := database.CleanupExpiredResetTokens(); err != nil {
				log.Printf("Error cleaning up expired reset tokens: %v", err)
			}
			<-ticker.C
		}
	}()

	log.Printf("Starting API server on 0.0.0.0:%d", api.Config.APIPort)
	log.Fatal(http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", api.Config.APIPort), api.Router))
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps domain failures to HTTP statuses. Anything unmapped
// is an internal error.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrDuplicateHandle):
		writeError(w, http.StatusConflict, "handle already taken")
	case errors.Is(err, database.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, auth.ErrBadCredential):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrAccountInactive):
		writeError(w, http.StatusForbidden, "account is deactivated")
	case errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "password does not meet requirements")
	case errors.Is(err, auth.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "invalid email format")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusBadRequest, "invalid reset token")
	case errors.Is(err, auth.ErrExpiredToken):
		writeError(w, http.StatusBadRequest, "reset token has expired")
	case errors.Is(err, auth.ErrTokenUsed):
		writeError(w, http.StatusBadRequest, "reset token already used")
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
	case errors.Is(err, bria.ErrServiceUnavailable):
		writeError(w, http.StatusBadGateway, "image engine unavailable")
	case errors.Is(err, bria.ErrUnrecognizedResponse):
		writeError(w, http.StatusBadGateway, "image engine returned an unrecognized response")
	default:
		log.Printf("Unhandled error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
