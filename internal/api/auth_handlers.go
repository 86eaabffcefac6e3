package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/AdSnap-Studio/adsnap/internal/auth"
	"github.com/AdSnap-Studio/adsnap/internal/database"
)

type registerRequest struct {
	Handle   string `json:"handle"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (api *Api) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Handle == "" {
		writeError(w, http.StatusBadRequest, "handle is required")
		return
	}

	account, err := auth.CreateAccount(req.Handle, req.Email, req.Password, req.FullName)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, account.Profile())
}

type loginRequest struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

func (api *Api) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, signedToken, err := api.sessions.Login(req.Handle, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	account, err := database.GetAccountByHandle(profile.Handle)
	if err == nil {
		api.tracker.TrackLogin(account.ID, account.Handle)
	}

	ttl := time.Duration(api.Config.Session.TTLHours) * time.Hour
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    signedToken,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, profile)
}

func (api *Api) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())

	if err := api.sessions.Logout(identity); err != nil && !errors.Is(err, database.ErrSessionNotFound) {
		log.Printf("Error terminating session for %s: %v", identity.Account.Handle, err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (api *Api) MeHandler(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	writeJSON(w, http.StatusOK, identity.Account.Profile())
}

type updateProfileRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

func (api *Api) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := auth.UpdateProfile(identity.Account.ID, req.FullName, req.Email); err != nil {
		writeDomainError(w, err)
		return
	}

	account, err := database.GetAccountByID(identity.Account.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account.Profile())
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (api *Api) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := auth.ChangePassword(identity.Account.ID, req.OldPassword, req.NewPassword); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

// resetRequestMessage is returned whether or not the email is registered, so
// the endpoint cannot be used to probe for accounts.
const resetRequestMessage = "If that email is registered, a reset link has been sent."

func (api *Api) RequestPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := auth.IssueResetToken(req.Email)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.Printf("Error issuing reset token: %v", err)
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": resetRequestMessage})
		return
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", api.Config.SMTP.BaseURL, token)
	if api.mailer.Configured() {
		if err := api.mailer.SendPasswordReset(req.Email, resetLink); err != nil {
			log.Printf("Error sending reset email to %s: %v", req.Email, err)
		}
	} else {
		log.Printf("Email sender not configured, reset link for %s not delivered", req.Email)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": resetRequestMessage})
}

type resetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (api *Api) ConfirmPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := auth.ResetPassword(req.Token, req.NewPassword); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "password reset"})
}
