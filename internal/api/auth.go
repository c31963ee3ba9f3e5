package api

import (
	"log/slog"
	"net/http"

	"github.com/fieldops/fieldops/internal/auth"
	"github.com/fieldops/fieldops/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Identifiant string `json:"identifiant"`
	MotDePasse  string `json:"mot_de_passe"`
}

type loginResponse struct {
	Token      string       `json:"token"`
	RedirectTo string       `json:"redirectTo"`
	User       *domain.User `json:"user"`
}

// Login checks credentials, mints a session token, and sets the session
// cookie. The response includes the role-derived landing route.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil || req.Identifiant == "" || req.MotDePasse == "" {
		Error(w, http.StatusBadRequest, "identifiant and mot_de_passe are required")
		return
	}

	user, err := h.repo.GetUserByIdentifiant(r.Context(), req.Identifiant)
	if err != nil {
		slog.Error("Failed to look up user for login", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.MotDePasse)); err != nil {
		Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if len(user.Roles) == 0 {
		Error(w, http.StatusUnauthorized, "no role assigned")
		return
	}

	token, err := h.guard.Issue(user, user.Roles)
	if err != nil {
		slog.Error("Failed to issue session token", "user_id", user.ID, "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, auth.SessionCookie(token, h.guard.TTL(), h.secureCookies))
	slog.Info("User logged in", "user_id", user.ID, "identifiant", user.Identifiant)

	JSON(w, http.StatusOK, loginResponse{
		Token:      token,
		RedirectTo: landingRoute(user.Roles),
		User:       user,
	})
}

// landingRoute maps the role set to the page a fresh login lands on.
func landingRoute(roles []string) string {
	for _, role := range roles {
		if role == domain.RoleTechnicien {
			return "/technicien"
		}
	}
	for _, role := range roles {
		if role == domain.RoleManager {
			return "/manager"
		}
	}
	return "/"
}

// Logout clears the session cookie. The token itself stays valid until
// expiry; there is no server-side revocation.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearSessionCookie(h.secureCookies))
	JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me echoes the verified claims of the calling session.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	JSON(w, http.StatusOK, claims)
}
