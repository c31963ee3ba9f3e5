package api

import (
	"log/slog"
	"net/http"

	"github.com/fieldops/fieldops/internal/domain"
	"github.com/fieldops/fieldops/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// ListUsers returns all users. Password hashes never serialize.
// GET /api/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.ListUsers(r.Context())
	if err != nil {
		slog.Error("Failed to list users", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []*domain.User{}
	}
	JSON(w, http.StatusOK, users)
}

type createUserRequest struct {
	Identifiant string `json:"identifiant"`
	Nom         string `json:"nom"`
	Prenom      string `json:"prenom"`
	Email       string `json:"email"`
	Image       string `json:"image"`
	MotDePasse  string `json:"mot_de_passe"`
}

// CreateUser registers a new user. Manager only.
// POST /api/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeBody(r, &req); err != nil ||
		req.Identifiant == "" || req.Nom == "" || req.Prenom == "" ||
		req.Email == "" || req.MotDePasse == "" {
		Error(w, http.StatusBadRequest, "identifiant, nom, prenom, email and mot_de_passe are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.MotDePasse), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	user := &domain.User{
		Identifiant:  req.Identifiant,
		Nom:          req.Nom,
		Prenom:       req.Prenom,
		Email:        req.Email,
		Image:        req.Image,
		PasswordHash: string(hash),
	}
	if err := h.repo.CreateUser(r.Context(), user); err != nil {
		if store.IsUniqueConstraint(err) {
			Error(w, http.StatusBadRequest, "identifiant or email already in use")
			return
		}
		slog.Error("Failed to create user", "identifiant", req.Identifiant, "error", err)
		Error(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	slog.Info("User created", "user_id", user.ID, "identifiant", user.Identifiant)
	JSON(w, http.StatusCreated, user)
}

// ListRoles returns all roles.
// GET /api/roles
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.repo.ListRoles(r.Context())
	if err != nil {
		slog.Error("Failed to list roles", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list roles")
		return
	}
	if roles == nil {
		roles = []*domain.Role{}
	}
	JSON(w, http.StatusOK, roles)
}

type createRoleRequest struct {
	Nom string `json:"nom"`
}

// CreateRole adds a role. Manager only.
// POST /api/roles
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := decodeBody(r, &req); err != nil || req.Nom == "" {
		Error(w, http.StatusBadRequest, "nom is required")
		return
	}

	role := &domain.Role{Nom: req.Nom}
	if err := h.repo.CreateRole(r.Context(), role); err != nil {
		if store.IsUniqueConstraint(err) {
			Error(w, http.StatusBadRequest, "role already exists")
			return
		}
		slog.Error("Failed to create role", "nom", req.Nom, "error", err)
		Error(w, http.StatusInternalServerError, "failed to create role")
		return
	}
	JSON(w, http.StatusCreated, role)
}

type assignRoleRequest struct {
	RoleID int64 `json:"roleId"`
}

// AssignRole attaches a role to a user. Manager only. The new role shows
// up in the user's tokens only after their next login.
// POST /api/users/{id}/roles
func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req assignRoleRequest
	if err := decodeBody(r, &req); err != nil || req.RoleID <= 0 {
		Error(w, http.StatusBadRequest, "roleId is required")
		return
	}

	user, err := h.repo.GetUserByID(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to look up user", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		Error(w, http.StatusNotFound, "user not found")
		return
	}

	if err := h.repo.AssignRole(r.Context(), userID, req.RoleID); err != nil {
		slog.Error("Failed to assign role", "user_id", userID, "role_id", req.RoleID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to assign role")
		return
	}

	user, err = h.repo.GetUserByID(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to reload user", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	JSON(w, http.StatusOK, user)
}
