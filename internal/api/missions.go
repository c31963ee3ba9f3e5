package api

import (
	"log/slog"
	"net/http"

	"github.com/fieldops/fieldops/internal/auth"
	"github.com/fieldops/fieldops/internal/domain"
)

// ListMissions returns missions visible to the caller: managers see all,
// technicians see their own assignments.
// GET /api/missions
func (h *Handler) ListMissions(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())

	var missions []*domain.Mission
	var err error
	if auth.Authorize(claims, []string{domain.RoleManager}) {
		missions, err = h.repo.ListMissions(r.Context())
	} else {
		missions, err = h.repo.ListMissionsByAssignee(r.Context(), claims.UserID)
	}
	if err != nil {
		slog.Error("Failed to list missions", "user_id", claims.UserID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list missions")
		return
	}
	if missions == nil {
		missions = []*domain.Mission{}
	}
	JSON(w, http.StatusOK, missions)
}

type createMissionRequest struct {
	Titre       string `json:"titre"`
	Description string `json:"description"`
	AssigneeID  int64  `json:"assigneId"`
}

// CreateMission records a new mission. Manager only.
// POST /api/missions
func (h *Handler) CreateMission(w http.ResponseWriter, r *http.Request) {
	var req createMissionRequest
	if err := decodeBody(r, &req); err != nil || req.Titre == "" || req.AssigneeID <= 0 {
		Error(w, http.StatusBadRequest, "titre and assigneId are required")
		return
	}

	assignee, err := h.repo.GetUserByID(r.Context(), req.AssigneeID)
	if err != nil {
		slog.Error("Failed to look up assignee", "assignee_id", req.AssigneeID, "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if assignee == nil {
		Error(w, http.StatusBadRequest, "unknown assignee")
		return
	}

	mission := &domain.Mission{
		Titre:       req.Titre,
		Description: req.Description,
		Statut:      domain.MissionEnAttente,
		AssigneeID:  req.AssigneeID,
	}
	if err := h.repo.CreateMission(r.Context(), mission); err != nil {
		slog.Error("Failed to create mission", "titre", req.Titre, "error", err)
		Error(w, http.StatusInternalServerError, "failed to create mission")
		return
	}

	slog.Info("Mission created", "mission_id", mission.ID, "assignee_id", mission.AssigneeID)
	JSON(w, http.StatusCreated, mission)
}

type updateMissionStatusRequest struct {
	Statut string `json:"statut"`
}

// UpdateMissionStatus sets a mission's status. The assignee or a manager
// may update it.
// PATCH /api/missions/{id}/status
func (h *Handler) UpdateMissionStatus(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid mission id")
		return
	}

	var req updateMissionStatusRequest
	if err := decodeBody(r, &req); err != nil || !domain.IsValidMissionStatus(req.Statut) {
		Error(w, http.StatusBadRequest, "statut must be en_attente, en_cours or terminee")
		return
	}

	mission, err := h.repo.GetMission(r.Context(), id)
	if err != nil {
		slog.Error("Failed to load mission", "mission_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if mission == nil {
		Error(w, http.StatusNotFound, "mission not found")
		return
	}
	if mission.AssigneeID != claims.UserID && !auth.Authorize(claims, []string{domain.RoleManager}) {
		Error(w, http.StatusForbidden, "not assigned to this mission")
		return
	}

	updated, err := h.repo.UpdateMissionStatus(r.Context(), id, req.Statut)
	if err != nil {
		slog.Error("Failed to update mission status", "mission_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to update mission")
		return
	}
	JSON(w, http.StatusOK, updated)
}
