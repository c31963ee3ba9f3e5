package api

import (
	"log/slog"
	"net/http"

	"github.com/fieldops/fieldops/internal/domain"
	"github.com/fieldops/fieldops/internal/store"
)

// ListEquipment returns the equipment inventory.
// GET /api/equipment
func (h *Handler) ListEquipment(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListEquipment(r.Context())
	if err != nil {
		slog.Error("Failed to list equipment", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list equipment")
		return
	}
	if items == nil {
		items = []*domain.Equipment{}
	}
	JSON(w, http.StatusOK, items)
}

type createEquipmentRequest struct {
	Nom       string `json:"nom"`
	Reference string `json:"reference"`
	Quantite  int64  `json:"quantite"`
}

// CreateEquipment adds an inventory item. Manager only.
// POST /api/equipment
func (h *Handler) CreateEquipment(w http.ResponseWriter, r *http.Request) {
	var req createEquipmentRequest
	if err := decodeBody(r, &req); err != nil || req.Nom == "" || req.Reference == "" || req.Quantite < 0 {
		Error(w, http.StatusBadRequest, "nom, reference and a non-negative quantite are required")
		return
	}

	eq := &domain.Equipment{
		Nom:       req.Nom,
		Reference: req.Reference,
		Quantite:  req.Quantite,
	}
	if err := h.repo.CreateEquipment(r.Context(), eq); err != nil {
		if store.IsUniqueConstraint(err) {
			Error(w, http.StatusBadRequest, "reference already exists")
			return
		}
		slog.Error("Failed to create equipment", "reference", req.Reference, "error", err)
		Error(w, http.StatusInternalServerError, "failed to create equipment")
		return
	}
	JSON(w, http.StatusCreated, eq)
}

type updateStockRequest struct {
	Quantite *int64 `json:"quantite"`
}

// UpdateEquipmentStock sets an item's quantity. Manager only.
// PATCH /api/equipment/{id}/stock
func (h *Handler) UpdateEquipmentStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	var req updateStockRequest
	if err := decodeBody(r, &req); err != nil || req.Quantite == nil || *req.Quantite < 0 {
		Error(w, http.StatusBadRequest, "a non-negative quantite is required")
		return
	}

	eq, err := h.repo.UpdateEquipmentStock(r.Context(), id, *req.Quantite)
	if err != nil {
		slog.Error("Failed to update equipment stock", "equipment_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to update equipment")
		return
	}
	if eq == nil {
		Error(w, http.StatusNotFound, "equipment not found")
		return
	}
	JSON(w, http.StatusOK, eq)
}
