package domain

import (
	"time"
)

// Mission statuses. There is no enforced state machine; any known status
// can be set at any time.
const (
	MissionEnAttente = "en_attente"
	MissionEnCours   = "en_cours"
	MissionTerminee  = "terminee"
)

// Mission is a unit of field work assigned to a technician.
type Mission struct {
	ID          int64     `json:"id"`
	Titre       string    `json:"titre"`
	Description string    `json:"description,omitempty"`
	Statut      string    `json:"statut"`
	AssigneeID  int64     `json:"assigneId"`
	CreatedAt   time.Time `json:"date_creation"`
}

// IsValidMissionStatus reports whether s is one of the known statuses.
func IsValidMissionStatus(s string) bool {
	switch s {
	case MissionEnAttente, MissionEnCours, MissionTerminee:
		return true
	}
	return false
}

// Equipment is an inventory item tracked by reference and quantity.
type Equipment struct {
	ID        int64     `json:"id"`
	Nom       string    `json:"nom"`
	Reference string    `json:"reference"`
	Quantite  int64     `json:"quantite"`
	CreatedAt time.Time `json:"date_creation"`
}
