package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/fieldops/fieldops/internal/domain"
)

func TestCreateUserRequiresManager(t *testing.T) {
	env := newTestEnv(t)
	_, techToken := env.createUser(t, "tech", "pw", "technicien")
	_, mgrToken := env.createUser(t, "boss", "pw", "manager")

	body := map[string]interface{}{
		"identifiant":  "newbie",
		"nom":          "Nouveau",
		"prenom":       "Membre",
		"email":        "newbie@example.com",
		"mot_de_passe": "pw12345",
	}

	w := env.do(t, http.MethodPost, "/api/users", techToken, body)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for technicien, got %d", w.Code)
	}

	w2 := env.do(t, http.MethodPost, "/api/users", mgrToken, body)
	if w2.Code != http.StatusCreated {
		t.Fatalf("Expected 201 for manager, got %d: %s", w2.Code, w2.Body.String())
	}

	var created domain.User
	if err := json.NewDecoder(w2.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode user: %v", err)
	}
	if created.ID == 0 || created.Identifiant != "newbie" {
		t.Errorf("Unexpected created user: %+v", created)
	}

	// Duplicate identifiant is a client error, not a 500.
	w3 := env.do(t, http.MethodPost, "/api/users", mgrToken, body)
	if w3.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for duplicate, got %d", w3.Code)
	}
}

func TestListUsersHidesPasswordHash(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "alice", "pw", "technicien")

	w := env.do(t, http.MethodGet, "/api/users", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var raw []map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("Failed to decode users: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("Expected at least one user")
	}
	for _, u := range raw {
		if _, leaked := u["mot_de_passe"]; leaked {
			t.Error("Password hash leaked in user listing")
		}
	}
}

func TestRolesAndAssignment(t *testing.T) {
	env := newTestEnv(t)
	_, mgrToken := env.createUser(t, "boss", "pw", "manager")
	target, _ := env.createUser(t, "tech", "pw", "technicien")

	w := env.do(t, http.MethodPost, "/api/roles", mgrToken, map[string]string{"nom": "magasinier"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var role domain.Role
	if err := json.NewDecoder(w.Body).Decode(&role); err != nil {
		t.Fatalf("Failed to decode role: %v", err)
	}

	w2 := env.do(t, http.MethodPost, fmt.Sprintf("/api/users/%d/roles", target.ID), mgrToken,
		map[string]interface{}{"roleId": role.ID})
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}

	var updated domain.User
	if err := json.NewDecoder(w2.Body).Decode(&updated); err != nil {
		t.Fatalf("Failed to decode user: %v", err)
	}
	if !updated.HasRole("magasinier") {
		t.Errorf("Expected magasinier role, got %v", updated.Roles)
	}
}

func TestMissionVisibility(t *testing.T) {
	env := newTestEnv(t)
	_, mgrToken := env.createUser(t, "boss", "pw", "manager")
	tech1, tech1Token := env.createUser(t, "tech1", "pw", "technicien")
	tech2, tech2Token := env.createUser(t, "tech2", "pw", "technicien")

	for _, assignee := range []int64{tech1.ID, tech2.ID} {
		w := env.do(t, http.MethodPost, "/api/missions", mgrToken, map[string]interface{}{
			"titre":     fmt.Sprintf("Mission for %d", assignee),
			"assigneId": assignee,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("Create mission failed: %d: %s", w.Code, w.Body.String())
		}
	}

	// Manager sees everything.
	w := env.do(t, http.MethodGet, "/api/missions", mgrToken, nil)
	var all []domain.Mission
	if err := json.NewDecoder(w.Body).Decode(&all); err != nil {
		t.Fatalf("Failed to decode missions: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Manager should see 2 missions, got %d", len(all))
	}

	// Each technician sees only their own.
	for _, tt := range []struct {
		token string
		id    int64
	}{{tech1Token, tech1.ID}, {tech2Token, tech2.ID}} {
		w := env.do(t, http.MethodGet, "/api/missions", tt.token, nil)
		var mine []domain.Mission
		if err := json.NewDecoder(w.Body).Decode(&mine); err != nil {
			t.Fatalf("Failed to decode missions: %v", err)
		}
		if len(mine) != 1 || mine[0].AssigneeID != tt.id {
			t.Errorf("Technician %d should see exactly their mission, got %+v", tt.id, mine)
		}
	}

	// Technicians cannot create missions.
	w2 := env.do(t, http.MethodPost, "/api/missions", tech1Token, map[string]interface{}{
		"titre":     "rogue",
		"assigneId": tech1.ID,
	})
	if w2.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", w2.Code)
	}
}

func TestMissionStatusUpdate(t *testing.T) {
	env := newTestEnv(t)
	_, mgrToken := env.createUser(t, "boss", "pw", "manager")
	tech, techToken := env.createUser(t, "tech", "pw", "technicien")
	_, otherToken := env.createUser(t, "other", "pw", "technicien")

	w := env.do(t, http.MethodPost, "/api/missions", mgrToken, map[string]interface{}{
		"titre":     "Inspection",
		"assigneId": tech.ID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Create mission failed: %d", w.Code)
	}
	var mission domain.Mission
	if err := json.NewDecoder(w.Body).Decode(&mission); err != nil {
		t.Fatalf("Failed to decode mission: %v", err)
	}
	if mission.Statut != domain.MissionEnAttente {
		t.Errorf("New mission should be en_attente, got %s", mission.Statut)
	}

	path := fmt.Sprintf("/api/missions/%d/status", mission.ID)

	// Assignee can advance it.
	w2 := env.do(t, http.MethodPatch, path, techToken, map[string]string{"statut": "en_cours"})
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}

	// Another technician cannot.
	w3 := env.do(t, http.MethodPatch, path, otherToken, map[string]string{"statut": "terminee"})
	if w3.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", w3.Code)
	}

	// Unknown status is a client error.
	w4 := env.do(t, http.MethodPatch, path, techToken, map[string]string{"statut": "paused"})
	if w4.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w4.Code)
	}
}

func TestEquipmentStock(t *testing.T) {
	env := newTestEnv(t)
	_, mgrToken := env.createUser(t, "boss", "pw", "manager")
	_, techToken := env.createUser(t, "tech", "pw", "technicien")

	w := env.do(t, http.MethodPost, "/api/equipment", mgrToken, map[string]interface{}{
		"nom":       "Multimètre",
		"reference": "MM-100",
		"quantite":  5,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var eq domain.Equipment
	if err := json.NewDecoder(w.Body).Decode(&eq); err != nil {
		t.Fatalf("Failed to decode equipment: %v", err)
	}

	// Anyone authenticated can read the inventory.
	w2 := env.do(t, http.MethodGet, "/api/equipment", techToken, nil)
	if w2.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w2.Code)
	}

	// Only managers adjust stock.
	path := fmt.Sprintf("/api/equipment/%d/stock", eq.ID)
	w3 := env.do(t, http.MethodPatch, path, techToken, map[string]interface{}{"quantite": 2})
	if w3.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", w3.Code)
	}

	w4 := env.do(t, http.MethodPatch, path, mgrToken, map[string]interface{}{"quantite": 2})
	if w4.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w4.Code, w4.Body.String())
	}
	var updated domain.Equipment
	if err := json.NewDecoder(w4.Body).Decode(&updated); err != nil {
		t.Fatalf("Failed to decode equipment: %v", err)
	}
	if updated.Quantite != 2 {
		t.Errorf("Expected quantite 2, got %d", updated.Quantite)
	}

	// Negative stock is rejected.
	w5 := env.do(t, http.MethodPatch, path, mgrToken, map[string]interface{}{"quantite": -1})
	if w5.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w5.Code)
	}
}
