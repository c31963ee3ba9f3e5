package api

import (
	"github.com/fieldops/fieldops/internal/auth"
	"github.com/fieldops/fieldops/internal/domain"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts all API routes. Everything except login sits
// behind the session middleware; manager-only routes are additionally
// gated by role.
func (h *Handler) RegisterRoutes(r chi.Router, guard *auth.Guard, ws *WSHandler) {
	r.Post("/api/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(guard))

		r.Post("/api/logout", h.Logout)
		r.Get("/api/me", h.Me)

		r.Get("/api/messages", h.ListMessages)
		r.Post("/api/messages", h.SendMessage)
		r.Get("/api/messages/unread", h.ListUnread)
		r.Patch("/api/messages/{id}", h.MarkRead)

		r.Get("/api/conversations", h.ListConversations)
		r.Get("/api/conversations/{id}/messages", h.ConversationMessages)

		r.Get("/api/users", h.ListUsers)
		r.Get("/api/roles", h.ListRoles)

		r.Get("/api/missions", h.ListMissions)
		r.Patch("/api/missions/{id}/status", h.UpdateMissionStatus)

		r.Get("/api/equipment", h.ListEquipment)

		r.Get("/ws/messages", ws.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(domain.RoleManager))

			r.Post("/api/users", h.CreateUser)
			r.Post("/api/roles", h.CreateRole)
			r.Post("/api/users/{id}/roles", h.AssignRole)
			r.Post("/api/missions", h.CreateMission)
			r.Post("/api/equipment", h.CreateEquipment)
			r.Patch("/api/equipment/{id}/stock", h.UpdateEquipmentStock)
		})
	})
}
