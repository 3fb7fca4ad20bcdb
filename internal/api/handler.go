// Package api provides HTTP handlers for the cardiac companion API.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cardiacare/server/internal/domain"
	"github.com/cardiacare/server/internal/orchestration"
	"github.com/cardiacare/server/internal/store"
)

// Orchestrator is the slice of the routing core the handlers need.
type Orchestrator interface {
	Route(ctx context.Context, message string, pc *domain.PatientContext, conversationID string) orchestration.AgentResponse
	GetStatus() orchestration.Status
}

// Handler provides the HTTP surface over the store and the orchestrator.
type Handler struct {
	repo         store.Repository
	orchestrator Orchestrator
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, orchestrator Orchestrator) *Handler {
	return &Handler{
		repo:         repo,
		orchestrator: orchestrator,
	}
}

// RegisterRoutes mounts all API routes on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
	})

	r.Route("/api/chat", func(r chi.Router) {
		r.Post("/", h.Chat)
		r.Get("/", h.ChatHealth)
	})

	r.Route("/api/conversations", func(r chi.Router) {
		r.Get("/", h.ListConversations)
		r.Post("/", h.CreateConversation)
		r.Get("/{conversationID}", h.GetConversation)
		r.Put("/{conversationID}", h.UpdateConversation)
		r.Delete("/{conversationID}", h.DeleteConversation)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
