package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cardiacare/server/internal/domain"
	"github.com/cardiacare/server/internal/store"
)

type createConversationRequest struct {
	PatientID string `json:"patient_id"`
	Title     string `json:"title,omitempty"`
}

// ListConversations returns the patient's conversations, most recent first.
// Exchange bodies are omitted from the listing.
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("patient_id")
	if patientID == "" {
		Error(w, http.StatusBadRequest, "patient_id is required")
		return
	}

	conversations, err := h.repo.ListConversations(r.Context(), patientID)
	if err != nil {
		slog.Error("listing conversations failed", "patient_id", patientID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	summaries := make([]*domain.Conversation, 0, len(conversations))
	for _, conv := range conversations {
		c := *conv
		c.Exchanges = nil
		summaries = append(summaries, &c)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"conversations": summaries,
		"count":         len(summaries),
	})
}

// CreateConversation starts an empty conversation for a patient.
func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PatientID == "" {
		Error(w, http.StatusBadRequest, "patient_id is required")
		return
	}

	title := req.Title
	if title == "" {
		title = "New Conversation"
	}

	now := time.Now()
	conv := &domain.Conversation{
		ConversationID:  uuid.NewString(),
		PatientID:       req.PatientID,
		Title:           title,
		StartTime:       now,
		LastMessageTime: now,
		Status:          domain.ConversationActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.repo.CreateConversation(r.Context(), conv); err != nil {
		slog.Error("creating conversation failed", "patient_id", req.PatientID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to create conversation")
		return
	}

	JSON(w, http.StatusCreated, map[string]interface{}{
		"success":      true,
		"conversation": conv,
	})
}

// GetConversation returns one conversation with its exchanges. The limit
// and offset query parameters page through the exchange list.
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("patient_id")
	if patientID == "" {
		Error(w, http.StatusBadRequest, "patient_id is required")
		return
	}
	conversationID := chi.URLParam(r, "conversationID")

	conv, err := h.repo.GetConversation(r.Context(), patientID, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "conversation not found")
			return
		}
		slog.Error("loading conversation failed", "conversation_id", conversationID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	total := len(conv.Exchanges)
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", total)
	conv.Exchanges = pageExchanges(conv.Exchanges, offset, limit)

	JSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"conversation":    conv,
		"total_exchanges": total,
	})
}

type updateConversationRequest struct {
	PatientID string  `json:"patient_id"`
	Title     *string `json:"title,omitempty"`
	Status    *string `json:"status,omitempty"`
}

// UpdateConversation renames or archives a conversation. Only the title and
// status fields are caller-mutable.
func (h *Handler) UpdateConversation(w http.ResponseWriter, r *http.Request) {
	var req updateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PatientID == "" {
		Error(w, http.StatusBadRequest, "patient_id is required")
		return
	}
	if req.Title == nil && req.Status == nil {
		Error(w, http.StatusBadRequest, "nothing to update: provide title or status")
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		Error(w, http.StatusBadRequest, "title cannot be empty")
		return
	}
	if req.Status != nil &&
		*req.Status != domain.ConversationActive &&
		*req.Status != domain.ConversationArchived {
		Error(w, http.StatusBadRequest, "status must be active or archived")
		return
	}
	conversationID := chi.URLParam(r, "conversationID")

	conv, err := h.repo.UpdateConversation(r.Context(), req.PatientID, conversationID, domain.ConversationUpdate{
		Title:  req.Title,
		Status: req.Status,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "conversation not found")
			return
		}
		slog.Error("updating conversation failed", "conversation_id", conversationID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to update conversation")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"conversation": conv,
	})
}

// DeleteConversation removes a conversation document.
func (h *Handler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("patient_id")
	if patientID == "" {
		Error(w, http.StatusBadRequest, "patient_id is required")
		return
	}
	conversationID := chi.URLParam(r, "conversationID")

	if err := h.repo.DeleteConversation(r.Context(), patientID, conversationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "conversation not found")
			return
		}
		slog.Error("deleting conversation failed", "conversation_id", conversationID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to delete conversation")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Conversation deleted",
	})
}

func pageExchanges(exchanges []domain.Exchange, offset, limit int) []domain.Exchange {
	if offset < 0 {
		offset = 0
	}
	if offset > len(exchanges) {
		offset = len(exchanges)
	}
	end := len(exchanges)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	return exchanges[offset:end]
}

func queryInt(r *http.Request, key string, fallback int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
