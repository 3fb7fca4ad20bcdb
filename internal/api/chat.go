package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cardiacare/server/internal/domain"
	"github.com/cardiacare/server/internal/store"
)

type chatRequest struct {
	Message        string                 `json:"message"`
	PatientContext *domain.PatientContext `json:"patient_context,omitempty"`
	ConversationID string                 `json:"conversation_id,omitempty"`
}

type chatResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	AgentUsed      string `json:"agent_used,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// Chat routes one patient message through the orchestrator and, when the
// request identifies a patient, records the exchange on the conversation.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}

	conversationID := req.ConversationID
	persist := req.PatientContext != nil && req.PatientContext.PatientID != ""
	if persist && conversationID == "" {
		conv, err := h.startConversation(r, req.PatientContext.PatientID, req.Message)
		if err != nil {
			slog.Error("creating conversation failed", "error", err)
			Error(w, http.StatusInternalServerError, "failed to create conversation")
			return
		}
		conversationID = conv.ConversationID
	}

	sentAt := time.Now()
	resp := h.orchestrator.Route(r.Context(), req.Message, req.PatientContext, conversationID)
	processing := time.Since(sentAt)

	if persist {
		user := domain.UserMessage{
			Content:   req.Message,
			Timestamp: sentAt,
			Length:    len(req.Message),
		}
		reply := domain.AgentReply{
			Content:          resp.Message,
			Timestamp:        time.Now(),
			Length:           len(resp.Message),
			ProcessingTimeMS: processing.Milliseconds(),
			AgentUsed:        resp.AgentUsed,
			Success:          resp.Success,
			Error:            resp.Error,
		}
		if _, err := h.repo.AppendExchange(r.Context(), req.PatientContext.PatientID, conversationID, user, reply); err != nil {
			// The patient already has the answer; losing the record is
			// logged, not surfaced.
			slog.Error("recording exchange failed",
				"patient_id", req.PatientContext.PatientID,
				"conversation_id", conversationID,
				"error", err)
		}
	}

	if !resp.Success {
		JSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to get response from cardiac agent",
			"details": resp.Error,
		})
		return
	}

	JSON(w, http.StatusOK, chatResponse{
		Success:        true,
		Message:        resp.Message,
		AgentUsed:      resp.AgentUsed,
		ConversationID: conversationID,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
}

// ChatHealth reports the orchestrator's health descriptor.
func (h *Handler) ChatHealth(w http.ResponseWriter, r *http.Request) {
	status := h.orchestrator.GetStatus()
	JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"agent":     status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// startConversation creates a conversation titled from the opening message.
func (h *Handler) startConversation(r *http.Request, patientID, message string) (*domain.Conversation, error) {
	now := time.Now()
	conv := &domain.Conversation{
		ConversationID:  uuid.NewString(),
		PatientID:       patientID,
		Title:           domain.TitleFromMessage(message),
		StartTime:       now,
		LastMessageTime: now,
		Status:          domain.ConversationActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.repo.CreateConversation(r.Context(), conv); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return h.repo.GetConversation(r.Context(), patientID, conv.ConversationID)
		}
		return nil, err
	}
	return conv, nil
}
