package orchestration

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cardiacare/server/internal/domain"
)

// ThreadProvider resolves the remote thread for a conversation.
type ThreadProvider interface {
	ThreadFor(ctx context.Context, conversationID string) (string, error)
}

// AgentInvoker executes one agent invocation end to end.
type AgentInvoker interface {
	Invoke(ctx context.Context, threadID, agentID, prompt string) AgentResponse
}

// routeState tracks where a routing attempt is in its lifecycle. Transitions
// only move forward; there are no cycles.
type routeState int

const (
	stateClassify routeState = iota
	stateTryPrimary
	stateCascade
	stateExhausted
)

// Coordinator routes each patient message: classify, try the matching
// specialist, then fall back through every specialist before giving up.
// All collaborators are injected; the coordinator owns no globals.
type Coordinator struct {
	classifier *Classifier
	registry   *Registry
	threads    ThreadProvider
	invoker    AgentInvoker

	confidenceThreshold float64
	adequacyThreshold   int
}

// NewCoordinator wires the routing core. All collaborators are required.
func NewCoordinator(
	classifier *Classifier,
	registry *Registry,
	threads ThreadProvider,
	invoker AgentInvoker,
	confidenceThreshold float64,
	adequacyThreshold int,
) (*Coordinator, error) {
	if classifier == nil {
		return nil, errors.New("orchestration: classifier must not be nil")
	}
	if registry == nil {
		return nil, errors.New("orchestration: registry must not be nil")
	}
	if threads == nil {
		return nil, errors.New("orchestration: thread provider must not be nil")
	}
	if invoker == nil {
		return nil, errors.New("orchestration: invoker must not be nil")
	}
	return &Coordinator{
		classifier:          classifier,
		registry:            registry,
		threads:             threads,
		invoker:             invoker,
		confidenceThreshold: confidenceThreshold,
		adequacyThreshold:   adequacyThreshold,
	}, nil
}

// Route answers one patient message. The primary specialist is tried first
// when classification is confident; any failure falls through to the full
// cascade in registration order. Cascade answers must exceed the adequacy
// threshold in length; exhaustion yields the protocol fallback message as a
// successful response, since the patient should see guidance rather than an
// error.
func (c *Coordinator) Route(ctx context.Context, message string, pc *domain.PatientContext, conversationID string) AgentResponse {
	prompt := BuildPrompt(message, pc)

	threadID, err := c.threads.ThreadFor(ctx, conversationID)
	if err != nil {
		slog.Error("resolving thread failed", "conversation_id", conversationID, "error", err)
		return failureResponse(err)
	}

	var (
		result  ClassificationResult
		primary SpecializedAgent
	)
	for state := stateClassify; ; {
		switch state {
		case stateClassify:
			result = c.classifier.Classify(message)
			slog.Info("query classified",
				"category", result.Category,
				"confidence", result.Confidence,
				"matched", result.MatchedKeywords)

			agent, ok := c.registry.SpecialistFor(result.Category)
			if ok && result.Confidence > c.confidenceThreshold {
				primary = agent
				state = stateTryPrimary
			} else {
				state = stateCascade
			}

		case stateTryPrimary:
			resp := c.invoker.Invoke(ctx, threadID, primary.ID, prompt)
			if resp.Success {
				resp.AgentUsed = primary.Name
				return resp
			}
			slog.Warn("primary specialist failed, cascading",
				"agent", primary.Name, "error", resp.Error)
			state = stateCascade

		case stateCascade:
			for _, agent := range c.registry.All() {
				resp := c.invoker.Invoke(ctx, threadID, agent.ID, prompt)
				if resp.Success && len(resp.Message) > c.adequacyThreshold {
					resp.AgentUsed = agent.Name
					return resp
				}
				slog.Debug("cascade answer rejected",
					"agent", agent.Name,
					"success", resp.Success,
					"length", len(resp.Message))
			}
			state = stateExhausted

		case stateExhausted:
			slog.Warn("all specialists exhausted", "category", result.Category)
			return AgentResponse{Success: true, Message: protocolFailureMessage}
		}
	}
}

// GetStatus reports the orchestrator's static health descriptor.
func (c *Coordinator) GetStatus() Status {
	return Status{
		Status:  "active",
		Message: "Cardiac care orchestration is running with specialist routing enabled",
	}
}
