package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cardiacare/server/internal/foundry"
)

// PlatformClient is the slice of the agent platform the invoker needs.
// *foundry.Client satisfies it.
type PlatformClient interface {
	CreateMessage(ctx context.Context, threadID, role, content string) error
	CreateRun(ctx context.Context, threadID, agentID string) (foundry.Run, error)
	GetRun(ctx context.Context, threadID, runID string) (foundry.Run, error)
	ListMessages(ctx context.Context, threadID string) ([]foundry.Message, error)
}

// Invoker drives one agent invocation: post the prompt, start a run, poll
// until the run is terminal, then read back the assistant's reply. It never
// returns an error; every outcome is an AgentResponse.
type Invoker struct {
	client       PlatformClient
	pollInterval time.Duration
	maxAttempts  int
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewInvoker creates an invoker polling at the given interval for at most
// maxAttempts polls per run.
func NewInvoker(client PlatformClient, pollInterval time.Duration, maxAttempts int) *Invoker {
	return &Invoker{
		client:       client,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		sleep:        sleepContext,
	}
}

// Invoke runs the prompt against the agent on the given thread. Poll count
// is bounded; a run still pending after the last poll yields the timeout
// response rather than waiting forever.
func (inv *Invoker) Invoke(ctx context.Context, threadID, agentID, prompt string) AgentResponse {
	if err := inv.client.CreateMessage(ctx, threadID, foundry.RoleUser, prompt); err != nil {
		slog.Error("posting message failed", "thread_id", threadID, "error", err)
		return failureResponse(err)
	}

	run, err := inv.client.CreateRun(ctx, threadID, agentID)
	if err != nil {
		slog.Error("starting run failed", "thread_id", threadID, "agent_id", agentID, "error", err)
		return failureResponse(err)
	}

	for attempt := 0; !run.Terminal(); attempt++ {
		if attempt >= inv.maxAttempts {
			slog.Warn("run still pending after poll budget",
				"thread_id", threadID, "run_id", run.ID, "attempts", attempt)
			return AgentResponse{Success: false, Message: apologyTimeout, Error: "timeout"}
		}
		if err := inv.sleep(ctx, inv.pollInterval); err != nil {
			return failureResponse(err)
		}
		run, err = inv.client.GetRun(ctx, threadID, run.ID)
		if err != nil {
			slog.Error("polling run failed", "thread_id", threadID, "error", err)
			return failureResponse(err)
		}
	}

	if run.Status != foundry.RunCompleted {
		err := fmt.Errorf("run ended with status %s", run.Status)
		if run.LastError != nil {
			err = fmt.Errorf("run ended with status %s: %s: %s",
				run.Status, run.LastError.Code, run.LastError.Message)
		}
		slog.Error("run did not complete", "thread_id", threadID, "run_id", run.ID,
			"status", run.Status)
		return failureResponse(err)
	}

	messages, err := inv.client.ListMessages(ctx, threadID)
	if err != nil {
		slog.Error("reading reply failed", "thread_id", threadID, "error", err)
		return failureResponse(err)
	}

	// Newest first: the first assistant message with a text block is the
	// reply to this run.
	for i := range messages {
		if messages[i].Role != foundry.RoleAssistant {
			continue
		}
		if text, ok := messages[i].FirstText(); ok {
			return AgentResponse{Success: true, Message: text}
		}
	}

	return AgentResponse{
		Success: false,
		Message: apologyUnknown,
		Error:   "run completed without an assistant text reply",
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
