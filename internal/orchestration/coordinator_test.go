package orchestration

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cardiacare/server/internal/domain"
)

type stubThreads struct {
	id    string
	err   error
	calls []string
}

func (s *stubThreads) ThreadFor(_ context.Context, conversationID string) (string, error) {
	s.calls = append(s.calls, conversationID)
	if s.err != nil {
		return "", s.err
	}
	return s.id, nil
}

type invocation struct {
	threadID string
	agentID  string
	prompt   string
}

type scriptedInvoker struct {
	responses []AgentResponse
	calls     []invocation
}

func (s *scriptedInvoker) Invoke(_ context.Context, threadID, agentID, prompt string) AgentResponse {
	s.calls = append(s.calls, invocation{threadID: threadID, agentID: agentID, prompt: prompt})
	if len(s.responses) == 0 {
		return AgentResponse{Success: false, Error: "script exhausted"}
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp
}

func newTestCoordinator(t *testing.T, threads ThreadProvider, invoker AgentInvoker) *Coordinator {
	t.Helper()
	registry, err := NewRegistry(registryConfig())
	require.NoError(t, err)
	c, err := NewCoordinator(NewClassifier(), registry, threads, invoker, 0.05, 50)
	require.NoError(t, err)
	return c
}

func adequate(text string) AgentResponse {
	if len(text) <= 50 {
		text += strings.Repeat(" More detail follows.", 3)
	}
	return AgentResponse{Success: true, Message: text}
}

func TestRoutePrimarySpecialistAnswers(t *testing.T) {
	threads := &stubThreads{id: "thread_1"}
	invoker := &scriptedInvoker{responses: []AgentResponse{
		adequate("Light walking is safe after your procedure."),
	}}
	c := newTestCoordinator(t, threads, invoker)

	resp := c.Route(context.Background(), "What exercise can I do?", nil, "conv_1")

	require.True(t, resp.Success)
	require.Equal(t, "cardiac_exercise_agent", resp.AgentUsed)
	require.Len(t, invoker.calls, 1)
	require.Equal(t, "asst_exercise", invoker.calls[0].agentID)
	require.Equal(t, "thread_1", invoker.calls[0].threadID)
	require.Equal(t, []string{"conv_1"}, threads.calls)
}

func TestRoutePrimaryFailureCascades(t *testing.T) {
	threads := &stubThreads{id: "thread_1"}
	invoker := &scriptedInvoker{responses: []AgentResponse{
		{Success: false, Error: "run ended with status failed"},
		adequate("A nurse can help with that."),
	}}
	c := newTestCoordinator(t, threads, invoker)

	resp := c.Route(context.Background(), "What exercise can I do?", nil, "conv_1")

	require.True(t, resp.Success)
	require.Equal(t, "cardiac_nursing_agent", resp.AgentUsed)
	require.Len(t, invoker.calls, 2)
	require.Equal(t, "asst_exercise", invoker.calls[0].agentID)
	require.Equal(t, "asst_nursing", invoker.calls[1].agentID)
}

func TestRouteGeneralGoesStraightToCascade(t *testing.T) {
	threads := &stubThreads{id: "thread_1"}
	invoker := &scriptedInvoker{responses: []AgentResponse{
		adequate("General cardiac guidance from nursing."),
	}}
	c := newTestCoordinator(t, threads, invoker)

	resp := c.Route(context.Background(), "hello there", nil, "")

	require.True(t, resp.Success)
	require.Equal(t, "cardiac_nursing_agent", resp.AgentUsed)
	require.Len(t, invoker.calls, 1)
	require.Equal(t, "asst_nursing", invoker.calls[0].agentID)
}

func TestRouteExhaustionReturnsProtocolMessage(t *testing.T) {
	threads := &stubThreads{id: "thread_1"}
	invoker := &scriptedInvoker{responses: []AgentResponse{
		{Success: true, Message: "too short"},
		{Success: false, Error: "timeout"},
		{Success: true, Message: "also short"},
		{Success: true, Message: "short again"},
	}}
	c := newTestCoordinator(t, threads, invoker)

	resp := c.Route(context.Background(), "hello there", nil, "conv_1")

	require.True(t, resp.Success)
	require.Equal(t, protocolFailureMessage, resp.Message)
	require.Empty(t, resp.AgentUsed)
	require.Equal(t, []string{
		"asst_nursing", "asst_exercise", "asst_diet", "asst_medication",
	}, agentIDs(invoker.calls))
}

func TestRouteAdequacyIsStrictlyGreater(t *testing.T) {
	threads := &stubThreads{id: "thread_1"}
	boundary := strings.Repeat("a", 50)
	invoker := &scriptedInvoker{responses: []AgentResponse{
		{Success: true, Message: boundary},
		{Success: true, Message: boundary + "b"},
	}}
	c := newTestCoordinator(t, threads, invoker)

	resp := c.Route(context.Background(), "hello there", nil, "conv_1")

	require.True(t, resp.Success)
	require.Equal(t, boundary+"b", resp.Message)
	require.Equal(t, "cardiac_exercise_agent", resp.AgentUsed)
	require.Len(t, invoker.calls, 2)
}

func TestRouteThreadFailureShortCircuits(t *testing.T) {
	threads := &stubThreads{err: errors.New("503 service unavailable")}
	invoker := &scriptedInvoker{}
	c := newTestCoordinator(t, threads, invoker)

	resp := c.Route(context.Background(), "What exercise can I do?", nil, "conv_1")

	require.False(t, resp.Success)
	require.Equal(t, apologyUnknown, resp.Message)
	require.Contains(t, resp.Error, "503")
	require.Empty(t, invoker.calls)
}

func TestRoutePromptCarriesPatientContext(t *testing.T) {
	threads := &stubThreads{id: "thread_1"}
	invoker := &scriptedInvoker{responses: []AgentResponse{
		adequate("Beta blockers are usually taken once daily."),
	}}
	c := newTestCoordinator(t, threads, invoker)

	pc := &domain.PatientContext{
		PatientID:      "PT123",
		Name:           "Jordan Lee",
		MedicalHistory: []string{"hypertension", "stent placement"},
	}
	resp := c.Route(context.Background(), "When should I take my medication?", pc, "conv_1")

	require.True(t, resp.Success)
	require.Len(t, invoker.calls, 1)
	prompt := invoker.calls[0].prompt
	require.Contains(t, prompt, "Patient: Jordan Lee")
	require.Contains(t, prompt, "Medical History: hypertension, stent placement")
	require.Contains(t, prompt, "Question: When should I take my medication?")
}

func TestRouteSharesThreadAcrossTurns(t *testing.T) {
	creator := &stubCreator{}
	threads := NewThreadManager(creator, 30*time.Minute)
	invoker := &scriptedInvoker{responses: []AgentResponse{
		adequate("Start with short walks."),
		adequate("Increase the distance gradually."),
	}}
	c := newTestCoordinator(t, threads, invoker)

	first := c.Route(context.Background(), "What exercise can I do?", nil, "conv_1")
	second := c.Route(context.Background(), "Can I walk further next week?", nil, "conv_1")

	require.True(t, first.Success)
	require.True(t, second.Success)
	require.Len(t, invoker.calls, 2)
	require.Equal(t, invoker.calls[0].threadID, invoker.calls[1].threadID)
	require.EqualValues(t, 1, creator.calls.Load())
}

func TestNewCoordinatorRequiresCollaborators(t *testing.T) {
	registry, err := NewRegistry(registryConfig())
	require.NoError(t, err)
	threads := &stubThreads{id: "thread_1"}
	invoker := &scriptedInvoker{}

	_, err = NewCoordinator(nil, registry, threads, invoker, 0.05, 50)
	require.Error(t, err)
	_, err = NewCoordinator(NewClassifier(), nil, threads, invoker, 0.05, 50)
	require.Error(t, err)
	_, err = NewCoordinator(NewClassifier(), registry, nil, invoker, 0.05, 50)
	require.Error(t, err)
	_, err = NewCoordinator(NewClassifier(), registry, threads, nil, 0.05, 50)
	require.Error(t, err)
}

func TestGetStatusIsStatic(t *testing.T) {
	c := newTestCoordinator(t, &stubThreads{id: "thread_1"}, &scriptedInvoker{})

	status := c.GetStatus()

	require.Equal(t, "active", status.Status)
	require.NotEmpty(t, status.Message)
}

func agentIDs(calls []invocation) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.agentID
	}
	return out
}
