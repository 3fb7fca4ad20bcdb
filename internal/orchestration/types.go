// Package orchestration implements the conversation-routing core: query
// classification, specialist selection, thread continuity and the fallback
// cascade across the remote cardiac agents.
package orchestration

// Category is a routing category derived from message text.
type Category string

// Routing categories. General means no specialist matched.
const (
	CategoryExercise   Category = "exercise"
	CategoryDiet       Category = "diet"
	CategoryMedication Category = "medication"
	CategoryNursing    Category = "nursing"
	CategoryGeneral    Category = "general"
)

// ClassificationResult is the outcome of classifying one message. It is
// derived purely from the message text and carries no state.
type ClassificationResult struct {
	Category        Category
	Confidence      float64
	MatchedKeywords []string
}

// SpecializedAgent describes one remote domain-scoped agent.
type SpecializedAgent struct {
	ID          string
	Name        string
	Description string
}

// AgentResponse is the terminal output of both the invoker and the
// coordinator. It is immutable once produced.
type AgentResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	AgentUsed string `json:"agent_used,omitempty"`
}

// Status is the static health descriptor exposed to callers. Producing it
// involves no remote call.
type Status struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
