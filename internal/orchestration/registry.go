package orchestration

import (
	"fmt"
	"strings"
)

// RegistryConfig carries the platform agent IDs for each specialist.
type RegistryConfig struct {
	NursingAgentID    string
	ExerciseAgentID   string
	DietAgentID       string
	MedicationAgentID string
}

// Registry holds the fixed set of specialist agents and the mapping from
// routing category to specialist. Registration order doubles as the
// cascade order.
type Registry struct {
	agents     []SpecializedAgent
	byCategory map[Category]SpecializedAgent
}

// NewRegistry builds the registry from configured agent IDs. Every
// specialist must have an ID; a deployment missing one would silently
// swallow queries for that category, so construction fails instead.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	entries := []struct {
		category Category
		id       string
		agent    SpecializedAgent
	}{
		{CategoryNursing, cfg.NursingAgentID, SpecializedAgent{
			Name:        "cardiac_nursing_agent",
			Description: "Nursing care, symptoms and general cardiac health questions",
		}},
		{CategoryExercise, cfg.ExerciseAgentID, SpecializedAgent{
			Name:        "cardiac_exercise_agent",
			Description: "Physical activity and cardiac rehabilitation guidance",
		}},
		{CategoryDiet, cfg.DietAgentID, SpecializedAgent{
			Name:        "cardiac_diet_agent",
			Description: "Heart-healthy nutrition and dietary guidance",
		}},
		{CategoryMedication, cfg.MedicationAgentID, SpecializedAgent{
			Name:        "cardiac_medication_agent",
			Description: "Cardiac medication usage and interaction guidance",
		}},
	}

	r := &Registry{byCategory: make(map[Category]SpecializedAgent, len(entries))}
	var missing []string
	for _, e := range entries {
		if strings.TrimSpace(e.id) == "" {
			missing = append(missing, e.agent.Name)
			continue
		}
		agent := e.agent
		agent.ID = e.id
		r.agents = append(r.agents, agent)
		r.byCategory[e.category] = agent
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing agent IDs for: %s", strings.Join(missing, ", "))
	}
	return r, nil
}

// SpecialistFor returns the agent registered for the category. There is no
// specialist for the general category.
func (r *Registry) SpecialistFor(category Category) (SpecializedAgent, bool) {
	agent, ok := r.byCategory[category]
	return agent, ok
}

// All returns the specialists in registration order.
func (r *Registry) All() []SpecializedAgent {
	out := make([]SpecializedAgent, len(r.agents))
	copy(out, r.agents)
	return out
}
