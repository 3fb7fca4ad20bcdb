// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/cardiacare/server/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicate is returned when a create collides with an existing record.
var ErrDuplicate = errors.New("store: already exists")

// Repository defines the interface for persisting patients and their
// conversation documents.
type Repository interface {
	// CreatePatient inserts a new patient record.
	CreatePatient(ctx context.Context, patient *domain.Patient) error

	// GetPatient retrieves a patient by ID. Returns ErrNotFound when absent.
	GetPatient(ctx context.Context, patientID string) (*domain.Patient, error)

	// GetPatientByEmail retrieves a patient by email address.
	GetPatientByEmail(ctx context.Context, email string) (*domain.Patient, error)

	// CreateConversation inserts a new conversation document.
	CreateConversation(ctx context.Context, conv *domain.Conversation) error

	// GetConversation retrieves one conversation document with all its
	// exchanges.
	GetConversation(ctx context.Context, patientID, conversationID string) (*domain.Conversation, error)

	// ListConversations returns the patient's conversations ordered by most
	// recent activity.
	ListConversations(ctx context.Context, patientID string) ([]*domain.Conversation, error)

	// AppendExchange atomically appends one exchange to a conversation,
	// assigning the next exchange number.
	AppendExchange(ctx context.Context, patientID, conversationID string, user domain.UserMessage, reply domain.AgentReply) (*domain.Exchange, error)

	// UpdateConversation applies the update's non-nil fields and returns
	// the updated document. Returns ErrNotFound when absent.
	UpdateConversation(ctx context.Context, patientID, conversationID string, update domain.ConversationUpdate) (*domain.Conversation, error)

	// DeleteConversation removes a conversation document.
	DeleteConversation(ctx context.Context, patientID, conversationID string) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
