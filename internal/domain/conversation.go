package domain

import (
	"strings"
	"time"
)

// Conversation statuses.
const (
	ConversationActive   = "active"
	ConversationArchived = "archived"
)

// Exchange pairs one user message with one agent response inside a
// conversation document. Exchange numbers start at 1 and are assigned at
// append time; their order is the single source of truth for replay.
type Exchange struct {
	ExchangeID     string    `json:"exchange_id"`
	ExchangeNumber int       `json:"exchange_number"`
	Timestamp      time.Time `json:"timestamp"`

	UserMessage UserMessage `json:"user_message"`
	AgentReply  AgentReply  `json:"agent_reply"`
}

// UserMessage is the patient's side of an exchange.
type UserMessage struct {
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Length    int       `json:"length"`
}

// AgentReply is the assistant's side of an exchange, with timing metadata.
type AgentReply struct {
	Content          string    `json:"content"`
	Timestamp        time.Time `json:"timestamp"`
	Length           int       `json:"length"`
	ProcessingTimeMS int64     `json:"processing_time_ms"`
	AgentUsed        string    `json:"agent_used"`
	Success          bool      `json:"success"`
	Error            string    `json:"error,omitempty"`
}

// Conversation is a single document holding all exchanges for one chat.
// It is keyed by (PatientID, ConversationID) in the store.
type Conversation struct {
	ConversationID  string     `json:"conversation_id"`
	PatientID       string     `json:"patient_id"`
	Title           string     `json:"title"`
	StartTime       time.Time  `json:"start_time"`
	LastMessageTime time.Time  `json:"last_message_time"`
	ExchangeCount   int        `json:"exchange_count"`
	Status          string     `json:"status"`
	Exchanges       []Exchange `json:"exchanges"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationUpdate carries the caller-mutable conversation fields. Nil
// fields are left unchanged.
type ConversationUpdate struct {
	Title  *string
	Status *string
}

// greetingPrefixes are stripped when deriving a conversation title from the
// opening message.
var greetingPrefixes = []string{
	"hi", "hello", "hey", "good morning", "good afternoon", "good evening",
}

// TitleFromMessage derives a conversation title from the first message:
// greeting prefixes are dropped and the remainder is truncated at a word
// boundary to at most 50 characters.
func TitleFromMessage(message string) string {
	const maxLength = 50

	title := strings.TrimSpace(message)
	lower := strings.ToLower(title)
	for _, prefix := range greetingPrefixes {
		if strings.HasPrefix(lower, prefix) {
			title = strings.TrimLeft(title[len(prefix):], ", \t")
			break
		}
	}

	if runes := []rune(title); len(runes) > maxLength {
		title = strings.TrimSpace(string(runes[:maxLength]))
		if idx := strings.LastIndex(title, " "); idx > 20 {
			title = title[:idx]
		}
		title += "..."
	}

	if title == "" {
		return "New Conversation"
	}
	return title
}
