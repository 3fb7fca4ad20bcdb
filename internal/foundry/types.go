package foundry

import "encoding/json"

// Run statuses reported by the agent platform.
const (
	RunQueued     = "queued"
	RunInProgress = "in_progress"
	RunCompleted  = "completed"
	RunFailed     = "failed"
	RunCancelled  = "cancelled"
	RunExpired    = "expired"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Thread is a remote conversation context to which messages are appended
// and against which runs execute.
type Thread struct {
	ID string `json:"id"`
}

// Run is one asynchronous execution of an agent against a thread.
type Run struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Status    string    `json:"status"`
	LastError *RunError `json:"last_error,omitempty"`
}

// RunError carries the platform's failure detail for a terminal run.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Terminal reports whether the run has left the queued/in_progress states.
func (r *Run) Terminal() bool {
	return r.Status != RunQueued && r.Status != RunInProgress
}

// ContentKind tags a narrowed message content block.
type ContentKind string

const (
	// ContentText is a plain text block.
	ContentText ContentKind = "text"
	// ContentOther is any block the service does not consume (images,
	// file references, future block types).
	ContentOther ContentKind = "other"
)

// ContentBlock is the narrowed variant of the platform's content union.
// Consumers only ever act on the text case.
type ContentBlock struct {
	Kind ContentKind
	Text string
}

// Message is a single thread message with its narrowed content blocks.
type Message struct {
	ID      string
	Role    string
	Content []ContentBlock
}

// FirstText returns the message's first text block, if any.
func (m *Message) FirstText() (string, bool) {
	for _, block := range m.Content {
		if block.Kind == ContentText {
			return block.Text, true
		}
	}
	return "", false
}

// rawMessage mirrors the wire shape of a thread message.
type rawMessage struct {
	ID      string       `json:"id"`
	Role    string       `json:"role"`
	Content []rawContent `json:"content"`
}

// rawContent mirrors the wire shape of one content union member. Only the
// text member is decoded; everything else narrows to ContentOther.
type rawContent struct {
	Type string `json:"type"`
	Text *struct {
		Value string `json:"value"`
	} `json:"text,omitempty"`
}

// narrow converts a wire message into the tagged-variant form. This is the
// single place the content union is interpreted.
func (m rawMessage) narrow() Message {
	out := Message{ID: m.ID, Role: m.Role, Content: make([]ContentBlock, 0, len(m.Content))}
	for _, c := range m.Content {
		if c.Type == "text" && c.Text != nil {
			out.Content = append(out.Content, ContentBlock{Kind: ContentText, Text: c.Text.Value})
			continue
		}
		out.Content = append(out.Content, ContentBlock{Kind: ContentOther})
	}
	return out
}

// messageList mirrors the wire shape of the message listing, newest first.
type messageList struct {
	Data []rawMessage `json:"data"`
}

type createMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type createRunRequest struct {
	AssistantID string `json:"assistant_id"`
}

// apiError is the platform's error envelope.
type apiError struct {
	Error struct {
		Code    string          `json:"code"`
		Message json.RawMessage `json:"message"`
	} `json:"error"`
}
