package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cardiacare/server/internal/domain"
)

// SQLiteStore implements Repository using SQLite. Each conversation is one
// row holding its exchanges as a JSON document, mirroring the
// document-per-conversation model.
type SQLiteStore struct {
	db *sql.DB

	// Serializes exchange appends in this process. Appends read, modify
	// and rewrite the whole document; without this, concurrent turns on
	// the same conversation could drop each other's exchange.
	exchangeMu sync.Mutex
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS patients (
		patient_id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		mobile_number TEXT NOT NULL,
		date_of_birth TEXT,
		age INTEGER DEFAULT 0,
		address TEXT,
		problems_json TEXT,
		password_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS conversations (
		patient_id TEXT NOT NULL,
		conversation_id TEXT NOT NULL,
		title TEXT NOT NULL,
		start_time INTEGER NOT NULL,
		last_message_time INTEGER NOT NULL,
		exchange_count INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		exchanges_json TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (patient_id, conversation_id)
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_recent
		ON conversations(patient_id, last_message_time DESC);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// CreatePatient inserts a new patient record.
func (s *SQLiteStore) CreatePatient(ctx context.Context, patient *domain.Patient) error {
	problems, err := json.Marshal(patient.Problems)
	if err != nil {
		return fmt.Errorf("marshal problems: %w", err)
	}

	query := `
	INSERT INTO patients (patient_id, first_name, last_name, email, mobile_number,
		date_of_birth, age, address, problems_json, password_hash, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		patient.PatientID, patient.FirstName, patient.LastName,
		patient.Email, patient.MobileNumber, patient.DateOfBirth,
		patient.Age, patient.Address, string(problems), patient.PasswordHash,
		patient.CreatedAt.Unix(), patient.UpdatedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

// GetPatient retrieves a patient by ID.
func (s *SQLiteStore) GetPatient(ctx context.Context, patientID string) (*domain.Patient, error) {
	query := patientSelect + ` WHERE patient_id = ?`
	return s.scanPatient(s.db.QueryRowContext(ctx, query, patientID))
}

// GetPatientByEmail retrieves a patient by email address.
func (s *SQLiteStore) GetPatientByEmail(ctx context.Context, email string) (*domain.Patient, error) {
	query := patientSelect + ` WHERE email = ?`
	return s.scanPatient(s.db.QueryRowContext(ctx, query, email))
}

const patientSelect = `
	SELECT patient_id, first_name, last_name, email, mobile_number,
	       date_of_birth, age, address, problems_json, password_hash,
	       created_at, updated_at
	FROM patients`

func (s *SQLiteStore) scanPatient(row *sql.Row) (*domain.Patient, error) {
	var patient domain.Patient
	var dob, address, problemsJSON sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(
		&patient.PatientID, &patient.FirstName, &patient.LastName,
		&patient.Email, &patient.MobileNumber, &dob, &patient.Age,
		&address, &problemsJSON, &patient.PasswordHash,
		&createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan patient row: %w", err)
	}

	patient.DateOfBirth = dob.String
	patient.Address = address.String
	if problemsJSON.String != "" {
		if err := json.Unmarshal([]byte(problemsJSON.String), &patient.Problems); err != nil {
			return nil, fmt.Errorf("unmarshal problems: %w", err)
		}
	}
	patient.CreatedAt = time.Unix(createdAt, 0)
	patient.UpdatedAt = time.Unix(updatedAt, 0)

	return &patient, nil
}

// CreateConversation inserts a new conversation document.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	exchanges := conv.Exchanges
	if exchanges == nil {
		exchanges = []domain.Exchange{}
	}
	exchangesJSON, err := json.Marshal(exchanges)
	if err != nil {
		return fmt.Errorf("marshal exchanges: %w", err)
	}

	query := `
	INSERT INTO conversations (patient_id, conversation_id, title, start_time,
		last_message_time, exchange_count, status, exchanges_json, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		conv.PatientID, conv.ConversationID, conv.Title,
		conv.StartTime.Unix(), conv.LastMessageTime.Unix(),
		len(exchanges), conv.Status, string(exchangesJSON),
		conv.CreatedAt.Unix(), conv.UpdatedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

const conversationSelect = `
	SELECT patient_id, conversation_id, title, start_time, last_message_time,
	       exchange_count, status, exchanges_json, created_at, updated_at
	FROM conversations`

// GetConversation retrieves one conversation document with its exchanges.
func (s *SQLiteStore) GetConversation(ctx context.Context, patientID, conversationID string) (*domain.Conversation, error) {
	query := conversationSelect + ` WHERE patient_id = ? AND conversation_id = ?`
	row := s.db.QueryRowContext(ctx, query, patientID, conversationID)

	conv, err := scanConversation(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// ListConversations returns the patient's conversations, most recent first.
func (s *SQLiteStore) ListConversations(ctx context.Context, patientID string) ([]*domain.Conversation, error) {
	query := conversationSelect + ` WHERE patient_id = ? ORDER BY last_message_time DESC`
	rows, err := s.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var conversations []*domain.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows.Scan)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return conversations, nil
}

func scanConversation(scan func(dest ...any) error) (*domain.Conversation, error) {
	var conv domain.Conversation
	var startTime, lastMessage, createdAt, updatedAt int64
	var exchangesJSON string

	err := scan(
		&conv.PatientID, &conv.ConversationID, &conv.Title,
		&startTime, &lastMessage, &conv.ExchangeCount, &conv.Status,
		&exchangesJSON, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation row: %w", err)
	}

	if err := json.Unmarshal([]byte(exchangesJSON), &conv.Exchanges); err != nil {
		return nil, fmt.Errorf("unmarshal exchanges: %w", err)
	}
	conv.StartTime = time.Unix(startTime, 0)
	conv.LastMessageTime = time.Unix(lastMessage, 0)
	conv.CreatedAt = time.Unix(createdAt, 0)
	conv.UpdatedAt = time.Unix(updatedAt, 0)

	return &conv, nil
}

// AppendExchange appends one exchange to a conversation document, assigning
// the next exchange number. The read-modify-write runs under a process-wide
// mutex; cross-process writers are out of scope for a single-node service.
func (s *SQLiteStore) AppendExchange(ctx context.Context, patientID, conversationID string, user domain.UserMessage, reply domain.AgentReply) (*domain.Exchange, error) {
	s.exchangeMu.Lock()
	defer s.exchangeMu.Unlock()

	conv, err := s.GetConversation(ctx, patientID, conversationID)
	if err != nil {
		return nil, err
	}

	exchange := domain.Exchange{
		ExchangeID:     uuid.NewString(),
		ExchangeNumber: len(conv.Exchanges) + 1,
		Timestamp:      user.Timestamp,
		UserMessage:    user,
		AgentReply:     reply,
	}
	conv.Exchanges = append(conv.Exchanges, exchange)

	exchangesJSON, err := json.Marshal(conv.Exchanges)
	if err != nil {
		return nil, fmt.Errorf("marshal exchanges: %w", err)
	}

	query := `
	UPDATE conversations
	SET exchanges_json = ?, exchange_count = ?, last_message_time = ?, updated_at = ?
	WHERE patient_id = ? AND conversation_id = ?`

	result, err := s.db.ExecContext(ctx, query,
		string(exchangesJSON), len(conv.Exchanges),
		reply.Timestamp.Unix(), time.Now().Unix(),
		patientID, conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("update conversation: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return nil, ErrNotFound
	}

	return &exchange, nil
}

// UpdateConversation applies the update's non-nil fields and returns the
// updated document.
func (s *SQLiteStore) UpdateConversation(ctx context.Context, patientID, conversationID string, update domain.ConversationUpdate) (*domain.Conversation, error) {
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().Unix()}
	if update.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *update.Status)
	}
	args = append(args, patientID, conversationID)

	query := `UPDATE conversations SET ` + strings.Join(sets, ", ") +
		` WHERE patient_id = ? AND conversation_id = ?`
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update conversation: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, ErrNotFound
	}

	return s.GetConversation(ctx, patientID, conversationID)
}

// DeleteConversation removes a conversation document.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, patientID, conversationID string) error {
	query := `DELETE FROM conversations WHERE patient_id = ? AND conversation_id = ?`
	result, err := s.db.ExecContext(ctx, query, patientID, conversationID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation reports whether the error is a SQLite unique or primary
// key constraint failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}
