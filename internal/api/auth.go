package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cardiacare/server/internal/domain"
	"github.com/cardiacare/server/internal/store"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type signupRequest struct {
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Email        string   `json:"email"`
	Password     string   `json:"password"`
	MobileNumber string   `json:"mobile_number"`
	DateOfBirth  string   `json:"date_of_birth"`
	Age          int      `json:"age"`
	Address      string   `json:"address"`
	Problems     []string `json:"patient_problems"`
}

type loginRequest struct {
	PatientID string `json:"patient_id"`
	Password  string `json:"password"`
}

// Signup registers a new patient and returns the assigned patient ID.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := validateSignup(&req); msg != "" {
		Error(w, http.StatusBadRequest, msg)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("hashing password failed", "error", err)
		Error(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	now := time.Now()
	patient := &domain.Patient{
		PatientID:    newPatientID(),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		MobileNumber: strings.TrimSpace(req.MobileNumber),
		DateOfBirth:  req.DateOfBirth,
		Age:          req.Age,
		Address:      req.Address,
		Problems:     req.Problems,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.repo.CreatePatient(r.Context(), patient); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			Error(w, http.StatusConflict, "an account with this email already exists")
			return
		}
		slog.Error("creating patient failed", "error", err)
		Error(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	slog.Info("patient registered", "patient_id", patient.PatientID)
	JSON(w, http.StatusCreated, map[string]interface{}{
		"success":    true,
		"patient_id": patient.PatientID,
		"message":    "Account created successfully. Use your patient ID to log in.",
	})
}

// Login verifies patient credentials and returns the profile. There is no
// server-side session; the client keeps the patient ID.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PatientID == "" || req.Password == "" {
		Error(w, http.StatusBadRequest, "patient_id and password are required")
		return
	}

	patient, err := h.repo.GetPatient(r.Context(), strings.TrimSpace(req.PatientID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusUnauthorized, "invalid patient ID or password")
			return
		}
		slog.Error("loading patient failed", "error", err)
		Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(patient.PasswordHash), []byte(req.Password)) != nil {
		Error(w, http.StatusUnauthorized, "invalid patient ID or password")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    patient.Profile(),
	})
}

func validateSignup(req *signupRequest) string {
	if strings.TrimSpace(req.FirstName) == "" ||
		strings.TrimSpace(req.LastName) == "" ||
		strings.TrimSpace(req.Email) == "" ||
		req.Password == "" ||
		strings.TrimSpace(req.MobileNumber) == "" {
		return "first_name, last_name, email, password and mobile_number are required"
	}
	if len(req.Password) < 6 {
		return "password must be at least 6 characters"
	}
	if !emailPattern.MatchString(strings.TrimSpace(req.Email)) {
		return "invalid email address"
	}
	if digits := countDigits(req.MobileNumber); digits < 10 {
		return "mobile number must contain at least 10 digits"
	}
	return ""
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// newPatientID generates a patient identifier with the PT prefix.
func newPatientID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "PT" + strings.ToUpper(raw[:10])
}
