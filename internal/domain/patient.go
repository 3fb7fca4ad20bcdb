// Package domain contains core domain types for the cardiac companion service.
package domain

import (
	"strings"
	"time"
)

// Patient is the stored patient record, including the password hash.
// Only the store and the auth handlers see this type.
type Patient struct {
	PatientID    string   `json:"patient_id"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Email        string   `json:"email"`
	MobileNumber string   `json:"mobile_number"`
	DateOfBirth  string   `json:"date_of_birth"`
	Age          int      `json:"age"`
	Address      string   `json:"address"`
	Problems     []string `json:"patient_problems"`
	PasswordHash string   `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile returns the patient record without credential material, suitable
// for returning to the client after signup or login.
func (p *Patient) Profile() AuthUser {
	return AuthUser{
		PatientID:    p.PatientID,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Email:        p.Email,
		MobileNumber: p.MobileNumber,
		Age:          p.Age,
		Address:      p.Address,
		Problems:     p.Problems,
	}
}

// AuthUser is the client-facing view of a patient.
type AuthUser struct {
	PatientID    string   `json:"patient_id"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Email        string   `json:"email"`
	MobileNumber string   `json:"mobile_number"`
	Age          int      `json:"age"`
	Address      string   `json:"address"`
	Problems     []string `json:"patient_problems"`
}

// PatientContext carries the patient details attached to a chat request.
// It is advisory input for prompt construction and is never mutated.
type PatientContext struct {
	PatientID      string   `json:"patient_id"`
	Name           string   `json:"name"`
	Email          string   `json:"email,omitempty"`
	Mobile         string   `json:"mobile,omitempty"`
	MedicalHistory []string `json:"medical_history,omitempty"`
}

// DisplayName returns the patient name or a placeholder for anonymous chats.
func (c *PatientContext) DisplayName() string {
	if c == nil || strings.TrimSpace(c.Name) == "" {
		return "Anonymous"
	}
	return c.Name
}
