package doctor

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// Specializations offered by the registration form.
var Specializations = []string{
	"Cardiology",
	"Neurology",
	"Pediatrics",
	"Orthopedics",
	"Dermatology",
	"Psychiatry",
	"Oncology",
	"Radiology",
	"Anesthesiology",
	"General Practice",
}

type Doctor struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	LicenseNumber   string    `json:"license_number"`
	Specialization  string    `json:"specialization"`
	Status          Status    `json:"status"`
	ExperienceYears int       `json:"experience_years"`
	Qualification   string    `json:"qualification"`
	Address         string    `json:"address"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Input struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required"`
	LicenseNumber   string `json:"license_number" validate:"required"`
	Specialization  string `json:"specialization" validate:"required"`
	Status          Status `json:"status" validate:"omitempty,oneof=Active Inactive"`
	ExperienceYears *int   `json:"experience_years" validate:"required,gte=0"`
	Qualification   string `json:"qualification" validate:"required"`
	Address         string `json:"address"`
}

type ListFilter struct {
	Status Status
	Query  string
}

type Stats struct {
	Total            int            `json:"total"`
	Active           int            `json:"active"`
	Inactive         int            `json:"inactive"`
	NewThisMonth     int            `json:"new_this_month"`
	Departments      int            `json:"departments"`
	BySpecialization map[string]int `json:"by_specialization"`
}
