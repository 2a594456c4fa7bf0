package patient

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

type Patient struct {
	ID                    uuid.UUID `json:"id"`
	FullName              string    `json:"full_name"`
	PhoneNumber           string    `json:"phone_number"`
	MRNumber              string    `json:"mr_number"`
	EmailAddress          string    `json:"email_address"`
	DateOfBirth           *string   `json:"date_of_birth"`
	Age                   *int      `json:"age"`
	Gender                string    `json:"gender"`
	BloodGroup            string    `json:"blood_group"`
	Address               string    `json:"address"`
	City                  string    `json:"city"`
	State                 string    `json:"state"`
	ZipCode               string    `json:"zip_code"`
	Country               string    `json:"country"`
	EmergencyContactPhone string    `json:"emergency_contact_phone"`
	Occupation            string    `json:"occupation"`
	MaritalStatus         string    `json:"marital_status"`
	InsuranceProvider     string    `json:"insurance_provider"`
	InsuranceNumber       string    `json:"insurance_number"`
	AdditionalNotes       string    `json:"additional_notes"`
	Status                Status    `json:"status"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

type Input struct {
	FullName              string `json:"full_name" validate:"required"`
	PhoneNumber           string `json:"phone_number" validate:"required"`
	MRNumber              string `json:"mr_number"`
	EmailAddress          string `json:"email_address" validate:"omitempty,email"`
	DateOfBirth           string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender                string `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	BloodGroup            string `json:"blood_group" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Address               string `json:"address"`
	City                  string `json:"city"`
	State                 string `json:"state"`
	ZipCode               string `json:"zip_code"`
	Country               string `json:"country"`
	EmergencyContactPhone string `json:"emergency_contact_phone"`
	Occupation            string `json:"occupation"`
	MaritalStatus         string `json:"marital_status" validate:"omitempty,oneof=Single Married Divorced Widowed"`
	InsuranceProvider     string `json:"insurance_provider"`
	InsuranceNumber       string `json:"insurance_number"`
	AdditionalNotes       string `json:"additional_notes"`
	Status                Status `json:"status" validate:"omitempty,oneof=Active Inactive"`
}

type ListFilter struct {
	Status Status
	// Query matches full name, phone or MR number.
	Query string
}

type Stats struct {
	Total               int `json:"total"`
	Active              int `json:"active"`
	Inactive            int `json:"inactive"`
	RegisteredThisMonth int `json:"registered_this_month"`
}

// AgeOn returns whole years between dob and today.
func AgeOn(dob, today time.Time) int {
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return age
}
