package appointment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeEmergency    Type = "Emergency"
	TypeRegular      Type = "Regular"
	TypeFollowUp     Type = "Follow-up"
	TypeConsultation Type = "Consultation"
)

func (t Type) Valid() bool {
	switch t {
	case TypeEmergency, TypeRegular, TypeFollowUp, TypeConsultation:
		return true
	}
	return false
}

type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusConfirmed Status = "Confirmed"
	StatusPending   Status = "Pending"
	StatusCancelled Status = "Cancelled"
	StatusCompleted Status = "Completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusPending, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Statuses lists every status in display order.
var Statuses = []Status{StatusScheduled, StatusConfirmed, StatusPending, StatusCancelled, StatusCompleted}

// Appointment is one booked interval for a doctor on a date. DoctorName,
// PatientName and Phone are copied from the registries when booked.
type Appointment struct {
	ID              uuid.UUID       `json:"id"`
	DoctorID        uuid.UUID       `json:"doctor_id"`
	DoctorName      string          `json:"doctor_name"`
	PatientID       uuid.UUID       `json:"patient_id"`
	PatientName     string          `json:"patient_name"`
	Phone           string          `json:"phone"`
	Date            string          `json:"appointment_date"`
	StartTime       string          `json:"start_time"`
	EndTime         string          `json:"end_time"`
	AppointmentTime string          `json:"appointment_time"`
	Type            Type            `json:"appointment_type"`
	Status          Status          `json:"status"`
	Fee             decimal.Decimal `json:"fee"`
	Notes           string          `json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (a Appointment) Interval() Interval {
	return Interval{Start: a.StartTime, End: a.EndTime}
}

// DisplayTime renders the "{start} - {end}" form stored in appointment_time.
func DisplayTime(start, end string) string {
	return start + " - " + end
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// Input is the create/edit form. Ids stay strings so a missing value is
// reported as a field error rather than a decode failure.
type Input struct {
	DoctorID  string          `json:"doctor_id" validate:"required,uuid"`
	PatientID string          `json:"patient_id" validate:"required,uuid"`
	Date      string          `json:"appointment_date" validate:"required,datetime=2006-01-02"`
	StartTime string          `json:"start_time" validate:"required"`
	EndTime   string          `json:"end_time" validate:"required"`
	Type      Type            `json:"appointment_type" validate:"omitempty,oneof=Emergency Regular Follow-up Consultation"`
	Status    Status          `json:"status" validate:"omitempty,oneof=Scheduled Confirmed Pending Cancelled Completed"`
	Fee       decimal.Decimal `json:"fee"`
	Notes     string          `json:"notes"`
}

type ListFilter struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Date      string
	DateFrom  string
	DateTo    string
	Status    Status
	Query     string
}
