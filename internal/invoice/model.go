package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ServiceLine struct {
	ID          uuid.UUID       `json:"id"`
	ServiceName string          `json:"service_name"`
	Charges     decimal.Decimal `json:"charges"`
	Discount    decimal.Decimal `json:"discount"`
	SubTotal    decimal.Decimal `json:"sub_total"`
}

type Payment struct {
	ID          uuid.UUID       `json:"id"`
	PaymentDate string          `json:"payment_date"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentMode string          `json:"payment_mode"`
}

// Invoice totals are a snapshot taken when the invoice was last written.
type Invoice struct {
	ID            uuid.UUID `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	InvoiceDate   string    `json:"invoice_date"`
	Totals
	Notes     string        `json:"notes"`
	Services  []ServiceLine `json:"services"`
	Payments  []Payment     `json:"payments"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type ServiceInput struct {
	ServiceName string          `json:"service_name" validate:"required"`
	Charges     decimal.Decimal `json:"charges"`
	Discount    decimal.Decimal `json:"discount"`
}

type PaymentInput struct {
	PaymentDate string          `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentMode string          `json:"payment_mode"`
}

type Input struct {
	DoctorID           string          `json:"doctor_id" validate:"required,uuid"`
	PatientID          string          `json:"patient_id" validate:"required,uuid"`
	InvoiceDate        string          `json:"invoice_date" validate:"omitempty,datetime=2006-01-02"`
	Services           []ServiceInput  `json:"services" validate:"required,min=1,dive"`
	Payments           []PaymentInput  `json:"payments" validate:"dive"`
	SettlementDiscount decimal.Decimal `json:"settlement_discount"`
	Notes              string          `json:"notes"`
}

type ListFilter struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Status    Status
}
