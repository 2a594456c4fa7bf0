package invoice

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-front-office/internal/db"
	"github.com/hackgods/clinic-front-office/internal/doctor"
	"github.com/hackgods/clinic-front-office/internal/patient"
	"github.com/hackgods/clinic-front-office/internal/validation"
)

const numberAttempts = 3

type DoctorLookup interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
}

type PatientLookup interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type Service struct {
	repo     Repository
	tx       db.TxRunner
	doctors  DoctorLookup
	patients PatientLookup
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, tx db.TxRunner, doctors DoctorLookup, patients PatientLookup, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		tx:       tx,
		doctors:  doctors,
		patients: patients,
		log:      log,
		now:      time.Now,
	}
}

// NewInvoiceNumber formats INV-{unix millis}-{3 random digits}.
func NewInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%d-%03d", now.UnixMilli(), rand.IntN(1000))
}

// PreviewInvoice validates the input and returns the invoice it would
// produce, totals included, without writing anything.
func (s *Service) PreviewInvoice(_ context.Context, in Input) (*Invoice, error) {
	return build(in)
}

// CreateInvoice writes the header, services and payments in one transaction.
func (s *Service) CreateInvoice(ctx context.Context, in Input) (*Invoice, error) {
	inv, err := build(in)
	if err != nil {
		return nil, err
	}
	if err := s.checkParties(ctx, inv.DoctorID, inv.PatientID); err != nil {
		return nil, err
	}

	var created *Invoice
	for attempt := 1; ; attempt++ {
		inv.InvoiceNumber = NewInvoiceNumber(s.now())

		err = s.tx.WithTx(ctx, func(ctx context.Context) error {
			var err error
			created, err = s.repo.Create(ctx, inv)
			return err
		})
		if err == nil {
			break
		}

		code, constraint := db.PgErrorCode(err)
		if code == db.CodeUniqueViolation && constraint == "invoices_invoice_number_key" && attempt < numberAttempts {
			s.log.Warn().Str("invoice_number", inv.InvoiceNumber).Msg("invoice number collision, retrying")
			inv.ID = uuid.Nil
			continue
		}
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	s.log.Info().
		Str("invoice_id", created.ID.String()).
		Str("invoice_number", created.InvoiceNumber).
		Str("final_payable", created.FinalPayable.String()).
		Msg("invoice created")

	return created, nil
}

// UpdateInvoice recomputes totals and replaces every service and payment line.
func (s *Service) UpdateInvoice(ctx context.Context, id uuid.UUID, in Input) (*Invoice, error) {
	inv, err := build(in)
	if err != nil {
		return nil, err
	}
	inv.ID = id

	if err := s.checkParties(ctx, inv.DoctorID, inv.PatientID); err != nil {
		return nil, err
	}

	var updated *Invoice
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.repo.Update(ctx, inv)
		return err
	})
	if err != nil {
		return nil, wrap("update invoice", err)
	}

	s.log.Info().
		Str("invoice_id", updated.ID.String()).
		Str("status", string(updated.Status)).
		Msg("invoice updated")

	return updated, nil
}

func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrap("get invoice", err)
	}
	return inv, nil
}

func (s *Service) ListInvoices(ctx context.Context, f ListFilter) ([]Invoice, error) {
	switch f.Status {
	case "", StatusUnpaid, StatusPartial, StatusPaid:
	default:
		return nil, validation.Field("status", "status must be one of: unpaid, partial, paid")
	}

	invoices, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

func (s *Service) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return wrap("delete invoice", err)
	}
	return nil
}

func (s *Service) checkParties(ctx context.Context, doctorID, patientID uuid.UUID) error {
	errs := &validation.Error{}

	if _, err := s.doctors.GetDoctor(ctx, doctorID); err != nil {
		if !errors.Is(err, doctor.ErrDoctorNotFound) {
			return fmt.Errorf("lookup doctor: %w", err)
		}
		errs.Add("doctor_id", "doctor does not exist")
	}
	if _, err := s.patients.GetPatient(ctx, patientID); err != nil {
		if !errors.Is(err, patient.ErrPatientNotFound) {
			return fmt.Errorf("lookup patient: %w", err)
		}
		errs.Add("patient_id", "patient does not exist")
	}

	return errs.OrNil()
}

// build validates the input and turns it into an invoice with computed
// line sub totals and invoice totals.
func build(in Input) (*Invoice, error) {
	errs := &validation.Error{}
	if err := errs.Merge(validation.Struct(in)); err != nil {
		return nil, err
	}

	if in.SettlementDiscount.IsNegative() {
		errs.Add("settlement_discount", "settlement_discount cannot be negative")
	}

	services := make([]ServiceLine, 0, len(in.Services))
	for i, si := range in.Services {
		if si.Charges.IsNegative() {
			errs.Add(fmt.Sprintf("services[%d].charges", i), "charges cannot be negative")
		}
		if si.Discount.IsNegative() {
			errs.Add(fmt.Sprintf("services[%d].discount", i), "discount cannot be negative")
		}
		line := ServiceLine{
			ServiceName: strings.TrimSpace(si.ServiceName),
			Charges:     si.Charges,
			Discount:    si.Discount,
		}
		line.SubTotal = LineSubTotal(line)
		services = append(services, line)
	}

	payments := make([]Payment, 0, len(in.Payments))
	for i, pi := range in.Payments {
		if pi.Amount.IsNegative() {
			errs.Add(fmt.Sprintf("payments[%d].amount", i), "amount cannot be negative")
		}
		payments = append(payments, Payment{
			PaymentDate: pi.PaymentDate,
			Amount:      pi.Amount,
			PaymentMode: strings.TrimSpace(pi.PaymentMode),
		})
	}

	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	return &Invoice{
		DoctorID:    uuid.MustParse(in.DoctorID),
		PatientID:   uuid.MustParse(in.PatientID),
		InvoiceDate: in.InvoiceDate,
		Totals:      Calculate(services, payments, in.SettlementDiscount),
		Notes:       strings.TrimSpace(in.Notes),
		Services:    services,
		Payments:    payments,
	}, nil
}

func wrap(op string, err error) error {
	if errors.Is(err, ErrInvoiceNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
