package invoice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-front-office/internal/doctor"
	"github.com/hackgods/clinic-front-office/internal/patient"
	"github.com/hackgods/clinic-front-office/internal/validation"
)

type mockRepo struct {
	store     map[uuid.UUID]*Invoice
	createErr []error
	inTx      bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[uuid.UUID]*Invoice)}
}

func (m *mockRepo) Create(ctx context.Context, inv *Invoice) (*Invoice, error) {
	m.inTx = txActive(ctx)
	if len(m.createErr) > 0 {
		err := m.createErr[0]
		m.createErr = m.createErr[1:]
		return nil, err
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	c := *inv
	m.store[c.ID] = &c
	return &c, nil
}

func (m *mockRepo) Update(ctx context.Context, inv *Invoice) (*Invoice, error) {
	m.inTx = txActive(ctx)
	old, ok := m.store[inv.ID]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	c := *inv
	c.InvoiceNumber = old.InvoiceNumber
	m.store[c.ID] = &c
	return &c, nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Invoice, error) {
	inv, ok := m.store[id]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	c := *inv
	return &c, nil
}

func (m *mockRepo) List(_ context.Context, f ListFilter) ([]Invoice, error) {
	out := []Invoice{}
	for _, inv := range m.store {
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.store[id]; !ok {
		return ErrInvoiceNotFound
	}
	delete(m.store, id)
	return nil
}

type txKey struct{}

func txActive(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

type fakeTx struct {
	commits   int
	rollbacks int
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

type doctorDirectory map[uuid.UUID]*doctor.Doctor

func (d doctorDirectory) GetDoctor(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	doc, ok := d[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	return doc, nil
}

type patientDirectory map[uuid.UUID]*patient.Patient

func (p patientDirectory) GetPatient(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	pt, ok := p[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return pt, nil
}

type fixture struct {
	svc       *Service
	repo      *mockRepo
	tx        *fakeTx
	doctorID  uuid.UUID
	patientID uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		repo:      newMockRepo(),
		tx:        &fakeTx{},
		doctorID:  uuid.New(),
		patientID: uuid.New(),
	}
	doctors := doctorDirectory{f.doctorID: {ID: f.doctorID, Name: "Dr. Rao"}}
	patients := patientDirectory{f.patientID: {ID: f.patientID, FullName: "Asha Patel"}}

	f.svc = NewService(f.repo, f.tx, doctors, patients, zerolog.Nop())
	f.svc.now = func() time.Time { return time.UnixMilli(1718000000123) }
	return f
}

func (f *fixture) input() Input {
	return Input{
		DoctorID:    f.doctorID.String(),
		PatientID:   f.patientID.String(),
		InvoiceDate: "2024-06-10",
		Services: []ServiceInput{
			{ServiceName: "Consultation", Charges: d("800"), Discount: d("100")},
			{ServiceName: "X-Ray", Charges: d("1200")},
		},
		Payments: []PaymentInput{
			{PaymentDate: "2024-06-10", Amount: d("500"), PaymentMode: "card"},
		},
		SettlementDiscount: d("100"),
	}
}

func TestCreateInvoice(t *testing.T) {
	f := newFixture()

	inv, err := f.svc.CreateInvoice(context.Background(), f.input())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(inv.InvoiceNumber, "INV-1718000000123-") || len(inv.InvoiceNumber) != len("INV-1718000000123-000") {
		t.Errorf("unexpected invoice number %q", inv.InvoiceNumber)
	}
	if !inv.GrossTotal.Equal(d("2000")) || !inv.SubTotal.Equal(d("1900")) {
		t.Errorf("unexpected totals %+v", inv.Totals)
	}
	if !inv.FinalPayable.Equal(d("1800")) || !inv.BalanceDue.Equal(d("1300")) {
		t.Errorf("unexpected payable/balance %s/%s", inv.FinalPayable, inv.BalanceDue)
	}
	if inv.Status != StatusPartial {
		t.Errorf("expected partial, got %s", inv.Status)
	}
	if !inv.Services[0].SubTotal.Equal(d("700")) {
		t.Errorf("expected line sub total 700, got %s", inv.Services[0].SubTotal)
	}
	if !f.repo.inTx || f.tx.commits != 1 {
		t.Errorf("expected a single committed transaction, commits=%d inTx=%v", f.tx.commits, f.repo.inTx)
	}
}

func TestCreateInvoice_RejectsNegativeMoney(t *testing.T) {
	f := newFixture()
	in := f.input()
	in.Services[1].Charges = d("-10")
	in.Payments[0].Amount = d("-1")
	in.SettlementDiscount = d("-5")

	_, err := f.svc.CreateInvoice(context.Background(), in)
	if !errors.Is(err, validation.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validation.Error, got %T", err)
	}
	for _, field := range []string{"services[1].charges", "payments[0].amount", "settlement_discount"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("expected error for %s, got %v", field, verr.Fields)
		}
	}
	if len(f.repo.store) != 0 || f.tx.commits != 0 {
		t.Fatal("nothing should be written for invalid input")
	}
}

func TestCreateInvoice_Validation(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name  string
		mod   func(*Input)
		field string
	}{
		{"no services", func(in *Input) { in.Services = nil }, "services"},
		{"empty services", func(in *Input) { in.Services = []ServiceInput{} }, "services"},
		{"service name", func(in *Input) { in.Services[0].ServiceName = "" }, "services[0].service_name"},
		{"doctor id", func(in *Input) { in.DoctorID = "" }, "doctor_id"},
		{"patient id", func(in *Input) { in.PatientID = "nope" }, "patient_id"},
		{"invoice date", func(in *Input) { in.InvoiceDate = "10/06/2024" }, "invoice_date"},
		{"unknown doctor", func(in *Input) { in.DoctorID = uuid.NewString() }, "doctor_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.input()
			tt.mod(&in)

			_, err := f.svc.CreateInvoice(context.Background(), in)
			var verr *validation.Error
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Fatalf("expected error on %s, got %v", tt.field, verr.Fields)
			}
		})
	}
}

func TestCreateInvoice_RetriesNumberCollision(t *testing.T) {
	f := newFixture()
	f.repo.createErr = []error{&pgconn.PgError{Code: "23505", ConstraintName: "invoices_invoice_number_key"}}

	inv, err := f.svc.CreateInvoice(context.Background(), f.input())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv == nil || f.tx.rollbacks != 1 || f.tx.commits != 1 {
		t.Fatalf("expected one rollback then one commit, got %d/%d", f.tx.rollbacks, f.tx.commits)
	}
}

func TestCreateInvoice_StoreFailure(t *testing.T) {
	f := newFixture()
	f.repo.createErr = []error{errors.New("connection reset")}

	if _, err := f.svc.CreateInvoice(context.Background(), f.input()); err == nil {
		t.Fatal("expected error")
	}
	if f.tx.rollbacks != 1 {
		t.Fatalf("expected rollback, got %d", f.tx.rollbacks)
	}
}

func TestUpdateInvoice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.CreateInvoice(ctx, f.input())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	in := f.input()
	in.Payments = append(in.Payments, PaymentInput{Amount: d("1300"), PaymentMode: "cash"})

	updated, err := f.svc.UpdateInvoice(ctx, created.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != StatusPaid || !updated.BalanceDue.IsZero() {
		t.Fatalf("expected paid with zero balance, got %s %s", updated.Status, updated.BalanceDue)
	}
	if updated.InvoiceNumber != created.InvoiceNumber {
		t.Fatalf("invoice number changed: %s -> %s", created.InvoiceNumber, updated.InvoiceNumber)
	}
	if len(updated.Payments) != 2 {
		t.Fatalf("expected payments replaced with 2 lines, got %d", len(updated.Payments))
	}

	if _, err := f.svc.UpdateInvoice(ctx, uuid.New(), in); !errors.Is(err, ErrInvoiceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPreviewInvoice_DoesNotPersist(t *testing.T) {
	f := newFixture()

	inv, err := f.svc.PreviewInvoice(context.Background(), f.input())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inv.FinalPayable.Equal(d("1800")) {
		t.Fatalf("expected 1800, got %s", inv.FinalPayable)
	}
	if len(f.repo.store) != 0 || f.tx.commits != 0 {
		t.Fatal("preview must not write")
	}
}

func TestListAndDeleteInvoice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.CreateInvoice(ctx, f.input())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.ListInvoices(ctx, ListFilter{Status: "overdue"}); !errors.Is(err, validation.ErrValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}

	list, err := f.svc.ListInvoices(ctx, ListFilter{Status: StatusPartial})
	if err != nil || len(list) != 1 {
		t.Fatalf("expected 1 partial invoice, got %d (%v)", len(list), err)
	}

	if err := f.svc.DeleteInvoice(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.svc.GetInvoice(ctx, created.ID); !errors.Is(err, ErrInvoiceNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
