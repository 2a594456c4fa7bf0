package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type stubRepo struct {
	gotToday string
	summary  *Summary
	err      error
}

func (r *stubRepo) Summary(_ context.Context, today string) (*Summary, error) {
	r.gotToday = today
	if r.err != nil {
		return nil, r.err
	}
	return r.summary, nil
}

func TestSummary_UsesLocalDate(t *testing.T) {
	repo := &stubRepo{summary: &Summary{
		TotalDoctors:     3,
		Invoices:         InvoiceCounts{Total: 2, Paid: 1, Unpaid: 1},
		RevenueCollected: decimal.RequireFromString("1500.50"),
	}}
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2024, 6, 10, 23, 30, 0, 0, time.Local) }

	s, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.gotToday != "2024-06-10" || s.Date != "2024-06-10" {
		t.Fatalf("expected 2024-06-10, got repo=%s summary=%s", repo.gotToday, s.Date)
	}
	if s.AppointmentsByStatus == nil {
		t.Fatal("expected non-nil status map")
	}
	if s.TotalDoctors != 3 || !s.RevenueCollected.Equal(decimal.RequireFromString("1500.5")) {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestSummary_Error(t *testing.T) {
	svc := NewService(&stubRepo{err: errors.New("boom")})
	if _, err := svc.Summary(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
