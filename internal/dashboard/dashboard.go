// Package dashboard aggregates front-office counters across doctors,
// patients, appointments and invoices.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceCounts struct {
	Total   int `json:"total"`
	Unpaid  int `json:"unpaid"`
	Partial int `json:"partial"`
	Paid    int `json:"paid"`
}

type Summary struct {
	Date                 string          `json:"date"`
	TotalDoctors         int             `json:"total_doctors"`
	ActiveDoctors        int             `json:"active_doctors"`
	TotalPatients        int             `json:"total_patients"`
	AppointmentsToday    int             `json:"appointments_today"`
	AppointmentsUpcoming int             `json:"appointments_upcoming"`
	AppointmentsByStatus map[string]int  `json:"appointments_by_status"`
	Invoices             InvoiceCounts   `json:"invoices"`
	RevenueCollected     decimal.Decimal `json:"revenue_collected"`
	OutstandingBalance   decimal.Decimal `json:"outstanding_balance"`
}

// Repository fills a summary as of the given date (YYYY-MM-DD).
type Repository interface {
	Summary(ctx context.Context, today string) (*Summary, error)
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Summary uses the server's local date as today.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	today := s.now().Format(time.DateOnly)

	sum, err := s.repo.Summary(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}
	sum.Date = today
	if sum.AppointmentsByStatus == nil {
		sum.AppointmentsByStatus = map[string]int{}
	}
	return sum, nil
}
