package dashboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-front-office/internal/db"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Summary(ctx context.Context, today string) (*Summary, error) {
	q := db.Conn(ctx, r.pool)
	s := &Summary{AppointmentsByStatus: map[string]int{}}

	err := q.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM doctors),
			(SELECT count(*) FROM doctors WHERE status = 'Active'),
			(SELECT count(*) FROM patients),
			(SELECT count(*) FROM appointments
			  WHERE appointment_date = $1::text::date AND status <> 'Cancelled'),
			(SELECT count(*) FROM appointments
			  WHERE appointment_date > $1::text::date AND status IN ('Scheduled', 'Confirmed', 'Pending'))
	`, today).Scan(&s.TotalDoctors, &s.ActiveDoctors, &s.TotalPatients, &s.AppointmentsToday, &s.AppointmentsUpcoming)
	if err != nil {
		return nil, fmt.Errorf("entity counts: %w", err)
	}

	rows, err := q.Query(ctx, `SELECT status, count(*) FROM appointments GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("appointments by status: %w", err)
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return nil, err
		}
		s.AppointmentsByStatus[status] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = q.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = 'unpaid'),
			count(*) FILTER (WHERE status = 'partial'),
			count(*) FILTER (WHERE status = 'paid'),
			COALESCE(sum(total_paid), 0),
			COALESCE(sum(GREATEST(balance_due, 0)), 0)
		FROM invoices
	`).Scan(
		&s.Invoices.Total,
		&s.Invoices.Unpaid,
		&s.Invoices.Partial,
		&s.Invoices.Paid,
		&s.RevenueCollected,
		&s.OutstandingBalance,
	)
	if err != nil {
		return nil, fmt.Errorf("invoice totals: %w", err)
	}

	return s, nil
}
