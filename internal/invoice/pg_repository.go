package invoice

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-front-office/internal/db"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const invoiceCols = `id, invoice_number, doctor_id, patient_id, to_char(invoice_date, 'YYYY-MM-DD'),
	gross_total, total_discount, sub_total, settlement_discount, final_payable, total_paid,
	balance_due, status, notes, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice

	err := row.Scan(
		&inv.ID,
		&inv.InvoiceNumber,
		&inv.DoctorID,
		&inv.PatientID,
		&inv.InvoiceDate,
		&inv.GrossTotal,
		&inv.TotalDiscount,
		&inv.SubTotal,
		&inv.SettlementDiscount,
		&inv.FinalPayable,
		&inv.TotalPaid,
		&inv.BalanceDue,
		&inv.Status,
		&inv.Notes,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}

	inv.Services = []ServiceLine{}
	inv.Payments = []Payment{}
	return &inv, nil
}

func (r *PgRepository) Create(ctx context.Context, inv *Invoice) (*Invoice, error) {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}

	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO invoices (id, invoice_number, doctor_id, patient_id, invoice_date,
			gross_total, total_discount, sub_total, settlement_discount, final_payable,
			total_paid, balance_due, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5::text::date, CURRENT_DATE), $6, $7, $8, $9, $10,
			$11, $12, $13, $14, now(), now())
		RETURNING `+invoiceCols,
		inv.ID, inv.InvoiceNumber, inv.DoctorID, inv.PatientID, nullableString(inv.InvoiceDate),
		inv.GrossTotal, inv.TotalDiscount, inv.SubTotal, inv.SettlementDiscount, inv.FinalPayable,
		inv.TotalPaid, inv.BalanceDue, inv.Status, inv.Notes,
	)

	created, err := scanInvoice(row)
	if err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}

	if err := r.insertChildren(ctx, created, inv.Services, inv.Payments); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) Update(ctx context.Context, inv *Invoice) (*Invoice, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		UPDATE invoices
		SET doctor_id = $2,
		    patient_id = $3,
		    invoice_date = COALESCE($4::text::date, invoice_date),
		    gross_total = $5,
		    total_discount = $6,
		    sub_total = $7,
		    settlement_discount = $8,
		    final_payable = $9,
		    total_paid = $10,
		    balance_due = $11,
		    status = $12,
		    notes = $13,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+invoiceCols,
		inv.ID, inv.DoctorID, inv.PatientID, nullableString(inv.InvoiceDate),
		inv.GrossTotal, inv.TotalDiscount, inv.SubTotal, inv.SettlementDiscount, inv.FinalPayable,
		inv.TotalPaid, inv.BalanceDue, inv.Status, inv.Notes,
	)

	updated, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, ErrInvoiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update invoice: %w", err)
	}

	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM invoice_services WHERE invoice_id = $1`, inv.ID); err != nil {
		return nil, fmt.Errorf("clear invoice services: %w", err)
	}
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM invoice_payments WHERE invoice_id = $1`, inv.ID); err != nil {
		return nil, fmt.Errorf("clear invoice payments: %w", err)
	}

	if err := r.insertChildren(ctx, updated, inv.Services, inv.Payments); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *PgRepository) insertChildren(ctx context.Context, inv *Invoice, services []ServiceLine, payments []Payment) error {
	for i, s := range services {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO invoice_services (id, invoice_id, position, service_name, charges, discount, sub_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, s.ID, inv.ID, i, s.ServiceName, s.Charges, s.Discount, s.SubTotal)
		if err != nil {
			return fmt.Errorf("insert invoice service: %w", err)
		}
		inv.Services = append(inv.Services, s)
	}

	for i, p := range payments {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		row := r.conn(ctx).QueryRow(ctx, `
			INSERT INTO invoice_payments (id, invoice_id, position, payment_date, amount, payment_mode)
			VALUES ($1, $2, $3, COALESCE($4::text::date, CURRENT_DATE), $5, $6)
			RETURNING to_char(payment_date, 'YYYY-MM-DD')
		`, p.ID, inv.ID, i, nullableString(p.PaymentDate), p.Amount, p.PaymentMode)
		if err := row.Scan(&p.PaymentDate); err != nil {
			return fmt.Errorf("insert invoice payment: %w", err)
		}
		inv.Payments = append(inv.Payments, p)
	}

	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+invoiceCols+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, service_name, charges, discount, sub_total
		FROM invoice_services
		WHERE invoice_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load invoice services: %w", err)
	}
	for rows.Next() {
		var s ServiceLine
		if err := rows.Scan(&s.ID, &s.ServiceName, &s.Charges, &s.Discount, &s.SubTotal); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan invoice service: %w", err)
		}
		inv.Services = append(inv.Services, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.conn(ctx).Query(ctx, `
		SELECT id, to_char(payment_date, 'YYYY-MM-DD'), amount, payment_mode
		FROM invoice_payments
		WHERE invoice_id = $1
		ORDER BY payment_date, position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load invoice payments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.PaymentDate, &p.Amount, &p.PaymentMode); err != nil {
			return nil, fmt.Errorf("scan invoice payment: %w", err)
		}
		inv.Payments = append(inv.Payments, p)
	}

	return inv, rows.Err()
}

// List returns invoice headers only, newest invoice date first.
func (r *PgRepository) List(ctx context.Context, f ListFilter) ([]Invoice, error) {
	query := `SELECT ` + invoiceCols + ` FROM invoices WHERE 1=1`
	var args []any
	idx := 1

	if f.DoctorID != nil {
		query += fmt.Sprintf(` AND doctor_id = $%d`, idx)
		args = append(args, *f.DoctorID)
		idx++
	}
	if f.PatientID != nil {
		query += fmt.Sprintf(` AND patient_id = $%d`, idx)
		args = append(args, *f.PatientID)
		idx++
	}
	if f.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, f.Status)
	}
	query += ` ORDER BY invoice_date DESC, created_at DESC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
