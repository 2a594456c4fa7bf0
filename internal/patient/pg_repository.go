package patient

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

const patientCols = `id, full_name, phone_number, mr_number, email_address,
	to_char(date_of_birth, 'YYYY-MM-DD'), age, gender, blood_group, address, city, state,
	zip_code, country, emergency_contact_phone, occupation, marital_status,
	insurance_provider, insurance_number, additional_notes, status, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.FullName,
		&p.PhoneNumber,
		&p.MRNumber,
		&p.EmailAddress,
		&p.DateOfBirth,
		&p.Age,
		&p.Gender,
		&p.BloodGroup,
		&p.Address,
		&p.City,
		&p.State,
		&p.ZipCode,
		&p.Country,
		&p.EmergencyContactPhone,
		&p.Occupation,
		&p.MaritalStatus,
		&p.InsuranceProvider,
		&p.InsuranceNumber,
		&p.AdditionalNotes,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func mapWriteError(err error) error {
	if code, _ := db.PgErrorCode(err); code == db.CodeUniqueViolation {
		return ErrDuplicateMR
	}
	return err
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id)
	return scanPatient(row)
}

func (r *PgRepository) List(ctx context.Context, f ListFilter) ([]Patient, error) {
	query := `SELECT ` + patientCols + ` FROM patients WHERE 1=1`
	var args []any
	idx := 1

	if f.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Query != "" {
		query += fmt.Sprintf(` AND (full_name ILIKE $%[1]d OR phone_number ILIKE $%[1]d OR mr_number ILIKE $%[1]d)`, idx)
		args = append(args, db.ContainsPattern(f.Query))
	}
	query += ` ORDER BY full_name`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	patients := []Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, *p)
	}
	return patients, rows.Err()
}

func (r *PgRepository) Create(ctx context.Context, p *Patient) (*Patient, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (id, full_name, phone_number, mr_number, email_address, date_of_birth,
			age, gender, blood_group, address, city, state, zip_code, country,
			emergency_contact_phone, occupation, marital_status, insurance_provider,
			insurance_number, additional_notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::text::date, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, now(), now())
		RETURNING `+patientCols,
		p.ID, p.FullName, p.PhoneNumber, p.MRNumber, p.EmailAddress, p.DateOfBirth,
		p.Age, p.Gender, p.BloodGroup, p.Address, p.City, p.State, p.ZipCode, p.Country,
		p.EmergencyContactPhone, p.Occupation, p.MaritalStatus, p.InsuranceProvider,
		p.InsuranceNumber, p.AdditionalNotes, p.Status,
	)

	created, err := scanPatient(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return created, nil
}

func (r *PgRepository) Update(ctx context.Context, p *Patient) (*Patient, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		UPDATE patients
		SET full_name = $2,
		    phone_number = $3,
		    mr_number = $4,
		    email_address = $5,
		    date_of_birth = $6::text::date,
		    age = $7,
		    gender = $8,
		    blood_group = $9,
		    address = $10,
		    city = $11,
		    state = $12,
		    zip_code = $13,
		    country = $14,
		    emergency_contact_phone = $15,
		    occupation = $16,
		    marital_status = $17,
		    insurance_provider = $18,
		    insurance_number = $19,
		    additional_notes = $20,
		    status = $21,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+patientCols,
		p.ID, p.FullName, p.PhoneNumber, p.MRNumber, p.EmailAddress, p.DateOfBirth,
		p.Age, p.Gender, p.BloodGroup, p.Address, p.City, p.State, p.ZipCode, p.Country,
		p.EmergencyContactPhone, p.Occupation, p.MaritalStatus, p.InsuranceProvider,
		p.InsuranceNumber, p.AdditionalNotes, p.Status,
	)

	updated, err := scanPatient(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return updated, nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *PgRepository) NextMRNumber(ctx context.Context) (string, error) {
	var n int64
	if err := r.conn(ctx).QueryRow(ctx, `SELECT nextval('patient_mr_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next mr number: %w", err)
	}
	return FormatMRNumber(n), nil
}

func (r *PgRepository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE status = 'Active'),
		       count(*) FILTER (WHERE status = 'Inactive'),
		       count(*) FILTER (WHERE created_at >= date_trunc('month', now()))
		FROM patients
	`).Scan(&s.Total, &s.Active, &s.Inactive, &s.RegisteredThisMonth)
	if err != nil {
		return Stats{}, err
	}
	return s, nil
}
