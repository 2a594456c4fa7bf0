package doctor

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

const doctorCols = `id, name, email, phone, license_number, specialization, status,
	experience_years, qualification, address, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Email,
		&d.Phone,
		&d.LicenseNumber,
		&d.Specialization,
		&d.Status,
		&d.ExperienceYears,
		&d.Qualification,
		&d.Address,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &d, nil
}

func mapWriteError(err error) error {
	code, constraint := db.PgErrorCode(err)
	if code != db.CodeUniqueViolation {
		return err
	}
	switch constraint {
	case "doctors_email_key":
		return &DuplicateError{Field: "email"}
	case "doctors_license_number_key":
		return &DuplicateError{Field: "license_number"}
	}
	return &DuplicateError{}
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id)
	return scanDoctor(row)
}

func (r *PgRepository) List(ctx context.Context, f ListFilter) ([]Doctor, error) {
	query := `SELECT ` + doctorCols + ` FROM doctors WHERE 1=1`
	var args []any
	idx := 1

	if f.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Query != "" {
		query += fmt.Sprintf(` AND (name ILIKE $%[1]d OR email ILIKE $%[1]d OR specialization ILIKE $%[1]d OR phone ILIKE $%[1]d)`, idx)
		args = append(args, db.ContainsPattern(f.Query))
	}
	query += ` ORDER BY name`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	doctors := []Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, *d)
	}
	return doctors, rows.Err()
}

func (r *PgRepository) Create(ctx context.Context, d *Doctor) (*Doctor, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}

	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctors (id, name, email, phone, license_number, specialization, status,
			experience_years, qualification, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING `+doctorCols,
		d.ID, d.Name, d.Email, d.Phone, d.LicenseNumber, d.Specialization, d.Status,
		d.ExperienceYears, d.Qualification, d.Address,
	)

	created, err := scanDoctor(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return created, nil
}

func (r *PgRepository) Update(ctx context.Context, d *Doctor) (*Doctor, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		UPDATE doctors
		SET name = $2,
		    email = $3,
		    phone = $4,
		    license_number = $5,
		    specialization = $6,
		    status = $7,
		    experience_years = $8,
		    qualification = $9,
		    address = $10,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+doctorCols,
		d.ID, d.Name, d.Email, d.Phone, d.LicenseNumber, d.Specialization, d.Status,
		d.ExperienceYears, d.Qualification, d.Address,
	)

	updated, err := scanDoctor(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return updated, nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *PgRepository) Stats(ctx context.Context) (Stats, error) {
	var s Stats

	err := r.conn(ctx).QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE status = 'Active'),
		       count(*) FILTER (WHERE status = 'Inactive'),
		       count(*) FILTER (WHERE created_at >= date_trunc('month', now())),
		       count(DISTINCT specialization)
		FROM doctors
	`).Scan(&s.Total, &s.Active, &s.Inactive, &s.NewThisMonth, &s.Departments)
	if err != nil {
		return Stats{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT specialization, count(*)
		FROM doctors
		GROUP BY specialization
	`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	s.BySpecialization = make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return Stats{}, err
		}
		s.BySpecialization[name] = n
	}

	return s, rows.Err()
}
