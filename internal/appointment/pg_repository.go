package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

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

const appointmentCols = `id, doctor_id, doctor_name, patient_id, patient_name, phone,
	to_char(appointment_date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	appointment_time, appointment_type, status, fee, notes, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.DoctorName,
		&a.PatientID,
		&a.PatientName,
		&a.Phone,
		&a.Date,
		&a.StartTime,
		&a.EndTime,
		&a.AppointmentTime,
		&a.Type,
		&a.Status,
		&a.Fee,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	result := []Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// mapWriteError turns the overlap exclusion constraint into ErrTimeConflict.
func mapWriteError(err error) error {
	if code, _ := db.PgErrorCode(err); code == db.CodeExclusionViolation {
		return ErrTimeConflict
	}
	return err
}

func (r *PgRepository) ListByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date string) ([]Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+appointmentCols+`
		FROM appointments
		WHERE doctor_id = $1
		  AND appointment_date = $2::text::date
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+appointmentCols+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) List(ctx context.Context, f ListFilter) ([]Appointment, error) {
	query := `SELECT ` + appointmentCols + ` FROM appointments WHERE 1=1`
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
	if f.Date != "" {
		query += fmt.Sprintf(` AND appointment_date = $%d::text::date`, idx)
		args = append(args, f.Date)
		idx++
	}
	if f.DateFrom != "" {
		query += fmt.Sprintf(` AND appointment_date >= $%d::text::date`, idx)
		args = append(args, f.DateFrom)
		idx++
	}
	if f.DateTo != "" {
		query += fmt.Sprintf(` AND appointment_date <= $%d::text::date`, idx)
		args = append(args, f.DateTo)
		idx++
	}
	if f.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Query != "" {
		query += fmt.Sprintf(` AND (doctor_name ILIKE $%[1]d OR patient_name ILIKE $%[1]d OR phone ILIKE $%[1]d)`, idx)
		args = append(args, db.ContainsPattern(f.Query))
	}

	query += ` ORDER BY appointment_date, start_time`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) Create(ctx context.Context, a *Appointment) (*Appointment, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (id, doctor_id, doctor_name, patient_id, patient_name, phone,
			appointment_date, start_time, end_time, appointment_time, appointment_type, status,
			fee, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::text::date, $8::text::time, $9::text::time,
			$10, $11, $12, $13, $14, now(), now())
		RETURNING `+appointmentCols,
		a.ID, a.DoctorID, a.DoctorName, a.PatientID, a.PatientName, a.Phone,
		a.Date, a.StartTime, a.EndTime, a.AppointmentTime, a.Type, a.Status,
		a.Fee, a.Notes,
	)

	created, err := scanAppointment(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return created, nil
}

func (r *PgRepository) Update(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointments
		SET doctor_id = $2,
		    doctor_name = $3,
		    patient_id = $4,
		    patient_name = $5,
		    phone = $6,
		    appointment_date = $7::text::date,
		    start_time = $8::text::time,
		    end_time = $9::text::time,
		    appointment_time = $10,
		    appointment_type = $11,
		    status = $12,
		    fee = $13,
		    notes = $14,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentCols,
		a.ID, a.DoctorID, a.DoctorName, a.PatientID, a.PatientName, a.Phone,
		a.Date, a.StartTime, a.EndTime, a.AppointmentTime, a.Type, a.Status,
		a.Fee, a.Notes,
	)

	updated, err := scanAppointment(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return updated, nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment_events (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
