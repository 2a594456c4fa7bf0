package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type overlap struct {
	DoctorID    uuid.UUID
	FirstID     uuid.UUID
	FirstStart  string
	FirstEnd    string
	SecondID    uuid.UUID
	SecondStart string
	SecondEnd   string
}

// findOverlaps reads straight from the table so it catches anything the API
// let through, regardless of how it got there.
func findOverlaps(ctx context.Context, pool *pgxpool.Pool, date string) ([]overlap, error) {
	rows, err := pool.Query(ctx, `
		SELECT a.doctor_id,
		       a.id, to_char(a.start_time, 'HH24:MI'), to_char(a.end_time, 'HH24:MI'),
		       b.id, to_char(b.start_time, 'HH24:MI'), to_char(b.end_time, 'HH24:MI')
		FROM appointments a
		JOIN appointments b
		  ON a.doctor_id = b.doctor_id
		 AND a.appointment_date = b.appointment_date
		 AND a.id < b.id
		 AND a.start_time < b.end_time
		 AND b.start_time < a.end_time
		WHERE a.appointment_date = $1::date
		  AND a.status <> 'Cancelled'
		  AND b.status <> 'Cancelled'
		ORDER BY a.doctor_id, a.start_time`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []overlap
	for rows.Next() {
		var o overlap
		if err := rows.Scan(&o.DoctorID, &o.FirstID, &o.FirstStart, &o.FirstEnd, &o.SecondID, &o.SecondStart, &o.SecondEnd); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
