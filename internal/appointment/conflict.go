package appointment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-front-office/internal/validation"
)

var (
	ErrTimeConflict = errors.New("time slot conflicts with an existing appointment")
	ErrInvalidClock = errors.New("time must be HH:MM")
	ErrInvalidDate  = errors.New("date must be YYYY-MM-DD")
)

// Interval is a half-open [Start, End) range of HH:MM clock values.
type Interval struct {
	Start string
	End   string
}

// Overlaps reports whether two intervals share any instant. Touching
// endpoints do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && a.End > b.Start
}

// ParseClock accepts HH:MM or the HH:MM:SS form Postgres returns and yields
// the zero padded HH:MM used for comparison.
func ParseClock(s string) (string, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return "", ErrInvalidClock
	}
	for _, p := range parts {
		if len(p) != 2 {
			return "", ErrInvalidClock
		}
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return "", ErrInvalidClock
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return "", ErrInvalidClock
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return "", ErrInvalidClock
		}
	}

	return fmt.Sprintf("%02d:%02d", h, m), nil
}

func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// ConflictQuery asks whether [Start, End) on Date is free for DoctorID.
// ExcludeID skips one appointment, used when editing it.
type ConflictQuery struct {
	DoctorID  uuid.UUID
	Date      string
	Start     string
	End       string
	ExcludeID uuid.UUID
}

type ConflictResult struct {
	Conflict    bool         `json:"conflict"`
	Conflicting *Appointment `json:"conflicting_appointment,omitempty"`
	Message     string       `json:"message,omitempty"`
}

// ConflictError carries the appointment that blocks a booking. Existing is
// nil when only the database constraint caught the overlap.
type ConflictError struct {
	Existing *Appointment
}

func (e *ConflictError) Error() string {
	if e.Existing == nil {
		return ErrTimeConflict.Error()
	}
	return ConflictMessage(*e.Existing)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrTimeConflict
}

func ConflictMessage(a Appointment) string {
	return fmt.Sprintf("Doctor has existing appointment from %s to %s", a.StartTime, a.EndTime)
}

// FindConflict returns the first candidate, in the given order, that
// overlaps iv. Cancelled appointments and exclude are skipped.
func FindConflict(candidates []Appointment, iv Interval, exclude uuid.UUID) *Appointment {
	for i := range candidates {
		c := candidates[i]
		if exclude != uuid.Nil && c.ID == exclude {
			continue
		}
		if c.Status == StatusCancelled {
			continue
		}
		start, err := ParseClock(c.StartTime)
		if err != nil {
			continue
		}
		end, err := ParseClock(c.EndTime)
		if err != nil {
			continue
		}
		if Overlaps(iv, Interval{Start: start, End: end}) {
			return &c
		}
	}
	return nil
}

// normalize validates q and returns it with clock values in HH:MM form.
func (q ConflictQuery) normalize() (ConflictQuery, error) {
	errs := &validation.Error{}

	if q.DoctorID == uuid.Nil {
		errs.Add("doctor_id", "doctor_id is required")
	}
	if q.Date == "" {
		errs.Add("date", "date is required")
	} else if _, err := ParseDate(q.Date); err != nil {
		errs.Add("date", "date must be a date in YYYY-MM-DD format")
	}

	start, end, err := parseRange(q.Start, q.End, "start_time", "end_time")
	if mergeErr := errs.Merge(err); mergeErr != nil {
		return q, mergeErr
	}
	if err := errs.OrNil(); err != nil {
		return q, err
	}

	q.Start, q.End = start, end
	return q, nil
}

// parseRange validates a start/end pair and requires start < end.
func parseRange(rawStart, rawEnd, startField, endField string) (string, string, error) {
	errs := &validation.Error{}

	start, err := ParseClock(rawStart)
	switch {
	case rawStart == "":
		errs.Add(startField, startField+" is required")
	case err != nil:
		errs.Add(startField, startField+" must be a time in HH:MM format")
	}

	end, err := ParseClock(rawEnd)
	switch {
	case rawEnd == "":
		errs.Add(endField, endField+" is required")
	case err != nil:
		errs.Add(endField, endField+" must be a time in HH:MM format")
	}

	if err := errs.OrNil(); err != nil {
		return "", "", err
	}
	if start >= end {
		return "", "", validation.Field(endField, endField+" must be after "+startField)
	}
	return start, end, nil
}
