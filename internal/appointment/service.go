package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-front-office/internal/doctor"
	"github.com/hackgods/clinic-front-office/internal/patient"
	redisclient "github.com/hackgods/clinic-front-office/internal/redis"
	"github.com/hackgods/clinic-front-office/internal/validation"
)

const (
	EventAppointmentCreated = "APPOINTMENT_CREATED"
	EventAppointmentUpdated = "APPOINTMENT_UPDATED"
	EventAppointmentDeleted = "APPOINTMENT_DELETED"
)

var (
	ErrScheduleBusy = errors.New("another booking for this doctor and date is in progress, please retry")
)

type DoctorLookup interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
}

type PatientLookup interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type Service struct {
	repo     Repository
	doctors  DoctorLookup
	patients PatientLookup
	locker   redisclient.Locker
	log      zerolog.Logger
}

func NewService(repo Repository, doctors DoctorLookup, patients PatientLookup, locker redisclient.Locker, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		doctors:  doctors,
		patients: patients,
		locker:   locker,
		log:      log,
	}
}

// CheckConflict reports the first non-cancelled appointment of the doctor on
// the date that overlaps the queried interval. It never writes.
func (s *Service) CheckConflict(ctx context.Context, q ConflictQuery) (ConflictResult, error) {
	q, err := q.normalize()
	if err != nil {
		return ConflictResult{}, err
	}

	hit, err := s.findConflict(ctx, q)
	if err != nil {
		return ConflictResult{}, err
	}
	if hit == nil {
		return ConflictResult{}, nil
	}

	return ConflictResult{
		Conflict:    true,
		Conflicting: hit,
		Message:     ConflictMessage(*hit),
	}, nil
}

func (s *Service) findConflict(ctx context.Context, q ConflictQuery) (*Appointment, error) {
	existing, err := s.repo.ListByDoctorAndDate(ctx, q.DoctorID, q.Date)
	if err != nil {
		return nil, fmt.Errorf("list doctor appointments: %w", err)
	}
	return FindConflict(existing, Interval{Start: q.Start, End: q.End}, q.ExcludeID), nil
}

// CreateAppointment books an appointment. The conflict check and the insert
// run under a per doctor/date lock so concurrent bookings cannot both pass
// the check.
func (s *Service) CreateAppointment(ctx context.Context, in Input) (*Appointment, error) {
	appt, err := s.prepare(ctx, in, nil)
	if err != nil {
		return nil, err
	}

	var created *Appointment

	err = s.withScheduleLock(ctx, appt, func(lockCtx context.Context) error {
		if err := s.ensureFree(lockCtx, appt, uuid.Nil); err != nil {
			return err
		}

		c, err := s.repo.Create(lockCtx, appt)
		if err != nil {
			return s.writeError(lockCtx, appt, uuid.Nil, "create appointment", err)
		}
		created = c

		s.logEvent(lockCtx, c.ID, EventAppointmentCreated, map[string]any{
			"doctor_id":  c.DoctorID.String(),
			"patient_id": c.PatientID.String(),
			"date":       c.Date,
			"time":       c.AppointmentTime,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateAppointment applies the edit form to an existing appointment. The
// new interval is checked against every other appointment of the doctor.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, in Input) (*Appointment, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	appt, err := s.prepare(ctx, in, current)
	if err != nil {
		return nil, err
	}
	appt.ID = id

	var updated *Appointment

	err = s.withScheduleLock(ctx, appt, func(lockCtx context.Context) error {
		if err := s.ensureFree(lockCtx, appt, id); err != nil {
			return err
		}

		u, err := s.repo.Update(lockCtx, appt)
		if err != nil {
			return s.writeError(lockCtx, appt, id, "update appointment", err)
		}
		updated = u

		s.logEvent(lockCtx, u.ID, EventAppointmentUpdated, map[string]any{
			"date":   u.Date,
			"time":   u.AppointmentTime,
			"status": string(u.Status),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
		return fmt.Errorf("delete appointment: %w", err)
	}

	s.logEvent(ctx, id, EventAppointmentDeleted, map[string]any{})
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// ListAppointments returns matching appointments ordered by date and start time.
func (s *Service) ListAppointments(ctx context.Context, f ListFilter) ([]Appointment, error) {
	errs := &validation.Error{}
	for field, value := range map[string]string{"date": f.Date, "from": f.DateFrom, "to": f.DateTo} {
		if value == "" {
			continue
		}
		if _, err := ParseDate(value); err != nil {
			errs.Add(field, field+" must be a date in YYYY-MM-DD format")
		}
	}
	if f.Status != "" && !f.Status.Valid() {
		errs.Add("status", "status is invalid")
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	appts, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// ListByDate is the calendar day view.
func (s *Service) ListByDate(ctx context.Context, date string) ([]Appointment, error) {
	if date == "" {
		return nil, validation.Field("date", "date is required")
	}
	return s.ListAppointments(ctx, ListFilter{Date: date})
}

// ListByMonth is the calendar month view keyed by YYYY-MM-DD. Days without
// appointments are absent.
func (s *Service) ListByMonth(ctx context.Context, year, month int) (map[string][]Appointment, error) {
	errs := &validation.Error{}
	if year < 1 || year > 9999 {
		errs.Add("year", "year is invalid")
	}
	if month < 1 || month > 12 {
		errs.Add("month", "month must be between 1 and 12")
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	appts, err := s.ListAppointments(ctx, ListFilter{
		DateFrom: first.Format("2006-01-02"),
		DateTo:   last.Format("2006-01-02"),
	})
	if err != nil {
		return nil, err
	}

	byDay := make(map[string][]Appointment)
	for _, a := range appts {
		byDay[a.Date] = append(byDay[a.Date], a)
	}
	return byDay, nil
}

// prepare validates in and builds the row to write. current is the stored
// appointment when editing; its name snapshots are kept unless the doctor or
// patient changes.
func (s *Service) prepare(ctx context.Context, in Input, current *Appointment) (*Appointment, error) {
	errs := &validation.Error{}
	if err := errs.Merge(validation.Struct(in)); err != nil {
		return nil, err
	}

	start, end, err := parseRange(in.StartTime, in.EndTime, "start_time", "end_time")
	if err := errs.Merge(err); err != nil {
		return nil, err
	}
	if in.Fee.IsNegative() {
		errs.Add("fee", "fee must not be negative")
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	doctorID, err := uuid.Parse(in.DoctorID)
	if err != nil {
		return nil, validation.Field("doctor_id", "doctor_id must be a valid id")
	}
	patientID, err := uuid.Parse(in.PatientID)
	if err != nil {
		return nil, validation.Field("patient_id", "patient_id must be a valid id")
	}

	appt := &Appointment{
		DoctorID:        doctorID,
		PatientID:       patientID,
		Date:            in.Date,
		StartTime:       start,
		EndTime:         end,
		AppointmentTime: DisplayTime(start, end),
		Type:            in.Type,
		Status:          in.Status,
		Fee:             in.Fee,
		Notes:           in.Notes,
	}

	if appt.Type == "" {
		appt.Type = TypeEmergency
		if current != nil {
			appt.Type = current.Type
		}
	}
	if appt.Status == "" {
		appt.Status = StatusScheduled
		if current != nil {
			appt.Status = current.Status
		}
	}

	if current != nil && current.DoctorID == doctorID {
		appt.DoctorName = current.DoctorName
	} else {
		doc, err := s.doctors.GetDoctor(ctx, doctorID)
		if err != nil {
			if errors.Is(err, doctor.ErrDoctorNotFound) {
				return nil, validation.Field("doctor_id", "doctor not found")
			}
			return nil, fmt.Errorf("load doctor: %w", err)
		}
		appt.DoctorName = doc.Name
	}

	if current != nil && current.PatientID == patientID {
		appt.PatientName = current.PatientName
		appt.Phone = current.Phone
	} else {
		p, err := s.patients.GetPatient(ctx, patientID)
		if err != nil {
			if errors.Is(err, patient.ErrPatientNotFound) {
				return nil, validation.Field("patient_id", "patient not found")
			}
			return nil, fmt.Errorf("load patient: %w", err)
		}
		appt.PatientName = p.FullName
		appt.Phone = p.PhoneNumber
	}

	return appt, nil
}

func (s *Service) withScheduleLock(ctx context.Context, appt *Appointment, fn func(ctx context.Context) error) error {
	err := s.locker.WithLock(ctx, redisclient.DoctorDayKey(appt.DoctorID, appt.Date), fn)
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrScheduleBusy
	}
	return err
}

// ensureFree fails with a *ConflictError when appt overlaps another live
// appointment. A cancelled appointment occupies nothing.
func (s *Service) ensureFree(ctx context.Context, appt *Appointment, exclude uuid.UUID) error {
	if appt.Status == StatusCancelled {
		return nil
	}

	hit, err := s.findConflict(ctx, ConflictQuery{
		DoctorID:  appt.DoctorID,
		Date:      appt.Date,
		Start:     appt.StartTime,
		End:       appt.EndTime,
		ExcludeID: exclude,
	})
	if err != nil {
		return err
	}
	if hit != nil {
		return &ConflictError{Existing: hit}
	}
	return nil
}

// writeError wraps a repository write failure. An exclusion violation means a
// writer outside the lock won the interval, so the winner is looked up for
// the conflict message.
func (s *Service) writeError(ctx context.Context, appt *Appointment, exclude uuid.UUID, op string, err error) error {
	if !errors.Is(err, ErrTimeConflict) {
		if errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	hit, findErr := s.findConflict(ctx, ConflictQuery{
		DoctorID:  appt.DoctorID,
		Date:      appt.Date,
		Start:     appt.StartTime,
		End:       appt.EndTime,
		ExcludeID: exclude,
	})
	if findErr != nil {
		s.log.Warn().Err(findErr).Str("doctor_id", appt.DoctorID.String()).Msg("failed to load conflicting appointment")
	}
	return &ConflictError{Existing: hit}
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn().
			Err(err).
			Str("event_type", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("failed to insert event log")
	}
}
