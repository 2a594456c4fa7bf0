package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/hackgods/clinic-front-office/internal/appointment"
	"github.com/hackgods/clinic-front-office/internal/doctor"
	"github.com/hackgods/clinic-front-office/internal/patient"
	"github.com/hackgods/clinic-front-office/internal/validation"
)

// Scheduler is the part of the appointment service the workflow drives.
type Scheduler interface {
	CheckConflict(ctx context.Context, q appointment.ConflictQuery) (appointment.ConflictResult, error)
	CreateAppointment(ctx context.Context, in appointment.Input) (*appointment.Appointment, error)
}

type ScheduleInput struct {
	Date      string `json:"appointment_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type DetailsInput struct {
	Type   appointment.Type   `json:"appointment_type"`
	Status appointment.Status `json:"status"`
	Fee    decimal.Decimal    `json:"fee"`
	Notes  string             `json:"notes"`
}

type Service struct {
	store     Store
	scheduler Scheduler
	doctors   appointment.DoctorLookup
	patients  appointment.PatientLookup
	log       zerolog.Logger
	now       func() time.Time
}

func NewService(store Store, scheduler Scheduler, doctors appointment.DoctorLookup, patients appointment.PatientLookup, log zerolog.Logger) *Service {
	return &Service{
		store:     store,
		scheduler: scheduler,
		doctors:   doctors,
		patients:  patients,
		log:       log,
		now:       time.Now,
	}
}

func (s *Service) Start(ctx context.Context) (*Draft, error) {
	d := NewDraft(s.now())
	if err := s.store.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Draft, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) SelectDoctor(ctx context.Context, id, doctorID uuid.UUID) (*Draft, error) {
	return s.mutate(ctx, id, func(d *Draft) error {
		doc, err := s.doctors.GetDoctor(ctx, doctorID)
		if err != nil {
			if errors.Is(err, doctor.ErrDoctorNotFound) {
				return validation.Field("doctor_id", "doctor not found")
			}
			return fmt.Errorf("load doctor: %w", err)
		}
		if err := d.SetDoctor(doc.ID, doc.Name); err != nil {
			return err
		}
		s.recheck(ctx, d)
		return nil
	})
}

func (s *Service) SelectPatient(ctx context.Context, id, patientID uuid.UUID) (*Draft, error) {
	return s.mutate(ctx, id, func(d *Draft) error {
		p, err := s.patients.GetPatient(ctx, patientID)
		if err != nil {
			if errors.Is(err, patient.ErrPatientNotFound) {
				return validation.Field("patient_id", "patient not found")
			}
			return fmt.Errorf("load patient: %w", err)
		}
		return d.SetPatient(p.ID, p.FullName, p.PhoneNumber, p.MRNumber)
	})
}

// SetSchedule stores the date and interval and immediately re-runs the
// conflict check when the schedule is complete.
func (s *Service) SetSchedule(ctx context.Context, id uuid.UUID, in ScheduleInput) (*Draft, error) {
	return s.mutate(ctx, id, func(d *Draft) error {
		if err := d.SetSchedule(in.Date, in.StartTime, in.EndTime); err != nil {
			return err
		}
		s.recheck(ctx, d)
		return nil
	})
}

func (s *Service) SetDetails(ctx context.Context, id uuid.UUID, in DetailsInput) (*Draft, error) {
	return s.mutate(ctx, id, func(d *Draft) error {
		return d.SetDetails(in.Type, in.Status, in.Fee, in.Notes)
	})
}

// Recheck re-runs the conflict check, e.g. after a failed check left the
// draft in the unknown state.
func (s *Service) Recheck(ctx context.Context, id uuid.UUID) (*Draft, error) {
	return s.mutate(ctx, id, func(d *Draft) error {
		if d.Finished() {
			return ErrDraftFinished
		}
		s.recheck(ctx, d)
		return nil
	})
}

func (s *Service) Next(ctx context.Context, id uuid.UUID) (*Draft, error) {
	return s.mutate(ctx, id, func(d *Draft) error {
		return d.Next()
	})
}

func (s *Service) Back(ctx context.Context, id uuid.UUID) (*Draft, error) {
	return s.mutate(ctx, id, func(d *Draft) error {
		return d.Back()
	})
}

// Commit books the appointment described by the draft. The conflict check is
// repeated first; any failure leaves the draft on the confirmation step.
func (s *Service) Commit(ctx context.Context, id uuid.UUID) (*Draft, *appointment.Appointment, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if d.Finished() {
		return d, nil, ErrDraftFinished
	}
	if d.State != StateDetailsConfirm {
		return d, nil, ErrInvalidTransition
	}

	res, err := s.scheduler.CheckConflict(ctx, d.conflictQuery())
	if err != nil {
		return d, nil, fmt.Errorf("check conflict: %w", err)
	}
	d.ApplyConflict(res)
	if res.Conflict {
		return d, nil, s.saveThen(ctx, d, &appointment.ConflictError{Existing: res.Conflicting})
	}

	appt, err := s.scheduler.CreateAppointment(ctx, d.Input())
	if err != nil {
		var cerr *appointment.ConflictError
		if errors.As(err, &cerr) {
			d.ApplyConflict(appointment.ConflictResult{Conflict: true, Conflicting: cerr.Existing, Message: cerr.Error()})
			return d, nil, s.saveThen(ctx, d, err)
		}
		return d, nil, err
	}

	d.State = StateCommitted
	d.AppointmentID = &appt.ID
	d.UpdatedAt = s.now()
	if err := s.store.Save(ctx, d); err != nil {
		// the appointment exists; losing the draft only loses the wizard view
		s.log.Warn().Err(err).Str("appointment_id", appt.ID.String()).Msg("failed to save committed draft")
	}

	return d, appt, nil
}

// Cancel closes the wizard and discards the draft.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(d *Draft) error) (*Draft, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(d); err != nil {
		return d, err
	}
	d.UpdatedAt = s.now()
	if err := s.store.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) saveThen(ctx context.Context, d *Draft, err error) error {
	d.UpdatedAt = s.now()
	if saveErr := s.store.Save(ctx, d); saveErr != nil {
		s.log.Warn().Err(saveErr).Str("draft_id", d.ID.String()).Msg("failed to save draft")
	}
	return err
}

// recheck leaves the conflict state unknown when the schedule is incomplete
// or the check fails, which blocks Next until a later check succeeds.
func (s *Service) recheck(ctx context.Context, d *Draft) {
	if !d.ScheduleComplete() {
		d.resetConflict()
		return
	}

	res, err := s.scheduler.CheckConflict(ctx, d.conflictQuery())
	if err != nil {
		d.resetConflict()
		s.log.Warn().
			Err(err).
			Str("draft_id", d.ID.String()).
			Str("doctor_id", d.DoctorID.String()).
			Msg("conflict check failed")
		return
	}
	d.ApplyConflict(res)
}

func (d *Draft) conflictQuery() appointment.ConflictQuery {
	q := appointment.ConflictQuery{
		Date:  d.Date,
		Start: d.StartTime,
		End:   d.EndTime,
	}
	if d.DoctorID != nil {
		q.DoctorID = *d.DoctorID
	}
	return q
}
