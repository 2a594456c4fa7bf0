package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hackgods/clinic-front-office/internal/appointment"
	"github.com/hackgods/clinic-front-office/internal/validation"
)

type State string

const (
	StateSelectDoctorPatient State = "select_doctor_patient"
	StateScheduleTime        State = "schedule_time"
	StateDetailsConfirm      State = "details_confirm"
	StateCommitted           State = "committed"
	StateClosed              State = "closed"
)

// ConflictState is the outcome of the last conflict check on the draft's
// doctor, date and interval.
type ConflictState string

const (
	ConflictUnknown ConflictState = "unknown"
	ConflictClear   ConflictState = "clear"
	ConflictFound   ConflictState = "conflict"
)

var (
	ErrInvalidTransition  = errors.New("transition not allowed from the current step")
	ErrDraftFinished      = errors.New("booking is already committed or closed")
	ErrConflictUnresolved = errors.New("conflict check has not completed for the selected time")
)

// Draft is an in-progress booking. It is never written to Postgres.
type Draft struct {
	ID    uuid.UUID `json:"id"`
	State State     `json:"state"`

	DoctorID   *uuid.UUID `json:"doctor_id,omitempty"`
	DoctorName string     `json:"doctor_name,omitempty"`

	PatientID    *uuid.UUID `json:"patient_id,omitempty"`
	PatientName  string     `json:"patient_name,omitempty"`
	PatientPhone string     `json:"patient_phone,omitempty"`
	PatientMR    string     `json:"patient_mr,omitempty"`

	Date      string `json:"appointment_date,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`

	Type   appointment.Type   `json:"appointment_type"`
	Status appointment.Status `json:"status"`
	Fee    decimal.Decimal    `json:"fee"`
	Notes  string             `json:"notes"`

	Conflict        ConflictState            `json:"conflict_state"`
	Conflicting     *appointment.Appointment `json:"conflicting_appointment,omitempty"`
	ConflictMessage string                   `json:"conflict_message,omitempty"`

	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewDraft(now time.Time) *Draft {
	return &Draft{
		ID:        uuid.New(),
		State:     StateSelectDoctorPatient,
		Type:      appointment.TypeEmergency,
		Status:    appointment.StatusScheduled,
		Fee:       decimal.Zero,
		Conflict:  ConflictUnknown,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (d *Draft) Finished() bool {
	return d.State == StateCommitted || d.State == StateClosed
}

// ScheduleComplete reports whether doctor, date and both times are set, which
// is what a conflict check needs.
func (d *Draft) ScheduleComplete() bool {
	return d.DoctorID != nil && d.Date != "" && d.StartTime != "" && d.EndTime != ""
}

func (d *Draft) SetDoctor(id uuid.UUID, name string) error {
	if d.Finished() {
		return ErrDraftFinished
	}
	d.DoctorID = &id
	d.DoctorName = name
	d.resetConflict()
	return nil
}

func (d *Draft) SetPatient(id uuid.UUID, name, phone, mr string) error {
	if d.Finished() {
		return ErrDraftFinished
	}
	d.PatientID = &id
	d.PatientName = name
	d.PatientPhone = phone
	d.PatientMR = mr
	return nil
}

// SetSchedule stores date and interval. Empty values are allowed so the
// form can be filled in piece by piece; filled values must be well formed and
// start must precede end once both are present.
func (d *Draft) SetSchedule(date, start, end string) error {
	if d.Finished() {
		return ErrDraftFinished
	}

	errs := &validation.Error{}
	if date != "" {
		if _, err := appointment.ParseDate(date); err != nil {
			errs.Add("appointment_date", "appointment_date must be a date in YYYY-MM-DD format")
		}
	}
	if start != "" {
		s, err := appointment.ParseClock(start)
		if err != nil {
			errs.Add("start_time", "start_time must be a time in HH:MM format")
		}
		start = s
	}
	if end != "" {
		e, err := appointment.ParseClock(end)
		if err != nil {
			errs.Add("end_time", "end_time must be a time in HH:MM format")
		}
		end = e
	}
	if err := errs.OrNil(); err != nil {
		return err
	}
	if start != "" && end != "" && start >= end {
		return validation.Field("end_time", "end_time must be after start_time")
	}

	d.Date = date
	d.StartTime = start
	d.EndTime = end
	d.resetConflict()
	return nil
}

func (d *Draft) SetDetails(t appointment.Type, status appointment.Status, fee decimal.Decimal, notes string) error {
	if d.Finished() {
		return ErrDraftFinished
	}

	errs := &validation.Error{}
	if t != "" && !t.Valid() {
		errs.Add("appointment_type", "appointment_type must be one of: Emergency, Regular, Follow-up, Consultation")
	}
	if status != "" && !status.Valid() {
		errs.Add("status", "status must be one of: Scheduled, Confirmed, Pending, Cancelled, Completed")
	}
	if fee.IsNegative() {
		errs.Add("fee", "fee must not be negative")
	}
	if err := errs.OrNil(); err != nil {
		return err
	}

	if t != "" {
		d.Type = t
	}
	if status != "" {
		d.Status = status
	}
	d.Fee = fee
	d.Notes = notes
	return nil
}

// ApplyConflict records the result of a conflict check.
func (d *Draft) ApplyConflict(res appointment.ConflictResult) {
	if res.Conflict {
		d.Conflict = ConflictFound
		d.Conflicting = res.Conflicting
		d.ConflictMessage = res.Message
		return
	}
	d.Conflict = ConflictClear
	d.Conflicting = nil
	d.ConflictMessage = ""
}

func (d *Draft) resetConflict() {
	d.Conflict = ConflictUnknown
	d.Conflicting = nil
	d.ConflictMessage = ""
}

// Next advances one step when the current step's gate holds. On failure the
// state is unchanged.
func (d *Draft) Next() error {
	switch d.State {
	case StateSelectDoctorPatient:
		errs := &validation.Error{}
		if d.DoctorID == nil {
			errs.Add("doctor_id", "Please select a doctor")
		}
		if d.PatientID == nil {
			errs.Add("patient_id", "Please select a patient")
		}
		if err := errs.OrNil(); err != nil {
			return err
		}
		d.State = StateScheduleTime
		return nil

	case StateScheduleTime:
		if err := d.scheduleGate(); err != nil {
			return err
		}
		d.State = StateDetailsConfirm
		return nil

	case StateCommitted, StateClosed:
		return ErrDraftFinished
	}
	return ErrInvalidTransition
}

// Back returns to the previous step without re-validating anything.
func (d *Draft) Back() error {
	switch d.State {
	case StateScheduleTime:
		d.State = StateSelectDoctorPatient
		return nil
	case StateDetailsConfirm:
		d.State = StateScheduleTime
		return nil
	case StateCommitted, StateClosed:
		return ErrDraftFinished
	}
	return ErrInvalidTransition
}

func (d *Draft) scheduleGate() error {
	errs := &validation.Error{}
	if d.Date == "" {
		errs.Add("appointment_date", "Please select a date")
	}
	if d.StartTime == "" {
		errs.Add("start_time", "Please select a start time")
	}
	if d.EndTime == "" {
		errs.Add("end_time", "Please select an end time")
	}
	if err := errs.OrNil(); err != nil {
		return err
	}

	switch d.Conflict {
	case ConflictFound:
		return &appointment.ConflictError{Existing: d.Conflicting}
	case ConflictUnknown:
		return ErrConflictUnresolved
	}
	return nil
}

// Input builds the appointment form submitted on commit.
func (d *Draft) Input() appointment.Input {
	in := appointment.Input{
		Date:      d.Date,
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
		Type:      d.Type,
		Status:    d.Status,
		Fee:       d.Fee,
		Notes:     d.Notes,
	}
	if d.DoctorID != nil {
		in.DoctorID = d.DoctorID.String()
	}
	if d.PatientID != nil {
		in.PatientID = d.PatientID.String()
	}
	return in
}
