package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-front-office/internal/validation"
)

func FormatMRNumber(n int64) string {
	return fmt.Sprintf("MR-%06d", n)
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreatePatient registers a patient, assigning the next MR number when none
// is supplied and deriving age from the date of birth.
func (s *Service) CreatePatient(ctx context.Context, in Input) (*Patient, error) {
	p, err := s.build(in)
	if err != nil {
		return nil, err
	}

	if p.MRNumber == "" {
		mr, err := s.repo.NextMRNumber(ctx)
		if err != nil {
			return nil, err
		}
		p.MRNumber = mr
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, wrap("create patient", err)
	}
	return created, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, in Input) (*Patient, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrap("load patient", err)
	}

	p, err := s.build(in)
	if err != nil {
		return nil, err
	}
	p.ID = id
	if p.MRNumber == "" {
		p.MRNumber = current.MRNumber
	}

	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return nil, wrap("update patient", err)
	}
	return updated, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrap("get patient", err)
	}
	return p, nil
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return wrap("delete patient", err)
	}
	return nil
}

// ListPatients returns patients ordered by full name. It also serves the
// booking patient search.
func (s *Service) ListPatients(ctx context.Context, f ListFilter) ([]Patient, error) {
	if f.Status != "" && f.Status != StatusActive && f.Status != StatusInactive {
		return nil, validation.Field("status", "status must be one of: Active, Inactive")
	}

	patients, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return patients, nil
}

func (s *Service) PatientStats(ctx context.Context) (Stats, error) {
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("patient stats: %w", err)
	}
	return st, nil
}

func (s *Service) build(in Input) (*Patient, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.EmailAddress = strings.TrimSpace(in.EmailAddress)
	in.DateOfBirth = strings.TrimSpace(in.DateOfBirth)

	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	p := &Patient{
		FullName:              in.FullName,
		PhoneNumber:           in.PhoneNumber,
		MRNumber:              strings.TrimSpace(in.MRNumber),
		EmailAddress:          in.EmailAddress,
		Gender:                in.Gender,
		BloodGroup:            in.BloodGroup,
		Address:               in.Address,
		City:                  in.City,
		State:                 in.State,
		ZipCode:               in.ZipCode,
		Country:               in.Country,
		EmergencyContactPhone: in.EmergencyContactPhone,
		Occupation:            in.Occupation,
		MaritalStatus:         in.MaritalStatus,
		InsuranceProvider:     in.InsuranceProvider,
		InsuranceNumber:       in.InsuranceNumber,
		AdditionalNotes:       in.AdditionalNotes,
		Status:                in.Status,
	}
	if p.Status == "" {
		p.Status = StatusActive
	}

	if in.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", in.DateOfBirth)
		if err != nil {
			return nil, validation.Field("date_of_birth", "date_of_birth must be a date in YYYY-MM-DD format")
		}
		if dob.After(s.now()) {
			return nil, validation.Field("date_of_birth", "date_of_birth must not be in the future")
		}
		age := AgeOn(dob, s.now())
		dobStr := in.DateOfBirth
		p.DateOfBirth = &dobStr
		p.Age = &age
	}

	return p, nil
}

func wrap(op string, err error) error {
	if errors.Is(err, ErrPatientNotFound) || errors.Is(err, ErrDuplicateMR) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
