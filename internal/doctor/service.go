package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-front-office/internal/validation"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateDoctor(ctx context.Context, in Input) (*Doctor, error) {
	d, err := build(in)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, d)
	if err != nil {
		return nil, wrap("create doctor", err)
	}
	return created, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, in Input) (*Doctor, error) {
	d, err := build(in)
	if err != nil {
		return nil, err
	}
	d.ID = id

	updated, err := s.repo.Update(ctx, d)
	if err != nil {
		return nil, wrap("update doctor", err)
	}
	return updated, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrap("get doctor", err)
	}
	return d, nil
}

func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return wrap("delete doctor", err)
	}
	return nil
}

// ListDoctors returns doctors ordered by name.
func (s *Service) ListDoctors(ctx context.Context, f ListFilter) ([]Doctor, error) {
	if f.Status != "" && f.Status != StatusActive && f.Status != StatusInactive {
		return nil, validation.Field("status", "status must be one of: Active, Inactive")
	}

	doctors, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

func (s *Service) DoctorStats(ctx context.Context) (Stats, error) {
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("doctor stats: %w", err)
	}
	return st, nil
}

func build(in Input) (*Doctor, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.LicenseNumber = strings.TrimSpace(in.LicenseNumber)
	in.Specialization = strings.TrimSpace(in.Specialization)
	in.Qualification = strings.TrimSpace(in.Qualification)

	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = StatusActive
	}

	return &Doctor{
		Name:            in.Name,
		Email:           in.Email,
		Phone:           in.Phone,
		LicenseNumber:   in.LicenseNumber,
		Specialization:  in.Specialization,
		Status:          status,
		ExperienceYears: *in.ExperienceYears,
		Qualification:   in.Qualification,
		Address:         strings.TrimSpace(in.Address),
	}, nil
}

// wrap keeps sentinel errors bare so callers can match them directly.
func wrap(op string, err error) error {
	if errors.Is(err, ErrDoctorNotFound) || errors.Is(err, ErrDuplicateDoctor) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
