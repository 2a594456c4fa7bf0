package doctor

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrDuplicateDoctor = errors.New("doctor already exists")
)

// DuplicateError names the unique field a write collided on.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	switch e.Field {
	case "email":
		return "email is already registered"
	case "license_number":
		return "license number is already registered"
	}
	return ErrDuplicateDoctor.Error()
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicateDoctor
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	List(ctx context.Context, f ListFilter) ([]Doctor, error)
	Create(ctx context.Context, d *Doctor) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) (*Doctor, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (Stats, error)
}
