package invoice

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
)

// Repository writes an invoice header and its lines. Create and Update expect
// to run inside a transaction opened by the caller.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) (*Invoice, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	List(ctx context.Context, f ListFilter) ([]Invoice, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
