package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a doctor record does not exist.
var ErrNotFound = errors.New("directory: not found")

// Directory is the read side of the doctor and user stores.
type Directory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	// FindOwnedBy returns the doctor profile whose owning user is userID.
	FindOwnedBy(ctx context.Context, userID uuid.UUID) (*Doctor, error)
	// ListAvailable returns available doctors whose owning user is approved.
	ListAvailable(ctx context.Context) ([]*AvailableDoctor, error)
	// PatientsByIDs and DoctorsByIDs resolve display fields in one round
	// trip. Missing ids are simply absent from the result.
	PatientsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*PatientProfile, error)
	DoctorsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*DoctorProfile, error)
}
