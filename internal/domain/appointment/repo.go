package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/medibook/medibook/pkg/pagination"
)

var (
	ErrNotFound = errors.New("appointment: not found")
	// ErrSlotTaken is returned by Create when the slot key already exists.
	ErrSlotTaken = errors.New("appointment: slot already booked")
	// ErrInvalidFee is returned by Create when the store rejects the fee.
	ErrInvalidFee = errors.New("appointment: consultation fee must not be negative")
	// ErrStatusChanged is returned by CompareAndSetStatus when the stored
	// status no longer matches the expected one.
	ErrStatusChanged = errors.New("appointment: status changed concurrently")
)

type Repository interface {
	// Create inserts a. The store's unique slot constraint is authoritative;
	// a violation is reported as ErrSlotTaken.
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	SlotTaken(ctx context.Context, key SlotKey) (bool, error)
	// CompareAndSetStatus moves the appointment to `to` only if its stored
	// status is still `from`, bumping version_id and updated_at.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)
	// List* return most recently created first.
	ListByPatient(ctx context.Context, patientID uuid.UUID, page pagination.Params) ([]*Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, page pagination.Params) ([]*Appointment, error)
	ListAll(ctx context.Context, page pagination.Params) ([]*Appointment, error)
}
