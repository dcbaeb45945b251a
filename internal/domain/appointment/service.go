package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medibook/medibook/internal/domain/directory"
	"github.com/medibook/medibook/internal/platform/apperr"
	"github.com/medibook/medibook/internal/platform/auth"
	"github.com/medibook/medibook/pkg/pagination"
)

// maxStatusAttempts bounds the compare-and-set loop in UpdateStatus.
const maxStatusAttempts = 3

// BookInput is a validated booking request.
type BookInput struct {
	DoctorID        uuid.UUID
	AppointmentDate Date
	TimeSlot        string
	ConsultationFee *float64
}

func (in BookInput) validate() error {
	if in.DoctorID == uuid.Nil || in.AppointmentDate.IsZero() || strings.TrimSpace(in.TimeSlot) == "" {
		return apperr.Validation(msgMissingBookingFields)
	}
	return nil
}

type Service struct {
	repo    Repository
	dir     directory.Directory
	logger  zerolog.Logger
	metrics *Metrics
}

func NewService(repo Repository, dir directory.Directory, logger zerolog.Logger, metrics *Metrics) *Service {
	return &Service{
		repo:    repo,
		dir:     dir,
		logger:  logger.With().Str("component", "appointment").Logger(),
		metrics: metrics,
	}
}

// -- Booking --

// Book creates a pending appointment for the patient actor.
func (s *Service) Book(ctx context.Context, actor auth.Actor, in BookInput) (appt *Appointment, err error) {
	defer func() {
		s.metrics.observeBooking(err)
		if err != nil {
			s.logger.Debug().Err(err).Str("patient_id", actor.ID.String()).Msg("booking refused")
		}
	}()

	if actor.Role != auth.RolePatient {
		return nil, apperr.Forbidden("Only patients can book appointments")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	doc, err := s.dir.FindByID(ctx, in.DoctorID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, apperr.NotFound("Doctor not found")
		}
		return nil, apperr.Internal("find doctor", err)
	}
	if !doc.IsAvailable {
		return nil, apperr.Unavailable("Doctor is not available for appointments")
	}

	key := SlotKey{DoctorID: doc.ID, Date: in.AppointmentDate, TimeSlot: strings.TrimSpace(in.TimeSlot)}
	taken, err := s.repo.SlotTaken(ctx, key)
	if err != nil {
		return nil, apperr.Internal("check slot", err)
	}
	if taken {
		return nil, apperr.SlotConflict("This time slot is already booked")
	}

	fee := doc.ConsultationFee
	if in.ConsultationFee != nil && *in.ConsultationFee >= 0 {
		fee = *in.ConsultationFee
	}

	appt = &Appointment{
		PatientID:       actor.ID,
		DoctorID:        key.DoctorID,
		AppointmentDate: key.Date,
		TimeSlot:        key.TimeSlot,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		ConsultationFee: &fee,
	}
	// The pre-check above is advisory; the unique index decides races.
	if err := s.repo.Create(ctx, appt); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return nil, apperr.SlotConflict("This time slot is already booked")
		}
		if errors.Is(err, ErrInvalidFee) {
			return nil, apperr.Validation("consultationFee must not be negative")
		}
		return nil, apperr.Internal("create appointment", err)
	}

	s.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Str("doctor_id", appt.DoctorID.String()).
		Str("date", appt.AppointmentDate.String()).
		Str("slot", appt.TimeSlot).
		Msg("appointment booked")
	return appt, nil
}

// -- Status transitions --

// UpdateStatus moves an appointment to target on behalf of actor. The
// transition is re-validated against the stored status on every attempt.
func (s *Service) UpdateStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, target string) (updated *Appointment, err error) {
	to := Status(target)
	defer func() { s.metrics.observeTransition(to, string(actor.Role), err) }()

	if _, perr := ParseStatus(target); perr != nil {
		to = "unknown"
		return nil, apperr.Validation(msgInvalidStatus)
	}

	var owned *directory.Doctor
	for attempt := 1; ; attempt++ {
		a, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, apperr.NotFound("Appointment not found")
			}
			return nil, apperr.Internal("get appointment", err)
		}

		switch actor.Role {
		case auth.RoleDoctor:
			if owned == nil {
				owned, err = s.dir.FindOwnedBy(ctx, actor.ID)
				if err != nil {
					if errors.Is(err, directory.ErrNotFound) {
						return nil, apperr.Forbidden("Doctor profile not found")
					}
					return nil, apperr.Internal("find doctor profile", err)
				}
			}
			if owned.ID != a.DoctorID {
				return nil, apperr.Forbidden("Not authorized to update this appointment")
			}
			if !CanTransition(auth.RoleDoctor, a.Status, to) {
				return nil, apperr.InvalidTransition(fmt.Sprintf("Cannot change appointment status from %s to %s", a.Status, to))
			}
		case auth.RolePatient:
			if a.PatientID != actor.ID {
				return nil, apperr.Forbidden("Not authorized to cancel this appointment")
			}
			if !CanTransition(auth.RolePatient, a.Status, to) {
				return nil, apperr.InvalidTransition("Only pending appointments can be cancelled")
			}
		case auth.RoleAdmin:
			return nil, apperr.Forbidden("Admins cannot change appointment status")
		default:
			return nil, apperr.Forbidden(fmt.Sprintf("Role '%s' cannot change appointment status", actor.Role))
		}

		updated, err = s.repo.CompareAndSetStatus(ctx, id, a.Status, to)
		switch {
		case err == nil:
			s.logger.Info().
				Str("appointment_id", id.String()).
				Str("from", string(a.Status)).
				Str("to", string(to)).
				Str("actor_id", actor.ID.String()).
				Msg("appointment status changed")
			return updated, nil
		case errors.Is(err, ErrNotFound):
			return nil, apperr.NotFound("Appointment not found")
		case errors.Is(err, ErrStatusChanged):
			if attempt >= maxStatusAttempts {
				return nil, apperr.InvalidTransition("Appointment status changed concurrently, please retry")
			}
			s.logger.Debug().Str("appointment_id", id.String()).Int("attempt", attempt).Msg("status changed underneath, re-validating")
		default:
			return nil, apperr.Internal("update appointment status", err)
		}
	}
}

// Cancel is the patient's pending -> rejected transition.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Appointment, error) {
	return s.UpdateStatus(ctx, actor, id, string(StatusRejected))
}

// -- Listing --

// List returns the appointments visible to actor, newest first, enriched
// with patient and doctor display fields.
func (s *Service) List(ctx context.Context, actor auth.Actor, page pagination.Params) ([]*AppointmentView, error) {
	var items []*Appointment
	var err error
	switch actor.Role {
	case auth.RolePatient:
		items, err = s.repo.ListByPatient(ctx, actor.ID, page)
	case auth.RoleDoctor:
		doc, derr := s.dir.FindOwnedBy(ctx, actor.ID)
		if errors.Is(derr, directory.ErrNotFound) {
			return []*AppointmentView{}, nil
		}
		if derr != nil {
			return nil, apperr.Internal("find doctor profile", derr)
		}
		items, err = s.repo.ListByDoctor(ctx, doc.ID, page)
	case auth.RoleAdmin:
		items, err = s.repo.ListAll(ctx, page)
	default:
		return nil, apperr.Forbidden(fmt.Sprintf("Role '%s' cannot list appointments", actor.Role))
	}
	if err != nil {
		return nil, apperr.Internal("list appointments", err)
	}

	views, err := Project(ctx, s.dir, items)
	if err != nil {
		return nil, apperr.Internal("enrich appointments", err)
	}
	return views, nil
}
