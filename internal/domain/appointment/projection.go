package appointment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medibook/medibook/internal/domain/directory"
)

// Placeholder names shown when a referenced user or doctor no longer exists.
const (
	UnknownPatient = "Unknown patient"
	UnknownDoctor  = "Unknown doctor"
)

// AppointmentView is an appointment with the display fields of its patient
// and doctor merged in.
type AppointmentView struct {
	*Appointment
	Patient directory.PatientProfile `json:"patient"`
	Doctor  directory.DoctorProfile  `json:"doctor"`
}

// Project resolves patient and doctor display fields for items with one
// lookup per kind. Order is preserved and dangling references get
// placeholders.
func Project(ctx context.Context, dir directory.Directory, items []*Appointment) ([]*AppointmentView, error) {
	views := make([]*AppointmentView, 0, len(items))
	if len(items) == 0 {
		return views, nil
	}

	patientIDs := make([]uuid.UUID, 0, len(items))
	doctorIDs := make([]uuid.UUID, 0, len(items))
	seenP := make(map[uuid.UUID]bool, len(items))
	seenD := make(map[uuid.UUID]bool, len(items))
	for _, a := range items {
		if !seenP[a.PatientID] {
			seenP[a.PatientID] = true
			patientIDs = append(patientIDs, a.PatientID)
		}
		if !seenD[a.DoctorID] {
			seenD[a.DoctorID] = true
			doctorIDs = append(doctorIDs, a.DoctorID)
		}
	}

	patients, err := dir.PatientsByIDs(ctx, patientIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve patients: %w", err)
	}
	doctors, err := dir.DoctorsByIDs(ctx, doctorIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve doctors: %w", err)
	}

	for _, a := range items {
		v := &AppointmentView{
			Appointment: a,
			Patient:     directory.PatientProfile{ID: a.PatientID, Name: UnknownPatient},
			Doctor:      directory.DoctorProfile{ID: a.DoctorID, Name: UnknownDoctor},
		}
		if p, ok := patients[a.PatientID]; ok && p != nil {
			v.Patient = *p
		}
		if d, ok := doctors[a.DoctorID]; ok && d != nil {
			v.Doctor = *d
		}
		views = append(views, v)
	}
	return views, nil
}
