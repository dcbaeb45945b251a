package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medibook/medibook/internal/domain/directory"
	"github.com/medibook/medibook/pkg/pagination"
)

// memRepo is an in-memory Repository. Its slot index plays the part of the
// unique constraint.
type memRepo struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*Appointment
	slots map[SlotKey]uuid.UUID
	seq   int

	// beforeCAS, when set, runs once before the next compare-and-set.
	beforeCAS func(a *Appointment)
}

func newMemRepo() *memRepo {
	return &memRepo{byID: map[uuid.UUID]*Appointment{}, slots: map[SlotKey]uuid.UUID{}}
}

func (r *memRepo) Create(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[a.Slot()]; ok {
		return ErrSlotTaken
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.seq++
	a.VersionID = 1
	a.CreatedAt = time.Date(2025, 1, 1, 0, 0, r.seq, 0, time.UTC)
	a.UpdatedAt = a.CreatedAt
	cp := *a
	r.byID[a.ID] = &cp
	r.slots[a.Slot()] = a.ID
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memRepo) SlotTaken(_ context.Context, key SlotKey) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.slots[key]
	return ok, nil
}

func (r *memRepo) CompareAndSetStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if hook := r.beforeCAS; hook != nil {
		r.beforeCAS = nil
		hook(a)
	}
	if a.Status != from {
		return nil, ErrStatusChanged
	}
	a.Status = to
	a.VersionID++
	a.UpdatedAt = a.UpdatedAt.Add(time.Minute)
	cp := *a
	return &cp, nil
}

func (r *memRepo) list(match func(*Appointment) bool, page pagination.Params) []*Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*Appointment{}
	for _, a := range r.byID {
		if match(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return pagination.Apply(out, page)
}

func (r *memRepo) ListByPatient(_ context.Context, patientID uuid.UUID, page pagination.Params) ([]*Appointment, error) {
	return r.list(func(a *Appointment) bool { return a.PatientID == patientID }, page), nil
}

func (r *memRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, page pagination.Params) ([]*Appointment, error) {
	return r.list(func(a *Appointment) bool { return a.DoctorID == doctorID }, page), nil
}

func (r *memRepo) ListAll(_ context.Context, page pagination.Params) ([]*Appointment, error) {
	return r.list(func(*Appointment) bool { return true }, page), nil
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// memDirectory is an in-memory directory.Directory.
type memDirectory struct {
	doctors  map[uuid.UUID]*directory.Doctor
	patients map[uuid.UUID]*directory.PatientProfile
	names    map[uuid.UUID]string
	err      error
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		doctors:  map[uuid.UUID]*directory.Doctor{},
		patients: map[uuid.UUID]*directory.PatientProfile{},
		names:    map[uuid.UUID]string{},
	}
}

func (d *memDirectory) addDoctor(name string, fee float64, available bool) *directory.Doctor {
	doc := &directory.Doctor{
		ID:                 uuid.New(),
		UserID:             uuid.New(),
		Specialization:     "Cardiology",
		ConsultationFee:    fee,
		AvailableTimeSlots: directory.DefaultTimeSlots,
		IsAvailable:        available,
	}
	d.doctors[doc.ID] = doc
	d.names[doc.UserID] = name
	return doc
}

func (d *memDirectory) addPatient(name string) uuid.UUID {
	id := uuid.New()
	d.patients[id] = &directory.PatientProfile{ID: id, Name: name, Email: name + "@example.com"}
	return id
}

func (d *memDirectory) FindByID(_ context.Context, id uuid.UUID) (*directory.Doctor, error) {
	if d.err != nil {
		return nil, d.err
	}
	doc, ok := d.doctors[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	return doc, nil
}

func (d *memDirectory) FindOwnedBy(_ context.Context, userID uuid.UUID) (*directory.Doctor, error) {
	if d.err != nil {
		return nil, d.err
	}
	for _, doc := range d.doctors {
		if doc.UserID == userID {
			return doc, nil
		}
	}
	return nil, directory.ErrNotFound
}

func (d *memDirectory) ListAvailable(context.Context) ([]*directory.AvailableDoctor, error) {
	return nil, nil
}

func (d *memDirectory) PatientsByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*directory.PatientProfile, error) {
	if d.err != nil {
		return nil, d.err
	}
	out := map[uuid.UUID]*directory.PatientProfile{}
	for _, id := range ids {
		if p, ok := d.patients[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (d *memDirectory) DoctorsByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*directory.DoctorProfile, error) {
	if d.err != nil {
		return nil, d.err
	}
	out := map[uuid.UUID]*directory.DoctorProfile{}
	for _, id := range ids {
		if doc, ok := d.doctors[id]; ok {
			out[id] = &directory.DoctorProfile{ID: id, Specialization: doc.Specialization, Name: d.names[doc.UserID]}
		}
	}
	return out, nil
}
