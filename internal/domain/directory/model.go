// Package directory reads doctor and user records owned by the profile and
// identity services. The booking core uses it for eligibility checks and for
// display enrichment; it never writes.
package directory

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTimeSlots is the slot set a doctor profile starts with.
var DefaultTimeSlots = []string{"09:00 AM", "10:00 AM", "11:00 AM", "02:00 PM", "03:00 PM", "04:00 PM"}

// Doctor maps to the doctors table.
type Doctor struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	UserID             uuid.UUID `db:"user_id" json:"userId"`
	Specialization     string    `db:"specialization" json:"specialization"`
	Experience         int       `db:"experience" json:"experience"`
	ConsultationFee    float64   `db:"consultation_fee" json:"consultationFee"`
	AvailableDays      []string  `db:"available_days" json:"availableDays"`
	AvailableTimeSlots []string  `db:"available_time_slots" json:"availableTimeSlots"`
	HospitalName       string    `db:"hospital_name" json:"hospitalName"`
	Address            string    `db:"address" json:"address"`
	Bio                string    `db:"bio" json:"bio"`
	IsAvailable        bool      `db:"is_available" json:"isAvailable"`
	Ratings            float64   `db:"ratings" json:"ratings"`
	TotalReviews       int       `db:"total_reviews" json:"totalReviews"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time `db:"updated_at" json:"updatedAt"`
}

// UserSummary is the public part of a user record.
type UserSummary struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	IsApproved bool      `json:"isApproved"`
}

// AvailableDoctor is a bookable doctor with its owning user.
type AvailableDoctor struct {
	Doctor
	User UserSummary `json:"user"`
}

// PatientProfile holds the fields shown next to an appointment.
type PatientProfile struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone"`
}

// DoctorProfile holds the doctor fields shown next to an appointment.
type DoctorProfile struct {
	ID             uuid.UUID `json:"id"`
	Specialization string    `json:"specialization"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
}
