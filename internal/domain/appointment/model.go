// Package appointment implements booking, the status state machine and the
// role-scoped appointment listings.
package appointment

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// ParseStatus accepts only the four known statuses.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Appointment maps to the appointments table.
type Appointment struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	PatientID       uuid.UUID     `db:"patient_id" json:"patientId"`
	DoctorID        uuid.UUID     `db:"doctor_id" json:"doctorId"`
	AppointmentDate Date          `db:"appointment_date" json:"appointmentDate"`
	TimeSlot        string        `db:"time_slot" json:"timeSlot"`
	Status          Status        `db:"status" json:"status"`
	PaymentStatus   PaymentStatus `db:"payment_status" json:"paymentStatus"`
	ConsultationFee *float64      `db:"consultation_fee" json:"consultationFee,omitempty"`
	VersionID       int           `db:"version_id" json:"versionId"`
	CreatedAt       time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updatedAt"`
}

// SlotKey identifies a bookable slot. At most one appointment exists per key.
type SlotKey struct {
	DoctorID uuid.UUID
	Date     Date
	TimeSlot string
}

func (a *Appointment) Slot() SlotKey {
	return SlotKey{DoctorID: a.DoctorID, Date: a.AppointmentDate, TimeSlot: a.TimeSlot}
}

const DateLayout = "2006-01-02"

// Date is a time-zone-naive calendar date, held as midnight UTC.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf keeps t's calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate accepts "2006-01-02" or an RFC 3339 timestamp. For a timestamp
// the calendar date as written is kept, whatever its offset.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
