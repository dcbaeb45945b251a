package appointment

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/medibook/medibook/internal/platform/apperr"
)

const (
	msgMissingBookingFields = "Please provide doctorId, appointmentDate, and timeSlot"
	msgInvalidStatus        = "Status must be one of: pending, approved, rejected, completed"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		_, err := ParseStatus(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("uuidstr", func(fl validator.FieldLevel) bool {
		_, err := uuid.Parse(fl.Field().String())
		return err == nil
	})
	return v
}

// BookRequest is the body of POST /api/appointments/book-appointment.
type BookRequest struct {
	DoctorID        string   `json:"doctorId" validate:"required,uuidstr"`
	AppointmentDate string   `json:"appointmentDate" validate:"required,isodate"`
	TimeSlot        string   `json:"timeSlot" validate:"required,notblank"`
	ConsultationFee *float64 `json:"consultationFee"`
}

var bookFieldMessages = map[string]string{
	"DoctorID":        "doctorId must be a valid id",
	"AppointmentDate": "appointmentDate must be a date (YYYY-MM-DD or ISO 8601)",
	"TimeSlot":        "timeSlot must not be blank",
}

// Input validates r and converts it to the engine's input.
func (r BookRequest) Input() (BookInput, error) {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return BookInput{}, apperr.Validation(msgMissingBookingFields)
		}
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				return BookInput{}, apperr.Validation(msgMissingBookingFields)
			}
		}
		e := apperr.Validation(bookFieldMessages[verrs[0].StructField()])
		for _, fe := range verrs {
			e.WithDetail(fe.Field(), bookFieldMessages[fe.StructField()])
		}
		return BookInput{}, e
	}

	// Both parses succeed after validation.
	doctorID, _ := uuid.Parse(r.DoctorID)
	date, _ := ParseDate(r.AppointmentDate)
	return BookInput{
		DoctorID:        doctorID,
		AppointmentDate: date,
		TimeSlot:        r.TimeSlot,
		ConsultationFee: r.ConsultationFee,
	}, nil
}

// StatusRequest is the body of PATCH /api/doctor/update-appointment-status/:id.
// Any known status passes here; whether it is reachable is the state
// machine's call.
type StatusRequest struct {
	Status string `json:"status" validate:"required,status"`
}

func (r StatusRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return apperr.Validation(msgInvalidStatus)
	}
	return nil
}
