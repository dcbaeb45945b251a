package appointment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medibook/medibook/internal/platform/apperr"
	"github.com/medibook/medibook/internal/platform/auth"
)

var testJWT = auth.JWTConfig{SigningKey: []byte("appointment-handler-test-signing-key")}

type testServer struct {
	e *echo.Echo
	f *fixture
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	f := newFixture(t)
	e := echo.New()
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(zerolog.Nop(), false)
	api := e.Group("/api", auth.JWTMiddleware(testJWT))
	NewHandler(f.svc).RegisterRoutes(api)
	return &testServer{e: e, f: f}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, actor *auth.Actor, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if actor != nil {
		token, err := auth.IssueToken(testJWT, *actor, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func (s *testServer) bookBody(slot string) string {
	return `{"doctorId":"` + s.f.doctor.ID.String() + `","appointmentDate":"2025-06-01","timeSlot":"` + slot + `"}`
}

func TestHandler_Book(t *testing.T) {
	s := newTestServer(t)
	rec, env := s.do(t, &s.f.patient, http.MethodPost, "/api/appointments/book-appointment", s.bookBody("10:00 AM"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !env.Success || env.Message != "Appointment booked successfully" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	var data struct {
		Appointment Appointment `json:"appointment"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Appointment.Status != StatusPending || data.Appointment.TimeSlot != "10:00 AM" {
		t.Errorf("unexpected appointment %+v", data.Appointment)
	}
	if data.Appointment.AppointmentDate.String() != "2025-06-01" {
		t.Errorf("unexpected date %s", data.Appointment.AppointmentDate)
	}

	// Same slot again is a conflict.
	rec, env = s.do(t, &s.f.patient, http.MethodPost, "/api/appointments/book-appointment", s.bookBody("10:00 AM"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if env.Success || env.Message != "This time slot is already booked" || string(env.Data) != "{}" {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestHandler_BookValidation(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"empty", `{}`, msgMissingBookingFields},
		{"missing slot", `{"doctorId":"` + s.f.doctor.ID.String() + `","appointmentDate":"2025-06-01"}`, msgMissingBookingFields},
		{"bad date", `{"doctorId":"` + s.f.doctor.ID.String() + `","appointmentDate":"June 1","timeSlot":"10:00 AM"}`, "appointmentDate must be a date (YYYY-MM-DD or ISO 8601)"},
		{"malformed json", `{"doctorId":`, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, &s.f.patient, http.MethodPost, "/api/appointments/book-appointment", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if env.Message != tt.message {
				t.Errorf("expected %q, got %q", tt.message, env.Message)
			}
		})
	}
}

func TestHandler_BookRequiresPatient(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(t, &s.f.drActor, http.MethodPost, "/api/appointments/book-appointment", s.bookBody("10:00 AM"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec, env := s.do(t, nil, http.MethodPost, "/api/appointments/book-appointment", s.bookBody("10:00 AM"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if env.Message != "Not authorized, no token provided" {
		t.Errorf("unexpected message %q", env.Message)
	}
}

func TestHandler_StatusFlow(t *testing.T) {
	s := newTestServer(t)
	a := s.f.book(t)
	path := "/api/doctor/update-appointment-status/" + a.ID.String()

	rec, env := s.do(t, &s.f.drActor, http.MethodPatch, path, `{"status":"approved"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if env.Message != "Appointment approved successfully" {
		t.Errorf("unexpected message %q", env.Message)
	}

	// Patient can no longer cancel an approved appointment.
	rec, env = s.do(t, &s.f.patient, http.MethodPatch, "/api/appointments/cancel/"+a.ID.String(), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if env.Message != "Only pending appointments can be cancelled" {
		t.Errorf("unexpected message %q", env.Message)
	}

	rec, _ = s.do(t, &s.f.drActor, http.MethodPatch, path, `{"status":"completed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec, _ = s.do(t, &s.f.drActor, http.MethodPatch, path, `{"status":"rejected"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 from terminal state, got %d", rec.Code)
	}
}

func TestHandler_UpdateStatusErrors(t *testing.T) {
	s := newTestServer(t)
	a := s.f.book(t)
	other := s.f.dir.addDoctor("Dr. Other", 400, true)
	otherActor := auth.Actor{ID: other.UserID, Role: auth.RoleDoctor}

	tests := []struct {
		name  string
		actor *auth.Actor
		id    string
		body  string
		code  int
		msg   string
	}{
		{"bad status", &s.f.drActor, a.ID.String(), `{"status":"archived"}`, http.StatusBadRequest, msgInvalidStatus},
		{"missing status", &s.f.drActor, a.ID.String(), `{}`, http.StatusBadRequest, msgInvalidStatus},
		{"bad id", &s.f.drActor, "nope", `{"status":"approved"}`, http.StatusBadRequest, "Invalid appointment id"},
		{"unknown appointment", &s.f.drActor, uuid.NewString(), `{"status":"approved"}`, http.StatusNotFound, "Appointment not found"},
		{"not owner", &otherActor, a.ID.String(), `{"status":"approved"}`, http.StatusForbidden, "Not authorized to update this appointment"},
		{"patient route gate", &s.f.patient, a.ID.String(), `{"status":"rejected"}`, http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, tt.actor, http.MethodPatch, "/api/doctor/update-appointment-status/"+tt.id, tt.body)
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if tt.msg != "" && env.Message != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, env.Message)
			}
		})
	}
}

func TestHandler_Cancel(t *testing.T) {
	s := newTestServer(t)
	a := s.f.book(t)

	stranger := auth.Actor{ID: uuid.New(), Role: auth.RolePatient}
	rec, env := s.do(t, &stranger, http.MethodPatch, "/api/appointments/cancel/"+a.ID.String(), "")
	if rec.Code != http.StatusForbidden || env.Message != "Not authorized to cancel this appointment" {
		t.Fatalf("unexpected %d %q", rec.Code, env.Message)
	}

	rec, env = s.do(t, &s.f.patient, http.MethodPatch, "/api/appointments/cancel/"+a.ID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env.Message != "Appointment cancelled successfully" {
		t.Errorf("unexpected message %q", env.Message)
	}
}

func TestHandler_Listings(t *testing.T) {
	s := newTestServer(t)
	s.f.book(t)
	if _, err := s.f.svc.Book(context.Background(), s.f.patient, BookInput{DoctorID: s.f.doctor.ID, AppointmentDate: NewDate(2025, 6, 2), TimeSlot: "09:00 AM"}); err != nil {
		t.Fatalf("book: %v", err)
	}
	admin := auth.Actor{ID: uuid.New(), Role: auth.RoleAdmin}

	tests := []struct {
		name  string
		actor *auth.Actor
		path  string
		code  int
		count int
		next  int
	}{
		{"patient", &s.f.patient, "/api/appointments/my-appointments", http.StatusOK, 2, 0},
		{"doctor via my-appointments", &s.f.drActor, "/api/appointments/my-appointments", http.StatusOK, 2, 0},
		{"doctor route", &s.f.drActor, "/api/doctor/get-my-appointments", http.StatusOK, 2, 0},
		{"admin", &admin, "/api/admin/get-all-appointments", http.StatusOK, 2, 0},
		{"admin paged", &admin, "/api/admin/get-all-appointments?limit=1", http.StatusOK, 1, 1},
		{"admin last page", &admin, "/api/admin/get-all-appointments?limit=5&offset=1", http.StatusOK, 1, 0},
		{"patient on admin route", &s.f.patient, "/api/admin/get-all-appointments", http.StatusForbidden, 0, 0},
		{"bad limit", &admin, "/api/admin/get-all-appointments?limit=abc", http.StatusBadRequest, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, tt.actor, http.MethodGet, tt.path, "")
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if tt.code != http.StatusOK {
				return
			}
			if env.Message != "Appointments retrieved successfully" {
				t.Errorf("unexpected message %q", env.Message)
			}
			var data struct {
				Count        int               `json:"count"`
				Appointments []json.RawMessage `json:"appointments"`
				NextOffset   int               `json:"nextOffset"`
			}
			if err := json.Unmarshal(env.Data, &data); err != nil {
				t.Fatalf("decode data: %v", err)
			}
			if data.Count != tt.count || len(data.Appointments) != tt.count {
				t.Errorf("expected %d appointments, got count=%d len=%d", tt.count, data.Count, len(data.Appointments))
			}
			if data.NextOffset != tt.next {
				t.Errorf("expected nextOffset %d, got %d", tt.next, data.NextOffset)
			}
		})
	}
}

func TestHandler_ListingIsEnriched(t *testing.T) {
	s := newTestServer(t)
	s.f.book(t)

	_, env := s.do(t, &s.f.patient, http.MethodGet, "/api/appointments/my-appointments", "")
	var data struct {
		Appointments []struct {
			ID      uuid.UUID `json:"id"`
			Status  Status    `json:"status"`
			Patient struct {
				Name string `json:"name"`
			} `json:"patient"`
			Doctor struct {
				Name           string `json:"name"`
				Specialization string `json:"specialization"`
			} `json:"doctor"`
		} `json:"appointments"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(data.Appointments) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(data.Appointments))
	}
	got := data.Appointments[0]
	if got.Patient.Name != "priya" || got.Doctor.Name != "Dr. Mehta" || got.Doctor.Specialization != "Cardiology" {
		t.Errorf("unexpected enrichment %+v", got)
	}
	if got.Status != StatusPending {
		t.Errorf("expected pending, got %s", got.Status)
	}
}
