package directory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medibook/medibook/internal/platform/apperr"
)

type listOnlyDirectory struct {
	Directory
	doctors []*AvailableDoctor
	err     error
}

func (d *listOnlyDirectory) ListAvailable(context.Context) ([]*AvailableDoctor, error) {
	return d.doctors, d.err
}

func TestHandler_ListAvailable(t *testing.T) {
	doc := &AvailableDoctor{
		Doctor: Doctor{ID: uuid.New(), Specialization: "Cardiology", ConsultationFee: 500, IsAvailable: true,
			AvailableTimeSlots: DefaultTimeSlots},
		User: UserSummary{Name: "Dr. Rao", Email: "rao@example.com", IsApproved: true},
	}
	h := NewHandler(&listOnlyDirectory{doctors: []*AvailableDoctor{doc}})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/doctor/get-all-available", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListAvailable(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Count   int               `json:"count"`
			Doctors []AvailableDoctor `json:"doctors"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Data.Count != 1 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if body.Data.Doctors[0].User.Name != "Dr. Rao" || body.Data.Doctors[0].Specialization != "Cardiology" {
		t.Errorf("unexpected doctor %+v", body.Data.Doctors[0])
	}
}

func TestHandler_ListAvailable_Empty(t *testing.T) {
	h := NewHandler(&listOnlyDirectory{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/doctor/get-all-available", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListAvailable(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	data := body["data"].(map[string]interface{})
	if data["count"] != float64(0) {
		t.Errorf("expected count 0, got %v", data["count"])
	}
	if docs, ok := data["doctors"].([]interface{}); !ok || len(docs) != 0 {
		t.Errorf("expected empty array, got %v", data["doctors"])
	}
}

func TestHandler_ListAvailable_StorageError(t *testing.T) {
	h := NewHandler(&listOnlyDirectory{err: errors.New("connection reset")})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/doctor/get-all-available", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.ListAvailable(c)
	if apperr.KindOf(err) != apperr.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}
