package appointment

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medibook/medibook/internal/platform/apperr"
	"github.com/medibook/medibook/internal/platform/auth"
	"github.com/medibook/medibook/internal/platform/response"
	"github.com/medibook/medibook/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the appointment endpoints under api (/api). Role
// gates sit on the individual routes because /api/doctor is shared with
// doctor discovery.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	appts := api.Group("/appointments")
	appts.POST("/book-appointment", h.Book, auth.RequireRole(auth.RolePatient))
	appts.GET("/my-appointments", h.ListMine)
	appts.PATCH("/cancel/:id", h.Cancel, auth.RequireRole(auth.RolePatient))

	doctor := api.Group("/doctor")
	doctor.PATCH("/update-appointment-status/:id", h.UpdateStatus, auth.RequireRole(auth.RoleDoctor))
	doctor.GET("/get-my-appointments", h.ListMine, auth.RequireRole(auth.RoleDoctor))

	admin := api.Group("/admin")
	admin.GET("/get-all-appointments", h.ListMine, auth.RequireRole(auth.RoleAdmin))
}

func actorOf(c echo.Context) (auth.Actor, error) {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return auth.Actor{}, apperr.Unauthenticated("Not authorized, no token provided")
	}
	return actor, nil
}

func idParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("Invalid appointment id")
	}
	return id, nil
}

func (h *Handler) Book(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	in, err := req.Input()
	if err != nil {
		return err
	}
	appt, err := h.svc.Book(c.Request().Context(), actor, in)
	if err != nil {
		return err
	}
	return response.Created(c, "Appointment booked successfully", map[string]interface{}{"appointment": appt})
}

// ListMine serves the patient, doctor and admin listings; scoping follows the
// actor's role.
func (h *Handler) ListMine(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	page, err := pagination.FromContext(c)
	if err != nil {
		return apperr.Validation(err.Error())
	}
	views, err := h.svc.List(c.Request().Context(), actor, page)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"count":        len(views),
		"appointments": views,
	}
	if page.Paged() && len(views) == page.Limit {
		data["nextOffset"] = page.NextOffset()
	}
	return response.OK(c, http.StatusOK, "Appointments retrieved successfully", data)
}

func (h *Handler) Cancel(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	appt, err := h.svc.Cancel(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "Appointment cancelled successfully", map[string]interface{}{"appointment": appt})
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return err
	}
	appt, err := h.svc.UpdateStatus(c.Request().Context(), actor, id, req.Status)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, fmt.Sprintf("Appointment %s successfully", appt.Status), map[string]interface{}{"appointment": appt})
}
