package directory

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medibook/medibook/internal/platform/apperr"
	"github.com/medibook/medibook/internal/platform/response"
)

type Handler struct {
	dir Directory
}

func NewHandler(dir Directory) *Handler {
	return &Handler{dir: dir}
}

// RegisterRoutes mounts doctor discovery on the /api/doctor group. Any
// authenticated role may list bookable doctors.
func (h *Handler) RegisterRoutes(doctorGroup *echo.Group) {
	doctorGroup.GET("/get-all-available", h.ListAvailable)
}

func (h *Handler) ListAvailable(c echo.Context) error {
	doctors, err := h.dir.ListAvailable(c.Request().Context())
	if err != nil {
		return apperr.Internal("list available doctors", err)
	}
	if doctors == nil {
		doctors = []*AvailableDoctor{}
	}
	return response.OK(c, http.StatusOK, "Available doctors retrieved successfully", map[string]interface{}{
		"count":   len(doctors),
		"doctors": doctors,
	})
}
