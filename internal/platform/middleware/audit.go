package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medibook/medibook/internal/platform/auth"
)

// AuditEntry records who touched which appointment data and how.
type AuditEntry struct {
	UserID     string
	Role       string
	Action     string // read, create, update
	Resource   string // first path segment under /api, e.g. "appointments"
	ResourceID string
	IPAddress  string
	UserAgent  string
	Method     string
	Path       string
	Route      string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// AuditRecorder persists audit entries somewhere other than the log.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit emits one "patient_data_access" log line per request to the
// appointment API and hands the entry to recorder when one is given. It reads
// the actor, so it must run after authentication.
func Audit(logger zerolog.Logger, recorder AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !isAuditablePath(req.URL.Path) {
				return next(c)
			}

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			entry := AuditEntry{
				Action:     methodToAction(req.Method),
				Resource:   resourceOf(req.URL.Path),
				ResourceID: c.Param("id"),
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				Method:     req.Method,
				Path:       req.URL.Path,
				Route:      c.Path(),
				StatusCode: c.Response().Status,
				Timestamp:  time.Now().UTC(),
			}
			if actor, ok := auth.ActorFromContext(req.Context()); ok {
				entry.UserID = actor.ID.String()
				entry.Role = string(actor.Role)
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			if recorder != nil {
				if recErr := recorder.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).Str("request_id", entry.RequestID).Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Str("role", entry.Role).
				Str("action", entry.Action).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Str("method", entry.Method).
				Str("route", entry.Route).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("patient_data_access")

			return nil
		}
	}
}

func isAuditablePath(path string) bool {
	return strings.HasPrefix(path, "/api/") && !strings.HasPrefix(path, "/api/v1/health")
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// resourceOf returns the segment after /api: /api/appointments/cancel/x -> appointments.
func resourceOf(path string) string {
	rest := strings.TrimPrefix(path, "/api/")
	seg, _, _ := strings.Cut(rest, "/")
	if seg == "" || rest == path {
		return "unknown"
	}
	return seg
}
