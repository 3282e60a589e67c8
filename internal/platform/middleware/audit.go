package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinova/clinova/internal/platform/auth"
)

// AuditEntry captures a security-relevant request: who did it, what surface
// it touched, and how the server answered.
type AuditEntry struct {
	UserID     string
	UserEmail  string
	UserRole   string
	SessionID  string
	Event      string
	IPAddress  string
	UserAgent  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AuditRecorder is the sink the audit middleware writes entries to. It
// decouples the middleware from the audit domain service so tests can
// provide a mock implementation.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit returns Echo middleware that records security-relevant requests:
// login and logout attempts, impersonation overlay changes, and mutations
// on the user management surface. Everything else passes through untouched.
//
// If no AuditRecorder is provided, entries are only emitted as structured
// log lines.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			event := classifyEvent(req.Method, req.URL.Path)
			if event == "" {
				return next(c)
			}

			// Run the handler first so the entry carries the real outcome.
			err := next(c)

			ctx := req.Context()
			entry := AuditEntry{
				UserID:     auth.UserIDFromContext(ctx),
				UserEmail:  auth.UserEmailFromContext(ctx),
				UserRole:   auth.RoleFromContext(ctx),
				SessionID:  auth.SessionIDFromContext(ctx),
				Event:      event,
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				Path:       req.URL.Path,
				Method:     req.Method,
				Timestamp:  time.Now().UTC(),
				StatusCode: c.Response().Status,
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			if len(recorders) > 0 && recorders[0] != nil {
				if recErr := recorders[0].RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Str("event", entry.Event).
						Msg("failed to record audit entry")
				}
			}

			evt := logger.Info()
			if entry.StatusCode >= http.StatusBadRequest {
				evt = logger.Warn()
			}
			evt.
				Str("type", "security_audit").
				Str("event", entry.Event).
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Str("user_role", entry.UserRole).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("security_event")

			return err
		}
	}
}

// classifyEvent maps a request to a security event name, or "" when the
// request is not security relevant.
func classifyEvent(method, path string) string {
	switch {
	case method == http.MethodPost && path == "/api/v1/auth/login":
		return "login"
	case method == http.MethodPost && path == "/api/v1/auth/logout":
		return "logout"
	case method == http.MethodPost && path == "/api/v1/impersonation":
		return "impersonation_start"
	case method == http.MethodDelete && path == "/api/v1/impersonation":
		return "impersonation_stop"
	case isMutation(method) && strings.HasPrefix(path, "/api/v1/users"):
		return "user_change"
	default:
		return ""
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
