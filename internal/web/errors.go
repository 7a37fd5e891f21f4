package web

// errors.go turns batch errors into responses.
//
// Every error is:
//   - Logged with full technical details and the request ID
//   - Mapped through core.MapError to a message, an action and a code
//   - Rendered as an HTMX fragment, an HTML page or JSON, in that order of
//     preference, depending on what the client asked for
//
// JSON is the default so scripted callers of /process-payroll keep reading
// {"message": ...} as they always have.

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/salaryreview/internal/core"
	"github.com/JonMunkholm/salaryreview/internal/logging"
	"github.com/JonMunkholm/salaryreview/internal/web/templates"
)

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for a batch error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrSourceNotFound):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrBatchInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the user-facing version of it.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	// Errors without a catalogue entry are unexpected whatever their status
	level := slog.LevelWarn
	if statusCode >= 500 || !core.IsUserFacing(err) {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if statusCode == http.StatusConflict {
		w.Header().Set("Retry-After", "30")
	}

	switch {
	case isHTMX(r):
		renderHTML(w, r, statusCode, templates.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code))
	case wantsHTML(r):
		renderHTML(w, r, statusCode, templates.Page(userMsg.Message,
			templates.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code)))
	default:
		writeJSON(w, statusCode, ErrorResponse{
			Error:   userMsg.Message,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		})
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsHTML reports whether the client prefers a page over JSON. Browsers
// send text/html first in Accept; API clients and curl do not.
func wantsHTML(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return false
	}
	return strings.Contains(accept, "text/html")
}
