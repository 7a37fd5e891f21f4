package web

import (
	"net"
	"net/http"
	"time"

	"github.com/JonMunkholm/salaryreview/internal/core"
	"github.com/JonMunkholm/salaryreview/internal/logging"
	"github.com/JonMunkholm/salaryreview/internal/web/templates"
	"github.com/a-h/templ"
)

// MsgBatchSucceeded is returned when every row was attempted and both tables
// were written back. Individual rows may still have failed.
const MsgBatchSucceeded = "Emails sent successfully and saved in sent records"

// BatchResponse is the JSON body of a finished batch. Rows that failed are
// counted but not listed; their details go to the batch log under run_id.
type BatchResponse struct {
	Message    string `json:"message"`
	RunID      string `json:"run_id"`
	Total      int    `json:"total"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
	DurationMS int64  `json:"duration_ms"`
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status string                `json:"status"`
	Batch  core.BatchGuardStatus `json:"batch"`
	Time   time.Time             `json:"time"`
}

// handleRunBatch runs one batch and reports the aggregate result. The
// request blocks until the batch finishes; a dropped connection does not stop
// the batch.
func (s *Server) handleRunBatch(w http.ResponseWriter, r *http.Request) {
	ctx := withTrigger(r.Context(), r)

	result, err := s.service.RunBatch(ctx)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	resp := newBatchResponse(result)
	logging.WithFields(ctx, "run_id", resp.RunID).Info("batch trigger answered",
		"sent", resp.Sent,
		"failed", resp.Failed,
	)

	switch {
	case isHTMX(r):
		renderHTML(w, r, http.StatusOK, templates.BatchSummary(batchView(resp)))
	case wantsHTML(r):
		renderHTML(w, r, http.StatusOK, templates.Page("Salary review batch", templates.BatchSummary(batchView(resp))))
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleTables returns the row counts of both tables.
func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	sum, err := s.service.Summarize(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// handleIndex renders the table summary page with a trigger button.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view := templates.TablesView{
		Source:  s.service.Source(),
		Archive: s.service.Archive(),
		Running: s.service.BatchStatus().Running,
	}

	sum, err := s.service.Summarize(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Warn("index: summarize tables", "error", err)
		view.Error = core.FormatUserError(err)
	} else {
		view.Pending = sum.Pending
		view.Archived = sum.Archived
		view.ArchiveExists = sum.ArchiveExists
	}

	renderHTML(w, r, http.StatusOK, templates.Page("Salary review letters", templates.Tables(view)))
}

// handleHealth reports liveness and whether a batch is running.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Batch:  s.service.BatchStatus(),
		Time:   time.Now().UTC(),
	})
}

func newBatchResponse(result *core.BatchResult) BatchResponse {
	return BatchResponse{
		Message:    MsgBatchSucceeded,
		RunID:      result.RunID,
		Total:      result.Total,
		Sent:       result.Sent,
		Failed:     result.Failed,
		DurationMS: result.Duration.Milliseconds(),
	}
}

func batchView(resp BatchResponse) templates.BatchView {
	return templates.BatchView{
		Message:  resp.Message,
		RunID:    resp.RunID,
		Total:    resp.Total,
		Sent:     resp.Sent,
		Failed:   resp.Failed,
		Duration: time.Duration(resp.DurationMS) * time.Millisecond,
	}
}

// renderHTML writes a templ component with the given status.
func renderHTML(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render html", "error", err)
	}
}

// clientHost strips the port from a RemoteAddr.
func clientHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
