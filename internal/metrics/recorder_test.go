package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/salaryreview/internal/core"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRow(t *testing.T) {
	r := NewRecorder()

	r.RecordRow(core.OutcomeSent, "")
	r.RecordRow(core.OutcomeSent, "")
	r.RecordRow(core.OutcomeFailed, core.StageDispatch)

	if got := testutil.ToFloat64(r.rows.WithLabelValues("sent", "none")); got != 2 {
		t.Errorf("sent rows = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.rows.WithLabelValues("failed", "dispatch")); got != 1 {
		t.Errorf("failed dispatch rows = %v, want 1", got)
	}
}

func TestRecordBatch(t *testing.T) {
	r := NewRecorder()
	start := time.Unix(1_700_000_000, 0)

	r.RecordBatch(&core.BatchResult{Phase: core.PhaseDone, Total: 5, Sent: 4, StartedAt: start, Duration: 3 * time.Second}, nil)
	r.RecordBatch(&core.BatchResult{Phase: core.PhaseRejected}, core.ErrSourceNotFound)
	r.RecordBatch(nil, core.ErrBatchInProgress)

	if got := testutil.ToFloat64(r.batches.WithLabelValues("done")); got != 1 {
		t.Errorf("done batches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.batches.WithLabelValues("rejected")); got != 1 {
		t.Errorf("rejected batches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.lastSuccess); got != 1_700_000_003 {
		t.Errorf("last success = %v, want 1700000003", got)
	}
	if got := testutil.ToFloat64(r.lastBatchTotal); got != 0 {
		t.Errorf("last total = %v, want 0 after the rejected batch", got)
	}
}

func TestHandler(t *testing.T) {
	r := NewRecorder()
	r.RecordRow(core.OutcomeSent, "")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `salaryreview_rows_total{outcome="sent",stage="none"} 1`) {
		t.Error("exposition is missing the row counter")
	}
}
