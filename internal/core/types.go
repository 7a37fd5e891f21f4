package core

import (
	"context"
	"time"
)

// Column positions of the fixed employee schema.
const (
	ColName = iota
	ColEmail
	ColPayrollNumber
	ColDepartment
	ColBasicSalary
	ColHousingAllowance

	// SchemaWidth is the minimum number of cells a row must carry.
	SchemaWidth
)

// Header is the ordered list of column names read from a table.
type Header []string

// Row is one employee record. Cells are positional; see the Col* constants.
// Cells beyond SchemaWidth are carried through untouched.
type Row []string

// cell returns the cell at i, or "" when the row is short.
func (r Row) cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

func (r Row) Name() string             { return r.cell(ColName) }
func (r Row) Email() string            { return r.cell(ColEmail) }
func (r Row) PayrollNumber() string    { return r.cell(ColPayrollNumber) }
func (r Row) Department() string       { return r.cell(ColDepartment) }
func (r Row) BasicSalary() string      { return r.cell(ColBasicSalary) }
func (r Row) HousingAllowance() string { return r.cell(ColHousingAllowance) }

// Dataset is a header plus rows in storage order.
type Dataset struct {
	Header Header
	Rows   []Row
}

// Len returns the number of data rows.
func (d Dataset) Len() int { return len(d.Rows) }

// Outcome is the per-row result of a batch. It is never persisted directly;
// only its effect (which table the row ends up in) is.
type Outcome string

const (
	OutcomeSent   Outcome = "sent"
	OutcomeFailed Outcome = "failed"
)

// Stage names the pipeline step a row failed in.
type Stage string

const (
	StageRender   Stage = "render"
	StageDispatch Stage = "dispatch"
)

// RowResult records what happened to a single row.
type RowResult struct {
	Index   int // Position in the loaded dataset (0-based, excluding header)
	Row     Row
	Outcome Outcome
	Stage   Stage  // Set only when Outcome is OutcomeFailed
	Reason  string // Set only when Outcome is OutcomeFailed
}

// Phase is the batch state machine position.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseLoading     Phase = "loading"
	PhaseProcessing  Phase = "processing"
	PhaseReconciling Phase = "reconciling"
	PhaseDone        Phase = "done"
	PhaseRejected    Phase = "rejected"
	PhaseFailed      Phase = "failed"
)

// BatchResult is the aggregate outcome reported to the caller.
type BatchResult struct {
	RunID     string
	Source    string
	Archive   string
	Phase     Phase
	Total     int
	Sent      int
	Failed    int
	Results   []RowResult
	StartedAt time.Time
	Duration  time.Duration
}

// Partition splits the results into sent and remaining rows by index.
// Both slices keep the original storage order.
func (b *BatchResult) Partition() (sent, remaining []Row) {
	sent = make([]Row, 0, b.Sent)
	remaining = make([]Row, 0, b.Failed)
	for _, r := range b.Results {
		if r.Outcome == OutcomeSent {
			sent = append(sent, r.Row)
		} else {
			remaining = append(remaining, r.Row)
		}
	}
	return sent, remaining
}

// Document is a rendered letter ready to be attached to a message.
type Document struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one outgoing email.
type Message struct {
	To         string
	Subject    string
	Body       string
	Attachment Document
}

// Gateway reads and writes named tables.
type Gateway interface {
	// Load returns the table's header and rows. It returns an error wrapping
	// ErrSourceNotFound when the table does not exist.
	Load(ctx context.Context, source string) (Dataset, error)

	// Save overwrites the table with ds.
	Save(ctx context.Context, source string, ds Dataset) error

	// Append adds rows after the archive's existing rows, creating the
	// archive seeded with header when it does not exist yet.
	Append(ctx context.Context, archive string, header Header, rows []Row) error
}

// ArchiveLoader is implemented by gateways that keep the archive in a
// different place than Load reads from, such as a named workbook sheet.
type ArchiveLoader interface {
	LoadArchive(ctx context.Context, archive string) (Dataset, error)
}

// Committer is implemented by gateways that can persist both tables in one
// atomic step.
type Committer interface {
	Commit(ctx context.Context, source string, remaining Dataset, archive string, sent []Row) error
}

// Renderer produces the letter and the message text for a row.
type Renderer interface {
	Render(row Row) (Document, error)
	Compose(row Row) (subject, body string)
}

// Dispatcher delivers one message. Exactly one attempt is made per call.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// Recorder receives batch and row events for metrics.
type Recorder interface {
	RecordRow(outcome Outcome, stage Stage)
	RecordBatch(result *BatchResult, err error)
}

// NoopRecorder discards all events.
type NoopRecorder struct{}

func (NoopRecorder) RecordRow(Outcome, Stage)         {}
func (NoopRecorder) RecordBatch(*BatchResult, error) {}
