package core

// batch.go is the row-processing pipeline.
//
//	Idle -> Loading -> Processing -> Reconciling -> Done
//	           |                          |
//	           +-> Rejected (no source)   +-> Failed (persistence)
//	           +-> Failed (unreadable)
//
// Rows are processed one at a time in storage order. A row that fails to
// render or dispatch is recorded as failed and the loop moves on; nothing a
// single row does can stop the batch. Once every row has an outcome the
// dataset is split by row index (so duplicate rows cannot be confused with
// each other) and both tables are written back.
//
// Write order: the archive is appended before the pending table is saved.
// If the second write fails the sent rows are still listed as pending and
// would be re-sent on the next run, but they are never lost from both
// tables. Gateways implementing Committer write both in one transaction.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/JonMunkholm/salaryreview/internal/core"

var tracer = otel.Tracer(tracerName)

// RunBatch processes every pending row and reconciles both tables.
//
// It returns ErrBatchInProgress (unwrapped) when another batch holds the
// service, an error wrapping ErrSourceNotFound when the pending table is
// missing, and a *PersistenceError when the tables could not be written.
// Row failures are reported only through the returned result.
//
// Once started a batch runs to completion: cancellation of ctx is ignored
// after the guard is acquired.
func (s *Service) RunBatch(ctx context.Context) (result *BatchResult, err error) {
	if err := s.guard.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.guard.Release()

	ctx = context.WithoutCancel(ctx)

	runID := uuid.NewString()
	log := s.logger.With("run_id", runID, "source", s.source, "archive", s.archive)

	ctx, span := tracer.Start(ctx, "salaryreview.batch",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.String("source", s.source),
		),
	)
	defer span.End()

	start := s.now()
	result = &BatchResult{
		RunID:     runID,
		Source:    s.source,
		Archive:   s.archive,
		Phase:     PhaseLoading,
		StartedAt: start,
	}

	defer func() {
		result.Duration = s.now().Sub(start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(
			attribute.Int("rows.total", result.Total),
			attribute.Int("rows.sent", result.Sent),
			attribute.Int("rows.failed", result.Failed),
		)
		s.recorder.RecordBatch(result, err)
	}()

	if t, ok := TriggerFrom(ctx); ok {
		log = log.With("trigger", t)
	}
	log.Info("batch started")

	ds, err := s.gateway.Load(ctx, s.source)
	if err != nil {
		if errors.Is(err, ErrSourceNotFound) {
			result.Phase = PhaseRejected
			log.Warn("batch rejected: pending table not found", "error", err)
			return result, fmt.Errorf("load %s: %w", s.source, err)
		}
		result.Phase = PhaseFailed
		log.Error("batch failed: load pending table", "error", err)
		return result, fmt.Errorf("load %s: %w", s.source, err)
	}

	result.Phase = PhaseProcessing
	result.Total = ds.Len()
	result.Results = make([]RowResult, 0, ds.Len())
	log.Info("pending table loaded", "rows", ds.Len(), "columns", len(ds.Header))

	for i, row := range ds.Rows {
		rr := s.processRow(ctx, log, i, row)
		result.Results = append(result.Results, rr)
		if rr.Outcome == OutcomeSent {
			result.Sent++
		} else {
			result.Failed++
		}
		s.recorder.RecordRow(rr.Outcome, rr.Stage)
	}

	result.Phase = PhaseReconciling

	if result.Sent == 0 {
		// Nothing moves between tables; leave both untouched.
		result.Phase = PhaseDone
		log.Info("batch finished, nothing sent", "total", result.Total, "failed", result.Failed)
		return result, nil
	}

	sent, remaining := result.Partition()
	if err := s.persist(ctx, ds.Header, sent, remaining); err != nil {
		result.Phase = PhaseFailed
		log.Error("batch failed: reconcile tables", "error", err, "sent", result.Sent)
		return result, err
	}

	result.Phase = PhaseDone
	log.Info("batch finished",
		"total", result.Total,
		"sent", result.Sent,
		"failed", result.Failed,
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)
	return result, nil
}

// processRow renders and dispatches one row. It never returns an error and
// never panics; every failure becomes a failed RowResult.
func (s *Service) processRow(ctx context.Context, log *slog.Logger, idx int, row Row) (rr RowResult) {
	rr = RowResult{Index: idx, Row: row, Outcome: OutcomeSent}
	stage := StageRender

	ctx, span := tracer.Start(ctx, "salaryreview.row",
		trace.WithAttributes(
			attribute.Int("row.index", idx),
			attribute.String("row.payroll_number", row.PayrollNumber()),
		),
	)
	defer span.End()

	fail := func(err error) {
		rr.Outcome = OutcomeFailed
		rr.Stage = stage
		rr.Reason = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("row failed",
			"index", idx,
			"payroll_number", row.PayrollNumber(),
			"email", row.Email(),
			"stage", stage,
			"code", MapError(err).Code,
			"error", err,
		)
	}

	defer func() {
		if p := recover(); p != nil {
			fail(fmt.Errorf("panic: %v", p))
		}
	}()

	doc, err := s.renderer.Render(row)
	if err != nil {
		var re *RenderError
		if !errors.As(err, &re) {
			err = &RenderError{PayrollNumber: row.PayrollNumber(), Err: err}
		}
		fail(err)
		return rr
	}

	stage = StageDispatch
	subject, body := s.renderer.Compose(row)
	msg := Message{
		To:         CleanCell(row.Email()),
		Subject:    subject,
		Body:       body,
		Attachment: doc,
	}
	if err := s.channel.Dispatch(ctx, msg); err != nil {
		var de *DispatchError
		if !errors.As(err, &de) {
			err = &DispatchError{To: msg.To, Err: err}
		}
		fail(err)
		return rr
	}

	rr.Stage = ""
	log.Info("letter sent",
		"index", idx,
		"payroll_number", row.PayrollNumber(),
		"email", row.Email(),
		"attachment", doc.Filename,
		"bytes", len(doc.Content),
	)
	return rr
}

// persist writes sent rows to the archive and the rest back to pending.
func (s *Service) persist(ctx context.Context, header Header, sent, remaining []Row) error {
	pending := Dataset{Header: header, Rows: remaining}

	if c, ok := s.gateway.(Committer); ok {
		if err := c.Commit(ctx, s.source, pending, s.archive, sent); err != nil {
			return &PersistenceError{Op: "commit", Target: s.source + " + " + s.archive, Err: err}
		}
		return nil
	}

	if err := s.gateway.Append(ctx, s.archive, header, sent); err != nil {
		return &PersistenceError{Op: "append", Target: s.archive, Err: err}
	}
	if err := s.gateway.Save(ctx, s.source, pending); err != nil {
		return &PersistenceError{Op: "save", Target: s.source, Err: err}
	}
	return nil
}
