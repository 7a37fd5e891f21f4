package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ServiceConfig holds the tables a Service works on and its optional
// collaborators. Zero values fall back to sensible defaults.
type ServiceConfig struct {
	// Source is the pending table (required).
	Source string

	// Archive is the sent table (required).
	Archive string

	// LockWait is how long a trigger waits for a running batch.
	LockWait time.Duration

	// Recorder receives metrics events (default: NoopRecorder).
	Recorder Recorder

	// Logger is the base logger (default: slog.Default()).
	Logger *slog.Logger

	// Now is the clock used for batch timing (default: time.Now).
	Now func() time.Time
}

// Service runs salary-review batches. It is safe for concurrent use; batches
// themselves never overlap.
type Service struct {
	gateway  Gateway
	renderer Renderer
	channel  Dispatcher

	source   string
	archive  string
	guard    *BatchGuard
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new Service instance.
func NewService(gateway Gateway, renderer Renderer, channel Dispatcher, cfg ServiceConfig) (*Service, error) {
	if gateway == nil {
		return nil, errors.New("new service: gateway is required")
	}
	if renderer == nil {
		return nil, errors.New("new service: renderer is required")
	}
	if channel == nil {
		return nil, errors.New("new service: dispatch channel is required")
	}
	if cfg.Source == "" || cfg.Archive == "" {
		return nil, errors.New("new service: source and archive names are required")
	}
	if cfg.Source == cfg.Archive {
		return nil, fmt.Errorf("new service: source and archive must differ (both %q)", cfg.Source)
	}

	s := &Service{
		gateway:  gateway,
		renderer: renderer,
		channel:  channel,
		source:   cfg.Source,
		archive:  cfg.Archive,
		guard:    NewBatchGuard(cfg.LockWait),
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
	if s.recorder == nil {
		s.recorder = NoopRecorder{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Source returns the pending table name.
func (s *Service) Source() string { return s.source }

// Archive returns the sent table name.
func (s *Service) Archive() string { return s.archive }

// BatchStatus reports whether a batch is currently running.
func (s *Service) BatchStatus() BatchGuardStatus { return s.guard.Status() }

// WaitForBatch blocks until the running batch, if any, completes.
func (s *Service) WaitForBatch(ctx context.Context) error { return s.guard.WaitForDrain(ctx) }

// TableSummary describes the current size of both tables.
type TableSummary struct {
	Source        string `json:"source"`
	Pending       int    `json:"pending"`
	Archive       string `json:"archive"`
	Archived      int    `json:"archived"`
	ArchiveExists bool   `json:"archive_exists"`
}

// Summarize loads both tables and counts their rows. A missing archive is
// not an error; a missing pending table is.
func (s *Service) Summarize(ctx context.Context) (TableSummary, error) {
	sum := TableSummary{Source: s.source, Archive: s.archive}

	pending, err := s.gateway.Load(ctx, s.source)
	if err != nil {
		return sum, fmt.Errorf("load %s: %w", s.source, err)
	}
	sum.Pending = pending.Len()

	archived, err := s.loadArchive(ctx)
	switch {
	case errors.Is(err, ErrSourceNotFound):
		return sum, nil
	case err != nil:
		return sum, fmt.Errorf("load %s: %w", s.archive, err)
	}
	sum.ArchiveExists = true
	sum.Archived = archived.Len()
	return sum, nil
}

// loadArchive reads the archive through ArchiveLoader when the gateway has it.
func (s *Service) loadArchive(ctx context.Context) (Dataset, error) {
	if al, ok := s.gateway.(ArchiveLoader); ok {
		return al.LoadArchive(ctx, s.archive)
	}
	return s.gateway.Load(ctx, s.archive)
}
