// Package app assembles a core.Service from configuration. Both the HTTP
// server and the reviewctl CLI start here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/salaryreview/internal/config"
	"github.com/JonMunkholm/salaryreview/internal/core"
	"github.com/JonMunkholm/salaryreview/internal/ledger"
	"github.com/JonMunkholm/salaryreview/internal/letter"
	"github.com/JonMunkholm/salaryreview/internal/mailer"
	"github.com/JonMunkholm/salaryreview/internal/metrics"
)

// Options adjusts what Build wires.
type Options struct {
	// ReadOnly skips the SMTP client. Dispatch fails for every row, so a
	// read-only App is only good for inspecting tables.
	ReadOnly bool

	// Clock overrides the letter date (default: letter.SystemClock).
	Clock letter.Clock
}

// App holds the wired service and the resources behind it.
type App struct {
	Service  *core.Service
	Metrics  *metrics.Recorder
	Template letter.Template

	backend ledger.Backend
}

// Build opens the ledger and wires renderer, mailer and metrics into a
// Service. The caller must Close the App.
func Build(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tmpl, err := LetterTemplate(cfg.Letter)
	if err != nil {
		return nil, err
	}
	if err := tmpl.Validate(); err != nil {
		// Every row would fail to render; say so once at startup as well.
		logger.Warn("letter template incomplete, rows will stay pending", "error", err)
	}

	var channel core.Dispatcher = disabledChannel{}
	if !opts.ReadOnly {
		if err := cfg.RequireSMTP(); err != nil {
			return nil, err
		}
		m, err := mailer.New(mailer.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.Sender(),
			Timeout:  cfg.SMTP.Timeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("mailer: %w", err)
		}
		channel = m
	}

	backend, err := ledger.Open(ctx, ledger.Options{
		Driver:          strings.ToLower(cfg.Storage.Driver),
		Dir:             cfg.Storage.Dir,
		ArchiveSheet:    cfg.Storage.ArchiveSheet,
		DatabaseURL:     cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}

	recorder := metrics.NewRecorder()
	svc, err := core.NewService(backend, letter.NewRenderer(tmpl, opts.Clock), channel, core.ServiceConfig{
		Source:   cfg.Storage.PendingSource,
		Archive:  cfg.Storage.ArchiveSource,
		LockWait: cfg.Batch.LockWait,
		Recorder: recorder,
		Logger:   logger,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &App{
		Service:  svc,
		Metrics:  recorder,
		Template: tmpl,
		backend:  backend,
	}, nil
}

// Gateway returns the ledger backend the service reads and writes.
func (a *App) Gateway() core.Gateway { return a.backend }

// Close releases the ledger backend.
func (a *App) Close() {
	if a.backend != nil {
		a.backend.Close()
	}
}

// LetterTemplate builds the letter template from the environment, with the
// optional template file applied on top.
func LetterTemplate(lc config.LetterConfig) (letter.Template, error) {
	tmpl := letter.Template{
		CompanyName: lc.CompanyName,
		Header:      lc.Header,
		Year:        lc.Year,
		Intro:       lc.Intro,
		Details:     lc.Details,
		Note:        lc.Note,
		Tax:         lc.Tax,
		Conclusion:  lc.Conclusion,
		Signature:   lc.Signature,
		Footer:      lc.Footer,
		Currency:    lc.Currency,
		Subject:     lc.Subject,
		Body:        lc.Body,
		Body2:       lc.Body2,
	}
	if lc.TemplateFile == "" {
		return tmpl, nil
	}

	over, err := letter.LoadTemplateFile(lc.TemplateFile)
	if err != nil {
		return letter.Template{}, err
	}
	return tmpl.Merge(over), nil
}

var errReadOnly = errors.New("mail delivery disabled")

// disabledChannel stands in for the mailer in read-only mode.
type disabledChannel struct{}

func (disabledChannel) Dispatch(_ context.Context, msg core.Message) error {
	return &core.DispatchError{To: msg.To, Err: errReadOnly}
}
