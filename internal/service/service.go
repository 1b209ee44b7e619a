// Package service owns the import transaction: it serializes imports, reads
// the uploaded workbook, runs the importer inside the backend's transaction
// and decides whether that transaction commits.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/JonMunkholm/cadastre/internal/config"
	"github.com/JonMunkholm/cadastre/internal/core"
	"github.com/JonMunkholm/cadastre/internal/core/tables"
	"github.com/JonMunkholm/cadastre/internal/workbook"
)

// Commit modes.
const (
	CommitLenient = "lenient"
	CommitStrict  = "strict"
)

// Backend runs fn inside one storage transaction and commits only when fn
// returns commit=true without error. Implemented by the postgres, sqlite and
// in-memory stores.
type Backend interface {
	WithinTx(ctx context.Context, fn func(core.EntityStore) (bool, error)) error
}

// Outcome is the report of one import plus the transaction decision.
type Outcome struct {
	*core.Report
	Committed  bool  `json:"committed"`
	DurationMs int64 `json:"durationMs"`
}

// Options configures a Service.
type Options struct {
	// Descriptors overrides the registered descriptor set.
	Descriptors []core.Descriptor

	// DryRun always rolls back.
	DryRun bool

	Logger *slog.Logger
	Now    func() time.Time
}

// Service runs imports against a backend.
type Service struct {
	backend  Backend
	importer *core.Importer
	limiter  *core.ImportLimiter

	timeout time.Duration
	strict  bool
	dryRun  bool
	logger  *slog.Logger
	now     func() time.Time
}

// New builds a service from the import configuration. It also applies the
// configuration's parsing settings (serial date offset, date order, property
// types, default currency), which are process wide.
func New(backend Backend, cfg config.ImportConfig, opts Options) (*Service, error) {
	Apply(cfg)

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	descs := opts.Descriptors
	if descs == nil {
		descs = core.All()
	}

	im, err := core.NewImporter(descs, core.Options{
		BatchSize:   cfg.BatchSize,
		MaxWarnings: cfg.MaxWarnings,
		MaxErrors:   cfg.MaxErrors,
		Logger:      opts.Logger,
		Now:         opts.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("build importer: %w", err)
	}

	return &Service{
		backend:  backend,
		importer: im,
		limiter:  core.NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		timeout:  cfg.Timeout,
		strict:   cfg.CommitMode == CommitStrict,
		dryRun:   opts.DryRun,
		logger:   opts.Logger,
		now:      opts.Now,
	}, nil
}

// Apply pushes the parsing settings of cfg into the core and table packages.
func Apply(cfg config.ImportConfig) {
	if cfg.SerialDateOffset > 0 {
		core.SerialDateOffset = cfg.SerialDateOffset
	}
	core.DayFirstDates = cfg.DayFirstDates
	tables.SetPropertyTypes(cfg.PropertyTypes)
	if cfg.DefaultCurrency != "" {
		tables.DefaultCurrency = cfg.DefaultCurrency
	}
}

// Descriptors returns the descriptors in processing order.
func (s *Service) Descriptors() []core.Descriptor {
	return s.importer.Descriptors()
}

// Import reads an .xlsx payload and imports it. Workbook read failures and
// ErrTooManyImports are returned before any transaction starts.
func (s *Service) Import(ctx context.Context, r io.Reader) (*Outcome, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	wb, err := workbook.Read(r)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, wb)
}

// ImportWorkbook imports an already parsed workbook.
func (s *Service) ImportWorkbook(ctx context.Context, wb core.Workbook) (*Outcome, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	return s.run(ctx, wb)
}

func (s *Service) run(ctx context.Context, wb core.Workbook) (*Outcome, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := s.now()
	out := &Outcome{}

	err := s.backend.WithinTx(ctx, func(store core.EntityStore) (bool, error) {
		out.Report = s.importer.Run(ctx, wb, store)
		out.Committed = s.shouldCommit(out.Report)
		return out.Committed, nil
	})
	out.DurationMs = s.now().Sub(started).Milliseconds()
	if err != nil {
		out.Committed = false
		return out, fmt.Errorf("import transaction: %w", err)
	}

	log := s.logger.With("import_id", out.ImportID)
	if out.Committed {
		log.Info("import committed",
			"imported", out.Summary.TotalImported,
			"duration_ms", out.DurationMs)
	} else {
		log.Warn("import rolled back",
			"success", out.Success,
			"partial", out.HasPartial(),
			"dry_run", s.dryRun,
			"errors", out.Summary.TotalErrors)
	}
	return out, nil
}

// shouldCommit applies the commit policy: never on failure or dry run, and
// in strict mode never when a sheet was only partly imported.
func (s *Service) shouldCommit(r *core.Report) bool {
	switch {
	case s.dryRun:
		return false
	case !r.Success:
		return false
	case s.strict && r.HasPartial():
		return false
	default:
		return true
	}
}

// Status reports the import slot usage.
func (s *Service) Status() core.ImportLimiterStatus {
	return s.limiter.Status()
}

// Drain waits for a running import to finish.
func (s *Service) Drain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
