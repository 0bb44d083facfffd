package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"phiextract/internal/assets"
	"phiextract/internal/catalog"
	"phiextract/internal/config"
	"phiextract/internal/discovery"
	"phiextract/internal/emit"
	"phiextract/internal/fetch"
	"phiextract/internal/locator"
	"phiextract/internal/logging"
	"phiextract/internal/schema"
	"phiextract/internal/services"
)

// Runner sequences the extraction pipeline.
type Runner struct {
	cfg       *config.Config
	logger    *slog.Logger
	resolver  *discovery.Resolver
	fetchOpts fetch.Options
}

// New builds a runner for cfg.
func New(cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "extraction")
	return &Runner{
		cfg:      cfg,
		logger:   logger,
		resolver: discovery.NewResolver(cfg, logger),
	}
}

// WithFetchOptions overrides the download options used by FetchAndRun.
func (r *Runner) WithFetchOptions(opts fetch.Options) *Runner {
	r.fetchOpts = opts
	return r
}

type outcome struct {
	detail  string
	warning bool
}

type run struct {
	*Runner
	ctx    context.Context
	logger *slog.Logger
	report *Report
}

func (r *Runner) begin(ctx context.Context) *run {
	id := uuid.NewString()
	ctx = services.WithRunID(ctx, id)
	return &run{
		Runner: r,
		ctx:    ctx,
		logger: logging.WithContext(ctx, r.logger),
		report: &Report{RunID: id},
	}
}

// step runs one stage and records its result. A failed stage sets the run's
// failure reason.
func (x *run) step(stage Stage, fn func(context.Context, *slog.Logger) (outcome, error)) error {
	ctx := services.WithStage(x.ctx, string(stage))
	logger := logging.WithContext(ctx, x.Runner.logger)
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	start := time.Now()
	out, err := fn(ctx, logger)
	result := StageResult{Stage: stage, Status: StatusOK, Detail: out.detail, Duration: time.Since(start)}
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		if result.Detail == "" {
			result.Detail = err.Error()
		}
		x.report.Results = append(x.report.Results, result)
		x.report.Reason = reasonForStage(stage, err)
		logging.ErrorWithContext(logger, "stage failed", "stage_failure",
			logging.String("reason", string(x.report.Reason)),
			logging.String(logging.FieldErrorHint, hintFor(x.report.Reason)),
			logging.Error(err),
		)
		return err
	}
	if out.warning {
		result.Status = StatusWarning
	}
	x.report.Results = append(x.report.Results, result)
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("status", string(result.Status)),
		logging.String("detail", result.Detail),
		logging.Duration("duration", result.Duration),
	)
	return nil
}

func (x *run) skip(stage Stage, detail string) {
	x.report.Results = append(x.report.Results, StageResult{Stage: stage, Status: StatusSkipped, Detail: detail})
}

// Run executes the full pipeline against the archive resolved from archive,
// the configured path, or the device. The report is returned even when the
// run fails; the error is the failed stage's error.
func (r *Runner) Run(ctx context.Context, archive string) (*Report, error) {
	x := r.begin(ctx)
	err := x.extract(archive)
	return x.report, err
}

// FetchAndRun downloads the archive from url, or the configured download
// URL when url is empty, and extracts it.
func (r *Runner) FetchAndRun(ctx context.Context, url string) (*Report, error) {
	x := r.begin(ctx)
	if strings.TrimSpace(url) == "" {
		url = r.cfg.Source.DownloadURL
	}
	var archive string
	err := x.step(StageFetch, func(ctx context.Context, logger *slog.Logger) (outcome, error) {
		opts := r.fetchOpts
		if opts.Timeout == 0 {
			opts.Timeout = time.Duration(r.cfg.Source.DownloadTimeout) * time.Second
		}
		opts.Logger = logger
		res, err := fetch.Download(ctx, url, r.cfg.DownloadPath(), opts)
		if err != nil {
			return outcome{}, err
		}
		archive = res.Path
		return outcome{detail: fmt.Sprintf("%s (%d bytes)", res.Path, res.Bytes)}, nil
	})
	if err != nil {
		x.report.skipRemaining("fetch failed")
		return x.report, err
	}
	err = x.extract(archive)
	return x.report, err
}

// Inspect runs the read-only stages and returns the normalized records
// without writing anything.
func (r *Runner) Inspect(ctx context.Context, archive string) (*Dataset, *Report, error) {
	x := r.begin(ctx)
	ds, err := x.load(archive)
	if err != nil {
		return nil, x.report, err
	}
	return ds, x.report, nil
}

func (x *run) extract(archive string) error {
	var lock *flock.Flock
	defer func() {
		if lock != nil {
			if err := lock.Unlock(); err != nil {
				x.logger.Debug("release output lock failed", logging.Error(err))
			}
		}
	}()

	output := x.cfg.Paths.OutputDir
	err := x.resolve(archive)
	if err == nil {
		err = x.step(StageEnsureOutputDir, func(ctx context.Context, logger *slog.Logger) (outcome, error) {
			if err := os.MkdirAll(output, 0o755); err != nil {
				return outcome{}, services.Wrap(services.ErrWrite, "output", "create", output, err)
			}
			l, err := acquireLock(output)
			if err != nil {
				return outcome{}, err
			}
			lock = l
			return outcome{detail: output}, nil
		})
	}
	var ds *Dataset
	if err == nil {
		ds, err = x.decode(x.report.Archive.Path)
	}
	if err == nil {
		err = x.step(StageEmit, func(ctx context.Context, logger *slog.Logger) (outcome, error) {
			return x.writeTables(ds, output, logger)
		})
	}
	if err == nil {
		if !x.cfg.Catalog.Enabled {
			x.skip(StageCatalog, "disabled")
		} else {
			err = x.step(StageCatalog, func(ctx context.Context, logger *slog.Logger) (outcome, error) {
				return x.exportCatalog(ctx, ds)
			})
		}
	}
	if err != nil {
		x.report.skipRemaining("run aborted")
		return err
	}
	x.logger.Info("extraction complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("archive", x.report.Archive.Path),
		logging.Int("files", len(x.report.Written)),
	)
	return nil
}

// load resolves the archive and decodes it without touching the output
// directory.
func (x *run) load(archive string) (*Dataset, error) {
	if err := x.resolve(archive); err != nil {
		return nil, err
	}
	return x.decode(x.report.Archive.Path)
}

func (x *run) resolve(archive string) error {
	return x.step(StageResolvePath, func(ctx context.Context, logger *slog.Logger) (outcome, error) {
		res, err := x.resolver.Resolve(ctx, archive)
		if err != nil {
			return outcome{}, err
		}
		x.report.Archive = res
		return outcome{detail: fmt.Sprintf("%s (%s)", res.Path, res.Source)}, nil
	})
}

// decode runs the schema, container, locate and normalize stages.
func (x *run) decode(path string) (*Dataset, error) {
	var (
		s         *schema.Schema
		container *assets.Container
		located   locator.Located
		ds        *Dataset
	)
	err := x.step(StageLoadSchema, func(ctx context.Context, logger *slog.Logger) (outcome, error) {
		loaded, err := schema.Load(x.cfg.Paths.SchemaPath)
		if err != nil {
			return outcome{}, err
		}
		s = loaded
		return outcome{detail: fmt.Sprintf("%d entries", len(s.Names()))}, nil
	})
	if err != nil {
		return nil, err
	}

	err = x.step(StageDecodeContainer, func(ctx context.Context, logger *slog.Logger) (outcome, error) {
		c, err := assets.OpenArchive(path, x.cfg.Source.Entries)
		if err != nil {
			return outcome{}, services.Wrap(services.ErrBadArchive, "decode", "open archive", path, err)
		}
		container = c
		return outcome{detail: fmt.Sprintf("%d files, %d objects", len(c.Files()), len(c.Objects()))}, nil
	})
	if err != nil {
		return nil, err
	}

	err = x.step(StageLocateObjects, func(ctx context.Context, logger *slog.Logger) (outcome, error) {
		l, err := locator.Locate(ctx, container, s, logger)
		if err != nil {
			return outcome{}, err
		}
		located = l
		missing := l.Missing()
		x.report.Missing = missing
		if len(missing) == 0 {
			return outcome{detail: "all behaviours found"}, nil
		}
		detail := "missing " + strings.Join(missing, ", ")
		if !x.cfg.Extraction.AllowPartial {
			return outcome{detail: detail}, services.Wrap(services.ErrExtractionIncomplete, "locate", "find behaviours", detail, nil)
		}
		logging.WarnWithContext(logger, "behaviours missing; emitting partial output", "partial_extraction",
			logging.String("missing", strings.Join(missing, ",")),
			logging.String(logging.FieldErrorHint, "regenerate the schema or check the archive entries"),
			logging.String(logging.FieldImpact, "tables for the missing behaviours are not written"),
		)
		return outcome{detail: detail, warning: true}, nil
	})
	if err != nil {
		return nil, err
	}

	err = x.step(StageNormalize, func(ctx context.Context, logger *slog.Logger) (outcome, error) {
		built, err := buildDataset(located, x.cfg.Extraction)
		if err != nil {
			return outcome{}, err
		}
		ds = built
		return outcome{detail: ds.Summary()}, nil
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func (x *run) writeTables(ds *Dataset, output string, logger *slog.Logger) (outcome, error) {
	quote, err := emit.ParseQuote(x.cfg.Extraction.CSVQuoting)
	if err != nil {
		return outcome{}, services.Wrap(services.ErrConfiguration, "emit", "quoting", "", err)
	}
	csv := emit.CSV
	csv.Quote = quote
	for _, table := range ds.Tables(csv) {
		if err := emit.Emit(output, table); err != nil {
			return outcome{}, err
		}
		x.report.Written = append(x.report.Written, table.File)
		logger.Debug("table written", logging.String("file", table.File), logging.Int("rows", len(table.Rows)))
	}
	return outcome{detail: fmt.Sprintf("%d files", len(x.report.Written))}, nil
}

func (x *run) exportCatalog(ctx context.Context, ds *Dataset) (outcome, error) {
	path := x.cfg.CatalogPath()
	store, err := catalog.Open(path)
	if err != nil {
		return outcome{}, services.Wrap(services.ErrWrite, "catalog", "open", path, err)
	}
	defer store.Close()
	if err := store.Replace(ctx, ds.Snapshot(x.report.RunID)); err != nil {
		if errors.Is(err, context.Canceled) {
			return outcome{}, err
		}
		return outcome{}, services.Wrap(services.ErrWrite, "catalog", "replace", path, err)
	}
	x.report.CatalogPath = path
	return outcome{detail: path}, nil
}

// acquireLock takes the advisory lock guarding an output directory. The
// lock file sits next to the directory so the output set stays clean.
func acquireLock(output string) (*flock.Flock, error) {
	path, err := lockPath(output)
	if err != nil {
		return nil, services.Wrap(services.ErrWrite, "output", "lock", output, err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrWrite, "output", "lock", path, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrWrite, "output", "lock",
			fmt.Sprintf("%s is held by another run", path), nil)
	}
	return lock, nil
}

// lockPath names the sibling lock file of output. Relative forms such as
// "." are made absolute first.
func lockPath(output string) (string, error) {
	abs, err := filepath.Abs(output)
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(abs), filepath.Base(abs)+".lock"), nil
}
