package extraction

import (
	"context"
	"errors"
	"time"

	"phiextract/internal/discovery"
	"phiextract/internal/services"
)

// Stage names a pipeline step.
type Stage string

// Pipeline stages in execution order.
const (
	StageFetch           Stage = "fetch"
	StageResolvePath     Stage = "resolve_path"
	StageEnsureOutputDir Stage = "ensure_output_dir"
	StageLoadSchema      Stage = "load_schema"
	StageDecodeContainer Stage = "decode_container"
	StageLocateObjects   Stage = "locate_objects"
	StageNormalize       Stage = "normalize"
	StageEmit            Stage = "emit"
	StageCatalog         Stage = "catalog"
)

// Stages lists the extraction stages in execution order. StageFetch only
// runs when a download precedes the extraction.
var Stages = []Stage{
	StageResolvePath,
	StageEnsureOutputDir,
	StageLoadSchema,
	StageDecodeContainer,
	StageLocateObjects,
	StageNormalize,
	StageEmit,
	StageCatalog,
}

// Status is the outcome of one stage.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StageResult records what a stage did.
type StageResult struct {
	Stage    Stage
	Status   Status
	Detail   string
	Duration time.Duration
	Err      error
}

// Reason classifies a failed run.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonMissingInput         Reason = "MissingInput"
	ReasonBadArchive           Reason = "BadArchive"
	ReasonMissingSchema        Reason = "MissingSchema"
	ReasonIncompleteExtraction Reason = "IncompleteExtraction"
	ReasonWriteError           Reason = "WriteError"
	ReasonDownloadFailed       Reason = "DownloadFailed"
	ReasonCanceled             Reason = "Canceled"
	ReasonUnknown              Reason = "Unknown"
)

// ReasonFor maps an error to the failure reason reported for the run.
func ReasonFor(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCanceled
	case errors.Is(err, services.ErrInput):
		return ReasonMissingInput
	case errors.Is(err, services.ErrBadArchive):
		return ReasonBadArchive
	case errors.Is(err, services.ErrConfiguration):
		return ReasonMissingSchema
	case errors.Is(err, services.ErrExtractionIncomplete):
		return ReasonIncompleteExtraction
	case errors.Is(err, services.ErrWrite):
		return ReasonWriteError
	case errors.Is(err, services.ErrTransient):
		return ReasonDownloadFailed
	default:
		return ReasonUnknown
	}
}

func reasonForStage(stage Stage, err error) Reason {
	if stage == StageFetch && !errors.Is(err, context.Canceled) {
		return ReasonDownloadFailed
	}
	return ReasonFor(err)
}

func hintFor(reason Reason) string {
	switch reason {
	case ReasonMissingInput:
		return "pass the archive path as an argument or set source.archive_path"
	case ReasonBadArchive:
		return "check the archive is a complete game package"
	case ReasonMissingSchema:
		return "regenerate the typetree schema for this game version"
	case ReasonIncompleteExtraction:
		return "set extraction.allow_partial to emit the tables that were found"
	case ReasonWriteError:
		return "check the output directory is writable and not used by another run"
	case ReasonDownloadFailed:
		return "check source.download_url and network access"
	default:
		return "check logs for details"
	}
}

// Report collects the stage results of one run.
type Report struct {
	RunID   string
	Archive discovery.Resolution
	Results []StageResult
	// Reason is empty when the run succeeded.
	Reason Reason
	// Missing lists the behaviours that were not found.
	Missing []string
	// Written lists the emitted file names in write order.
	Written []string
	// CatalogPath is set when the catalog was exported.
	CatalogPath string
}

// Failed reports whether the run stopped on an error.
func (r *Report) Failed() bool { return r.Reason != ReasonNone }

// Result returns the result recorded for stage.
func (r *Report) Result(stage Stage) (StageResult, bool) {
	for _, res := range r.Results {
		if res.Stage == stage {
			return res, true
		}
	}
	return StageResult{}, false
}

// Err returns the error of the failed stage, if any.
func (r *Report) Err() error {
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			return res.Err
		}
	}
	return nil
}

func (r *Report) skipRemaining(detail string) {
	for _, stage := range Stages {
		if _, ok := r.Result(stage); ok {
			continue
		}
		r.Results = append(r.Results, StageResult{Stage: stage, Status: StatusSkipped, Detail: detail})
	}
}
