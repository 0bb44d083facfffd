package extraction

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"phiextract/internal/services"
)

func TestReasonFor(t *testing.T) {
	cases := []struct {
		err  error
		want Reason
	}{
		{nil, ReasonNone},
		{services.Wrap(services.ErrInput, "resolve", "stat", "x", nil), ReasonMissingInput},
		{services.Wrap(services.ErrBadArchive, "decode", "open", "x", nil), ReasonBadArchive},
		{services.Wrap(services.ErrConfiguration, "schema", "load", "x", nil), ReasonMissingSchema},
		{services.Wrap(services.ErrExtractionIncomplete, "locate", "", "", nil), ReasonIncompleteExtraction},
		{services.Wrap(services.ErrWrite, "emit", "create", "x", nil), ReasonWriteError},
		{services.Wrap(services.ErrTransient, "fetch", "get", "x", nil), ReasonDownloadFailed},
		{fmt.Errorf("stage: %w", context.Canceled), ReasonCanceled},
		{errors.New("boom"), ReasonUnknown},
	}
	for _, tc := range cases {
		if got := ReasonFor(tc.err); got != tc.want {
			t.Fatalf("ReasonFor(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestFetchStageFailuresAreDownloadFailures(t *testing.T) {
	err := services.Wrap(services.ErrConfiguration, "fetch", "download", "no url", nil)
	if got := reasonForStage(StageFetch, err); got != ReasonDownloadFailed {
		t.Fatalf("reasonForStage = %s", got)
	}
	if got := reasonForStage(StageFetch, context.Canceled); got != ReasonCanceled {
		t.Fatalf("reasonForStage(canceled) = %s", got)
	}
}

func TestSkipRemainingFillsUnrunStages(t *testing.T) {
	r := &Report{Results: []StageResult{{Stage: StageResolvePath, Status: StatusFailed}}}
	r.skipRemaining("aborted")
	if len(r.Results) != len(Stages) {
		t.Fatalf("results = %d, want %d", len(r.Results), len(Stages))
	}
	for _, res := range r.Results[1:] {
		if res.Status != StatusSkipped {
			t.Fatalf("stage %s status = %s", res.Stage, res.Status)
		}
	}
}
