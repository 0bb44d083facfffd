package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"phiextract/internal/logging"
	"phiextract/internal/services"
)

const progressBucket = 10

// Options tunes a download.
type Options struct {
	Timeout time.Duration
	Client  *http.Client
	Logger  *slog.Logger
}

// Result describes a completed download.
type Result struct {
	Path     string
	Bytes    int64
	Duration time.Duration
}

// Download fetches url into dest. The body is streamed to dest+".part" and
// renamed once complete, so dest only ever holds a finished file.
func Download(ctx context.Context, url, dest string, opts Options) (Result, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Result{}, services.Wrap(services.ErrConfiguration, "fetch", "download",
			"no download url configured (set source.download_url or APK_DOWNLOAD_URL)", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrWrite, "fetch", "prepare", filepath.Dir(dest), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "fetch", "request", url, err)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "fetch", "request", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, services.Wrap(services.ErrTransient, "fetch", "request",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	partial := dest + ".part"
	file, err := os.Create(partial)
	if err != nil {
		return Result{}, services.Wrap(services.ErrWrite, "fetch", "create", partial, err)
	}

	counter := &progressWriter{
		ctx:     ctx,
		total:   resp.ContentLength,
		sampler: logging.NewProgressSampler(progressBucket),
		logger:  logger,
	}
	written, copyErr := io.Copy(io.MultiWriter(file, counter), resp.Body)
	closeErr := file.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(partial)
		if copyErr != nil {
			return Result{}, services.Wrap(services.ErrTransient, "fetch", "read body", url, copyErr)
		}
		return Result{}, services.Wrap(services.ErrWrite, "fetch", "close", partial, closeErr)
	}
	if resp.ContentLength > 0 && written != resp.ContentLength {
		_ = os.Remove(partial)
		return Result{}, services.Wrap(services.ErrTransient, "fetch", "read body",
			fmt.Sprintf("received %d of %d bytes", written, resp.ContentLength), nil)
	}
	if err := os.Rename(partial, dest); err != nil {
		_ = os.Remove(partial)
		return Result{}, services.Wrap(services.ErrWrite, "fetch", "rename", dest, err)
	}

	result := Result{Path: dest, Bytes: written, Duration: time.Since(start)}
	logger.Info("download complete",
		logging.String("path", dest),
		logging.Int64("bytes", written),
		logging.Duration("duration", result.Duration),
	)
	return result, nil
}

type progressWriter struct {
	ctx     context.Context
	total   int64
	written int64
	sampler *logging.ProgressSampler
	logger  *slog.Logger
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	percent := -1.0
	if p.total > 0 {
		percent = float64(p.written) * 100 / float64(p.total)
	}
	if p.sampler.ShouldLog(percent, "download") {
		attrs := []slog.Attr{logging.Int64("bytes", p.written)}
		if percent >= 0 {
			attrs = append(attrs, logging.Int("percent", int(percent)))
		}
		p.logger.LogAttrs(p.ctx, slog.LevelInfo, "download progress", attrs...)
	}
	return len(b), nil
}
