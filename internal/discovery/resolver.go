package discovery

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"phiextract/internal/config"
	"phiextract/internal/logging"
	"phiextract/internal/services"
)

var commandContext = exec.CommandContext

const packagePrefix = "package:"

// Source names where an archive path came from.
type Source string

const (
	SourceArgument Source = "argument"
	SourceConfig   Source = "config"
	SourceDevice   Source = "device"
)

// Resolution is a located archive.
type Resolution struct {
	Path   string
	Source Source
}

// Resolver locates the game archive.
type Resolver struct {
	archivePath string
	deviceRoot  string
	packageName string
	pmBinary    string
	logger      *slog.Logger
}

// NewResolver builds a resolver from configuration.
func NewResolver(cfg *config.Config, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		archivePath: cfg.Source.ArchivePath,
		deviceRoot:  cfg.Discovery.DeviceRoot,
		packageName: cfg.Discovery.PackageName,
		pmBinary:    cfg.Discovery.PMBinary,
		logger:      logger,
	}
}

// Resolve picks the archive path: the explicit argument, then the
// configured path, then the installed package when running on a device.
// The result must be an existing regular file.
func (r *Resolver) Resolve(ctx context.Context, explicit string) (Resolution, error) {
	var res Resolution
	switch {
	case strings.TrimSpace(explicit) != "":
		res = Resolution{Path: strings.TrimSpace(explicit), Source: SourceArgument}
	case r.archivePath != "":
		res = Resolution{Path: r.archivePath, Source: SourceConfig}
	case r.onDevice():
		path, err := r.packagePath(ctx)
		if err != nil {
			return Resolution{}, err
		}
		res = Resolution{Path: path, Source: SourceDevice}
	default:
		return Resolution{}, services.Wrap(services.ErrInput, "resolve", "archive path",
			"no archive given and no device package found", nil)
	}

	info, err := os.Stat(res.Path)
	if err != nil {
		return Resolution{}, services.Wrap(services.ErrInput, "resolve", "stat archive", res.Path, err)
	}
	if !info.Mode().IsRegular() {
		return Resolution{}, services.Wrap(services.ErrInput, "resolve", "stat archive",
			fmt.Sprintf("%s is not a regular file", res.Path), nil)
	}
	r.logger.Debug("archive resolved",
		logging.String("path", res.Path),
		logging.String("source", string(res.Source)),
	)
	return res, nil
}

func (r *Resolver) onDevice() bool {
	if r.deviceRoot == "" {
		return false
	}
	info, err := os.Stat(r.deviceRoot)
	return err == nil && info.IsDir()
}

func (r *Resolver) packagePath(ctx context.Context) (string, error) {
	cmd := commandContext(ctx, r.pmBinary, "path", r.packageName) //nolint:gosec
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", services.Wrap(services.ErrInput, "resolve", "pm path",
			fmt.Sprintf("look up package %s", r.packageName), err)
	}
	path, err := ParsePackagePath(stdout.String())
	if err != nil {
		return "", services.Wrap(services.ErrInput, "resolve", "pm path", r.packageName, err)
	}
	return path, nil
}

// ParsePackagePath extracts the base APK path from `pm path` output. Split
// installs print one line per APK; the first line is the base.
func ParsePackagePath(output string) (string, error) {
	line, _, _ := strings.Cut(output, "\n")
	line = strings.TrimRight(line, "\r")
	path, ok := strings.CutPrefix(line, packagePrefix)
	if !ok || strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("unexpected pm output %q", strings.TrimSpace(output))
	}
	return strings.TrimSpace(path), nil
}
