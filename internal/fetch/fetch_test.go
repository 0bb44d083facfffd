package fetch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"phiextract/internal/services"
)

func TestDownloadWritesFileOnOK(t *testing.T) {
	body := strings.Repeat("apk-bytes ", 1000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	dest := filepath.Join(t.TempDir(), "work", "phigros.apk")

	res, err := Download(context.Background(), srv.URL, dest, Options{Logger: logger, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if res.Bytes != int64(len(body)) || res.Path != dest {
		t.Fatalf("result = %+v", res)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if string(data) != body {
		t.Fatalf("downloaded content mismatch")
	}
	if _, err := os.Stat(dest + ".part"); !os.IsNotExist(err) {
		t.Fatalf("partial file should be gone, stat err = %v", err)
	}
	if !strings.Contains(logs.String(), "download progress") || !strings.Contains(logs.String(), "download complete") {
		t.Fatalf("expected progress and completion logs, got %s", logs.String())
	}
}

func TestDownloadRejectsNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "phigros.apk")
	_, err := Download(context.Background(), srv.URL, dest, Options{})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Fatalf("dest should not exist after failed download")
	}
	if _, statErr := os.Stat(dest + ".part"); !os.IsNotExist(statErr) {
		t.Fatalf("partial file should not exist after failed download")
	}
}

func TestDownloadRequiresURL(t *testing.T) {
	_, err := Download(context.Background(), "  ", filepath.Join(t.TempDir(), "x.apk"), Options{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestDownloadHonoursTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := Download(context.Background(), srv.URL, filepath.Join(t.TempDir(), "x.apk"), Options{Timeout: 50 * time.Millisecond})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient on timeout, got %v", err)
	}
}
