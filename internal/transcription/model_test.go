package transcription

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureModelDownloadsAndRenamesAtomically(t *testing.T) {
	payload := make([]byte, ModelMinBytes+1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	progressC := make(chan Event, 256)

	path, err := EnsureModel(context.Background(), srv.Client(), srv.URL, dir, "model", progressC)
	if err != nil {
		t.Fatalf("EnsureModel: %v", err)
	}
	close(progressC)

	if filepath.Base(path) != "model.bin" {
		t.Fatalf("unexpected final path: %s", path)
	}
	if _, err := os.Stat(path + ".part"); !os.IsNotExist(err) {
		t.Fatalf("expected .part file to be gone after rename")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat final file: %v", err)
	}
	if info.Size() != int64(len(payload)) {
		t.Fatalf("unexpected final size: %d", info.Size())
	}

	sawProgress := false
	for range progressC {
		sawProgress = true
	}
	if !sawProgress {
		t.Fatal("expected at least one DownloadProgress event")
	}
}

func TestEnsureModelSkipsWhenAlreadyPresent(t *testing.T) {
	dir := t.TempDir()
	finalPath := filepath.Join(dir, "model.bin")
	if err := os.WriteFile(finalPath, make([]byte, ModelMinBytes+1), 0o644); err != nil {
		t.Fatalf("seed existing model: %v", err)
	}

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	path, err := EnsureModel(context.Background(), srv.Client(), srv.URL, dir, "model", nil)
	if err != nil {
		t.Fatalf("EnsureModel: %v", err)
	}
	if path != finalPath {
		t.Fatalf("unexpected path: %s", path)
	}
	if called {
		t.Fatal("expected download to be skipped when a valid model already exists")
	}
}
