package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func newStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(Options{BasePath: t.TempDir(), BaseURL: "http://localhost:8081/static/"})
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	return store
}

func TestUploadNamesAndExtensions(t *testing.T) {
	store := newStore(t)
	loc, err := store.Upload(context.Background(), pngHeader, "generations/u1/processed", "gen-1_FRONT")
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	want := "http://localhost:8081/static/generations/u1/processed/gen-1_FRONT.png"
	if loc != want {
		t.Fatalf("locator = %q, want %q", loc, want)
	}
	if _, err := os.Stat(filepath.Join(store.BasePath(), "generations", "u1", "processed", "gen-1_FRONT.png")); err != nil {
		t.Fatalf("file not written: %v", err)
	}

	anon, err := store.Upload(context.Background(), pngHeader, "generations/u1/raw", "")
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if !strings.HasPrefix(anon, "http://localhost:8081/static/generations/u1/raw/") || !strings.HasSuffix(anon, ".png") {
		t.Fatalf("unexpected anonymous locator %q", anon)
	}
}

func TestDownloadRoundTripsOwnLocator(t *testing.T) {
	store := newStore(t)
	loc, err := store.Upload(context.Background(), pngHeader, "a", "b.png")
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	data, err := store.Download(context.Background(), loc)
	if err != nil {
		t.Fatalf("Download error: %v", err)
	}
	if string(data) != string(pngHeader) {
		t.Fatalf("downloaded bytes mismatch")
	}
}

func TestDownloadDataURL(t *testing.T) {
	store := newStore(t)
	store.httpClient = &http.Client{Transport: failTransport{}}
	payload := []byte("inline-bytes")
	data, err := store.Download(context.Background(), "data:image/png;base64,"+base64.StdEncoding.EncodeToString(payload))
	if err != nil {
		t.Fatalf("Download error: %v", err)
	}
	if string(data) != string(payload) {
		t.Fatalf("data = %q, want %q", data, payload)
	}
}

func TestDownloadRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("remote"))
	}))
	defer srv.Close()

	store := newStore(t)
	data, err := store.Download(context.Background(), srv.URL+"/img.png")
	if err != nil {
		t.Fatalf("Download error: %v", err)
	}
	if string(data) != "remote" {
		t.Fatalf("data = %q", data)
	}
	if _, err := store.Download(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestDownloadUnreachable(t *testing.T) {
	store := newStore(t)
	store.httpClient = &http.Client{Transport: failTransport{}}
	_, err := store.Download(context.Background(), "https://cdn.example.com/x.png")
	if !errors.Is(err, domain.ErrDependencyUnavailable) {
		t.Fatalf("err = %v, want ErrDependencyUnavailable", err)
	}
}

func TestDownloadMissingKey(t *testing.T) {
	store := newStore(t)
	_, err := store.Download(context.Background(), "nope/file.png")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSanitizeKeyRejectsTraversal(t *testing.T) {
	for _, key := range []string{"", "..", "../etc/passwd", "a/../../b"} {
		if _, err := sanitizeKey(key); err == nil {
			t.Fatalf("sanitizeKey(%q) accepted", key)
		}
	}
	got, err := sanitizeKey("/a//b/./c.png")
	if err != nil || got != "a/b/c.png" {
		t.Fatalf("sanitizeKey = %q, %v", got, err)
	}
}

type failTransport struct{}

func (failTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("network disabled")
}
