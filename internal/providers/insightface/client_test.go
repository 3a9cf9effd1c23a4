package insightface

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestEmbedDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			t.Errorf("path = %s, want /embed", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["image_url"] != "https://cdn.example.com/a.png" {
			t.Errorf("image_url = %q", body["image_url"])
		}
		_, _ = w.Write([]byte(`{"face_detected":true,"embedding":[0.1,0.2,0.3],"det_score":0.98}`))
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL + "/"})
	emb, err := client.Embed(context.Background(), "https://cdn.example.com/a.png")
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	if !emb.FaceDetected || len(emb.Vector) != 3 {
		t.Fatalf("unexpected embedding %+v", emb)
	}
}

func TestEmbedNoFace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"face_detected":false,"embedding":[],"error":"Failed to load image"}`))
	}))
	defer srv.Close()

	emb, err := NewClient(Options{BaseURL: srv.URL}).Embed(context.Background(), "data:image/png;base64,AAAA")
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	if emb.FaceDetected {
		t.Fatalf("expected no face")
	}
}

func TestEmbedUnavailable(t *testing.T) {
	client := NewClient(Options{
		BaseURL: "http://insightface.invalid",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp: connection refused")
		})},
	})
	_, err := client.Embed(context.Background(), "https://cdn.example.com/a.png")
	if !errors.Is(err, domain.ErrDependencyUnavailable) {
		t.Fatalf("err = %v, want ErrDependencyUnavailable", err)
	}
}

func TestSimilarity(t *testing.T) {
	client := NewClient(Options{
		BaseURL: "http://insightface.local",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.URL.Path != "/similarity" {
				t.Fatalf("path = %s", req.URL.Path)
			}
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Body:       io.NopCloser(strings.NewReader(`{"similarity":0.875}`)),
			}, nil
		})},
	})
	sim, err := client.Similarity(context.Background(), []float64{1, 0}, []float64{1, 0})
	if err != nil {
		t.Fatalf("Similarity error: %v", err)
	}
	if sim != 0.875 {
		t.Fatalf("similarity = %v, want 0.875", sim)
	}
}

func TestSimilarityShapeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Embeddings must have the same shape"}`))
	}))
	defer srv.Close()

	if _, err := NewClient(Options{BaseURL: srv.URL}).Similarity(context.Background(), []float64{1}, []float64{1, 2}); err == nil {
		t.Fatalf("expected error for status 400")
	}
}

func TestBatchEmbedKeepsOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"face_detected":true,"embedding":[1,0]},{"face_detected":false,"embedding":[]}]}`))
	}))
	defer srv.Close()

	out, err := NewClient(Options{BaseURL: srv.URL}).BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("BatchEmbed error: %v", err)
	}
	if len(out) != 2 || !out[0].FaceDetected || out[1].FaceDetected {
		t.Fatalf("unexpected batch %+v", out)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","service":"insightface"}`))
	}))
	defer srv.Close()

	if err := NewClient(Options{BaseURL: srv.URL}).Health(context.Background()); err != nil {
		t.Fatalf("Health error: %v", err)
	}
}
