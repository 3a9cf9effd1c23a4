package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAIGenerate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/images/generations") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"https://oaidalleapi.example/img.png"}]}`))
	}))
	defer srv.Close()

	seed := int64(99)
	eng := NewOpenAI(OpenAIOptions{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	res, err := eng.Generate(context.Background(), Spec{Prompt: "leather belt", Pose: "FRONT", Seed: &seed})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if res.ImageURL != "https://oaidalleapi.example/img.png" || res.Seed != 99 || res.Engine != "openai-dall-e-3" {
		t.Fatalf("unexpected result %+v", res)
	}
	if body["model"] != "dall-e-3" || body["quality"] != "hd" || body["size"] != "1024x1024" {
		t.Fatalf("unexpected request body %v", body)
	}
}

func TestOpenAIMissingKey(t *testing.T) {
	_, err := NewOpenAI(OpenAIOptions{}).Generate(context.Background(), Spec{Prompt: "x"})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}
