package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// tagsJSON builds a /api/tags response with the given model names.
func tagsJSON(names ...string) []byte {
	r := tagsResponse{}
	for _, n := range names {
		r.Models = append(r.Models, modelEntry{Name: n})
	}
	b, _ := json.Marshal(r)
	return b
}

func TestIsRunning_Up(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tagsJSON("phi3.5:latest"))
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	if !c.IsRunning(context.Background()) {
		t.Error("IsRunning() = false, want true")
	}
}

func TestIsRunning_Down(t *testing.T) {
	// Point at a closed server to simulate connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL)
	if c.IsRunning(context.Background()) {
		t.Error("IsRunning() = true, want false")
	}
}

func TestVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/version" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"version":"0.6.2"}`))
	}))
	defer srv.Close()

	v, err := New(srv.URL).Version(context.Background())
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if v != "0.6.2" {
		t.Errorf("Version() = %q, want %q", v, "0.6.2")
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tagsJSON("phi3.5:latest", "qwen2.5:3b"))
	}))
	defer srv.Close()

	models, err := New(srv.URL).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 || models[0] != "phi3.5:latest" || models[1] != "qwen2.5:3b" {
		t.Errorf("ListModels() = %q", models)
	}
}

func TestListModels_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).ListModels(context.Background())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Status != http.StatusInternalServerError || se.Message != "" {
		t.Errorf("StatusError = %+v, want bare 500", se)
	}
}

func TestHasModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tagsJSON("phi3.5:latest"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	if !c.HasModel(context.Background(), "phi3.5") {
		t.Error("HasModel(phi3.5) = false, want true")
	}
	if c.HasModel(context.Background(), "phi3") {
		t.Error("HasModel(phi3) = true, want false")
	}
}

func TestChat_SchemaAndOptions(t *testing.T) {
	var captured map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(chatResponse{
			Message: Message{Role: "assistant", Content: `{"scores":[{"label":"art","score":0.9}]}`},
		})
	}))
	defer srv.Close()

	one := 1.0
	schema := &Schema{
		Type: "object",
		Properties: map[string]SchemaProperty{
			"scores": {
				Type: "array",
				Items: &SchemaProperty{
					Type: "object",
					Properties: map[string]SchemaProperty{
						"label": {Type: "string", Enum: []string{"art", "music"}},
						"score": {Type: "number", Maximum: &one},
					},
					Required: []string{"label", "score"},
				},
			},
		},
		Required: []string{"scores"},
	}

	result, err := New(srv.URL).Chat(context.Background(), "phi3.5", []Message{
		{Role: "user", Content: "classify this"},
	}, schema)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !strings.Contains(result, `"art"`) {
		t.Errorf("result = %q", result)
	}

	format, ok := captured["format"].(map[string]any)
	if !ok {
		t.Fatalf("format = %T, want schema object", captured["format"])
	}
	items := format["properties"].(map[string]any)["scores"].(map[string]any)["items"].(map[string]any)
	if items["type"] != "object" {
		t.Errorf("items.type = %v, want object", items["type"])
	}
	opts, ok := captured["options"].(map[string]any)
	if !ok || opts["temperature"] != float64(0) {
		t.Errorf("options = %v, want temperature 0", captured["options"])
	}
	if captured["stream"] != false {
		t.Errorf("stream = %v, want false", captured["stream"])
	}
}

func TestChat_PlainTextOmitsFormat(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(chatResponse{Message: Message{Role: "assistant", Content: "pong"}})
	}))
	defer srv.Close()

	result, err := New(srv.URL).Chat(context.Background(), "phi3.5", []Message{{Role: "user", Content: "ping"}}, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if result != "pong" {
		t.Errorf("result = %q, want pong", result)
	}
	if _, ok := captured["format"]; ok {
		t.Error("format sent without schema")
	}
}

func TestChat_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model \"nope\" not found"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Chat(context.Background(), "nope", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v, want server message", err)
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Status != http.StatusNotFound || se.Path != "/api/chat" || se.Message != `model "nope" not found` {
		t.Errorf("StatusError = %+v", se)
	}
}

func TestPullModel_Progress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pull" {
			http.NotFound(w, r)
			return
		}

		var reqBody pullRequest
		json.NewDecoder(r.Body).Decode(&reqBody)
		if reqBody.Name != "phi3.5" {
			t.Errorf("pull model = %q, want %q", reqBody.Name, "phi3.5")
		}

		// Stream progress lines as newline-delimited JSON.
		enc := json.NewEncoder(w)
		enc.Encode(PullProgress{Status: "downloading", Total: 1000, Completed: 500})
		enc.Encode(PullProgress{Status: "downloading", Total: 1000, Completed: 1000})
		enc.Encode(PullProgress{Status: "success"})
	}))
	defer srv.Close()

	var progressCount int
	err := New(srv.URL).PullModel(context.Background(), "phi3.5", func(p PullProgress) {
		progressCount++
	})
	if err != nil {
		t.Fatalf("PullModel: %v", err)
	}
	if progressCount != 3 {
		t.Errorf("received %d progress updates, want 3", progressCount)
	}
}

func TestPullModel_StreamedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enc := json.NewEncoder(w)
		enc.Encode(PullProgress{Status: "pulling manifest"})
		enc.Encode(PullProgress{Error: "file does not exist"})
	}))
	defer srv.Close()

	err := New(srv.URL).PullModel(context.Background(), "ghost", nil)
	if err == nil || !strings.Contains(err.Error(), "file does not exist") {
		t.Errorf("err = %v, want streamed error", err)
	}
}

func TestEnsureReady_OllamaDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	err := EnsureReady(context.Background(), New(srv.URL), io.Discard, "phi3.5")
	if !errors.Is(err, ErrNotRunning) {
		t.Errorf("err = %v, want ErrNotRunning", err)
	}
}

func TestEnsureReady_PullsMissingAndWarms(t *testing.T) {
	var pulled, chats atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			if pulled.Load() > 0 {
				w.Write(tagsJSON("phi3.5:latest"))
				return
			}
			w.Write(tagsJSON())
		case "/api/pull":
			pulled.Add(1)
			json.NewEncoder(w).Encode(PullProgress{Status: "success"})
		case "/api/chat":
			chats.Add(1)
			json.NewEncoder(w).Encode(chatResponse{Message: Message{Role: "assistant", Content: "pong"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var out bytes.Buffer
	if err := EnsureReady(context.Background(), New(srv.URL), &out, "phi3.5"); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	if pulled.Load() != 1 {
		t.Errorf("pulls = %d, want 1", pulled.Load())
	}
	if chats.Load() != 1 {
		t.Errorf("warm-up chats = %d, want 1", chats.Load())
	}
	if !strings.Contains(out.String(), "model phi3.5: warm\n") {
		t.Errorf("output = %q, want warm line", out.String())
	}
}

func TestEnsureReady_WarmupFailureNonFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.Write(tagsJSON("phi3.5:latest"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var out bytes.Buffer
	if err := EnsureReady(context.Background(), New(srv.URL), &out, "phi3.5"); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	if !strings.Contains(out.String(), "warm-up failed") {
		t.Errorf("output = %q, want warm-up failure note", out.String())
	}
}
