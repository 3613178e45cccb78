// Package ollama is a minimal client for the local Ollama HTTP API, covering
// the calls the classifier needs: model discovery, pulls, and structured chat.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// StatusError is a non-200 answer from Ollama. Message holds the server's
// {"error": "..."} text when it sent one.
type StatusError struct {
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ollama %s: status %d: %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("ollama %s: unexpected status %d", e.Path, e.Status)
}

// Client talks to one Ollama server. Deadlines come from the caller's context
// except for the short probes, which bound themselves.
type Client struct {
	baseURL string
	hc      *http.Client
}

// New returns a Client for baseURL, e.g. "http://localhost:11434".
func New(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), hc: &http.Client{}}
}

// send issues a request with an optional JSON body and returns the response
// when the status is 200. The caller closes the body.
func (c *Client) send(ctx context.Context, method, path string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encoding %s request: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}
	defer resp.Body.Close()

	se := &StatusError{Path: path, Status: resp.StatusCode}
	var failure struct {
		Error string `json:"error"`
	}
	if json.NewDecoder(resp.Body).Decode(&failure) == nil {
		se.Message = failure.Error
	}
	return nil, se
}

// call is send plus decoding of a single JSON answer into out.
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.send(ctx, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// IsRunning probes GET /api/tags with a two second budget.
func (c *Client) IsRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	resp, err := c.send(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// Version returns the server version from GET /api/version.
func (c *Client) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var v versionResponse
	if err := c.call(ctx, http.MethodGet, "/api/version", nil, &v); err != nil {
		return "", fmt.Errorf("reading version: %w", err)
	}
	return v.Version, nil
}

// ListModels returns the names of the locally pulled models.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var tags tagsResponse
	if err := c.call(ctx, http.MethodGet, "/api/tags", nil, &tags); err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// HasModel reports whether name is pulled. A bare name matches any tag, so
// "phi3.5" finds "phi3.5:latest".
func (c *Client) HasModel(ctx context.Context, name string) bool {
	models, err := c.ListModels(ctx)
	if err != nil {
		return false
	}
	for _, m := range models {
		if m == name || strings.HasPrefix(m, name+":") {
			return true
		}
	}
	return false
}

// PullModel downloads name and blocks until the stream ends. onProgress, when
// non-nil, sees every status line. An error line in the stream fails the pull.
func (c *Client) PullModel(ctx context.Context, name string, onProgress func(PullProgress)) error {
	resp, err := c.send(ctx, http.MethodPost, "/api/pull", pullRequest{Name: name, Stream: true})
	if err != nil {
		return fmt.Errorf("pulling %s: %w", name, err)
	}
	defer resp.Body.Close()

	for dec := json.NewDecoder(resp.Body); ; {
		var p PullProgress
		err := dec.Decode(&p)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("pulling %s: reading progress: %w", name, err)
		}
		if p.Error != "" {
			return fmt.Errorf("pulling %s: %s", name, p.Error)
		}
		if onProgress != nil {
			onProgress(p)
		}
	}
}

// Chat runs one non-streaming chat turn and returns the assistant text. A
// non-nil jsonSchema constrains the answer to that shape. Decoding is
// deterministic (temperature 0, fixed seed).
func (c *Client) Chat(ctx context.Context, model string, messages []Message, jsonSchema *Schema) (string, error) {
	var out chatResponse
	err := c.call(ctx, http.MethodPost, "/api/chat", chatRequest{
		Model:    model,
		Messages: messages,
		Format:   jsonSchema,
		Options:  deterministic,
	}, &out)
	if err != nil {
		return "", fmt.Errorf("chat with %s: %w", model, err)
	}
	return out.Message.Content, nil
}
