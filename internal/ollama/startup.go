package ollama

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrNotRunning is returned by EnsureReady when the server cannot be reached.
var ErrNotRunning = errors.New("Ollama is not running. Start it with: ollama serve")

// EnsureReady checks that Ollama is running and that every model is available,
// pulling missing ones with progress written to w. It then warms up the first
// model so the first classification does not pay the cold-load penalty.
// Warm-up failures are reported to w but are not fatal.
func EnsureReady(ctx context.Context, c *Client, w io.Writer, models ...string) error {
	if !c.IsRunning(ctx) {
		return ErrNotRunning
	}

	for _, model := range models {
		if c.HasModel(ctx, model) {
			fmt.Fprintf(w, "model %s: ready\n", model)
			continue
		}

		fmt.Fprintf(w, "model %s: pulling...\n", model)
		err := c.PullModel(ctx, model, func(p PullProgress) {
			if p.Total > 0 {
				pct := float64(p.Completed) / float64(p.Total) * 100
				fmt.Fprintf(w, "  %s %.0f%%\n", p.Status, pct)
			} else {
				fmt.Fprintf(w, "  %s\n", p.Status)
			}
		})
		if err != nil {
			return fmt.Errorf("pulling model %s: %w", model, err)
		}
		fmt.Fprintf(w, "model %s: ready\n", model)
	}

	if len(models) == 0 {
		return nil
	}

	warm := models[0]
	fmt.Fprintf(w, "model %s: warming up...\n", warm)
	warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := c.Chat(warmCtx, warm, []Message{{Role: "user", Content: "ping"}}, nil); err != nil {
		fmt.Fprintf(w, "model %s: warm-up failed (non-fatal): %v\n", warm, err)
	} else {
		fmt.Fprintf(w, "model %s: warm\n", warm)
	}
	return nil
}
