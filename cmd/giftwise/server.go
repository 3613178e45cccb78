package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/giftwise/internal/api"
	"github.com/kalambet/giftwise/internal/classify"
	"github.com/kalambet/giftwise/internal/config"
	"github.com/kalambet/giftwise/internal/gifts"
	"github.com/kalambet/giftwise/internal/ollama"
	"github.com/kalambet/giftwise/internal/pipeline"
	"github.com/kalambet/giftwise/internal/profile"
	"github.com/kalambet/giftwise/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the giftwise server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running giftwise server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show giftwise system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve gift recommendation tools over MCP (stdio)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "giftwise.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

// setupLogging installs the process-wide slog handler. Logs always go to
// stderr so that stdout stays free for results and the MCP transport.
func setupLogging(cfg config.Config) {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.EqualFold(cfg.Log.Format, "json") {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

// service is the wired recommendation stack shared by `start` and `mcp`.
type service struct {
	recommender *pipeline.Recommender
	store       *storage.Store // nil when the classification cache is disabled
}

func (s *service) cacheAdmin() api.CacheAdmin {
	if s.store == nil {
		return nil
	}
	return s.store
}

func (s *service) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// loadTable returns the built-in rule table unless a rules file is configured.
func loadTable(cfg config.Config) (*gifts.Table, error) {
	if cfg.Gifts.RulesFile == "" {
		return gifts.DefaultTable(), nil
	}
	t, err := gifts.LoadTable(cfg.Gifts.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("loading rules file: %w", err)
	}
	return t, nil
}

// newService checks the model is available, opens the cache, and wires the
// classifier stack into a Recommender. Readiness progress is written to w.
func newService(ctx context.Context, cfg config.Config, w io.Writer) (*service, error) {
	table, err := loadTable(cfg)
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.ClassifyTimeout()
	if err != nil {
		return nil, err
	}

	client := ollama.New(cfg.Ollama.BaseURL)
	if err := ollama.EnsureReady(ctx, client, w, cfg.Ollama.Model); err != nil {
		return nil, err
	}

	svc := &service{}
	var (
		classifier profile.Classifier      = classify.NewZeroShot(client, cfg.Ollama.Model, timeout)
		scorer     profile.SentimentScorer = classify.NewSentiment(client, cfg.Ollama.Model, timeout)
	)
	if cfg.Classify.CacheEnabled {
		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening storage: %w", err)
		}
		svc.store = store
		cache := classify.NewCache(classifier, scorer, store)
		classifier, scorer = cache, cache
	}

	builder := profile.NewBuilder(classifier, scorer, table.Categories(),
		profile.WithConcurrency(cfg.Classify.Concurrency))
	svc.recommender = pipeline.NewRecommender(builder, table)

	slog.Info("recommendation service ready",
		"model", cfg.Ollama.Model,
		"categories", len(table.Categories()),
		"cache_enabled", cfg.Classify.CacheEnabled,
		"concurrency", cfg.Classify.Concurrency,
	)
	return svc, nil
}

func runServer() error {
	fmt.Fprintf(stderr, "giftwise version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	// Refuse to start twice. A live health endpoint means another instance
	// owns the port.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("giftwise is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("giftwise is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := newService(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			slog.Warn("closing storage", "error", err)
		}
	}()

	if cfg.Server.APIToken == "" {
		slog.Warn("GIFTWISE_API_TOKEN is not set; /v1 endpoints are unauthenticated")
	}

	handler := api.NewHandler(api.Deps{
		Service: svc.recommender,
		Cache:   svc.cacheAdmin(),
		Token:   cfg.Server.APIToken,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("giftwise listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runMCP serves the MCP tools on stdin/stdout in-process, without the HTTP
// server.
func runMCP() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := newService(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer svc.Close()

	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Service: svc.recommender,
		Version: version,
	})
	slog.Info("MCP server started (stdio transport)")
	stdioSrv := server.NewStdioServer(mcpSrv)
	if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("giftwise is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop giftwise (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to giftwise (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := newAPIClient()
	running := false
	if err == nil {
		resp, err := client.get(ctx, "/health")
		switch {
		case err != nil:
			printStatus("Server", "stopped")
		case resp.StatusCode == http.StatusOK:
			resp.Body.Close()
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		default:
			resp.Body.Close()
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	oc := ollama.New(cfg.Ollama.BaseURL)
	if v, err := oc.Version(ctx); err != nil {
		printStatus("Ollama", "not running")
	} else {
		printStatus("Ollama", "%s at %s", v, cfg.Ollama.BaseURL)
		if oc.HasModel(ctx, cfg.Ollama.Model) {
			printStatus("Model", "%s (pulled)", cfg.Ollama.Model)
		} else {
			printStatus("Model", "%s (missing)", cfg.Ollama.Model)
		}
	}

	if running && cfg.Classify.CacheEnabled {
		if resp, err := client.get(ctx, "/v1/cache/stats"); err == nil {
			var st storage.CacheStats
			if decodeJSON(resp, &st) == nil {
				printStatus("Cache", "%d classifications, %d sentiments", st.Classifications, st.Sentiments)
			}
		}
	} else if !cfg.Classify.CacheEnabled {
		printStatus("Cache", "disabled")
	}

	rules := "built-in"
	if cfg.Gifts.RulesFile != "" {
		rules = cfg.Gifts.RulesFile
	}
	printStatus("Rules", "%s", rules)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
