// Package main is the qsim CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/qsim/internal/config"
	"github.com/hyperjump/qsim/internal/dataset"
	"github.com/hyperjump/qsim/internal/embedding"
	"github.com/hyperjump/qsim/internal/models"
	"github.com/hyperjump/qsim/internal/report"
	"github.com/hyperjump/qsim/internal/scan"
	"github.com/hyperjump/qsim/internal/server"
	"github.com/hyperjump/qsim/internal/storage"
	"github.com/hyperjump/qsim/internal/watcher"
	"github.com/hyperjump/qsim/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "config.yaml"

// loadConfig loads config from path. When path is the default and no such file
// exists, defaults resolved against the current directory are used instead.
// Returns the config and the path that was loaded ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, "", err
			}
			return config.Default(cwd), "", nil
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(abs)
	if err != nil {
		return nil, "", err
	}
	return cfg, abs, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "rank":
		runRank()
	case "watch":
		runWatch()
	case "server":
		runServer()
	case "cache":
		runCache()
	case "version", "--version", "-v":
		fmt.Printf("qsim version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// rankFlags are the flags shared by rank and watch.
type rankFlags struct {
	configPath    *string
	serverURL     *string
	topK          *int
	dedupKey      *string
	concurrency   *int
	vectorPreview *int
	output        *string
	debug         *bool
}

func addRankFlags(fs *flag.FlagSet) *rankFlags {
	return &rankFlags{
		configPath:    fs.String("config", defaultConfigPath, "config file path"),
		serverURL:     fs.String("server", "", "server URL; when set, rank through the HTTP API instead of scanning locally"),
		topK:          fs.Int("top-k", 0, "number of ranked results (0 = config value, negative = all)"),
		dedupKey:      fs.String("dedup-key", "", "duplicate key: topic_question or question (default from config)"),
		concurrency:   fs.Int("concurrency", 0, "parallel embedding calls (0 = config value)"),
		vectorPreview: fs.Int("vector-preview", -1, "print the first N query vector values (-1 = config value)"),
		output:        fs.String("output", "text", "output format: text, compact or json"),
		debug:         fs.Bool("debug", false, "enable debug logging"),
	}
}

// apply overrides cfg with any flags that were set.
func (f *rankFlags) apply(cfg *config.Config) error {
	if *f.dedupKey != "" {
		cfg.Ranking.DedupKey = *f.dedupKey
	}
	if *f.concurrency > 0 {
		cfg.Ranking.Concurrency = *f.concurrency
	}
	if *f.vectorPreview >= 0 {
		cfg.Report.VectorPreview = *f.vectorPreview
	}
	if *f.debug {
		cfg.Debug = true
	}
	return config.Validate(cfg)
}

func printRankUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: qsim %s [flags] [query]\n\n", fs.Name())
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces; when omitted, the config query is used.\n\n")
	fs.PrintDefaults()
}

// buildQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves flags (with their values) in front of the positional
// words so flag.Parse sees them wherever they appear; the flag package stops
// at the first non-flag argument. Positional words keep their order, and
// everything after "--" is positional.
func argsReorder(fs *flag.FlagSet, args []string) []string {
	flags := make([]string, 0, len(args))
	var words []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			words = append(words, args[i+1:]...)
			break
		}
		if len(a) < 2 || a[0] != '-' {
			words = append(words, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if strings.Contains(name, "=") {
			continue
		}
		if takesValue(fs, name) && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	if len(words) == 0 {
		return flags
	}
	return append(append(flags, "--"), words...)
}

// takesValue reports whether the named flag consumes the next argument.
// Unknown flags are left for flag.Parse to reject.
func takesValue(fs *flag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	if f == nil {
		return false
	}
	if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return false
	}
	return true
}

func runRank() {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	flags := addRankFlags(fs)
	fs.Usage = func() { printRankUsage(fs) }
	_ = fs.Parse(argsReorder(fs, os.Args[2:]))

	format, err := report.ParseFormat(*flags.output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, _, err := loadConfig(*flags.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := flags.apply(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid flags: %v\n", err)
		os.Exit(1)
	}
	query := buildQuery(fs.Args())
	if query == "" {
		query = cfg.Query
	}
	opts := reportOptions(cfg, format)

	if *flags.serverURL != "" {
		rep, err := rankViaHTTP(*flags.serverURL, &models.RankQuery{Query: query, TopK: *flags.topK})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Rank failed: %v\n", err)
			os.Exit(1)
		}
		if err := report.Write(os.Stdout, rep, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rankOnce(ctx, components.Engine, query, *flags.topK, os.Stdout, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Rank failed: %v\n", err)
		os.Exit(1)
	}
}

func reportOptions(cfg *config.Config, format report.Format) report.Options {
	return report.Options{
		Format:               format,
		MaxDuplicateExamples: cfg.Report.MaxDuplicateExamples,
		QuestionPreview:      cfg.Report.QuestionPreview,
	}
}

// rankOnce runs one ranking pass and writes the report to w.
func rankOnce(ctx context.Context, engine *scan.Engine, query string, topK int, w io.Writer, opts report.Options) error {
	rep, err := engine.Run(ctx, query, topK)
	if err != nil {
		return err
	}
	return report.Write(w, rep, opts)
}

func rankViaHTTP(serverURL string, query *models.RankQuery) (*models.Report, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(strings.TrimRight(serverURL, "/")+"/api/v1/rank", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var rep models.Report
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &rep, nil
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	flags := addRankFlags(fs)
	fs.Usage = func() { printRankUsage(fs) }
	_ = fs.Parse(argsReorder(fs, os.Args[2:]))

	format, err := report.ParseFormat(*flags.output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, _, err := loadConfig(*flags.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := flags.apply(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid flags: %v\n", err)
		os.Exit(1)
	}
	query := buildQuery(fs.Args())
	if query == "" {
		query = cfg.Query
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	opts := reportOptions(cfg, format)
	rerun := func() {
		if err := rankOnce(ctx, components.Engine, query, *flags.topK, os.Stdout, opts); err != nil && ctx.Err() == nil {
			logger.Error("rank failed", zap.Error(err))
		}
	}
	rerun()

	watchOpts := []watcher.WatcherOption{
		watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS) * time.Millisecond),
	}
	if cfg.Debug {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	w := watcher.NewWatcher(
		components.Scanner.Paths(),
		components.Scanner.Matches,
		cfg.Datasets.Recursive,
		func(paths []string) {
			logger.Info("dataset changed, re-ranking", zap.Int("files", len(paths)))
			rerun()
		},
		watchOpts...,
	)
	if err := w.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	defer w.Stop()
	<-ctx.Done()
	logger.Info("Shutting down...")
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(components.Engine, components.Scanner, components.Storage, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// cacheStatus is the output of "qsim cache status".
type cacheStatus struct {
	Path           string           `json:"path"`
	Embeddings     int64            `json:"embeddings"`
	ByModel        map[string]int64 `json:"by_model"`
	DiskUsageBytes int64            `json:"disk_usage_bytes"`
}

func runCache() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: qsim cache <status|clear> [flags]")
		os.Exit(1)
	}
	action := os.Args[2]
	fs := flag.NewFlagSet("cache "+action, flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json (status only)")
	_ = fs.Parse(os.Args[3:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Storage.CachePath == "" {
		fmt.Fprintln(os.Stderr, "Persistent cache is disabled (storage.cache_path is empty)")
		os.Exit(1)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.CachePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open cache: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	switch action {
	case "status":
		status, err := readCacheStatus(ctx, store, cfg.Storage.CachePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cache status failed: %v\n", err)
			os.Exit(1)
		}
		if err := writeCacheStatus(os.Stdout, status, *outputFormat); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "clear":
		n, err := store.Clear(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cache clear failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed %d cached embeddings\n", n)
	default:
		fmt.Printf("Unknown cache action: %s (use status or clear)\n", action)
		os.Exit(1)
	}
}

func readCacheStatus(ctx context.Context, store storage.Storage, path string) (*cacheStatus, error) {
	count, err := store.CountEmbeddings(ctx)
	if err != nil {
		return nil, err
	}
	byModel, err := store.CountByModel(ctx)
	if err != nil {
		return nil, err
	}
	diskBytes, err := storage.DatabaseDiskUsage(path)
	if err != nil {
		return nil, err
	}
	return &cacheStatus{Path: path, Embeddings: count, ByModel: byModel, DiskUsageBytes: diskBytes}, nil
}

func writeCacheStatus(w io.Writer, status *cacheStatus, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	case "text":
		fmt.Fprintf(w, "path:               %s\n", status.Path)
		fmt.Fprintf(w, "embeddings:         %d   # cached query and question vectors\n", status.Embeddings)
		fmt.Fprintf(w, "disk_usage_bytes:   %d\n", status.DiskUsageBytes)
		for _, model := range slices.Sorted(maps.Keys(status.ByModel)) {
			fmt.Fprintf(w, "model %-12s %d\n", model+":", status.ByModel[model])
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q; use text or json", format)
	}
}

// Components holds initialized services.
type Components struct {
	Storage  storage.Storage // nil when the persistent cache is disabled
	Embedder embedding.Embedder
	Scanner  *dataset.Scanner
	Engine   *scan.Engine
}

func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// newEmbedder builds the configured embedder. An ONNX model that cannot be
// loaded falls back to the mock embedder with a warning.
func newEmbedder(cfg *config.Config, logger *zap.Logger) embedding.Embedder {
	mock := func() embedding.Embedder { return embedding.NewMockEmbedder(cfg.Embedding.Dimensions) }
	if cfg.Embedding.Provider == "mock" {
		return mock()
	}
	if _, err := os.Stat(cfg.Embedding.ModelPath); err != nil {
		logger.Warn("ONNX model not found, falling back to mock embedder",
			zap.String("model_path", cfg.Embedding.ModelPath), zap.Error(err))
		return mock()
	}
	onnx, err := embedding.NewONNXEmbedder(embedding.ONNXConfig{
		ModelPath:         cfg.Embedding.ModelPath,
		TokenizerPath:     cfg.Embedding.TokenizerPath,
		SharedLibraryPath: cfg.Embedding.SharedLibraryPath,
		OutputName:        cfg.Embedding.OutputName,
		Pooling:           cfg.Embedding.Pooling,
		Dimensions:        cfg.Embedding.Dimensions,
		MaxTokens:         cfg.Embedding.MaxTokens,
	})
	if err != nil {
		logger.Warn("ONNX embedder unavailable, falling back to mock embedder", zap.Error(err))
		return mock()
	}
	logger.Info("ONNX embedder loaded", zap.String("model", onnx.ModelID()), zap.Int("dimensions", onnx.Dimensions()))
	return onnx
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	logger = utils.OrNop(logger)
	c := &Components{}

	cacheOpts := []embedding.CacheOption{embedding.WithLogger(logger)}
	if cfg.Storage.CachePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.CachePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		store, err := storage.NewSQLiteStorage(cfg.Storage.CachePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		c.Storage = store
		cacheOpts = append(cacheOpts, embedding.WithStore(store))
	}

	c.Embedder = embedding.NewCachedEmbedder(newEmbedder(cfg, logger), cfg.Embedding.CacheSize, cacheOpts...)
	c.Scanner = dataset.NewScanner(&cfg.Datasets, dataset.WithLogger(logger))

	engine, err := scan.NewEngine(c.Scanner, c.Embedder, cfg, scan.WithLogger(logger))
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Engine = engine
	return c, nil
}

func printUsage() {
	fmt.Println(`qsim - rank study questions by semantic similarity and flag duplicates

Usage:
  qsim rank [flags] [query]       Rank dataset questions against a query
  qsim watch [flags] [query]      Rank, then re-rank whenever dataset files change
  qsim server [flags]             Start the HTTP server
  qsim cache <status|clear>       Show or wipe the persistent embedding cache
  qsim version                    Show version
  qsim help                       Show this help

Rank / Watch Flags:
  --config string        Config file path (default: ./config.yaml, built-in defaults if absent)
  --server string        Rank through a running qsim server instead of scanning locally (rank only)
  --top-k int            Number of results (0 = config value, negative = all)
  --dedup-key string     Duplicate key: topic_question or question
  --concurrency int      Parallel embedding calls
  --vector-preview int   Print the first N query vector values
  --output string        Output format: text, compact or json (default: text)
  --debug                Enable debug logging

Server Flags:
  --config string        Config file path
  --debug                Enable debug logging

Cache Flags:
  --config string        Config file path
  --output string        Output format for status: text or json

Examples:
  qsim rank
  qsim rank "How to fix common programming errors?"
  qsim rank --top-k 5 --output json null pointer
  qsim watch --dedup-key question
  qsim server --config ./config.yaml
  qsim cache status`)
}
