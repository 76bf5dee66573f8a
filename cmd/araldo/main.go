// Package main is the Araldo CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/civicline/araldo/internal/cli"
	"github.com/civicline/araldo/internal/config"
	"github.com/civicline/araldo/internal/crawl"
	"github.com/civicline/araldo/internal/embedding"
	"github.com/civicline/araldo/internal/extract"
	"github.com/civicline/araldo/internal/keyword"
	"github.com/civicline/araldo/internal/models"
	"github.com/civicline/araldo/internal/pipeline"
	"github.com/civicline/araldo/internal/retrieval"
	"github.com/civicline/araldo/internal/scheduler"
	"github.com/civicline/araldo/internal/server"
	"github.com/civicline/araldo/internal/storage"
	"github.com/civicline/araldo/internal/vector"
	"github.com/civicline/araldo/internal/watcher"
	"github.com/civicline/araldo/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/araldo/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "araldo server" from the project dir picks up the
// project's config. Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// A .env next to the binary carries the embedding API key in development.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "refresh":
		runRefresh()
	case "query":
		runQuery()
	case "ingest":
		runIngest()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("araldo version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`araldo - incremental crawl-to-index retrieval for an institutional website

Usage:
  araldo server  [-config path] [-debug]          start the HTTP API
  araldo refresh [-config path] [flags]           crawl and index new or changed pages
  araldo query   [-config path] [flags] <text>    retrieve the documents closest to a query
  araldo ingest  [-config path] <file>...         index local files (pdf, docx, odt, rtf, xlsx, text)
  araldo status  [-server url]                    show index statistics
  araldo version                                  print the version
  araldo help                                     print this help`)
}

// Components holds the initialized subsystems shared by the subcommands.
type Components struct {
	Store     storage.Store
	Embedder  embedding.Embedder
	Index     *vector.FlatIndex
	Keyword   *keyword.Index
	Pipeline  *pipeline.Pipeline
	Retriever *retrieval.Retriever
}

// Close releases all held resources.
func (c *Components) Close() {
	if c.Keyword != nil {
		_ = c.Keyword.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var embedder embedding.Embedder
	apiKey := os.Getenv(cfg.Embedding.APIKeyEnv)
	if apiKey == "" && !strings.Contains(cfg.Embedding.BaseURL, "localhost") && !strings.Contains(cfg.Embedding.BaseURL, "127.0.0.1") {
		logger.Warn("no embedding API key found, using deterministic mock embedder",
			zap.String("env", cfg.Embedding.APIKeyEnv))
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	} else {
		openai, err := embedding.NewOpenAIEmbedder(cfg.Embedding.BaseURL, apiKey, cfg.Embedding.Model, cfg.Embedding.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
		embedder = openai
	}
	embedder = embedding.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)

	index := vector.NewFlatIndex()
	if cfg.Storage.VectorIndexPath != "" {
		if loadErr := index.Load(cfg.Storage.VectorIndexPath); loadErr != nil {
			logger.Warn("vector index load skipped (run a full refresh)",
				zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(loadErr))
		}
	}
	logger.Info("vector index initialized",
		zap.Int("size", index.Size()),
		zap.Int("dimensions", index.Dimensions()))

	keywordIndex, err := keyword.NewIndex(cfg.Storage.KeywordIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	fetcher := crawl.NewFetcher(
		cfg.Crawl.Concurrency,
		cfg.Crawl.FetchTimeout(),
		cfg.Crawl.RequestsPerSec,
		cfg.Crawl.UserAgent,
	)
	crawlOpts := []crawl.CrawlerOption{}
	pipeOpts := []pipeline.Option{}
	retrOpts := []retrieval.Option{}
	if debug {
		crawlOpts = append(crawlOpts, crawl.WithLogger(logger))
		retrOpts = append(retrOpts, retrieval.WithLogger(logger))
	}
	pipeOpts = append(pipeOpts, pipeline.WithLogger(logger))

	p := pipeline.New(pipeline.Deps{
		Crawler:   crawl.NewCrawler(fetcher, cfg.Crawl.Concurrency, crawlOpts...),
		Extractor: extract.NewHTMLExtractor(cfg.Crawl.MinContentLength),
		Files:     extract.NewFileExtractor(),
		Store:     store,
		Index:     index,
		Keyword:   keywordIndex,
		Embedder:  embedder,
		Chunker:   pipeline.NewChunker(&embedding.WordTokenizer{}, cfg.Embedding.MaxTokensPerChunk),
		IndexPath: cfg.Storage.VectorIndexPath,
	}, pipeOpts...)

	retriever := retrieval.NewRetriever(embedder, index, store, retrOpts...)

	return &Components{
		Store:     store,
		Embedder:  embedder,
		Index:     index,
		Keyword:   keywordIndex,
		Pipeline:  p,
		Retriever: retriever,
	}, nil
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

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Uploads.Directory != "" {
		if err := os.MkdirAll(cfg.Uploads.Directory, 0755); err != nil {
			logger.Fatal("Failed to create uploads directory", zap.Error(err))
		}
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.NewWatcher(
			cfg.Uploads.Directory,
			cfg.Uploads.Extensions,
			func(path string) {
				if _, err := components.Pipeline.IngestFile(context.Background(), path); err != nil {
					logger.Warn("upload ingestion failed", zap.String("path", path), zap.Error(err))
				}
			},
			watchOpts...,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start uploads watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	if cfg.Crawl.Schedule != "" && cfg.Crawl.SeedURL != "" {
		sched := scheduler.New(logger)
		err := sched.AddRefresh(cfg.Crawl.Schedule, func(ctx context.Context) (int, error) {
			return components.Pipeline.Refresh(ctx, cfg.Crawl.SeedURL, cfg.Crawl.MaxPages, cfg.Crawl.MaxDepth)
		})
		if err != nil {
			logger.Fatal("Invalid crawl schedule", zap.String("schedule", cfg.Crawl.Schedule), zap.Error(err))
		}
		sched.Start()
		defer sched.Stop()
		logger.Info("scheduled refresh enabled", zap.String("schedule", cfg.Crawl.Schedule))
	}

	srv := server.NewServer(
		components.Pipeline,
		components.Retriever,
		components.Keyword,
		components.Store,
		components.Index,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if cfg.Storage.VectorIndexPath != "" {
		if err := components.Index.Save(cfg.Storage.VectorIndexPath); err != nil {
			logger.Warn("vector index save failed", zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
		}
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runRefresh() {
	fs := flag.NewFlagSet("refresh", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = run the crawl in-process)")
	seedURL := fs.String("seed", "", "seed URL (default from config)")
	maxPages := fs.Int("max-pages", 0, "page budget for this run (default from config)")
	maxDepth := fs.Int("max-depth", 0, "link depth bound (default from config)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		resp, err := refreshViaHTTP(*serverURL, &models.RefreshRequest{
			SeedURL: *seedURL, MaxPages: *maxPages, MaxDepth: *maxDepth,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Refresh failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Indexed %d documents in %dms\n", resp.Processed, resp.ElapsedMS)
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	seed := *seedURL
	if seed == "" {
		seed = cfg.Crawl.SeedURL
	}
	if seed == "" {
		fmt.Fprintln(os.Stderr, "No seed URL configured; set crawl.seed_url or pass -seed")
		os.Exit(1)
	}
	pages := *maxPages
	if pages <= 0 {
		pages = cfg.Crawl.MaxPages
	}
	depth := *maxDepth
	if depth <= 0 {
		depth = cfg.Crawl.MaxDepth
	}

	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	start := time.Now()
	processed, err := components.Pipeline.Refresh(context.Background(), seed, pages, depth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Refresh failed after %d documents: %v\n", processed, err)
		os.Exit(1)
	}
	fmt.Printf("Indexed %d documents in %dms\n", processed, time.Since(start).Milliseconds())
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use the local index directly)")
	topK := fs.Int("top-k", 5, "number of documents to retrieve")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: araldo query [flags] <text>")
		os.Exit(1)
	}
	queryStr := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if queryStr == "" {
		fmt.Fprintln(os.Stderr, "Usage: araldo query [flags] <text>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	req := &models.QueryRequest{Query: queryStr, TopK: *topK}

	if *serverURL != "" {
		// Use the HTTP API when the server is running (avoids the Bleve
		// and SQLite lock conflict).
		response, err := queryViaHTTP(*serverURL, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteQueryResults(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	if err := req.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	start := time.Now()
	docs, err := components.Retriever.AnswerQuery(context.Background(), req.Query, req.TopK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	response := &models.QueryResponse{
		Query:       req.Query,
		Documents:   docs,
		Count:       len(docs),
		QueryTimeMS: time.Since(start).Milliseconds(),
	}
	if err := cli.WriteQueryResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: araldo ingest [flags] <file>...")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	failed := 0
	for _, path := range fs.Args() {
		id, err := components.Pipeline.IngestFile(context.Background(), path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to ingest %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("Indexed %s (document %d)\n", path, id)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Status request returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to decode status: %v\n", err)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(status, "", "  ")
	fmt.Println(string(out))
}

func queryViaHTTP(serverURL string, req *models.QueryRequest) (*models.QueryResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/query", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &response, nil
}

func refreshViaHTTP(serverURL string, req *models.RefreshRequest) (*models.RefreshResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/refresh", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.RefreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &response, nil
}
