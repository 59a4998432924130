package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/errgroup"

	"github.com/baditaflorin/go_compatibility/internal/adapters/httpapi"
	"github.com/baditaflorin/go_compatibility/internal/adapters/logger"
	"github.com/baditaflorin/go_compatibility/internal/adapters/remote"
	"github.com/baditaflorin/go_compatibility/internal/adapters/store/sqlite"
	"github.com/baditaflorin/go_compatibility/internal/adapters/tokenizer"
	"github.com/baditaflorin/go_compatibility/internal/config"
	"github.com/baditaflorin/go_compatibility/internal/core/compat"
	"github.com/baditaflorin/go_compatibility/internal/core/room"
	"github.com/baditaflorin/go_compatibility/internal/evaluator"
	"github.com/baditaflorin/go_compatibility/internal/ports"
	"github.com/baditaflorin/go_compatibility/internal/tracing"
	"github.com/baditaflorin/go_compatibility/internal/warmup"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to the YAML configuration file")
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	logFile := flag.String("log-file", "", "Log file path (overrides log.file, empty = stdout)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}

	log, err := createLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	if err := run(cfg, log); err != nil {
		log.Error("Server error", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}

func run(cfg *config.Config, log ports.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
	if err != nil {
		return err
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(c); err != nil {
			log.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	store, err := sqlite.Open(cfg.Store.SQLitePath)
	if err != nil {
		return err
	}
	defer store.Close()

	tok := tokenizer.NewDefaultTokenizer()
	calc, err := compat.NewCalculator(compat.DefaultConfig(), log, tok)
	if err != nil {
		return err
	}

	if cfg.Server.Warmup {
		wm := warmup.NewManager(log, warmup.DefaultConfig())
		wm.RegisterTokenizer(tok)
		wm.RegisterCalculator(calc)
		wm.WarmUp(ctx)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	evalOpts := []evaluator.Option{
		evaluator.WithMetrics(evaluator.MustNewMetrics(reg)),
		evaluator.WithTimeout(cfg.Remote.Timeout),
	}
	if cfg.Remote.Enabled {
		scorer, err := remote.New(remote.Config{
			BaseURL:   cfg.Remote.BaseURL,
			Model:     cfg.Remote.Model,
			APIKey:    cfg.Remote.APIKey,
			Timeout:   cfg.Remote.Timeout,
			CacheSize: cfg.Remote.CacheSize,
		}, log)
		if err != nil {
			return err
		}
		evalOpts = append(evalOpts, evaluator.WithPrimary(scorer))
	}
	eval := evaluator.New(calc, log, evalOpts...)

	rooms := room.NewService(store, eval, log, room.Config{ResultTTL: cfg.Rooms.ResultTTL})
	handler := httpapi.NewHandler(rooms, eval, log, httpapi.WithGatherer(reg))

	server := &fasthttp.Server{
		Handler:               handler.ServeFastHTTP,
		Name:                  "CompatibilityServer",
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		MaxRequestBodySize:    cfg.Server.MaxRequestSize,
		Concurrency:           cfg.Server.Concurrency,
		TCPKeepalive:          true,
		TCPKeepalivePeriod:    3 * time.Minute,
		MaxIdleWorkerDuration: 10 * time.Second,
	}

	log.Info("Starting compatibility HTTP server",
		"address", cfg.Server.Addr,
		"remote_enabled", cfg.Remote.Enabled,
		"sqlite_path", cfg.Store.SQLitePath,
		"result_ttl", cfg.Rooms.ResultTTL,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(cfg.Server.Addr)
	})
	g.Go(func() error {
		return rooms.RunSweeper(gctx, cfg.Rooms.SweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		return server.Shutdown()
	})

	return g.Wait()
}

// createLogger creates and configures a logger
func createLogger(cfg config.LogConfig) (ports.Logger, error) {
	if cfg.File == "" && !cfg.JSON {
		return logger.NewStdLogger()
	}

	var output io.Writer = os.Stdout
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
	}

	lc := logger.DefaultConfig(output, cfg.JSON)
	lc.MaxFileSize = 100 * 1024 * 1024 // 100MB
	log, err := logger.NewCustomStdLogger(lc)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}
