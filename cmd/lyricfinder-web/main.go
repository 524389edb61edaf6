package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"lyricfinder/internal/config"
	"lyricfinder/internal/logger"
	"lyricfinder/internal/pipeline"
	"lyricfinder/internal/shutdown"
	"lyricfinder/internal/web"
)

func main() {
	var (
		listen     string
		configPath string
		verbose    bool
	)

	flag.StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	flag.StringVar(&configPath, "config", "", "Config file path")
	flag.BoolVar(&verbose, "verbose", false, "Log debug output")
	flag.Parse()

	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if listen != "" {
		cfg.Listen = listen
	}

	l := logger.New(verbose || cfg.Verbose)
	logDir := config.GetDefaultLogPath()
	if err := os.MkdirAll(logDir, 0755); err == nil {
		logPath := filepath.Join(logDir, fmt.Sprintf("lyricfinder-web-%d.log", time.Now().Unix()))
		if err := l.SetFileLog(logPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to setup file logging: %v\n", err)
		}
	}

	sh := shutdown.New(context.Background())
	sh.AddCleanup(func() { l.Close() })

	cycles := web.NewCycleTracker()
	session, err := pipeline.Setup(cfg, l, pipeline.Hooks{OnState: cycles.Observe})
	if err != nil {
		l.Error("%v", err)
		sh.Shutdown()
		os.Exit(1)
	}
	sh.AddCleanup(func() {
		if err := session.Close(); err != nil {
			l.Error("Failed to close session: %v", err)
		}
	})

	cycles.StartCleanup(sh.Context())
	server := web.NewServer(sh, session.Engine, cycles, l)

	httpServer := &http.Server{
		Addr:         cfg.Listen,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.QueryTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	// Shutdown waits for this, and for async lookups, before the session
	// is closed.
	sh.Go(func(ctx context.Context) {
		<-ctx.Done()
		l.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			l.Error("Server shutdown error: %v", err)
		}
		l.Info("Server stopped")
	})

	serveErr := make(chan error, 1)
	go func() {
		l.Info("Starting web server on %s", cfg.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	sh.Listen()
	select {
	case <-sh.Context().Done():
	case err := <-serveErr:
		l.Error("Server error: %v", err)
		sh.Shutdown()
		os.Exit(1)
	}
	sh.Shutdown()
}
