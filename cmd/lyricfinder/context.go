package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lyricfinder/internal/config"
	"lyricfinder/internal/logger"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	cfg        *config.Config
	configPath string
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{configFlag: configFlag, verbose: verbose}
}

// ensureConfig loads the configuration once. Priority: CLI flags > config
// file > defaults.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}

	path := ""
	if c.configFlag != nil {
		path = *c.configFlag
	}
	cfg, err := config.LoadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if path == "" {
		path = config.FindConfigFile()
	}
	if c.verbose != nil && *c.verbose {
		cfg.Verbose = true
	}

	c.cfg = &cfg
	c.configPath = path
	return c.cfg, nil
}

// newLogger creates the command logger. Outside verbose mode everything,
// debug included, is also written to a log file.
func (c *commandContext) newLogger() *logger.Logger {
	verbose := c.cfg != nil && c.cfg.Verbose
	log := logger.New(verbose)

	if !verbose {
		logDir := config.GetDefaultLogPath()
		if err := os.MkdirAll(logDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Failed to create log directory: %v\n", err)
		} else {
			logFile := filepath.Join(logDir, fmt.Sprintf("lyricfinder_%s.log", time.Now().Format("2006-01-02_15-04-05")))
			if err := log.SetFileLog(logFile); err != nil {
				fmt.Fprintf(os.Stderr, "[WARN] Failed to setup file logging: %v\n", err)
			} else {
				log.Debug("Logging to file: %s", logFile)
			}
		}
	}

	if c.configPath != "" {
		log.Debug("Loaded configuration from: %s", c.configPath)
	}
	return log
}
