package pipeline

import (
	"fmt"

	"lyricfinder/internal/config"
	"lyricfinder/internal/logger"
	"lyricfinder/internal/lrcdb"
	"lyricfinder/internal/lyrics"
	"lyricfinder/internal/policy"
	"lyricfinder/internal/provider/localfile"
	"lyricfinder/internal/provider/lrclib"
	"lyricfinder/internal/provider/netease"
)

// Session is an engine wired from a configuration, together with the
// resources it owns.
type Session struct {
	Engine     *Engine
	Dispatcher *lyrics.Dispatcher
	Policy     *policy.Policy
	Ignore     *config.IgnoreStore
	Store      *lrcdb.Store
}

// Setup builds backends in configuration order, opens the assignment
// database and loads the ignore list. The caller must Close the session.
func Setup(cfg config.Config, log *logger.Logger, hooks Hooks) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := &Session{}

	if cfg.DatabasePath != "" {
		store, err := lrcdb.Open(cfg.DatabasePath)
		if err != nil {
			if cfg.HasBackend(config.BackendLrcDB) {
				return nil, err
			}
			log.Warn("Assignment database unavailable, lyrics will not be remembered: %v", err)
		} else {
			s.Store = store
			log.Debug("Assignment database: %s", cfg.DatabasePath)
		}
	}

	backends := make([]lyrics.Backend, 0, len(cfg.Backends))
	for _, name := range cfg.Backends {
		switch name {
		case config.BackendLrcDB:
			backends = append(backends, s.Store)
		case config.BackendLocal:
			backends = append(backends, localfile.New(cfg.LyricDirs...))
		case config.BackendLrclib:
			backends = append(backends, lrclib.New(cfg.LrclibURL))
		case config.BackendNetease:
			backends = append(backends, netease.New(cfg.NeteaseURL))
		}
	}
	s.Dispatcher = lyrics.NewDispatcher(backends, cfg.QueryTimeout, log)

	s.Ignore = config.NewIgnoreStore(cfg.StatePath)
	s.Policy = policy.New(s.Ignore, cfg.AutoDownloadBest, log)

	opts := Options{SaveDir: cfg.SaveDir, Hooks: hooks}
	if s.Store != nil {
		opts.Recorder = s.Store
	}
	s.Engine = New(s.Dispatcher, s.Policy, log, opts)

	log.Debug("Backends: %v", s.Dispatcher.Order())
	return s, nil
}

// Close stops the engine and releases the database.
func (s *Session) Close() error {
	s.Engine.Close()
	if s.Store != nil {
		return s.Store.Close()
	}
	return nil
}
