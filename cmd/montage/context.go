package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"log/slog"

	"montage/internal/config"
	"montage/internal/deps"
	"montage/internal/encoding"
	"montage/internal/journal"
	"montage/internal/logging"
	"montage/internal/media/ffprobe"
	"montage/internal/merge"
	"montage/internal/preflight"
	"montage/internal/producer"
	"montage/internal/segmentcache"
	"montage/internal/session"
)

type commandContext struct {
	configFlag *string

	configOnce  sync.Once
	config      *config.Config
	configPath  string
	configFound bool
	configErr   error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, found, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.configPath = resolvedPath
		c.configFound = found
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// environment bundles everything a pipeline command needs, wired once.
type environment struct {
	cfg        *config.Config
	logger     *slog.Logger
	controller *session.Controller
	journal    *journal.Journal
	lock       *session.Lock
}

// Close releases the run lock and the journal.
func (e *environment) Close() {
	e.lock.Release()
	if e.journal != nil {
		_ = e.journal.Close()
	}
}

// buildEnvironment verifies external tools, takes the temp-directory lock,
// and wires the pipeline.
func (c *commandContext) buildEnvironment() (*environment, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	if missing := deps.MissingRequired(preflight.CheckSystemDeps(cfg)); len(missing) > 0 {
		return nil, fmt.Errorf("required tools missing: %s (run `montage deps`)", strings.Join(missing, ", "))
	}
	if result := preflight.CheckDirectoryAccess("work directory", cfg.Paths.WorkDir); !result.Passed {
		return nil, fmt.Errorf("preflight: %s", result.Detail)
	}

	lock, err := session.AcquireLock(cfg.TempDir())
	if err != nil {
		return nil, err
	}

	var jrnl *journal.Journal
	if cfg.Journal.Enabled {
		jrnl, err = journal.Open(cfg.JournalPath(), logger)
		if err != nil {
			// History is an observer; a broken journal must not stop work.
			logger.Warn("journal unavailable", logging.Error(err))
			jrnl = nil
		}
	}

	probe := ffprobe.Client{Binary: cfg.FFprobeBinary()}
	runner := encoding.NewRunner(cfg.FFmpegBinary(), logger)
	cache := segmentcache.New(cfg, probe, logger)
	prod := producer.New(cfg, cache, runner, probe, logger)
	merger := merge.New(runner, logger)
	controller := session.NewController(cfg, prod, merger, jrnl, logger)

	return &environment{
		cfg:        cfg,
		logger:     logger,
		controller: controller,
		journal:    jrnl,
		lock:       lock,
	}, nil
}

// openJournal opens the journal read-only-ish for history display, without
// taking the run lock.
func (c *commandContext) openJournal() (*journal.Journal, *config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	jrnl, err := journal.Open(cfg.JournalPath(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}
	return jrnl, cfg, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	logPath := filepath.Join(cfg.Paths.LogDir, "montage.log")
	return logging.New(logging.Options{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		Writer:   os.Stderr,
		FilePath: logPath,
	})
}
