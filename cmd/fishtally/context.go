package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"fishtally/internal/config"
	"fishtally/internal/logging"
	"fishtally/internal/review"
)

type commandContext struct {
	configFlag  *string
	projectFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, projectFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, projectFlag: projectFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.projectFlag != nil && strings.TrimSpace(*c.projectFlag) != "" {
			if err := applyProjectOverride(cfg, *c.projectFlag); err != nil {
				c.configErr = err
				return
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// applyProjectOverride points all three roots at the given directory when
// the config doesn't pin the video roots elsewhere, mirroring the config
// fallback chain.
func applyProjectOverride(cfg *config.Config, root string) error {
	abs, err := filepath.Abs(strings.TrimSpace(root))
	if err != nil {
		return fmt.Errorf("resolve project override: %w", err)
	}
	old := cfg.Paths.ProjectRoot
	cfg.Paths.ProjectRoot = abs
	if cfg.Paths.VideoIndexRoot == "" || cfg.Paths.VideoIndexRoot == old {
		cfg.Paths.VideoIndexRoot = abs
	}
	if cfg.Paths.VideoLibraryRoot == "" || cfg.Paths.VideoLibraryRoot == old {
		cfg.Paths.VideoLibraryRoot = abs
	}
	return nil
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		logger, lerr := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: os.Stderr,
		})
		if lerr != nil {
			c.configErr = lerr
			return
		}
		c.logger = logger
	})
	if c.logger == nil {
		return nil, c.configErr
	}
	return c.logger, nil
}

// withStore opens the project's review store for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *review.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if cfg.Paths.ProjectRoot == "" {
		return fmt.Errorf("project root is not set; pass --project or configure [paths] project_root")
	}
	store, err := review.Open(cfg.DBPath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}
