package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDecode(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.CorpusDir) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/clipfeed/config.toml"
		}
		return fmt.Errorf("paths.corpus_dir is required. Set CLIPFEED_CORPUS_DIR env var or edit %s (create with 'clipfeed config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateDecode() error {
	if err := ensurePositiveMap(map[string]int{
		"decode.sample_fps":      c.Decode.SampleFPS,
		"decode.sample_rate":     c.Decode.SampleRate,
		"decode.nominal_samples": c.Decode.NominalSamples,
		"decode.timeout_seconds": c.Decode.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Decode.FrameSize < 16 {
		return errors.New("decode.frame_size must be at least 16")
	}
	if !strings.HasPrefix(c.Decode.ClipExtension, ".") || len(c.Decode.ClipExtension) < 2 {
		return fmt.Errorf("decode.clip_extension %q must name an extension such as .mp4", c.Decode.ClipExtension)
	}
	return nil
}

func (c *Config) validateBatch() error {
	return ensurePositiveMap(map[string]int{
		"batch.size":     c.Batch.Size,
		"batch.workers":  c.Batch.Workers,
		"batch.prefetch": c.Batch.Prefetch,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
