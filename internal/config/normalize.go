package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDecode()
	c.normalizeBatch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.CorpusDir) == "" {
		if value, ok := os.LookupEnv("CLIPFEED_CORPUS_DIR"); ok {
			c.Paths.CorpusDir = strings.TrimSpace(value)
		}
	}

	var err error
	if c.Paths.CorpusDir != "" {
		if c.Paths.CorpusDir, err = expandPath(c.Paths.CorpusDir); err != nil {
			return fmt.Errorf("paths.corpus_dir: %w", err)
		}
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDecode() {
	c.Decode.FFmpegBinary = strings.TrimSpace(c.Decode.FFmpegBinary)
	c.Decode.FFprobeBinary = strings.TrimSpace(c.Decode.FFprobeBinary)

	ext := strings.ToLower(strings.TrimSpace(c.Decode.ClipExtension))
	if ext == "" {
		ext = defaultClipExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Decode.ClipExtension = ext
}

func (c *Config) normalizeBatch() {
	if c.Batch.Workers <= 0 {
		c.Batch.Workers = runtime.NumCPU()
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
