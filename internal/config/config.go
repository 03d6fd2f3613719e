package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CorpusDir string `toml:"corpus_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
}

// Decode contains configuration for the ffmpeg-backed clip decoders.
type Decode struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	// SampleFPS is the number of evenly spaced frame candidates drawn from
	// each one-second clip.
	SampleFPS int `toml:"sample_fps"`
	// FrameSize is the square edge length of the decoded frame tensor.
	FrameSize int `toml:"frame_size"`
	// SampleRate is the mono audio rate in Hz.
	SampleRate int `toml:"sample_rate"`
	// NominalSamples is the waveform length substituted when audio decode
	// fails. 16331 matches the sample count a one-second AAC track typically
	// yields at 16 kHz.
	NominalSamples int    `toml:"nominal_samples"`
	ClipExtension  string `toml:"clip_extension"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Batch contains configuration for batch geometry and the worker pool.
type Batch struct {
	Size int `toml:"size"`
	// Workers is the decode worker count. Zero selects one worker per CPU.
	Workers  int   `toml:"workers"`
	Prefetch int   `toml:"prefetch"`
	Seed     int64 `toml:"seed"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for clipfeed.
//
// Configuration sections by subsystem:
//   - Paths: corpus, state, and log directories
//   - Decode: ffmpeg/ffprobe binaries and per-clip decode parameters
//   - Batch: batch size, worker pool, prefetch depth, shuffle seed
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Decode  Decode  `toml:"decode"`
	Batch   Batch   `toml:"batch"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clipfeed/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clipfeed.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The corpus
// directory is never created; a missing corpus is an input error, not
// something to paper over.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name or configured override.
func (c *Config) FFmpegBinary() string {
	if v := strings.TrimSpace(c.Decode.FFmpegBinary); v != "" {
		return v
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name or configured override.
func (c *Config) FFprobeBinary() string {
	if v := strings.TrimSpace(c.Decode.FFprobeBinary); v != "" {
		return v
	}
	return "ffprobe"
}

// DecodeTimeout returns the per-invocation deadline for external decode tools.
func (c *Config) DecodeTimeout() time.Duration {
	return time.Duration(c.Decode.TimeoutSeconds) * time.Second
}

// AuditDatabasePath returns the location of the corpus audit database.
func (c *Config) AuditDatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "audit.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
