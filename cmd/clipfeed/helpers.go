package main

import (
	"fmt"
	"log/slog"
	"strings"

	"clipfeed/internal/config"
	"clipfeed/internal/corpus"
	"clipfeed/internal/logging"
	"clipfeed/internal/media/audio"
	"clipfeed/internal/media/frame"
	"clipfeed/internal/preflight"
	"clipfeed/internal/sample"
)

// checkDependencies fails fast when a required decode binary is missing, so
// long sweeps do not start and then sentinel every clip.
func checkDependencies(cfg *config.Config) error {
	var missing []string
	for _, status := range preflight.CheckSystemDeps(cfg) {
		if status.Available || status.Optional {
			continue
		}
		missing = append(missing, fmt.Sprintf("%s (%s)", status.Name, status.Detail))
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required binaries: %s", strings.Join(missing, "; "))
	}
	return nil
}

// buildIndex scans the configured corpus directory. Unparseable names are
// logged as warnings through the supplied logger.
func buildIndex(cfg *config.Config, logger *slog.Logger) (*corpus.Index, error) {
	if cfg.Paths.CorpusDir == "" {
		return nil, fmt.Errorf("paths.corpus_dir is not configured (set it in the config file or export CLIPFEED_CORPUS_DIR)")
	}
	return corpus.Scan(cfg.Paths.CorpusDir, cfg.Decode.ClipExtension, logging.WithComponent(logger, "corpus"))
}

// buildLoader assembles the ffmpeg-backed audio and frame decoders behind a
// sample loader configured from the decode section.
func buildLoader(cfg *config.Config, logger *slog.Logger) (*sample.Loader, error) {
	audioDecoder, err := audio.NewDecoder(cfg.FFmpegBinary(), cfg.Decode.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("audio decoder: %w", err)
	}
	frameSampler, err := frame.NewSampler(cfg.FFmpegBinary(), cfg.FFprobeBinary(), cfg.Decode.SampleFPS, cfg.Decode.FrameSize)
	if err != nil {
		return nil, fmt.Errorf("frame sampler: %w", err)
	}
	loader, err := sample.NewLoader(audioDecoder, frameSampler, cfg.Decode.FrameSize, cfg.Decode.NominalSamples,
		sample.WithTimeout(cfg.DecodeTimeout()),
		sample.WithLogger(logging.WithComponent(logger, "loader")),
	)
	if err != nil {
		return nil, fmt.Errorf("sample loader: %w", err)
	}
	return loader, nil
}
