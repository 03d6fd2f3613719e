package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"clipfeed/internal/corpus"
	"clipfeed/internal/logging"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var showSources bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the clip corpus and report its shape",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: "console", OutputPaths: []string{"stderr"}})
			if err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}
			logger = logging.WithComponent(logger, "cli-scan")

			start := time.Now()
			index, err := buildIndex(cfg, logger)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			printer := message.NewPrinter(language.English)
			sources := index.Sources()
			minSegments, meanSegments, maxSegments := segmentSpread(index, sources)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Corpus:   %s\n", cfg.Paths.CorpusDir)
			fmt.Fprintf(out, "Clips:    %s (%s)\n", printer.Sprintf("%d", index.Len()), cfg.Decode.ClipExtension)
			fmt.Fprintf(out, "Sources:  %s distinct, max id %s\n",
				printer.Sprintf("%d", index.SourceCount()),
				printer.Sprintf("%d", index.MaxSourceID()))
			fmt.Fprintf(out, "Segments: %d min / %.1f mean / %d max per source\n", minSegments, meanSegments, maxSegments)
			fmt.Fprintf(out, "Scanned in %s\n", elapsed.Round(time.Millisecond))

			if !showSources {
				return nil
			}

			rows := make([][]string, 0, len(sources))
			for _, id := range sources {
				rows = append(rows, []string{
					printer.Sprintf("%d", id),
					printer.Sprintf("%d", len(index.Segments(id))),
				})
			}
			tbl := renderTable([]string{"Source", "Clips"}, rows, []columnAlignment{alignRight, alignRight})
			fmt.Fprintln(out, tbl)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSources, "sources", false, "List per-source clip counts")
	return cmd
}

func segmentSpread(index *corpus.Index, sources []int64) (int, float64, int) {
	if len(sources) == 0 {
		return 0, 0, 0
	}
	minCount, maxCount, total := -1, 0, 0
	for _, id := range sources {
		count := len(index.Segments(id))
		total += count
		if minCount < 0 || count < minCount {
			minCount = count
		}
		if count > maxCount {
			maxCount = count
		}
	}
	return minCount, float64(total) / float64(len(sources)), maxCount
}
