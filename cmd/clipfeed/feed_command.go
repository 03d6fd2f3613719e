package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"clipfeed/internal/logging"
	"clipfeed/internal/pipeline"
	"clipfeed/internal/sampler"
)

func newFeedCommand(ctx *commandContext) *cobra.Command {
	var epochs int

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Stream collated batches through the decode pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if epochs <= 0 {
				return fmt.Errorf("epochs must be positive, got %d", epochs)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := checkDependencies(cfg); err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}

			index, err := buildIndex(cfg, logger)
			if err != nil {
				return err
			}
			loader, err := buildLoader(cfg, logger)
			if err != nil {
				return err
			}

			var plannerOpts []sampler.Option
			if cfg.Batch.Seed != 0 {
				plannerOpts = append(plannerOpts, sampler.WithSeed(cfg.Batch.Seed))
			}
			planner, err := sampler.New(index.SourceIDs(), cfg.Batch.Size, plannerOpts...)
			if err != nil {
				return fmt.Errorf("batch planner: %w", err)
			}

			feed, err := pipeline.New(index, planner, loader, cfg.Batch.Workers, cfg.Batch.Prefetch, logging.WithComponent(logger, "pipeline"))
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			out := cmd.OutOrStdout()
			printer := message.NewPrinter(language.English)
			interactive := shouldColorize(out)

			var totalBatches, totalSamples, totalSentinels int
			start := time.Now()
			for epoch := 0; epoch < epochs; epoch++ {
				epochStart := time.Now()
				batches, samples, sentinels, err := consumeEpoch(runCtx, feed, epoch, out, interactive)
				totalBatches += batches
				totalSamples += samples
				totalSentinels += sentinels
				if err != nil {
					return fmt.Errorf("epoch %d: %w", epoch, err)
				}
				if runCtx.Err() != nil {
					fmt.Fprintf(out, "Interrupted during epoch %d after %s batches\n", epoch, printer.Sprintf("%d", batches))
					return runCtx.Err()
				}
				elapsed := time.Since(epochStart)
				fmt.Fprintf(out, "epoch %d: %s batches, %s samples (%s sentinel) in %s (%.0f samples/s)\n",
					epoch,
					printer.Sprintf("%d", batches),
					printer.Sprintf("%d", samples),
					printer.Sprintf("%d", sentinels),
					elapsed.Round(time.Millisecond),
					perSecond(samples, elapsed))
			}

			fmt.Fprintf(out, "Fed %s batches (%s samples, %s sentinel) across %d epochs in %s\n",
				printer.Sprintf("%d", totalBatches),
				printer.Sprintf("%d", totalSamples),
				printer.Sprintf("%d", totalSentinels),
				epochs,
				time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().IntVar(&epochs, "epochs", 1, "Number of epochs to stream")
	return cmd
}

// consumeEpoch drains one epoch of batches, tracking progress on a terminal.
// The returned error is the pipeline's own failure; context cancellation is
// reported through ctx, not the error.
func consumeEpoch(ctx context.Context, feed *pipeline.Pipeline, epoch int, out io.Writer, interactive bool) (batches, samples, sentinels int, err error) {
	run := feed.Epoch(ctx, epoch)
	defer run.Stop()

	var pw progress.Writer
	var tracker *progress.Tracker
	if interactive {
		pw = progress.NewWriter()
		pw.SetOutputWriter(out)
		pw.SetTrackerLength(25)
		pw.SetUpdateFrequency(100 * time.Millisecond)
		pw.SetAutoStop(true)
		pw.Style().Visibility.ETA = true
		pw.Style().Visibility.Speed = true
		tracker = &progress.Tracker{
			Message: fmt.Sprintf("epoch %d", epoch),
			Total:   int64(run.PlannedBatches()),
			Units:   progress.UnitsDefault,
		}
		pw.AppendTracker(tracker)
		go pw.Render()
	}

	for b := range run.Batches() {
		batches++
		samples += b.Len()
		sentinels += b.SentinelCount()
		if tracker != nil {
			tracker.Increment(1)
		}
	}
	run.Stop()
	err = run.Err()

	if pw != nil {
		if err != nil || ctx.Err() != nil {
			tracker.MarkAsErrored()
		} else {
			tracker.MarkAsDone()
		}
		waitRender(pw)
	}
	return batches, samples, sentinels, err
}

// waitRender lets the progress writer flush its final state before command
// output continues on the same terminal.
func waitRender(pw progress.Writer) {
	deadline := time.Now().Add(2 * time.Second)
	for pw.IsRenderInProgress() && time.Now().Before(deadline) {
		if pw.LengthActive() == 0 {
			pw.Stop()
		}
		time.Sleep(10 * time.Millisecond)
	}
	pw.Stop()
}

func perSecond(samples int, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(samples) / secs
}
