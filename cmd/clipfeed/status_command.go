package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"clipfeed/internal/audit"
	"clipfeed/internal/deps"
	"clipfeed/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, preflight, and dependency status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			printSection(out, "Configuration", colorize)
			configDetail := ctx.configPath
			configKind := statusOK
			if !ctx.configExists {
				configDetail += " (missing; defaults in use)"
				configKind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("Config file", configKind, configDetail, colorize))
			fmt.Fprintln(out, renderStatusLine("Batch", statusInfo,
				fmt.Sprintf("size %d, %d workers, prefetch %d", cfg.Batch.Size, cfg.Batch.Workers, cfg.Batch.Prefetch), colorize))
			fmt.Fprintln(out, renderStatusLine("Decode", statusInfo,
				fmt.Sprintf("%d candidates, %dpx frames, %d Hz audio", cfg.Decode.SampleFPS, cfg.Decode.FrameSize, cfg.Decode.SampleRate), colorize))

			printSection(out, "Preflight", colorize)
			results := preflight.RunAll(cfg)
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			printSection(out, "Dependencies", colorize)
			for _, status := range preflight.CheckSystemDeps(cfg) {
				line := dependencyLine(cmd, status, colorize)
				fmt.Fprintln(out, line)
			}

			printSection(out, "Audit", colorize)
			fmt.Fprintln(out, auditStatusLine(cmd, ctx, colorize))

			if failed := preflight.Failed(results); len(failed) > 0 {
				fmt.Fprintf(out, "\n%d preflight check(s) failing\n", len(failed))
			}
			return nil
		},
	}
}

func printSection(out io.Writer, title string, colorize bool) {
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}
}

func dependencyLine(cmd *cobra.Command, status deps.Status, colorize bool) string {
	if status.Available {
		detail := fmt.Sprintf("command: %s", status.Command)
		if version := preflight.BinaryVersion(cmd.Context(), status.Command); version != "" {
			detail = version
		}
		return renderStatusLine(status.Name, statusOK, detail, colorize)
	}
	kind := statusError
	if status.Optional {
		kind = statusWarn
	}
	return renderStatusLine(status.Name, kind, status.Detail, colorize)
}

func auditStatusLine(cmd *cobra.Command, ctx *commandContext, colorize bool) string {
	cfg := ctx.config
	dbPath := cfg.AuditDatabasePath()
	if _, err := os.Stat(dbPath); err != nil {
		return renderStatusLine("Last audit", statusInfo, "no audit database (run `clipfeed audit run`)", colorize)
	}

	store, err := audit.Open(dbPath)
	if err != nil {
		return renderStatusLine("Last audit", statusWarn, fmt.Sprintf("audit database unavailable: %v", err), colorize)
	}
	defer store.Close()

	runs, err := store.History(cmd.Context(), 1)
	if err != nil {
		return renderStatusLine("Last audit", statusWarn, fmt.Sprintf("read audit history: %v", err), colorize)
	}
	if len(runs) == 0 {
		return renderStatusLine("Last audit", statusInfo, "no audit runs recorded", colorize)
	}

	run := runs[0]
	if run.FinishedAt.IsZero() {
		return renderStatusLine("Last audit", statusWarn,
			fmt.Sprintf("started %s, never finished", run.StartedAt.Local().Format(time.DateTime)), colorize)
	}
	kind := statusOK
	if run.FailedClips > 0 {
		kind = statusError
	} else if run.DegradedClips > 0 {
		kind = statusWarn
	}
	detail := fmt.Sprintf("%s: %d clips, %d failed, %d degraded",
		run.FinishedAt.Local().Format(time.DateTime), run.TotalClips, run.FailedClips, run.DegradedClips)
	return renderStatusLine("Last audit", kind, detail, colorize)
}
