package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"clipfeed/internal/audit"
	"clipfeed/internal/logging"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Decode every corpus clip and record the outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuditSweep(ctx, cmd)
		},
	}

	auditCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run a full corpus decode audit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuditSweep(ctx, cmd)
		},
	})
	auditCmd.AddCommand(newAuditHistoryCommand(ctx))
	auditCmd.AddCommand(newAuditProblemsCommand(ctx))

	return auditCmd
}

func runAuditSweep(ctx *commandContext, cmd *cobra.Command) error {
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

	store, err := audit.Open(cfg.AuditDatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()

	runner, err := audit.NewRunner(store, index, loader, cfg.Batch.Workers, logging.WithComponent(logger, "audit"))
	if err != nil {
		return err
	}

	runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	summary, err := runner.Run(runCtx, cfg.Paths.CorpusDir)
	if err != nil {
		return err
	}

	printer := message.NewPrinter(language.English)
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintf(out, "Audit %s finished in %s\n", shortRunID(summary.ID), time.Since(start).Round(time.Millisecond))
	fmt.Fprintln(out, renderStatusLine("Clips", statusInfo, printer.Sprintf("%d", summary.TotalClips), colorize))
	fmt.Fprintln(out, renderStatusLine("Failed", countKind(summary.FailedClips, statusError), printer.Sprintf("%d", summary.FailedClips), colorize))
	fmt.Fprintln(out, renderStatusLine("Degraded", countKind(summary.DegradedClips, statusWarn), printer.Sprintf("%d", summary.DegradedClips), colorize))

	if summary.FailedClips+summary.DegradedClips == 0 {
		return nil
	}

	problems, err := store.Problems(cmd.Context(), summary.ID, 20)
	if err != nil {
		return fmt.Errorf("list problem clips: %w", err)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderProblemsTable(problems))
	fmt.Fprintln(out, "Use `clipfeed audit problems` for the full list.")
	return nil
}

func countKind(count int, bad statusKind) statusKind {
	if count > 0 {
		return bad
	}
	return statusOK
}

func newAuditHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent audit runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := audit.Open(cfg.AuditDatabasePath())
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No audit runs recorded")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				took := "-"
				if !run.FinishedAt.IsZero() {
					took = run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
				}
				rows = append(rows, []string{
					shortRunID(run.ID),
					run.StartedAt.Local().Format(time.DateTime),
					took,
					strconv.Itoa(run.TotalClips),
					strconv.Itoa(run.FailedClips),
					strconv.Itoa(run.DegradedClips),
				})
			}
			tbl := renderTable(
				[]string{"Run", "Started", "Took", "Clips", "Failed", "Degraded"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
			)
			fmt.Fprintln(out, tbl)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of runs to list")
	return cmd
}

func newAuditProblemsCommand(ctx *commandContext) *cobra.Command {
	var runID string
	var limit int

	cmd := &cobra.Command{
		Use:   "problems",
		Short: "List failed and degraded clips from an audit run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := audit.Open(cfg.AuditDatabasePath())
			if err != nil {
				return err
			}
			defer store.Close()

			id := runID
			if id == "" {
				runs, err := store.History(cmd.Context(), 1)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No audit runs recorded")
					return nil
				}
				id = runs[0].ID
			}

			problems, err := store.Problems(cmd.Context(), id, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(problems) == 0 {
				fmt.Fprintf(out, "No problem clips in run %s\n", shortRunID(id))
				return nil
			}
			fmt.Fprintln(out, renderProblemsTable(problems))
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Audit run id (defaults to the most recent run)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of clips to list")
	return cmd
}

func renderProblemsTable(problems []audit.ClipResult) string {
	rows := make([][]string, 0, len(problems))
	for _, clip := range problems {
		status := "degraded"
		if !clip.Valid {
			status = "failed"
		}
		rows = append(rows, []string{
			clip.Path,
			status,
			clip.Reason,
			strconv.FormatInt(clip.DecodeMS, 10),
		})
	}
	return renderTable(
		[]string{"Clip", "Status", "Reason", "ms"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
	)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
