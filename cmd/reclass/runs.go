package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tiendamoda/reclass/internal/cli"
	"github.com/tiendamoda/reclass/internal/model"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent reseed runs",
		Long:  `Show the run audit trail: when each run started, how it ended and what it produced.`,
		RunE:  listRuns,
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to show")

	return cmd
}

func listRuns(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No reseed runs recorded yet."))
		return nil
	}

	fmt.Println(cli.FormatTitle("Reseed runs"))
	header := fmt.Sprintf("%-6s %-10s %-10s %-25s %-20s %8s %8s %8s",
		"ID", "TRIGGER", "STATUS", "REASON", "STARTED", "SCANNED", "PROPOSED", "ENQUEUED")
	fmt.Println(cli.TableHeaderStyle.Render(header))

	for _, run := range runs {
		fmt.Println(formatRunRow(&run))
	}

	return nil
}

func formatRunRow(run *model.ReseedRun) string {
	row := fmt.Sprintf("%-6d %-10s %-10s %-25s %-20s %8d %8d %8d",
		run.ID,
		run.Trigger,
		run.Status,
		truncateColumn(run.Reason, 25),
		run.StartedAt.Local().Format(time.DateTime),
		run.Scanned,
		run.Proposed,
		run.Enqueued,
	)

	switch run.Status {
	case model.RunFailed:
		return cli.ErrorStyle.Render(row)
	case model.RunSkipped:
		return cli.SubtleStyle.Render(row)
	default:
		return row
	}
}

func truncateColumn(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return strings.TrimSpace(s[:width-3]) + "..."
}
