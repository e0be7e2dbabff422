package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/tiendamoda/reclass/internal/cli"
	"github.com/tiendamoda/reclass/internal/engine"
	"github.com/tiendamoda/reclass/internal/model"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one reseed run",
		Long: `Select eligible products, score them against the taxonomy's keyword
evidence and replace their pending reclassification proposals.

Admission checks (pending backlog, cooldown, another run in flight) may
skip the run; the outcome is always recorded in the run audit table.`,
		RunE: runReseed,
	}

	cmd.Flags().Bool("force", false, "Bypass the pending-count and cooldown checks")
	cmd.Flags().Bool("refresh-pending", false, "Rescore products that already hold pending proposals")
	cmd.Flags().String("trigger", "manual", "Run trigger to record (manual, cron, decision)")
	cmd.Flags().String("source", "", "Source label stored on proposals (default: auto_reseed)")
	cmd.Flags().Bool("no-progress", false, "Disable the progress bar")

	return cmd
}

func runReseed(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")
	refreshPending, _ := cmd.Flags().GetBool("refresh-pending")
	triggerFlag, _ := cmd.Flags().GetString("trigger")
	source, _ := cmd.Flags().GetString("source")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	trigger, err := parseTrigger(triggerFlag)
	if err != nil {
		return err
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	idx, err := loadIndex()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	reseeder := engine.New(store, idx, settings)

	opts := engine.RunOptions{
		Trigger:        trigger,
		Source:         source,
		Force:          force,
		RefreshPending: refreshPending,
	}

	var bar *progressbar.ProgressBar
	if !noProgress {
		opts.OnProgress = func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(40),
					progressbar.OptionSetDescription("Scoring products..."),
				)
			}
			_ = bar.Set(done)
		}
	}

	result, err := reseeder.Run(ctx, opts)
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return err
	}

	fmt.Println(renderRunResult(result))
	return nil
}

func parseTrigger(s string) (model.RunTrigger, error) {
	switch model.RunTrigger(strings.ToLower(s)) {
	case model.TriggerManual:
		return model.TriggerManual, nil
	case model.TriggerCron:
		return model.TriggerCron, nil
	case model.TriggerDecision:
		return model.TriggerDecision, nil
	}
	return "", fmt.Errorf("invalid trigger %q (expected manual, cron or decision)", s)
}

func renderRunResult(result *engine.RunResult) string {
	var lines []string

	switch result.Status {
	case model.RunCompleted:
		lines = append(lines, cli.FormatSuccess("Reseed run completed"))
	case model.RunSkipped:
		lines = append(lines, cli.FormatWarning(fmt.Sprintf("Reseed run skipped: %s", result.Reason)))
	case model.RunFailed:
		lines = append(lines, cli.FormatError("Reseed run failed"))
	}

	lines = append(lines,
		fmt.Sprintf("Run:       #%d (%s)", result.RunID, result.RunKey),
		fmt.Sprintf("Pending:   %d before the run", result.PendingCount),
		fmt.Sprintf("Scanned:   %d products", result.Scanned),
		fmt.Sprintf("Proposed:  %d changes", result.Proposed),
		fmt.Sprintf("Enqueued:  %d new pending proposals", result.Enqueued),
	)
	if result.StaleDeleted > 0 {
		lines = append(lines, fmt.Sprintf("Cleared:   %d stale pending proposals", result.StaleDeleted))
	}
	if result.SweptStale > 0 {
		lines = append(lines, cli.WarningStyle.Render(
			fmt.Sprintf("Recovered: %d abandoned running rows", result.SweptStale)))
	}
	if result.Failures > 0 {
		lines = append(lines, cli.WarningStyle.Render(
			fmt.Sprintf("Failures:  %d products could not be scored", result.Failures)))
	}

	return cli.RenderBox("Reseed", strings.Join(lines, "\n"))
}
