package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photo-curator/internal/analysis"
	"photo-curator/internal/pipeline"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// progressSteps is the resolution of the analysis progress bar.
const progressSteps = 1000

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the photo library in the foreground",
	Long: `Run one analysis pass over LIBRARY_DIR and print a summary.

Photos unchanged since the last run are restored from the analysis cache.

Examples:
  # Analyze with a progress bar
  photo-curator analyze

  # Discard the cache and analyze everything again
  photo-curator analyze --force

  # JSON output for scripting
  photo-curator analyze --json`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().Bool("force", false, "Clear the analysis cache before analyzing")
	analyzeCmd.Flags().Bool("json", false, "Output as JSON instead of progress bar")
}

// AnalyzeResult is the summary printed after a run.
type AnalyzeResult struct {
	Success         bool           `json:"success"`
	Photos          int            `json:"photos"`
	CacheHits       int            `json:"cache_hits"`
	Analyzed        int            `json:"analyzed"`
	Failed          int            `json:"failed"`
	DuplicateGroups int            `json:"duplicate_groups"`
	Categories      map[string]int `json:"categories"`
	FinalMode       string         `json:"final_mode"`
	DurationMs      int64          `json:"duration_ms"`
	DurationHuman   string         `json:"duration_human,omitempty"`
	Error           string         `json:"error,omitempty"`
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	force := mustGetBool(cmd, "force")
	jsonOutput := mustGetBool(cmd, "json")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p := a.pipeline
	updates, unsubscribe := p.Subscribe()
	defer unsubscribe()

	if force {
		p.ForceReanalysis()
	} else if !p.Start() {
		return errors.New("an analysis run is already in progress")
	}

	var bar *progressbar.ProgressBar
	if !jsonOutput {
		bar = newProgressBar()
	}
	final := followProgress(ctx, updates, bar)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}

	if ctx.Err() != nil {
		return errors.New("analysis interrupted")
	}

	result := summarize(p.LastRun(), p.Categories(), final)
	if jsonOutput {
		result.DurationHuman = ""
		return outputJSON(result)
	}

	printAnalyzeResult(result)
	if !result.Success {
		return errors.New(result.Error)
	}
	return nil
}

func newProgressBar() *progressbar.ProgressBar {
	return progressbar.NewOptions(progressSteps,
		progressbar.OptionSetDescription("Analyzing"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// followProgress mirrors updates onto bar until the run publishes its final
// update or ctx ends. It returns the last update seen.
func followProgress(ctx context.Context, updates <-chan pipeline.Update, bar *progressbar.ProgressBar) pipeline.Update {
	var last pipeline.Update
	for {
		select {
		case <-ctx.Done():
			return last
		case u, ok := <-updates:
			if !ok {
				return last
			}
			last = u
			if bar != nil {
				bar.Describe(describeUpdate(u))
				_ = bar.Set(int(u.Progress * progressSteps))
			}
			if u.Done {
				return last
			}
		}
	}
}

func describeUpdate(u pipeline.Update) string {
	if u.Total == 0 {
		return fmt.Sprintf("Analyzing [%s]", u.ModeDisplay)
	}
	return fmt.Sprintf("Analyzing %d/%d [%s]", u.Completed, u.Total, u.ModeDisplay)
}

func summarize(run pipeline.RunStats, categories map[analysis.Category][]string, final pipeline.Update) AnalyzeResult {
	counts := make(map[string]int, len(categories))
	for c, ids := range categories {
		counts[string(c)] = len(ids)
	}
	return AnalyzeResult{
		Success:         run.Error == "",
		Photos:          run.Photos,
		CacheHits:       run.CacheHits,
		Analyzed:        run.Analyzed,
		Failed:          run.Failed,
		DuplicateGroups: run.Groups,
		Categories:      counts,
		FinalMode:       final.ModeDisplay,
		DurationMs:      run.Duration.Milliseconds(),
		DurationHuman:   formatDuration(run.Duration),
		Error:           run.Error,
	}
}

func printAnalyzeResult(r AnalyzeResult) {
	if !r.Success {
		fmt.Printf("\nAnalysis failed: %s\n", r.Error)
		return
	}

	fmt.Println("\nAnalysis complete!")
	fmt.Printf("  Photos:           %d\n", r.Photos)
	fmt.Printf("  From cache:       %d\n", r.CacheHits)
	fmt.Printf("  Analyzed:         %d\n", r.Analyzed)
	if r.Failed > 0 {
		fmt.Printf("  Failed:           %d\n", r.Failed)
	}
	fmt.Printf("  Duplicate groups: %d\n", r.DuplicateGroups)
	for _, c := range analysis.Categories {
		if n := r.Categories[string(c)]; n > 0 {
			fmt.Printf("  %-17s %d\n", string(c)+":", n)
		}
	}
	fmt.Printf("  Final mode:       %s\n", r.FinalMode)
	fmt.Printf("  Duration:         %s\n", r.DurationHuman)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
