package cmd

import (
	"fmt"
	"time"

	"photo-curator/internal/cache"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show analysis cache statistics",
	Long: `Show what the analysis cache holds without analyzing anything.

Examples:
  photo-curator stats
  photo-curator stats --json`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().Bool("json", false, "Output as JSON")
}

// StatsResult is the output of the stats command.
type StatsResult struct {
	Entries         int        `json:"entries"`
	Valid           bool       `json:"valid"`
	LastAnalysis    *time.Time `json:"last_analysis,omitempty"`
	DuplicateGroups int        `json:"duplicate_groups"`
	DuplicatePhotos int        `json:"duplicate_photos"`
	DatabasePath    string     `json:"database_path"`
}

func runStats(cmd *cobra.Command, _ []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	a, err := openDatabase(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	result := buildStatsResult(a.cache, a.db.Path())
	if jsonOutput {
		return outputJSON(result)
	}

	fmt.Printf("Database:         %s\n", result.DatabasePath)
	if result.Entries == 0 {
		fmt.Println("Analysis cache is empty")
		return nil
	}
	fmt.Printf("Cached photos:    %d\n", result.Entries)
	fmt.Printf("Last analysis:    %s (%s ago)\n",
		result.LastAnalysis.Format(time.RFC3339), formatDuration(time.Since(*result.LastAnalysis)))
	if !result.Valid {
		fmt.Println("Cache is expired and will be rebuilt on the next run")
	}
	fmt.Printf("Duplicate groups: %d (%d photos)\n", result.DuplicateGroups, result.DuplicatePhotos)
	return nil
}

func buildStatsResult(c *cache.Cache, dbPath string) StatsResult {
	s := c.Stats()
	groups := c.DuplicateGroups()

	result := StatsResult{
		Entries:         s.Entries,
		Valid:           s.Valid,
		DuplicateGroups: len(groups),
		DatabasePath:    dbPath,
	}
	if !s.LastUpdate.IsZero() {
		last := s.LastUpdate
		result.LastAnalysis = &last
	}
	for _, g := range groups {
		result.DuplicatePhotos += len(g.PhotoIDs)
	}
	return result
}
