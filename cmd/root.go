package cmd

import (
	"fmt"
	"os"

	"photo-curator/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "photo-curator",
	Short: "On-device photo curation: categories and duplicate detection",
	Long: `Photo Curator analyzes a photo library on the local machine. It extracts
feature prints, scene labels and face counts for every photo, groups photos
into categories and finds near-duplicates. Analysis adapts its concurrency and
request set to the failures it sees, and results are cached between runs.

Configuration is read from the environment (and an optional .env file).`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	if logLevel == "" {
		return
	}
	level, ok := logging.ParseLevel(logLevel)
	if !ok {
		logging.Warn("Unknown log level %q, keeping %s", logLevel, logging.GetLevel())
		return
	}
	logging.SetLevel(level)
}
