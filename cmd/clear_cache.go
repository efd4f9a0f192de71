package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Delete the analysis cache",
	Long: `Delete every cached analysis result and duplicate group. The next run
analyzes the whole library again.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.cache.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Analysis cache cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCacheCmd)
}
