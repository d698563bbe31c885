package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pxvault/px/pkg/ui"
)

var (
	cleanThumbs bool
	cleanCache  bool
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove derived library data",
	Long: `Remove derived data from the library directory: cached reports and
generated thumbnails. Image files and their embedded metadata are
never touched.

Without flags, everything derived is removed.

Examples:
  px clean
  px clean --thumbs
  px clean --cache`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanThumbs, "thumbs", false, "Remove only thumbnails")
	cleanCmd.Flags().BoolVar(&cleanCache, "cache", false, "Remove only cached reports")
}

func runClean(cmd *cobra.Command, args []string) error {
	all := !cleanThumbs && !cleanCache

	if cleanCache || all {
		if err := appLibrary.CleanCache(); err != nil {
			fmt.Println(ui.FormatError("Failed to clean cache: " + err.Error()))
			return err
		}
		fmt.Println(ui.FormatSuccess("Cache cleaned"))
	}

	if cleanThumbs || all {
		if err := appLibrary.CleanThumbs(); err != nil {
			fmt.Println(ui.FormatError("Failed to clean thumbnails: " + err.Error()))
			return err
		}
		fmt.Println(ui.FormatSuccess("Thumbnails cleaned"))
	}

	return nil
}
