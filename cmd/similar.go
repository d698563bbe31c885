package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pxvault/px/internal/core/services"
	"github.com/pxvault/px/pkg/ui"
)

var (
	similarThreshold float64
	similarLimit     int
)

// similarCmd represents the similar command
var similarCmd = &cobra.Command{
	Use:   "similar [query]",
	Short: "Find images similar to one image",
	Long: `Find images visually similar to a reference image, ranked by
perceptual-hash similarity. Without arguments an interactive picker
opens.

Requires hashes computed during scan (the default).

Examples:
  px similar castle
  px similar --threshold 0.8
  px similar castle --limit 5`,
	RunE: runSimilar,
}

func init() {
	similarCmd.Flags().Float64Var(&similarThreshold, "threshold", 0, "Minimum similarity 0..1 (default from config)")
	similarCmd.Flags().IntVar(&similarLimit, "limit", 10, "Maximum matches to show")
}

func runSimilar(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	query := ""
	if len(args) > 0 {
		query = args[0]
	}
	header, err := pickAsset(ctx, query)
	if err != nil {
		return err
	}
	if header == nil {
		return nil
	}

	if !cmd.Flags().Changed("threshold") {
		similarThreshold = appConfig.SimilarityThreshold
	}

	resp, err := similarityService.Similar(ctx, services.SimilarRequest{
		Path:      header.Path,
		Threshold: similarThreshold,
		Limit:     similarLimit,
	})
	if err != nil {
		fmt.Println(ui.FormatError(err.Error()))
		return err
	}

	if len(resp.Matches) == 0 {
		fmt.Println(ui.FormatWarning(fmt.Sprintf("No images at least %.0f%% similar to %s", similarThreshold*100, header.Name)))
		return nil
	}

	fmt.Println(ui.FormatTitle("Similar to " + header.Name))
	fmt.Println()
	for _, m := range resp.Matches {
		fmt.Printf("  %s  %s\n",
			ui.StyleAccent.Render(fmt.Sprintf("%5.1f%%", m.Similarity*100)),
			m.Path,
		)
	}
	return nil
}
