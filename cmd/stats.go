package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pxvault/px/internal/core/services"
	"github.com/pxvault/px/pkg/ui"
)

const statsTopN = 10

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show library statistics",
	Long: `Show aggregate statistics over the indexed library: counts, rating
histogram and the most used tags, models and formats.`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	resp, err := statsService.Execute(getContext())
	if err != nil {
		fmt.Println(ui.FormatError("Failed to compute statistics"))
		return err
	}

	if resp.TotalAssets == 0 {
		fmt.Println(ui.FormatWarning("No images indexed"))
		fmt.Println(ui.FormatInfo("Run 'px scan' to index your images"))
		return nil
	}

	fmt.Println(ui.FormatTitle("Library Statistics"))
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Images", fmt.Sprintf("%d", resp.TotalAssets)))
	fmt.Println(ui.RenderKeyValue("Total size", fmt.Sprintf("%.1f MB", float64(resp.TotalSizeBytes)/(1024*1024))))
	fmt.Println(ui.RenderKeyValue("Tagged", fmt.Sprintf("%d (%.0f%%)", resp.Tagged, percent(resp.Tagged, resp.TotalAssets))))
	fmt.Println(ui.RenderKeyValue("Rated", fmt.Sprintf("%d (%.0f%%)", resp.Rated, percent(resp.Rated, resp.TotalAssets))))
	fmt.Println(ui.RenderKeyValue("With generation data", fmt.Sprintf("%d (%.0f%%)", resp.WithGeneration, percent(resp.WithGeneration, resp.TotalAssets))))

	fmt.Println()
	fmt.Println(ui.FormatBold("Ratings"))
	maxRated := 0
	for _, n := range resp.RatingHistogram {
		if n > maxRated {
			maxRated = n
		}
	}
	for r := 5; r >= 1; r-- {
		n := resp.RatingHistogram[r]
		fmt.Printf("  %s %s %s\n",
			ui.FormatRating(r),
			ui.RenderBar(n, maxRated, 20),
			ui.FormatMuted(fmt.Sprintf("(%d)", n)),
		)
	}

	renderTopCounts("Top Tags", resp.Tags)
	renderTopCounts("Models", resp.Models)
	renderTopCounts("Formats", resp.Formats)
	return nil
}

func renderTopCounts(title string, counts []services.NameCount) {
	if len(counts) == 0 {
		return
	}
	shown := counts
	if len(shown) > statsTopN {
		shown = shown[:statsTopN]
	}
	maxCount := shown[0].Count

	fmt.Println()
	fmt.Println(ui.FormatBold(title))
	for _, c := range shown {
		fmt.Printf("  %s %s %s\n",
			ui.RenderBar(c.Count, maxCount, 20),
			ui.StyleBold.Render(c.Name),
			ui.FormatMuted(fmt.Sprintf("(%d)", c.Count)),
		)
	}
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
