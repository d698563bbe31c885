package cmd

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cobra"

	"github.com/pxvault/px/internal/core/services"
	"github.com/pxvault/px/pkg/ui"
)

var (
	chartOpen bool
)

const chartTopN = 15

// chartCmd represents the chart command
var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Generate an HTML chart report of the library",
	Long: `Generate an HTML report with interactive charts: tag distribution,
generation models and the rating histogram. The report is written to
the library cache directory.

Examples:
  px chart
  px chart --open`,
	RunE: runChart,
}

func init() {
	chartCmd.Flags().BoolVar(&chartOpen, "open", false, "Open the report in the default browser")
}

func runChart(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	stats, err := statsService.Execute(ctx)
	if err != nil {
		fmt.Println(ui.FormatError("Failed to compute statistics"))
		return err
	}
	if stats.TotalAssets == 0 {
		fmt.Println(ui.FormatWarning("No images indexed"))
		fmt.Println(ui.FormatInfo("Run 'px scan' to index your images"))
		return nil
	}

	page := components.NewPage()
	page.PageTitle = "px library report"
	page.AddCharts(
		tagPieChart(stats),
		modelBarChart(stats),
		ratingBarChart(stats),
	)

	reportPath := appLibrary.ReportPath("report.html")
	f, err := os.Create(reportPath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	fmt.Println(ui.FormatSuccess("Report written to " + reportPath))

	if chartOpen {
		if err := fileOpener.Open(ctx, reportPath); err != nil {
			fmt.Println(ui.FormatWarning(err.Error()))
		}
	}
	return nil
}

func tagPieChart(stats *services.StatsResponse) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Tags"}),
	)

	tags := stats.Tags
	if len(tags) > chartTopN {
		tags = tags[:chartTopN]
	}
	items := make([]opts.PieData, 0, len(tags))
	for _, t := range tags {
		items = append(items, opts.PieData{Name: t.Name, Value: t.Count})
	}
	pie.AddSeries("tags", items)
	return pie
}

func modelBarChart(stats *services.StatsResponse) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Generation Models"}),
	)

	models := stats.Models
	if len(models) > chartTopN {
		models = models[:chartTopN]
	}
	names := make([]string, 0, len(models))
	values := make([]opts.BarData, 0, len(models))
	for _, m := range models {
		names = append(names, m.Name)
		values = append(values, opts.BarData{Value: m.Count})
	}
	bar.SetXAxis(names).AddSeries("images", values)
	return bar
}

func ratingBarChart(stats *services.StatsResponse) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Ratings"}),
	)

	names := make([]string, 0, 6)
	values := make([]opts.BarData, 0, 6)
	for r := 0; r <= 5; r++ {
		names = append(names, fmt.Sprintf("%d", r))
		values = append(values, opts.BarData{Value: stats.RatingHistogram[r]})
	}
	bar.SetXAxis(names).AddSeries("images", values)
	return bar
}
