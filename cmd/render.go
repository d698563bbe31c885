package cmd

import (
	"fmt"

	"github.com/pxvault/px/internal/core/domain"
	"github.com/pxvault/px/pkg/ui"
)

// renderHeaderTable prints asset headers in the standard list layout
func renderHeaderTable(assets []domain.AssetHeader) {
	table := ui.NewTable([]ui.TableColumn{
		{Header: "Name", Width: 32, Align: "left"},
		{Header: "Size", Width: 10, Align: "left"},
		{Header: "Rating", Width: 6, Align: "left"},
		{Header: "Tags", Width: 28, Align: "left"},
		{Header: "Model", Width: 18, Align: "left"},
		{Header: "Modified", Width: 12, Align: "left"},
	})

	for _, a := range assets {
		table.AddRow([]string{
			ui.Truncate(a.Name, 32),
			fmt.Sprintf("%.1f MB", a.SizeMB()),
			ratingCell(a.Rating),
			ui.Truncate(a.GetTagsString(), 28),
			ui.Truncate(orDash(a.Model), 18),
			a.ModTime.Format(appConfig.DisplayDateFormat),
		})
	}

	fmt.Print(table.Render())
}

func ratingCell(rating int) string {
	if rating == 0 {
		return "-"
	}
	return fmt.Sprintf("%d/5", rating)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
