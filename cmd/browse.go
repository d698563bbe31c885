package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pxvault/px/internal/core/domain"
	"github.com/pxvault/px/internal/core/services"
	"github.com/pxvault/px/pkg/ui"
)

// browseCmd represents the browse command
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Interactive library browser",
	Long: `Browse the indexed library interactively.

Controls:
  - ↑/↓   : Navigate
  - Enter : Open in Viewer
  - 0-5   : Set Rating
  - q     : Quit`,
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	resp, err := queryService.Execute(ctx, services.ListRequest{
		SortBy:  appConfig.DefaultSort,
		Reverse: appConfig.ReverseSort,
	})
	if err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}
	if resp.Total == 0 {
		fmt.Println(ui.FormatWarning("No images indexed"))
		fmt.Println(ui.FormatInfo("Run 'px scan' to index your images"))
		return nil
	}

	p := tea.NewProgram(initialBrowseModel(resp.Assets))
	if _, err := p.Run(); err != nil {
		return err
	}

	return nil
}

// --- TUI Model ---

type browseModel struct {
	table  table.Model
	assets []domain.AssetHeader
	status string
}

func initialBrowseModel(assets []domain.AssetHeader) browseModel {
	columns := []table.Column{
		{Title: "Name", Width: 32},
		{Title: "Rating", Width: 6},
		{Title: "Tags", Width: 28},
		{Title: "Model", Width: 18},
		{Title: "Size", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(browseRows(assets)),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ui.ColorMuted).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(ui.ColorDefault).
		Background(ui.ColorPrimary).
		Bold(true)
	t.SetStyles(s)

	return browseModel{
		table:  t,
		assets: assets,
	}
}

func browseRows(assets []domain.AssetHeader) []table.Row {
	rows := make([]table.Row, 0, len(assets))
	for _, a := range assets {
		rows = append(rows, table.Row{
			ui.Truncate(a.Name, 32),
			ratingCell(a.Rating),
			ui.Truncate(a.GetTagsString(), 28),
			ui.Truncate(orDash(a.Model), 18),
			fmt.Sprintf("%.1f MB", a.SizeMB()),
		})
	}
	return rows
}

func (m browseModel) Init() tea.Cmd { return nil }

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit

		case "enter", "o":
			idx := m.table.Cursor()
			if idx < len(m.assets) {
				path := m.assets[idx].Path
				// Best effort; the browser stays up either way
				_ = fileOpener.Open(getContext(), path)
			}

		case "0", "1", "2", "3", "4", "5":
			idx := m.table.Cursor()
			if idx < len(m.assets) {
				rating, _ := strconv.Atoi(msg.String())
				m = m.rateSelected(idx, rating)
			}
		}
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// rateSelected writes the rating through the service so the file and the
// index stay in sync, then refreshes the visible row
func (m browseModel) rateSelected(idx, rating int) browseModel {
	asset := m.assets[idx]

	resp, err := ratingService.Execute(getContext(), services.RateRequest{
		Paths:  []string{asset.Path},
		Rating: rating,
	})
	if err != nil || len(resp.Results) == 0 || resp.Results[0].Err != nil {
		m.status = "Failed to rate " + asset.Name
		return m
	}

	m.assets[idx].Rating = rating
	m.table.SetRows(browseRows(m.assets))
	m.status = fmt.Sprintf("Rated %s %d/5", asset.Name, rating)
	return m
}

func (m browseModel) View() string {
	view := "\n" +
		ui.StyleTitle.Render(" 🖼  Library Browser ") + "\n\n" +
		m.table.View() + "\n\n"

	if m.status != "" {
		view += ui.FormatMuted(" "+m.status) + "\n"
	}
	view += ui.FormatMuted(" [Enter] Open  [0-5] Rate  [q] Quit") + "\n"
	return view
}
