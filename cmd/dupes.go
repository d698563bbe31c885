package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/pxvault/px/internal/core/services"
	"github.com/pxvault/px/pkg/ui"
)

var (
	dupesThreshold float64
	dupesExplore   bool
)

// dupesCmd represents the dupes command
var dupesCmd = &cobra.Command{
	Use:   "dupes",
	Short: "Find duplicate and near-duplicate images",
	Long: `Cluster indexed images into groups of visual duplicates using their
perceptual hashes. Requires hashes computed during scan (the default).

With --explore, an interactive browser opens for stepping through the
groups and opening candidates in the viewer.

Examples:
  px dupes
  px dupes --threshold 0.85
  px dupes --explore`,
	RunE: runDupes,
}

func init() {
	dupesCmd.Flags().Float64Var(&dupesThreshold, "threshold", 0, "Minimum similarity 0..1 (default from config)")
	dupesCmd.Flags().BoolVarP(&dupesExplore, "explore", "e", false, "Browse groups interactively")
}

func runDupes(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("threshold") {
		dupesThreshold = appConfig.SimilarityThreshold
	}

	resp, err := similarityService.Execute(getContext(), services.GroupsRequest{
		Threshold: dupesThreshold,
	})
	if err != nil {
		fmt.Println(ui.FormatError("Failed to find duplicates"))
		return err
	}

	if resp.Hashed == 0 {
		fmt.Println(ui.FormatWarning("No perceptual hashes in the index"))
		fmt.Println(ui.FormatInfo("Run 'px scan' with hashing enabled first"))
		return nil
	}

	if len(resp.Groups) == 0 {
		fmt.Println(ui.FormatSuccess(fmt.Sprintf("No duplicates among %d hashed images", resp.Hashed)))
		return nil
	}

	if dupesExplore {
		view, err := NewDupesExplorerView(resp.Groups)
		if err != nil {
			return fmt.Errorf("failed to start explorer: %w", err)
		}
		return view.Run()
	}

	fmt.Println(ui.FormatTitle(fmt.Sprintf("Duplicate Groups (%d)", len(resp.Groups))))
	fmt.Println()
	for i, group := range resp.Groups {
		fmt.Println(ui.FormatBold(fmt.Sprintf("Group %d (%d images)", i+1, len(group.Paths))))
		for _, path := range group.Paths {
			fmt.Println("  " + path)
		}
		fmt.Println()
	}
	fmt.Println(ui.FormatMuted(fmt.Sprintf("Compared %d hashed images at %.0f%% similarity", resp.Hashed, dupesThreshold*100)))
	return nil
}

// DupesExplorerView provides a terminal-based browser over duplicate groups
type DupesExplorerView struct {
	groups        []services.Group
	screen        tcell.Screen
	width         int
	height        int
	groupIndex    int
	selectedIndex int
}

// NewDupesExplorerView creates a new duplicate group browser
func NewDupesExplorerView(groups []services.Group) (*DupesExplorerView, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}

	if err := screen.Init(); err != nil {
		return nil, err
	}

	width, height := screen.Size()

	return &DupesExplorerView{
		groups: groups,
		screen: screen,
		width:  width,
		height: height,
	}, nil
}

// Run starts the interactive browser
func (v *DupesExplorerView) Run() error {
	defer v.screen.Fini()

	v.screen.Clear()
	v.render()

	for {
		ev := v.screen.PollEvent()

		switch ev := ev.(type) {
		case *tcell.EventResize:
			v.width, v.height = ev.Size()
			v.screen.Sync()
			v.render()

		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				return nil
			}

			v.handleKeyPress(ev)
			v.render()
		}
	}
}

// handleKeyPress processes keyboard input
func (v *DupesExplorerView) handleKeyPress(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyUp, tcell.KeyCtrlP:
		v.moveCursor(-1)
	case tcell.KeyDown, tcell.KeyCtrlN:
		v.moveCursor(1)
	case tcell.KeyRight, tcell.KeyTab:
		v.moveGroup(1)
	case tcell.KeyLeft:
		v.moveGroup(-1)
	case tcell.KeyEnter:
		v.openSelected()
	}

	switch ev.Rune() {
	case 'j':
		v.moveCursor(1)
	case 'k':
		v.moveCursor(-1)
	case 'l':
		v.moveGroup(1)
	case 'h':
		v.moveGroup(-1)
	case 'o':
		v.openSelected()
	}
}

func (v *DupesExplorerView) currentGroup() services.Group {
	return v.groups[v.groupIndex]
}

// moveCursor moves the selection within the current group
func (v *DupesExplorerView) moveCursor(delta int) {
	paths := v.currentGroup().Paths
	v.selectedIndex += delta
	if v.selectedIndex < 0 {
		v.selectedIndex = 0
	}
	if v.selectedIndex >= len(paths) {
		v.selectedIndex = len(paths) - 1
	}
}

// moveGroup switches to an adjacent group
func (v *DupesExplorerView) moveGroup(delta int) {
	v.groupIndex += delta
	if v.groupIndex < 0 {
		v.groupIndex = 0
	}
	if v.groupIndex >= len(v.groups) {
		v.groupIndex = len(v.groups) - 1
	}
	v.selectedIndex = 0
}

// openSelected opens the selected image in the configured viewer
func (v *DupesExplorerView) openSelected() {
	paths := v.currentGroup().Paths
	if v.selectedIndex >= len(paths) {
		return
	}
	// Best effort; the explorer stays up either way
	_ = fileOpener.Open(getContext(), paths[v.selectedIndex])
}

// render draws the interface
func (v *DupesExplorerView) render() {
	v.screen.Clear()

	y := 0

	titleStyle := tcell.StyleDefault.Bold(true).Foreground(tcell.ColorPurple)
	v.drawText(0, y, fmt.Sprintf("┌─ Duplicate Group %d/%d", v.groupIndex+1, len(v.groups)), titleStyle)
	y++
	v.drawText(0, y, fmt.Sprintf("│  %d images in this group", len(v.currentGroup().Paths)), tcell.StyleDefault.Foreground(tcell.ColorGray))
	y++
	v.drawText(0, y, "└─────────────────────────────────────────────────────────────", tcell.StyleDefault.Foreground(tcell.ColorGray))
	y += 2

	for i, path := range v.currentGroup().Paths {
		style := tcell.StyleDefault
		prefix := "  "

		if i == v.selectedIndex {
			style = style.Reverse(true)
			prefix = "▶ "
		}

		v.drawText(0, y, prefix+filepath.Base(path), style)
		y++
		v.drawText(0, y, "    "+path, tcell.StyleDefault.Foreground(tcell.ColorGray))
		y++

		if y >= v.height-3 {
			break
		}
	}

	footerY := v.height - 2
	v.drawText(0, footerY, strings.Repeat("─", v.width), tcell.StyleDefault.Foreground(tcell.ColorGray))
	footerY++

	helpText := "↑↓/jk: Select │ ←→/hl: Group │ Enter/o: Open │ q/Esc: Quit"
	v.drawText(0, footerY, helpText, tcell.StyleDefault.Foreground(tcell.ColorGray))

	v.screen.Show()
}

// drawText draws text at the specified position
func (v *DupesExplorerView) drawText(x, y int, text string, style tcell.Style) {
	for i, r := range text {
		if x+i >= v.width {
			break
		}
		v.screen.SetContent(x+i, y, r, nil, style)
	}
}
