package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pxvault/px/pkg/config"
	"github.com/pxvault/px/pkg/library"
	"github.com/pxvault/px/pkg/ui"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [root...]",
	Short: "Initialize the px library",
	Long: `Initialize the px managed directory and config file.

This creates the state directory at ~/.local/share/px/ with:
  - index.db    : Rebuildable asset index
  - thumbs/     : Cached thumbnails
  - cache/      : Generated reports and scratch files
  - config.yaml : Global configuration

Image roots given as arguments are written into the config so scans
know where to look. Your images are never moved or copied.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	lib, err := library.New()
	if err != nil {
		fmt.Println(ui.FormatError("Failed to determine library location"))
		return err
	}

	if lib.Exists() {
		fmt.Println(ui.FormatWarning("Library already initialized"))
		fmt.Println(ui.FormatMuted("Location: " + lib.RootPath))
		return nil
	}

	fmt.Println(ui.FormatScan("Initializing px library..."))
	fmt.Println()

	if err := lib.Initialize(); err != nil {
		fmt.Println(ui.FormatError("Failed to initialize library"))
		return err
	}
	fmt.Println(ui.FormatSuccess("Library created at " + lib.RootPath))

	cfg := config.DefaultConfig()
	cfg.Roots = append(cfg.Roots, args...)
	if err := cfg.Save(lib.ConfigPath); err != nil {
		fmt.Println(ui.FormatWarning("Failed to create default config: " + err.Error()))
	} else {
		fmt.Println(ui.FormatSuccess("Config created at " + lib.ConfigPath))
	}

	fmt.Println()
	if len(args) == 0 {
		fmt.Println(ui.FormatInfo("Add image roots to " + lib.ConfigPath + " and run 'px scan'"))
	} else {
		fmt.Println(ui.FormatInfo("Run 'px scan' to index your images"))
	}

	return nil
}
