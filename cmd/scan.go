package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pxvault/px/internal/core/services"
	"github.com/pxvault/px/pkg/ui"
)

var (
	scanNoHashes bool
	scanNoPrune  bool
	scanFlat     bool
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [root...]",
	Short: "Scan image roots and rebuild the index",
	Long: `Walk the configured roots (or the given ones), read each image's
embedded metadata and refresh the index.

The index is derived data: it can always be rebuilt from the images
themselves. Unchanged files are skipped.

Examples:
  px scan
  px scan ~/Pictures/ai
  px scan --no-hashes`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanNoHashes, "no-hashes", false, "Skip perceptual hash computation")
	scanCmd.Flags().BoolVar(&scanNoPrune, "no-prune", false, "Keep index rows for deleted files")
	scanCmd.Flags().BoolVar(&scanFlat, "flat", false, "Do not descend into subdirectories")
}

func runScan(cmd *cobra.Command, args []string) error {
	roots := args
	if len(roots) == 0 {
		roots = appConfig.Roots
	}
	if len(roots) == 0 {
		fmt.Println(ui.FormatWarning("No roots configured"))
		fmt.Println(ui.FormatInfo("Add roots to " + appLibrary.ConfigPath + " or pass them as arguments"))
		return nil
	}

	recursive := appConfig.ScanRecursive && !scanFlat
	computeHashes := appConfig.ComputeHashes && !scanNoHashes

	fmt.Println(ui.FormatScan(fmt.Sprintf("Scanning %d root(s)...", len(roots))))

	resp, err := scanService.Execute(getContext(), services.ScanRequest{
		Roots:         roots,
		Recursive:     recursive,
		ComputeHashes: computeHashes,
		Prune:         !scanNoPrune,
	})
	if err != nil {
		fmt.Println(ui.FormatError("Scan failed"))
		return err
	}

	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Scanned", fmt.Sprintf("%d files", resp.Scanned)))
	fmt.Println(ui.RenderKeyValue("Indexed", fmt.Sprintf("%d", resp.Indexed)))
	fmt.Println(ui.RenderKeyValue("Unchanged", fmt.Sprintf("%d", resp.Skipped)))
	if resp.Pruned > 0 {
		fmt.Println(ui.RenderKeyValue("Pruned", fmt.Sprintf("%d", resp.Pruned)))
	}
	fmt.Println(ui.RenderKeyValue("Duration", resp.Duration.Round(timeRounding).String()))

	for _, w := range resp.Warnings {
		fmt.Println(ui.FormatWarning(w))
	}
	for _, e := range resp.Errors {
		fmt.Println(ui.FormatError(fmt.Sprintf("%s: %v", e.Path, e.Err)))
	}

	if len(resp.Errors) == 0 {
		fmt.Println()
		fmt.Println(ui.FormatSuccess("Scan complete"))
	}
	return nil
}
