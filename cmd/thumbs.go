package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pxvault/px/pkg/ui"
)

// thumbsCmd represents the thumbs command
var thumbsCmd = &cobra.Command{
	Use:   "thumbs",
	Short: "Generate thumbnails for all indexed images",
	Long: `Generate PNG thumbnails for every indexed image. Thumbnails are keyed
by file checksum, so unchanged images are never regenerated and stale
thumbnails are never served.`,
	RunE: runThumbs,
}

func runThumbs(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	headers, err := assetIndex.ListHeaders(ctx)
	if err != nil {
		fmt.Println(ui.FormatError("Failed to list images"))
		return err
	}
	if len(headers) == 0 {
		fmt.Println(ui.FormatWarning("No images indexed"))
		fmt.Println(ui.FormatInfo("Run 'px scan' to index your images"))
		return nil
	}

	generated := 0
	failed := 0
	for _, h := range headers {
		if h.Checksum == "" {
			continue
		}
		if _, err := thumbnailer.Generate(ctx, h.Path, h.Checksum); err != nil {
			failed++
			fmt.Println(ui.FormatWarning(fmt.Sprintf("%s: %v", h.Path, err)))
			continue
		}
		generated++
	}

	fmt.Println(ui.FormatSuccess(fmt.Sprintf("Thumbnails ready for %d images", generated)))
	if failed > 0 {
		fmt.Println(ui.FormatWarning(fmt.Sprintf("%d images failed", failed)))
	}
	fmt.Println(ui.FormatMuted("Stored in " + appLibrary.ThumbsPath))
	return nil
}
