package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pxvault/px/internal/core/domain"
	"github.com/pxvault/px/pkg/ui"
)

var (
	exportOutput string
	exportTag    string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export library metadata as JSON",
	Long: `Export the metadata of every indexed image as a single JSON document.
Records are read from the image files themselves, so the export always
reflects what is actually embedded.

Examples:
  px export
  px export -o backup.json
  px export --tag landscape`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
	exportCmd.Flags().StringVar(&exportTag, "tag", "", "Export only images with this tag")
}

// exportEntry is one image in the export document
type exportEntry struct {
	Path      string                   `json:"path"`
	Format    string                   `json:"format"`
	SizeBytes int64                    `json:"size_bytes"`
	Width     int                      `json:"width,omitempty"`
	Height    int                      `json:"height,omitempty"`
	Checksum  string                   `json:"checksum"`
	Tags      []string                 `json:"tags,omitempty"`
	Fields    map[string]string        `json:"fields,omitempty"`
	Rating    int                      `json:"rating,omitempty"`
	Gen       *domain.GenerationParams `json:"generation,omitempty"`
	Warnings  []string                 `json:"warnings,omitempty"`
}

// exportDocument is the export envelope
type exportDocument struct {
	ExportID  string        `json:"export_id"`
	CreatedAt time.Time     `json:"created_at"`
	Assets    []exportEntry `json:"assets"`
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	var headers []domain.AssetHeader
	var err error
	if exportTag != "" {
		headers, err = assetIndex.FindByTag(ctx, exportTag)
	} else {
		headers, err = assetIndex.ListHeaders(ctx)
	}
	if err != nil {
		fmt.Println(ui.FormatError("Failed to list images"))
		return err
	}
	if len(headers) == 0 {
		fmt.Println(ui.FormatWarning("Nothing to export"))
		return nil
	}

	doc := exportDocument{
		ExportID:  uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	failed := 0
	for _, h := range headers {
		res, err := metaStore.Read(h.Path)
		if err != nil {
			failed++
			fmt.Fprintln(os.Stderr, ui.FormatWarning(fmt.Sprintf("%s: %v", h.Path, err)))
			continue
		}

		entry := exportEntry{
			Path:      h.Path,
			Format:    h.Format,
			SizeBytes: h.SizeBytes,
			Width:     h.Width,
			Height:    h.Height,
			Checksum:  res.Checksum,
			Tags:      res.Record.SortedTags(),
			Fields:    res.Record.Fields,
			Rating:    res.Record.Rating,
			Gen:       res.Record.Generation,
			Warnings:  res.Warnings,
		}
		doc.Assets = append(doc.Assets, entry)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	data = append(data, '\n')

	if exportOutput == "" {
		_, err = os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(exportOutput, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	fmt.Println(ui.FormatSuccess(fmt.Sprintf("Exported %d images to %s", len(doc.Assets), exportOutput)))
	if failed > 0 {
		fmt.Println(ui.FormatWarning(fmt.Sprintf("%d images could not be read", failed)))
	}
	return nil
}
