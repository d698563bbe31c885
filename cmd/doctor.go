package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pxvault/px/internal/core/services"
	"github.com/pxvault/px/pkg/ui"
)

// doctorCmd represents the doctor command
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the health of the library",
	Long: `Check every indexed image: that the file still exists, that its
container parses, that its metadata carries no corruption, and that
the index is not stale.

Run 'px scan' to fix stale entries and prune missing files.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	resp, err := doctorService.Execute(getContext())
	if err != nil {
		fmt.Println(ui.FormatError("Health check failed"))
		return err
	}

	if resp.Checked == 0 {
		fmt.Println(ui.FormatWarning("No images indexed"))
		fmt.Println(ui.FormatInfo("Run 'px scan' to index your images"))
		return nil
	}

	fmt.Println(ui.FormatTitle("Library Health"))
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Checked", fmt.Sprintf("%d", resp.Checked)))
	fmt.Println(ui.RenderKeyValue("Healthy", fmt.Sprintf("%d", resp.Healthy)))
	fmt.Println()

	if len(resp.Issues) == 0 {
		fmt.Println(ui.FormatSuccess("No problems found"))
		return nil
	}

	byKind := make(map[services.IssueKind][]services.Issue)
	for _, issue := range resp.Issues {
		byKind[issue.Kind] = append(byKind[issue.Kind], issue)
	}

	order := []services.IssueKind{
		services.IssueMissing,
		services.IssueCorrupt,
		services.IssueWarning,
		services.IssueStale,
		services.IssueUnsupported,
	}
	titles := map[services.IssueKind]string{
		services.IssueMissing:     "Missing files",
		services.IssueCorrupt:     "Corrupt metadata",
		services.IssueWarning:     "Metadata warnings",
		services.IssueStale:       "Stale index entries",
		services.IssueUnsupported: "Unsupported formats",
	}

	for _, kind := range order {
		issues := byKind[kind]
		if len(issues) == 0 {
			continue
		}
		fmt.Println(ui.FormatBold(fmt.Sprintf("%s (%d)", titles[kind], len(issues))))
		for _, issue := range issues {
			fmt.Printf("  %s %s\n", ui.FormatWarning(issue.Path), ui.FormatMuted(issue.Detail))
		}
		fmt.Println()
	}

	fmt.Println(ui.FormatInfo("Run 'px scan' to refresh stale entries and prune missing files"))
	return nil
}
