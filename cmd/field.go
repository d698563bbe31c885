package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pxvault/px/internal/core/services"
	"github.com/pxvault/px/pkg/ui"
)

var (
	fieldDelete bool
)

// fieldCmd represents the field command
var fieldCmd = &cobra.Command{
	Use:   "field <key=value> [files...]",
	Short: "Set or delete a custom metadata field",
	Long: `Set a free-form key/value field on one or more images, or delete one
with --delete. Fields are embedded in the image file alongside tags
and ratings.

Examples:
  px field collection=fantasy image1.png image2.png
  px field --delete collection image1.png`,
	Args: cobra.MinimumNArgs(2),
	RunE: runField,
}

func init() {
	fieldCmd.Flags().BoolVarP(&fieldDelete, "delete", "d", false, "Delete the field instead of setting it")
}

func runField(cmd *cobra.Command, args []string) error {
	var key, value string
	if fieldDelete {
		key = args[0]
	} else {
		parts := strings.SplitN(args[0], "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("expected key=value, got %q", args[0])
		}
		key, value = parts[0], parts[1]
	}

	paths, err := absPaths(args[1:])
	if err != nil {
		return err
	}

	resp, err := fieldService.Execute(getContext(), services.FieldRequest{
		Paths:  paths,
		Key:    key,
		Value:  value,
		Delete: fieldDelete,
	})
	if err != nil {
		return err
	}

	for _, r := range resp.Results {
		switch {
		case r.Err != nil:
			fmt.Println(ui.FormatError(fmt.Sprintf("%s: %v", r.Path, r.Err)))
		case r.Changed && fieldDelete:
			fmt.Println(ui.FormatSuccess(fmt.Sprintf("Deleted %s from %s", key, r.Path)))
		case r.Changed:
			fmt.Println(ui.FormatSuccess(fmt.Sprintf("Set %s on %s", key, r.Path)))
		default:
			fmt.Println(ui.FormatMuted("Unchanged " + r.Path))
		}
	}

	fmt.Println()
	fmt.Println(ui.FormatMuted(fmt.Sprintf("%d of %d files changed", resp.Changed, len(paths))))
	return nil
}
