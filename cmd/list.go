package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pxvault/px/internal/core/services"
	"github.com/pxvault/px/pkg/ui"
)

var (
	listTagFilter string
	listModel     string
	listFormat    string
	listMinRating int
	listSortBy    string
	listReverse   bool
	listLimit     int
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:     "list [query]",
	Short:   "List indexed images",
	Aliases: []string{"ls"},
	Long: `List indexed images in a table, optionally filtered and sorted.
With a query argument, fuzzy-search names, tags and models instead.

Examples:
  px list
  px list --tag night
  px list --rating 4 --sort rating --reverse
  px list --model sdxl
  px list castle`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listTagFilter, "tag", "", "Filter by tag")
	listCmd.Flags().StringVar(&listModel, "model", "", "Filter by generation model substring")
	listCmd.Flags().StringVar(&listFormat, "format", "", "Filter by format (png, jpeg, ...)")
	listCmd.Flags().IntVar(&listMinRating, "rating", 0, "Keep images rated at least this")
	listCmd.Flags().StringVar(&listSortBy, "sort", "modified", "Sort by field (modified, name, size, rating)")
	listCmd.Flags().BoolVar(&listReverse, "reverse", false, "Reverse sort order")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum rows to show (0 = config default)")
	listCmd.Flags().Lookup("rating").NoOptDefVal = "1"
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	if len(args) > 0 {
		return runSearch(args[0])
	}

	if !cmd.Flags().Changed("sort") {
		listSortBy = appConfig.DefaultSort
	}
	if !cmd.Flags().Changed("reverse") {
		listReverse = appConfig.ReverseSort
	}
	if !cmd.Flags().Changed("limit") {
		listLimit = appConfig.MaxResults
	}

	resp, err := queryService.Execute(ctx, services.ListRequest{
		Tag:       listTagFilter,
		Model:     listModel,
		Format:    listFormat,
		MinRating: listMinRating,
		SortBy:    listSortBy,
		Reverse:   listReverse,
		Limit:     listLimit,
	})
	if err != nil {
		fmt.Println(ui.FormatError("Failed to list images"))
		return err
	}

	if resp.Total == 0 {
		if listTagFilter != "" {
			fmt.Println(ui.FormatWarning("No images found with tag: " + listTagFilter))
		} else {
			fmt.Println(ui.FormatWarning("No images found"))
			fmt.Println(ui.FormatInfo("Run 'px scan' to index your images"))
		}
		return nil
	}

	if listTagFilter != "" {
		fmt.Println(ui.FormatTitle(fmt.Sprintf("Images (tag: %s)", listTagFilter)))
	} else {
		fmt.Println(ui.FormatTitle("Images"))
	}
	fmt.Println()

	renderHeaderTable(resp.Assets)
	fmt.Println()

	if len(resp.Assets) < resp.Total {
		fmt.Println(ui.FormatMuted(fmt.Sprintf("Showing %d of %d images", len(resp.Assets), resp.Total)))
	} else {
		fmt.Println(ui.FormatMuted(fmt.Sprintf("Total: %d images", resp.Total)))
	}
	return nil
}

func runSearch(query string) error {
	resp, err := queryService.Search(getContext(), services.SearchRequest{Query: query})
	if err != nil {
		fmt.Println(ui.FormatError("Search failed"))
		return err
	}
	if resp.Total == 0 {
		fmt.Println(ui.FormatWarning("No images matching: " + query))
		return nil
	}

	fmt.Println(ui.FormatTitle(fmt.Sprintf("Images matching %q", query)))
	fmt.Println()
	renderHeaderTable(resp.Assets)
	fmt.Println()
	fmt.Println(ui.FormatMuted(fmt.Sprintf("Total: %d images", resp.Total)))
	return nil
}
