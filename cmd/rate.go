package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pxvault/px/internal/core/services"
	"github.com/pxvault/px/pkg/ui"
)

// rateCmd represents the rate command
var rateCmd = &cobra.Command{
	Use:   "rate <0-5> [files...]",
	Short: "Rate images from 0 to 5 stars",
	Long: `Set a star rating on one or more images. The rating is embedded in
the image file. A rating of 0 clears it.

Examples:
  px rate 5 best.png
  px rate 0 meh.png
  px rate 3 batch/*.png`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRate,
}

func runRate(cmd *cobra.Command, args []string) error {
	rating, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("rating must be a number between 0 and 5, got %q", args[0])
	}

	paths, err := absPaths(args[1:])
	if err != nil {
		return err
	}

	resp, err := ratingService.Execute(getContext(), services.RateRequest{
		Paths:  paths,
		Rating: rating,
	})
	if err != nil {
		return err
	}

	for _, r := range resp.Results {
		switch {
		case r.Err != nil:
			fmt.Println(ui.FormatError(fmt.Sprintf("%s: %v", r.Path, r.Err)))
		case r.Changed:
			fmt.Printf("%s %s\n", ui.FormatRating(rating), r.Path)
		default:
			fmt.Println(ui.FormatMuted("Unchanged " + r.Path))
		}
	}

	fmt.Println()
	fmt.Println(ui.FormatMuted(fmt.Sprintf("%d of %d files changed", resp.Changed, len(paths))))
	return nil
}
