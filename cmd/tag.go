package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pxvault/px/internal/core/services"
	"github.com/pxvault/px/pkg/ui"
)

var (
	tagRemove bool
)

// tagCmd represents the tag command
var tagCmd = &cobra.Command{
	Use:   "tag [tags] [files...]",
	Short: "Add or remove tags on images",
	Long: `Add or remove tags on one or more images. Tags are written into the
image files themselves, so they travel with the file.

Tags are comma-separated; files follow. Without any arguments, all
known tags and their usage counts are listed.

Examples:
  px tag night,castle image1.png image2.png
  px tag --remove night image1.png
  px tag`,
	RunE: runTag,
}

func init() {
	tagCmd.Flags().BoolVarP(&tagRemove, "remove", "r", false, "Remove the tags instead of adding")
}

func runTag(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	if len(args) == 0 {
		return runTagList()
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: px tag <tags> <files...>")
	}

	tags := strings.Split(args[0], ",")
	paths, err := absPaths(args[1:])
	if err != nil {
		return err
	}

	resp, err := tagService.Execute(ctx, services.TagRequest{
		Paths:  paths,
		Tags:   tags,
		Remove: tagRemove,
	})
	if err != nil {
		return err
	}

	for _, r := range resp.Results {
		switch {
		case r.Err != nil:
			fmt.Println(ui.FormatError(fmt.Sprintf("%s: %v", r.Path, r.Err)))
		case r.Changed && tagRemove:
			fmt.Println(ui.FormatSuccess("Untagged " + r.Path))
		case r.Changed:
			fmt.Println(ui.FormatSuccess("Tagged " + r.Path))
		default:
			fmt.Println(ui.FormatMuted("Unchanged " + r.Path))
		}
	}

	fmt.Println()
	fmt.Println(ui.FormatMuted(fmt.Sprintf("%d of %d files changed", resp.Changed, len(paths))))
	return nil
}

func runTagList() error {
	counts, err := tagService.ListTags(getContext())
	if err != nil {
		fmt.Println(ui.FormatError("Failed to list tags"))
		return err
	}
	if len(counts) == 0 {
		fmt.Println(ui.FormatWarning("No tags yet"))
		fmt.Println(ui.FormatInfo("Tag an image with: px tag <tags> <files...>"))
		return nil
	}

	names := make([]string, 0, len(counts))
	maxCount := 0
	for name, count := range counts {
		names = append(names, name)
		if count > maxCount {
			maxCount = count
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	fmt.Println(ui.FormatTitle(fmt.Sprintf("Tags (%d)", len(names))))
	fmt.Println()
	for _, name := range names {
		fmt.Printf("  %s %s %s\n",
			ui.RenderBar(counts[name], maxCount, 20),
			ui.StyleBold.Render(name),
			ui.FormatMuted(fmt.Sprintf("(%d)", counts[name])),
		)
	}
	return nil
}
