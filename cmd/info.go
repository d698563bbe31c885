package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/pxvault/px/pkg/ui"
)

var (
	infoCopyPrompt bool
	infoOpen       bool
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info [query]",
	Short: "Show everything known about one image",
	Long: `Show an image's embedded metadata: tags, rating, custom fields and
the generation parameters its creator tool stored.

Without arguments an interactive picker opens.

Examples:
  px info
  px info castle
  px info --copy-prompt
  px info castle --open`,
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoCopyPrompt, "copy-prompt", false, "Copy the generation prompt to the clipboard")
	infoCmd.Flags().BoolVar(&infoOpen, "open", false, "Open the image in the configured viewer")
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	query := ""
	if len(args) > 0 {
		query = args[0]
	}
	header, err := pickAsset(ctx, query)
	if err != nil {
		return err
	}
	if header == nil {
		return nil
	}

	res, err := metaStore.Read(header.Path)
	if err != nil {
		fmt.Println(ui.FormatError("Failed to read metadata: " + err.Error()))
		return err
	}

	fmt.Println(ui.FormatTitle(header.Name))
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Path", header.Path))
	fmt.Println(ui.RenderKeyValue("Format", header.Format))
	fmt.Println(ui.RenderKeyValue("Dimensions", header.Dimensions()))
	fmt.Println(ui.RenderKeyValue("Size", fmt.Sprintf("%.2f MB", header.SizeMB())))
	fmt.Println(ui.RenderKeyValue("Modified", header.ModTime.Format(appConfig.DisplayDateFormat)))
	fmt.Println(ui.RenderKeyValue("Checksum", res.Checksum))
	fmt.Println()

	fmt.Println(ui.RenderKeyValue("Rating", ui.FormatRating(res.Record.Rating)))
	fmt.Println(ui.RenderKeyValue("Tags", res.Record.TagsString()))
	if len(res.Record.Fields) > 0 {
		fmt.Println(ui.RenderKeyValue("Fields", ""))
		var items []string
		for k, v := range res.Record.Fields {
			items = append(items, k+" = "+v)
		}
		fmt.Print(ui.RenderSimpleList(items))
	}

	if gen := res.Record.Generation; gen != nil {
		fmt.Println()
		fmt.Println(ui.FormatBold("Generation"))
		if gen.Model != "" {
			fmt.Println(ui.RenderKeyValue("Model", gen.Model))
		}
		if gen.Sampler != "" {
			fmt.Println(ui.RenderKeyValue("Sampler", gen.Sampler))
		}
		if gen.Seed != "" {
			fmt.Println(ui.RenderKeyValue("Seed", gen.Seed))
		}
		if gen.Steps > 0 {
			fmt.Println(ui.RenderKeyValue("Steps", fmt.Sprintf("%d", gen.Steps)))
		}
		if gen.CFGScale > 0 {
			fmt.Println(ui.RenderKeyValue("CFG Scale", fmt.Sprintf("%.1f", gen.CFGScale)))
		}
		fmt.Println()
		fmt.Println(ui.FormatMuted("Raw (" + gen.SourceKey + "):"))
		fmt.Println(renderGenerationJSON(gen.Raw))

		if infoCopyPrompt {
			if gen.Prompt == "" {
				fmt.Println(ui.FormatWarning("No prompt found in the generation data"))
			} else if err := clipboard.WriteAll(gen.Prompt); err != nil {
				fmt.Println(ui.FormatWarning("Clipboard unavailable: " + err.Error()))
			} else {
				fmt.Println(ui.FormatSuccess("Prompt copied to clipboard"))
			}
		}
	} else if infoCopyPrompt {
		fmt.Println(ui.FormatWarning("No generation data embedded in this image"))
	}

	for _, w := range res.Warnings {
		fmt.Println(ui.FormatWarning(w))
	}

	if infoOpen {
		if err := fileOpener.Open(ctx, header.Path); err != nil {
			fmt.Println(ui.FormatWarning(err.Error()))
		}
	}

	return nil
}

// renderGenerationJSON pretty-prints and syntax-highlights a raw
// generation blob
func renderGenerationJSON(raw json.RawMessage) string {
	var pretty bytes.Buffer
	content := string(raw)
	if err := json.Indent(&pretty, raw, "", "  "); err == nil {
		content = pretty.String()
	}

	if !appConfig.SyntaxHighlighting {
		return content
	}

	lexer := lexers.Get("json")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.TTY16m

	var buf strings.Builder
	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return content
	}
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return content
	}
	return buf.String()
}
