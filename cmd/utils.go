package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"

	"github.com/pxvault/px/internal/core/domain"
	"github.com/pxvault/px/internal/core/services"
)

const timeRounding = time.Millisecond

// absPaths resolves every argument to an absolute path so it matches the
// index's path keys
func absPaths(args []string) ([]string, error) {
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", arg, err)
		}
		paths = append(paths, abs)
	}
	return paths, nil
}

// pickAsset selects one asset: by fuzzy query when given, otherwise via
// the interactive finder
func pickAsset(ctx context.Context, query string) (*domain.AssetHeader, error) {
	if query != "" {
		resp, err := queryService.Search(ctx, services.SearchRequest{Query: query})
		if err != nil {
			return nil, err
		}
		if resp.Total == 0 {
			return nil, fmt.Errorf("no assets matching %q", query)
		}
		return &resp.Assets[0], nil
	}

	resp, err := queryService.Execute(ctx, services.ListRequest{SortBy: "modified", Reverse: true})
	if err != nil {
		return nil, err
	}
	if resp.Total == 0 {
		return nil, fmt.Errorf("no assets indexed; run 'px scan' first")
	}

	idx, err := fuzzyfinder.Find(
		resp.Assets,
		func(i int) string { return resp.Assets[i].Name },
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			a := resp.Assets[i]
			return fmt.Sprintf("%s\n\nFormat: %s\nSize: %s\nRating: %d/5\nTags: %s",
				a.Path, a.Format, a.Dimensions(), a.Rating, a.GetTagsString())
		}),
	)
	if err != nil {
		// Finder cancelled
		return nil, nil
	}
	return &resp.Assets[idx], nil
}
