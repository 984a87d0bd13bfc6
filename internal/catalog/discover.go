package catalog

import (
	"context"

	"library-converter/internal/logging"
)

// DefaultPageSize is the search page size used by Discover.
const DefaultPageSize = 500

// DiscoverOptions selects which assets a run will process.
type DiscoverOptions struct {
	Types        []string
	PageSize     int
	MaxAssets    int
	WithArchived bool
	WithDeleted  bool
	TakenAfter   string
	TakenBefore  string
}

// Discover pages through search results for every configured type in
// ascending order. A failed page stops paging for that type only, except for
// authentication failures, which are returned. MaxAssets > 0 truncates the result.
func Discover(ctx context.Context, c Client, opts DiscoverOptions) ([]Asset, error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var assets []Asset
	limitReached := func() bool {
		return opts.MaxAssets > 0 && len(assets) >= opts.MaxAssets
	}

	for _, assetType := range opts.Types {
		if limitReached() {
			break
		}

		for page := 1; ; page++ {
			items, err := c.Search(ctx, SearchQuery{
				Type:         assetType,
				Page:         page,
				Size:         pageSize,
				WithArchived: opts.WithArchived,
				WithDeleted:  opts.WithDeleted,
				TakenAfter:   opts.TakenAfter,
				TakenBefore:  opts.TakenBefore,
			})
			if err != nil {
				if IsFatal(err) || ctx.Err() != nil {
					return assets, err
				}
				logging.Error("Failed to fetch %s page %d: %v", assetType, page, err)
				break
			}

			assets = append(assets, items...)
			logging.Debug("Fetched %s page %d: %d assets", assetType, page, len(items))

			if len(items) < pageSize || limitReached() {
				break
			}
		}
	}

	if opts.MaxAssets > 0 && len(assets) > opts.MaxAssets {
		assets = assets[:opts.MaxAssets]
	}
	return assets, nil
}
