package client

import (
	"context"

	"go.uber.org/zap"
)

// ImportFlow is the two-phase admin bulk import: browse marketplace listings,
// then import a selected subset into the catalog. A partial failure is a
// normal outcome, reported per listing.
type ImportFlow struct {
	api    *Client
	logger *zap.Logger
}

func NewImportFlow(api *Client, logger *zap.Logger) *ImportFlow {
	return &ImportFlow{api: api, logger: logger}
}

// Browse fetches candidate listings for the query.
func (f *ImportFlow) Browse(ctx context.Context, query string, limit int) ([]MarketplaceListing, error) {
	return f.api.BrowseListings(ctx, query, limit)
}

// Import submits the selected listing ids. Per-listing failures come back in
// the result; only a transport or auth failure is an error.
func (f *ImportFlow) Import(ctx context.Context, listingIDs []string) (ImportResult, error) {
	result, err := f.api.ImportListings(ctx, listingIDs)
	if err != nil {
		return ImportResult{}, err
	}
	for _, item := range result.Errors {
		f.logger.Warn("listing import failed",
			zap.String("listing_id", item.ProductID),
			zap.String("reason", item.Error))
	}
	return result, nil
}
