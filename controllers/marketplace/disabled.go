package marketplaceControllers

import (
	"context"
	"errors"
)

var ErrMarketplaceDisabled = errors.New("marketplace integration is not configured")

// DisabledSource stands in when the eBay credentials are absent so the rest
// of the admin surface still works.
type DisabledSource struct{}

func (DisabledSource) Search(context.Context, string, int) ([]Listing, error) {
	return nil, ErrMarketplaceDisabled
}

func (DisabledSource) GetListing(context.Context, string) (Listing, error) {
	return Listing{}, ErrMarketplaceDisabled
}
