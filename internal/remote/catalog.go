package remote

import (
	"context"

	"github.com/lumera/portal/internal/catalog"
)

type universePayload struct {
	Products []catalog.Product `json:"products"`
}

// FetchUniverse retrieves the current product catalog and reduces it to
// the set of purchasable product ids. It satisfies catalog.UniverseProvider.
func (c *Client) FetchUniverse(ctx context.Context) (catalog.Universe, error) {
	var payload universePayload
	if err := c.doJSON(ctx, "remote/catalog", "GET", c.cfg.CatalogURL, nil, &payload); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(payload.Products))
	for _, p := range payload.Products {
		ids = append(ids, p.ID)
	}
	return catalog.NewUniverse(ids...), nil
}

// FetchProducts retrieves the full catalog listing.
func (c *Client) FetchProducts(ctx context.Context) ([]catalog.Product, error) {
	var payload universePayload
	if err := c.doJSON(ctx, "remote/catalog", "GET", c.cfg.CatalogURL, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Products, nil
}
