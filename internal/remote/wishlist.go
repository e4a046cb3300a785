package remote

import "context"

type wishlistPayload struct {
	Wishlist []string `json:"wishlist"`
}

// Fetch returns the authoritative server-side wishlist. The result is
// provisional: it has not yet been checked against the valid universe.
func (c *Client) Fetch(ctx context.Context) ([]string, error) {
	var payload wishlistPayload
	if err := c.doJSON(ctx, "remote/wishlist", "GET", c.cfg.WishlistURL, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Wishlist, nil
}

// Push replaces the server-side wishlist wholesale. There are no merge
// semantics; callers must send the full desired list.
func (c *Client) Push(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return c.doJSON(ctx, "remote/wishlist", "POST", c.cfg.WishlistURL, wishlistPayload{Wishlist: ids}, nil)
}
