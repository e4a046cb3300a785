// Package remote implements the HTTP clients for the portal's upstream
// commerce endpoints: the wishlist, the saved-configuration list, the
// visitor log, and the product assignment catalog.
//
// Failures are mapped onto the errs taxonomy at the call site: transport
// errors are CodeNetwork, non-2xx responses CodeUnavailable, malformed
// payloads CodeDecode. No client retries implicitly; a failed call waits
// for its next natural trigger.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/lumera/portal/errs"
)

const defaultTimeout = 10 * time.Second

// Config carries the upstream endpoint URLs.
type Config struct {
	WishlistURL string        `yaml:"wishlist_url"`
	ConfigsURL  string        `yaml:"configs_url"`
	VisitorsURL string        `yaml:"visitors_url"`
	CatalogURL  string        `yaml:"catalog_url"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Client talks to the upstream endpoints using a shared HTTP client.
type Client struct {
	http *http.Client
	cfg  Config
}

// NewClient constructs a Client from the endpoint configuration.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
		cfg:  cfg,
	}
}

// doJSON issues the request and decodes the response body into out when it
// is non-nil. The request body, when present, is encoded as JSON.
func (c *Client) doJSON(ctx context.Context, scope, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errs.New(scope, errs.CodeInvalid, errs.WithMessage("encode request"), errs.WithCause(err))
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return errs.New(scope, errs.CodeInvalid, errs.WithMessage("build request"), errs.WithCause(err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.New(scope, errs.CodeNetwork, errs.WithMessage("request failed"), errs.WithCause(err))
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errs.New(scope, errs.CodeUnavailable,
			errs.WithHTTP(resp.StatusCode),
			errs.WithMessage(fmt.Sprintf("unexpected status %d", resp.StatusCode)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.New(scope, errs.CodeDecode, errs.WithMessage("decode response"), errs.WithCause(err))
	}
	return nil
}
