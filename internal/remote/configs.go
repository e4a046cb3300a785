package remote

import (
	"context"
	"strings"

	"github.com/lumera/portal/errs"
	"github.com/lumera/portal/internal/configurator"
)

type listConfigsRequest struct {
	UserID string `json:"userId"`
}

// List returns the saved fixture configurations belonging to userID.
func (c *Client) List(ctx context.Context, userID string) ([]configurator.SavedConfig, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errs.New("remote/configs", errs.CodeInvalid, errs.WithMessage("user id required"))
	}
	var configs []configurator.SavedConfig
	if err := c.doJSON(ctx, "remote/configs", "POST", c.cfg.ConfigsURL+"/list", listConfigsRequest{UserID: userID}, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// Save stores a fixture configuration remotely and returns the saved record.
func (c *Client) Save(ctx context.Context, cfg configurator.SavedConfig) (configurator.SavedConfig, error) {
	if strings.TrimSpace(cfg.UserID) == "" {
		return configurator.SavedConfig{}, errs.New("remote/configs", errs.CodeInvalid, errs.WithMessage("user id required"))
	}
	var saved configurator.SavedConfig
	if err := c.doJSON(ctx, "remote/configs", "POST", c.cfg.ConfigsURL, cfg, &saved); err != nil {
		return configurator.SavedConfig{}, err
	}
	return saved, nil
}

// Delete removes the saved configuration with the given id.
func (c *Client) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errs.New("remote/configs", errs.CodeInvalid, errs.WithMessage("config id required"))
	}
	return c.doJSON(ctx, "remote/configs", "DELETE", c.cfg.ConfigsURL+"/"+id, nil, nil)
}
