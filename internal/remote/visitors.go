package remote

import (
	"context"
	"net/url"
	"strconv"

	"github.com/lumera/portal/errs"
	"github.com/lumera/portal/internal/analytics"
	"github.com/lumera/portal/internal/domain/sessionstore"
)

// FetchSessions retrieves visitor-session records from the visitor-log
// endpoint, applying the query's filters as URL parameters.
func (c *Client) FetchSessions(ctx context.Context, query sessionstore.Query) ([]analytics.VisitorSession, error) {
	endpoint, err := url.Parse(c.cfg.VisitorsURL)
	if err != nil {
		return nil, errs.New("remote/visitors", errs.CodeInvalid, errs.WithMessage("bad endpoint url"), errs.WithCause(err))
	}
	params := endpoint.Query()
	if !query.StartDate.IsZero() {
		params.Set("startDate", query.StartDate.Format("2006-01-02"))
	}
	if query.HasCustomerID != nil {
		params.Set("hasCustomerId", strconv.FormatBool(*query.HasCustomerID))
	}
	if query.Consent != nil {
		params.Set("consent", strconv.FormatBool(*query.Consent))
	}
	endpoint.RawQuery = params.Encode()

	var sessions []analytics.VisitorSession
	if err := c.doJSON(ctx, "remote/visitors", "GET", endpoint.String(), nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}
