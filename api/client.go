package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ka2n/sitelens/api/site"
	"github.com/ka2n/sitelens/log"
	"github.com/morikuni/failure/v2"
)

const (
	// DefaultEndpoint is the upstream site-ranking API
	DefaultEndpoint = "http://data.alexa.com/data"
	// DefaultLimit is the result-count limit sent with every request
	DefaultLimit = 10
)

// Client fetches records for a domain through the relay endpoint.
// Endpoint may also point at the upstream API directly, since the relay
// forwards the query string unchanged.
type Client struct {
	Endpoint   string
	Limit      int
	HTTPClient *http.Client
}

// NewClient creates a client for the given endpoint and result-count limit
func NewClient(endpoint string, limit int) *Client {
	return &Client{
		Endpoint: endpoint,
		Limit:    limit,
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) limit() int {
	if c.Limit <= 0 {
		return DefaultLimit
	}
	return c.Limit
}

// Fetch issues a GET for the domain in the given mode and returns the raw body.
// Non-success statuses are returned as ErrUpstreamStatus.
func (c *Client) Fetch(ctx context.Context, mode site.Mode, domain string) ([]byte, error) {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return nil, failure.Wrap(err, failure.WithCode(ErrRelayUnavailable),
			failure.Message("Invalid relay endpoint"),
			failure.Context{"endpoint": c.Endpoint})
	}
	q := u.Query()
	q.Set("dat", mode.String())
	q.Set("cli", strconv.Itoa(c.limit()))
	q.Set("url", domain)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, failure.Wrap(err, failure.WithCode(ErrRelayUnavailable))
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, failure.Wrap(err, failure.WithCode(ErrRelayUnavailable),
			failure.Message("Failed to reach the relay"),
			failure.Context{"mode": mode.String(), "domain": domain},
		)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failure.Wrap(err, failure.WithCode(ErrRelayUnavailable),
			failure.Message("Failed to read the relay response"),
			failure.Context{"mode": mode.String(), "domain": domain},
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, failure.New(ErrUpstreamStatus,
			failure.Message("Site data service returned "+resp.Status),
			failure.Context{
				"mode":   mode.String(),
				"domain": domain,
				"status": strconv.Itoa(resp.StatusCode),
			},
		)
	}

	log.Debug("Fetched records", "mode", mode, "domain", domain, "bytes", len(body))
	return body, nil
}

// FetchSiteData fetches and parses the site data records for the domain
func (c *Client) FetchSiteData(ctx context.Context, domain string) ([]site.DataEntry, error) {
	body, err := c.Fetch(ctx, site.ModeSiteData, domain)
	if err != nil {
		return nil, err
	}
	return ParseSiteData(body)
}

// FetchRelatedLinks fetches and parses the related link records for the domain
func (c *Client) FetchRelatedLinks(ctx context.Context, domain string) ([]site.RelatedLink, error) {
	body, err := c.Fetch(ctx, site.ModeRelatedLinks, domain)
	if err != nil {
		return nil, err
	}
	return ParseRelatedLinks(body)
}
