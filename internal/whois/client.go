package whois

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the WHOIS XML API endpoint.
const DefaultBaseURL = "https://www.whoisxmlapi.com/whoisserver/WhoisService"

// Checker reports whether a single domain looks registrable. A returned
// error means the verdict is unknown, not that the domain is taken.
type Checker interface {
	Check(ctx context.Context, domain string) (bool, error)
}

// Client queries the WHOIS XML API. A domain is considered available when
// the registry has no WHOIS record for it (dataError MISSING_WHOIS_DATA).
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient builds a WHOIS client for the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type whoisResponse struct {
	WhoisRecord *struct {
		DataError string `json:"dataError"`
	} `json:"WhoisRecord"`
}

// Check looks the domain up and returns true when it appears registrable.
func (c *Client) Check(ctx context.Context, domain string) (bool, error) {
	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("domainName", domain)
	q.Set("outputFormat", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("whois lookup %s: %w", domain, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("whois lookup %s: unexpected status %d", domain, resp.StatusCode)
	}

	var body whoisResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("whois lookup %s: decode: %w", domain, err)
	}

	return body.WhoisRecord != nil && body.WhoisRecord.DataError == "MISSING_WHOIS_DATA", nil
}
