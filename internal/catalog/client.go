package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/sdkdesk/sdkdesk/internal/branding"
	"github.com/sdkdesk/sdkdesk/internal/config"
	"github.com/sdkdesk/sdkdesk/internal/sdk"
)

// ErrUnexpectedStatus is returned for non-2xx API responses.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// maxBody bounds listing responses.
const maxBody = 8 << 20

// Client calls the candidates API.
type Client struct {
	baseURL    string
	platform   string
	userAgent  string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithPlatform overrides the platform identifier sent to the API.
func WithPlatform(p string) ClientOption {
	return func(c *Client) {
		c.platform = p
	}
}

// NewClient creates a Client for the default endpoint and platform.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(branding.APIBaseURL(), "/"),
		platform:   Platform(),
		userAgent:  branding.UserAgent(),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HTTPClient builds the HTTP client shared by catalog calls and downloads
// from the download and proxy settings.
func HTTPClient(cfg *config.Config) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: cfg.Download.ConnectTimeout}).DialContext
	if u := cfg.Proxy.URL(); u != nil {
		transport.Proxy = http.ProxyURL(u)
	}
	return &http.Client{Transport: transport, Timeout: cfg.Download.Timeout}
}

// CandidatesURL returns the candidate listing endpoint.
func (c *Client) CandidatesURL() string {
	return c.baseURL + "/candidates/list"
}

// VersionsURL returns the version listing endpoint for candidate. The
// installed and current parameters let the API mark local versions.
func (c *Client) VersionsURL(candidate string, installed []string, current string) string {
	q := url.Values{}
	q.Set("installed", strings.Join(installed, ","))
	q.Set("current", current)
	return fmt.Sprintf("%s/candidates/%s/%s/versions/list?%s",
		c.baseURL, url.PathEscape(candidate), c.platform, q.Encode())
}

// DownloadURL returns the broker URL serving the archive of candidate/version.
func (c *Client) DownloadURL(candidate, version string) string {
	return fmt.Sprintf("%s/broker/download/%s/%s/%s",
		c.baseURL, url.PathEscape(candidate), url.PathEscape(version), c.platform)
}

// UserAgent returns the User-Agent header value.
func (c *Client) UserAgent() string { return c.userAgent }

// HTTP returns the underlying HTTP client.
func (c *Client) HTTP() *http.Client { return c.httpClient }

// FetchCandidates downloads and parses the candidate listing.
func (c *Client) FetchCandidates(ctx context.Context) ([]sdk.Candidate, error) {
	body, err := c.get(ctx, c.CandidatesURL())
	if err != nil {
		return nil, fmt.Errorf("fetching candidates: %w", err)
	}
	return ParseCandidates(body), nil
}

// FetchVersions downloads and parses the version listing of candidate.
func (c *Client) FetchVersions(ctx context.Context, candidate string, installed []string, current string) ([]sdk.Version, error) {
	body, err := c.get(ctx, c.VersionsURL(candidate, installed, current))
	if err != nil {
		return nil, fmt.Errorf("fetching versions for %s: %w", candidate, err)
	}
	return ParseVersions(body, candidate), nil
}

func (c *Client) get(ctx context.Context, u string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return string(data), nil
}
