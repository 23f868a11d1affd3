package cloudflare

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/imamik/k8stacks/internal/util/retry"
)

// DefaultBaseURL is the Cloudflare API v4 endpoint.
const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

// Client is a minimal Cloudflare API client.
type Client struct {
	apiToken   string
	baseURL    string
	httpClient *http.Client
	retryOpts  []retry.Option
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithRetry sets the retry policy for rate limited and server errors.
func WithRetry(opts ...retry.Option) Option {
	return func(c *Client) { c.retryOpts = opts }
}

// TokenStatus is the result of a token verification.
type TokenStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Active reports whether the token can be used.
func (s TokenStatus) Active() bool {
	return s.Status == "active"
}

// Zone is a Cloudflare zone.
type Zone struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Record represents a Cloudflare DNS record.
type Record struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type resultInfo struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
}

type apiResponse struct {
	Success    bool            `json:"success"`
	Errors     []apiError      `json:"errors"`
	Result     json.RawMessage `json:"result"`
	ResultInfo *resultInfo     `json:"result_info,omitempty"`
}

// APIError is returned for unsuccessful API responses.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("cloudflare API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("cloudflare API error (status %d): %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

// NewClient creates a new Cloudflare API client.
func NewClient(apiToken string, opts ...Option) *Client {
	c := &Client{
		apiToken:   apiToken,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VerifyToken checks the token against the API.
func (c *Client) VerifyToken(ctx context.Context) (*TokenStatus, error) {
	var status TokenStatus
	if _, err := c.get(ctx, "/user/tokens/verify", &status); err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	return &status, nil
}

// GetZone returns the zone with the given ID.
func (c *Client) GetZone(ctx context.Context, zoneID string) (*Zone, error) {
	var zone Zone
	if _, err := c.get(ctx, "/zones/"+url.PathEscape(zoneID), &zone); err != nil {
		return nil, fmt.Errorf("failed to get zone %s: %w", zoneID, err)
	}
	return &zone, nil
}

// GetZoneID returns the zone ID for the given domain.
func (c *Client) GetZoneID(ctx context.Context, domain string) (string, error) {
	var zones []Zone
	if _, err := c.get(ctx, "/zones?name="+url.QueryEscape(domain), &zones); err != nil {
		return "", fmt.Errorf("failed to look up zone for %s: %w", domain, err)
	}
	if len(zones) == 0 {
		return "", fmt.Errorf("no zone found for domain %s", domain)
	}
	return zones[0].ID, nil
}

// ListDNSRecords returns all DNS records in the zone.
func (c *Client) ListDNSRecords(ctx context.Context, zoneID string) ([]Record, error) {
	var all []Record
	for page := 1; ; page++ {
		var records []Record
		path := fmt.Sprintf("/zones/%s/dns_records?per_page=100&page=%d", url.PathEscape(zoneID), page)
		info, err := c.get(ctx, path, &records)
		if err != nil {
			return nil, fmt.Errorf("failed to list DNS records page %d: %w", page, err)
		}
		all = append(all, records...)

		if info == nil || page >= info.TotalPages {
			return all, nil
		}
	}
}

// DeleteDNSRecord deletes a DNS record by ID.
func (c *Client) DeleteDNSRecord(ctx context.Context, zoneID, recordID string) error {
	path := fmt.Sprintf("/zones/%s/dns_records/%s", url.PathEscape(zoneID), url.PathEscape(recordID))
	if _, err := c.call(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("failed to delete DNS record %s: %w", recordID, err)
	}
	return nil
}

// CleanupOwnerRecords deletes the records external-dns created for ownerID,
// together with their TXT ownership markers. It returns the number of
// records deleted.
func (c *Client) CleanupOwnerRecords(ctx context.Context, zoneID, ownerID string) (int, error) {
	records, err := c.ListDNSRecords(ctx, zoneID)
	if err != nil {
		return 0, err
	}

	marker := "external-dns/owner=" + ownerID + ","
	owned := make(map[string]bool)
	var toDelete []Record

	for _, r := range records {
		if r.Type != "TXT" {
			continue
		}
		content := strings.Trim(r.Content, `"`) + ","
		if !strings.Contains(content, marker) {
			continue
		}
		toDelete = append(toDelete, r)

		// TXT registry names carry the record type as prefix: a-, aaaa-, cname-.
		for _, prefix := range []string{"a-", "aaaa-", "cname-"} {
			if name, ok := strings.CutPrefix(r.Name, prefix); ok {
				owned[name] = true
				break
			}
		}
	}

	for _, r := range records {
		switch r.Type {
		case "A", "AAAA", "CNAME":
			if owned[r.Name] {
				toDelete = append(toDelete, r)
			}
		}
	}

	deleted := 0
	for _, r := range toDelete {
		if err := c.DeleteDNSRecord(ctx, zoneID, r.ID); err != nil {
			return deleted, fmt.Errorf("%s %s: %w", r.Type, r.Name, err)
		}
		deleted++
	}
	return deleted, nil
}

func (c *Client) get(ctx context.Context, path string, out any) (*resultInfo, error) {
	resp, err := c.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if out != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return nil, fmt.Errorf("failed to parse result: %w", err)
		}
	}
	return resp.ResultInfo, nil
}

// call performs one API request, retrying rate limited and server errors.
func (c *Client) call(ctx context.Context, method, path string, body io.Reader) (*apiResponse, error) {
	var out *apiResponse
	err := retry.WithExponentialBackoff(ctx, func() error {
		resp, err := c.do(ctx, method, path, body)
		if err != nil {
			return err
		}
		out = resp
		return nil
	}, c.retryOpts...)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, retry.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed apiResponse
	parseErr := json.Unmarshal(data, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || parseErr != nil || !parsed.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		for _, e := range parsed.Errors {
			apiErr.Messages = append(apiErr.Messages, fmt.Sprintf("%d: %s", e.Code, e.Message))
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, apiErr
		}
		return nil, retry.Fatal(apiErr)
	}
	return &parsed, nil
}
