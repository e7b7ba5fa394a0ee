// Package jobsapi talks to the backend that recommends job sites for a
// region or a position.
package jobsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"resty.dev/v3"

	"relocation/internal/models"
	"relocation/pkg/location"
)

const userAgent = "relocation-jobsites/1.0"

// Client posts lookups to the backend. It performs no retries.
type Client struct {
	http     *resty.Client
	language string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithLanguage sends the UI language along with each lookup.
func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

// NewClient returns a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("User-Agent", userAgent),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

// Fetch asks the backend for the sites matching sig. Every failure wraps one
// of ErrTransport, ErrServer, ErrMalformed or ErrEmpty.
func (c *Client) Fetch(ctx context.Context, sig location.Signal) (*Response, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(NewRequest(sig, c.language)).
		SetDoNotParseResponse(true).
		Post(Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	body := resp.RawResponse.Body
	defer body.Close()

	if code := resp.StatusCode(); code < http.StatusOK || code >= http.StatusMultipleChoices {
		return nil, &StatusError{StatusCode: code, Status: resp.Status()}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	return Decode(data)
}

// Decode validates a backend payload.
func Decode(data []byte) (*Response, error) {
	var wire wireResponse
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if wire.Sites.missing() {
		return nil, fmt.Errorf("%w: sites field missing", ErrMalformed)
	}

	var sites []models.Site
	if err := json.Unmarshal(wire.Sites, &sites); err != nil {
		return nil, fmt.Errorf("%w: sites is not a list of entries: %v", ErrMalformed, err)
	}
	if len(sites) == 0 {
		return nil, ErrEmpty
	}

	region := wire.RegionCode
	if region == "" {
		region = wire.CountryCode
	}
	return &Response{
		Sites:      sites,
		RegionCode: region,
		RegionName: wire.CountryName,
		City:       wire.City,
	}, nil
}

// rawJSON is json.RawMessage that remembers an explicit null as missing.
type rawJSON []byte

func (r *rawJSON) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

func (r rawJSON) missing() bool {
	return len(r) == 0 || bytes.Equal(bytes.TrimSpace(r), []byte("null"))
}
