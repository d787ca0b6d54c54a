// Package scrapeowl provides a client for the ScrapeOwl element scraping API.
package scrapeowl

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.scrapeowl.com"

// Client scrapes selected elements from a page.
type Client interface {
	Scrape(ctx context.Context, req ScrapeRequest) (*ScrapeResponse, error)
}

// Element selects nodes on the scraped page.
type Element struct {
	Type     string `json:"type"`
	Selector string `json:"selector"`
}

// CSS returns a css-selector element.
func CSS(selector string) Element {
	return Element{Type: "css", Selector: selector}
}

// ScrapeRequest is the request body for POST /v1/scrape. The API key is
// injected by the client.
type ScrapeRequest struct {
	APIKey   string    `json:"api_key"`
	URL      string    `json:"url"`
	Elements []Element `json:"elements"`
}

// ScrapeResponse is the response from POST /v1/scrape.
type ScrapeResponse struct {
	Status int             `json:"status"`
	Data   []ElementResult `json:"data"`
}

// ElementResult holds the matches for one requested element.
type ElementResult struct {
	Type     string       `json:"type"`
	Selector string       `json:"selector"`
	Results  []TextResult `json:"results"`
}

// TextResult is a single matched node.
type TextResult struct {
	Text string `json:"text"`
	HTML string `json:"html,omitempty"`
}

// Texts flattens every matched node's text in response order.
func (r *ScrapeResponse) Texts() []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, d := range r.Data {
		for _, res := range d.Results {
			out = append(out, res.Text)
		}
	}
	return out
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a ScrapeOwl client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Scrape(ctx context.Context, req ScrapeRequest) (*ScrapeResponse, error) {
	req.APIKey = c.apiKey

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "scrapeowl: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "scrapeowl: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "scrapeowl: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "scrapeowl: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("scrapeowl: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result ScrapeResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "scrapeowl: unmarshal response")
	}

	return &result, nil
}
