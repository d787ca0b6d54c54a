// Package scrapin provides a client for the Scrapin.io LinkedIn profile search API.
package scrapin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.scrapin.io"

// Client looks up LinkedIn profiles by person and company name.
type Client interface {
	SearchPerson(ctx context.Context, req PersonSearchRequest) (*PersonSearchResponse, error)
}

// PersonSearchRequest is the request body for POST /v1/search.
type PersonSearchRequest struct {
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name,omitempty"`
}

// PersonSearchResponse is the response from POST /v1/search.
type PersonSearchResponse struct {
	Success bool       `json:"success"`
	Data    SearchData `json:"data"`
}

// SearchData wraps the matched profile.
type SearchData struct {
	LinkedInProfile *Profile `json:"linkedInProfile"`
}

// Profile is the subset of a LinkedIn profile we consume.
type Profile struct {
	LinkedInURL string     `json:"linkedInUrl"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Headline    string     `json:"headline"`
	Positions   []Position `json:"positions"`
}

// Position is one entry of the profile's work history, most recent first.
type Position struct {
	Title       string `json:"title"`
	CompanyName string `json:"companyName"`
	CompanyURL  string `json:"companyWebsite,omitempty"`
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

// NewClient creates a Scrapin.io client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchPerson(ctx context.Context, req PersonSearchRequest) (*PersonSearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "scrapin: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/search", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "scrapin: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "scrapin: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "scrapin: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("scrapin: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result PersonSearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "scrapin: unmarshal response")
	}

	return &result, nil
}
