// Package anymailfinder provides a client for the AnymailFinder person search API.
package anymailfinder

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.anymailfinder.com"

// Client finds email addresses for people at a domain.
type Client interface {
	FindPerson(ctx context.Context, req PersonRequest) (*PersonResponse, error)
}

// PersonRequest is the request body for POST /v5.0/search/person.json.
type PersonRequest struct {
	FullName string `json:"full_name"`
	Domain   string `json:"domain"`
}

// PersonResponse is the response from the person search endpoint.
type PersonResponse struct {
	Success bool          `json:"success"`
	Results PersonResults `json:"results"`
}

// PersonResults holds the located address.
type PersonResults struct {
	Email      string `json:"email"`
	Validation string `json:"validation,omitempty"`
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

// NewClient creates an AnymailFinder client.
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

func (c *httpClient) FindPerson(ctx context.Context, req PersonRequest) (*PersonResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "anymailfinder: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v5.0/search/person.json", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "anymailfinder: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "anymailfinder: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "anymailfinder: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Errorf("anymailfinder: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result PersonResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "anymailfinder: unmarshal response")
	}

	return &result, nil
}
