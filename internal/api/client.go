package api

import (
	"fmt"
	"time"

	"loan-agent/internal/storage"

	"github.com/go-resty/resty/v2"
)

// Client talks to a running agent API. It is used by the generator's remote
// mode and by external tooling.
type Client struct {
	base string
	rest *resty.Client
}

// NewClient builds a client for the given base URL, e.g. "http://localhost:8080".
func NewClient(baseURL string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	return &Client{base: baseURL, rest: r}
}

// SubmitApplication posts a new application and returns its assigned ID.
func (c *Client) SubmitApplication(req SubmitRequest) (string, error) {
	resp := &SubmitResponse{}
	httpResp, err := c.rest.R().
		SetBody(req).
		SetResult(resp).
		Post(c.base + "/applications")
	if err != nil {
		return "", err
	}
	if httpResp.IsError() {
		return "", fmt.Errorf("api: submit failed: %s %s", httpResp.Status(), httpResp.String())
	}
	return resp.ID, nil
}

// GetApplication fetches an application and its latest decision.
func (c *Client) GetApplication(id string) (*ApplicationResponse, error) {
	resp := &ApplicationResponse{}
	httpResp, err := c.rest.R().
		SetResult(resp).
		Get(c.base + "/applications/" + id)
	if err != nil {
		return nil, err
	}
	if httpResp.IsError() {
		return nil, fmt.Errorf("api: get application %s: %s", id, httpResp.Status())
	}
	return resp, nil
}

// Summary fetches the dashboard aggregate counts.
func (c *Client) Summary() (*storage.Summary, error) {
	resp := &storage.Summary{}
	httpResp, err := c.rest.R().
		SetResult(resp).
		Get(c.base + "/summary")
	if err != nil {
		return nil, err
	}
	if httpResp.IsError() {
		return nil, fmt.Errorf("api: summary: %s", httpResp.Status())
	}
	return resp, nil
}
