// Package httpx is the shared resilient HTTP client every hosted backend
// (embedding, reranker, markdown-conversion) uses, adapted from the
// teacher's internal/clients/base package: same resty configuration,
// retry policy, and typed-error shape, generalized from a single
// *ClientError into the spec's §7 error taxonomy.
package httpx

import (
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hsn0918/ragctl/internal/errs"
)

// Default timeouts per spec §5: 5s connect, 600s read for embedding and
// reranker calls.
const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultReadTimeout    = 600 * time.Second
)

// Config parameterizes a Client the way the teacher's ServiceConfig did.
type Config struct {
	BaseURL string
	APIKey  string
}

// Client wraps a resty.Client with standardized timeout, auth header, and
// retry behavior, and translates failures into *errs.Error.
type Client struct {
	rc      *resty.Client
	service string
}

// New builds a Client for service against cfg, with the given read
// timeout (callers pass DefaultReadTimeout unless the backend's contract
// says otherwise).
func New(service string, cfg Config, readTimeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(readTimeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	if t, ok := rc.GetClient().Transport.(*http.Transport); ok {
		t.DialContext = (&net.Dialer{Timeout: DefaultConnectTimeout, KeepAlive: 30 * time.Second}).DialContext
	}

	if cfg.APIKey != "" {
		rc.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	rc.SetHeader("Content-Type", "application/json")

	rc.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || r.StatusCode() >= 500
	})

	return &Client{rc: rc, service: service}
}

// Post performs a POST request, decoding a 2xx JSON body into result.
func (c *Client) Post(endpoint string, body interface{}, result interface{}) error {
	resp, err := c.rc.R().SetBody(body).SetResult(result).Post(endpoint)
	if err != nil {
		return errs.New(errs.KindTransientNetwork, "POST "+endpoint, err)
	}
	if resp.IsError() {
		return classifyStatus(c.service, "POST "+endpoint, resp.StatusCode(), resp.String())
	}
	return nil
}

// Get performs a GET request with query parameters, decoding a 2xx JSON
// body into result.
func (c *Client) Get(endpoint string, params map[string]string, result interface{}) error {
	req := c.rc.R().SetResult(result)
	for k, v := range params {
		req.SetQueryParam(k, v)
	}
	resp, err := req.Get(endpoint)
	if err != nil {
		return errs.New(errs.KindTransientNetwork, "GET "+endpoint, err)
	}
	if resp.IsError() {
		return classifyStatus(c.service, "GET "+endpoint, resp.StatusCode(), resp.String())
	}
	return nil
}

func classifyStatus(service, op string, status int, body string) error {
	kind := errs.KindPermanentNetwork
	if status == 0 || status >= 500 {
		kind = errs.KindTransientNetwork
	}
	return errs.New(kind, service+" "+op, &statusError{status: status, body: body})
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return http.StatusText(e.status) + ": " + e.body
}
