// Package httpclient configures the HTTP client used to call the WMTS service.
package httpclient

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pdok/wmtsclient/wmtserr"
)

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewOutbound creates an http client for the tile service. A zero timeout means no timeout.
func NewOutbound(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Get fetches url and returns the response body.
// Anything but a 200 response, and any failure to read it, is a *wmtserr.TransportError.
func Get(ctx context.Context, client Doer, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &wmtserr.TransportError{URL: url, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &wmtserr.TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &wmtserr.TransportError{URL: url, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &wmtserr.TransportError{URL: url, Err: err}
	}
	return body, nil
}
