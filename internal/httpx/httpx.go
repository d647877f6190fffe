package httpx

import (
	"net"
	"net/http"
	"time"
)

// Client carries the outbound *http.Client shared by the provider SDKs.
// The SDKs call HTTP.Do themselves, so UserAgent and Headers are applied in
// the transport rather than by a wrapper method.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	Headers   map[string]string
}

func New(timeout time.Duration) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
	}
	c := &Client{UserAgent: "marketprobe/1.0"}
	c.HTTP = &http.Client{Timeout: timeout, Transport: &headerTransport{base: transport, client: c}}
	return c
}

type headerTransport struct {
	base   http.RoundTripper
	client *Client
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())
	if t.client.UserAgent != "" && r.Header.Get("User-Agent") == "" {
		r.Header.Set("User-Agent", t.client.UserAgent)
	}
	for k, v := range t.client.Headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(r)
}
