package myhttpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	debug = false
)

type httpClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration, metrics *Metrics) *httpClient {
	return &httpClient{
		client: NewClient(timeout, metrics),
	}
}

// NewClient returns a plain *http.Client for libraries that do their own request handling.
// Calls made with it are traced and counted like those of the sender.
func NewClient(timeout time.Duration, metrics *Metrics) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(&metricsTransport{
			next:    http.DefaultTransport,
			metrics: metrics,
		}),
	}
}

type metricsTransport struct {
	next    http.RoundTripper
	metrics *Metrics
}

func (t *metricsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.metrics.observe(req.Method, "error", time.Since(start))
		return nil, err
	}
	t.metrics.observe(req.Method, strconv.Itoa(resp.StatusCode), time.Since(start))
	return resp, nil
}

func (c httpClient) Send(ctx context.Context, req Request) (Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return Response{}, fmt.Errorf("error creating http request for %s %s: %s", req.Method, req.URL, err)
	}

	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}

	if debug {
		reqDump, err := httputil.DumpRequestOut(httpReq, true)
		if err == nil {
			fmt.Printf("HTTP-req:\n%s", string(reqDump))
		}
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("error sending %s %s: %s", req.Method, req.URL, err)
	}
	defer httpResp.Body.Close()

	if debug {
		respDump, err := httputil.DumpResponse(httpResp, true)
		if err == nil {
			fmt.Printf("HTTP-resp:\n%s", string(respDump))
		}
	}

	respPayload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("error reading response %s %s: %s", req.Method, req.URL, err)
	}

	return Response{
		StatusCode:  httpResp.StatusCode,
		ContentType: httpResp.Header.Get("Content-Type"),
		Body:        respPayload,
	}, nil
}
