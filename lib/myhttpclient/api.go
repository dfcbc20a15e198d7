package myhttpclient

import (
	"context"
	"time"
)

type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

func (r Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

//go:generate mockgen -source=api.go -package myhttpclient -destination http_sender_mock.go HTTPSender
type HTTPSender interface {
	Send(c context.Context, req Request) (Response, error)
}

// New returns a sender that performs exactly one attempt per call. A zero timeout
// leaves the call bounded only by the transport defaults.
func New(timeout time.Duration, metrics *Metrics) HTTPSender {
	return newHTTPClient(timeout, metrics)
}
