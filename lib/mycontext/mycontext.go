package mycontext

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
)

// CtxTraceContext is a context key for the cloud trace (used by mylog)
type CtxTraceContext struct{}

// CtxRequestID is a context key for the per-request correlation id
type CtxRequestID struct{}

// ContextFromHTTPRequest derives a fresh context for a request. It is not derived from the
// request context, so outbound calls are not cancelled when the client disconnects.
func ContextFromHTTPRequest(r *http.Request) context.Context {
	var trace string

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	traceContext := r.Header.Get("X-Cloud-Trace-Context")
	traceParts := strings.Split(traceContext, "/")

	if len(traceParts) > 0 && len(traceParts[0]) > 0 {
		trace = fmt.Sprintf("projects/%s/traces/%s", projectID, traceParts[0])
	}

	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.New().String()
	}

	ctx := context.WithValue(context.Background(), CtxTraceContext{}, trace)
	ctx = context.WithValue(ctx, CtxRequestID{}, requestID)

	return ctx
}

func TraceFromContext(c context.Context) string {
	trace, _ := c.Value(CtxTraceContext{}).(string)
	return trace
}

func RequestIDFromContext(c context.Context) string {
	requestID, _ := c.Value(CtxRequestID{}).(string)
	return requestID
}
