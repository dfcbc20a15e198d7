package myhttp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/MarcGrol/adyencheckout/lib/myerrors"
	"github.com/MarcGrol/adyencheckout/lib/mylog"
)

const (
	internalErrorMessage = "Internal server error"
)

type ResponseWriter interface {
	WriteError(c context.Context, w http.ResponseWriter, errorCode int, err error)
	Write(c context.Context, w http.ResponseWriter, httpStatus int, resp interface{})
	WriteRaw(c context.Context, w http.ResponseWriter, httpStatus int, contentType string, body []byte)
}

type ErrorResponse struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

func NewWriter(logger mylog.Logger) ResponseWriter {
	return &responseWriter{
		logger: logger,
	}
}

type responseWriter struct {
	logger mylog.Logger
}

// WriteError converts err into the {error, details} shape. Causes of unexpected
// failures are logged but never written to the response.
func (rw responseWriter) WriteError(c context.Context, w http.ResponseWriter, errorCode int, err error) {
	httpStatus := myerrors.GetHTTPStatus(err)

	resp := ErrorResponse{}
	providerErr, isProviderErr := myerrors.AsProviderError(err)
	switch {
	case isProviderErr:
		resp.Error = providerErr.Message()
		resp.Details = providerErr.Details()
	case httpStatus >= http.StatusInternalServerError:
		resp.Error = internalErrorMessage
	default:
		resp.Error = myerrors.GetMessage(err)
	}

	severity := mylog.SeverityWarn
	if httpStatus >= http.StatusInternalServerError && !isProviderErr {
		severity = mylog.SeverityError
	}
	rw.logger.Log(c, "", severity, "Error response: http-status:%d, error-code:%d, error-msg:%s", httpStatus, errorCode, err)

	rw.write(c, w, httpStatus, resp)
}

func (rw responseWriter) Write(c context.Context, w http.ResponseWriter, httpStatus int, resp interface{}) {
	rw.logger.Log(c, "", mylog.SeverityInfo, "Success response: http-status:%d", httpStatus)
	rw.write(c, w, httpStatus, resp)
}

// WriteRaw relays an upstream body byte-for-byte.
func (rw responseWriter) WriteRaw(c context.Context, w http.ResponseWriter, httpStatus int, contentType string, body []byte) {
	rw.logger.Log(c, "", mylog.SeverityInfo, "Relay response: http-status:%d, content-type:%s, bytes:%d", httpStatus, contentType, len(body))

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(httpStatus)
	_, err := w.Write(body)
	if err != nil {
		rw.logger.Log(c, "", mylog.SeverityError, "Error writing relayed response: %s", err)
	}
}

func (rw responseWriter) write(c context.Context, w http.ResponseWriter, httpStatus int, resp interface{}) {
	body, err := json.Marshal(resp)
	if err != nil {
		rw.logger.Log(c, "", mylog.SeverityError, "Error encoding response: %s", err)
		httpStatus = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Error: internalErrorMessage})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_, err = w.Write(body)
	if err != nil {
		rw.logger.Log(c, "", mylog.SeverityError, "Error writing response: %s", err)
	}
}
