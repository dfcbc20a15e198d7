package myerrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type httpErrorCoder interface {
	error
	GetHTTPErrorCode() int
}

type httpError struct {
	httpCode int
	err      error
}

func (e httpError) Error() string {
	return fmt.Sprintf("status: %d, err: %s", e.httpCode, e.err.Error())
}

func (e httpError) Unwrap() error {
	return e.err
}

func (e httpError) GetHTTPErrorCode() int {
	return e.httpCode
}

func newError(httpCode int, err error) *httpError {
	return &httpError{
		httpCode: httpCode,
		err:      err,
	}
}

func NewInvalidInputError(err error) *httpError {
	return newError(http.StatusBadRequest, err)
}

func NewInvalidInputErrorf(format string, args ...interface{}) *httpError {
	return NewInvalidInputError(fmt.Errorf(format, args...))
}

func NewUnsupportedMediaTypeError(err error) *httpError {
	return newError(http.StatusUnsupportedMediaType, err)
}

func NewRequestTooLargeError(err error) *httpError {
	return newError(http.StatusRequestEntityTooLarge, err)
}

func NewNotFoundError(err error) *httpError {
	return newError(http.StatusNotFound, err)
}

func NewAuthenticationError(err error) *httpError {
	return newError(http.StatusForbidden, err)
}

func NewTooManyRequestsError(err error) *httpError {
	return newError(http.StatusTooManyRequests, err)
}

func NewInternalError(err error) *httpError {
	return newError(http.StatusInternalServerError, err)
}

func NewNotImplementedError(err error) *httpError {
	return newError(http.StatusNotImplemented, err)
}

func NewUnavailableError(err error) *httpError {
	return newError(http.StatusServiceUnavailable, err)
}

// ProviderError is a rejection by the payment provider that must be relayed
// to the caller with the provider's own status code and parsed error body.
type ProviderError struct {
	httpCode int
	message  string
	details  json.RawMessage
}

func NewProviderError(httpCode int, message string, details []byte) *ProviderError {
	return &ProviderError{
		httpCode: httpCode,
		message:  message,
		details:  json.RawMessage(details),
	}
}

func (e ProviderError) Error() string {
	return fmt.Sprintf("status: %d, provider: %s: %s", e.httpCode, e.message, string(e.details))
}

func (e ProviderError) GetHTTPErrorCode() int {
	return e.httpCode
}

func (e ProviderError) Message() string {
	return e.message
}

func (e ProviderError) Details() json.RawMessage {
	return e.details
}

func GetHTTPStatus(err error) int {
	if err != nil {
		var myError httpErrorCoder
		if errors.As(err, &myError) {
			return myError.GetHTTPErrorCode()
		}
	}
	return http.StatusInternalServerError
}

// GetMessage returns the message that is safe to show to the caller: the
// cause of a typed error without the status prefix.
func GetMessage(err error) string {
	if err == nil {
		return ""
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Message()
	}

	var myError *httpError
	if errors.As(err, &myError) {
		return myError.err.Error()
	}

	return err.Error()
}

// AsProviderError reports whether err carries a relayed provider rejection.
func AsProviderError(err error) (*ProviderError, bool) {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr, true
	}
	return nil, false
}
