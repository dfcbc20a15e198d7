package checkoutadyen

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/MarcGrol/adyencheckout/lib/mycontext"
	"github.com/MarcGrol/adyencheckout/lib/myerrors"
	"github.com/MarcGrol/adyencheckout/lib/myhttp"
	"github.com/MarcGrol/adyencheckout/lib/myhttpclient"
	"github.com/MarcGrol/adyencheckout/lib/mylog"
)

const (
	missingURLMsg       = "URL parameter is required"
	fetchFailedMsg      = "Failed to fetch resource from Adyen"
	defaultContentType  = "application/octet-stream"
	jsonContentType     = "application/json"
	apiKeyHeader        = "X-API-Key"
	maxProxyRequestBody = 1 << 20
)

// resourceProxy forwards browser requests to provider-hosted URLs. The target is taken
// verbatim from the url query parameter; its origin is not checked.
type resourceProxy struct {
	sender myhttpclient.HTTPSender
	apiKey string
	logger mylog.Logger
}

func newResourceProxy(sender myhttpclient.HTTPSender, apiKey string, logger mylog.Logger) *resourceProxy {
	return &resourceProxy{
		sender: sender,
		apiKey: apiKey,
		logger: logger,
	}
}

// fetch loads a resource without authentication
func (p *resourceProxy) fetch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(p.logger)

		targetURL := r.URL.Query().Get("url")
		if targetURL == "" {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(errors.New(missingURLMsg)))
			return
		}

		resp, err := p.sender.Send(c, myhttpclient.Request{
			Method: http.MethodGet,
			URL:    targetURL,
		})
		if err != nil {
			errorWriter.WriteError(c, w, 2, myerrors.NewInternalError(fmt.Errorf("error proxying Adyen resource: %s", err)))
			return
		}

		if !resp.IsSuccess() {
			errorWriter.Write(c, w, resp.StatusCode, myhttp.ErrorResponse{Error: fetchFailedMsg})
			return
		}

		contentType := resp.ContentType
		if contentType == "" {
			contentType = defaultContentType
		}

		if strings.Contains(contentType, jsonContentType) {
			body, err := compactJSON(resp.Body)
			if err != nil {
				errorWriter.WriteError(c, w, 3, myerrors.NewInternalError(fmt.Errorf("error parsing json resource %s: %s", targetURL, err)))
				return
			}
			errorWriter.WriteRaw(c, w, http.StatusOK, jsonContentType, body)
			return
		}

		// Fonts and images must arrive byte-for-byte
		myhttp.SetPermissiveCORS(w)
		errorWriter.WriteRaw(c, w, resp.StatusCode, contentType, resp.Body)
	}
}

// forward posts a json body to the target with the api-key added
func (p *resourceProxy) forward() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(p.logger)

		targetURL := r.URL.Query().Get("url")
		if targetURL == "" {
			errorWriter.WriteError(c, w, 11, myerrors.NewInvalidInputError(errors.New(missingURLMsg)))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxProxyRequestBody))
		if err != nil {
			maxBytesErr := &http.MaxBytesError{}
			if errors.As(err, &maxBytesErr) {
				errorWriter.WriteError(c, w, 16, myerrors.NewRequestTooLargeError(fmt.Errorf("request body exceeds %d bytes", maxBytesErr.Limit)))
				return
			}
			errorWriter.WriteError(c, w, 12, myerrors.NewInternalError(fmt.Errorf("error reading request body: %s", err)))
			return
		}

		body, err := compactJSON(payload)
		if err != nil {
			errorWriter.WriteError(c, w, 13, myerrors.NewInternalError(fmt.Errorf("error parsing request body: %s", err)))
			return
		}

		resp, err := p.sender.Send(c, myhttpclient.Request{
			Method: http.MethodPost,
			URL:    targetURL,
			Headers: map[string]string{
				"Content-Type": jsonContentType,
				apiKeyHeader:   p.apiKey,
			},
			Body: body,
		})
		if err != nil {
			errorWriter.WriteError(c, w, 14, myerrors.NewInternalError(fmt.Errorf("error proxying Adyen API call: %s", err)))
			return
		}

		// Error bodies are relayed verbatim but must still be json
		respBody, err := compactJSON(resp.Body)
		if err != nil {
			errorWriter.WriteError(c, w, 15, myerrors.NewInternalError(fmt.Errorf("error parsing response of %s (status %d): %s", targetURL, resp.StatusCode, err)))
			return
		}

		status := http.StatusOK
		if !resp.IsSuccess() {
			status = resp.StatusCode
		}

		myhttp.SetPermissiveCORS(w)
		errorWriter.WriteRaw(c, w, status, jsonContentType, respBody)
	}
}

// preflight answers the browser's cross-origin negotiation
func (p *resourceProxy) preflight() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		myhttp.SetPermissiveCORS(w)
		w.WriteHeader(http.StatusOK)
	}
}

func compactJSON(data []byte) ([]byte, error) {
	buf := bytes.Buffer{}
	err := json.Compact(&buf, data)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
