package checkoutadyen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/adyen/adyen-go-api-library/v6/src/adyen"
	"github.com/adyen/adyen-go-api-library/v6/src/checkout"
	"github.com/adyen/adyen-go-api-library/v6/src/common"

	"github.com/MarcGrol/adyencheckout/lib/myhttpclient"
)

const (
	checkoutAPIVersion = "v70"
)

//go:generate mockgen -source=payer.go -package checkoutadyen -destination payer_mock.go Payer
type Payer interface {
	Sessions(c context.Context, req SessionRequest) (myhttpclient.Response, error)
	PaymentDetails(c context.Context, req checkout.DetailsRequest) (myhttpclient.Response, error)
	SessionResult(c context.Context, sessionID string) (myhttpclient.Response, error)
}

type PayerConfig struct {
	// Environment is "test" or "live".
	Environment   string
	LiveURLPrefix string
	// BaseURL overrides the endpoint derived from the environment. It includes the version.
	BaseURL       string
	APIKey        string
	HTTPClient    *http.Client
}

type adyenPayer struct {
	client *adyen.APIClient
}

// NewPayer returns a Payer on top of the Adyen API client. The client selects the checkout
// endpoint for the environment and signs every call with the api-key.
func NewPayer(cfg PayerConfig) Payer {
	client := adyen.NewClient(&common.Config{
		ApiKey:                cfg.APIKey,
		Environment:           common.Environment(strings.ToUpper(cfg.Environment)),
		LiveEndpointURLPrefix: cfg.LiveURLPrefix,
		HTTPClient:            cfg.HTTPClient,
	})

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = client.GetConfig().CheckoutEndpoint + "/" + checkoutAPIVersion
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	client.Checkout.BasePath = func() string {
		return baseURL
	}

	return &adyenPayer{
		client: client,
	}
}

// The typed Sessions and PaymentsDetails calls decode into structs; the browser needs the
// provider body as it was sent, so the calls go through the raw request methods.

func (p *adyenPayer) Sessions(c context.Context, req SessionRequest) (myhttpclient.Response, error) {
	path := p.client.Checkout.BasePath() + "/sessions"
	var body json.RawMessage
	httpResp, err := p.client.Checkout.Client.MakeHTTPPostRequest(&req, &body, path, c)
	return toResponse(path, body, httpResp, err)
}

func (p *adyenPayer) PaymentDetails(c context.Context, req checkout.DetailsRequest) (myhttpclient.Response, error) {
	path := p.client.Checkout.BasePath() + "/payments/details"
	var body json.RawMessage
	httpResp, err := p.client.Checkout.Client.MakeHTTPPostRequest(&req, &body, path, c)
	return toResponse(path, body, httpResp, err)
}

func (p *adyenPayer) SessionResult(c context.Context, sessionID string) (myhttpclient.Response, error) {
	path := p.client.Checkout.BasePath() + "/sessions/" + url.PathEscape(sessionID)
	var body json.RawMessage
	httpResp, err := p.client.Checkout.Client.MakeHTTPGetRequest(&body, path, c)
	return toResponse(path, body, httpResp, err)
}

// toResponse turns the outcome of a client call into the provider's answer. A rejection or
// an undecodable body is an answer too: the client hands back the raw body in an APIError.
func toResponse(path string, body json.RawMessage, httpResp *http.Response, err error) (myhttpclient.Response, error) {
	if err != nil {
		apiErr := common.APIError{}
		if httpResp == nil || !errors.As(err, &apiErr) {
			return myhttpclient.Response{}, fmt.Errorf("error calling %s: %s", path, err)
		}
		body = apiErr.RawBody
	}

	return myhttpclient.Response{
		StatusCode:  httpResp.StatusCode,
		ContentType: httpResp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
