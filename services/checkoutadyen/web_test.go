package checkoutadyen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/adyen/adyen-go-api-library/v6/src/checkout"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/adyencheckout/lib/myhttpclient"
	"github.com/MarcGrol/adyencheckout/lib/mytime"
)

const (
	sessionRespBody = `{"amount":{"currency":"EUR","value":1000},"expiresAt":"2023-02-28T00:58:59+01:00","id":"CS451F2AB1ED897A94","merchantAccount":"MyMerchantAccount","reference":"order-1","returnUrl":"http://localhost:8888/checkout/result","sessionData":"Ab02b4c0!BQABAgCW5sxB"}`
	resultRespBody  = `{"merchantReference":"order-1","pspReference":"V4HZ4RBFJGXXGN82","resultCode":"Authorised"}`
	internalError   = `{"error":"Internal server error"}`
)

var (
	exampleSessionRequest = SessionRequest{
		CreateCheckoutSessionRequest: checkout.CreateCheckoutSessionRequest{
			MerchantAccount:          "MyMerchantAccount",
			Amount:                   checkout.Amount{Currency: "EUR", Value: 1000},
			ReturnUrl:                "http://localhost:8888/checkout/result",
			Reference:                fmt.Sprintf("order-%d", mytime.ExampleTime.UnixNano()),
			CountryCode:              "AE",
			ShopperLocale:            "en-US",
			Channel:                  "Web",
			AllowedPaymentMethods:    []string{"scheme", "visa", "mc", "amex"},
			ShopperInteraction:       "Ecommerce",
			RecurringProcessingModel: "CardOnFile",
			AuthenticationData: &checkout.AuthenticationData{
				ThreeDSRequestData: &checkout.ThreeDSRequestData{
					NativeThreeDS: "preferred",
				},
			},
		},
		StorePaymentMethodMode: "disabled",
	}
)

func TestCreateSession(t *testing.T) {

	for _, body := range []string{`{}`, `{"amount":{}}`, `{"amount":{"currency":"EUR"}}`, `{"amount":{"value":1000}}`, `{"amount":{"currency":"EUR","value":-5}}`, ``, `not json`} {
		t.Run(fmt.Sprintf("Reject %q before calling Adyen", body), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// setup
			router, _, _ := setup(t, ctrl)

			// when: no expectations on payer or nower, so any call fails the test
			response := doRequest(t, router, http.MethodPost, "/api/payment/adyen-session", body)

			// then
			assert.Equal(t, 400, response.Code)
			assert.JSONEq(t, `{"error":"Invalid request: amount, currency, and value are required"}`, response.Body.String())
		})
	}

	t.Run("Create session with defaults", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, payer, nower := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		payer.EXPECT().Sessions(gomock.Any(), exampleSessionRequest).Return(myhttpclient.Response{
			StatusCode:  201,
			ContentType: "application/json",
			Body:        []byte(sessionRespBody),
		}, nil)

		// when
		response := doRequest(t, router, http.MethodPost, "/api/payment/adyen-session", `{"amount":{"currency":"EUR","value":1000}}`)

		// then
		assert.Equal(t, 200, response.Code)
		assert.Equal(t, "application/json", response.Header().Get("Content-Type"))
		assert.Equal(t, sessionRespBody, response.Body.String())
	})

	t.Run("Create session with caller supplied values", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, payer, _ := setup(t, ctrl)

		// given: reference supplied, so the clock is not consulted
		payer.EXPECT().Sessions(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, req SessionRequest) (myhttpclient.Response, error) {
			assert.Equal(t, int64(1999), req.Amount.Value)
			assert.Equal(t, "USD", req.Amount.Currency)
			assert.Equal(t, "https://shop.example.com/done", req.ReturnUrl)
			assert.Equal(t, "basket-123", req.Reference)
			assert.Equal(t, "NL", req.CountryCode)
			assert.Equal(t, "nl-NL", req.ShopperLocale)
			assert.Equal(t, "Web", req.Channel)
			assert.Equal(t, "MyMerchantAccount", req.MerchantAccount)
			return myhttpclient.Response{StatusCode: 200, Body: []byte(`{"id":"CS1","sessionData":"abc"}`)}, nil
		})

		// when
		response := doRequest(t, router, http.MethodPost, "/api/payment/adyen-session",
			`{"amount":{"currency":"USD","value":1999},"returnUrl":"https://shop.example.com/done","reference":"basket-123","countryCode":"NL","shopperLocale":"nl-NL"}`)

		// then
		assert.Equal(t, 200, response.Code)
		assert.Equal(t, `{"id":"CS1","sessionData":"abc"}`, response.Body.String())
	})

	t.Run("Default references differ between attempts", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, payer, nower := setup(t, ctrl)

		// given
		references := []string{}
		gomock.InOrder(
			nower.EXPECT().Now().Return(mytime.ExampleTime),
			nower.EXPECT().Now().Return(mytime.ExampleTime.Add(time.Millisecond)),
		)
		payer.EXPECT().Sessions(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, req SessionRequest) (myhttpclient.Response, error) {
			references = append(references, req.Reference)
			return myhttpclient.Response{StatusCode: 201, Body: []byte(sessionRespBody)}, nil
		}).Times(2)

		// when
		for i := 0; i < 2; i++ {
			response := doRequest(t, router, http.MethodPost, "/api/payment/adyen-session", `{"amount":{"currency":"EUR","value":1000}}`)
			assert.Equal(t, 200, response.Code)
		}

		// then
		assert.Len(t, references, 2)
		assert.True(t, strings.HasPrefix(references[0], "order-"))
		assert.NotEqual(t, references[0], references[1])
	})

	t.Run("Adyen rejects session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, payer, nower := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		payer.EXPECT().Sessions(gomock.Any(), gomock.Any()).Return(myhttpclient.Response{
			StatusCode: 422,
			Body:       []byte(`{"status":422,"errorCode":"14_030","message":"Return URL is missing.","errorType":"validation"}`),
		}, nil)

		// when
		response := doRequest(t, router, http.MethodPost, "/api/payment/adyen-session", `{"amount":{"currency":"EUR","value":1000}}`)

		// then
		assert.Equal(t, 422, response.Code)
		assert.JSONEq(t, `{"error":"Failed to create Adyen session","details":{"status":422,"errorCode":"14_030","message":"Return URL is missing.","errorType":"validation"}}`, response.Body.String())
	})

	t.Run("Adyen unreachable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, payer, nower := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		payer.EXPECT().Sessions(gomock.Any(), gomock.Any()).Return(myhttpclient.Response{}, fmt.Errorf("dial tcp: connection refused"))

		// when
		response := doRequest(t, router, http.MethodPost, "/api/payment/adyen-session", `{"amount":{"currency":"EUR","value":1000}}`)

		// then
		assert.Equal(t, 500, response.Code)
		assert.Equal(t, internalError, response.Body.String())
	})

	t.Run("Adyen returns garbage", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, payer, nower := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		payer.EXPECT().Sessions(gomock.Any(), gomock.Any()).Return(myhttpclient.Response{
			StatusCode: 502,
			Body:       []byte(`<html>Bad gateway</html>`),
		}, nil)

		// when
		response := doRequest(t, router, http.MethodPost, "/api/payment/adyen-session", `{"amount":{"currency":"EUR","value":1000}}`)

		// then
		assert.Equal(t, 500, response.Code)
		assert.Equal(t, internalError, response.Body.String())
	})
}

func TestProcessResult(t *testing.T) {

	for _, body := range []string{`{}`, `{"redirectResult":"","sessionId":""}`, `[]`} {
		t.Run(fmt.Sprintf("Reject %q before calling Adyen", body), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// setup
			router, _, _ := setup(t, ctrl)

			// when
			response := doRequest(t, router, http.MethodPost, "/api/payment/adyen-result", body)

			// then
			assert.Equal(t, 400, response.Code)
			assert.JSONEq(t, `{"error":"Invalid request: redirectResult or sessionId is required"}`, response.Body.String())
		})
	}

	t.Run("Redirect result takes precedence over session id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, payer, _ := setup(t, ctrl)

		// given: no expectation on SessionResult
		payer.EXPECT().PaymentDetails(gomock.Any(), checkout.DetailsRequest{
			Details: checkout.PaymentCompletionDetails{RedirectResult: "abc"},
		}).Return(myhttpclient.Response{StatusCode: 200, Body: []byte(resultRespBody)}, nil)

		// when
		response := doRequest(t, router, http.MethodPost, "/api/payment/adyen-result", `{"redirectResult":"abc","sessionId":"s1"}`)

		// then
		assert.Equal(t, 200, response.Code)
		assert.Equal(t, resultRespBody, response.Body.String())
	})

	t.Run("Session id lookup", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, payer, _ := setup(t, ctrl)

		// given
		payer.EXPECT().SessionResult(gomock.Any(), "s1").Return(myhttpclient.Response{
			StatusCode: 200,
			Body:       []byte(`{"id":"s1","status":"completed"}`),
		}, nil)

		// when
		response := doRequest(t, router, http.MethodPost, "/api/payment/adyen-result", `{"sessionId":"s1"}`)

		// then
		assert.Equal(t, 200, response.Code)
		assert.Equal(t, `{"id":"s1","status":"completed"}`, response.Body.String())
	})

	t.Run("Adyen rejects result", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, payer, _ := setup(t, ctrl)

		// given
		payer.EXPECT().PaymentDetails(gomock.Any(), gomock.Any()).Return(myhttpclient.Response{
			StatusCode: 401,
			Body:       []byte(`{"status":401,"errorCode":"000","message":"HTTP Status Response - Unauthorized","errorType":"security"}`),
		}, nil)

		// when
		response := doRequest(t, router, http.MethodPost, "/api/payment/adyen-result", `{"redirectResult":"abc"}`)

		// then
		assert.Equal(t, 401, response.Code)
		assert.JSONEq(t, `{"error":"Failed to process payment result","details":{"status":401,"errorCode":"000","message":"HTTP Status Response - Unauthorized","errorType":"security"}}`, response.Body.String())
	})

	t.Run("Adyen unreachable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, payer, _ := setup(t, ctrl)

		// given
		payer.EXPECT().SessionResult(gomock.Any(), "s1").Return(myhttpclient.Response{}, fmt.Errorf("i/o timeout"))

		// when
		response := doRequest(t, router, http.MethodPost, "/api/payment/adyen-result", `{"sessionId":"s1"}`)

		// then
		assert.Equal(t, 500, response.Code)
		assert.Equal(t, internalError, response.Body.String())
	})
}

func TestCheckoutConfigEndpoint(t *testing.T) {

	t.Run("Build config", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, _, _ := setup(t, ctrl)

		// when
		response := doRequest(t, router, http.MethodPost, "/api/payment/adyen-config", `{"sessionId":"CS1","sessionData":"abc","amount":1000,"currency":"EUR"}`)

		// then
		assert.Equal(t, 200, response.Code)
		cfg := CheckoutConfig{}
		err := json.Unmarshal(response.Body.Bytes(), &cfg)
		assert.NoError(t, err)
		assert.Equal(t, "test_client_key", cfg.ClientKey)
		assert.Equal(t, SessionHandle{ID: "CS1", SessionData: "abc"}, cfg.Session)
		assert.Equal(t, "http://localhost:8888/api/payment/adyen-proxy?url=", cfg.LoadingContext)
	})

	t.Run("Missing session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, _, _ := setup(t, ctrl)

		// when
		response := doRequest(t, router, http.MethodPost, "/api/payment/adyen-config", `{"sessionId":"CS1"}`)

		// then
		assert.Equal(t, 400, response.Code)
		assert.JSONEq(t, `{"error":"Invalid request: sessionId and sessionData are required"}`, response.Body.String())
	})
}

func TestPages(t *testing.T) {

	t.Run("Checkout page converts major units", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, payer, nower := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		payer.EXPECT().Sessions(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, req SessionRequest) (myhttpclient.Response, error) {
			assert.Equal(t, checkout.Amount{Currency: "EUR", Value: 1250}, req.Amount)
			return myhttpclient.Response{StatusCode: 201, Body: []byte(`{"id":"CS123","sessionData":"Ab02b4c"}`)}, nil
		})

		// when
		response := doRequest(t, router, http.MethodGet, "/checkout?total=12.50&currency=EUR", "")

		// then
		assert.Equal(t, 200, response.Code)
		got := response.Body.String()
		assert.Contains(t, got, "<h1>EUR 12.50</h1>")
		assert.Contains(t, got, `"session":{"id":"CS123","sessionData":"Ab02b4c"}`)
	})

	currencyCases := []struct {
		query    string
		amount   checkout.Amount
		headline string
	}{
		{query: "total=1000&currency=JPY", amount: checkout.Amount{Currency: "JPY", Value: 1000}, headline: "<h1>JPY 1000</h1>"},
		{query: "total=1.234&currency=KWD", amount: checkout.Amount{Currency: "KWD", Value: 1234}, headline: "<h1>KWD 1.234</h1>"},
	}
	for _, tc := range currencyCases {
		t.Run("Checkout page uses minor unit of "+tc.amount.Currency, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// setup
			router, payer, nower := setup(t, ctrl)

			// given
			nower.EXPECT().Now().Return(mytime.ExampleTime)
			payer.EXPECT().Sessions(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, req SessionRequest) (myhttpclient.Response, error) {
				assert.Equal(t, tc.amount, req.Amount)
				return myhttpclient.Response{StatusCode: 201, Body: []byte(`{"id":"CS123","sessionData":"Ab02b4c"}`)}, nil
			})

			// when
			response := doRequest(t, router, http.MethodGet, "/checkout?"+tc.query, "")

			// then
			assert.Equal(t, 200, response.Code)
			assert.Contains(t, response.Body.String(), tc.headline)
		})
	}

	for _, query := range []string{"total=twelve", "total=-5", "total=0.001", "total=0.4&currency=JPY"} {
		t.Run("Checkout page rejects "+query, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// setup
			router, _, _ := setup(t, ctrl)

			// when
			response := doRequest(t, router, http.MethodGet, "/checkout?"+query, "")

			// then
			assert.Equal(t, 400, response.Code)
		})
	}

	t.Run("Checkout page defaults to ten euro", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, payer, nower := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		payer.EXPECT().Sessions(gomock.Any(), exampleSessionRequest).Return(myhttpclient.Response{StatusCode: 201, Body: []byte(sessionRespBody)}, nil)

		// when
		response := doRequest(t, router, http.MethodGet, "/checkout", "")

		// then
		assert.Equal(t, 200, response.Code)
		assert.Contains(t, response.Body.String(), "<h1>EUR 10.00</h1>")
	})

	t.Run("Result page after redirect", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, payer, _ := setup(t, ctrl)

		// given
		payer.EXPECT().PaymentDetails(gomock.Any(), checkout.DetailsRequest{
			Details: checkout.PaymentCompletionDetails{RedirectResult: "X6XtfGC3!Y..."},
		}).Return(myhttpclient.Response{StatusCode: 200, Body: []byte(resultRespBody)}, nil)

		// when
		response := doRequest(t, router, http.MethodGet, "/checkout/result?sessionId=CS123&redirectResult=X6XtfGC3%21Y...", "")

		// then
		assert.Equal(t, 200, response.Code)
		got := response.Body.String()
		assert.Contains(t, got, "<h1>Payment Authorised</h1>")
		assert.Contains(t, got, "V4HZ4RBFJGXXGN82")
	})

	t.Run("Result page without parameters", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, _, _ := setup(t, ctrl)

		// when
		response := doRequest(t, router, http.MethodGet, "/checkout/result", "")

		// then
		assert.Equal(t, 400, response.Code)
	})
}

func TestNewWebService(t *testing.T) {
	_, err := NewWebService(Config{APIKey: "my_api_key"}, nil, nil, nil)
	assert.Error(t, err)

	_, err = NewWebService(Config{MerchantAccount: "MyMerchantAccount"}, nil, nil, nil)
	assert.Error(t, err)
}

func doRequest(t *testing.T, router *mux.Router, method string, url string, body string) *httptest.ResponseRecorder {
	request, err := http.NewRequest(method, url, strings.NewReader(body))
	assert.NoError(t, err)
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Host = "localhost:8888"
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	return response
}

func setup(t *testing.T, ctrl *gomock.Controller) (*mux.Router, *MockPayer, *mytime.MockNower) {
	payer := NewMockPayer(ctrl)
	nower := mytime.NewMockNower(ctrl)

	sut, err := NewWebService(Config{
		MerchantAccount: "MyMerchantAccount",
		ClientKey:       "test_client_key",
		APIKey:          "my_api_key",
	}, payer, myhttpclient.New(time.Second, nil), nower)
	assert.NoError(t, err)

	router := mux.NewRouter()
	err = sut.RegisterEndpoints(context.TODO(), router)
	assert.NoError(t, err)

	return router, payer, nower
}
