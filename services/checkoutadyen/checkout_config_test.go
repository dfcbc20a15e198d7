package checkoutadyen

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCheckoutConfig(t *testing.T) {
	// given
	req := CheckoutConfigRequest{
		ClientKey:    "test_client_key",
		SessionID:    "CS451F2AB1ED897A94",
		SessionData:  "Ab02b4c0!BQABAgCW5sxB",
		Amount:       1000,
		Currency:     "EUR",
		ProxyBaseURL: "https://shop.example.com",
	}

	// when
	cfg := BuildCheckoutConfig(req)

	// then
	assert.Equal(t, CheckoutConfig{
		Environment: "test",
		ClientKey:   "test_client_key",
		Analytics:   AnalyticsConfig{Enabled: false},
		Session: SessionHandle{
			ID:          "CS451F2AB1ED897A94",
			SessionData: "Ab02b4c0!BQABAgCW5sxB",
		},
		CountryCode: "AE",
		Locale:      "en-US",
		PaymentMethodsConfiguration: PaymentMethodsConfiguration{
			Card: CardConfiguration{
				HasHolderName:             true,
				HolderNameRequired:        true,
				EnableStoreDetails:        false,
				Brands:                    []string{"visa", "mc", "amex"},
				ShowBrandsUnderCardNumber: true,
			},
		},
		LoadingContext: "https://shop.example.com/api/payment/adyen-proxy?url=",
	}, cfg)

	t.Run("Same input gives same output", func(t *testing.T) {
		assert.Equal(t, cfg, BuildCheckoutConfig(req))
	})

	t.Run("Wire format", func(t *testing.T) {
		data, err := json.Marshal(cfg)
		assert.NoError(t, err)

		generic := map[string]interface{}{}
		err = json.Unmarshal(data, &generic)
		assert.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"enabled": false}, generic["analytics"])
		assert.Equal(t, "https://shop.example.com/api/payment/adyen-proxy?url=", generic["loadingContext"])
		_, hasAmount := generic["amount"]
		assert.False(t, hasAmount)
	})
}

func TestFinalizationInput(t *testing.T) {
	testCases := []struct {
		name string
		in   FinalizationInput
		ok   bool
		req  FinalizationRequest
	}{
		{
			name: "Redirect result only",
			in:   FinalizationInput{RedirectResult: "abc"},
			ok:   true,
			req:  FinalizationRequest{Kind: FinalizationRedirectResult, Token: "abc"},
		},
		{
			name: "Session id only",
			in:   FinalizationInput{SessionID: "s1"},
			ok:   true,
			req:  FinalizationRequest{Kind: FinalizationSessionQuery, SessionID: "s1"},
		},
		{
			name: "Both present",
			in:   FinalizationInput{RedirectResult: "abc", SessionID: "s1"},
			ok:   true,
			req:  FinalizationRequest{Kind: FinalizationRedirectResult, Token: "abc"},
		},
		{
			name: "Neither present",
			in:   FinalizationInput{},
			ok:   false,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, ok := tc.in.ToRequest()
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.req, req)
		})
	}
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "EUR 12.50", Amount{Currency: "EUR", Value: 1250}.String())
	assert.Equal(t, "AED 0.05", Amount{Currency: "AED", Value: 5}.String())
	assert.Equal(t, "USD 1000.00", Amount{Currency: "USD", Value: 100000}.String())
	assert.Equal(t, "JPY 1000", Amount{Currency: "JPY", Value: 1000}.String())
	assert.Equal(t, "krw 5000", Amount{Currency: "krw", Value: 5000}.String())
	assert.Equal(t, "KWD 1.234", Amount{Currency: "KWD", Value: 1234}.String())
}
