package checkoutadyen

const (
	proxyPath = "/api/payment/adyen-proxy"
)

var cardBrands = []string{"visa", "mc", "amex"}

type CheckoutConfigRequest struct {
	ClientKey    string
	SessionID    string
	SessionData  string
	Amount       int64
	Currency     string
	ProxyBaseURL string
}

// CheckoutConfig is the configuration handed to the Adyen Web drop-in.
type CheckoutConfig struct {
	Environment                 string                      `json:"environment"`
	ClientKey                   string                      `json:"clientKey"`
	Analytics                   AnalyticsConfig             `json:"analytics"`
	Session                     SessionHandle               `json:"session"`
	CountryCode                 string                      `json:"countryCode"`
	Locale                      string                      `json:"locale"`
	PaymentMethodsConfiguration PaymentMethodsConfiguration `json:"paymentMethodsConfiguration"`
	LoadingContext              string                      `json:"loadingContext"`
}

type AnalyticsConfig struct {
	Enabled bool `json:"enabled"`
}

type PaymentMethodsConfiguration struct {
	Card CardConfiguration `json:"card"`
}

type CardConfiguration struct {
	HasHolderName             bool     `json:"hasHolderName"`
	HolderNameRequired        bool     `json:"holderNameRequired"`
	EnableStoreDetails        bool     `json:"enableStoreDetails"`
	Brands                    []string `json:"brands"`
	ShowBrandsUnderCardNumber bool     `json:"showBrandsUnderCardNumber"`
}

// BuildCheckoutConfig points the drop-in's loadingContext at our resource proxy, so every
// asset the SDK loads afterwards goes through us instead of straight to Adyen.
// Amount and currency are not part of the result: the session already carries them.
func BuildCheckoutConfig(req CheckoutConfigRequest) CheckoutConfig {
	return CheckoutConfig{
		Environment: "test",
		ClientKey:   req.ClientKey,
		Analytics: AnalyticsConfig{
			Enabled: false,
		},
		Session: SessionHandle{
			ID:          req.SessionID,
			SessionData: req.SessionData,
		},
		CountryCode: defaultCountryCode,
		Locale:      defaultShopperLocale,
		PaymentMethodsConfiguration: PaymentMethodsConfiguration{
			Card: CardConfiguration{
				HasHolderName:             true,
				HolderNameRequired:        true,
				EnableStoreDetails:        false,
				Brands:                    cardBrands,
				ShowBrandsUnderCardNumber: true,
			},
		},
		LoadingContext: req.ProxyBaseURL + proxyPath + "?url=",
	}
}
