package checkoutadyen

import (
	"fmt"
	"strings"

	"github.com/adyen/adyen-go-api-library/v6/src/checkout"
	"github.com/shopspring/decimal"
)

const (
	channelWeb                = "Web"
	defaultCountryCode        = "AE"
	defaultShopperLocale      = "en-US"
	defaultReturnPath         = "/checkout/result"
	shopperInteraction        = "Ecommerce"
	recurringProcessingModel  = "CardOnFile"
	storePaymentMethodMode    = "disabled"
	nativeThreeDSPreferred    = "preferred"
	invalidSessionRequestMsg  = "Invalid request: amount, currency, and value are required"
	invalidResultRequestMsg   = "Invalid request: redirectResult or sessionId is required"
	sessionCreationFailedMsg  = "Failed to create Adyen session"
	resultProcessingFailedMsg = "Failed to process payment result"
)

var allowedPaymentMethods = []string{"scheme", "visa", "mc", "amex"}

// minorUnitExponents lists the ISO 4217 currencies that do not have two decimals.
var minorUnitExponents = map[string]int32{
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0, "KRW": 0, "PYG": 0,
	"RWF": 0, "UGX": 0, "UYI": 0, "VND": 0, "VUV": 0, "XAF": 0, "XOF": 0, "XPF": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

// currencyExponent returns the number of decimals of the minor unit of a currency.
func currencyExponent(currency string) int32 {
	exponent, found := minorUnitExponents[strings.ToUpper(currency)]
	if !found {
		return 2
	}
	return exponent
}

// Amount is expressed in minor units (cents for EUR, yen for JPY). It is never converted on the way through.
type Amount struct {
	Currency string `json:"currency" validate:"required"`
	Value    int64  `json:"value" validate:"required,gt=0"`
}

func (a Amount) String() string {
	exponent := currencyExponent(a.Currency)
	return fmt.Sprintf("%s %s", a.Currency, decimal.New(a.Value, -exponent).StringFixed(exponent))
}

// CreateSessionRequest is what the browser posts to start a checkout attempt.
type CreateSessionRequest struct {
	Amount        *Amount `json:"amount" validate:"required"`
	ReturnURL     string  `json:"returnUrl,omitempty"`
	Reference     string  `json:"reference,omitempty"`
	CountryCode   string  `json:"countryCode,omitempty"`
	ShopperLocale string  `json:"shopperLocale,omitempty"`
}

// SessionRequest is the session-creation payload sent to Adyen. The library's request type
// lacks storePaymentMethodMode.
type SessionRequest struct {
	checkout.CreateCheckoutSessionRequest
	StorePaymentMethodMode string `json:"storePaymentMethodMode,omitempty"`
}

// SessionHandle identifies one checkout attempt to the drop-in. It lives in the browser only.
type SessionHandle struct {
	ID          string `json:"id"`
	SessionData string `json:"sessionData"`
}

// FinalizationInput is what comes back from the browser (json) or the redirect (query string).
type FinalizationInput struct {
	RedirectResult string `json:"redirectResult,omitempty" form:"redirectResult"`
	SessionID      string `json:"sessionId,omitempty" form:"sessionId"`
}

type FinalizationKind int

const (
	FinalizationRedirectResult FinalizationKind = iota + 1
	FinalizationSessionQuery
)

// FinalizationRequest has exactly one of Token or SessionID populated, as indicated by Kind.
type FinalizationRequest struct {
	Kind      FinalizationKind
	Token     string
	SessionID string
}

// ToRequest picks the redirect result over the session id when both are given.
func (in FinalizationInput) ToRequest() (FinalizationRequest, bool) {
	switch {
	case in.RedirectResult != "":
		return FinalizationRequest{Kind: FinalizationRedirectResult, Token: in.RedirectResult}, true
	case in.SessionID != "":
		return FinalizationRequest{Kind: FinalizationSessionQuery, SessionID: in.SessionID}, true
	default:
		return FinalizationRequest{}, false
	}
}

// PaymentResult holds the few fields the result page shows. The API relays the full body.
type PaymentResult struct {
	ResultCode   string `json:"resultCode"`
	Status       string `json:"status"`
	PspReference string `json:"pspReference"`
	Reference    string `json:"merchantReference"`
}

func (r PaymentResult) Outcome() string {
	if r.ResultCode != "" {
		return r.ResultCode
	}
	return r.Status
}
