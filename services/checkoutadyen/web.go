package checkoutadyen

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-playground/form/v4"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/MarcGrol/adyencheckout/lib/mycontext"
	"github.com/MarcGrol/adyencheckout/lib/myerrors"
	"github.com/MarcGrol/adyencheckout/lib/myhttp"
	"github.com/MarcGrol/adyencheckout/lib/myhttpclient"
	"github.com/MarcGrol/adyencheckout/lib/mylog"
	"github.com/MarcGrol/adyencheckout/lib/mytime"
)

//go:embed templates
var templateFolder embed.FS
var (
	pageTemplates *template.Template
)

func init() {
	pageTemplates = template.Must(template.ParseFS(templateFolder, "templates/*.html"))
}

const (
	defaultCheckoutTotal    = 10
	defaultCheckoutCurrency = "EUR"
	invalidConfigRequestMsg = "Invalid request: sessionId and sessionData are required"
)

type Config struct {
	MerchantAccount string
	ClientKey       string
	APIKey          string
}

type webService struct {
	logger      mylog.Logger
	clientKey   string
	service     *service
	proxy       *resourceProxy
	formDecoder *form.Decoder
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(cfg Config, payer Payer, sender myhttpclient.HTTPSender, nower mytime.Nower) (*webService, error) {
	if cfg.MerchantAccount == "" {
		return nil, fmt.Errorf("missing merchant account")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing api key")
	}

	logger := mylog.New("checkoutadyen")
	return &webService{
		logger:      logger,
		clientKey:   cfg.ClientKey,
		service:     newCommandService(cfg, payer, nower, logger),
		proxy:       newResourceProxy(sender, cfg.APIKey, logger),
		formDecoder: form.NewDecoder(),
	}, nil
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	// Endpoints called by the browser checkout ui
	router.HandleFunc("/api/payment/adyen-session", s.recover(s.createSession())).Methods("POST")
	router.HandleFunc("/api/payment/adyen-result", s.recover(s.processResult())).Methods("POST")
	router.HandleFunc("/api/payment/adyen-config", s.recover(s.checkoutConfig())).Methods("POST")

	// The drop-in loads its assets through here, see BuildCheckoutConfig
	router.HandleFunc(proxyPath, s.recover(s.proxy.fetch())).Methods("GET")
	router.HandleFunc(proxyPath, s.recover(s.proxy.forward())).Methods("POST")
	router.HandleFunc(proxyPath, s.recover(s.proxy.preflight())).Methods("OPTIONS")

	// Endpoints that compose the user-interface
	router.HandleFunc("/checkout", s.recover(s.checkoutPage())).Methods("GET")

	// Adyen redirects the shopper here after an external authentication step
	router.HandleFunc(defaultReturnPath, s.recover(s.resultPage())).Methods("GET")

	return nil
}

func (s *webService) recover(next http.HandlerFunc) http.HandlerFunc {
	return myhttp.Recover(s.logger, next)
}

// createSession starts a checkout session on the Adyen platform
func (s *webService) createSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := CreateSessionRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(errors.New(invalidSessionRequestMsg)))
			return
		}

		resp, err := s.service.createSession(c, req, myhttp.HostnameWithScheme(r))
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.WriteRaw(c, w, http.StatusOK, jsonContentType, resp)
	}
}

// processResult finalizes a payment after the shopper returned
func (s *webService) processResult() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		input := FinalizationInput{}
		err := json.NewDecoder(r.Body).Decode(&input)
		if err != nil {
			errorWriter.WriteError(c, w, 3, myerrors.NewInvalidInputError(errors.New(invalidResultRequestMsg)))
			return
		}

		resp, err := s.service.finalize(c, input)
		if err != nil {
			errorWriter.WriteError(c, w, 4, err)
			return
		}

		errorWriter.WriteRaw(c, w, http.StatusOK, jsonContentType, resp)
	}
}

type checkoutConfigInput struct {
	SessionID   string `json:"sessionId" validate:"required"`
	SessionData string `json:"sessionData" validate:"required"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// checkoutConfig returns the drop-in configuration for a session created earlier
func (s *webService) checkoutConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		input := checkoutConfigInput{}
		err := json.NewDecoder(r.Body).Decode(&input)
		if err == nil {
			err = s.service.validator.Struct(input)
		}
		if err != nil {
			errorWriter.WriteError(c, w, 5, myerrors.NewInvalidInputError(errors.New(invalidConfigRequestMsg)))
			return
		}

		errorWriter.Write(c, w, http.StatusOK, BuildCheckoutConfig(CheckoutConfigRequest{
			ClientKey:    s.clientKey,
			SessionID:    input.SessionID,
			SessionData:  input.SessionData,
			Amount:       input.Amount,
			Currency:     input.Currency,
			ProxyBaseURL: myhttp.HostnameWithScheme(r),
		}))
	}
}

type checkoutPageQuery struct {
	Value         int64  `form:"value"`
	Total         string `form:"total"`
	Currency      string `form:"currency"`
	Reference     string `form:"reference"`
	CountryCode   string `form:"countryCode"`
	ShopperLocale string `form:"shopperLocale"`
}

type CheckoutPageInfo struct {
	Amount Amount
	Config CheckoutConfig
}

// checkoutPage creates a session and renders the drop-in for it
func (s *webService) checkoutPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		query := checkoutPageQuery{}
		err := s.formDecoder.Decode(&query, r.URL.Query())
		if err != nil {
			errorWriter.WriteError(c, w, 6, myerrors.NewInvalidInputError(fmt.Errorf("error parsing query: %s", err)))
			return
		}

		amount, err := query.amount()
		if err != nil {
			errorWriter.WriteError(c, w, 12, myerrors.NewInvalidInputError(err))
			return
		}
		origin := myhttp.HostnameWithScheme(r)

		resp, err := s.service.createSession(c, CreateSessionRequest{
			Amount:        &amount,
			Reference:     query.Reference,
			CountryCode:   query.CountryCode,
			ShopperLocale: query.ShopperLocale,
		}, origin)
		if err != nil {
			errorWriter.WriteError(c, w, 7, err)
			return
		}

		session := SessionHandle{}
		err = json.Unmarshal(resp, &session)
		if err != nil {
			errorWriter.WriteError(c, w, 8, myerrors.NewInternalError(fmt.Errorf("error parsing session: %s", err)))
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = pageTemplates.ExecuteTemplate(w, "checkout.html", CheckoutPageInfo{
			Amount: amount,
			Config: BuildCheckoutConfig(CheckoutConfigRequest{
				ClientKey:    s.clientKey,
				SessionID:    session.ID,
				SessionData:  session.SessionData,
				Amount:       amount.Value,
				Currency:     amount.Currency,
				ProxyBaseURL: origin,
			}),
		})
		if err != nil {
			s.logger.Log(c, session.ID, mylog.SeverityError, "error executing template: %s", err)
		}
	}
}

// amount converts an optional major-unit total into minor units
func (q checkoutPageQuery) amount() (Amount, error) {
	currency := q.Currency
	if currency == "" {
		currency = defaultCheckoutCurrency
	}

	value := q.Value
	if value == 0 {
		total := decimal.NewFromInt(defaultCheckoutTotal)
		if q.Total != "" {
			parsed, err := decimal.NewFromString(q.Total)
			if err != nil {
				return Amount{}, fmt.Errorf("invalid total %q: %s", q.Total, err)
			}
			total = parsed
		}
		value = total.Shift(currencyExponent(currency)).Round(0).IntPart()
	}
	if value <= 0 {
		return Amount{}, errors.New("amount must be positive")
	}

	return Amount{
		Currency: currency,
		Value:    value,
	}, nil
}

type ResultPageInfo struct {
	Result PaymentResult
}

// resultPage finalizes the payment the shopper returned from and shows the outcome
func (s *webService) resultPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		input := FinalizationInput{}
		err := s.formDecoder.Decode(&input, r.URL.Query())
		if err != nil {
			errorWriter.WriteError(c, w, 9, myerrors.NewInvalidInputError(fmt.Errorf("error parsing query: %s", err)))
			return
		}

		resp, err := s.service.finalize(c, input)
		if err != nil {
			errorWriter.WriteError(c, w, 10, err)
			return
		}

		result := PaymentResult{}
		err = json.Unmarshal(resp, &result)
		if err != nil {
			errorWriter.WriteError(c, w, 11, myerrors.NewInternalError(fmt.Errorf("error parsing payment result: %s", err)))
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = pageTemplates.ExecuteTemplate(w, "result.html", ResultPageInfo{
			Result: result,
		})
		if err != nil {
			s.logger.Log(c, result.PspReference, mylog.SeverityError, "error executing template: %s", err)
		}
	}
}
