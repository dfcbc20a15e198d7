package checkoutadyen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/adyen/adyen-go-api-library/v6/src/checkout"
	"github.com/go-playground/validator/v10"

	"github.com/MarcGrol/adyencheckout/lib/myerrors"
	"github.com/MarcGrol/adyencheckout/lib/myhttpclient"
	"github.com/MarcGrol/adyencheckout/lib/mylog"
	"github.com/MarcGrol/adyencheckout/lib/mytime"
)

// service relays between the browser and Adyen. It keeps no state between calls:
// the session handle is owned by Adyen and the browser.
type service struct {
	merchantAccount string
	payer           Payer
	nower           mytime.Nower
	logger          mylog.Logger
	validator       *validator.Validate
}

// Use dependency injection to isolate the infrastructure and easy testing
func newCommandService(cfg Config, payer Payer, nower mytime.Nower, logger mylog.Logger) *service {
	return &service{
		merchantAccount: cfg.MerchantAccount,
		payer:           payer,
		nower:           nower,
		logger:          logger,
		validator:       validator.New(validator.WithRequiredStructEnabled()),
	}
}

// createSession starts a payment session on the Adyen platform and returns Adyen's response as-is
func (s *service) createSession(c context.Context, req CreateSessionRequest, origin string) (json.RawMessage, error) {
	err := s.validator.Struct(req)
	if err != nil {
		return nil, myerrors.NewInvalidInputError(errors.New(invalidSessionRequestMsg))
	}

	sessionReq := s.newSessionRequest(req, origin)

	s.logger.Log(c, sessionReq.Reference, mylog.SeverityInfo, "Creating Adyen session for %s (%d %s)",
		sessionReq.Reference, sessionReq.Amount.Value, sessionReq.Amount.Currency)

	resp, err := s.payer.Sessions(c, sessionReq)
	if err != nil {
		return nil, myerrors.NewInternalError(fmt.Errorf("error creating session %s: %s", sessionReq.Reference, err))
	}

	body, err := relay(resp, sessionCreationFailedMsg)
	if err != nil {
		s.logger.Log(c, sessionReq.Reference, mylog.SeverityError, "Adyen session creation failed: %s", err)
		return nil, err
	}

	s.logger.Log(c, sessionReq.Reference, mylog.SeverityInfo, "Adyen session created for %s", sessionReq.Reference)

	return body, nil
}

func (s *service) newSessionRequest(req CreateSessionRequest, origin string) SessionRequest {
	return SessionRequest{
		CreateCheckoutSessionRequest: checkout.CreateCheckoutSessionRequest{
			MerchantAccount: s.merchantAccount,
			Amount: checkout.Amount{
				Currency: req.Amount.Currency,
				Value:    req.Amount.Value,
			},
			ReturnUrl:                valueOrDefault(req.ReturnURL, origin+defaultReturnPath),
			Reference:                valueOrDefault(req.Reference, fmt.Sprintf("order-%d", s.nower.Now().UnixNano())),
			CountryCode:              valueOrDefault(req.CountryCode, defaultCountryCode),
			ShopperLocale:            valueOrDefault(req.ShopperLocale, defaultShopperLocale),
			Channel:                  channelWeb,
			AllowedPaymentMethods:    allowedPaymentMethods,
			ShopperInteraction:       shopperInteraction,
			RecurringProcessingModel: recurringProcessingModel,
			AuthenticationData: &checkout.AuthenticationData{
				ThreeDSRequestData: &checkout.ThreeDSRequestData{
					NativeThreeDS: nativeThreeDSPreferred,
				},
			},
		},
		StorePaymentMethodMode: storePaymentMethodMode,
	}
}

// finalize submits what the shopper brought back from an external authentication step.
// The outcome (authorised, refused, pending) is left for the caller to interpret.
func (s *service) finalize(c context.Context, input FinalizationInput) (json.RawMessage, error) {
	req, ok := input.ToRequest()
	if !ok {
		return nil, myerrors.NewInvalidInputError(errors.New(invalidResultRequestMsg))
	}

	var resp myhttpclient.Response
	var err error
	switch req.Kind {
	case FinalizationRedirectResult:
		s.logger.Log(c, "", mylog.SeverityInfo, "Processing payment result with redirectResult")
		resp, err = s.payer.PaymentDetails(c, checkout.DetailsRequest{
			Details: checkout.PaymentCompletionDetails{
				RedirectResult: req.Token,
			},
		})
	case FinalizationSessionQuery:
		s.logger.Log(c, req.SessionID, mylog.SeverityInfo, "Processing payment result with sessionId")
		resp, err = s.payer.SessionResult(c, req.SessionID)
	}
	if err != nil {
		return nil, myerrors.NewInternalError(fmt.Errorf("error processing payment result: %s", err))
	}

	body, err := relay(resp, resultProcessingFailedMsg)
	if err != nil {
		s.logger.Log(c, req.SessionID, mylog.SeverityError, "Adyen payment result processing failed: %s", err)
		return nil, err
	}

	s.logger.Log(c, req.SessionID, mylog.SeverityInfo, "Payment result processed successfully")

	return body, nil
}

// relay passes a successful JSON body through and turns a JSON rejection into a provider error.
// A body that is not JSON is an unexpected failure either way.
func relay(resp myhttpclient.Response, failureMessage string) (json.RawMessage, error) {
	if !json.Valid(resp.Body) {
		return nil, myerrors.NewInternalError(fmt.Errorf("provider returned status %d with non-json body", resp.StatusCode))
	}

	if !resp.IsSuccess() {
		return nil, myerrors.NewProviderError(resp.StatusCode, failureMessage, resp.Body)
	}

	return json.RawMessage(resp.Body), nil
}

func valueOrDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
