package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/MarcGrol/adyencheckout/lib/mycontext"
	"github.com/MarcGrol/adyencheckout/lib/myerrors"
	"github.com/MarcGrol/adyencheckout/lib/myhttp"
	"github.com/MarcGrol/adyencheckout/lib/mylog"
	"github.com/MarcGrol/adyencheckout/lib/myratelimit"
)

type webService struct {
	service   Service
	limiter   *myratelimit.Limiter
	validator *validator.Validate
	logger    mylog.Logger
}

// NewWebService exposes the service over http. A nil limiter leaves sign-in unlimited.
func NewWebService(service Service, limiter *myratelimit.Limiter) *webService {
	return &webService{
		service:   service,
		limiter:   limiter,
		validator: validator.New(),
		logger:    mylog.New("auth"),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	// Limited per client ip
	router.HandleFunc("/api/auth/otp", s.recover(s.limiter.Limit(myhttp.ClientIP, s.signIn()))).Methods("POST")
	router.HandleFunc("/api/auth/verify", s.recover(s.limiter.Limit(myhttp.ClientIP, s.verify()))).Methods("POST")
	router.HandleFunc("/api/auth/signout", s.recover(s.signOut())).Methods("POST")

	// Require a bearer token
	router.HandleFunc("/api/auth/profile", s.recover(s.authenticated(s.getProfile))).Methods("GET")
	router.HandleFunc("/api/auth/profile", s.recover(s.authenticated(s.updateProfile))).Methods("PUT")
	router.HandleFunc("/api/auth/addresses", s.recover(s.authenticated(s.getAddresses))).Methods("GET")
	router.HandleFunc("/api/auth/addresses", s.recover(s.authenticated(s.saveAddress))).Methods("POST")

	return nil
}

func (s *webService) recover(next http.HandlerFunc) http.HandlerFunc {
	return myhttp.Recover(s.logger, next)
}

type authenticatedHandler func(w http.ResponseWriter, r *http.Request, session Session)

func (s *webService) authenticated(next authenticatedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		session, err := s.service.Authenticate(c, bearerToken(r))
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		next(w, r, session)
	}
}

func (s *webService) signIn() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := SignInRequest{}
		err := s.decode(r, &req)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		err = s.service.SignIn(c, req.Phone)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{Message: codeSentMsg})
	}
}

func (s *webService) verify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := VerifyRequest{}
		err := s.decode(r, &req)
		if err != nil {
			errorWriter.WriteError(c, w, 4, err)
			return
		}

		verification, err := s.service.Verify(c, req.Phone, req.Code)
		if err != nil {
			errorWriter.WriteError(c, w, 5, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, verification)
	}
}

func (s *webService) signOut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := s.service.SignOut(c, bearerToken(r))
		if err != nil {
			errorWriter.WriteError(c, w, 6, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{Message: signedOutMsg})
	}
}

func (s *webService) getProfile(w http.ResponseWriter, r *http.Request, session Session) {
	c := mycontext.ContextFromHTTPRequest(r)
	errorWriter := myhttp.NewWriter(s.logger)

	profile, err := s.service.GetProfile(c, session.UserUID)
	if err != nil {
		errorWriter.WriteError(c, w, 7, err)
		return
	}

	errorWriter.Write(c, w, http.StatusOK, profile)
}

func (s *webService) updateProfile(w http.ResponseWriter, r *http.Request, session Session) {
	c := mycontext.ContextFromHTTPRequest(r)
	errorWriter := myhttp.NewWriter(s.logger)

	patch := ProfilePatch{}
	err := s.decode(r, &patch)
	if err != nil {
		errorWriter.WriteError(c, w, 8, err)
		return
	}

	profile, err := s.service.UpdateProfile(c, session.UserUID, patch)
	if err != nil {
		errorWriter.WriteError(c, w, 9, err)
		return
	}

	errorWriter.Write(c, w, http.StatusOK, profile)
}

func (s *webService) getAddresses(w http.ResponseWriter, r *http.Request, session Session) {
	c := mycontext.ContextFromHTTPRequest(r)
	errorWriter := myhttp.NewWriter(s.logger)

	addresses, err := s.service.GetAddresses(c, session.UserUID)
	if err != nil {
		errorWriter.WriteError(c, w, 10, err)
		return
	}

	errorWriter.Write(c, w, http.StatusOK, addresses)
}

func (s *webService) saveAddress(w http.ResponseWriter, r *http.Request, session Session) {
	c := mycontext.ContextFromHTTPRequest(r)
	errorWriter := myhttp.NewWriter(s.logger)

	input := AddressInput{}
	err := s.decode(r, &input)
	if err != nil {
		errorWriter.WriteError(c, w, 11, err)
		return
	}

	address, err := s.service.SaveAddress(c, session.UserUID, input)
	if err != nil {
		errorWriter.WriteError(c, w, 12, err)
		return
	}

	errorWriter.Write(c, w, http.StatusCreated, address)
}

func (s *webService) decode(r *http.Request, target interface{}) error {
	err := json.NewDecoder(r.Body).Decode(target)
	if err != nil {
		return myerrors.NewInvalidInputError(fmt.Errorf("error parsing request body: %s", err))
	}

	err = s.validator.Struct(target)
	if err != nil {
		return myerrors.NewInvalidInputError(fmt.Errorf("invalid request: %s", err))
	}

	return nil
}

func bearerToken(r *http.Request) string {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}
