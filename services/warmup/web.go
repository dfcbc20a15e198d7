package warmup

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/adyencheckout/lib/mycontext"
	"github.com/MarcGrol/adyencheckout/lib/myerrors"
	"github.com/MarcGrol/adyencheckout/lib/myhttp"
	"github.com/MarcGrol/adyencheckout/lib/mylog"
	"github.com/MarcGrol/adyencheckout/lib/mystore"
	"github.com/MarcGrol/adyencheckout/services/auth"
)

const (
	warmupKey = "warmup"
)

type webService struct {
	logger   mylog.Logger
	sessions mystore.Store[auth.Session]
}

// Use dependency injection to isolate the infrastructure and ease testing
func NewService(sessions mystore.Store[auth.Session]) *webService {
	return &webService{
		logger:   mylog.New("warmup"),
		sessions: sessions,
	}
}

func (s webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	// Called by App Engine before an instance receives traffic
	router.HandleFunc("/_ah/warmup", s.warmupPage()).Methods("GET")

	return nil
}

// warmupPage opens the connection to the session store, so the first sign-in does not pay for it
func (s *webService) warmupPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		_, _, err := s.sessions.Get(c, warmupKey)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewUnavailableError(fmt.Errorf("error reaching session store: %s", err)))
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: "Successfully processed warmup request",
		})
	}
}
