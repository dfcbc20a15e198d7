package myhttp

import (
	"fmt"
	"net/http"

	"github.com/MarcGrol/adyencheckout/lib/mycontext"
	"github.com/MarcGrol/adyencheckout/lib/myerrors"
	"github.com/MarcGrol/adyencheckout/lib/mylog"
)

// Recover turns a panic in next into a generic 500 response.
func Recover(logger mylog.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				c := mycontext.ContextFromHTTPRequest(r)
				NewWriter(logger).WriteError(c, w, 0, myerrors.NewInternalError(fmt.Errorf("panic handling %s %s: %v", r.Method, r.URL.Path, rec)))
			}
		}()
		next(w, r)
	}
}
