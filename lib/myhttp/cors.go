package myhttp

import "net/http"

// SetPermissiveCORS allows any origin to read the response. Pages served by the
// payment provider's asset host load through us from a different origin.
func SetPermissiveCORS(w http.ResponseWriter) {
	headers := w.Header()
	headers.Set("Access-Control-Allow-Origin", "*")
	headers.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	headers.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}
