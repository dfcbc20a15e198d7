package myhttp

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// HostnameWithScheme returns the origin the browser used to reach us.
func HostnameWithScheme(r *http.Request) string {
	scheme := "https"
	if r.TLS == nil {
		scheme = "http"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}

	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// ClientIP returns the address of the browser, also when running behind the App Engine frontend.
// Only the last X-Forwarded-For entry is used: that is the one added by the proxy in front of us,
// earlier entries come from the caller and can be anything.
func ClientIP(r *http.Request) string {
	if values := r.Header.Values("X-Forwarded-For"); len(values) > 0 {
		forwarded := values[len(values)-1]
		if ip := strings.TrimSpace(forwarded[strings.LastIndex(forwarded, ",")+1:]); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
