package router

import (
	"net/http"
	"net/url"
	"strings"
)

// requireSameOrigin rejects cross-site form posts. Requests without Origin or
// Referer are let through, since older browsers omit both.
func requireSameOrigin(publicBaseURL string) func(http.Handler) http.Handler {
	publicHost := ""
	if u, err := url.Parse(strings.TrimSpace(publicBaseURL)); err == nil {
		publicHost = strings.ToLower(u.Host)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			source := strings.TrimSpace(r.Header.Get("Origin"))
			if source == "" || source == "null" {
				source = strings.TrimSpace(r.Header.Get("Referer"))
			}
			if source == "" {
				next.ServeHTTP(w, r)
				return
			}
			u, err := url.Parse(source)
			host := ""
			if err == nil {
				host = strings.ToLower(u.Host)
			}
			if host == "" || (host != strings.ToLower(r.Host) && host != publicHost) {
				http.Error(w, "cross-site form submission rejected", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
