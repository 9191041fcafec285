package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSMiddleware stamps the allow headers and answers preflight requests.
// allowedOrigins is a comma-separated list matched case-insensitively; "*"
// admits every origin. Credentials are only offered on an explicit origin
// match, since browsers reject credentialed wildcard responses.
func CORSMiddleware(allowedOrigins, allowedMethods, allowedHeaders string, maxAgeSeconds int) func(http.Handler) http.Handler {
	var origins []string
	wildcard := false
	for _, o := range strings.Split(allowedOrigins, ",") {
		o = strings.ToLower(strings.TrimSpace(o))
		switch {
		case o == "*":
			wildcard = true
		case o != "":
			origins = append(origins, o)
		}
	}
	maxAge := strconv.Itoa(maxAgeSeconds)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			switch {
			case originAllowed(origins, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}

			w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
			w.Header().Set("Access-Control-Max-Age", maxAge)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origins []string, origin string) bool {
	if origin == "" {
		return false
	}
	origin = strings.ToLower(origin)
	for _, o := range origins {
		if o == origin {
			return true
		}
	}
	return false
}
