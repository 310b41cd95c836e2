package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/pkg/logger"
)

// SessionIDHeader identifies the shopper session, one per browser tab.
const SessionIDHeader = "X-Session-ID"

// SessionID reads the session id header, generating one when absent, stores
// it in the request context and echoes it on the response.
func SessionID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(SessionIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(SessionIDHeader, id)
			next.ServeHTTP(w, r.WithContext(logger.WithSessionID(r.Context(), id)))
		})
	}
}
