package middleware

import (
	"net/http"

	"agentq/appctx"
	"agentq/core"
)

// RequestIDHeader is echoed back to the client on every response.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware assigns each request a unique id, stores it in the
// request context and echoes it back in the response headers.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = core.NewID("req")
		}

		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(appctx.SetRequestID(r.Context(), requestID)))
	})
}
