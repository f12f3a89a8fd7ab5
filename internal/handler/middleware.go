package handler

import (
	"crypto/subtle"
	"net/http"

	"poker/internal/pkg/errs"
	"poker/internal/pkg/logx"
	"poker/internal/pkg/resp"
)

// RequireProxySecret rejects requests whose header key does not carry value.
// An empty key disables the check.
func RequireProxySecret(key, value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(key)
			if subtle.ConstantTimeCompare([]byte(got), []byte(value)) != 1 {
				logx.Warn("Request rejected: proxy secret mismatch.", "uri", r.RequestURI)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
