package identity

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/SixtySecondsApp/use60-sub018/pkg/handlers"
)

// Authenticate returns middleware that resolves the Authorization bearer
// token to an Identity and stores it in the request context. Requests that
// cannot be resolved never reach the wrapped handler.
func Authenticate(sys System, logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With("middleware", "authenticate")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)

			id, err := sys.Resolve(r.Context(), token)
			if err != nil {
				handlers.RespondError(w, log, MapHTTPStatus(err), err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return ""
}
