package middleware

import (
	"fmt"
	"net/http"

	"github.com/mintmotion/mintmotion-backend/api/responses"
	pkgerrors "github.com/mintmotion/mintmotion-backend/pkg/errors"
	"github.com/mintmotion/mintmotion-backend/pkg/logger"
)

// Recoverer converts a handler panic into a coded 500 response instead of
// tearing down the connection mid-checkout.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err := fmt.Errorf("panic: %v", rec)
					ctx := r.Context()
					if logg != nil {
						ctx = logg.WithFields(ctx, map[string]any{
							"panic":  rec,
							"method": r.Method,
							"path":   r.URL.Path,
						})
						logg.Error(ctx, "panic recovered while serving request", err)
					}
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
