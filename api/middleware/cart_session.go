package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/cocobubble/storefront/api/responses"
	pkgerrors "github.com/cocobubble/storefront/pkg/errors"
	"github.com/cocobubble/storefront/pkg/logger"
)

// DefaultCartSessionHeader carries the shopper's cart session id.
const DefaultCartSessionHeader = "X-Cart-Session"

const maxCartSessionLength = 128

type contextKey string

const ctxCartSession contextKey = "cart_session"

func CartSessionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCartSession).(string); ok {
		return v
	}
	return ""
}

// WithCartSession injects the cart session into the context.
func WithCartSession(ctx context.Context, session string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartSession, session)
}

// CartSession requires the session header on every request it wraps.
func CartSession(header string, logg *logger.Logger) func(http.Handler) http.Handler {
	if strings.TrimSpace(header) == "" {
		header = DefaultCartSessionHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := strings.TrimSpace(r.Header.Get(header))
			if session == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session header required").
					WithDetails(map[string]any{"header": header}))
				return
			}
			if len(session) > maxCartSessionLength {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session header too long").
					WithDetails(map[string]any{"header": header, "max": maxCartSessionLength}))
				return
			}

			ctx := WithCartSession(r.Context(), session)
			if logg != nil {
				ctx = logg.WithCartSession(ctx, session)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
