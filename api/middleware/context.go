package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	ctxCustomerID contextKey = "customer_id"
	ctxSessionID  contextKey = "session_id"

	customerIDHeader = "X-Customer-Id"
	sessionIDHeader  = "X-Session-Id"
)

type loggerContext interface {
	WithCustomerID(ctx context.Context, customerID string) context.Context
	WithSessionID(ctx context.Context, sessionID string) context.Context
}

// CustomerContext lifts the caller identity headers into the request context.
// The storefront core trusts an upstream gateway for authentication, so the
// headers are taken at face value; handlers that need an identity enforce
// presence themselves.
func CustomerContext(logg loggerContext) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if customerID := strings.TrimSpace(r.Header.Get(customerIDHeader)); customerID != "" {
				ctx = context.WithValue(ctx, ctxCustomerID, customerID)
				if logg != nil {
					ctx = logg.WithCustomerID(ctx, customerID)
				}
			}
			if sessionID := strings.TrimSpace(r.Header.Get(sessionIDHeader)); sessionID != "" {
				ctx = context.WithValue(ctx, ctxSessionID, sessionID)
				if logg != nil {
					ctx = logg.WithSessionID(ctx, sessionID)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func CustomerIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCustomerID).(string); ok {
		return v
	}
	return ""
}

func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// WithCustomerID injects the customer identifier into the context.
func WithCustomerID(ctx context.Context, customerID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCustomerID, customerID)
}

// WithSessionID injects the guest session identifier into the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}
