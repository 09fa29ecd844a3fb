package contexthelpers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

func SetCurrentPath(r *http.Request, currentPath string) *http.Request {
	ctx := r.Context()
	ctx = context.WithValue(ctx, currentPathContextKey, currentPath)
	return r.WithContext(ctx)
}

func SetCSRFToken(r *http.Request, csrfToken string) *http.Request {
	ctx := r.Context()
	ctx = context.WithValue(ctx, csrfTokenContextKey, csrfToken)
	return r.WithContext(ctx)
}

func SetCSPNonce(r *http.Request, nonce string) *http.Request {
	ctx := r.Context()
	ctx = context.WithValue(ctx, cspNonceContextKey, nonce)
	return r.WithContext(ctx)
}

func SetPlaySessionID(r *http.Request, id uuid.UUID) *http.Request {
	ctx := r.Context()
	ctx = context.WithValue(ctx, playSessionIDContextKey, id)
	return r.WithContext(ctx)
}
