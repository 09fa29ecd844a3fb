package contexthelpers

import (
	"context"

	"github.com/google/uuid"
)

func CurrentPath(ctx context.Context) string {
	currentPath, ok := ctx.Value(currentPathContextKey).(string)
	if !ok {
		return ""
	}

	return currentPath
}

func CSRFToken(ctx context.Context) string {
	csrfToken, ok := ctx.Value(csrfTokenContextKey).(string)
	if !ok {
		return ""
	}

	return csrfToken
}

func CSPNonce(ctx context.Context) string {
	nonce, ok := ctx.Value(cspNonceContextKey).(string)
	if !ok {
		return ""
	}

	return nonce
}

// PlaySessionID returns the ID of the puzzle instance the request operates on and whether one was set.
func PlaySessionID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(playSessionIDContextKey).(uuid.UUID)
	return id, ok
}
