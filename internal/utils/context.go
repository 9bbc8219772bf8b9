package contextutils

import (
	"context"
	"strings"

	"github.com/wilforlan/suncture-feedback-board/internal/models"
)

type identityKey struct{}

// WithIdentity stores the caller identity on the context.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller identity, if one was attached and has an id.
func IdentityFromContext(ctx context.Context) (*models.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(models.Identity)
	if !ok || strings.TrimSpace(id.ID) == "" {
		return nil, false
	}
	return &id, true
}
