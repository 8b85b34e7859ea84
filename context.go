package authui

import (
	"context"

	"github.com/MrEthical07/authui/api"
)

// WithRequestID attaches a request identifier to ctx. Backend calls made with
// ctx send it as X-Request-ID, and audit events carry it as metadata.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(api.WithRequestID(ctx, id), requestIDContextKey{}, id)
}

type requestIDContextKey struct{}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

// orBackground lets exported operations accept a nil ctx.
func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
