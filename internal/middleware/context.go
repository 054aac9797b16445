package middleware

import "context"

type userHolderKey struct{}

type userHolder struct {
	username string
}

func withUserHolder(ctx context.Context, h *userHolder) context.Context {
	return context.WithValue(ctx, userHolderKey{}, h)
}
