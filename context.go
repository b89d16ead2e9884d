package authledger

import "context"

type clientIPKey struct{}

// WithClientIP tags ctx with the caller's IP for audit records and the
// per-IP login throttle. The HTTP layer sets this from the remote
// address before calling engine methods.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
