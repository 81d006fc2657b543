package authcore

import "context"

type ctxKey int

const ctxKeyClientIP ctxKey = iota

// unknownClientIP is the rate limit bucket for logins without an address.
const unknownClientIP = "unknown"

// WithClientIP attaches the caller's IP address to ctx. Login rate limiting
// is keyed on it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyClientIP, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx != nil {
		if ip, ok := ctx.Value(ctxKeyClientIP).(string); ok && ip != "" {
			return ip
		}
	}
	return unknownClientIP
}
