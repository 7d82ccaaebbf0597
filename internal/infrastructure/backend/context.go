package backend

import "context"

type ctxKey string

const accessTokenKey ctxKey = "backend_access_token"

// WithAccessToken stores the operator's bearer token for outbound calls
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey, token)
}

// AccessToken extracts the operator's bearer token from context
func AccessToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(accessTokenKey).(string)
	return token, ok && token != ""
}
