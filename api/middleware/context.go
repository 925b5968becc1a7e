package middleware

import "context"

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxWallet contextKey = "wallet_address"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func WalletFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxWallet).(string); ok {
		return v
	}
	return ""
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithWallet injects the wallet address into the context for downstream handlers.
func WithWallet(ctx context.Context, wallet string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxWallet, wallet)
}
