package acesso

import "context"

type ctxKey struct{}

// WithContext anexa o AuthContext ao context.Context da requisição.
func WithContext(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, ac)
}

// FromContext recupera o AuthContext anexado por WithContext.
func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(ctxKey{}).(AuthContext)
	return ac, ok
}
