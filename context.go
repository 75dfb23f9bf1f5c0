package goHash

import "context"

type userIDContextKey struct{}
type tenantIDContextKey struct{}

// WithUserID attaches the account the credential belongs to. The Engine only
// copies it into audit events; it never influences derivation.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey{}, userID)
}

// WithTenantID attaches a tenant identifier for audit events.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDContextKey{}, tenantID)
}

func userIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	userID, _ := ctx.Value(userIDContextKey{}).(string)
	return userID
}

func tenantIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return "0"
	}

	tenantID, _ := ctx.Value(tenantIDContextKey{}).(string)
	if tenantID == "" {
		return "0"
	}

	return tenantID
}
