package actor

import "context"

type contextKey struct{}

// HeaderName carries the acting user's id on HTTP requests.
const HeaderName = "X-Actor-ID"

// WithID stores the id of whoever performs the current operation.
func WithID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the actor id, or nil when the request is anonymous.
func FromContext(ctx context.Context) *string {
	id, ok := ctx.Value(contextKey{}).(string)
	if !ok || id == "" {
		return nil
	}
	return &id
}
