package port

import "context"

// IdentityProvider resolves the user acting on behalf of a request
type IdentityProvider interface {
	// CurrentUserID returns the acting user, or false when the caller is anonymous
	CurrentUserID(ctx context.Context) (int64, bool)
}
