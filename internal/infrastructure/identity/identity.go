package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vlaamswoordenboek/woordenboek/internal/application/port"
)

// ErrInvalidUserID is returned for a malformed acting-user value
var ErrInvalidUserID = errors.New("invalid user id")

type contextKey struct{}

// WithUser returns a context carrying the acting user
func WithUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// ContextProvider reads the acting user placed in the context by WithUser
type ContextProvider struct{}

// NewContextProvider creates a new identity provider
func NewContextProvider() ContextProvider {
	return ContextProvider{}
}

// CurrentUserID returns the acting user, or false for anonymous callers
func (ContextProvider) CurrentUserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(contextKey{}).(int64)
	return id, ok
}

// ParseUserID parses a positive numeric user id
func ParseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUserID, raw)
	}
	return id, nil
}

var _ port.IdentityProvider = ContextProvider{}
