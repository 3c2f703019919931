package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Principal is the authenticated caller as the external auth module reports
// it. The core needs nothing beyond a stable user identifier.
type Principal struct {
	UserID uuid.UUID
}

// Session carries the token-bound view of a principal for session-bound
// operations.
type Session struct {
	Principal Principal
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at the given time.
func (s Session) Expired(at time.Time) bool {
	return !s.ExpiresAt.After(at)
}

// SessionVerifier is the contract the external auth module fulfils.
// Credential, OAuth, and verification storage stay on its side of the line;
// token uniqueness is its concern.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (Session, error)
}
