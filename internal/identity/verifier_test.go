package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSessionExpired(t *testing.T) {
	now := time.Now().UTC()
	session := Session{
		Principal: Principal{UserID: uuid.New()},
		Token:     "tok_123",
		ExpiresAt: now.Add(time.Hour),
	}

	assert.False(t, session.Expired(now))
	assert.True(t, session.Expired(now.Add(time.Hour)))
	assert.True(t, session.Expired(now.Add(2*time.Hour)))
}
