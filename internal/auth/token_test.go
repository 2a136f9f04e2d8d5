package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/appointment-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 30)
	token, exp, err := tm.GenerateToken("operator-7", domain.ActorRoleAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	actor, err := claims.Actor()
	require.NoError(t, err)
	assert.Equal(t, domain.AdminActor("operator-7"), actor)
}

func TestParseTokenRejects(t *testing.T) {
	tm := NewTokenManager("secret", 30)

	other, _, err := NewTokenManager("other", 30).GenerateToken("x", domain.ActorRoleAdmin)
	require.NoError(t, err)
	_, err = tm.ParseToken(other)
	assert.Error(t, err, "wrong key")

	expired := NewTokenManager("secret", 1)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := expired.GenerateToken("x", domain.ActorRoleAdmin)
	require.NoError(t, err)
	_, err = tm.ParseToken(stale)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Role: domain.ActorRoleAdmin})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tm.ParseToken(unsigned)
	assert.Error(t, err, "alg none")
}

func TestClaimsActorRejectsUnknownRole(t *testing.T) {
	_, err := (&Claims{Role: domain.ActorRoleCustomer}).Actor()
	assert.Error(t, err)
}
