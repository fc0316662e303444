package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, 24*time.Hour)
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return fixed }
	userID := uuid.New()

	token, err := issuer.Issue(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.True(t, fixed.Add(24*time.Hour).Equal(claims.ExpiresAt))
}

func TestTokenIssuer_Parse_Rejects(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	userID := uuid.New()

	valid, err := issuer.Issue(userID)
	require.NoError(t, err)
	expired, err := NewTokenIssuer(testSecret, -time.Hour).Issue(userID)
	require.NoError(t, err)

	sign := func(method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	later := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name      string
		issuer    *TokenIssuer
		token     string
		wantErrIs error
	}{
		{"expired", issuer, expired, jwt.ErrTokenExpired},
		{"wrong secret", NewTokenIssuer("other", time.Hour), valid, jwt.ErrTokenSignatureInvalid},
		{"malformed", issuer, "not.a.valid.jwt", jwt.ErrTokenMalformed},
		{"empty", issuer, "", jwt.ErrTokenMalformed},
		{
			name:      "foreign issuer",
			issuer:    issuer,
			token:     sign(jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{Issuer: "elsewhere", Subject: userID.String(), ExpiresAt: later}),
			wantErrIs: jwt.ErrTokenInvalidIssuer,
		},
		{
			name:      "no expiry",
			issuer:    issuer,
			token:     sign(jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{Issuer: tokenIssuer, Subject: userID.String()}),
			wantErrIs: jwt.ErrTokenRequiredClaimMissing,
		},
		{
			name:      "unsigned",
			issuer:    issuer,
			token:     sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.RegisteredClaims{Issuer: tokenIssuer, Subject: userID.String(), ExpiresAt: later}),
			wantErrIs: jwt.ErrTokenSignatureInvalid,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.issuer.Parse(tc.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErrIs)
		})
	}
}

func TestTokenIssuer_Parse_BadSubject(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	require.Error(t, err)
}
