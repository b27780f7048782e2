package tokenizer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/storelane/authcore/adapters/tokenizer"
	"github.com/storelane/authcore/core"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func TestMissingSecretIsFatal(t *testing.T) {
	_, err := tokenizer.NewJWTTokenizer(nil, time.Hour, 24*time.Hour)
	require.ErrorIs(t, err, core.ErrMissingSecret)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := tokenizer.NewJWTTokenizer(secret, time.Hour, 24*time.Hour)
	require.NoError(t, err)

	signed, issued, err := tok.IssueAccessToken("user-1", "user@example.com", "manager")
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	require.Equal(t, core.TokenKindAccess, issued.Kind)

	claims, err := tok.ParseAccessToken(signed)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.SubjectID)
	require.Equal(t, "user@example.com", claims.Email)
	require.Equal(t, "manager", claims.Role)
	require.Equal(t, core.TokenKindAccess, claims.Kind)
	require.Equal(t, issued.TokenID, claims.TokenID)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	tok, err := tokenizer.NewJWTTokenizer(secret, time.Hour, 24*time.Hour)
	require.NoError(t, err)

	signed, _, err := tok.IssueRefreshToken("user-1")
	require.NoError(t, err)

	claims, err := tok.ParseRefreshToken(signed)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.SubjectID)
	require.Equal(t, core.TokenKindRefresh, claims.Kind)
	require.Empty(t, claims.Email)
	require.Empty(t, claims.Role)
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	tok, err := tokenizer.NewJWTTokenizer(secret, time.Hour, 24*time.Hour)
	require.NoError(t, err)

	access, _, err := tok.IssueAccessToken("user-1", "user@example.com", "manager")
	require.NoError(t, err)
	refresh, _, err := tok.IssueRefreshToken("user-1")
	require.NoError(t, err)

	_, err = tok.ParseAccessToken(refresh)
	require.ErrorIs(t, err, core.ErrInvalidToken)
	_, err = tok.ParseRefreshToken(access)
	require.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	tok, err := tokenizer.NewJWTTokenizer(secret, -time.Minute, -time.Minute)
	require.NoError(t, err)

	access, _, err := tok.IssueAccessToken("user-1", "user@example.com", "manager")
	require.NoError(t, err)
	refresh, _, err := tok.IssueRefreshToken("user-1")
	require.NoError(t, err)

	_, err = tok.ParseAccessToken(access)
	require.ErrorIs(t, err, core.ErrTokenExpired)
	_, err = tok.ParseRefreshToken(refresh)
	require.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestTamperedTokenIsRejected(t *testing.T) {
	tok, err := tokenizer.NewJWTTokenizer(secret, time.Hour, 24*time.Hour)
	require.NoError(t, err)

	signed, _, err := tok.IssueAccessToken("user-1", "user@example.com", "manager")
	require.NoError(t, err)

	tampered := signed + "x"
	_, err = tok.ParseAccessToken(tampered)
	require.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestWrongSecretIsRejected(t *testing.T) {
	issuer, err := tokenizer.NewJWTTokenizer(secret, time.Hour, 24*time.Hour)
	require.NoError(t, err)
	verifier, err := tokenizer.NewJWTTokenizer([]byte("ffffffffffffffffffffffffffffffff"), time.Hour, 24*time.Hour)
	require.NoError(t, err)

	signed, _, err := issuer.IssueAccessToken("user-1", "user@example.com", "manager")
	require.NoError(t, err)

	_, err = verifier.ParseAccessToken(signed)
	require.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestGarbageTokenIsRejected(t *testing.T) {
	tok, err := tokenizer.NewJWTTokenizer(secret, time.Hour, 24*time.Hour)
	require.NoError(t, err)

	for _, garbage := range []string{"", "not.a.jwt", "a.b", "...."} {
		_, err = tok.ParseAccessToken(garbage)
		require.Error(t, err)
	}
}
