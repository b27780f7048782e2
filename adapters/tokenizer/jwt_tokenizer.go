package tokenizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/storelane/authcore/core"
	"github.com/storelane/authcore/ports"
)

// JWTTokenizer implements the Tokenizer interface with HS256 signed
// JWTs. The token kind is carried in the audience claim and enforced
// at parse time, so the two kinds can never stand in for each other.
type JWTTokenizer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWTTokenizer creates a tokenizer. The secret is process-wide
// configuration; an empty one is rejected here so the condition
// surfaces at startup rather than on the first request.
func NewJWTTokenizer(secret []byte, accessTTL, refreshTTL time.Duration) (ports.Tokenizer, error) {
	if len(secret) == 0 {
		return nil, core.ErrMissingSecret
	}
	return &JWTTokenizer{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// IssueAccessToken signs a short-lived token carrying the subject's
// identity snapshot.
func (t *JWTTokenizer) IssueAccessToken(subjectID, email, role string) (string, *core.Claims, error) {
	now := time.Now()
	expiresAt := now.Add(t.accessTTL)
	jti := uuid.New().String()

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Audience:  jwt.ClaimStrings{string(core.TokenKindAccess)},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
		Email: email,
		Role:  role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign access token: %w", err)
	}

	return signed, &core.Claims{
		SubjectID: subjectID,
		Email:     email,
		Role:      role,
		Kind:      core.TokenKindAccess,
		TokenID:   jti,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// IssueRefreshToken signs a longer-lived token carrying the subject
// identifier only.
func (t *JWTTokenizer) IssueRefreshToken(subjectID string) (string, *core.Claims, error) {
	now := time.Now()
	expiresAt := now.Add(t.refreshTTL)
	jti := uuid.New().String()

	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Audience:  jwt.ClaimStrings{string(core.TokenKindRefresh)},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return signed, &core.Claims{
		SubjectID: subjectID,
		Kind:      core.TokenKindRefresh,
		TokenID:   jti,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// ParseAccessToken verifies signature, expiry and kind of an access
// token and returns its claims.
func (t *JWTTokenizer) ParseAccessToken(tokenStr string) (*core.Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, t.keyFunc,
		jwt.WithAudience(string(core.TokenKindAccess)),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, mapParseError(err)
	}
	if !parsed.Valid {
		return nil, core.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok {
		return nil, core.ErrInvalidToken
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, core.ErrInvalidToken
	}

	return &core.Claims{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
		Kind:      core.TokenKindAccess,
		TokenID:   claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// ParseRefreshToken verifies signature, expiry and kind of a refresh
// token and returns its claims.
func (t *JWTTokenizer) ParseRefreshToken(tokenStr string) (*core.Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &RefreshClaims{}, t.keyFunc,
		jwt.WithAudience(string(core.TokenKindRefresh)),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, mapParseError(err)
	}
	if !parsed.Valid {
		return nil, core.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*RefreshClaims)
	if !ok {
		return nil, core.ErrInvalidToken
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, core.ErrInvalidToken
	}

	return &core.Claims{
		SubjectID: claims.Subject,
		Kind:      core.TokenKindRefresh,
		TokenID:   claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (t *JWTTokenizer) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return t.secret, nil
}

// mapParseError collapses library errors into the core taxonomy.
// Expired and invalid are kept distinct for diagnostics; callers
// present both to the client as unauthenticated.
func mapParseError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return core.ErrTokenExpired
	}
	return core.ErrInvalidToken
}
