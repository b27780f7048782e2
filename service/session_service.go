package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/storelane/authcore/core"
	"github.com/storelane/authcore/ports"
	"github.com/storelane/authcore/ratelimit"
	"github.com/storelane/authcore/vault"
)

// SessionService orchestrates the login, verify, refresh and logout
// lifecycle. It owns no persistent state of its own: sessions live
// entirely inside signed tokens, and the only server-side memory is
// the login limiter and the revocation watermark store.
type SessionService struct {
	vault        *vault.Vault
	tokenizer    ports.Tokenizer
	credentials  ports.CredentialStore
	watermarks   ports.WatermarkStore
	events       ports.EventPublisher
	loginLimiter *ratelimit.Limiter
	refreshTTL   time.Duration
	logger       *zap.Logger
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken   string
	AccessClaims  *core.Claims
	RefreshToken  string
	RefreshClaims *core.Claims
}

// NewSessionService creates a session service.
func NewSessionService(
	v *vault.Vault,
	tokenizer ports.Tokenizer,
	credentials ports.CredentialStore,
	watermarks ports.WatermarkStore,
	events ports.EventPublisher,
	loginLimiter *ratelimit.Limiter,
	refreshTTL time.Duration,
	logger *zap.Logger,
) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		vault:        v,
		tokenizer:    tokenizer,
		credentials:  credentials,
		watermarks:   watermarks,
		events:       events,
		loginLimiter: loginLimiter,
		refreshTTL:   refreshTTL,
		logger:       logger,
	}
}

// Login authenticates identifier/password and mints a token pair.
// clientKey feeds the login limiter, typically the client address.
// Unknown identifiers, wrong passwords and inactive accounts all
// come back as core.ErrInvalidCredentials; only the audit log can
// tell them apart.
func (s *SessionService) Login(ctx context.Context, identifier, password, clientKey string) (*TokenPair, error) {
	decision := s.loginLimiter.Allow(clientKey)
	if !decision.Allowed {
		retryAfter := decision.RetryAfter(time.Now())
		s.logger.Warn("login throttled",
			zap.String("client_key", clientKey),
			zap.Duration("retry_after", retryAfter),
		)
		if err := s.events.PublishLockout(ctx, clientKey, retryAfter); err != nil {
			s.logger.Error("publish lockout event", zap.Error(err))
		}
		return nil, &core.ThrottledError{RetryAfter: retryAfter}
	}

	cred, err := s.credentials.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, core.ErrCredentialNotFound) {
			s.logger.Info("login rejected", zap.String("reason", "unknown identifier"))
			return nil, core.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("credential lookup: %w", err)
	}

	if !s.vault.Verify(ctx, password, cred.PasswordHash) {
		s.logger.Info("login rejected",
			zap.String("reason", "password mismatch"),
			zap.String("subject_id", cred.ID),
		)
		return nil, core.ErrInvalidCredentials
	}

	if !cred.IsActive {
		// Distinct in the audit log, identical to the caller.
		s.logger.Warn("login rejected",
			zap.String("reason", core.ErrAccountInactive.Error()),
			zap.String("subject_id", cred.ID),
		)
		return nil, core.ErrInvalidCredentials
	}

	return s.mintPair(cred)
}

// Verify validates an access token and returns the decoded session,
// or nil claims with an error describing the failure for diagnostics.
func (s *SessionService) Verify(ctx context.Context, accessToken string) (*core.Claims, error) {
	claims, err := s.tokenizer.ParseAccessToken(accessToken)
	if err != nil {
		s.logger.Debug("access token rejected", zap.Error(err))
		return nil, err
	}

	if err := s.checkWatermark(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Refresh verifies a refresh token and mints a new access token. Role
// and email are re-derived from the credential store rather than
// trusted from any previous token, so role changes take effect here.
// Vanished or deactivated subjects get nothing.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (string, *core.Claims, error) {
	claims, err := s.tokenizer.ParseRefreshToken(refreshToken)
	if err != nil {
		s.logger.Debug("refresh token rejected", zap.Error(err))
		return "", nil, err
	}

	if err := s.checkWatermark(ctx, claims); err != nil {
		return "", nil, err
	}

	cred, err := s.credentials.FindByID(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, core.ErrCredentialNotFound) {
			s.logger.Info("refresh rejected",
				zap.String("reason", "subject no longer exists"),
				zap.String("subject_id", claims.SubjectID),
			)
			return "", nil, core.ErrInvalidToken
		}
		return "", nil, fmt.Errorf("credential lookup: %w", err)
	}
	if !cred.IsActive {
		s.logger.Warn("refresh rejected",
			zap.String("reason", core.ErrAccountInactive.Error()),
			zap.String("subject_id", cred.ID),
		)
		return "", nil, core.ErrInvalidToken
	}

	accessToken, accessClaims, err := s.tokenizer.IssueAccessToken(cred.ID, cred.Email, cred.Role)
	if err != nil {
		return "", nil, fmt.Errorf("issue access token: %w", err)
	}
	return accessToken, accessClaims, nil
}

// Resolve validates the access token, falling back to a silent
// refresh when the access token is missing, expired or invalid but a
// refresh token is available. When the fallback fires, the new access
// token is returned alongside the claims so the transport can
// re-commit it.
func (s *SessionService) Resolve(ctx context.Context, accessToken, refreshToken string) (*core.Claims, string, error) {
	if accessToken != "" {
		claims, err := s.Verify(ctx, accessToken)
		if err == nil {
			return claims, "", nil
		}
	}

	if refreshToken == "" {
		return nil, "", core.ErrInvalidToken
	}

	newAccess, claims, err := s.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, "", err
	}
	return claims, newAccess, nil
}

// Logout terminates the session behind a refresh token: the subject's
// watermark advances so every token issued up to now is rejected, and
// a logout event goes out for other systems. An unparseable token is
// treated as already logged out.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokenizer.ParseRefreshToken(refreshToken)
	if err != nil {
		s.logger.Debug("logout with unusable refresh token", zap.Error(err))
		return nil
	}

	// Keep the watermark around until the refresh token would have
	// expired on its own; an already short remaining lifetime still
	// gets a minimum hold to cover clock skew.
	ttl := time.Until(claims.ExpiresAt)
	if ttl < time.Hour {
		ttl = time.Hour
	}

	if err := s.watermarks.SetWatermark(ctx, claims.SubjectID, time.Now(), ttl); err != nil {
		return fmt.Errorf("set watermark: %w", err)
	}

	if err := s.events.PublishLogout(ctx, claims.SubjectID, claims.TokenID); err != nil {
		// The watermark is already in place, which is the part that
		// matters; the event is best effort.
		s.logger.Error("publish logout event", zap.Error(err))
	}
	return nil
}

// ChangePassword verifies the current password, persists a new hash
// and advances the watermark so tokens minted under the old password
// stop working.
func (s *SessionService) ChangePassword(ctx context.Context, subjectID, currentPassword, newPassword string) error {
	cred, err := s.credentials.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, core.ErrCredentialNotFound) {
			return core.ErrInvalidCredentials
		}
		return fmt.Errorf("credential lookup: %w", err)
	}

	if !s.vault.Verify(ctx, currentPassword, cred.PasswordHash) || !cred.IsActive {
		return core.ErrInvalidCredentials
	}

	encoded, err := s.vault.Hash(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.credentials.UpdatePassword(ctx, cred.ID, encoded); err != nil {
		return fmt.Errorf("persist password: %w", err)
	}

	if err := s.watermarks.SetWatermark(ctx, cred.ID, time.Now(), s.refreshTTL); err != nil {
		return fmt.Errorf("set watermark: %w", err)
	}

	s.logger.Info("password changed", zap.String("subject_id", cred.ID))
	return nil
}

func (s *SessionService) mintPair(cred *core.Credential) (*TokenPair, error) {
	accessToken, accessClaims, err := s.tokenizer.IssueAccessToken(cred.ID, cred.Email, cred.Role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, refreshClaims, err := s.tokenizer.IssueRefreshToken(cred.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:   accessToken,
		AccessClaims:  accessClaims,
		RefreshToken:  refreshToken,
		RefreshClaims: refreshClaims,
	}, nil
}

func (s *SessionService) checkWatermark(ctx context.Context, claims *core.Claims) error {
	wm, ok, err := s.watermarks.Watermark(ctx, claims.SubjectID)
	if err != nil {
		return fmt.Errorf("watermark lookup: %w", err)
	}
	if ok && claims.IssuedAt.Before(wm) {
		s.logger.Debug("token rejected by watermark",
			zap.String("subject_id", claims.SubjectID),
			zap.Time("issued_at", claims.IssuedAt),
			zap.Time("watermark", wm),
		)
		return core.ErrTokenRevoked
	}
	return nil
}
