package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-todo-auth/config"
	"github.com/FACorreiaa/go-todo-auth/internal/types"
)

// minSecretBytes is the HS256 key size.
const minSecretBytes = 32

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenManager(cfg config.JWTConfig) (*TokenManager, error) {
	if len(cfg.SecretKey) < minSecretBytes {
		return nil, fmt.Errorf("%w: jwt secret must be at least %d bytes", types.ErrConfiguration, minSecretBytes)
	}
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("%w: jwt issuer is empty", types.ErrConfiguration)
	}
	return &TokenManager{
		secret: []byte(cfg.SecretKey),
		issuer: cfg.Issuer,
		now:    time.Now,
	}, nil
}

// IssueToken signs a token for user that expires after ttl.
func (m *TokenManager) IssueToken(user *types.User, roles []string, ttl time.Duration) (string, error) {
	if roles == nil {
		roles = []string{}
	}
	now := m.now()
	claims := types.Claims{
		UserID: user.ID.String(),
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Username,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ExtractSubject returns the username of a well-signed token, expired or not.
func (m *TokenManager) ExtractSubject(token string) (string, error) {
	claims, err := m.verifiedClaims(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IsExpired verifies the signature and compares the expiry with the clock.
func (m *TokenManager) IsExpired(token string) (bool, error) {
	claims, err := m.verifiedClaims(token)
	if err != nil {
		return false, err
	}
	return m.expired(claims), nil
}

// IsValid reports whether token belongs to expectedUsername and is unexpired.
// Parse and signature failures are returned as errors, never as false.
func (m *TokenManager) IsValid(token, expectedUsername string) (bool, error) {
	claims, err := m.verifiedClaims(token)
	if err != nil {
		return false, err
	}
	return claims.Subject == expectedUsername && !m.expired(claims), nil
}

// ParseClaims fully validates token: signature, expiry and issuer.
func (m *TokenManager) ParseClaims(token string) (*types.Claims, error) {
	claims, err := m.parse(token, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil {
		if isMalformed(err) {
			return nil, fmt.Errorf("%w: %w", types.ErrTokenMalformed, err)
		}
		return nil, fmt.Errorf("%w: %w", types.ErrAuthenticationFailed, err)
	}
	return claims, nil
}

// verifiedClaims checks the signature only. Time-based claims are left to the caller.
func (m *TokenManager) verifiedClaims(token string) (*types.Claims, error) {
	claims, err := m.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrTokenMalformed, err)
	}
	return claims, nil
}

func (m *TokenManager) parse(token string, opts ...jwt.ParserOption) (*types.Claims, error) {
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	claims := &types.Claims{}
	_, err := jwt.NewParser(opts...).ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *TokenManager) expired(claims *types.Claims) bool {
	if claims.ExpiresAt == nil {
		return true
	}
	return !m.now().Before(claims.ExpiresAt.Time)
}

func isMalformed(err error) bool {
	return errors.Is(err, jwt.ErrTokenMalformed) ||
		errors.Is(err, jwt.ErrTokenSignatureInvalid) ||
		errors.Is(err, jwt.ErrTokenUnverifiable)
}
