package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"jewelbox/models"
)

const issuer = "jewelbox-admin"

// ErrInvalidToken is returned for any token that fails verification, whatever the reason.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims represents the JWT claims
type Claims struct {
	UserID string           `json:"userId"`
	Email  string           `json:"email"`
	Role   models.AdminRole `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager handles admin token issuance and validation
type TokenManager struct {
	secretKey      []byte
	expiration     time.Duration
	sessionTimeout time.Duration
	now            func() time.Time
}

// NewTokenManager creates a new token manager. sessionTimeout is checked against the issue time
// on top of the token's own expiry claim.
func NewTokenManager(secretKey string, expiration, sessionTimeout time.Duration) *TokenManager {
	return &TokenManager{
		secretKey:      []byte(secretKey),
		expiration:     expiration,
		sessionTimeout: sessionTimeout,
		now:            time.Now,
	}
}

// Expiration returns the configured token lifetime.
func (m *TokenManager) Expiration() time.Duration { return m.expiration }

// IssueToken signs a token for the identity
func (m *TokenManager) IssueToken(identity *models.AdminIdentity) (string, error) {
	now := m.now()
	claims := Claims{
		UserID: identity.ID,
		Email:  identity.Email,
		Role:   identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   identity.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyToken validates a token and returns its claims. Every failure maps to ErrInvalidToken.
func (m *TokenManager) VerifyToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	},
		jwt.WithTimeFunc(m.now),
		jwt.WithIssuer(issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// IsSessionValid reports whether less than the session timeout has elapsed since issuedAt.
func (m *TokenManager) IsSessionValid(issuedAt time.Time) bool {
	return m.now().Sub(issuedAt) < m.sessionTimeout
}

// Identify is the single verification point for admin requests: signature, expiry, session age,
// and a known role. It rebuilds the identity with the role's permissions.
func (m *TokenManager) Identify(tokenString string) (*models.AdminIdentity, error) {
	claims, err := m.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}
	if !m.IsSessionValid(claims.IssuedAt.Time) || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return &models.AdminIdentity{
		ID:          claims.UserID,
		Email:       claims.Email,
		Role:        claims.Role,
		Permissions: RolePermissions(claims.Role),
	}, nil
}
