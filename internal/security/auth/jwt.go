package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aryan0dhankhar/memberledger/internal/domain"
)

var (
	// ErrMissingToken means no credential was presented.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrMalformedHeader means an Authorization header was sent but is not a bearer credential.
	ErrMalformedHeader = errors.New("invalid authorization header")
)

// Claims are the signed token contents
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 tokens
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a token manager. A zero ttl issues tokens without
// an expiry claim.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	if issuer == "" {
		issuer = "memberledger"
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Generate signs a token for the identity
func (tm *TokenManager) Generate(identity domain.Identity) (string, error) {
	if identity.UserID <= 0 || identity.Username == "" {
		return "", fmt.Errorf("%w: token subject required", domain.ErrInvalidInput)
	}

	now := tm.now()
	claims := Claims{
		UserID:   identity.UserID,
		Username: identity.Username,
		Role:     string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   tm.issuer,
		},
	}
	if tm.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(tm.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Validate checks signature, algorithm, issuer and expiry and returns the
// identity carried by the token. Every failure wraps domain.ErrForbidden.
func (tm *TokenManager) Validate(tokenString string) (domain.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrForbidden, err)
	}
	if !token.Valid || claims.UserID <= 0 || claims.Username == "" {
		return domain.Identity{}, fmt.Errorf("%w: invalid token claims", domain.ErrForbidden)
	}

	return domain.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     domain.Role(claims.Role),
	}, nil
}

// ExtractToken pulls the token out of an Authorization header value.
func ExtractToken(authHeader string) (string, error) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", ErrMissingToken
	}
	scheme, token, found := strings.Cut(authHeader, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMalformedHeader
	}
	token = strings.TrimSpace(token)
	if !found || token == "" {
		return "", ErrMissingToken
	}
	if strings.ContainsAny(token, " \t") {
		return "", ErrMalformedHeader
	}
	return token, nil
}
