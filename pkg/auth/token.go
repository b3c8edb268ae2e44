package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is both the token lifetime and the cookie max-age
const DefaultSessionTTL = 8 * time.Hour

// Claims is the signed session payload
type Claims struct {
	AccountID int64 `json:"id"`
	Role      Role  `json:"role"`
	jwt.RegisteredClaims
}

// SessionIssuer signs session tokens with an injected key
type SessionIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewSessionIssuer creates an issuer. A zero ttl uses DefaultSessionTTL.
func NewSessionIssuer(key []byte, ttl time.Duration) (*SessionIssuer, error) {
	if len(key) == 0 {
		return nil, ErrEmptySigningKey
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionIssuer{key: key, ttl: ttl, now: time.Now}, nil
}

// TTL returns the session lifetime
func (s *SessionIssuer) TTL() time.Duration {
	return s.ttl
}

// Key returns the verification key for Verify
func (s *SessionIssuer) Key() []byte {
	return s.key
}

// Issue signs a token for id and returns it with its expiry
func (s *SessionIssuer) Issue(id Identity) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := Claims{
		AccountID: id.AccountID,
		Role:      id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, expires, nil
}

// Verify checks an HS256 session token against key and returns its identity.
// Any failure, including expiry or an unexpected algorithm, is ErrInvalidToken.
func Verify(token string, key []byte) (Identity, error) {
	if token == "" || len(key) == 0 {
		return Identity{}, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.AccountID < 1 || !claims.Role.Valid() {
		return Identity{}, ErrInvalidToken
	}

	return Identity{AccountID: claims.AccountID, Role: claims.Role}, nil
}
