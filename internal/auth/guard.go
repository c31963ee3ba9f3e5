// Package auth issues and verifies signed session tokens and decides
// role-based access for inbound requests.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/fieldops/fieldops/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Verification failures. Callers must deny on both; they may log them
// differently.
var (
	// ErrTokenMalformed covers unparseable tokens and signature mismatches.
	ErrTokenMalformed = errors.New("auth: malformed token")
	// ErrTokenExpired covers well-formed, correctly signed tokens whose
	// expiry instant has passed.
	ErrTokenExpired = errors.New("auth: token expired")
)

// Claims is the decoded, verified payload of a session token. Claims are
// frozen at issue time: a role change on the server takes effect only
// once the holder obtains a fresh token. There is no revocation list.
type Claims struct {
	UserID      int64    `json:"id"`
	Nom         string   `json:"nom"`
	Prenom      string   `json:"prenom"`
	Email       string   `json:"email"`
	Identifiant string   `json:"identifiant"`
	Roles       []string `json:"roles"`
	jwt.RegisteredClaims
}

// Guard mints and verifies session tokens with a symmetric key held only
// by the server. Tokens are signed, not encrypted: any holder can read
// the claims.
type Guard struct {
	secret []byte
	ttl    time.Duration
}

// NewGuard creates a Guard signing with secret and issuing tokens valid
// for ttl.
func NewGuard(secret string, ttl time.Duration) *Guard {
	return &Guard{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured token lifetime.
func (g *Guard) TTL() time.Duration {
	return g.ttl
}

// Issue mints a signed token for the user carrying the given role names.
func (g *Guard) Issue(user *domain.User, roles []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:      user.ID,
		Nom:         user.Nom,
		Prenom:      user.Prenom,
		Email:       user.Email,
		Identifiant: user.Identifiant,
		Roles:       roles,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token's signature and expiry. It returns
// ErrTokenExpired for valid-but-stale tokens and ErrTokenMalformed for
// everything else that is not a valid token.
func (g *Guard) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// Authorize returns true iff the claims' role set intersects required.
// This is the only access-control primitive: flat role membership gates
// entire routes, with no hierarchy or per-resource policy.
func Authorize(claims *Claims, required []string) bool {
	if claims == nil {
		return false
	}
	for _, have := range claims.Roles {
		for _, want := range required {
			if have == want {
				return true
			}
		}
	}
	return false
}
