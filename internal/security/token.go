package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"aperture/api/internal/models"
)

type SessionClaims struct {
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// IssueSessionToken signs a token carrying the user's identity and a
// snapshot of their roles. The snapshot is informational only: on every
// request the caller re-reads roles from storage, so revocation does not
// wait for the token to expire.
func IssueSessionToken(secret string, session models.Session, ttl time.Duration) (string, error) {
	now := time.Now()

	roles := make([]string, 0, len(session.Roles))
	for _, r := range session.Roles {
		roles = append(roles, string(r))
	}

	claims := SessionClaims{
		Email: session.Email,
		Name:  session.Name,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// VerifySessionToken validates signature and expiry and returns the
// subject user id. It deliberately does not return roles; current roles
// are always a live storage read. Any failure, expired or malformed or
// wrong signature, reports the same way so callers cannot build an
// oracle out of the distinction.
func VerifySessionToken(tokenStr string, secret string) (string, bool) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", false
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}
