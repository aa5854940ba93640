package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles, from least to most privileged
const (
	RoleViewer  = "viewer"
	RoleAuditor = "auditor"
	RoleAdmin   = "admin"
)

var roleRank = map[string]int{
	RoleViewer:  1,
	RoleAuditor: 2,
	RoleAdmin:   3,
}

// ValidRole reports whether role is known
func ValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// Allows reports whether a token with role may act as required
func Allows(role, required string) bool {
	return roleRank[role] >= roleRank[required] && roleRank[role] > 0
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// MintToken signs an access token for a service account or operator
func MintToken(subject, role, issuer, secret string, ttl time.Duration) (string, error) {
	if !ValidRole(role) {
		return "", fmt.Errorf("unknown role %q", role)
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	return token.SignedString([]byte(secret))
}

func ParseClaims(tokenStr, secret string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}
