package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is what the app shows about the signed-in account.
type User struct {
	Name    string
	Subject string
}

// claim keys tried in order for a display name
var nameClaims = []string{"cognito:username", "username", "preferred_username", "email", "sub"}

// UserFromToken reads identity claims without verifying the signature;
// the API verifies the token on every request. Opaque tokens yield "user".
func UserFromToken(token string) User {
	claims, ok := parseClaims(token)
	if !ok {
		return User{Name: "user"}
	}
	u := User{Name: "user"}
	if sub, ok := claims["sub"].(string); ok {
		u.Subject = sub
	}
	for _, k := range nameClaims {
		if v, ok := claims[k].(string); ok && v != "" {
			u.Name = v
			break
		}
	}
	return u
}

func tokenExpiry(token string) *time.Time {
	claims, ok := parseClaims(token)
	if !ok {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time
	return &t
}

func parseClaims(token string) (jwt.MapClaims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// Claims returns the unverified JWT claims, false for opaque tokens.
func Claims(token string) (map[string]any, bool) {
	claims, ok := parseClaims(token)
	if !ok {
		return nil, false
	}
	return map[string]any(claims), true
}
