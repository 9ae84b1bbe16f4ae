package session

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"kiraye/models"
)

const (
	claimRoleURI  = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"
	claimIDURI    = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
	claimNameURI  = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name"
	claimEmailURI = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"
)

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrExpiredToken   = errors.New("token expired")
)

type claims struct {
	UserID  string
	Role    models.Role
	Name    string
	Email   string
	Expires time.Time
}

// decodeToken reads identity claims without verifying the signature; the
// server does that on every request.
func decodeToken(token string, now time.Time) (claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return claims{}, ErrMalformedToken
	}

	exp, err := mc.GetExpirationTime()
	if err != nil {
		return claims{}, ErrMalformedToken
	}
	if exp != nil && !exp.After(now) {
		return claims{}, ErrExpiredToken
	}

	c := claims{
		UserID: stringClaim(mc, "nameid", claimIDURI, "sub", "userId", "id"),
		Role:   parseRole(firstClaim(mc, "role", claimRoleURI)),
		Name:   stringClaim(mc, "unique_name", claimNameURI, "name"),
		Email:  stringClaim(mc, "email", claimEmailURI),
	}
	if exp != nil {
		c.Expires = exp.Time
	}
	return c, nil
}

func firstClaim(mc jwt.MapClaims, keys ...string) any {
	for _, k := range keys {
		if v, ok := mc[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringClaim(mc jwt.MapClaims, keys ...string) string {
	switch v := firstClaim(mc, keys...).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// parseRole accepts a single role or a role list. A signed-in user without
// a recognised role is an ordinary user; the highest role wins.
func parseRole(v any) models.Role {
	var names []string
	switch r := v.(type) {
	case string:
		names = []string{r}
	case []any:
		for _, item := range r {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
	}

	role := models.RoleUser
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "admin":
			return models.RoleAdmin
		case "makler", "realtor":
			role = models.RoleMakler
		}
	}
	return role
}
