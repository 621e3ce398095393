package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller. Service principals hold the shared
// API token and may act for any user.
type Principal struct {
	UserID  string
	Service bool
}

// Authenticator accepts HS256 bearer tokens issued by the identity provider,
// whose subject is the user id, and the static service token used by the
// voice-agent bridge. With neither configured every request is let through.
type Authenticator struct {
	secret   []byte
	issuer   string
	apiToken string
}

func NewAuthenticator(jwtSecret, issuer, apiToken string) *Authenticator {
	a := &Authenticator{issuer: issuer, apiToken: apiToken}
	if jwtSecret != "" {
		a.secret = []byte(jwtSecret)
	}
	return a
}

func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0 || a.apiToken != ""
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.Fields(r.Header.Get("Authorization"))
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		p, err := a.authenticate(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), principalKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) authenticate(token string) (Principal, error) {
	if a.apiToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(a.apiToken)) == 1 {
		return Principal{Service: true}, nil
	}
	if len(a.secret) == 0 {
		return Principal{}, fmt.Errorf("jwt authentication not configured")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return Principal{}, fmt.Errorf("parse token: %w", err)
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || strings.TrimSpace(sub) == "" {
		return Principal{}, fmt.Errorf("token has no subject")
	}
	return Principal{UserID: sub}, nil
}

// PrincipalFrom returns the caller, if the request was authenticated.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// canActFor reports whether the caller may read or write userID's data.
// Unauthenticated requests only reach handlers when auth is disabled.
func canActFor(r *http.Request, userID string) bool {
	p, ok := PrincipalFrom(r.Context())
	if !ok || p.Service {
		return true
	}
	return p.UserID == userID
}
