package server

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/iwvelando/studio-forecast/pkg/constants"
)

const sessionSubject = "dashboard"

var errNoSession = errors.New("no session token")

// sessionAuth is the shared-password login gate. A nil *sessionAuth lets
// every request through.
type sessionAuth struct {
	password []byte
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// newSessionAuth returns nil when no password is configured. Without a
// configured secret a random one is generated, so sessions end on restart.
func newSessionAuth(cfg AuthConfig) (*sessionAuth, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
	}
	return &sessionAuth{
		password: []byte(cfg.Password),
		secret:   secret,
		ttl:      cfg.SessionTTLDuration(),
		now:      time.Now,
	}, nil
}

func (a *sessionAuth) enabled() bool {
	return a != nil
}

func (a *sessionAuth) checkPassword(candidate string) bool {
	return subtle.ConstantTimeCompare(a.password, []byte(candidate)) == 1
}

// issue signs a new session token and returns it with its expiry.
func (a *sessionAuth) issue() (string, time.Time, error) {
	now := a.now()
	expires := now.Add(a.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   sessionSubject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, expires, nil
}

func (a *sessionAuth) verify(token string) error {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(sessionSubject),
		jwt.WithTimeFunc(a.now),
	)
	return err
}

// tokenFrom reads the session from the cookie or a bearer header.
func tokenFrom(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token), nil
		}
	}
	cookie, err := r.Cookie(constants.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", errNoSession
	}
	return cookie.Value, nil
}

func (a *sessionAuth) authenticated(r *http.Request) bool {
	if !a.enabled() {
		return true
	}
	token, err := tokenFrom(r)
	if err != nil {
		return false
	}
	return a.verify(token) == nil
}

func sessionCookie(token string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func clearedSessionCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
