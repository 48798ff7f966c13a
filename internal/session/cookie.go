package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the browser cookie carrying the signed session id.
const CookieName = "clinic_session"

const sessionSubject = "booking-session"

// ErrNoSession is returned when the request carries no valid session cookie.
var ErrNoSession = errors.New("session: no valid session cookie")

// Cookies issues and verifies HMAC signed session id cookies.
type Cookies struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewCookies builds a cookie codec. An empty secret is replaced by a random
// one, so sessions do not survive a restart.
func NewCookies(secret string, ttl time.Duration, secure bool) (*Cookies, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("session: generate secret: %w", err)
		}
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Cookies{secret: key, ttl: ttl, secure: secure, now: time.Now}, nil
}

// Read returns the session id from a valid cookie.
func (c *Cookies) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrNoSession
	}
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithSubject(sessionSubject))
	if err != nil || !token.Valid || claims.ID == "" {
		return "", ErrNoSession
	}
	return claims.ID, nil
}

// Issue creates a new session id and sets its cookie.
func (c *Cookies) Issue(w http.ResponseWriter) (string, error) {
	id := uuid.NewString()
	if err := c.write(w, id); err != nil {
		return "", err
	}
	return id, nil
}

// Ensure returns the request's session id, issuing a new one when missing or
// invalid. The cookie is re-signed on every call so its lifetime slides.
func (c *Cookies) Ensure(w http.ResponseWriter, r *http.Request) (string, error) {
	id, err := c.Read(r)
	if err != nil {
		return c.Issue(w)
	}
	if err := c.write(w, id); err != nil {
		return "", err
	}
	return id, nil
}

func (c *Cookies) write(w http.ResponseWriter, id string) error {
	now := c.now()
	claims := jwt.RegisteredClaims{
		ID:        id,
		Subject:   sessionSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return fmt.Errorf("session: sign cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
