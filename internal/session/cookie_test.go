package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithCookies(cookies []*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/book-appointment", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestCookies_IssueAndRead(t *testing.T) {
	c, err := NewCookies("test-secret", time.Hour, true)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	id, err := c.Issue(rec)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	got, err := c.Read(requestWithCookies(cookies))
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestCookies_EnsureKeepsExistingID(t *testing.T) {
	c, err := NewCookies("test-secret", time.Hour, false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	id, err := c.Ensure(rec, requestWithCookies(nil))
	require.NoError(t, err)

	rec2 := httptest.NewRecorder()
	again, err := c.Ensure(rec2, requestWithCookies(rec.Result().Cookies()))
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Len(t, rec2.Result().Cookies(), 1)
}

func TestCookies_RejectsForeignSignature(t *testing.T) {
	issuer, err := NewCookies("other-secret", time.Hour, false)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	_, err = issuer.Issue(rec)
	require.NoError(t, err)

	verifier, err := NewCookies("test-secret", time.Hour, false)
	require.NoError(t, err)
	_, err = verifier.Read(requestWithCookies(rec.Result().Cookies()))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCookies_RejectsExpired(t *testing.T) {
	c, err := NewCookies("test-secret", time.Minute, false)
	require.NoError(t, err)
	now := time.Now()
	c.now = func() time.Time { return now }

	rec := httptest.NewRecorder()
	_, err = c.Issue(rec)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = c.Read(requestWithCookies(rec.Result().Cookies()))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCookies_RejectsNoneAlgorithm(t *testing.T) {
	c, err := NewCookies("test-secret", time.Hour, false)
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{ID: "forged", Subject: sessionSubject})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = c.Read(requestWithCookies([]*http.Cookie{{Name: CookieName, Value: signed}}))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCookies_RandomSecretWhenEmpty(t *testing.T) {
	a, err := NewCookies("", time.Hour, false)
	require.NoError(t, err)
	b, err := NewCookies("", time.Hour, false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	_, err = a.Issue(rec)
	require.NoError(t, err)
	_, err = b.Read(requestWithCookies(rec.Result().Cookies()))
	assert.ErrorIs(t, err, ErrNoSession)
}
