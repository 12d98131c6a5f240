package identity

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestIssueAndParse(t *testing.T) {
	is := is.New(t)
	iss, err := NewIssuer("secret", time.Hour)
	is.NoErr(err)
	tok, err := iss.Issue("alice")
	is.NoErr(err)
	name, err := iss.Parse(tok)
	is.NoErr(err)
	is.Equal(name, "alice")
}

func TestParseRejectsForeignAndExpiredTokens(t *testing.T) {
	is := is.New(t)
	a, _ := NewIssuer("secret-a", time.Hour)
	b, _ := NewIssuer("secret-b", time.Hour)
	tok, err := a.Issue("alice")
	is.NoErr(err)
	_, err = b.Parse(tok)
	is.True(errors.Is(err, ErrInvalidToken))

	base := time.Now()
	a.now = func() time.Time { return base }
	tok, err = a.Issue("alice")
	is.NoErr(err)
	a.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, err = a.Parse(tok)
	is.True(errors.Is(err, ErrInvalidToken))

	_, err = a.Parse("not-a-token")
	is.True(errors.Is(err, ErrInvalidToken))
}

func TestNewIssuerNeedsSecret(t *testing.T) {
	is := is.New(t)
	_, err := NewIssuer("", time.Hour)
	is.True(errors.Is(err, ErrNoSecret))
}

func TestMiddlewareResolvesUsername(t *testing.T) {
	is := is.New(t)
	iss, _ := NewIssuer("secret", time.Hour)
	var seen string
	h := iss.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = Username(r.Context())
	}))

	// cookie
	rr := httptest.NewRecorder()
	is.NoErr(iss.SetCookie(rr, "alice"))
	req := httptest.NewRequest("GET", "/", nil)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	is.Equal(seen, "alice")

	// bearer header
	tok, _ := iss.Issue("bob")
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(httptest.NewRecorder(), req)
	is.Equal(seen, "bob")

	// garbage stays anonymous
	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "junk"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	is.Equal(seen, "")
}
