package auth

import (
	"net/http"
	"strings"

	"github.com/gorilla/securecookie"
)

// CredentialTransport carries the session credential between client and
// server. Exactly one implementation is active per deployment; both sit on
// top of the same session resolver.
type CredentialTransport interface {
	// Extract reads the credential from the request. ok reports whether a
	// credential was presented at all; err is ErrInvalidCredential when one
	// was presented but failed verification.
	Extract(r *http.Request) (sessionID int, ok bool, err error)
	// Issue binds a fresh credential for sessionID to the response. The
	// returned token is non-empty only for transports that hand the
	// credential back in the response body.
	Issue(w http.ResponseWriter, sessionID int) (token string, err error)
	// Clear removes any response-side credential state (cookies).
	Clear(w http.ResponseWriter)
}

// BearerTransport carries a signed claim in the Authorization header.
type BearerTransport struct {
	Codec *TokenCodec
}

func (t *BearerTransport) Extract(r *http.Request) (int, bool, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return 0, false, nil
	}
	tokenStr := strings.TrimPrefix(header, "Bearer ")
	if tokenStr == header {
		return 0, true, ErrInvalidCredential
	}
	id, err := t.Codec.Verify(tokenStr)
	if err != nil {
		return 0, true, err
	}
	return id, true, nil
}

func (t *BearerTransport) Issue(_ http.ResponseWriter, sessionID int) (string, error) {
	return t.Codec.Sign(sessionID)
}

func (t *BearerTransport) Clear(http.ResponseWriter) {}

const sessionCookie = "session"

// CookieTransport carries the session row id in a signed cookie.
type CookieTransport struct {
	sc *securecookie.SecureCookie
}

func NewCookieTransport(secret []byte) *CookieTransport {
	return &CookieTransport{sc: securecookie.New(secret, nil)}
}

func (t *CookieTransport) Extract(r *http.Request) (int, bool, error) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return 0, false, nil
	}
	var id int
	if err := t.sc.Decode(sessionCookie, cookie.Value, &id); err != nil {
		return 0, true, ErrInvalidCredential
	}
	return id, true, nil
}

func (t *CookieTransport) Issue(w http.ResponseWriter, sessionID int) (string, error) {
	encoded, err := t.sc.Encode(sessionCookie, sessionID)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return "", nil
}

func (t *CookieTransport) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
