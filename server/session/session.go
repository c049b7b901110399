package session

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const CookieName = "panic_session"

// Current holds the authenticated identity stored in a request's session.
type Current struct {
	UserID string
	Email  string
}

// Store wraps a cookie-backed session store. The cookie only carries
// the signed session values; user state lives in the database.
type Store struct {
	cookieStore *sessions.CookieStore
	maxAge      time.Duration
}

func NewStore(secret string, maxAgeSeconds int) *Store {
	cookieStore := sessions.NewCookieStore([]byte(secret))
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAgeSeconds,
		HttpOnly: true,
	}

	return &Store{
		cookieStore: cookieStore,
		maxAge:      time.Duration(maxAgeSeconds) * time.Second,
	}
}

// Establish writes a new session for the given user onto the response
// and returns the session expiry time.
func (s *Store) Establish(rw http.ResponseWriter, r *http.Request, userID, email string) (time.Time, error) {
	session, _ := s.cookieStore.Get(r, CookieName)
	session.Values["userId"] = userID
	session.Values["user"] = email

	expiresAt := time.Now().Add(s.maxAge)
	if err := session.Save(r, rw); err != nil {
		return time.Time{}, err
	}

	return expiresAt, nil
}

// Destroy invalidates the session cookie.
func (s *Store) Destroy(rw http.ResponseWriter, r *http.Request) error {
	session, _ := s.cookieStore.Get(r, CookieName)
	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1

	return session.Save(r, rw)
}

// CurrentSession returns the identity stored in the request's session,
// or ok=false when the request carries no valid session.
func (s *Store) CurrentSession(r *http.Request) (Current, bool) {
	session, err := s.cookieStore.Get(r, CookieName)
	if err != nil || session.IsNew {
		return Current{}, false
	}

	userID, ok := session.Values["userId"].(string)
	if !ok || userID == "" {
		return Current{}, false
	}

	email, _ := session.Values["user"].(string)

	return Current{UserID: userID, Email: email}, true
}
