package gate

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionName = "razberry_gate"

	keyFreeStoryUsed = "freeStoryUsed"
	keyTestMode      = "testMode"
	keyWantsContinue = "wantsContinue"
	keyPaywallShown  = "paywallShown"

	sessionMaxAgeSeconds = 60 * 60 * 24 * 365
)

// SessionStore persists gate flags in a cookie session, the server-side
// analog of the web client's local storage markers.
type SessionStore struct {
	store *sessions.CookieStore
}

func NewSessionStore(secret string, secure bool) *SessionStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.Path = "/"
	store.Options.MaxAge = sessionMaxAgeSeconds
	return &SessionStore{store: store}
}

// Load reads the gate flags from the request. Absent or malformed flags
// read as false, which means a fresh visitor.
func (s *SessionStore) Load(r *http.Request) Flags {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		return Flags{}
	}
	return Flags{
		FreeStoryUsed: sessionBool(session, keyFreeStoryUsed),
		TestMode:      sessionBool(session, keyTestMode),
		WantsContinue: sessionBool(session, keyWantsContinue),
		PaywallShown:  sessionBool(session, keyPaywallShown),
	}
}

// Save writes the gate flags back to the response cookie
func (s *SessionStore) Save(w http.ResponseWriter, r *http.Request, flags Flags) error {
	session, _ := s.store.Get(r, sessionName)
	session.Values[keyFreeStoryUsed] = flags.FreeStoryUsed
	session.Values[keyTestMode] = flags.TestMode
	session.Values[keyWantsContinue] = flags.WantsContinue
	session.Values[keyPaywallShown] = flags.PaywallShown
	return session.Save(r, w)
}

func sessionBool(session *sessions.Session, key string) bool {
	value, ok := session.Values[key].(bool)
	return ok && value
}
