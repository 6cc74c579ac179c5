package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hometasks/internal/telemetry"
)

var ErrInvalidPassword = errors.New("invalid password")

// PasswordParam is the query parameter accepted as an alternative to the
// login form, for bookmarkable links.
const PasswordParam = "password"

type Options struct {
	Password     string
	CookieName   string
	SessionTTL   time.Duration
	CookieSecure bool
	Logger       logrus.FieldLogger
	Events       telemetry.Recorder
}

// Service gates the app behind one shared password. With an empty password
// every request is let through.
type Service struct {
	password []byte
	sessions *MemorySessions
	log      logrus.FieldLogger
	events   telemetry.Recorder

	cookieName   string
	sessionTTL   time.Duration
	cookieSecure bool
	now          func() time.Time
}

func NewService(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Events == nil {
		opts.Events = telemetry.Nop{}
	}
	if opts.CookieName == "" {
		opts.CookieName = "hometasks_session"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * 24 * time.Hour
	}
	s := &Service{
		password:     []byte(opts.Password),
		sessions:     NewMemorySessions(),
		log:          opts.Logger,
		events:       opts.Events,
		cookieName:   opts.CookieName,
		sessionTTL:   opts.SessionTTL,
		cookieSecure: opts.CookieSecure,
		now:          time.Now,
	}
	if !s.Enabled() {
		s.log.Warn("auth.password is empty, access gate disabled")
	}
	return s
}

func (s *Service) Enabled() bool {
	return len(s.password) > 0
}

func (s *Service) CheckPassword(candidate string) bool {
	if !s.Enabled() {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(candidate), s.password) == 1
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Login starts a session when the password matches and returns its token.
func (s *Service) Login(password string, now time.Time) (string, time.Time, error) {
	if !s.CheckPassword(password) {
		_ = s.events.RecordEvent(telemetry.EventLoginFailed, nil)
		return "", time.Time{}, ErrInvalidPassword
	}
	token := uuid.NewString()
	exp := now.Add(s.sessionTTL)
	s.sessions.Create(Session{
		ID:        uuid.NewString(),
		TokenHash: hashToken(token),
		CreatedAt: now,
		LastSeen:  now,
		ExpiresAt: exp,
	})
	s.sessions.PruneExpired(now)
	return token, exp, nil
}

func (s *Service) AuthenticateRequest(r *http.Request, now time.Time) (Session, bool) {
	if !s.Enabled() {
		return Session{}, true
	}
	cookie, err := r.Cookie(s.cookieName)
	if err != nil || cookie.Value == "" {
		return Session{}, false
	}

	sess, ok := s.sessions.GetByTokenHash(hashToken(cookie.Value))
	if !ok {
		return Session{}, false
	}
	if now.After(sess.ExpiresAt) {
		s.sessions.Delete(sess.ID)
		return Session{}, false
	}

	if now.Sub(sess.LastSeen) >= 5*time.Minute {
		s.sessions.Touch(sess.ID, now)
		sess.LastSeen = now
	}
	return sess, true
}

func (s *Service) RevokeSessionForRequest(r *http.Request) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil || cookie.Value == "" {
		return
	}
	if sess, ok := s.sessions.GetByTokenHash(hashToken(cookie.Value)); ok {
		s.sessions.Delete(sess.ID)
	}
}

func (s *Service) shouldUseSecureCookie(r *http.Request) bool {
	if s.cookieSecure || r.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}

func (s *Service) SetSessionCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   s.shouldUseSecureCookie(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Service) ClearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.shouldUseSecureCookie(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// loginFromQuery handles ?password= on a page request. On success it sets the
// session cookie and redirects to the same URL without the password.
func (s *Service) loginFromQuery(w http.ResponseWriter, r *http.Request) bool {
	q := r.URL.Query()
	if !q.Has(PasswordParam) {
		return false
	}
	token, exp, err := s.Login(q.Get(PasswordParam), s.now())
	if err != nil {
		s.log.WithField("path", r.URL.Path).Warn("login via query rejected")
		return false
	}
	s.SetSessionCookie(w, r, token, exp)
	q.Del(PasswordParam)
	target := url.URL{Path: r.URL.Path, RawQuery: q.Encode()}
	http.Redirect(w, r, target.String(), http.StatusSeeOther)
	return true
}

func (s *Service) RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.AuthenticateRequest(r, s.now())
		if !ok {
			if s.loginFromQuery(w, r) {
				return
			}
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(withSessionContext(r.Context(), sess)))
	})
}

func (s *Service) RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.AuthenticateRequest(r, s.now())
		if !ok {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(withSessionContext(r.Context(), sess)))
	})
}
