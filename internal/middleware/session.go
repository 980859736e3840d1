package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	SessionKey contextKey = "session"

	// SessionCookie names the browser session cookie. It has no Max-Age,
	// so it ends with the browser session.
	SessionCookie = "cd_session"
)

// Session makes sure every request carries a session id, issuing a cookie
// when the browser has none or sends a malformed one.
func Session(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(SessionCookie); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					sid = c.Value
				}
			}
			if sid == "" {
				sid = uuid.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sid)))
		})
	}
}

// WithSession stores a session id in the context.
func WithSession(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, SessionKey, sid)
}

// GetSessionFromContext extracts the session id from context
func GetSessionFromContext(ctx context.Context) string {
	if sid, ok := ctx.Value(SessionKey).(string); ok {
		return sid
	}
	return ""
}
