package echoapi

import (
	"net/http"
	"sync"

	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kavinkishorej-ui/academia/core"
	"github.com/kavinkishorej-ui/academia/core/session"
	"github.com/kavinkishorej-ui/academia/core/user"
)

const (
	sessionCookieName = "academia_session"
	sessionContextKey = "session"
)

var (
	cookieCodec     *securecookie.SecureCookie
	cookieCodecInit sync.Once

	errNoContextSession = errors.New("session not found in echo.Context")
)

// codec signs the cookie value so a tampered token never reaches the store.
func codec() *securecookie.SecureCookie {
	cookieCodecInit.Do(func() {
		cookieCodec = securecookie.New(core.Conf.SecretKey, nil)
	})
	return cookieCodec
}

func setSessionCookie(ctx echo.Context, s session.Session) error {
	encoded, err := codec().Encode(sessionCookieName, s.Token)
	if err != nil {
		return errors.Wrap(err, "encoding session cookie")
	}
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    encoded,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   !core.Conf.Debug,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !core.Conf.Debug,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionToken(ctx echo.Context) (string, error) {
	cookie, err := ctx.Cookie(sessionCookieName)
	if err != nil {
		return "", err
	}
	var token string
	if err = codec().Decode(sessionCookieName, cookie.Value, &token); err != nil {
		return "", err
	}
	return token, nil
}

// sessionMiddleware resolves the session cookie and stashes the session in
// the request context. Missing, tampered and expired sessions all end in 401.
func sessionMiddleware(sessions session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token, err := sessionToken(ctx)
			if err != nil {
				return errUnauthorized
			}
			s, err := sessions.Get(ctx.Request().Context(), token)
			if err != nil {
				if errors.Cause(err) == session.ErrNotFound {
					return errUnauthorized
				}
				return errors.Wrap(err, "resolving session")
			}
			ctx.Set(sessionContextKey, s)
			return next(ctx)
		}
	}
}

func roleMiddleware(role user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			s, err := getContextSession(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context session")
			}
			if s.Role != role {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

func getContextSession(ctx echo.Context) (session.Session, error) {
	if s, ok := ctx.Get(sessionContextKey).(session.Session); ok {
		return s, nil
	}
	return session.Session{}, errNoContextSession
}
