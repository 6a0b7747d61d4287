package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dncore/swi/internal/db"
	"github.com/dncore/swi/pkg/types"
)

type contextKey string

const (
	// ContextKeyUser is the echo context key for the authenticated user.
	ContextKeyUser contextKey = "swi_user"
	// SessionCookieName is the cookie carrying the opaque session token.
	SessionCookieName = "swi_session"
)

// SetUser stores the authenticated user in the echo context.
func SetUser(c echo.Context, u *types.User) {
	c.Set(string(ContextKeyUser), u)
}

// GetUser retrieves the authenticated user from the echo context.
func GetUser(c echo.Context) (*types.User, bool) {
	v := c.Get(string(ContextKeyUser))
	if v == nil {
		return nil, false
	}
	u, ok := v.(*types.User)
	return u, ok
}

// SessionMiddleware validates the session cookie against the store and
// attaches the resolved user to the request context. Requests without a
// valid session are rejected with 401 before reaching the handler.
func SessionMiddleware(store *db.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
			}

			sess, err := store.GetSession(c.Request().Context(), cookie.Value)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "session expired or invalid"})
			}

			user, err := store.GetUser(c.Request().Context(), sess.UserID)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "user no longer exists"})
			}

			SetUser(c, user)
			return next(c)
		}
	}
}

// RequirePermission rejects requests whose authenticated user lacks perm.
// Must run after SessionMiddleware.
func RequirePermission(perm types.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := GetUser(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
			}
			if user.Permission&perm != perm {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "insufficient permission"})
			}
			return next(c)
		}
	}
}

// DownloadGrantMiddleware validates a JWT-based download grant passed as
// a ?token= query parameter instead of the session cookie, and rejects a
// grant whose backup id differs from the :id route parameter. No route in
// internal/api is registered with it.
func DownloadGrantMiddleware(issuer *DownloadIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr := c.QueryParam("token")
			if tokenStr == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing download token"})
			}
			claims, err := issuer.ValidateDownloadGrant(tokenStr)
			if err != nil {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "invalid download token: " + err.Error()})
			}
			if claims.BackupID != c.Param("id") {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "token not valid for this backup"})
			}
			c.Set("download_user_id", claims.Subject)
			return next(c)
		}
	}
}
