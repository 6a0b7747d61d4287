package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dncore/swi/internal/auth"
	"github.com/dncore/swi/internal/metrics"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Username   string `json:"username"`
	Permission int    `json:"permission"`
}

// login verifies credentials, rotates a fresh session token, and sets the
// session cookie with an absolute expiry matching auth.SessionTTL.
func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Code: "INVALID_REQUEST", Error: err.Error()})
	}

	sess, err := auth.Login(c.Request().Context(), s.store, req.Username, req.Password)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
		return c.JSON(http.StatusUnauthorized, apiError{Code: "INVALID_AUTHENTICATION_CREDENTIALS", Error: "invalid username or password"})
	}
	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	s.store.TouchLastAddress(c.Request().Context(), sess.UserID, c.RealIP())

	user, err := s.store.GetUser(c.Request().Context(), sess.UserID)
	if err != nil {
		return writeError(c, err)
	}

	c.SetCookie(&http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, loginResponse{Username: user.Name, Permission: int(user.Permission)})
}

// probeLogin reports whether the caller's current session cookie, if any,
// is still valid — used by clients to skip the login form on revisit.
func (s *Server) probeLogin(c echo.Context) error {
	cookie, err := c.Cookie(auth.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, apiError{Code: "INVALID_AUTHENTICATION_CREDENTIALS", Error: "not authenticated"})
	}

	sess, err := s.store.GetSession(c.Request().Context(), cookie.Value)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, apiError{Code: "INVALID_AUTHENTICATION_CREDENTIALS", Error: "session expired or invalid"})
	}
	user, err := s.store.GetUser(c.Request().Context(), sess.UserID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, apiError{Code: "INVALID_AUTHENTICATION_CREDENTIALS", Error: "user no longer exists"})
	}

	return c.JSON(http.StatusOK, loginResponse{Username: user.Name, Permission: int(user.Permission)})
}

// logout deletes the caller's session, server-side, and clears the cookie.
func (s *Server) logout(c echo.Context) error {
	if cookie, err := c.Cookie(auth.SessionCookieName); err == nil && cookie.Value != "" {
		_ = s.store.DeleteSession(c.Request().Context(), cookie.Value)
	}
	c.SetCookie(&http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return c.NoContent(http.StatusNoContent)
}
