package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dncore/swi/internal/auth"
	"github.com/dncore/swi/internal/db"
	"github.com/dncore/swi/pkg/types"
)

func (s *Server) registerUserRoutes(g *echo.Group) {
	g.GET("/users", s.listUsers, auth.RequirePermission(types.PermUserManage))
	g.POST("/user/add", s.addUser, auth.RequirePermission(types.PermUserManage))
	g.DELETE("/user/remove", s.removeUser, auth.RequirePermission(types.PermUserManage))
}

func (s *Server) listUsers(c echo.Context) error {
	users, err := s.store.ListUsers(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

type addUserRequest struct {
	Name       string          `json:"name"`
	Password   string          `json:"password"`
	Permission types.Permission `json:"permission"`
}

func (s *Server) addUser(c echo.Context) error {
	var req addUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Code: "INVALID_REQUEST", Error: err.Error()})
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return writeError(c, err)
	}
	u := &types.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		PasswordHash: hash,
		Permission:   req.Permission,
		CreatedAt:    time.Now(),
	}
	if err := s.store.CreateUser(c.Request().Context(), u); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (s *Server) removeUser(c echo.Context) error {
	id := c.QueryParam("id")
	if _, err := s.store.GetUser(c.Request().Context(), id); err != nil {
		if err == db.ErrNotFound {
			return writeError(c, errNotExistsUser)
		}
		return writeError(c, err)
	}
	if err := s.store.DeleteUser(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
