package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vendora/vendora/store"
)

// CreateUserRequest is the request body for creating a user.
type CreateUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatar_url"`
}

// UpdateUserRequest is the request body for updating a user.
type UpdateUserRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Nickname  *string `json:"nickname"`
	AvatarURL *string `json:"avatar_url"`
}

// GetUser returns a user by id.
// GET /api/v1/users/:id
func (s *APIV1Service) GetUser(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	user, err := s.Store.GetUser(c.Request().Context(), &store.FindUser{ID: &id})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get user").SetInternal(err)
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.JSON(http.StatusOK, user)
}

// CreateUser creates a user.
// POST /api/v1/users
func (s *APIV1Service) CreateUser(c echo.Context) error {
	request := &CreateUserRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}
	if request.Username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username is required")
	}

	user, err := s.Store.CreateUser(c.Request().Context(), &store.User{
		Username:  request.Username,
		Email:     request.Email,
		Nickname:  request.Nickname,
		AvatarURL: request.AvatarURL,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create user").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, user)
}

// UpdateUser updates a user.
// PATCH /api/v1/users/:id
func (s *APIV1Service) UpdateUser(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	request := &UpdateUserRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}

	user, err := s.Store.UpdateUser(c.Request().Context(), &store.UpdateUser{
		ID:        id,
		Username:  request.Username,
		Email:     request.Email,
		Nickname:  request.Nickname,
		AvatarURL: request.AvatarURL,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update user").SetInternal(err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser deletes a user.
// DELETE /api/v1/users/:id
func (s *APIV1Service) DeleteUser(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	if err := s.Store.DeleteUser(c.Request().Context(), &store.DeleteUser{ID: id}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete user").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func parseID(raw string) (int32, error) {
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(id), nil
}
