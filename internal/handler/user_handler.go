package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"coursebook/internal/model"
	"coursebook/internal/service"
)

// UserHandler handles profile and admin user management endpoints.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ProfileRequest represents editable profile fields.
type ProfileRequest struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Street      string `json:"street"`
	HouseNumber string `json:"house_number"`
	PostalCode  string `json:"postal_code"`
	City        string `json:"city"`
	Phone       string `json:"phone"`
}

// CreateUserRequest represents an admin-created account.
type CreateUserRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	Roles    []string `json:"roles" validate:"omitempty,dive,oneof=admin course_leader participant"`
	ProfileRequest
}

// UpdateRolesRequest replaces a user's role set.
type UpdateRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,oneof=admin course_leader participant"`
}

// AdminResetPasswordRequest sets a user's password directly.
type AdminResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

func (r *ProfileRequest) toInput() service.ProfileInput {
	return service.ProfileInput{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Street:      r.Street,
		HouseNumber: r.HouseNumber,
		PostalCode:  r.PostalCode,
		City:        r.City,
		Phone:       r.Phone,
	}
}

func toRoles(names []string) []model.Role {
	roles := make([]model.Role, 0, len(names))
	for _, name := range names {
		roles = append(roles, model.Role(name))
	}
	return roles
}

// Me godoc
// @Summary Get the current user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Router /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	userID, err := CurrentUserID(c)
	if err != nil {
		return err
	}
	user, err := h.userService.GetUser(c.Request().Context(), userID)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateMe godoc
// @Summary Update the current user's profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProfileRequest true "Profile"
// @Success 200 {object} model.User
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	userID, err := CurrentUserID(c)
	if err != nil {
		return err
	}

	var req ProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	actor, err := h.userService.GetUser(c.Request().Context(), userID)
	if err != nil {
		return domainError(err)
	}

	user, err := h.userService.UpdateProfile(c.Request().Context(), actor, userID, req.toInput())
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// List godoc
// @Summary List all users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.User
// @Router /admin/users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, users)
}

// Get godoc
// @Summary Get a user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} model.User
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	targetID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.userService.GetUser(c.Request().Context(), targetID)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// Create godoc
// @Summary Create a user account with roles
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateUserRequest true "Account data"
// @Success 201 {object} model.User
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req CreateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userService.CreateUser(c.Request().Context(), req.Email, req.Password, toRoles(req.Roles), req.toInput())
	if err != nil {
		if err == service.ErrUserAlreadyExists {
			return echo.NewHTTPError(http.StatusConflict, "user already exists")
		}
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

// UpdateProfile godoc
// @Summary Update any user's profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body ProfileRequest true "Profile"
// @Success 200 {object} model.User
// @Router /admin/users/{id} [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	actorID, err := CurrentUserID(c)
	if err != nil {
		return err
	}
	targetID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	actor, err := h.userService.GetUser(c.Request().Context(), actorID)
	if err != nil {
		return domainError(err)
	}

	user, err := h.userService.UpdateProfile(c.Request().Context(), actor, targetID, req.toInput())
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateRoles godoc
// @Summary Replace a user's roles
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body UpdateRolesRequest true "Roles"
// @Success 200 {object} model.User
// @Router /admin/users/{id}/roles [put]
func (h *UserHandler) UpdateRoles(c echo.Context) error {
	targetID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateRolesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userService.UpdateRoles(c.Request().Context(), targetID, toRoles(req.Roles))
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// Delete godoc
// @Summary Delete a user and their registrations
// @Description Admins cannot delete their own account.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	actorID, err := CurrentUserID(c)
	if err != nil {
		return err
	}
	targetID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.userService.DeleteUser(c.Request().Context(), actorID, targetID); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "User deleted"})
}

// ResetPassword godoc
// @Summary Set a new password for a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body AdminResetPasswordRequest true "New password"
// @Success 200 {object} MessageResponse
// @Router /admin/users/{id}/password [put]
func (h *UserHandler) ResetPassword(c echo.Context) error {
	targetID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req AdminResetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.userService.AdminResetPassword(c.Request().Context(), targetID, req.NewPassword); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Password updated"})
}
