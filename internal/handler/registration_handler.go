package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"coursebook/internal/service"
)

// RegistrationHandler handles enrollment endpoints.
type RegistrationHandler struct {
	regService  service.RegistrationService
	userService service.UserService
}

// NewRegistrationHandler creates a new registration handler.
func NewRegistrationHandler(regService service.RegistrationService, userService service.UserService) *RegistrationHandler {
	return &RegistrationHandler{regService: regService, userService: userService}
}

// Register godoc
// @Summary Register for a course, joining the waitlist when full
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} service.RegistrationResult
// @Failure 404 {object} errors.ErrorResponse
// @Router /courses/{id}/register [post]
func (h *RegistrationHandler) Register(c echo.Context) error {
	userID, err := CurrentUserID(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	result, err := h.regService.Register(c.Request().Context(), courseID, userID)
	if err != nil {
		return domainError(err)
	}
	if !result.Success {
		return c.JSON(http.StatusConflict, result)
	}
	return c.JSON(http.StatusOK, result)
}

// Unregister godoc
// @Summary Cancel a registration, promoting the waitlist head if a seat frees
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} service.RegistrationResult
// @Failure 404 {object} errors.ErrorResponse
// @Router /courses/{id}/unregister [post]
func (h *RegistrationHandler) Unregister(c echo.Context) error {
	userID, err := CurrentUserID(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	result, err := h.regService.Unregister(c.Request().Context(), courseID, userID)
	if err != nil {
		return domainError(err)
	}
	if !result.Success {
		return c.JSON(http.StatusConflict, result)
	}
	return c.JSON(http.StatusOK, result)
}

// ListMine godoc
// @Summary List the current user's active registrations
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Registration
// @Router /registrations [get]
func (h *RegistrationHandler) ListMine(c echo.Context) error {
	userID, err := CurrentUserID(c)
	if err != nil {
		return err
	}
	regs, err := h.regService.ListMine(c.Request().Context(), userID)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, regs)
}

// ListByCourse godoc
// @Summary List active registrations of a course
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {array} model.Registration
// @Failure 403 {object} errors.ErrorResponse
// @Router /courses/{id}/registrations [get]
func (h *RegistrationHandler) ListByCourse(c echo.Context) error {
	userID, err := CurrentUserID(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	// Leaders see their own courses, admins everything. The service applies
	// the same ownership rule as the participant CSV export.
	actor, err := h.userService.GetUser(c.Request().Context(), userID)
	if err != nil {
		return domainError(err)
	}

	regs, err := h.regService.ListByCourse(c.Request().Context(), actor, courseID)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, regs)
}
