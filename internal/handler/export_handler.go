package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"coursebook/internal/service"
)

// ExportHandler serves participant exports and dashboard aggregates.
type ExportHandler struct {
	exportService service.ExportService
	statsService  service.StatsService
	userService   service.UserService
}

// NewExportHandler creates a new export handler.
func NewExportHandler(
	exportService service.ExportService,
	statsService service.StatsService,
	userService service.UserService,
) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		statsService:  statsService,
		userService:   userService,
	}
}

// ParticipantsCSV godoc
// @Summary Download a course's participant list as CSV
// @Tags exports
// @Produce text/csv
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {string} string "CSV file"
// @Failure 403 {object} errors.ErrorResponse
// @Router /courses/{id}/participants.csv [get]
func (h *ExportHandler) ParticipantsCSV(c echo.Context) error {
	userID, err := CurrentUserID(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	actor, err := h.userService.GetUser(c.Request().Context(), userID)
	if err != nil {
		return domainError(err)
	}

	data, filename, err := h.exportService.ParticipantsCSV(c.Request().Context(), actor, courseID)
	if err != nil {
		return domainError(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", data)
}

// Dashboard godoc
// @Summary Get dashboard counters
// @Tags exports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.DashboardStats
// @Router /admin/dashboard [get]
func (h *ExportHandler) Dashboard(c echo.Context) error {
	stats, err := h.statsService.Dashboard(c.Request().Context())
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, stats)
}
