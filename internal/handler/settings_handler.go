package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"coursebook/internal/service"
)

// SettingsHandler handles studio-wide settings endpoints. Admin only.
type SettingsHandler struct {
	settingsService service.SettingsService
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(settingsService service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// UpsertSettingRequest sets one setting key to a JSON value.
type UpsertSettingRequest struct {
	Key   string          `json:"key" validate:"required"`
	Value json.RawMessage `json:"value" validate:"required"`
}

// List godoc
// @Summary List all stored settings
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.GlobalSetting
// @Router /admin/settings [get]
func (h *SettingsHandler) List(c echo.Context) error {
	settings, err := h.settingsService.List(c.Request().Context())
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, settings)
}

// Effective godoc
// @Summary Get the effective settings with defaults applied
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Settings
// @Router /admin/settings/effective [get]
func (h *SettingsHandler) Effective(c echo.Context) error {
	settings, err := h.settingsService.Load(c.Request().Context())
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, settings)
}

// Upsert godoc
// @Summary Create or update a setting
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpsertSettingRequest true "Setting"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/settings [put]
func (h *SettingsHandler) Upsert(c echo.Context) error {
	var req UpsertSettingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.settingsService.Upsert(c.Request().Context(), req.Key, req.Value); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Setting saved"})
}
