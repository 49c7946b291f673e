package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"coursebook/internal/errors"
	"coursebook/internal/model"
	"coursebook/internal/service"
)

// CourseHandler handles course management endpoints.
type CourseHandler struct {
	courseService service.CourseService
	userService   service.UserService
}

// NewCourseHandler creates a new course handler.
func NewCourseHandler(courseService service.CourseService, userService service.UserService) *CourseHandler {
	return &CourseHandler{courseService: courseService, userService: userService}
}

// CourseRequest represents the course form.
type CourseRequest struct {
	Title           string `json:"title" validate:"required"`
	Description     string `json:"description"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime       string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime         string `json:"end_time" validate:"omitempty,datetime=15:04"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,min=1"`
	Location        string `json:"location"`
	Room            string `json:"room"`
	MaxParticipants int    `json:"max_participants" validate:"omitempty,min=1"`
	Price           string `json:"price" validate:"omitempty"`
	Prerequisites   string `json:"prerequisites"`
	Frequency       string `json:"frequency" validate:"omitempty,oneof=one_time weekly"`
	Occurrences     int    `json:"occurrences" validate:"omitempty,min=1,max=52"`
}

// StatusRequest changes a course status.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active canceled not_planned"`
}

func (r *CourseRequest) toInput() (service.CourseInput, error) {
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return service.CourseInput{}, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid date",
			Code:  "VALIDATION_ERROR",
		})
	}

	price := decimal.Zero
	if r.Price != "" {
		price, err = decimal.NewFromString(r.Price)
		if err != nil {
			return service.CourseInput{}, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
				Error: "invalid price",
				Code:  "VALIDATION_ERROR",
			})
		}
	}

	frequency := model.CourseFrequency(r.Frequency)
	if frequency == "" {
		frequency = model.FrequencyOneTime
	}

	return service.CourseInput{
		Title:           r.Title,
		Description:     r.Description,
		Date:            date,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		DurationMinutes: r.DurationMinutes,
		Location:        r.Location,
		Room:            r.Room,
		MaxParticipants: r.MaxParticipants,
		Price:           price,
		Prerequisites:   r.Prerequisites,
		Frequency:       frequency,
		Occurrences:     r.Occurrences,
	}, nil
}

// updateScope reads the ?scope= query parameter, defaulting to single.
func updateScope(c echo.Context) service.UpdateScope {
	if c.QueryParam("scope") == string(service.ScopeSeries) {
		return service.ScopeSeries
	}
	return service.ScopeSingle
}

func (h *CourseHandler) actor(c echo.Context) (*model.User, error) {
	userID, err := CurrentUserID(c)
	if err != nil {
		return nil, err
	}
	actor, err := h.userService.GetUser(c.Request().Context(), userID)
	if err != nil {
		return nil, domainError(err)
	}
	return actor, nil
}

// List godoc
// @Summary List upcoming courses with availability
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.CourseWithAvailability
// @Router /courses [get]
func (h *CourseHandler) List(c echo.Context) error {
	courses, err := h.courseService.ListCatalog(c.Request().Context())
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, courses)
}

// Get godoc
// @Summary Get a course with availability
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} service.CourseWithAvailability
// @Failure 404 {object} errors.ErrorResponse
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c echo.Context) error {
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	course, err := h.courseService.Get(c.Request().Context(), courseID)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, course)
}

// Create godoc
// @Summary Create a course or weekly series
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CourseRequest true "Course data"
// @Success 201 {array} model.Course
// @Failure 403 {object} errors.ErrorResponse
// @Router /courses [post]
func (h *CourseHandler) Create(c echo.Context) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}

	var req CourseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	input, err := req.toInput()
	if err != nil {
		return err
	}

	courses, err := h.courseService.Create(c.Request().Context(), actor, input)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, courses)
}

// Update godoc
// @Summary Update a course instance or its whole series
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param scope query string false "single or series" default(single)
// @Param request body CourseRequest true "Course data"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c echo.Context) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req CourseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	input, err := req.toInput()
	if err != nil {
		return err
	}

	if err := h.courseService.Update(c.Request().Context(), actor, courseID, input, updateScope(c)); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Course updated"})
}

// SetStatus godoc
// @Summary Change course status (e.g. cancel a class)
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param scope query string false "single or series" default(single)
// @Param request body StatusRequest true "New status"
// @Success 200 {object} MessageResponse
// @Router /courses/{id}/status [patch]
func (h *CourseHandler) SetStatus(c echo.Context) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req StatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.courseService.SetStatus(c.Request().Context(), actor, courseID, model.CourseStatus(req.Status), updateScope(c)); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Status updated"})
}

// Delete godoc
// @Summary Delete a course instance or its whole series
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param scope query string false "single or series" default(single)
// @Success 200 {object} MessageResponse
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c echo.Context) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.courseService.Delete(c.Request().Context(), actor, courseID, updateScope(c)); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Course deleted"})
}

// ListMine godoc
// @Summary List the courses taught by the current user
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Course
// @Router /courses/teaching [get]
func (h *CourseHandler) ListMine(c echo.Context) error {
	userID, err := CurrentUserID(c)
	if err != nil {
		return err
	}
	courses, err := h.courseService.ListByTeacher(c.Request().Context(), userID)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, courses)
}
