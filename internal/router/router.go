package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"coursebook/internal/auth"
	"coursebook/internal/handler"
	"coursebook/internal/model"
)

// CustomValidator adapts go-playground/validator to Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate runs struct validation.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// requireRole gates a route group on a claims role.
func requireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get("user").(*auth.Claims)
			if !ok || claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			for _, role := range roles {
				if claims.HasRole(role) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	jwtService *auth.JWTService,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	courseHandler *handler.CourseHandler,
	registrationHandler *handler.RegistrationHandler,
	messageHandler *handler.MessageHandler,
	settingsHandler *handler.SettingsHandler,
	exportHandler *handler.ExportHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.SignUp)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)
	api.POST("/auth/forgot-password", authHandler.RequestPasswordReset)
	api.POST("/auth/reset-password", authHandler.ResetPassword)
	api.POST("/auth/verify-email", authHandler.VerifyEmail)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:" + echo.HeaderAuthorization,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return jwtService.ValidateToken(token)
		},
	}))

	secured.POST("/auth/send-verification", authHandler.SendVerificationEmail)

	secured.GET("/users/me", userHandler.Me)
	secured.PUT("/users/me", userHandler.UpdateMe)

	secured.GET("/courses", courseHandler.List)
	secured.GET("/courses/:id", courseHandler.Get)

	secured.GET("/registrations", registrationHandler.ListMine)
	secured.POST("/courses/:id/register", registrationHandler.Register)
	secured.POST("/courses/:id/unregister", registrationHandler.Unregister)

	secured.POST("/messages", messageHandler.Send)
	secured.GET("/messages/inbox", messageHandler.Inbox)
	secured.GET("/messages/sent", messageHandler.Sent)
	secured.PATCH("/messages/:id/read", messageHandler.MarkRead)

	// Leader routes: course leaders and admins
	leading := secured.Group("", requireRole(model.RoleCourseLeader, model.RoleAdmin))
	leading.POST("/courses", courseHandler.Create)
	leading.PUT("/courses/:id", courseHandler.Update)
	leading.PATCH("/courses/:id/status", courseHandler.SetStatus)
	leading.DELETE("/courses/:id", courseHandler.Delete)
	leading.GET("/courses/teaching", courseHandler.ListMine)
	leading.GET("/courses/:id/registrations", registrationHandler.ListByCourse)
	leading.GET("/courses/:id/participants.csv", exportHandler.ParticipantsCSV)

	// Admin routes
	admin := secured.Group("/admin", requireRole(model.RoleAdmin))
	admin.GET("/dashboard", exportHandler.Dashboard)
	admin.GET("/settings", settingsHandler.List)
	admin.GET("/settings/effective", settingsHandler.Effective)
	admin.PUT("/settings", settingsHandler.Upsert)
	admin.GET("/users", userHandler.List)
	admin.POST("/users", userHandler.Create)
	admin.GET("/users/:id", userHandler.Get)
	admin.PUT("/users/:id", userHandler.UpdateProfile)
	admin.PUT("/users/:id/roles", userHandler.UpdateRoles)
	admin.PUT("/users/:id/password", userHandler.ResetPassword)
	admin.DELETE("/users/:id", userHandler.Delete)
}
