package main

import (
	"log"
	"net/http"
	"os"

	_ "coursebook/docs" // swagger docs

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"coursebook/internal/auth"
	"coursebook/internal/cache"
	"coursebook/internal/config"
	"coursebook/internal/db"
	"coursebook/internal/handler"
	"coursebook/internal/mail"
	"coursebook/internal/model"
	"coursebook/internal/repository"
	"coursebook/internal/router"
	"coursebook/internal/service"
)

// @title Course Booking API
// @version 1.0
// @description Yoga studio course booking API with capacity-bounded registration, waitlists, and JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}
	cfg := config.Load()

	e := echo.New()

	gormDB, err := db.Connect(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping all tables...")
		tables := []interface{}{
			&model.Message{},
			&model.Registration{},
			&model.AuthToken{},
			&model.Course{},
			&model.GlobalSetting{},
			&model.User{},
		}
		for _, table := range tables {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				log.Printf("Warning: Failed to drop table (may not exist): %v", err)
			}
		}
		log.Println("Tables dropped")
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Registration{},
		&model.Message{},
		&model.GlobalSetting{},
		&model.AuthToken{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	courseRepo := repository.NewCourseRepository(gormDB)
	regRepo := repository.NewRegistrationRepository(gormDB)
	msgRepo := repository.NewMessageRepository(gormDB)
	settingRepo := repository.NewSettingRepository(gormDB)
	tokenRepo := repository.NewTokenRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	var mailer mail.Mailer
	mailer, err = mail.NewSMTPMailer(cfg)
	if err != nil {
		log.Printf("mail: %v, falling back to log output", err)
		mailer = &mail.LogMailer{}
	}

	// Initialize services
	settingsService := service.NewSettingsService(settingRepo, cacheClient)
	tokenService := service.NewTokenService(tokenRepo)
	authService := service.NewAuthService(userRepo, tokenService, settingsService, jwtService, tokenStore, mailer, cfg.AppURL)
	userService := service.NewUserService(userRepo, cacheClient)
	courseService := service.NewCourseService(courseRepo, regRepo, settingsService)
	regService := service.NewRegistrationService(regRepo, courseRepo, settingsService)
	msgService := service.NewMessageService(msgRepo, courseRepo, regRepo)
	exportService := service.NewExportService(courseRepo, regRepo)
	statsService := service.NewStatsService(userRepo, courseRepo, regRepo, cacheClient)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	courseHandler := handler.NewCourseHandler(courseService, userService)
	regHandler := handler.NewRegistrationHandler(regService, userService)
	msgHandler := handler.NewMessageHandler(msgService, userService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	exportHandler := handler.NewExportHandler(exportService, statsService, userService)

	// Register routes
	router.Register(
		e,
		jwtService,
		authHandler,
		userHandler,
		courseHandler,
		regHandler,
		msgHandler,
		settingsHandler,
		exportHandler,
	)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
