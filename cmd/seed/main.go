package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"coursebook/internal/config"
	"coursebook/internal/db"
	"coursebook/internal/model"
	"coursebook/internal/repository"
)

func main() {
	log.Println("Starting seed script...")

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}
	cfg := config.Load()

	gormDB, err := db.Connect(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Registration{},
		&model.Message{},
		&model.GlobalSetting{},
		&model.AuthToken{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	courseRepo := repository.NewCourseRepository(gormDB)
	settingRepo := repository.NewSettingRepository(gormDB)

	seedSettings(ctx, settingRepo)
	admin := seedUser(ctx, userRepo, "admin@studio.local", "admin12345", []model.Role{model.RoleAdmin}, "Studio", "Admin")
	leader := seedUser(ctx, userRepo, "leader@studio.local", "leader12345", []model.Role{model.RoleCourseLeader}, "Lena", "Berg")
	seedUser(ctx, userRepo, "participant@studio.local", "participant1", []model.Role{model.RoleParticipant}, "Paula", "Schmidt")

	seedWeeklySeries(ctx, courseRepo, leader.ID)
	seedOneTimeCourse(ctx, courseRepo, admin.ID)

	log.Println("Seed completed")
}

func seedSettings(ctx context.Context, repo repository.SettingRepository) {
	defaults := map[string]string{
		model.SettingCancellationDeadlineHours: "24",
		model.SettingDefaultMaxParticipants:    "10",
		model.SettingForgotPasswordEnabled:     "true",
		model.SettingRegistrationEmailEnabled:  "true",
	}
	for key, value := range defaults {
		if _, err := repo.FindByKey(ctx, key); err == nil {
			continue
		} else if err != gorm.ErrRecordNotFound {
			log.Fatalf("Failed to check setting %s: %v", key, err)
		}
		if err := repo.Upsert(ctx, key, datatypes.JSON(value)); err != nil {
			log.Fatalf("Failed to seed setting %s: %v", key, err)
		}
		log.Printf("Seeded setting %s=%s", key, value)
	}
}

func seedUser(ctx context.Context, repo repository.UserRepository, email, password string, roles []model.Role, firstName, lastName string) *model.User {
	existing, err := repo.FindByEmail(ctx, email)
	if err == nil {
		log.Printf("User %s already exists, skipping", email)
		return existing
	}
	if err != gorm.ErrRecordNotFound {
		log.Fatalf("Failed to check user %s: %v", email, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	now := time.Now()
	user := &model.User{
		ID:              uuid.New(),
		Email:           email,
		PasswordHash:    string(hash),
		FirstName:       firstName,
		LastName:        lastName,
		Roles:           model.MarshalRoles(roles),
		GDPRConsent:     true,
		GDPRConsentAt:   &now,
		EmailVerified:   true,
		EmailVerifiedAt: &now,
	}
	if err := repo.Create(ctx, user); err != nil {
		log.Fatalf("Failed to create user %s: %v", email, err)
	}
	log.Printf("Created user %s", email)
	return user
}

func seedWeeklySeries(ctx context.Context, repo repository.CourseRepository, teacherID uuid.UUID) {
	existing, err := repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		log.Fatalf("Failed to list courses: %v", err)
	}
	if len(existing) > 0 {
		log.Println("Leader already has courses, skipping series seed")
		return
	}

	seriesID := uuid.New()
	firstDate := nextWeekday(time.Now(), time.Monday)
	courses := make([]model.Course, 0, 8)
	for i := 0; i < 8; i++ {
		courses = append(courses, model.Course{
			ID:              uuid.New(),
			Title:           "Vinyasa Flow",
			Description:     "Dynamic flow class for all levels.",
			Date:            firstDate.AddDate(0, 0, 7*i),
			StartTime:       "18:00",
			EndTime:         "19:15",
			DurationMinutes: 75,
			Location:        "Main Studio",
			Room:            "Room 1",
			MaxParticipants: 12,
			Price:           decimal.NewFromInt(15),
			TeacherID:       teacherID,
			SeriesID:        &seriesID,
			Frequency:       model.FrequencyWeekly,
			Status:          model.CourseStatusActive,
		})
	}
	if err := repo.CreateBatch(ctx, courses); err != nil {
		log.Fatalf("Failed to seed course series: %v", err)
	}
	log.Printf("Seeded weekly series with %d instances", len(courses))
}

func seedOneTimeCourse(ctx context.Context, repo repository.CourseRepository, teacherID uuid.UUID) {
	existing, err := repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		log.Fatalf("Failed to list courses: %v", err)
	}
	if len(existing) > 0 {
		log.Println("Admin already has courses, skipping workshop seed")
		return
	}

	course := &model.Course{
		ID:              uuid.New(),
		Title:           "Yin Yoga Workshop",
		Description:     "Deep stretch workshop, props provided.",
		Date:            nextWeekday(time.Now(), time.Saturday),
		StartTime:       "10:00",
		EndTime:         "12:00",
		DurationMinutes: 120,
		Location:        "Main Studio",
		Room:            "Room 2",
		MaxParticipants: 2,
		Price:           decimal.NewFromInt(35),
		TeacherID:       teacherID,
		Frequency:       model.FrequencyOneTime,
		Status:          model.CourseStatusActive,
	}
	if err := repo.Create(ctx, course); err != nil {
		log.Fatalf("Failed to seed workshop: %v", err)
	}
	log.Println("Seeded one-time workshop")
}

func nextWeekday(from time.Time, day time.Weekday) time.Time {
	date := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	for date.Weekday() != day || !date.After(from) {
		date = date.AddDate(0, 0, 1)
	}
	return date
}
