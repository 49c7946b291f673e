package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coursebook/internal/cache"
	"coursebook/internal/repository"
)

const (
	statsCacheKey = "stats:dashboard"
	statsCacheTTL = 1 * time.Minute
)

// DashboardStats aggregates the dashboard counters.
type DashboardStats struct {
	TotalCourses      int64 `json:"total_courses"`
	TotalParticipants int64 `json:"total_participants"`
	UpcomingCourses   int64 `json:"upcoming_courses"`
	TotalBookings     int64 `json:"total_bookings"`
}

// StatsService computes dashboard aggregates with short-lived caching.
type StatsService interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
}

type statsService struct {
	userRepo   repository.UserRepository
	courseRepo repository.CourseRepository
	regRepo    repository.RegistrationRepository
	cache      *cache.Client
}

// NewStatsService creates a new stats service.
func NewStatsService(
	userRepo repository.UserRepository,
	courseRepo repository.CourseRepository,
	regRepo repository.RegistrationRepository,
	cache *cache.Client,
) StatsService {
	return &statsService{
		userRepo:   userRepo,
		courseRepo: courseRepo,
		regRepo:    regRepo,
		cache:      cache,
	}
}

func (s *statsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	if data, _ := s.cache.Get(ctx, statsCacheKey); data != nil {
		var cached DashboardStats
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	stats := &DashboardStats{}
	var err error

	if stats.TotalCourses, err = s.courseRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("count courses: %w", err)
	}
	if stats.TotalParticipants, err = s.userRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	today := time.Now().Truncate(24 * time.Hour)
	if stats.UpcomingCourses, err = s.courseRepo.CountUpcoming(ctx, today); err != nil {
		return nil, fmt.Errorf("count upcoming courses: %w", err)
	}
	if stats.TotalBookings, err = s.regRepo.CountActive(ctx); err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	if payload, err := json.Marshal(stats); err == nil {
		_ = s.cache.Set(ctx, statsCacheKey, payload, statsCacheTTL)
	}
	return stats, nil
}
