package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"coursebook/internal/cache"
	"coursebook/internal/errors"
	"coursebook/internal/model"
	"coursebook/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// ProfileInput carries the editable profile fields.
type ProfileInput struct {
	FirstName   string
	LastName    string
	Street      string
	HouseNumber string
	PostalCode  string
	City        string
	Phone       string
}

// UserService exposes user management operations. Deletion and role changes
// are admin-level; profile edits are admin-or-self.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, email, password string, roles []model.Role, profile ProfileInput) (*model.User, error)
	UpdateProfile(ctx context.Context, actor *model.User, targetID uuid.UUID, profile ProfileInput) (*model.User, error)
	UpdateRoles(ctx context.Context, targetID uuid.UUID, roles []model.Role) (*model.User, error)
	DeleteUser(ctx context.Context, actorID, targetID uuid.UUID) error
	AdminResetPassword(ctx context.Context, targetID uuid.UUID, newPassword string) error
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id.String())
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

// CreateUser creates an account with the given roles; used by admins to add
// course leaders and other staff.
func (s *userService) CreateUser(ctx context.Context, email, password string, roles []model.Role, profile ProfileInput) (*model.User, error) {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, ErrUserAlreadyExists
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if len(roles) == 0 {
		roles = []model.Role{model.RoleParticipant}
	}

	user := &model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		Street:       profile.Street,
		HouseNumber:  profile.HouseNumber,
		PostalCode:   profile.PostalCode,
		City:         profile.City,
		Phone:        profile.Phone,
		Roles:        model.MarshalRoles(roles),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies profile fields. Admins may edit anyone; everyone may
// edit themselves.
func (s *userService) UpdateProfile(ctx context.Context, actor *model.User, targetID uuid.UUID, profile ProfileInput) (*model.User, error) {
	if actor.ID != targetID && !actor.IsAdmin() {
		return nil, errors.ErrForbidden
	}

	user, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	user.FirstName = profile.FirstName
	user.LastName = profile.LastName
	user.Street = profile.Street
	user.HouseNumber = profile.HouseNumber
	user.PostalCode = profile.PostalCode
	user.City = profile.City
	user.Phone = profile.Phone

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(targetID))
	return user, nil
}

// UpdateRoles replaces the role set of a user.
func (s *userService) UpdateRoles(ctx context.Context, targetID uuid.UUID, roles []model.Role) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	user.Roles = model.MarshalRoles(roles)
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update roles: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(targetID))
	return user, nil
}

// DeleteUser removes an account and its registrations. Admins cannot delete
// themselves; the user row stays untouched in that case.
func (s *userService) DeleteUser(ctx context.Context, actorID, targetID uuid.UUID) error {
	if actorID == targetID {
		return errors.ErrSelfDelete
	}

	if _, err := s.repo.FindByID(ctx, targetID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if err := s.repo.Delete(ctx, targetID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(targetID))
	return nil
}

// AdminResetPassword sets a new password for a user without a token flow.
func (s *userService) AdminResetPassword(ctx context.Context, targetID uuid.UUID, newPassword string) error {
	if len(newPassword) < 8 {
		return errors.ErrPasswordTooShort
	}

	user, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hashedPassword)
	if err := s.repo.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(targetID))
	return nil
}
