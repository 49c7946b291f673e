package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"coursebook/internal/auth"
	"coursebook/internal/errors"
	"coursebook/internal/model"
)

const testAppURL = "http://localhost:5173"

func newAuthService(
	userRepo *MockUserRepository,
	tokens *MockTokenService,
	settings *MockSettingsService,
	tokenStore *MockTokenStore,
	mailer *MockMailer,
) AuthService {
	jwtService := auth.NewJWTService("test-secret")
	return NewAuthService(userRepo, tokens, settings, jwtService, tokenStore, mailer, testAppURL)
}

func TestAuthService_SignUp(t *testing.T) {
	tests := []struct {
		name          string
		input         SignUpInput
		setupMock     func(*MockUserRepository, *MockTokenService, *MockSettingsService, *MockMailer)
		expectedError error
	}{
		{
			name: "successful signup sends verification email",
			input: SignUpInput{
				Email:       "anna@example.com",
				Password:    "password123",
				FirstName:   "Anna",
				LastName:    "Meier",
				GDPRConsent: true,
			},
			setupMock: func(mRepo *MockUserRepository, mTokens *MockTokenService, mSettings *MockSettingsService, mMailer *MockMailer) {
				mRepo.On("FindByEmail", mock.Anything, "anna@example.com").Return(nil, gorm.ErrRecordNotFound)
				mRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				mSettings.On("Load", mock.Anything).Return(Settings{RegistrationEmailEnabled: true}, nil)
				mRepo.On("FindByID", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(&model.User{
					ID:    uuid.New(),
					Email: "anna@example.com",
				}, nil)
				mTokens.On("CreateVerificationToken", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return("tok", nil)
				mMailer.On("Send", "anna@example.com", mock.Anything, mock.Anything).Return(nil)
			},
		},
		{
			name: "verification email disabled",
			input: SignUpInput{
				Email:       "ben@example.com",
				Password:    "password123",
				FirstName:   "Ben",
				LastName:    "Kurz",
				GDPRConsent: true,
			},
			setupMock: func(mRepo *MockUserRepository, mTokens *MockTokenService, mSettings *MockSettingsService, mMailer *MockMailer) {
				mRepo.On("FindByEmail", mock.Anything, "ben@example.com").Return(nil, gorm.ErrRecordNotFound)
				mRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				mSettings.On("Load", mock.Anything).Return(Settings{RegistrationEmailEnabled: false}, nil)
			},
		},
		{
			name: "user already exists",
			input: SignUpInput{
				Email:    "existing@example.com",
				Password: "password123",
			},
			setupMock: func(mRepo *MockUserRepository, mTokens *MockTokenService, mSettings *MockSettingsService, mMailer *MockMailer) {
				mRepo.On("FindByEmail", mock.Anything, "existing@example.com").
					Return(&model.User{Email: "existing@example.com"}, nil)
			},
			expectedError: ErrUserAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			mockTokens := new(MockTokenService)
			mockSettings := new(MockSettingsService)
			mockMailer := new(MockMailer)
			tt.setupMock(mockRepo, mockTokens, mockSettings, mockMailer)

			service := newAuthService(mockRepo, mockTokens, mockSettings, new(MockTokenStore), mockMailer)
			user, err := service.SignUp(context.Background(), tt.input)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, user)
				assert.Equal(t, tt.input.Email, user.Email)
				assert.NotEmpty(t, user.PasswordHash)
				assert.NotEqual(t, tt.input.Password, user.PasswordHash)
				assert.True(t, user.HasRole(model.RoleParticipant))
				if tt.input.GDPRConsent {
					assert.NotNil(t, user.GDPRConsentAt)
				}
			}

			mockRepo.AssertExpectations(t)
			mockMailer.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), 10)
	userID := uuid.New()

	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository, *MockTokenStore)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "anna@example.com",
			password: "password123",
			setupMock: func(mRepo *MockUserRepository, mStore *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "anna@example.com").Return(&model.User{
					ID:           userID,
					Email:        "anna@example.com",
					PasswordHash: string(hashedPassword),
					Roles:        model.MarshalRoles([]model.Role{model.RoleParticipant}),
				}, nil)
				mStore.On("StoreRefreshToken", mock.Anything, mock.Anything, userID, "anna@example.com", auth.RefreshTokenExpiry).Return(nil)
			},
		},
		{
			name:     "wrong password",
			email:    "anna@example.com",
			password: "wrong",
			setupMock: func(mRepo *MockUserRepository, mStore *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "anna@example.com").Return(&model.User{
					ID:           userID,
					Email:        "anna@example.com",
					PasswordHash: string(hashedPassword),
				}, nil)
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			email:    "nobody@example.com",
			password: "password123",
			setupMock: func(mRepo *MockUserRepository, mStore *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			mockStore := new(MockTokenStore)
			tt.setupMock(mockRepo, mockStore)

			service := newAuthService(mockRepo, new(MockTokenService), new(MockSettingsService), mockStore, new(MockMailer))
			accessToken, refreshToken, user, err := service.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Empty(t, accessToken)
				assert.Empty(t, refreshToken)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, accessToken)
				assert.NotEmpty(t, refreshToken)
				assert.Equal(t, tt.email, user.Email)
			}

			mockRepo.AssertExpectations(t)
			mockStore.AssertExpectations(t)
		})
	}
}

func TestAuthService_RequestPasswordReset(t *testing.T) {
	t.Run("unknown email gets the same generic message", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, gorm.ErrRecordNotFound)
		mockSettings := new(MockSettingsService)
		mockSettings.On("Load", mock.Anything).Return(Settings{ForgotPasswordEnabled: true}, nil)
		mockMailer := new(MockMailer)

		service := newAuthService(mockRepo, new(MockTokenService), mockSettings, new(MockTokenStore), mockMailer)
		message, err := service.RequestPasswordReset(context.Background(), "nobody@example.com")

		assert.NoError(t, err)
		assert.Equal(t, resetRequestedMessage, message)
		mockMailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("known email mails a reset link and returns the same message", func(t *testing.T) {
		userID := uuid.New()
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByEmail", mock.Anything, "anna@example.com").Return(&model.User{
			ID:    userID,
			Email: "anna@example.com",
		}, nil)
		mockTokens := new(MockTokenService)
		mockTokens.On("CreatePasswordResetToken", mock.Anything, userID).Return("reset-tok", nil)
		mockSettings := new(MockSettingsService)
		mockSettings.On("Load", mock.Anything).Return(Settings{ForgotPasswordEnabled: true}, nil)
		mockMailer := new(MockMailer)
		mockMailer.On("Send", "anna@example.com", mock.Anything, mock.Anything).Return(nil)

		service := newAuthService(mockRepo, mockTokens, mockSettings, new(MockTokenStore), mockMailer)
		message, err := service.RequestPasswordReset(context.Background(), "anna@example.com")

		assert.NoError(t, err)
		assert.Equal(t, resetRequestedMessage, message)
		mockMailer.AssertExpectations(t)
	})

	t.Run("disabled by settings", func(t *testing.T) {
		mockSettings := new(MockSettingsService)
		mockSettings.On("Load", mock.Anything).Return(Settings{ForgotPasswordEnabled: false}, nil)

		service := newAuthService(new(MockUserRepository), new(MockTokenService), mockSettings, new(MockTokenStore), new(MockMailer))
		message, err := service.RequestPasswordReset(context.Background(), "anna@example.com")

		assert.ErrorIs(t, err, errors.ErrForgotPasswordDisabled)
		assert.Empty(t, message)
	})
}

func TestAuthService_ResetPassword(t *testing.T) {
	userID := uuid.New()

	t.Run("password too short", func(t *testing.T) {
		service := newAuthService(new(MockUserRepository), new(MockTokenService), new(MockSettingsService), new(MockTokenStore), new(MockMailer))
		err := service.ResetPassword(context.Background(), "tok", "short")
		assert.ErrorIs(t, err, errors.ErrPasswordTooShort)
	})

	t.Run("used token", func(t *testing.T) {
		mockTokens := new(MockTokenService)
		mockTokens.On("Verify", mock.Anything, "tok", model.TokenTypePasswordReset).Return(&TokenVerification{
			Valid:  false,
			Reason: TokenReasonUsed,
		}, nil)

		service := newAuthService(new(MockUserRepository), mockTokens, new(MockSettingsService), new(MockTokenStore), new(MockMailer))
		err := service.ResetPassword(context.Background(), "tok", "password123")
		assert.ErrorIs(t, err, errors.ErrTokenUsed)
	})

	t.Run("valid token updates the hash and consumes the token", func(t *testing.T) {
		mockTokens := new(MockTokenService)
		mockTokens.On("Verify", mock.Anything, "tok", model.TokenTypePasswordReset).Return(&TokenVerification{
			Valid:  true,
			UserID: userID,
		}, nil)
		mockTokens.On("MarkUsed", mock.Anything, "tok").Return(nil)

		oldHash, _ := bcrypt.GenerateFromPassword([]byte("oldpassword"), 10)
		user := &model.User{ID: userID, Email: "anna@example.com", PasswordHash: string(oldHash)}
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, userID).Return(user, nil)
		mockRepo.On("Update", mock.Anything, user).Return(nil)

		mockMailer := new(MockMailer)
		mockMailer.On("Send", "anna@example.com", mock.Anything, mock.Anything).Return(nil)

		service := newAuthService(mockRepo, mockTokens, new(MockSettingsService), new(MockTokenStore), mockMailer)
		err := service.ResetPassword(context.Background(), "tok", "newpassword123")

		assert.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("newpassword123")))
		mockTokens.AssertExpectations(t)
		mockRepo.AssertExpectations(t)
	})
}

func TestAuthService_VerifyEmail(t *testing.T) {
	userID := uuid.New()

	t.Run("valid token flips the verified flag", func(t *testing.T) {
		mockTokens := new(MockTokenService)
		mockTokens.On("Verify", mock.Anything, "tok", model.TokenTypeEmailVerification).Return(&TokenVerification{
			Valid:  true,
			UserID: userID,
		}, nil)
		mockTokens.On("MarkUsed", mock.Anything, "tok").Return(nil)

		user := &model.User{ID: userID, Email: "anna@example.com"}
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, userID).Return(user, nil)
		mockRepo.On("Update", mock.Anything, user).Return(nil)

		service := newAuthService(mockRepo, mockTokens, new(MockSettingsService), new(MockTokenStore), new(MockMailer))
		result, err := service.VerifyEmail(context.Background(), "tok")

		assert.NoError(t, err)
		assert.True(t, result.Valid)
		assert.True(t, user.EmailVerified)
		assert.NotNil(t, user.EmailVerifiedAt)
		mockTokens.AssertExpectations(t)
		mockRepo.AssertExpectations(t)
	})

	t.Run("expired token leaves the user untouched", func(t *testing.T) {
		mockTokens := new(MockTokenService)
		mockTokens.On("Verify", mock.Anything, "tok", model.TokenTypeEmailVerification).Return(&TokenVerification{
			Valid:  false,
			Reason: TokenReasonExpired,
		}, nil)
		mockRepo := new(MockUserRepository)

		service := newAuthService(mockRepo, mockTokens, new(MockSettingsService), new(MockTokenStore), new(MockMailer))
		result, err := service.VerifyEmail(context.Background(), "tok")

		assert.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, TokenReasonExpired, result.Reason)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}
