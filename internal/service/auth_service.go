package service

import (
	"context"
	goerrors "errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"coursebook/internal/auth"
	"coursebook/internal/errors"
	"coursebook/internal/mail"
	"coursebook/internal/model"
	"coursebook/internal/repository"
)

const bcryptCost = 10

// resetRequestedMessage is returned whether or not the email exists, so the
// endpoint cannot be used to enumerate accounts.
const resetRequestedMessage = "If an account with this email address exists, we have sent you a password reset email."

var (
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = goerrors.New("invalid email or password")
	// ErrUserAlreadyExists is returned when trying to register an existing user.
	ErrUserAlreadyExists = goerrors.New("user already exists")
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = goerrors.New("invalid or expired refresh token")
)

// SignUpInput carries the sign-up form fields.
type SignUpInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Street      string
	HouseNumber string
	PostalCode  string
	City        string
	Phone       string
	GDPRConsent bool
}

// AuthService handles authentication and account lifecycle operations.
type AuthService interface {
	SignUp(ctx context.Context, input SignUpInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, user *model.User, err error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, refreshToken string) error
	RequestPasswordReset(ctx context.Context, email string) (message string, err error)
	ResetPassword(ctx context.Context, token, newPassword string) error
	SendVerificationEmail(ctx context.Context, userID uuid.UUID) error
	VerifyEmail(ctx context.Context, token string) (*TokenVerification, error)
}

type authService struct {
	userRepo   repository.UserRepository
	tokens     TokenService
	settings   SettingsService
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	mailer     mail.Mailer
	appURL     string
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	tokens TokenService,
	settings SettingsService,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	mailer mail.Mailer,
	appURL string,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		tokens:     tokens,
		settings:   settings,
		jwtService: jwtService,
		tokenStore: tokenStore,
		mailer:     mailer,
		appURL:     appURL,
	}
}

// SignUp creates a new participant account with hashed password and, when
// enabled, sends the verification email.
func (s *authService) SignUp(ctx context.Context, input SignUpInput) (*model.User, error) {
	existing, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err == nil && existing != nil {
		return nil, ErrUserAlreadyExists
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Street:       input.Street,
		HouseNumber:  input.HouseNumber,
		PostalCode:   input.PostalCode,
		City:         input.City,
		Phone:        input.Phone,
		Roles:        model.MarshalRoles([]model.Role{model.RoleParticipant}),
		GDPRConsent:  input.GDPRConsent,
	}
	if input.GDPRConsent {
		now := time.Now()
		user.GDPRConsentAt = &now
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	settings, err := s.settings.Load(ctx)
	if err == nil && settings.RegistrationEmailEnabled {
		if err := s.SendVerificationEmail(ctx, user.ID); err != nil {
			// Account creation succeeded; the user can request another mail.
			log.Printf("send verification email to %s: %v", user.Email, err)
		}
	}

	return user, nil
}

// Login authenticates a user and returns access and refresh tokens.
func (s *authService) Login(ctx context.Context, email, password string) (accessToken, refreshToken string, user *model.User, err error) {
	user, err = s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", nil, ErrInvalidCredentials
	}

	accessToken, err = s.jwtService.GenerateAccessToken(user.ID, user.Email, user.RoleSet())
	if err != nil {
		return "", "", nil, fmt.Errorf("generate access token: %w", err)
	}

	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, user.ID, user.Email, auth.RefreshTokenExpiry); err != nil {
		return "", "", nil, fmt.Errorf("store refresh token: %w", err)
	}

	return accessToken, refreshToken, user, nil
}

// RefreshToken validates a refresh token and returns a new access token.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	tokenID, err := s.jwtService.ExtractTokenID(refreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	storedUserID, storedEmail, err := s.tokenStore.GetRefreshToken(ctx, tokenID)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	if storedUserID.String() != claims.UserID || storedEmail != claims.Email {
		return "", ErrInvalidRefreshToken
	}

	// Re-read the user so a role change takes effect on refresh.
	user, err := s.userRepo.FindByID(ctx, storedUserID)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	accessToken, err = s.jwtService.GenerateAccessToken(user.ID, user.Email, user.RoleSet())
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}

	return accessToken, nil
}

// Logout invalidates a refresh token.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	tokenID, err := s.jwtService.ExtractTokenID(refreshToken)
	if err != nil {
		return ErrInvalidRefreshToken
	}
	return s.tokenStore.DeleteRefreshToken(ctx, tokenID)
}

// RequestPasswordReset issues a reset token and mails the reset link. The
// returned message is identical whether or not the account exists.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	settings, err := s.settings.Load(ctx)
	if err == nil && !settings.ForgotPasswordEnabled {
		return "", errors.ErrForgotPasswordDisabled
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("password reset lookup for %s: %v", email, err)
		}
		return resetRequestedMessage, nil
	}

	token, err := s.tokens.CreatePasswordResetToken(ctx, user.ID)
	if err != nil {
		log.Printf("create password reset token for %s: %v", email, err)
		return resetRequestedMessage, nil
	}

	subject, html, err := mail.PasswordResetEmail(s.appURL, token)
	if err != nil {
		log.Printf("render password reset email for %s: %v", email, err)
		return resetRequestedMessage, nil
	}
	if err := s.mailer.Send(user.Email, subject, html); err != nil {
		log.Printf("send password reset email to %s: %v", email, err)
	}

	return resetRequestedMessage, nil
}

// ResetPassword consumes a reset token and updates the user's credential.
// The token is marked used only after the new password is stored; a failing
// mark-used is logged, not fatal.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return errors.ErrPasswordTooShort
	}

	verification, err := s.tokens.Verify(ctx, token, model.TokenTypePasswordReset)
	if err != nil {
		return err
	}
	if !verification.Valid {
		return tokenReasonError(verification.Reason)
	}

	user, err := s.userRepo.FindByID(ctx, verification.UserID)
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
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.tokens.MarkUsed(ctx, token); err != nil {
		// The password is already changed; the token will still expire.
		log.Printf("mark reset token used: %v", err)
	}

	if subject, html, err := mail.PasswordChangedEmail(); err == nil {
		if err := s.mailer.Send(user.Email, subject, html); err != nil {
			log.Printf("send password changed email to %s: %v", user.Email, err)
		}
	}

	return nil
}

// SendVerificationEmail issues a verification token and mails the link.
func (s *authService) SendVerificationEmail(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	token, err := s.tokens.CreateVerificationToken(ctx, user.ID)
	if err != nil {
		return err
	}

	subject, html, err := mail.VerificationEmail(s.appURL, token)
	if err != nil {
		return err
	}
	return s.mailer.Send(user.Email, subject, html)
}

// VerifyEmail consumes a verification token and flips the verified flag.
func (s *authService) VerifyEmail(ctx context.Context, token string) (*TokenVerification, error) {
	verification, err := s.tokens.Verify(ctx, token, model.TokenTypeEmailVerification)
	if err != nil {
		return nil, err
	}
	if !verification.Valid {
		return verification, nil
	}

	user, err := s.userRepo.FindByID(ctx, verification.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	now := time.Now()
	user.EmailVerified = true
	user.EmailVerifiedAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if err := s.tokens.MarkUsed(ctx, token); err != nil {
		// The flag is already flipped; the token will still expire.
		log.Printf("mark verification token used: %v", err)
	}

	verification.Message = "Email address verified successfully"
	return verification, nil
}

// tokenReasonError maps a structured token failure to a domain error.
func tokenReasonError(reason string) error {
	switch reason {
	case TokenReasonUsed:
		return errors.ErrTokenUsed
	case TokenReasonExpired:
		return errors.ErrTokenExpired
	default:
		return errors.ErrTokenInvalid
	}
}
