package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/app/models/dto"
	"github.com/yigit/ebdashboard/internal/app/repositories"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
	"github.com/yigit/ebdashboard/internal/pkg/auth"
)

// AuthService handles registration and login
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
}

type authServiceImpl struct {
	repos        *repositories.Repositories
	tx           repositories.TxManager
	jwtService   *auth.JWTService
	defaultLimit decimal.Decimal
	logger       zerolog.Logger
	now          Clock
}

// NewAuthService creates a new AuthService. Students registered through it start with defaultLimit.
func NewAuthService(
	repos *repositories.Repositories,
	tx repositories.TxManager,
	jwtService *auth.JWTService,
	defaultLimit decimal.Decimal,
	logger zerolog.Logger,
	now Clock,
) AuthService {
	if now == nil {
		now = SystemClock
	}
	return &authServiceImpl{
		repos:        repos,
		tx:           tx,
		jwtService:   jwtService,
		defaultLimit: defaultLimit,
		logger:       logger,
		now:          now,
	}
}

// Register creates an account. Student accounts get a profile in the same unit of work.
// Administrator accounts are only created by the seed.
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if req.Role != models.RoleStudent && req.Role != models.RoleCompany {
		return nil, apperrors.NewValidationError("role must be one of: student, company")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if req.Role == models.RoleStudent && !req.Year.IsValid() {
		return nil, apperrors.NewValidationError("year is required for student accounts")
	}

	exists, err := s.repos.Users.EmailExists(ctx, email)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to register user")
	}
	if exists {
		return nil, apperrors.NewConflictError(apperrors.ErrEmailAlreadyExists, "Email already registered")
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err, "Failed to register user")
	}

	user := &models.User{
		Username: strings.TrimSpace(req.Username),
		Email:    email,
		Password: hashed,
		Role:     req.Role,
		IsActive: true,
	}
	var studentID int64

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		if err := repos.Users.Create(ctx, user); err != nil {
			return err
		}
		if user.Role != models.RoleStudent {
			return nil
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = user.Username
		}
		student := &models.Student{
			UserID:        user.ID,
			Name:          name,
			Email:         email,
			Year:          req.Year,
			Interests:     normalizeInterests(req.Interests),
			GPA:           req.GPA,
			PurchaseLimit: s.defaultLimit,
		}
		if err := repos.Students.Create(ctx, student); err != nil {
			return err
		}
		studentID = student.ID
		return nil
	})
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to register user")
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(user.Role)).Msg("User registered")
	return s.authResponse(user, studentID)
}

// Login verifies credentials and issues an access token
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Internalize(err, "Failed to log in")
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		s.logger.Debug().Str("email", email).Msg("Login failed: wrong password")
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	var studentID int64
	if user.Role == models.RoleStudent {
		student, err := s.repos.Students.GetByUserID(ctx, user.ID)
		if err != nil {
			return nil, apperrors.Internalize(err, "Failed to load student profile")
		}
		studentID = student.ID
	}

	now := s.now()
	if err := s.repos.Users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to update last login")
	} else {
		user.LastLoginAt = &now
	}

	return s.authResponse(user, studentID)
}

func (s *authServiceImpl) authResponse(user *models.User, studentID int64) (*dto.AuthResponse, error) {
	token, expiresIn, err := s.jwtService.GenerateAccessToken(user, studentID)
	if err != nil {
		return nil, apperrors.NewInternalError(err, "Failed to issue token")
	}
	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   expiresIn,
		},
		User: dto.NewUserResponse(user, studentID),
	}, nil
}

// normalizeInterests trims entries and drops blanks and case-insensitive duplicates
func normalizeInterests(interests []string) []string {
	out := make([]string, 0, len(interests))
	seen := make(map[string]struct{}, len(interests))
	for _, interest := range interests {
		interest = strings.TrimSpace(interest)
		key := strings.ToLower(interest)
		if interest == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, interest)
	}
	return out
}
