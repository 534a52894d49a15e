package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"sales-ims/internal/auth"
	"sales-ims/internal/database"
	"sales-ims/internal/logger"
	"sales-ims/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidEmail       = errors.New("email is required")
	ErrInvalidPassword    = errors.New("password is required")
)

type RegisterRequest struct {
	Email    string
	Password string
	Role     string
}

// Service is the credential store: it owns users and their password hashes.
type Service struct {
	db  *gorm.DB
	log *zap.Logger

	dummyPassword string
	dummyOnce     sync.Once
	dummyHash     string
	dummyErr      error
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:            db,
		log:           log.Named("accounts"),
		dummyPassword: "timing-equalizer",
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, ErrInvalidEmail
	}
	if req.Password == "" {
		return nil, ErrInvalidPassword
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = models.DefaultRole
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateEmail
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:          email,
		HashedPassword: hash,
		Role:           role,
	}
	if err := db.Create(&user).Error; err != nil {
		if database.IsDuplicateKeyErr(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.WithContext(ctx, s.log).Info("user registered",
		zap.Uint("user_id", user.ID),
		zap.String("email", logger.MaskEmail(email)),
	)
	return &user, nil
}

// Authenticate never tells the caller whether the email exists.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// burn the same bcrypt cost as a real comparison
		hash, err := s.fallbackHash()
		if err != nil {
			return nil, fmt.Errorf("prepare fallback hash: %w", err)
		}
		auth.CheckPassword(hash, password)
		s.logFailedLogin(ctx, email)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !auth.CheckPassword(user.HashedPassword, password) {
		s.logFailedLogin(ctx, email)
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *Service) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return &user, nil
}

func (s *Service) fallbackHash() (string, error) {
	s.dummyOnce.Do(func() {
		s.dummyHash, s.dummyErr = auth.HashPassword(s.dummyPassword)
	})
	return s.dummyHash, s.dummyErr
}

func (s *Service) logFailedLogin(ctx context.Context, email string) {
	logger.WithContext(ctx, s.log).Info("login rejected", zap.String("email", logger.MaskEmail(strings.TrimSpace(email))))
}
