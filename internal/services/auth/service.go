package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	apperrors "edupay/internal/errors"
	"edupay/internal/models"
	"edupay/internal/repositories"
	"edupay/internal/utils"
	"edupay/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	Register(ctx context.Context, in validation.RegisterInput) (*models.User, *models.Wallet, error)
	CreateAdmin(ctx context.Context, in validation.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context, userID uint) error
	ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error
	TokenVersion(ctx context.Context, userID uint) (int, error)
}

// WalletOpener opens the wallet of a newly registered user.
type WalletOpener interface {
	OpenWallet(ctx context.Context, userID uint) (*models.Wallet, error)
}

// Session is returned by Login.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        UserView  `json:"user"`
}

type UserView struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

func ViewOf(u *models.User) UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Role: u.Role}
}

type service struct {
	userRepo repositories.UserRepository
	wallets  WalletOpener
	tokens   *utils.TokenIssuer
	cost     int
	logger   *slog.Logger
}

func NewService(userRepo repositories.UserRepository, wallets WalletOpener, tokens *utils.TokenIssuer, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		userRepo: userRepo,
		wallets:  wallets,
		tokens:   tokens,
		cost:     bcrypt.DefaultCost,
		logger:   logger.With("component", "auth"),
	}
}

func (s *service) Register(ctx context.Context, in validation.RegisterInput) (*models.User, *models.Wallet, error) {
	user, err := s.createUser(ctx, in, models.RoleUser)
	if err != nil {
		return nil, nil, err
	}

	w, err := s.wallets.OpenWallet(ctx, user.ID)
	if err != nil {
		// The facade opens the wallet lazily on first use.
		s.logger.Error("failed to open wallet at registration", "user_id", user.ID, "error", err)
		return user, nil, nil
	}

	s.logger.Info("user registered", "user_id", user.ID, "wallet_id", w.ID)
	return user, w, nil
}

func (s *service) CreateAdmin(ctx context.Context, in validation.RegisterInput) (*models.User, error) {
	user, err := s.createUser(ctx, in, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.logger.Info("admin created", "user_id", user.ID)
	return user, nil
}

func (s *service) createUser(ctx context.Context, in validation.RegisterInput, role string) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Registration(in); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Password:     string(hashed),
		Role:         role,
		Status:       "active",
		TokenVersion: 1,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			s.logger.Info("login failed: unknown email")
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.logger.Info("login failed: wrong password", "user_id", user.ID)
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Warn("failed to record login time", "user_id", user.ID, "error", err)
	}

	token, expires, err := s.tokens.Issue(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		Permissions:  models.GetDefaultPermissions(user.Role),
	})
	if err != nil {
		return nil, errors.New("error generating tokens")
	}

	return &Session{AccessToken: token, ExpiresAt: expires, User: ViewOf(user)}, nil
}

func (s *service) Logout(ctx context.Context, userID uint) error {
	return s.userRepo.IncrementTokenVersion(ctx, userID)
}

func (s *service) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return apperrors.ErrInvalidCredentials
	}

	v := validation.New()
	v.Password("new_password", newPassword)
	if err := v.Err(); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return errors.New("failed to hash password")
	}

	user.Password = string(hashed)
	user.TokenVersion++ // Invalidate existing tokens

	return s.userRepo.Update(ctx, user)
}

func (s *service) TokenVersion(ctx context.Context, userID uint) (int, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.TokenVersion, nil
}
