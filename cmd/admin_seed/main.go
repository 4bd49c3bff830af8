// Command admin_seed creates the administrator account named by ADMIN_NAME,
// ADMIN_EMAIL, ADMIN_PHONE and ADMIN_PASSWORD. Running it again is a no-op.
package main

import (
	"context"
	"errors"
	"os"

	"edupay/internal/config"
	apperrors "edupay/internal/errors"
	"edupay/internal/logging"
	"edupay/internal/repositories"
	"edupay/internal/services/auth"
	"edupay/internal/utils"
	"edupay/internal/validation"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()
	log := logging.New(cfg.Logging)

	input := validation.RegisterInput{
		Name:     config.GetEnv("ADMIN_NAME", "Administrator"),
		Email:    os.Getenv("ADMIN_EMAIL"),
		Phone:    os.Getenv("ADMIN_PHONE"),
		Password: os.Getenv("ADMIN_PASSWORD"),
	}
	if input.Email == "" || input.Password == "" || input.Phone == "" {
		log.Error("ADMIN_EMAIL, ADMIN_PASSWORD, and ADMIN_PHONE must be set in environment")
		os.Exit(1)
	}

	db, err := repositories.OpenPostgres(cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			log.Warn("failed to close database connection", "error", err)
		}
	}()
	if err := repositories.Migrate(db); err != nil {
		log.Error("failed to migrate", "error", err)
		os.Exit(1)
	}

	tokens, err := utils.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	if err != nil {
		log.Error("invalid auth config", "error", err)
		os.Exit(1)
	}
	// Admins do not hold wallets, so no opener is needed.
	authService := auth.NewService(repositories.NewUserRepository(db), nil, tokens, log)

	user, err := authService.CreateAdmin(context.Background(), input)
	switch {
	case errors.Is(err, apperrors.ErrDuplicateUser):
		log.Info("admin user already exists", "email", input.Email)
	case err != nil:
		log.Error("failed to create admin user", "error", err)
		os.Exit(1)
	default:
		log.Info("admin account created", "user_id", user.ID, "email", user.Email)
	}
}
