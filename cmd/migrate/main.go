package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"decode/internal/pkg/logger"
	"decode/internal/pkg/validator"
	"decode/internal/platform/auth"
	"decode/internal/platform/config"
	"decode/internal/platform/database"
	"decode/internal/platform/models"
	"decode/internal/platform/repositories"
	"decode/migrations"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	adminEmail := flag.String("admin-email", "", "Create a system admin with this email if it does not exist")
	adminPassword := flag.String("admin-password", "", "Password for --admin-email")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Logging)

	db, err := database.NewGlobalDB(cfg.Database.Global)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to global DB")
	}
	defer db.Close()

	if err := database.Migrate(db, migrations.Global, "global"); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	if *adminEmail != "" {
		users := repositories.NewUserRepository(db)
		if err := ensureAdmin(context.Background(), users, *adminEmail, *adminPassword); err != nil {
			log.Fatal().Err(err).Msg("failed to create admin")
		}
	}

	fmt.Println("Migration completed successfully")
}

func ensureAdmin(ctx context.Context, users *repositories.UserRepository, email, password string) error {
	email, err := validator.NormalizeEmail(email)
	if err != nil {
		return err
	}

	existing, err := users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Info().Str("email", email).Msg("admin already exists")
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	return users.Create(ctx, &models.User{
		ID:           "usr_" + uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FullName:     "Administrator",
		Role:         models.SystemRoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}
