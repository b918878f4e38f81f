package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/joao-fontenele/meyshop/internal/config"
	"github.com/joao-fontenele/meyshop/internal/domain"
	"github.com/joao-fontenele/meyshop/internal/storage"
	"github.com/joao-fontenele/meyshop/internal/users"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	adminName := flag.String("admin-name", "Admin User", "administrator display name")
	adminEmail := flag.String("admin-email", "admin@email.com", "administrator email")
	adminPassword := flag.String("admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "administrator password (defaults to $SEED_ADMIN_PASSWORD)")
	samples := flag.Bool("samples", false, "also create the John Doe and Jane Doe sample customers")
	fake := flag.Int("fake", 0, "number of random customers to create")
	flag.Parse()

	if *adminPassword == "" {
		logger.Error("an administrator password is required: pass -admin-password or set SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}

	var cfg config.MigrateConfig
	if err := config.Parse(&cfg); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := storage.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	accounts := []users.SeedAccount{
		{Name: *adminName, Email: *adminEmail, Password: *adminPassword, Role: domain.RoleAdministrator},
	}
	if *samples {
		accounts = append(accounts,
			users.SeedAccount{Name: "John Doe", Email: "john@email.com", Password: "123456", Role: domain.RoleStandard},
			users.SeedAccount{Name: "Jane Doe", Email: "jane@email.com", Password: "123456", Role: domain.RoleStandard},
		)
	}
	for range *fake {
		accounts = append(accounts, users.SeedAccount{
			Name:     gofakeit.Name(),
			Email:    gofakeit.Email(),
			Password: gofakeit.Password(true, true, true, false, false, 12),
			Role:     domain.RoleStandard,
		})
	}

	// Seeding only writes accounts, so no token secret or metrics are needed.
	service := users.NewService(users.NewAccountRepository(store.DB), nil, 0, nil, logger)

	created, err := service.Seed(ctx, accounts)
	if err != nil {
		logger.Error("seed failed", "created", created, "error", err)
		os.Exit(1)
	}
	logger.Info("seed complete", "created", created, "skipped", len(accounts)-created)
}
