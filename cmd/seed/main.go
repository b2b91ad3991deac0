package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"egas-delivery/internal/config"
	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/model"
	pg "egas-delivery/internal/infra/db/postgres"
	"egas-delivery/internal/infra/logging"
)

// catalog is the starter set of cylinder sizes. Prices are in kobo.
var catalog = []struct {
	Name        string
	Description string
	Price       int64
	Weight      float64
	Stock       int
}{
	{"3kg Cylinder Refill", "Small cylinder refill for single burners", 3_600_00, 3, 200},
	{"6kg Cylinder Refill", "Standard household refill", 7_200_00, 6, 300},
	{"12.5kg Cylinder Refill", "Family size refill", 15_000_00, 12.5, 150},
	{"25kg Cylinder Refill", "Commercial kitchen refill", 30_000_00, 25, 50},
	{"50kg Cylinder Refill", "Industrial refill", 60_000_00, 50, 20},
}

func main() {
	cfg, err := config.FromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	products := pg.NewPostgresProductRepo(pool)
	users := pg.NewPostgresUserRepo(pool)

	existing, err := products.ListActive(ctx, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("list products")
	}
	if len(existing) > 0 {
		logger.Info().Int("count", len(existing)).Msg("catalog already present, skipping products")
	} else {
		for _, c := range catalog {
			p, err := model.NewProduct("", c.Name, c.Description, c.Price, c.Weight, c.Stock)
			if err != nil {
				logger.Fatal().Err(err).Str("name", c.Name).Msg("build product")
			}
			if err := products.Save(ctx, nil, p); err != nil {
				logger.Fatal().Err(err).Str("name", c.Name).Msg("save product")
			}
			logger.Info().Str("id", p.ID).Str("name", p.Name).Int64("price", p.Price).Msg("seeded product")
		}
	}

	email := envOr("SEED_ADMIN_EMAIL", "admin@egas.local")
	password := envOr("SEED_ADMIN_PASSWORD", "ChangeMe123!")
	if _, err := users.FindByEmail(ctx, nil, email); err == nil {
		logger.Info().Str("email", logging.RedactEmail(email, cfg.Runtime.Dev)).Msg("admin already present")
		return
	} else if !errors.Is(err, domain.ErrNotFound) {
		logger.Fatal().Err(err).Msg("find admin")
	}

	admin, err := model.NewUser("", "System", "Admin", email, "")
	if err != nil {
		logger.Fatal().Err(err).Msg("build admin")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Fatal().Err(err).Msg("hash password")
	}
	admin.PasswordHash = string(hash)
	admin.Role = model.RoleAdmin
	if err := users.Save(ctx, nil, admin); err != nil {
		logger.Fatal().Err(err).Msg("save admin")
	}
	logger.Info().Str("id", admin.ID).Str("email", logging.RedactEmail(email, cfg.Runtime.Dev)).Msg("seeded admin")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
