// Command seed-db applies migrations and loads a demo barbershop with its
// owner account, service catalog and a platform admin API key.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/cezarfreitas/backendbarber/internal/domain/auth"
	"github.com/cezarfreitas/backendbarber/internal/domain/barbershop"
	"github.com/cezarfreitas/backendbarber/internal/domain/service"
	"github.com/cezarfreitas/backendbarber/internal/repository"
)

type catalogJSON struct {
	Barbershop struct {
		ID          string `json:"id"`
		Name        string `json:"nome"`
		Description string `json:"descricao"`
		Address     string `json:"endereco"`
		City        string `json:"cidade"`
		Phone       string `json:"telefone"`
	} `json:"barbearia"`
	Owner struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Password string `json:"senha"`
		Name     string `json:"nome"`
	} `json:"dono"`
	Services []struct {
		ID              string          `json:"id"`
		Name            string          `json:"nome"`
		Description     string          `json:"descricao"`
		Price           decimal.Decimal `json:"preco"`
		DurationMinutes int             `json:"duracaoMinutos"`
	} `json:"servicos"`
}

func main() {
	var (
		databaseURL  string
		catalogFile  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to seed catalog JSON file")
	flag.StringVar(&apiKey, "api-key", "", "admin API key to seed (or BARBER_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or BARBER_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("BARBER_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or BARBER_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("BARBER_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("reading catalog file", slog.String("path", catalogFile))

	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}
	var catalog catalogJSON
	if err := json.Unmarshal(data, &catalog); err != nil {
		return errors.Wrap(err, "parse catalog JSON")
	}

	if err := seedCatalog(ctx, pool, &catalog); err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if err := seedAPIKey(ctx, repository.NewAuthRepository(pool), apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool, catalog *catalogJSON) error {
	shops := repository.NewBarbershopRepository(pool)
	services := repository.NewServiceRepository(pool)
	accounts := repository.NewAuthRepository(pool)
	now := time.Now()

	slog.Info("upserting barbershop", slog.String("name", catalog.Barbershop.Name))

	if err := shops.UpsertDirectory(ctx, &barbershop.Barbershop{
		ID:          catalog.Barbershop.ID,
		Name:        catalog.Barbershop.Name,
		Description: catalog.Barbershop.Description,
		Address:     catalog.Barbershop.Address,
		City:        catalog.Barbershop.City,
		Phone:       catalog.Barbershop.Phone,
	}); err != nil {
		return errors.Wrap(err, "upsert barbershop")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(catalog.Owner.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash owner password")
	}
	if err := accounts.UpsertOwner(ctx, &auth.Owner{
		ID:           catalog.Owner.ID,
		BarbershopID: catalog.Barbershop.ID,
		Email:        catalog.Owner.Email,
		PasswordHash: string(hash),
		Name:         catalog.Owner.Name,
	}); err != nil {
		return errors.Wrap(err, "upsert owner")
	}

	slog.Info("upserting services", slog.Int("count", len(catalog.Services)))

	for _, s := range catalog.Services {
		if err := services.Upsert(ctx, &service.Service{
			ID:              s.ID,
			BarbershopID:    catalog.Barbershop.ID,
			Name:            s.Name,
			Description:     s.Description,
			Price:           s.Price.Round(2),
			DurationMinutes: s.DurationMinutes,
			Active:          true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}); err != nil {
			return errors.Wrapf(err, "upsert service %s", s.ID)
		}

		slog.Info("upserted service", slog.String("id", s.ID), slog.String("name", s.Name))
	}

	return nil
}

func seedAPIKey(ctx context.Context, repo *repository.AuthRepository, apiKey, pepper string) error {
	slog.Info("seeding admin API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	if err := repo.UpsertAPIKey(ctx, &auth.APIKeyInfo{
		ID:      "default",
		KeyHash: keyHash,
		Name:    "Default admin key",
		Scopes:  []string{"admin"},
	}); err != nil {
		return errors.Wrap(err, "upsert admin API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"))
	return nil
}
