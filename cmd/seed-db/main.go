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

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/averix/orderhold/internal/storage/postgres"
)

type seedFile struct {
	Company  companyJSON   `json:"company"`
	Users    []userJSON    `json:"users"`
	Products []productJSON `json:"products"`
	Offers   []offerJSON   `json:"offers"`
}

type companyJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type userJSON struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	APIKey string `json:"api_key"`
}

type productJSON struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Active    *bool           `json:"active"`
}

type offerJSON struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	MinQty          int             `json:"min_qty"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	BonusUnits      int             `json:"bonus_units"`
}

func main() {
	var (
		databaseURL  string
		seedPath     string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&seedPath, "seed-file", "db/seed/demo.json", "path to seed JSON file")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or ORDERHOLD_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("ORDERHOLD_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, seedPath, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, seedPath, pepper string) error {
	data, err := os.ReadFile(seedPath)
	if err != nil {
		return errors.Wrap(err, "read seed file")
	}

	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return errors.Wrap(err, "parse seed JSON")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCompany(ctx, pool, seed.Company); err != nil {
		return errors.Wrap(err, "seed company")
	}
	if err := seedUsers(ctx, pool, seed.Company.ID, seed.Users, pepper); err != nil {
		return errors.Wrap(err, "seed users")
	}
	if err := seedProducts(ctx, pool, seed.Company.ID, seed.Products); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedOffers(ctx, pool, seed.Offers); err != nil {
		return errors.Wrap(err, "seed offers")
	}

	return nil
}

func seedCompany(ctx context.Context, pool *pgxpool.Pool, c companyJSON) error {
	slog.Info("upserting company", slog.String("id", c.ID), slog.String("name", c.Name))

	_, err := pool.Exec(ctx, `
		INSERT INTO companies (id, name, active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		c.ID, c.Name,
	)
	return err
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, companyID string, users []userJSON, pepper string) error {
	for _, u := range users {
		_, err := pool.Exec(ctx, `
			INSERT INTO users (id, company_id, name, role, active)
			VALUES ($1, $2, $3, $4, TRUE)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role`,
			u.ID, companyID, u.Name, u.Role,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert user %s", u.ID)
		}

		if u.APIKey != "" {
			mac := hmac.New(sha256.New, []byte(pepper))
			mac.Write([]byte(u.APIKey))
			keyHash := hex.EncodeToString(mac.Sum(nil))

			_, err := pool.Exec(ctx, `
				INSERT INTO api_keys (id, key_hash, user_id, active)
				VALUES ($1, $2, $3, TRUE)
				ON CONFLICT (id) DO UPDATE SET key_hash = EXCLUDED.key_hash`,
				"key-"+u.ID, keyHash, u.ID,
			)
			if err != nil {
				return errors.Wrapf(err, "upsert api key for user %s", u.ID)
			}
		}

		slog.Info("upserted user", slog.String("id", u.ID), slog.String("role", u.Role))
	}
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, companyID string, products []productJSON) error {
	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		active := true
		if p.Active != nil {
			active = *p.Active
		}
		_, err := pool.Exec(ctx, `
			INSERT INTO products (id, company_id, name, unit_price, active)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, unit_price = EXCLUDED.unit_price, active = EXCLUDED.active`,
			p.ID, companyID, p.Name, p.UnitPrice, active,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
	}
	return nil
}

func seedOffers(ctx context.Context, pool *pgxpool.Pool, offers []offerJSON) error {
	slog.Info("upserting offers", slog.Int("count", len(offers)))

	for _, o := range offers {
		_, err := pool.Exec(ctx, `
			INSERT INTO offers (id, product_id, min_qty, discount_percent, bonus_units, active)
			VALUES ($1, $2, $3, $4, $5, TRUE)
			ON CONFLICT (id) DO UPDATE SET
				min_qty = EXCLUDED.min_qty,
				discount_percent = EXCLUDED.discount_percent,
				bonus_units = EXCLUDED.bonus_units`,
			o.ID, o.ProductID, o.MinQty, o.DiscountPercent, o.BonusUnits,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert offer %s", o.ID)
		}
	}
	return nil
}
