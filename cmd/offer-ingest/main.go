package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/averix/orderhold/internal/storage/postgres"
)

const progressEvery = 10_000

// offerRow is one parsed line of an offer export file. The expected CSV
// columns are: product_id, min_qty, discount_percent, bonus_units.
type offerRow struct {
	productID       string
	minQty          int
	discountPercent decimal.Decimal
	bonusUnits      int
}

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	files := flag.Args()
	if len(files) == 0 {
		slog.Error("no input files: pass one or more gzipped offer CSV files")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files); err != nil {
		slog.Error("offer ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("offer ingest completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("parsing offer files", slog.Int("files", len(files)))

	rows, err := parseFiles(ctx, files)
	if err != nil {
		return errors.Wrap(err, "parse offer files")
	}

	slog.Info("offers parsed", slog.Int("count", len(rows)))

	if len(rows) == 0 {
		slog.Info("no offers to insert")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := writeOffers(ctx, pool, rows); err != nil {
		return errors.Wrap(err, "write offers to database")
	}

	return nil
}

// parseFiles reads every file concurrently and merges the parsed rows.
func parseFiles(ctx context.Context, files []string) ([]offerRow, error) {
	var (
		mu  sync.Mutex
		all []offerRow
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(func() error {
			rows, err := parseFile(ctx, f)
			if err != nil {
				return errors.Wrapf(err, "parse %s", f)
			}
			mu.Lock()
			all = append(all, rows...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return all, nil
}

// parseFile streams one gzipped CSV file of offers.
func parseFile(ctx context.Context, path string) ([]offerRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer f.Close() //nolint:errcheck

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "create gzip reader")
	}
	defer gz.Close() //nolint:errcheck

	r := csv.NewReader(gz)
	r.FieldsPerRecord = 4

	var (
		rows []offerRow
		line int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read record")
		}
		line++

		// Skip a header row if present.
		if line == 1 && rec[0] == "product_id" {
			continue
		}

		row, err := parseRecord(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		rows = append(rows, row)

		if line%progressEvery == 0 {
			slog.Info("parse progress", slog.String("file", path), slog.Int("lines", line))
		}
	}

	return rows, nil
}

func parseRecord(rec []string) (offerRow, error) {
	minQty, err := strconv.Atoi(rec[1])
	if err != nil {
		return offerRow{}, errors.Wrap(err, "parse min_qty")
	}
	pct, err := decimal.NewFromString(rec[2])
	if err != nil {
		return offerRow{}, errors.Wrap(err, "parse discount_percent")
	}
	bonus, err := strconv.Atoi(rec[3])
	if err != nil {
		return offerRow{}, errors.Wrap(err, "parse bonus_units")
	}

	if rec[0] == "" {
		return offerRow{}, errors.New("empty product_id")
	}
	if minQty <= 0 {
		return offerRow{}, errors.New("min_qty must be positive")
	}
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return offerRow{}, fmt.Errorf("discount_percent %s out of range", pct)
	}
	if bonus < 0 {
		return offerRow{}, errors.New("bonus_units must not be negative")
	}

	return offerRow{
		productID:       rec[0],
		minQty:          minQty,
		discountPercent: pct,
		bonusUnits:      bonus,
	}, nil
}

const insertOfferSQL = `
	INSERT INTO offers (id, product_id, min_qty, discount_percent, bonus_units, active)
	VALUES ($1, $2, $3, $4, $5, TRUE)`

// writeOffers inserts all parsed offers. Rows referencing unknown products
// are reported and skipped rather than aborting the whole run.
func writeOffers(ctx context.Context, pool *pgxpool.Pool, rows []offerRow) error {
	slog.Info("writing offers to database", slog.Int("count", len(rows)))

	var skipped int
	for i, row := range rows {
		_, err := pool.Exec(ctx, insertOfferSQL,
			uuid.NewString(), row.productID, row.minQty, row.discountPercent, row.bonusUnits,
		)
		if err != nil {
			if postgres.IsForeignKeyViolation(err) {
				slog.Warn("skipping offer for unknown product", slog.String("product_id", row.productID))
				skipped++
				continue
			}
			return errors.Wrapf(err, "insert offer for product %s", row.productID)
		}

		if (i+1)%100 == 0 || i+1 == len(rows) {
			slog.Info("write progress", slog.Int("written", i+1-skipped), slog.Int("total", len(rows)))
		}
	}

	if skipped > 0 {
		slog.Warn("offers skipped", slog.Int("count", skipped))
	}
	return nil
}
