// Command directory-ingest imports barbershop directory dumps into the
// database. The dumps come from three independent scraped sources as gzipped
// semicolon-separated files (name;city;address;phone). A record is trusted
// only when it appears in at least two of the three dumps; the cross-check
// runs in two passes over bloom filters so the full sets never have to fit
// in memory at once.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/cezarfreitas/backendbarber/internal/domain/barbershop"
	"github.com/cezarfreitas/backendbarber/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	numFiles      = 3
	progressEvery = 1_000_000
)

// record is one parsed directory line. The dedupe key is name+city,
// lowercased; address and phone are carried along for the winning copy.
type record struct {
	name    string
	city    string
	address string
	phone   string
}

func (r record) key() string {
	return strings.ToLower(r.name) + ";" + strings.ToLower(r.city)
}

// fileResult holds candidate records found in a single file during pass 2.
type fileResult struct {
	candidates map[string]uint
	records    map[string]record
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing dirbaseN.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("directory ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("directory ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files := make([]string, numFiles)
	for i := range numFiles {
		files[i] = filepath.Join(dataDir, fmt.Sprintf("dirbase%d.gz", i+1))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	// Pass 1: build one bloom filter of dedupe keys per file, concurrently.
	slog.Info("pass 1: building bloom filters", slog.Int("files", numFiles))

	filters, err := buildBloomFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	// Pass 2: find records whose key appears in 2+ files.
	slog.Info("pass 2: finding confirmed records")

	confirmed, err := findConfirmedRecords(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "find confirmed records")
	}

	slog.Info("confirmed records found", slog.Int("count", len(confirmed)))

	if len(confirmed) == 0 {
		slog.Info("no records to insert")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := writeShops(ctx, repository.NewBarbershopRepository(pool), confirmed); err != nil {
		return errors.Wrap(err, "write barbershops to database")
	}

	return nil
}

// buildBloomFilters creates one bloom filter per file, concurrently.
func buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(buildFilterForFile(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func buildFilterForFile(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamGzFile(ctx, path, func(rec record) {
			filter.AddString(rec.key())
			count++
			if count%progressEvery == 0 {
				slog.Info("pass 1 progress",
					slog.Int("file", idx+1),
					slog.Uint64("records", count),
				)
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for file %d", idx+1)
		}

		slog.Info("pass 1 complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_records", count),
		)

		filters[idx] = filter
		return nil
	}
}

// findConfirmedRecords re-streams each file and checks keys against OTHER
// files' bloom filters. A record is confirmed if it appears in 2 or more
// files.
func findConfirmedRecords(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]record, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(findCandidatesInFile(ctx, i, f, filters, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge bitmasks from all files. The first file to supply a record wins
	// the address and phone fields.
	merged := make(map[string]uint)
	recordsByKey := make(map[string]record)
	for _, r := range results {
		for key, mask := range r.candidates {
			merged[key] |= mask
			if _, ok := recordsByKey[key]; !ok {
				recordsByKey[key] = r.records[key]
			}
		}
	}

	var confirmed []record
	for key, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			confirmed = append(confirmed, recordsByKey[key])
		}
	}

	return confirmed, nil
}

func findCandidatesInFile(
	ctx context.Context,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
	results []fileResult,
) func() error {
	return func() error {
		candidates := make(map[string]uint)
		records := make(map[string]record)
		fileBit := uint(1) << uint(idx)
		var count uint64

		if err := streamGzFile(ctx, path, func(rec record) {
			count++
			if count%progressEvery == 0 {
				slog.Info("pass 2 progress",
					slog.Int("file", idx+1),
					slog.Uint64("records", count),
				)
			}

			// Check if this key appears in any OTHER file's bloom filter.
			key := rec.key()
			for j, f := range filters {
				if j == idx {
					continue
				}
				if f.TestString(key) {
					candidates[key] |= fileBit
					records[key] = rec
					break
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "scan file %d for candidates", idx+1)
		}

		slog.Info("pass 2 complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_records", count),
			slog.Int("candidates", len(candidates)),
		)

		results[idx] = fileResult{candidates: candidates, records: records}
		return nil
	}
}

// streamGzFile opens a gzip-compressed file and calls fn for each parseable
// line. Lines with fewer than two fields or an empty name are skipped.
func streamGzFile(ctx context.Context, path string, fn func(rec record)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if rec, ok := parseLine(scanner.Text()); ok {
			fn(rec)
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

func parseLine(line string) (record, bool) {
	parts := strings.SplitN(line, ";", 4)
	if len(parts) < 2 {
		return record{}, false
	}
	rec := record{
		name: strings.TrimSpace(parts[0]),
		city: strings.TrimSpace(parts[1]),
	}
	if rec.name == "" {
		return record{}, false
	}
	if len(parts) > 2 {
		rec.address = strings.TrimSpace(parts[2])
	}
	if len(parts) > 3 {
		rec.phone = strings.TrimSpace(parts[3])
	}
	return rec, true
}

// writeShops upserts all confirmed directory records.
func writeShops(ctx context.Context, repo *repository.BarbershopRepository, records []record) error {
	slog.Info("writing barbershops to database", slog.Int("count", len(records)))

	for i, rec := range records {
		if err := repo.UpsertDirectory(ctx, &barbershop.Barbershop{
			ID:      uuid.New().String(),
			Name:    rec.name,
			City:    rec.city,
			Address: rec.address,
			Phone:   rec.phone,
		}); err != nil {
			return errors.Wrapf(err, "upsert barbershop %s", rec.name)
		}

		if (i+1)%100 == 0 || i+1 == len(records) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(records)))
		}
	}

	return nil
}
