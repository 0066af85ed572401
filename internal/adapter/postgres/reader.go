// Package postgres ingests observations from a relational archive instead of
// a raw file. The table is expected to hold one row per (timestamp, station)
// in package-space columns.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/station-data-qc/internal/domain"
)

// Ingestor reads an observation window from a Postgres table.
type Ingestor struct {
	pool   *pgxpool.Pool
	table  string
	window time.Duration
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewIngestor connects to the database and verifies the connection. The
// window bounds how far back each ingest reaches; zero means the last 24
// hours.
func NewIngestor(ctx context.Context, connString, table string, window time.Duration, logger *slog.Logger) (*Ingestor, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Ingestor{
		pool:   pool,
		table:  table,
		window: window,
		clock:  clockwork.NewRealClock(),
		logger: logger,
	}, nil
}

// Close releases the connection pool.
func (in *Ingestor) Close() {
	in.pool.Close()
}

// Ingest reads the observation window ending now.
func (in *Ingestor) Ingest(ctx context.Context) (domain.IngestTable, error) {
	start, end := queryWindow(in.clock.Now(), in.window)
	in.logger.Info("ingesting observation window", "table", in.table, "start", start, "end", end)

	rows, err := in.pool.Query(ctx, selectQuery(in.table), start, end)
	if err != nil {
		return nil, fmt.Errorf("querying observations: %w", err)
	}
	defer rows.Close()

	var table domain.IngestTable
	for rows.Next() {
		var (
			ts                 time.Time
			name, network      string
			lat, lon           *float64
			callName, location *string
			vals               = make([]*float64, len(domain.AllObstypes))
		)
		dest := []any{&ts, &name, &network, &lat, &lon, &callName, &location}
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning observation row: %w", err)
		}

		row := domain.IngestRow{
			Timestamp: ts.UTC(),
			Name:      name,
			Network:   network,
			Lat:       deref(lat),
			Lon:       deref(lon),
			CallName:  derefString(callName),
			Location:  derefString(location),
			Values:    make(map[domain.Obstype]float64, len(vals)),
		}
		for i, ot := range domain.AllObstypes {
			if vals[i] != nil {
				row.Values[ot] = *vals[i]
			}
		}
		table = append(table, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading observation rows: %w", err)
	}
	if len(table) == 0 {
		return nil, domain.ErrEmptyDataset
	}
	return table, nil
}

// queryWindow resolves the [start, end) ingestion interval. A non-positive
// window defaults to the last 24 hours.
func queryWindow(now time.Time, window time.Duration) (time.Time, time.Time) {
	if window <= 0 {
		window = 24 * time.Hour
	}
	end := now.UTC()
	return end.Add(-window), end
}

func selectQuery(table string) string {
	cols := []string{"datetime", "name", "network", "lat", "lon", "call_name", "location"}
	for _, ot := range domain.AllObstypes {
		cols = append(cols, string(ot))
	}
	return fmt.Sprintf(
		"SELECT %s FROM %s WHERE datetime >= $1 AND datetime < $2 ORDER BY name, datetime",
		strings.Join(cols, ", "), table,
	)
}

func deref(v *float64) float64 {
	if v == nil {
		return domain.Absent()
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
