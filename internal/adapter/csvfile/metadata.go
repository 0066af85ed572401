package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/couchcryptid/station-data-qc/internal/domain"
)

// MetadataRecord is one station's static metadata as stored in the metadata
// file. An empty coordinate cell parses to zero, which MergeMetadata treats
// as unset; (0, 0) is open ocean, no station sits there.
type MetadataRecord struct {
	Name     string  `csv:"name"`
	Network  string  `csv:"network"`
	Lat      float64 `csv:"lat"`
	Lon      float64 `csv:"lon"`
	CallName string  `csv:"call_name"`
	Location string  `csv:"location"`
}

// ReadMetadata parses a semicolon-separated station metadata file.
func ReadMetadata(path string) ([]MetadataRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading metadata file: %w", err)
	}
	defer f.Close()
	return parseMetadata(f)
}

func parseMetadata(r io.Reader) ([]MetadataRecord, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.TrimLeadingSpace = true

	var records []MetadataRecord
	if err := gocsv.UnmarshalCSV(cr, &records); err != nil {
		return nil, fmt.Errorf("parsing metadata: %w", err)
	}
	return records, nil
}

// MetadataIngestor decorates an Ingestor with a metadata merge step. The
// metadata file is re-read on every ingest so station updates land without a
// restart.
type MetadataIngestor struct {
	Inner  *Ingestor
	Path   string
	Logger *slog.Logger
}

// NewMetadataIngestor wraps a file ingestor with a metadata file.
func NewMetadataIngestor(inner *Ingestor, path string, logger *slog.Logger) *MetadataIngestor {
	return &MetadataIngestor{Inner: inner, Path: path, Logger: logger}
}

func (m *MetadataIngestor) Ingest(ctx context.Context) (domain.IngestTable, error) {
	table, err := m.Inner.Ingest(ctx)
	if err != nil {
		return nil, err
	}
	records, err := ReadMetadata(m.Path)
	if err != nil {
		return nil, err
	}
	MergeMetadata(table, records, m.Logger)
	return table, nil
}

// MergeMetadata fills metadata fields on ingest rows from the metadata
// records, matched by station name. Rows keep their own values where set;
// stations without a metadata record are logged and left as they are.
func MergeMetadata(table domain.IngestTable, records []MetadataRecord, logger *slog.Logger) {
	byName := make(map[string]MetadataRecord, len(records))
	for _, rec := range records {
		byName[rec.Name] = rec
	}

	missing := make(map[string]struct{})
	for i := range table {
		rec, ok := byName[table[i].Name]
		if !ok {
			missing[table[i].Name] = struct{}{}
			continue
		}
		if math.IsNaN(table[i].Lat) && rec.Lat != 0 {
			table[i].Lat = rec.Lat
		}
		if math.IsNaN(table[i].Lon) && rec.Lon != 0 {
			table[i].Lon = rec.Lon
		}
		if table[i].CallName == "" {
			table[i].CallName = rec.CallName
		}
		if table[i].Location == "" {
			table[i].Location = rec.Location
		}
		if table[i].Network == "" {
			table[i].Network = rec.Network
		}
	}
	for name := range missing {
		logger.Warn("station has no metadata record", "station", name)
	}
}
