package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/station-data-qc/internal/domain"
)

// Separators tried when sniffing a raw file, in order.
var separators = []rune{';', ',', '\t'}

// Ingestor reads one raw observation file into the normalized ingest table.
type Ingestor struct {
	Path      string
	Templates []Template
	Logger    *slog.Logger
}

// NewIngestor builds a file ingestor with the default template list.
func NewIngestor(path string, logger *slog.Logger) *Ingestor {
	return &Ingestor{Path: path, Templates: DefaultTemplates(), Logger: logger}
}

// Ingest parses the file into package space. Fatal conditions: unreadable
// file, no compatible template, no data rows. Unparseable numeric cells
// become the absent marker, unparseable timestamps drop the row with a
// warning.
func (in *Ingestor) Ingest(ctx context.Context) (domain.IngestTable, error) {
	raw, err := os.ReadFile(in.Path)
	if err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}

	records, err := sniffCSV(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", in.Path, err)
	}
	if len(records) < 2 {
		return nil, domain.ErrEmptyDataset
	}

	headers := records[0]
	tmpl, err := FindTemplate(headers, in.Templates)
	if err != nil {
		return nil, err
	}
	in.Logger.Info("compatible template found", "template", tmpl.Name, "file", in.Path)

	// Column index per package-space name.
	index := make(map[string]int)
	for i, h := range headers {
		if name, ok := tmpl.Columns[h]; ok {
			index[name] = i
		}
	}

	var table domain.IngestTable
	for line, rec := range records[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ts, err := parseTimestamp(tmpl, index, rec)
		if err != nil {
			in.Logger.Warn("row dropped", "file", in.Path, "line", line+2, "error", err)
			continue
		}

		row := domain.IngestRow{
			Timestamp: ts,
			Name:      cell(rec, index, ColName),
			Network:   tmpl.Network,
			Lat:       parseFloat(cell(rec, index, ColLat)),
			Lon:       parseFloat(cell(rec, index, ColLon)),
			CallName:  cell(rec, index, ColCallName),
			Location:  cell(rec, index, ColLocation),
			Values:    make(map[domain.Obstype]float64),
		}
		for name, i := range index {
			ot, err := domain.ParseObstype(name)
			if err != nil {
				continue
			}
			if i < len(rec) {
				row.Values[ot] = parseFloat(rec[i])
			}
		}
		table = append(table, row)
	}
	if len(table) == 0 {
		return nil, domain.ErrEmptyDataset
	}
	return table, nil
}

// sniffCSV parses the content with the first separator that yields more than
// one column.
func sniffCSV(content string) ([][]string, error) {
	var lastErr error
	for _, sep := range separators {
		r := csv.NewReader(strings.NewReader(content))
		r.Comma = sep
		r.FieldsPerRecord = -1
		records, err := r.ReadAll()
		if err != nil {
			lastErr = err
			continue
		}
		if len(records) > 0 && len(records[0]) > 1 {
			return records, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("only one column detected with separators %q", string(separators))
}

func parseTimestamp(tmpl Template, index map[string]int, rec []string) (time.Time, error) {
	if tmpl.TimeLayout != "" {
		return time.ParseInLocation(tmpl.TimeLayout, cell(rec, index, ColDatetime), time.UTC)
	}
	combined := cell(rec, index, ColDate) + " " + cell(rec, index, ColTime)
	return time.ParseInLocation(tmpl.DateLayout+" "+tmpl.ClockLayout, combined, time.UTC)
}

func cell(rec []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.Absent()
	}
	return v
}
