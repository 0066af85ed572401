package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/station-data-qc/internal/domain"
)

// absentCell is how a missing value is written out.
const absentCell = "NaN"

const fileTimeLayout = "20060102T150405"

// Exporter writes the labelled dataset to a semicolon-separated file named
// dataset_<start>_<end>.csv in the configured folder.
type Exporter struct {
	Folder string
	Codes  domain.LabelCodes
}

// NewExporter builds an exporter with the default label codes.
func NewExporter(folder string) *Exporter {
	return &Exporter{Folder: folder, Codes: domain.DefaultLabelCodes()}
}

// Export writes one row per timestamp per station: datetime, name, network,
// a value and final-label column pair per obstype, then static metadata. A
// missing output folder is fatal at the point of export.
func (e *Exporter) Export(ds *domain.Dataset) (string, error) {
	if e.Folder == "" {
		return "", fmt.Errorf("no output folder configured")
	}
	start, end, ok := ds.TimeRange()
	if !ok {
		return "", domain.ErrEmptyDataset
	}

	name := fmt.Sprintf("dataset_%s_%s.csv",
		start.UTC().Format(fileTimeLayout), end.UTC().Format(fileTimeLayout))
	path := filepath.Join(e.Folder, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ';'

	obstypes := exportableObstypes(ds)
	header := []string{"datetime", "name", "network"}
	for _, ot := range obstypes {
		header = append(header, string(ot), string(ot)+"_QC_label")
	}
	header = append(header, "lat", "lon", "call_name", "location", "lcz")
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("writing export header: %w", err)
	}

	for _, st := range ds.Stations() {
		if err := e.writeStation(w, st, obstypes); err != nil {
			return "", fmt.Errorf("exporting station %s: %w", st.Name, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("writing export file: %w", err)
	}
	return path, nil
}

// exportableObstypes drops obstypes no station ever reported a value for.
// Their columns would hold nothing but the absent cell.
func exportableObstypes(ds *domain.Dataset) []domain.Obstype {
	var out []domain.Obstype
	for _, ot := range ds.Obstypes() {
		for _, st := range ds.Stations() {
			if s, ok := st.Series(ot); ok && !s.AllAbsent() {
				out = append(out, ot)
				break
			}
		}
	}
	return out
}

func (e *Exporter) writeStation(w *csv.Writer, st *domain.Station, obstypes []domain.Obstype) error {
	finals := make(map[domain.Obstype][]domain.Label, len(obstypes))
	var index []time.Time
	for _, ot := range obstypes {
		s, ok := st.Series(ot)
		if !ok {
			return fmt.Errorf("no %s series", ot)
		}
		final, err := st.FinalLabels(ot, e.Codes)
		if err != nil {
			return err
		}
		finals[ot] = final
		index = s.Times
	}

	for i, ts := range index {
		row := []string{ts.UTC().Format(time.RFC3339), st.Name, st.Network}
		for _, ot := range obstypes {
			s, _ := st.Series(ot)
			row = append(row, formatValue(s.Values[i]), string(finals[ot][i]))
		}
		row = append(row,
			formatValue(st.Lat),
			formatValue(st.Lon),
			st.CallName,
			st.Location,
			st.Landcover,
		)
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func formatValue(v float64) string {
	if domain.IsAbsent(v) {
		return absentCell
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
