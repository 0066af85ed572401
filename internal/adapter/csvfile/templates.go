// Package csvfile reads raw observation files and station metadata, and
// writes the labelled dataset export. Raw files are matched against column
// templates so the rest of the pipeline only ever sees package-space column
// names.
package csvfile

import (
	"fmt"

	"github.com/couchcryptid/station-data-qc/internal/domain"
)

// Column names with special meaning in package space. Every other mapped
// column must name an obstype.
const (
	ColDatetime = "datetime"
	ColDate     = "_date"
	ColTime     = "_time"
	ColName     = "name"
	ColLat      = "lat"
	ColLon      = "lon"
	ColCallName = "call_name"
	ColLocation = "location"
)

// Template maps one source file layout onto package space. A template is
// compatible with a file when every source header it names is present; extra
// file columns are ignored.
type Template struct {
	Name    string
	Network string

	// Columns maps source CSV headers to package-space names.
	Columns map[string]string

	// TimeLayout parses a combined datetime column. When the source splits
	// date and time over two columns (_date and _time), DateLayout and
	// ClockLayout are used instead and TimeLayout is empty.
	TimeLayout  string
	DateLayout  string
	ClockLayout string
}

// CompatibleWith reports whether every source header the template needs is
// present.
func (t Template) CompatibleWith(headers []string) bool {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[h] = struct{}{}
	}
	for src := range t.Columns {
		if _, ok := present[src]; !ok {
			return false
		}
	}
	return true
}

// DefaultTemplates returns the known source layouts, tried in order.
func DefaultTemplates() []Template {
	return []Template{
		{
			Name:        "vlinder",
			Network:     "vlinder",
			DateLayout:  "2006-01-02",
			ClockLayout: "15:04:05",
			Columns: map[string]string{
				"Vlinder":             ColName,
				"Datum":               ColDate,
				"Tijd (UTC)":          ColTime,
				"Temperatuur":         string(domain.ObstypeTemp),
				"Globe Temperatuur":   string(domain.ObstypeRadiationTemp),
				"Vochtigheid":         string(domain.ObstypeHumidity),
				"Neerslagintensiteit": string(domain.ObstypePrecip),
				"Neerslagsom":         string(domain.ObstypePrecipSum),
				"Windsnelheid":        string(domain.ObstypeWindSpeed),
				"Rukwind":             string(domain.ObstypeWindGust),
				"Windrichting":        string(domain.ObstypeWindDirection),
				"Luchtdruk":           string(domain.ObstypePressure),
				"Luchtdruk_Zeeniveau": string(domain.ObstypePressureSeaLevel),
			},
		},
		{
			Name:       "package-space",
			TimeLayout: "2006-01-02 15:04:05",
			Columns: map[string]string{
				"datetime": ColDatetime,
				"name":     ColName,
				"temp":     string(domain.ObstypeTemp),
				"humidity": string(domain.ObstypeHumidity),
			},
		},
	}
}

// FindTemplate returns the first template compatible with the file's
// headers. No compatible template is an input-shape error: the run aborts.
func FindTemplate(headers []string, templates []Template) (Template, error) {
	for _, t := range templates {
		if t.CompatibleWith(headers) {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("no compatible column template for headers %v", headers)
}
