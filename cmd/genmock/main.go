// Command genmock generates a synthetic raw observation file in the vlinder
// column layout, plus a matching station metadata file. The output carries
// seeded defects (a spike, a frozen sensor, a step jump, a dead humidity
// sensor, and dropped rows) so every quality-control check has something to
// find.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/observations.csv -metadata-out data/mock/stations.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

var baseDate = time.Date(2022, time.September, 1, 0, 0, 0, 0, time.UTC)

var header = []string{
	"Vlinder", "Datum", "Tijd (UTC)",
	"Temperatuur", "Globe Temperatuur", "Vochtigheid",
	"Neerslagintensiteit", "Neerslagsom",
	"Windsnelheid", "Rukwind", "Windrichting",
	"Luchtdruk", "Luchtdruk_Zeeniveau",
}

type station struct {
	name     string
	lat, lon float64
	location string
	baseTemp float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the raw observation CSV")
	metaOut := flag.String("metadata-out", "", "output path for the station metadata CSV")
	stations := flag.Int("stations", 5, "number of stations")
	hours := flag.Int("hours", 24, "hours of data at 5-minute cadence")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *out == "" || *metaOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out, -metadata-out")
	}

	src := rand.NewPCG(*seed, 0)
	noise := distuv.Normal{Mu: 0, Sigma: 0.3, Src: src}
	rng := rand.New(src)

	defs := makeStations(*stations, rng)
	rows := 0
	records := [][]string{header}
	for _, st := range defs {
		r := generateStation(st, *hours, noise, rng)
		rows += len(r)
		records = append(records, r...)
	}

	if err := writeCSV(*out, records); err != nil {
		return fmt.Errorf("writing observations: %w", err)
	}
	log.Printf("wrote %d rows for %d stations: %s", rows, len(defs), *out)

	if err := writeCSV(*metaOut, metadataRecords(defs)); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	log.Printf("wrote metadata: %s", *metaOut)
	return nil
}

func makeStations(n int, rng *rand.Rand) []station {
	locations := []string{"Gent", "Melle", "Destelbergen", "Merelbeke", "Wondelgem", "Drongen"}
	defs := make([]station, n)
	for i := range defs {
		defs[i] = station{
			name:     fmt.Sprintf("vlinder%02d", i+1),
			lat:      51.02 + rng.Float64()*0.08,
			lon:      3.68 + rng.Float64()*0.10,
			location: locations[i%len(locations)],
			baseTemp: 16 + rng.Float64()*4,
		}
	}
	return defs
}

// generateStation produces one station's day at 5-minute cadence. Station 1
// gets a gross spike, station 2 a frozen temperature sensor, station 3 a step
// jump, station 4 a dead humidity sensor; every station loses a few rows.
func generateStation(st station, hours int, noise distuv.Normal, rng *rand.Rand) [][]string {
	samples := hours * 12
	var rows [][]string
	frozenTemp := math.NaN()

	for i := 0; i < samples; i++ {
		// Simulate transmission gaps.
		if rng.Float64() < 0.01 {
			continue
		}
		ts := baseDate.Add(time.Duration(i) * 5 * time.Minute)

		// Diurnal cycle peaking mid-afternoon.
		hourOfDay := float64(ts.Hour()) + float64(ts.Minute())/60
		temp := st.baseTemp + 5*math.Sin((hourOfDay-9)*math.Pi/12) + noise.Rand()

		switch {
		case st.name == "vlinder01" && i == samples/2:
			temp = 54.3
		case st.name == "vlinder02" && i >= samples/3 && i < samples/3+10:
			if math.IsNaN(frozenTemp) {
				frozenTemp = temp
			}
			temp = frozenTemp
		case st.name == "vlinder03" && i == samples/2:
			temp += 12
		}

		humidity := 75 - (temp-st.baseTemp)*2 + noise.Rand()*5
		humidity = math.Max(5, math.Min(100, humidity))
		if st.name == "vlinder04" && i >= samples/2 {
			humidity = 0
		}

		pressure := 101300 + noise.Rand()*200
		windSpeed := math.Abs(2 + noise.Rand()*3)

		rows = append(rows, []string{
			st.name,
			ts.Format("2006-01-02"),
			ts.Format("15:04:05"),
			f(temp, 1),
			f(temp+1.5+noise.Rand(), 1),
			f(humidity, 0),
			"0.0",
			"0.0",
			f(windSpeed, 1),
			f(windSpeed*1.8, 1),
			f(rng.Float64()*360, 0),
			f(pressure, 0),
			f(pressure+12, 0),
		})
	}
	return rows
}

func metadataRecords(defs []station) [][]string {
	records := [][]string{{"name", "network", "lat", "lon", "call_name", "location"}}
	for _, st := range defs {
		records = append(records, []string{
			st.name,
			"vlinder",
			f(st.lat, 5),
			f(st.lon, 5),
			st.location + " weerstation",
			st.location,
		})
	}
	return records
}

func writeCSV(path string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	w.Comma = ';'
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return w.Error()
}

func f(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
