package domain

import "fmt"

// Obstype identifies one observation category. Series are always selected by
// Obstype through an explicit map lookup; there is no dynamic field access.
type Obstype string

const (
	ObstypeTemp              Obstype = "temp"
	ObstypeRadiationTemp     Obstype = "radiation_temp"
	ObstypeHumidity          Obstype = "humidity"
	ObstypePrecip            Obstype = "precip"
	ObstypePrecipSum         Obstype = "precip_sum"
	ObstypeWindSpeed         Obstype = "wind_speed"
	ObstypeWindGust          Obstype = "wind_gust"
	ObstypeWindDirection     Obstype = "wind_direction"
	ObstypePressure          Obstype = "pressure"
	ObstypePressureSeaLevel  Obstype = "pressure_at_sea_level"
)

// AllObstypes lists every known observation type in canonical column order.
var AllObstypes = []Obstype{
	ObstypeTemp,
	ObstypeRadiationTemp,
	ObstypeHumidity,
	ObstypePrecip,
	ObstypePrecipSum,
	ObstypeWindSpeed,
	ObstypeWindGust,
	ObstypeWindDirection,
	ObstypePressure,
	ObstypePressureSeaLevel,
}

// ParseObstype validates a string against the closed obstype enumeration.
func ParseObstype(s string) (Obstype, error) {
	for _, ot := range AllObstypes {
		if string(ot) == s {
			return ot, nil
		}
	}
	return "", fmt.Errorf("unknown observation type %q", s)
}

// IsObstype reports whether s names a known observation type.
func IsObstype(s string) bool {
	_, err := ParseObstype(s)
	return err == nil
}
