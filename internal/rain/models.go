package rain

// Position is the normalized metadata describing where a nowcast applies.
type Position struct {
	Lat                  float64 `json:"lat"`
	Lon                  float64 `json:"lon"`
	Altitude             float64 `json:"altitude"`
	Name                 string  `json:"name"`
	Country              string  `json:"country"`
	Department           string  `json:"department"`
	RainProductAvailable int     `json:"rainProductAvailable"` // 0 or 1
	Timezone             string  `json:"timezone"`             // IANA name
}

// Slot is a single forecast time bucket ("cadran").
type Slot struct {
	Timestamp     int64  `json:"timestamp"` // unix seconds
	RainIntensity int    `json:"rainIntensity"`
	Description   string `json:"description"`
}

// DryIntensity is the rain intensity the provider uses for "no rain".
// Anything strictly above it counts as rain; the upper bound is not documented upstream.
const DryIntensity = 1

// IsRain reports whether the slot forecasts any precipitation.
func (s Slot) IsRain() bool {
	return s.RainIntensity > DryIntensity
}

var intensityLabels = map[int]string{
	1: "Temps sec",
	2: "Pluie faible",
	3: "Pluie modérée",
	4: "Pluie forte",
}

// IntensityLabel returns the provider's label for an intensity level, or "" when unknown.
func IntensityLabel(level int) string {
	return intensityLabels[level]
}
