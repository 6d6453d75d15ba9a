package geo

import "math"

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371

// Coordinates is a WGS84 point in decimal degrees.
type Coordinates struct {
	Lat float64 `gorm:"column:lat" json:"lat"`
	Lng float64 `gorm:"column:lng" json:"lng"`
}

// Distance returns the great-circle distance between two points in kilometers
// using the haversine formula. Inputs are not range-checked; out-of-range
// degrees produce a numerically valid but meaningless result.
func Distance(a, b Coordinates) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)

	h := sinLat*sinLat +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*sinLng*sinLng

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
