package geo

import (
	"fmt"
	"math"
)

// Method describes how a viewer's location was acquired.
type Method string

const (
	// MethodGPS means the browser/device reported satellite coordinates.
	MethodGPS Method = "gps"
	// MethodPostal means coordinates were resolved from a postal code.
	MethodPostal Method = "postal"
	// MethodNone means no usable location; distance filtering is skipped.
	MethodNone Method = "none"
)

// Location is a viewer's position for the current request. It is supplied
// explicitly with each feed query and never persisted on posts.
type Location struct {
	Coordinates Coordinates `json:"coordinates"`
	PostalCode  string      `json:"postal_code,omitempty"`
	Area        string      `json:"area,omitempty"`
	Method      Method      `json:"method"`
}

// HasCoordinates reports whether the location carries usable coordinates.
func (l *Location) HasCoordinates() bool {
	return l != nil && l.Method != MethodNone && l.Method != ""
}

// FormatDistance renders a distance the way the post cards show it:
// meters under 1km, otherwise kilometers with one decimal.
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%dm", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.1fkm", km)
}

// postalCodes maps the Madrid postal codes the app launched with to their
// approximate centroid and neighborhood label.
var postalCodes = map[string]Location{
	"28001": {Coordinates: Coordinates{Lat: 40.4168, Lng: -3.7038}, Area: "Centro - Sol"},
	"28002": {Coordinates: Coordinates{Lat: 40.4095, Lng: -3.6934}, Area: "Centro - Cortes"},
	"28003": {Coordinates: Coordinates{Lat: 40.4021, Lng: -3.6987}, Area: "Centro - Embajadores"},
	"28004": {Coordinates: Coordinates{Lat: 40.42, Lng: -3.698}, Area: "Centro - Justicia"},
	"28005": {Coordinates: Coordinates{Lat: 40.4089, Lng: -3.6801}, Area: "Centro - Inclán"},
	"28006": {Coordinates: Coordinates{Lat: 40.424, Lng: -3.689}, Area: "Centro - Universidad"},
	"28007": {Coordinates: Coordinates{Lat: 40.4315, Lng: -3.692}, Area: "Centro - Palacio"},
	"28008": {Coordinates: Coordinates{Lat: 40.438, Lng: -3.685}, Area: "Chamberí"},
	"28009": {Coordinates: Coordinates{Lat: 40.428, Lng: -3.71}, Area: "Moncloa"},
	"28010": {Coordinates: Coordinates{Lat: 40.415, Lng: -3.72}, Area: "Arganzuela"},
}

// LookupPostalCode resolves a postal code to a Location with Method set to
// MethodPostal. The bool is false for codes outside the coverage table.
func LookupPostalCode(code string) (Location, bool) {
	loc, ok := postalCodes[code]
	if !ok {
		return Location{Method: MethodNone}, false
	}
	loc.PostalCode = code
	loc.Method = MethodPostal
	return loc, true
}

// ParseMethod normalizes a wire value into a Method, defaulting to none.
func ParseMethod(s string) Method {
	switch Method(s) {
	case MethodGPS, MethodPostal:
		return Method(s)
	default:
		return MethodNone
	}
}
