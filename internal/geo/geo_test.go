package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	puertaDelSol = Coordinates{Lat: 40.4168, Lng: -3.7038}
	retiro       = Coordinates{Lat: 40.4153, Lng: -3.6845}
	chamberi     = Coordinates{Lat: 40.438, Lng: -3.685}
	barcelona    = Coordinates{Lat: 41.3874, Lng: 2.1686}
)

func TestDistanceZeroForSamePoint(t *testing.T) {
	assert.Equal(t, 0.0, Distance(puertaDelSol, puertaDelSol))
}

func TestDistanceIsSymmetric(t *testing.T) {
	assert.InDelta(t, Distance(puertaDelSol, retiro), Distance(retiro, puertaDelSol), 1e-12)
}

func TestDistanceKnownPairs(t *testing.T) {
	// Sol to Retiro is about 1.6km on the map
	assert.InDelta(t, 1.64, Distance(puertaDelSol, retiro), 0.1)

	// Sol to Chamberí is roughly 2.8km
	assert.InDelta(t, 2.85, Distance(puertaDelSol, chamberi), 0.2)

	// Madrid to Barcelona, sanity check at city scale
	assert.InDelta(t, 505, Distance(puertaDelSol, barcelona), 5)
}

func TestDistanceShortRange(t *testing.T) {
	// Two points ~100m apart should stay well under a kilometer
	a := Coordinates{Lat: 40.4168, Lng: -3.7038}
	b := Coordinates{Lat: 40.4177, Lng: -3.7038}
	d := Distance(a, b)
	assert.Greater(t, d, 0.05)
	assert.Less(t, d, 0.15)
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "350m", FormatDistance(0.35))
	assert.Equal(t, "999m", FormatDistance(0.9994))
	assert.Equal(t, "1.0km", FormatDistance(1.0))
	assert.Equal(t, "2.5km", FormatDistance(2.49))
	assert.Equal(t, "12.3km", FormatDistance(12.34))
}

func TestLookupPostalCode(t *testing.T) {
	loc, ok := LookupPostalCode("28001")
	assert.True(t, ok)
	assert.Equal(t, MethodPostal, loc.Method)
	assert.Equal(t, "28001", loc.PostalCode)
	assert.Equal(t, "Centro - Sol", loc.Area)
	assert.InDelta(t, 40.4168, loc.Coordinates.Lat, 1e-9)

	_, ok = LookupPostalCode("08001")
	assert.False(t, ok)
}

func TestParseMethod(t *testing.T) {
	assert.Equal(t, MethodGPS, ParseMethod("gps"))
	assert.Equal(t, MethodPostal, ParseMethod("postal"))
	assert.Equal(t, MethodNone, ParseMethod("none"))
	assert.Equal(t, MethodNone, ParseMethod(""))
	assert.Equal(t, MethodNone, ParseMethod("carrier-pigeon"))
}

func TestHasCoordinates(t *testing.T) {
	var nilLoc *Location
	assert.False(t, nilLoc.HasCoordinates())
	assert.False(t, (&Location{Method: MethodNone}).HasCoordinates())
	assert.False(t, (&Location{}).HasCoordinates())
	assert.True(t, (&Location{Method: MethodGPS}).HasCoordinates())
	assert.True(t, (&Location{Method: MethodPostal}).HasCoordinates())
}
