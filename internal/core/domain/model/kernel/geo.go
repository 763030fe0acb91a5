package kernel

import (
	"errors"
	"fmt"
	"math"

	"grocery/internal/pkg/errs"
	"grocery/internal/pkg/guard"
)

const (
	// LatitudeMin and LatitudeMax bound valid latitudes in degrees.
	LatitudeMin = -90.0
	LatitudeMax = 90.0
	// LongitudeMin and LongitudeMax bound valid longitudes in degrees.
	LongitudeMin = -180.0
	LongitudeMax = 180.0

	// earthRadiusKm is the mean Earth radius used by the haversine formula.
	earthRadiusKm = 6371.0
)

// ErrGeoPointIsNotConstructed is returned when attempting to use an
// improperly initialized GeoPoint. Points must be created via NewGeoPoint.
var ErrGeoPointIsNotConstructed = errs.NewValueIsRequiredError(
	"geo point must be created via NewGeoPoint constructor")

// GeoPoint represents a geographic coordinate pair in degrees. It is an
// immutable value object; the zero value is invalid and fails validation.
//
// GeoPoint is the positional primitive of the whole domain: customer delivery
// addresses, store locations, driver positions and bundle centroids are all
// GeoPoints, and the dispatch engine ranks candidates by great-circle
// distance between them.
//
// Example:
//
//	p, err := kernel.NewGeoPoint(37.7749, -122.4194)
//	if err != nil {
//	    // Handle validation error
//	}
//	fmt.Println(p) // GeoPoint(37.774900,-122.419400)
type GeoPoint struct { //nolint:recvcheck //using for validation
	lat   float64
	lon   float64
	guard guard.ConstructorGuard
}

// NewGeoPoint creates a GeoPoint after validating that latitude is within
// [-90, 90] and longitude within [-180, 180] degrees.
func NewGeoPoint(lat float64, lon float64) (GeoPoint, error) {
	p := GeoPoint{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(p.setLat(lat), p.setLon(lon)); err != nil {
		return GeoPoint{}, err
	}

	return p, nil
}

// Centroid returns the arithmetic mean of the given points. It is used to
// compute a bundle's center from its member delivery coordinates.
//
// Returns an error when the slice is empty or any point is invalid.
func Centroid(points []GeoPoint) (GeoPoint, error) {
	if len(points) == 0 {
		return GeoPoint{}, errs.NewValueIsRequiredError("points")
	}

	var sumLat, sumLon float64
	for _, p := range points {
		if err := p.Validate(); err != nil {
			return GeoPoint{}, err
		}
		sumLat += p.lat
		sumLon += p.lon
	}

	return NewGeoPoint(sumLat/float64(len(points)), sumLon/float64(len(points)))
}

// Validate checks that the GeoPoint was created through NewGeoPoint.
// The zero value is invalid and fails this validation.
func (p GeoPoint) Validate() error {
	return p.guard.Validate(ErrGeoPointIsNotConstructed)
}

// Latitude returns the latitude in degrees.
func (p GeoPoint) Latitude() float64 {
	return p.lat
}

// Longitude returns the longitude in degrees.
func (p GeoPoint) Longitude() float64 {
	return p.lon
}

// String implements fmt.Stringer.
func (p GeoPoint) String() string {
	return fmt.Sprintf("GeoPoint(%f,%f)", p.lat, p.lon)
}

// IsEqual compares two points for coordinate equality. Both points must be
// properly constructed for the comparison to succeed.
func (p GeoPoint) IsEqual(other GeoPoint) (bool, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return false, err
	}

	return p.lat == other.lat && p.lon == other.lon, nil
}

// DistanceTo returns the great-circle distance to other in kilometers using
// the haversine formula. Both points must be properly constructed.
//
// Example:
//
//	sf, _ := kernel.NewGeoPoint(37.7749, -122.4194)
//	oak, _ := kernel.NewGeoPoint(37.8044, -122.2712)
//	km, _ := sf.DistanceTo(oak) // ≈ 13.4
func (p GeoPoint) DistanceTo(other GeoPoint) (float64, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	lat1 := p.lat * math.Pi / 180
	lat2 := other.lat * math.Pi / 180
	dLat := (other.lat - p.lat) * math.Pi / 180
	dLon := (other.lon - p.lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c, nil
}

// setLat sets the latitude with range validation. Pointer receiver is used
// intentionally for self-encapsulated validation during construction.
func (p *GeoPoint) setLat(lat float64) error {
	if lat < LatitudeMin || lat > LatitudeMax {
		return errs.NewValueIsOutOfRangeError("latitude", lat, LatitudeMin, LatitudeMax)
	}

	p.lat = lat
	return nil
}

// setLon sets the longitude with range validation.
func (p *GeoPoint) setLon(lon float64) error {
	if lon < LongitudeMin || lon > LongitudeMax {
		return errs.NewValueIsOutOfRangeError("longitude", lon, LongitudeMin, LongitudeMax)
	}

	p.lon = lon
	return nil
}
