package geocoding

import "context"

// Place is the best match returned by a geocoding service.
type Place struct {
	Lat         float64
	Lon         float64
	DisplayName string
	Postcode    string
}

// Geocoder looks up a free-text place name. A nil Place with a nil error
// means the service has no match.
type Geocoder interface {
	Search(ctx context.Context, query string) (*Place, error)
}
