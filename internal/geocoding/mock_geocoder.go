package geocoding

import (
	"context"
	"errors"
	"strings"
)

// ErrUnavailable is returned by MockGeocoder when it simulates an outage.
var ErrUnavailable = errors.New("geocoder unavailable")

// MockGeocoder answers from a fixed table keyed by lower-cased query.
type MockGeocoder struct {
	Places      map[string]Place
	Unavailable bool
	Calls       int
}

func NewMockGeocoder() *MockGeocoder {
	return &MockGeocoder{Places: make(map[string]Place)}
}

func (m *MockGeocoder) Search(_ context.Context, query string) (*Place, error) {
	m.Calls++
	if m.Unavailable {
		return nil, ErrUnavailable
	}
	p, ok := m.Places[strings.ToLower(query)]
	if !ok {
		return nil, nil
	}
	return &p, nil
}
