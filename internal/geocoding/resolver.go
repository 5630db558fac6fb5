package geocoding

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/observability"
	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/real_estate_api"
)

// Result is the outcome of resolving a neighbourhood name.
type Result struct {
	Found       bool
	Name        string
	Coordinates *real_estate_api.Coordinates
	PostalCodes []string
	DisplayName string
}

// Resolver resolves neighbourhood names in one city, first through the
// geocoder and then through the static postal code table.
type Resolver struct {
	geocoder Geocoder
	city     string
}

func NewResolver(geocoder Geocoder, city string) *Resolver {
	return &Resolver{geocoder: geocoder, city: city}
}

func (r *Resolver) Resolve(ctx context.Context, name string) Result {
	name = strings.TrimSpace(name)
	log := observability.LoggerFromContext(ctx).With(slog.String("viertel", name))

	if name == "" {
		return Result{}
	}

	if r.geocoder != nil {
		place, err := r.geocoder.Search(ctx, name+", "+r.city)
		if err != nil {
			log.Warn("geocoder lookup failed, using static table", slog.Any("error", err))
		} else if place != nil {
			res := Result{
				Found:       true,
				Name:        name,
				Coordinates: &real_estate_api.Coordinates{Lat: place.Lat, Lon: place.Lon},
				DisplayName: place.DisplayName,
			}
			if place.Postcode != "" {
				res.PostalCodes = []string{place.Postcode}
			} else {
				res.PostalCodes = PostalCodes(name)
			}
			return res
		}
	}

	if plz := PostalCodes(name); len(plz) > 0 {
		log.Info("resolved from static table")
		return Result{
			Found:       true,
			Name:        name,
			PostalCodes: plz,
			DisplayName: name + ", " + r.city,
		}
	}

	log.Info("neighbourhood not found")
	return Result{Name: name}
}
