package bot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/real_estate_api"
	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/session"
)

var ErrInvalidPayload = errors.New("invalid mini-app payload")

var validate = validator.New()

// flexFloat accepts both JSON numbers and numeric strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return fmt.Errorf("not a finite number: %s", b)
	}
	*f = flexFloat(v)
	return nil
}

type webAppPayload struct {
	Latitude  *flexFloat      `json:"latitude" validate:"required,latitude"`
	Longitude *flexFloat      `json:"longitude" validate:"required,longitude"`
	Radius    *flexFloat      `json:"radius" validate:"required,gt=0"`
	Mode      string          `json:"mode" validate:"omitempty,oneof=location apartment"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// MapSelection is the point and radius picked in the mini-app map.
type MapSelection struct {
	Coordinates real_estate_api.Coordinates
	Radius      float64
	// Mode is the optional hint sent by the mini-app.
	Mode session.Mode
}

// ParseWebAppPayload decodes and validates data sent by the mini-app.
func ParseWebAppPayload(data string) (MapSelection, error) {
	var p webAppPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return MapSelection{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := validate.Struct(p); err != nil {
		return MapSelection{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return MapSelection{
		Coordinates: real_estate_api.Coordinates{Lat: float64(*p.Latitude), Lon: float64(*p.Longitude)},
		Radius:      float64(*p.Radius),
		Mode:        session.Mode(p.Mode),
	}, nil
}

// mapURL points the mini-app at a mode and, when known, an initial centre.
func mapURL(base string, mode session.Mode, center *real_estate_api.Coordinates) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("mode", string(mode))
	if center != nil {
		q.Set("lat", strconv.FormatFloat(center.Lat, 'f', 6, 64))
		q.Set("lon", strconv.FormatFloat(center.Lon, 'f', 6, 64))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
