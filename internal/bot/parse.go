package bot

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/real_estate_api"
)

const (
	// openEndedMax caps "<n>+" ranges.
	openEndedMax = 10.0
	maxBudget    = 10000.0
)

var (
	ErrBudgetFormat  = errors.New("budget must look like 800-1500")
	ErrBudgetMin     = errors.New("minimum budget must be greater than 0")
	ErrBudgetOrder   = errors.New("maximum budget must be greater than the minimum")
	ErrBudgetCeiling = errors.New("maximum budget must not exceed 10000")
)

const number = `(\d+(?:[.,]\d+)?)`

var (
	rangeRe      = regexp.MustCompile(`^\s*` + number + `\s*-\s*` + number + `\s*$`)
	// "1.500" in a budget is fifteen hundred, not one and a half.
	thousandsRe  = regexp.MustCompile(`(\d)\.(\d{3})\b`)
	plusRe       = regexp.MustCompile(`^\s*` + number + `\s*\+\s*$`)
	spaceRoomsRe = regexp.MustCompile(`(?i)` + number + `\s*-\s*` + number + `\s*(?:m²|m2|qm|sqm)?\s*\|\s*` +
		number + `\s*-\s*` + number + `\s*(?:rooms?|zimmer)?`)
)

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	return v, err == nil
}

// parseBounds reads "<n>-<n>" without checking the order of the bounds.
func parseBounds(text string) (real_estate_api.Range, bool) {
	m := rangeRe.FindStringSubmatch(text)
	if m == nil {
		return real_estate_api.Range{}, false
	}
	lo, ok1 := parseNumber(m[1])
	hi, ok2 := parseNumber(m[2])
	return real_estate_api.Range{Min: lo, Max: hi}, ok1 && ok2
}

// ParseRange reads "<min>-<max>" and, when allowPlus is set, "<min>+" which
// is capped at openEndedMax. The minimum must be strictly below the maximum.
func ParseRange(text string, allowPlus bool) (real_estate_api.Range, bool) {
	r, ok := parseBounds(text)
	if !ok && allowPlus {
		if m := plusRe.FindStringSubmatch(text); m != nil {
			r.Min, ok = parseNumber(m[1])
			r.Max = openEndedMax
		}
	}
	if !ok || r.Min >= r.Max {
		return real_estate_api.Range{}, false
	}
	return r, true
}

// ParseSpaceRooms reads "42-68 m² | 2-4 rooms". Units are optional and
// surrounding text is ignored.
func ParseSpaceRooms(text string) (space, rooms real_estate_api.Range, ok bool) {
	m := spaceRoomsRe.FindStringSubmatch(text)
	if m == nil {
		return space, rooms, false
	}
	var vals [4]float64
	for i := range vals {
		if vals[i], ok = parseNumber(m[i+1]); !ok {
			return space, rooms, false
		}
	}
	space = real_estate_api.Range{Min: vals[0], Max: vals[1]}
	rooms = real_estate_api.Range{Min: vals[2], Max: vals[3]}
	if space.Min <= 0 || space.Min >= space.Max || rooms.Min <= 0 || rooms.Min >= rooms.Max {
		return real_estate_api.Range{}, real_estate_api.Range{}, false
	}
	return space, rooms, true
}

// ParseBudget reads a monthly rent range and applies the budget policy.
func ParseBudget(text string) (real_estate_api.Range, error) {
	r, ok := parseBounds(thousandsRe.ReplaceAllString(text, "$1$2"))
	switch {
	case !ok:
		return r, ErrBudgetFormat
	case r.Min <= 0:
		return r, ErrBudgetMin
	case r.Max <= r.Min:
		return r, ErrBudgetOrder
	case r.Max > maxBudget:
		return r, ErrBudgetCeiling
	}
	return r, nil
}

// ParseFloors accepts "any" (no preference, nil range) or "<min>-<max>".
func ParseFloors(text string) (*real_estate_api.Range, bool) {
	if strings.EqualFold(strings.TrimSpace(text), "any") {
		return nil, true
	}
	r, ok := ParseRange(text, false)
	if !ok {
		return nil, false
	}
	return &r, true
}
