package real_estate_api

import (
	"encoding/json"
	"fmt"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Range is an inclusive numeric interval entered by the user.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Extras are the optional listing filters toggled on the last wizard step.
type Extras struct {
	Garden       bool `json:"garden"`
	Balcony      bool `json:"balcony"`
	Cellar       bool `json:"cellar"`
	Pets         bool `json:"pets"`
	NoSwaps      bool `json:"no_swaps"`
	HidePromoted bool `json:"hide_promoted"`
}

// DefaultExtras hides flat swaps and promoted listings.
func DefaultExtras() Extras {
	return Extras{NoSwaps: true, HidePromoted: true}
}

// Extra names a single toggleable flag of Extras.
type Extra string

const (
	ExtraGarden       Extra = "garden"
	ExtraBalcony      Extra = "balcony"
	ExtraCellar       Extra = "cellar"
	ExtraPets         Extra = "pets"
	ExtraNoSwaps      Extra = "no_swaps"
	ExtraHidePromoted Extra = "hide_promoted"
)

// AllExtras lists the flags in display order.
var AllExtras = []Extra{ExtraGarden, ExtraBalcony, ExtraCellar, ExtraPets, ExtraNoSwaps, ExtraHidePromoted}

func (e Extra) Valid() bool {
	for _, x := range AllExtras {
		if x == e {
			return true
		}
	}
	return false
}

// Label is the human name used in keyboards and summaries.
func (e Extra) Label() string {
	switch e {
	case ExtraGarden:
		return "Garden"
	case ExtraBalcony:
		return "Balcony"
	case ExtraCellar:
		return "Cellar"
	case ExtraPets:
		return "Pets allowed"
	case ExtraNoSwaps:
		return "No swaps"
	case ExtraHidePromoted:
		return "Hide promoted"
	}
	return string(e)
}

func (x *Extras) flag(e Extra) *bool {
	switch e {
	case ExtraGarden:
		return &x.Garden
	case ExtraBalcony:
		return &x.Balcony
	case ExtraCellar:
		return &x.Cellar
	case ExtraPets:
		return &x.Pets
	case ExtraNoSwaps:
		return &x.NoSwaps
	case ExtraHidePromoted:
		return &x.HidePromoted
	}
	return nil
}

// Get reports whether the flag is set. Unknown flags are false.
func (x Extras) Get(e Extra) bool {
	if p := x.flag(e); p != nil {
		return *p
	}
	return false
}

// Toggle flips one flag in place and returns its new value.
func (x *Extras) Toggle(e Extra) (bool, error) {
	p := x.flag(e)
	if p == nil {
		return false, fmt.Errorf("unknown extra %q", e)
	}
	*p = !*p
	return *p, nil
}

// Features lists the labels of all set flags in display order.
func (x Extras) Features() []string {
	var out []string
	for _, e := range AllExtras {
		if x.Get(e) {
			out = append(out, e.Label())
		}
	}
	return out
}

// Criteria is the accumulated apartment search.
//
// Zero is not a usable bound for budget, space or rooms and such ranges are
// treated as missing. Floors may start at 0 (ground floor).
type Criteria struct {
	Viertel       string       `json:"viertel,omitempty"`
	PostalCodes   []string     `json:"plz_list,omitempty"`
	ViertelCoords *Coordinates `json:"viertel_coords,omitempty"`
	Coordinates   *Coordinates `json:"coordinates,omitempty"`
	Radius        float64      `json:"radius,omitempty"`
	Budget        *Range       `json:"budget,omitempty"`
	Space         *Range       `json:"space,omitempty"`
	Rooms         *Range       `json:"rooms,omitempty"`
	Floors        *Range       `json:"floors,omitempty"`
	Extras        Extras       `json:"extras"`
}

// NewCriteria returns empty criteria with default extras.
func NewCriteria() Criteria {
	return Criteria{Extras: DefaultExtras()}
}

// Clone returns a deep copy that shares no pointers or slices with c.
func (c Criteria) Clone() Criteria {
	out := c
	if c.PostalCodes != nil {
		out.PostalCodes = append([]string(nil), c.PostalCodes...)
	}
	out.ViertelCoords = cloneCoords(c.ViertelCoords)
	out.Coordinates = cloneCoords(c.Coordinates)
	out.Budget = cloneRange(c.Budget)
	out.Space = cloneRange(c.Space)
	out.Rooms = cloneRange(c.Rooms)
	out.Floors = cloneRange(c.Floors)
	return out
}

func cloneCoords(c *Coordinates) *Coordinates {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}

func cloneRange(r *Range) *Range {
	if r == nil {
		return nil
	}
	v := *r
	return &v
}

// positive reports whether both bounds are usable for budget, space and rooms.
func (r *Range) positive() bool {
	return r != nil && r.Min != 0 && r.Max != 0
}

// Validate reports every required field that is still missing.
func (c Criteria) Validate() (bool, []string) {
	var errs []string

	if c.Coordinates == nil || c.Coordinates.Lat == 0 || c.Coordinates.Lon == 0 {
		errs = append(errs, "Missing coordinates")
	}
	if c.Radius <= 0 {
		errs = append(errs, "Missing or invalid radius")
	}
	if !c.Budget.positive() {
		errs = append(errs, "Missing budget information")
	}
	if !c.Space.positive() {
		errs = append(errs, "Missing space information")
	}
	if !c.Rooms.positive() {
		errs = append(errs, "Missing rooms information")
	}

	return len(errs) == 0, errs
}

// ExportJSON renders criteria for storage or debugging.
func ExportJSON(c Criteria) (string, error) {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export criteria: %w", err)
	}
	return string(b), nil
}

// ImportJSON parses criteria written by ExportJSON.
func ImportJSON(data string) (Criteria, error) {
	c := NewCriteria()
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return Criteria{}, fmt.Errorf("import criteria: %w", err)
	}
	return c, nil
}
