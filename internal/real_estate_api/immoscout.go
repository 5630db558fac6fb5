package real_estate_api

import (
	"fmt"
	"html"
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	immoScoutSearchURL = "https://www.immobilienscout24.de/Suche/radius/wohnung-mieten"
	trafficSource      = "telegram_bot_viertel"

	radiusStep         = 2.0
	radiusCeiling      = 5.0
	budgetRaiseFactor  = 1.3
	spaceShrinkBy      = 10.0
	spaceGrowBy        = 15.0
	minFlexibleSpace   = 20.0
	summaryPostalCodes = 3
)

// Builder turns search criteria into ImmobilienScout24 radius search links.
type Builder struct {
	BaseURL string
	City    string
	Source  string
}

func NewImmoScoutBuilder(city string) *Builder {
	return &Builder{
		BaseURL: immoScoutSearchURL,
		City:    city,
		Source:  trafficSource,
	}
}

// Alternative is a relaxed variant of the user's search.
type Alternative struct {
	Title string
	URL   string
}

type param struct {
	key, value string
}

// BuildURL assembles the search link. Parameters keep the order in which
// they are added and absent data is never emitted.
func (b *Builder) BuildURL(c Criteria) string {
	var params []param
	add := func(k, v string) { params = append(params, param{k, v}) }

	// Location
	if c.Viertel != "" && len(c.PostalCodes) > 0 {
		add("centerofsearchaddress", fmt.Sprintf("%s;;;;;%s (%s);", b.City, c.Viertel, c.PostalCodes[0]))
	} else {
		add("centerofsearchaddress", b.City+";;;;;Custom Location;")
	}
	if c.Coordinates != nil && c.Radius != 0 {
		add("geocoordinates", strings.Join([]string{
			formatNumber(c.Coordinates.Lat),
			formatNumber(c.Coordinates.Lon),
			formatNumber(c.Radius),
		}, ";"))
	}
	if len(c.PostalCodes) > 0 {
		add("locationids", strings.Join(c.PostalCodes, ","))
	}

	// Property
	if c.Budget.positive() {
		add("price", formatRange(*c.Budget))
		add("pricetype", "rentpermonth")
	}
	if c.Space.positive() {
		add("livingspace", formatRange(*c.Space))
	}
	if c.Rooms.positive() {
		add("numberofrooms", formatRange(*c.Rooms))
	}
	if c.Floors != nil {
		add("floor", formatRange(*c.Floors))
	}

	// Equipment
	var equipment []string
	for _, e := range []Extra{ExtraGarden, ExtraBalcony, ExtraCellar} {
		if c.Extras.Get(e) {
			equipment = append(equipment, string(e))
		}
	}
	if len(equipment) > 0 {
		add("equipment", strings.Join(equipment, ","))
	}
	if c.Extras.Pets {
		add("petsallowedtypes", "yes")
	}
	if c.Extras.NoSwaps {
		add("exclusioncriteria", "swapflat")
	}
	if c.Extras.HidePromoted {
		add("haspromotion", "false")
	}

	add("enteredFrom", b.Source)

	var sb strings.Builder
	for i, p := range params {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.value))
	}
	return b.BaseURL + "?" + sb.String()
}

// Summary renders the criteria as Telegram HTML.
func (b *Builder) Summary(c Criteria) string {
	var sb strings.Builder
	sb.WriteString("📋 <b>Search Summary:</b>\n\n")

	if c.Viertel != "" {
		fmt.Fprintf(&sb, "🏘️ <b>Neighborhood:</b> %s", html.EscapeString(c.Viertel))
		if len(c.PostalCodes) > 0 {
			n := min(len(c.PostalCodes), summaryPostalCodes)
			plz := strings.Join(c.PostalCodes[:n], ", ")
			if len(c.PostalCodes) > summaryPostalCodes {
				plz += "..."
			}
			fmt.Fprintf(&sb, " (PLZ: %s)", plz)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "📍 <b>Radius:</b> %s km\n", formatNumber(c.Radius))
	fmt.Fprintf(&sb, "💶 <b>Budget:</b> €%s/month\n", formatOptionalRange(c.Budget))
	fmt.Fprintf(&sb, "🏠 <b>Size:</b> %s m², %s rooms\n", formatOptionalRange(c.Space), formatOptionalRange(c.Rooms))

	if c.Floors != nil {
		fmt.Fprintf(&sb, "🏢 <b>Floors:</b> %s\n", formatRange(*c.Floors))
	} else {
		sb.WriteString("🏢 <b>Floors:</b> Any\n")
	}

	if features := c.Extras.Features(); len(features) > 0 {
		fmt.Fprintf(&sb, "⚙️ <b>Features:</b> %s\n", strings.Join(features, ", "))
	}

	return sb.String()
}

// Alternatives returns up to three searches that each relax one dimension.
func (b *Builder) Alternatives(c Criteria) []Alternative {
	var alts []Alternative

	if c.Radius < radiusCeiling {
		wider := c.Clone()
		wider.Radius = c.Radius + radiusStep
		alts = append(alts, Alternative{
			Title: fmt.Sprintf("🎯 Expand to %skm radius", formatNumber(wider.Radius)),
			URL:   b.BuildURL(wider),
		})
	}

	if c.Budget != nil && c.Budget.Max != 0 {
		higher := c.Clone()
		higher.Budget.Max = math.Trunc(c.Budget.Max * budgetRaiseFactor)
		alts = append(alts, Alternative{
			Title: fmt.Sprintf("💰 Higher budget (up to €%s)", formatNumber(higher.Budget.Max)),
			URL:   b.BuildURL(higher),
		})
	}

	if c.Space.positive() {
		flexible := c.Clone()
		flexible.Space.Min = math.Max(minFlexibleSpace, c.Space.Min-spaceShrinkBy)
		flexible.Space.Max = c.Space.Max + spaceGrowBy
		alts = append(alts, Alternative{
			Title: fmt.Sprintf("📐 Flexible size (%sm²)", formatRange(*flexible.Space)),
			URL:   b.BuildURL(flexible),
		})
	}

	return alts
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatRange(r Range) string {
	return formatNumber(r.Min) + "-" + formatNumber(r.Max)
}

func formatOptionalRange(r *Range) string {
	if r == nil {
		return "?"
	}
	return formatRange(*r)
}
