package geocoding

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// viertelPLZ maps common Berlin neighbourhoods to their postal codes.
var viertelPLZ = map[string][]string{
	"mitte":           {"10115", "10117", "10119", "10178", "10179", "10435", "10559"},
	"charlottenburg":  {"10585", "10587", "10625", "10627", "10629", "14057", "14059"},
	"kreuzberg":       {"10961", "10963", "10965", "10967", "10969", "10997", "10999"},
	"prenzlauer berg": {"10405", "10407", "10409", "10435", "10437", "10439"},
	"friedrichshain":  {"10243", "10245", "10247", "10249"},
	"neukölln":        {"12043", "12045", "12047", "12049", "12051", "12053", "12055", "12057", "12059"},
	"schöneberg":      {"10777", "10779", "10781", "10783", "10785", "10787", "10823", "10825", "10827", "10829"},
	"wilmersdorf":     {"10707", "10709", "10711", "10713", "10715", "10717", "10719", "14193", "14195", "14197", "14199"},
	"tiergarten":      {"10553", "10555", "10557", "10559", "10785", "10787"},
	"wedding":         {"13347", "13349", "13351", "13353", "13355", "13357", "13359"},
	"moabit":          {"10551", "10553", "10555", "10557", "10559"},
	"pankow":          {"13187", "13189", "13156", "13158", "13159"},
	"weißensee":       {"13086", "13088", "13089"},
	"lichtenberg":     {"10315", "10317", "10318", "10319", "13055", "13057", "13059"},
	"tempelhof":       {"12101", "12103", "12105", "12107", "12109"},
	"steglitz":        {"12163", "12165", "12167", "12169", "12205", "12207", "12209"},
	"spandau":         {"13581", "13583", "13585", "13587", "13589", "13591", "13593", "13595", "13597", "13599"},
}

var suggestions = []string{
	"Mitte", "Charlottenburg", "Kreuzberg", "Prenzlauer Berg",
	"Friedrichshain", "Neukölln", "Schöneberg", "Wilmersdorf",
	"Tiergarten", "Wedding", "Moabit", "Pankow", "Tempelhof",
	"Steglitz", "Lichtenberg", "Weißensee", "Spandau",
}

// Normalize folds a neighbourhood name into its lookup key.
func Normalize(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	// Casers keep state and must not be shared between goroutines.
	lower := cases.Lower(language.German)
	return strings.Join(strings.Fields(lower.String(name)), " ")
}

// PostalCodes returns the static postal codes for a neighbourhood, or nil.
func PostalCodes(name string) []string {
	plz, ok := viertelPLZ[Normalize(name)]
	if !ok {
		return nil
	}
	return append([]string(nil), plz...)
}

// Suggestions lists the popular neighbourhoods offered when a name is unknown.
func Suggestions() []string {
	return append([]string(nil), suggestions...)
}
