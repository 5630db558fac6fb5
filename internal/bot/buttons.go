package bot

import (
	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/real_estate_api"
	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/session"
)

const (
	locationButtonText  = "📍 Share a location"
	apartmentButtonText = "🏠 Apartment search"
	mapButtonText       = "🗺️ Open map"
	generateButtonText  = "🔍 Generate search"
	openSearchText      = "🏠 Open on ImmobilienScout24"
	newSearchText       = "🔄 New search"

	suggestionsPerRow = 2
)

func modeMenu() Keyboard {
	return Keyboard{
		{{Label: locationButtonText, Action: ModeAction(session.ModeLocation)}},
		{{Label: apartmentButtonText, Action: ModeAction(session.ModeApartment)}},
	}
}

func viertelKeyboard(names []string) Keyboard {
	var kb Keyboard
	for i := 0; i < len(names); i += suggestionsPerRow {
		var row []Button
		for _, name := range names[i:min(i+suggestionsPerRow, len(names))] {
			row = append(row, Button{Label: name, Action: ViertelAction(name)})
		}
		kb = append(kb, row)
	}
	return kb
}

func extrasKeyboard(x real_estate_api.Extras) Keyboard {
	var kb Keyboard
	for i, e := range real_estate_api.AllExtras {
		mark := "⬜ "
		if x.Get(e) {
			mark = "✅ "
		}
		b := Button{Label: mark + e.Label(), Action: ToggleAction(e)}
		if i%2 == 0 {
			kb = append(kb, []Button{b})
		} else {
			kb[len(kb)-1] = append(kb[len(kb)-1], b)
		}
	}
	return append(kb, []Button{{Label: generateButtonText, Action: Action{Kind: ActionGenerate}}})
}

func resultKeyboard(searchURL string, alts []real_estate_api.Alternative) Keyboard {
	kb := Keyboard{{{Label: openSearchText, URL: searchURL}}}
	for _, a := range alts {
		kb = append(kb, []Button{{Label: a.Title, URL: a.URL}})
	}
	return append(kb, []Button{{Label: newSearchText, Action: Action{Kind: ActionRestart}}})
}
