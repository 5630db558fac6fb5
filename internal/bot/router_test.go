package bot

import (
	"context"
	"errors"
	"math"
	"net/url"
	"strings"
	"testing"

	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/database"
	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/geocoding"
	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/real_estate_api"
	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/session"
)

type sent struct {
	kind      string
	text      string
	kb        Keyboard
	messageID int
	url       string
	lat, lon  float64
}

type fakeMessenger struct {
	msgs []sent
	fail error
	// failNext fails that many sends before succeeding again.
	failNext int
}

func (f *fakeMessenger) record(s sent) error {
	if f.fail != nil {
		return f.fail
	}
	if f.failNext > 0 {
		f.failNext--
		return errors.New("send failed")
	}
	f.msgs = append(f.msgs, s)
	return nil
}

func (f *fakeMessenger) SendText(_ int64, text string) error {
	return f.record(sent{kind: "text", text: text})
}

func (f *fakeMessenger) SendMenu(_ int64, text string, kb Keyboard) error {
	return f.record(sent{kind: "menu", text: text, kb: kb})
}

func (f *fakeMessenger) EditMenu(_ int64, messageID int, text string, kb Keyboard) error {
	return f.record(sent{kind: "edit", text: text, kb: kb, messageID: messageID})
}

func (f *fakeMessenger) SendMapButton(_ int64, text, _ string, webAppURL string) error {
	return f.record(sent{kind: "map", text: text, url: webAppURL})
}

func (f *fakeMessenger) SendLocation(_ int64, lat, lon float64) error {
	return f.record(sent{kind: "location", lat: lat, lon: lon})
}

func (f *fakeMessenger) last() sent {
	if len(f.msgs) == 0 {
		return sent{}
	}
	return f.msgs[len(f.msgs)-1]
}

type fakeJournal struct {
	saved []database.SearchRecord
}

func (j *fakeJournal) SaveSearch(_ context.Context, rec database.SearchRecord) (int64, error) {
	j.saved = append(j.saved, rec)
	return int64(len(j.saved)), nil
}

func (j *fakeJournal) RecentSearches(_ context.Context, userID int64, limit int) ([]database.SearchRecord, error) {
	var out []database.SearchRecord
	for i := len(j.saved) - 1; i >= 0 && len(out) < limit; i-- {
		if j.saved[i].UserID == userID {
			out = append(out, j.saved[i])
		}
	}
	return out, nil
}

const userID, chatID = 11, 22

type harness struct {
	t       *testing.T
	router  *Router
	msgr    *fakeMessenger
	store   *session.MemoryStore
	geo     *geocoding.MockGeocoder
	journal *fakeJournal
}

func newHarness(t *testing.T) *harness {
	geo := geocoding.NewMockGeocoder()
	geo.Unavailable = true
	h := &harness{
		t:       t,
		msgr:    &fakeMessenger{},
		store:   session.NewMemoryStore(),
		geo:     geo,
		journal: &fakeJournal{},
	}
	h.router = NewRouter(h.msgr, h.store, geocoding.NewResolver(geo, "Berlin"),
		real_estate_api.NewImmoScoutBuilder("Berlin"), h.journal, "https://example.org/app/?v=7")
	return h
}

func (h *harness) send(ev Event) {
	h.t.Helper()
	ev.UserID, ev.ChatID = userID, chatID
	if err := h.router.Handle(context.Background(), ev); err != nil {
		h.t.Fatalf("handle %+v: %v", ev, err)
	}
}

func (h *harness) text(s string) { h.send(Event{Kind: EventText, Text: s}) }
func (h *harness) command(c string) { h.send(Event{Kind: EventCommand, Command: c}) }
func (h *harness) press(a Action) { h.send(Event{Kind: EventButton, Action: a, MessageID: 99}) }
func (h *harness) webApp(data string) { h.send(Event{Kind: EventWebApp, Payload: data}) }

func (h *harness) session() *session.Session { return h.store.Get(userID) }

func (h *harness) expectStep(step session.Step) {
	h.t.Helper()
	if got := h.session().Step; got != step {
		h.t.Fatalf("expected step %q, got %q", step, got)
	}
}

func TestStartShowsModeMenu(t *testing.T) {
	h := newHarness(t)

	h.text("hello")
	if m := h.msgr.last(); m.kind != "menu" || len(m.kb) != 2 {
		t.Fatalf("expected mode menu, got %+v", m)
	}

	h.command("start")
	if h.session().Step != session.StepStart || h.msgr.last().text != welcomeMessage {
		t.Fatalf("expected welcome after /start")
	}
}

func TestLocationModeEchoesSelection(t *testing.T) {
	h := newHarness(t)
	h.press(ModeAction(session.ModeLocation))

	m := h.msgr.last()
	if m.kind != "map" || !strings.Contains(m.url, "mode=location") {
		t.Fatalf("expected location map button, got %+v", m)
	}

	h.text("where?")
	if h.msgr.last().kind != "map" {
		t.Fatalf("text in location mode should re-offer the map")
	}

	h.webApp(`{"latitude":"52.52","longitude":"13.405","radius":"2"}`)
	n := len(h.msgr.msgs)
	echo, pin := h.msgr.msgs[n-2], h.msgr.msgs[n-1]
	for _, want := range []string{"Latitude: 52.520000", "Radius: 2 km", "Covered area: 12.57 km²", "Circumference: 12.57 km"} {
		if !strings.Contains(echo.text, want) {
			t.Errorf("echo missing %q:\n%s", want, echo.text)
		}
	}
	if pin.kind != "location" || pin.lat != 52.52 || pin.lon != 13.405 {
		t.Fatalf("expected location pin, got %+v", pin)
	}

	// repeat shares stay in location mode
	h.webApp(`{"latitude":48.1,"longitude":11.5,"radius":1}`)
	if s := h.session(); s.Mode != session.ModeLocation || s.Step != session.StepLocation {
		t.Fatalf("expected to remain in location mode, got %+v", s)
	}
}

func TestViertelFallsBackToStaticTable(t *testing.T) {
	h := newHarness(t)
	h.command("apartment")
	h.expectStep(session.StepViertel)

	h.text("Mitte")
	h.expectStep(session.StepLocation)

	s := h.session()
	if s.Data.Viertel != "Mitte" || s.Data.PostalCodes[0] != "10115" || s.Data.ViertelCoords != nil {
		t.Fatalf("unexpected session data: %+v", s.Data)
	}
	if m := h.msgr.last(); m.kind != "map" || !strings.Contains(m.url, "mode=apartment") {
		t.Fatalf("expected apartment map button, got %+v", m)
	}
}

func TestViertelNotFoundOffersSuggestions(t *testing.T) {
	h := newHarness(t)
	h.command("apartment")

	h.text("Atlantis")
	h.expectStep(session.StepViertel)

	m := h.msgr.last()
	if m.kind != "menu" || m.text != viertelNotFound || m.kb[0][0].Action != ViertelAction("Mitte") {
		t.Fatalf("expected suggestions, got %+v", m)
	}

	h.press(ViertelAction("Kreuzberg"))
	h.expectStep(session.StepLocation)
}

func TestViertelUsesGeocoderCentre(t *testing.T) {
	h := newHarness(t)
	h.geo.Unavailable = false
	h.geo.Places["friedrichshain, berlin"] = geocoding.Place{Lat: 52.515, Lon: 13.454, Postcode: "10245"}

	h.command("apartment")
	h.text("Friedrichshain")

	u, err := url.Parse(h.msgr.last().url)
	if err != nil {
		t.Fatalf("invalid map url: %v", err)
	}
	if u.Query().Get("lat") != "52.515000" || u.Query().Get("v") != "7" {
		t.Fatalf("expected centred map url, got %s", u)
	}
	if got := h.session().Data.PostalCodes; len(got) != 1 || got[0] != "10245" {
		t.Fatalf("expected geocoder postcode, got %v", got)
	}
}

func walkToExtras(h *harness) {
	h.t.Helper()
	h.command("apartment")
	h.text("Mitte")
	h.webApp(`{"latitude":52.5,"longitude":13.4,"radius":2,"mode":"apartment"}`)
	h.expectStep(session.StepBudget)
	h.text("800-1500")
	h.expectStep(session.StepSpaceRooms)
	h.text("42-68 m² | 2-4 rooms")
	h.expectStep(session.StepFloors)
	h.text("Any")
	h.expectStep(session.StepExtras)
}

func TestApartmentFlowGeneratesSearch(t *testing.T) {
	h := newHarness(t)
	walkToExtras(h)

	if m := h.msgr.last(); m.kind != "menu" || m.kb[len(m.kb)-1][0].Action.Kind != ActionGenerate {
		t.Fatalf("expected extras keyboard, got %+v", m)
	}

	h.press(Action{Kind: ActionGenerate})

	m := h.msgr.last()
	if m.kind != "menu" || !strings.Contains(m.text, "Search Summary") {
		t.Fatalf("expected summary, got %+v", m)
	}
	searchURL := m.kb[0][0].URL
	u, err := url.Parse(searchURL)
	if err != nil {
		t.Fatalf("invalid url: %v", err)
	}
	q := u.Query()
	want := map[string]string{
		"price":             "800-1500",
		"livingspace":       "42-68",
		"numberofrooms":     "2-4",
		"geocoordinates":    "52.5;13.4;2",
		"exclusioncriteria": "swapflat",
		"haspromotion":      "false",
	}
	for k, v := range want {
		if q.Get(k) != v {
			t.Errorf("%s = %q, want %q", k, q.Get(k), v)
		}
	}
	if q.Has("floor") {
		t.Errorf("no floor preference should omit the floor parameter")
	}

	// open, three alternatives, new search
	if len(m.kb) != 5 || m.kb[4][0].Action.Kind != ActionRestart {
		t.Fatalf("unexpected result keyboard: %+v", m.kb)
	}
	if len(h.journal.saved) != 1 || h.journal.saved[0].URL != searchURL || h.journal.saved[0].Viertel != "Mitte" {
		t.Fatalf("expected search to be journaled, got %+v", h.journal.saved)
	}

	h.command("history")
	hist := h.msgr.last()
	if hist.kind != "menu" || hist.kb[0][0].URL != searchURL {
		t.Fatalf("expected history entry, got %+v", hist)
	}
	for _, want := range []string{"Your last searches", "Neighborhood:</b> Mitte", "€800-1500/month"} {
		if !strings.Contains(hist.text, want) {
			t.Errorf("history missing %q:\n%s", want, hist.text)
		}
	}
}

func TestHistoryToleratesUnreadableCriteria(t *testing.T) {
	h := newHarness(t)
	h.journal.saved = append(h.journal.saved, database.SearchRecord{
		UserID: userID, Viertel: "Wedding", URL: "https://example.org/s", Criteria: "{broken",
	})

	h.command("history")
	m := h.msgr.last()
	if m.kind != "menu" || !strings.Contains(m.text, "Wedding") || m.kb[0][0].URL != "https://example.org/s" {
		t.Fatalf("expected plain history entry, got %+v", m)
	}
}

func TestUnexportableSearchIsNotJournaled(t *testing.T) {
	h := newHarness(t)
	walkToExtras(h)
	if err := h.store.Update(userID, func(s *session.Session) error {
		s.Data.Radius = math.Inf(1)
		return nil
	}); err != nil {
		t.Fatalf("update session: %v", err)
	}

	h.press(Action{Kind: ActionGenerate})
	if !strings.Contains(h.msgr.last().text, "Search Summary") {
		t.Fatalf("expected the search to be sent, got %+v", h.msgr.last())
	}
	if len(h.journal.saved) != 0 {
		t.Fatalf("expected no journal row without criteria, got %+v", h.journal.saved)
	}
}

func TestInvalidInputKeepsStep(t *testing.T) {
	h := newHarness(t)
	h.command("apartment")
	h.text("Mitte")
	h.webApp(`{"latitude":52.5,"longitude":13.4,"radius":2}`)

	for _, in := range []string{"0-900", "900-900", "800-20000", "lots"} {
		h.text(in)
		h.expectStep(session.StepBudget)
		if !strings.HasPrefix(h.msgr.last().text, "❌") {
			t.Fatalf("expected budget re-prompt for %q", in)
		}
	}

	h.text("800-1500")
	h.text("42-68 m² 2-4 rooms")
	h.expectStep(session.StepSpaceRooms)
	h.text("42-68 | 2-4")
	h.text("3+")
	h.expectStep(session.StepFloors)
	h.text("0-3")
	h.expectStep(session.StepExtras)
	if f := h.session().Data.Floors; f == nil || f.Min != 0 || f.Max != 3 {
		t.Fatalf("expected floors 0-3, got %+v", f)
	}
}

func TestMalformedPayloadLeavesSessionUntouched(t *testing.T) {
	h := newHarness(t)
	h.command("apartment")
	h.text("Mitte")
	before := h.session()

	for _, payload := range []string{`{bad json`, `{"latitude":52.5,"longitude":13.4}`} {
		h.webApp(payload)
		if h.msgr.last().text != invalidPayloadMessage {
			t.Fatalf("expected payload error reply for %s", payload)
		}
	}

	after := h.session()
	if after.Step != before.Step || after.Data.Coordinates != nil || after.Data.Radius != 0 {
		t.Fatalf("session changed after bad payload: %+v", after)
	}
}

func TestTogglesFlipFlagsWithoutAdvancing(t *testing.T) {
	h := newHarness(t)
	walkToExtras(h)

	h.press(ToggleAction(real_estate_api.ExtraBalcony))
	m := h.msgr.last()
	if m.kind != "edit" || m.messageID != 99 {
		t.Fatalf("expected keyboard edit, got %+v", m)
	}
	if m.kb[0][1].Label != "✅ Balcony" {
		t.Fatalf("expected balcony checked, got %q", m.kb[0][1].Label)
	}
	if !h.session().Data.Extras.Balcony {
		t.Fatalf("balcony flag not set")
	}

	h.press(ToggleAction(real_estate_api.ExtraBalcony))
	h.press(ToggleAction(real_estate_api.ExtraNoSwaps))
	h.press(ToggleAction(real_estate_api.ExtraNoSwaps))

	s := h.session()
	if s.Data.Extras != real_estate_api.DefaultExtras() {
		t.Fatalf("double toggles should restore defaults, got %+v", s.Data.Extras)
	}
	h.expectStep(session.StepExtras)
}

func TestGenerateReportsMissingFields(t *testing.T) {
	h := newHarness(t)
	walkToExtras(h)
	h.store.Update(userID, func(s *session.Session) error {
		s.Data.Rooms = nil
		s.Data.Space = nil
		return nil
	})

	h.press(Action{Kind: ActionGenerate})
	m := h.msgr.last()
	if !strings.Contains(m.text, "Missing space information") || !strings.Contains(m.text, "Missing rooms information") {
		t.Fatalf("expected all missing fields, got %q", m.text)
	}
	h.expectStep(session.StepExtras)
	if len(h.journal.saved) != 0 {
		t.Fatalf("incomplete search must not be journaled")
	}
}

func TestUnexpectedEventsGetGenericReply(t *testing.T) {
	h := newHarness(t)
	h.command("apartment")

	h.press(ToggleAction(real_estate_api.ExtraGarden))
	h.press(Action{Kind: ActionGenerate})
	h.send(Event{Kind: EventUnsupported})
	h.command("frobnicate")
	for _, m := range h.msgr.msgs[len(h.msgr.msgs)-4:] {
		if m.text != notSureMessage {
			t.Fatalf("expected generic reply, got %+v", m)
		}
	}
	h.expectStep(session.StepViertel)

	walkToExtras(h)
	h.text("balcony please")
	if h.msgr.last().text != notSureMessage {
		t.Fatalf("free text is not accepted on the extras step")
	}
	h.webApp(`{"latitude":52.5,"longitude":13.4,"radius":4}`)
	if h.msgr.last().text != notSureMessage || h.session().Data.Radius != 2 {
		t.Fatalf("map payload after the location step must be ignored")
	}
}

func TestRestartAndHelp(t *testing.T) {
	h := newHarness(t)
	walkToExtras(h)

	h.press(Action{Kind: ActionRestart})
	if s := h.session(); s.Mode != session.ModeNone || s.Data.Budget != nil {
		t.Fatalf("expected fresh session after restart, got %+v", s)
	}

	h.command("help")
	if h.msgr.last().text != helpMessage {
		t.Fatalf("expected help text")
	}
}

func TestHistoryDisabledWithoutJournal(t *testing.T) {
	msgr := &fakeMessenger{}
	r := NewRouter(msgr, session.NewMemoryStore(), geocoding.NewResolver(nil, "Berlin"),
		real_estate_api.NewImmoScoutBuilder("Berlin"), nil, "https://example.org/app/")

	if err := r.Handle(context.Background(), Event{Kind: EventCommand, Command: "history", UserID: 1, ChatID: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgr.last().text != historyDisabled {
		t.Fatalf("expected history disabled reply, got %+v", msgr.last())
	}
}

func TestSendFailureRollsBackSession(t *testing.T) {
	h := newHarness(t)
	h.command("apartment")

	h.msgr.fail = errors.New("telegram down")
	if err := h.router.Handle(context.Background(), Event{Kind: EventText, Text: "Mitte", UserID: userID, ChatID: chatID}); err == nil {
		t.Fatalf("expected send error")
	}
	h.msgr.fail = nil
	h.expectStep(session.StepViertel)
}
