package bot

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"math"
	"strings"

	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/database"
	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/geocoding"
	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/observability"
	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/real_estate_api"
	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/session"
)

const historyLimit = 5

// NeighborhoodResolver resolves a free-text neighbourhood name.
type NeighborhoodResolver interface {
	Resolve(ctx context.Context, name string) geocoding.Result
}

// SearchJournal records generated searches. It is optional.
type SearchJournal interface {
	SaveSearch(ctx context.Context, rec database.SearchRecord) (int64, error)
	RecentSearches(ctx context.Context, userID int64, limit int) ([]database.SearchRecord, error)
}

// Router maps incoming events and the user's session to replies.
type Router struct {
	messenger Messenger
	sessions  session.Store
	resolver  NeighborhoodResolver
	builder   *real_estate_api.Builder
	journal   SearchJournal
	webAppURL string
}

func NewRouter(messenger Messenger, sessions session.Store, resolver NeighborhoodResolver,
	builder *real_estate_api.Builder, journal SearchJournal, webAppURL string) *Router {
	return &Router{
		messenger: messenger,
		sessions:  sessions,
		resolver:  resolver,
		builder:   builder,
		journal:   journal,
		webAppURL: webAppURL,
	}
}

// Handle processes one event. A returned error means the reply could not be
// produced; the session is then left as it was before the event.
func (r *Router) Handle(ctx context.Context, ev Event) error {
	switch {
	case ev.Kind == EventCommand:
		return r.handleCommand(ctx, ev)
	case ev.Kind == EventButton && ev.Action.Kind == ActionMode:
		return r.startMode(ev.UserID, ev.ChatID, ev.Action.Mode)
	case ev.Kind == EventButton && ev.Action.Kind == ActionRestart:
		r.sessions.Reset(ev.UserID, session.ModeNone)
		return r.messenger.SendMenu(ev.ChatID, welcomeMessage, modeMenu())
	}

	return r.sessions.Update(ev.UserID, func(s *session.Session) error {
		observability.LoggerFromContext(ctx).Debug("dispatching event",
			slog.Int("kind", int(ev.Kind)), slog.String("mode", string(s.Mode)), slog.String("step", string(s.Step)))

		switch ev.Kind {
		case EventText:
			return r.handleText(ctx, ev, s)
		case EventButton:
			return r.handleButton(ctx, ev, s)
		case EventWebApp:
			return r.handleWebApp(ctx, ev, s)
		}
		return r.notSure(ev.ChatID)
	})
}

func (r *Router) handleCommand(ctx context.Context, ev Event) error {
	switch ev.Command {
	case "start", "cancel":
		r.sessions.Reset(ev.UserID, session.ModeNone)
		return r.messenger.SendMenu(ev.ChatID, welcomeMessage, modeMenu())
	case "location":
		return r.startMode(ev.UserID, ev.ChatID, session.ModeLocation)
	case "apartment":
		return r.startMode(ev.UserID, ev.ChatID, session.ModeApartment)
	case "help":
		return r.messenger.SendText(ev.ChatID, helpMessage)
	case "history":
		return r.sendHistory(ctx, ev)
	}
	return r.notSure(ev.ChatID)
}

func (r *Router) startMode(userID, chatID int64, mode session.Mode) error {
	r.sessions.Reset(userID, mode)

	if mode == session.ModeLocation {
		return r.messenger.SendMapButton(chatID, locationPromptMessage, mapButtonText,
			mapURL(r.webAppURL, session.ModeLocation, nil))
	}
	return r.messenger.SendMenu(chatID, viertelPromptMessage, viertelKeyboard(geocoding.Suggestions()))
}

func (r *Router) handleText(ctx context.Context, ev Event, s *session.Session) error {
	switch {
	case s.Step == session.StepStart:
		return r.messenger.SendMenu(ev.ChatID, welcomeMessage, modeMenu())
	case s.Mode == session.ModeLocation:
		return r.messenger.SendMapButton(ev.ChatID, locationPromptMessage, mapButtonText,
			mapURL(r.webAppURL, session.ModeLocation, nil))
	}

	switch s.Step {
	case session.StepViertel:
		return r.resolveViertel(ctx, ev, s, ev.Text)

	case session.StepBudget:
		budget, err := ParseBudget(ev.Text)
		if err != nil {
			return r.messenger.SendText(ev.ChatID, "❌ "+capitalize(err.Error())+".\n"+budgetPromptMessage)
		}
		s.Data.Budget = &budget
		if err := s.Advance(session.StepSpaceRooms); err != nil {
			return err
		}
		return r.messenger.SendText(ev.ChatID, spaceRoomsPrompt)

	case session.StepSpaceRooms:
		space, rooms, ok := ParseSpaceRooms(ev.Text)
		if !ok {
			return r.messenger.SendText(ev.ChatID, spaceRoomsFormatError)
		}
		s.Data.Space, s.Data.Rooms = &space, &rooms
		if err := s.Advance(session.StepFloors); err != nil {
			return err
		}
		return r.messenger.SendText(ev.ChatID, floorsPromptMessage)

	case session.StepFloors:
		floors, ok := ParseFloors(ev.Text)
		if !ok {
			return r.messenger.SendText(ev.ChatID, floorsFormatError)
		}
		s.Data.Floors = floors
		if err := s.Advance(session.StepExtras); err != nil {
			return err
		}
		return r.messenger.SendMenu(ev.ChatID, extrasPromptMessage, extrasKeyboard(s.Data.Extras))
	}

	return r.notSure(ev.ChatID)
}

func (r *Router) handleButton(ctx context.Context, ev Event, s *session.Session) error {
	switch {
	case ev.Action.Kind == ActionViertel && s.Is(session.ModeApartment, session.StepViertel):
		return r.resolveViertel(ctx, ev, s, ev.Action.Viertel)

	case ev.Action.Kind == ActionToggle && s.Is(session.ModeApartment, session.StepExtras):
		if _, err := s.Data.Extras.Toggle(ev.Action.Extra); err != nil {
			return err
		}
		if ev.MessageID == 0 {
			return r.messenger.SendMenu(ev.ChatID, extrasPromptMessage, extrasKeyboard(s.Data.Extras))
		}
		return r.messenger.EditMenu(ev.ChatID, ev.MessageID, extrasPromptMessage, extrasKeyboard(s.Data.Extras))

	case ev.Action.Kind == ActionGenerate && s.Is(session.ModeApartment, session.StepExtras):
		return r.generate(ctx, ev, s)
	}

	return r.notSure(ev.ChatID)
}

func (r *Router) resolveViertel(ctx context.Context, ev Event, s *session.Session, name string) error {
	res := r.resolver.Resolve(ctx, name)
	if !res.Found {
		return r.messenger.SendMenu(ev.ChatID, viertelNotFound, viertelKeyboard(geocoding.Suggestions()))
	}

	s.Data.Viertel = res.Name
	s.Data.PostalCodes = res.PostalCodes
	s.Data.ViertelCoords = res.Coordinates
	if err := s.Advance(session.StepLocation); err != nil {
		return err
	}

	text := fmt.Sprintf("✅ Found <b>%s</b>", html.EscapeString(res.Name))
	if len(res.PostalCodes) > 0 {
		text += " (PLZ: " + strings.Join(res.PostalCodes, ", ") + ")"
	}
	if err := r.messenger.SendText(ev.ChatID, text); err != nil {
		return err
	}
	return r.messenger.SendMapButton(ev.ChatID, viertelMapMessage, mapButtonText,
		mapURL(r.webAppURL, session.ModeApartment, res.Coordinates))
}

func (r *Router) handleWebApp(ctx context.Context, ev Event, s *session.Session) error {
	sel, err := ParseWebAppPayload(ev.Payload)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("rejected mini-app payload", slog.Any("error", err))
		return r.messenger.SendText(ev.ChatID, invalidPayloadMessage)
	}

	if sel.Mode != session.ModeLocation && s.Mode == session.ModeApartment {
		if !s.Is(session.ModeApartment, session.StepLocation) {
			return r.notSure(ev.ChatID)
		}
		coords := sel.Coordinates
		s.Data.Coordinates = &coords
		s.Data.Radius = sel.Radius
		if err := s.Advance(session.StepBudget); err != nil {
			return err
		}
		text := fmt.Sprintf("📍 Search centre set with a %s km radius.\n\n%s", formatKm(sel.Radius), budgetPromptMessage)
		return r.messenger.SendText(ev.ChatID, text)
	}

	return r.shareLocation(ev.ChatID, sel)
}

// shareLocation echoes the picked point and the area covered by the radius.
func (r *Router) shareLocation(chatID int64, sel MapSelection) error {
	area := math.Pi * sel.Radius * sel.Radius
	circumference := 2 * math.Pi * sel.Radius

	text := fmt.Sprintf("📍 <b>Location received!</b>\n\n"+
		"Latitude: %.6f\nLongitude: %.6f\nRadius: %s km\n\n"+
		"📐 Covered area: %.2f km²\n⭕ Circumference: %.2f km",
		sel.Coordinates.Lat, sel.Coordinates.Lon, formatKm(sel.Radius), area, circumference)

	if err := r.messenger.SendText(chatID, text); err != nil {
		return err
	}
	return r.messenger.SendLocation(chatID, sel.Coordinates.Lat, sel.Coordinates.Lon)
}

func (r *Router) generate(ctx context.Context, ev Event, s *session.Session) error {
	if ok, missing := s.Data.Validate(); !ok {
		return r.messenger.SendText(ev.ChatID, "❌ The search is incomplete:\n• "+strings.Join(missing, "\n• "))
	}

	searchURL := r.builder.BuildURL(s.Data)
	alts := r.builder.Alternatives(s.Data)
	text := r.builder.Summary(s.Data) + "\nTap below to open the results or try a relaxed search."

	if err := r.messenger.SendMenu(ev.ChatID, text, resultKeyboard(searchURL, alts)); err != nil {
		return err
	}

	r.recordSearch(ctx, ev.UserID, s.Data, searchURL)
	return nil
}

func (r *Router) recordSearch(ctx context.Context, userID int64, c real_estate_api.Criteria, searchURL string) {
	if r.journal == nil {
		return
	}
	log := observability.LoggerFromContext(ctx)

	criteria, err := real_estate_api.ExportJSON(c)
	if err != nil {
		log.Warn("could not export criteria, search not recorded", slog.Any("error", err))
		return
	}
	_, err = r.journal.SaveSearch(ctx, database.SearchRecord{
		UserID:   userID,
		Viertel:  c.Viertel,
		URL:      searchURL,
		Criteria: criteria,
	})
	if err != nil {
		log.Warn("could not record search", slog.Any("error", err))
	}
}

func (r *Router) sendHistory(ctx context.Context, ev Event) error {
	if r.journal == nil {
		return r.messenger.SendText(ev.ChatID, historyDisabled)
	}

	recs, err := r.journal.RecentSearches(ctx, ev.UserID, historyLimit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if len(recs) == 0 {
		return r.messenger.SendText(ev.ChatID, historyEmpty)
	}

	var sb strings.Builder
	sb.WriteString("🕘 Your last searches:\n")

	var kb Keyboard
	for i, rec := range recs {
		label := rec.CreatedAt.Format("02.01.2006 15:04")
		if rec.Viertel != "" {
			label = rec.Viertel + " · " + label
		}
		kb = append(kb, []Button{{Label: fmt.Sprintf("%d. %s", i+1, label), URL: rec.URL}})

		fmt.Fprintf(&sb, "\n<b>%d.</b> ", i+1)
		c, err := real_estate_api.ImportJSON(rec.Criteria)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn("unreadable journal entry",
				slog.Int64("search_id", rec.ID), slog.Any("error", err))
			sb.WriteString(html.EscapeString(label) + "\n")
			continue
		}
		sb.WriteString(r.builder.Summary(c))
	}
	return r.messenger.SendMenu(ev.ChatID, sb.String(), kb)
}

func (r *Router) notSure(chatID int64) error {
	return r.messenger.SendText(chatID, notSureMessage)
}

func formatKm(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
