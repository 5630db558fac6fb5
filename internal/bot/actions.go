package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/real_estate_api"
	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/session"
)

var ErrUnknownAction = errors.New("unknown button action")

type ActionKind string

const (
	ActionMode     ActionKind = "mode"
	ActionViertel  ActionKind = "viertel"
	ActionToggle   ActionKind = "toggle"
	ActionGenerate ActionKind = "generate"
	ActionRestart  ActionKind = "restart"
)

// Action is a decoded inline button press. Only the field matching Kind is set.
type Action struct {
	Kind    ActionKind
	Mode    session.Mode
	Viertel string
	Extra   real_estate_api.Extra
}

func ModeAction(m session.Mode) Action { return Action{Kind: ActionMode, Mode: m} }
func ViertelAction(name string) Action { return Action{Kind: ActionViertel, Viertel: name} }
func ToggleAction(e real_estate_api.Extra) Action { return Action{Kind: ActionToggle, Extra: e} }

// Data encodes the action as Telegram callback data.
func (a Action) Data() string {
	switch a.Kind {
	case ActionMode:
		return string(a.Kind) + ":" + string(a.Mode)
	case ActionViertel:
		return string(a.Kind) + ":" + a.Viertel
	case ActionToggle:
		return string(a.Kind) + ":" + string(a.Extra)
	}
	return string(a.Kind)
}

// ParseAction decodes callback data produced by Action.Data.
func ParseAction(data string) (Action, error) {
	kind, arg, _ := strings.Cut(data, ":")

	switch ActionKind(kind) {
	case ActionMode:
		switch m := session.Mode(arg); m {
		case session.ModeLocation, session.ModeApartment:
			return ModeAction(m), nil
		}
	case ActionViertel:
		if arg = strings.TrimSpace(arg); arg != "" {
			return ViertelAction(arg), nil
		}
	case ActionToggle:
		if e := real_estate_api.Extra(arg); e.Valid() {
			return ToggleAction(e), nil
		}
	case ActionGenerate, ActionRestart:
		if arg == "" {
			return Action{Kind: ActionKind(kind)}, nil
		}
	}
	return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, data)
}
