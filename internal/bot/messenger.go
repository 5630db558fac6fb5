package bot

// Button is an inline button. It either opens URL or sends Action back.
type Button struct {
	Label  string
	Action Action
	URL    string
}

type Keyboard [][]Button

// Messenger sends replies to a chat. Texts use Telegram HTML formatting.
type Messenger interface {
	SendText(chatID int64, text string) error
	SendMenu(chatID int64, text string, kb Keyboard) error
	EditMenu(chatID int64, messageID int, text string, kb Keyboard) error
	// SendMapButton offers the mini-app through a reply keyboard button so
	// that it can send data back to the chat.
	SendMapButton(chatID int64, text, label, webAppURL string) error
	SendLocation(chatID int64, lat, lon float64) error
}

type EventKind int

const (
	EventUnsupported EventKind = iota
	EventCommand
	EventText
	EventButton
	EventWebApp
)

// Event is an incoming update reduced to what the router needs.
type Event struct {
	Kind      EventKind
	UserID    int64
	ChatID    int64
	MessageID int
	Command   string
	Text      string
	Action    Action
	Payload   string
}
