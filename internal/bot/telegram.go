package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/observability"
)

// Connect authorises against the Bot API, retrying a few times so the bot
// survives a slow network at startup.
func Connect(ctx context.Context, token string, attempts int, delay time.Duration) (*tgbotapi.BotAPI, error) {
	var lastErr error
	for i := 1; i <= attempts; i++ {
		api, err := tgbotapi.NewBotAPI(token)
		if err == nil {
			return api, nil
		}
		lastErr = err
		observability.Logger().Warn("telegram connect failed",
			slog.Int("attempt", i), slog.Int("attempts", attempts), slog.Any("error", err))

		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("connect to telegram after %d attempts: %w", attempts, lastErr)
}

// TelegramMessenger implements Messenger on top of the Bot API.
type TelegramMessenger struct {
	api *tgbotapi.BotAPI
}

func NewTelegramMessenger(api *tgbotapi.BotAPI) *TelegramMessenger {
	return &TelegramMessenger{api: api}
}

func (m *TelegramMessenger) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := m.api.Send(msg)
	return err
}

func (m *TelegramMessenger) SendMenu(chatID int64, text string, kb Keyboard) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = inlineMarkup(kb)
	_, err := m.api.Send(msg)
	return err
}

func (m *TelegramMessenger) EditMenu(chatID int64, messageID int, text string, kb Keyboard) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, inlineMarkup(kb))
	edit.ParseMode = tgbotapi.ModeHTML
	_, err := m.api.Send(edit)
	return err
}

func (m *TelegramMessenger) SendMapButton(chatID int64, text, label, webAppURL string) error {
	keyboard := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(
		tgbotapi.KeyboardButton{Text: label, WebApp: &tgbotapi.WebAppInfo{URL: webAppURL}}))
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = true

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = keyboard
	_, err := m.api.Send(msg)
	return err
}

func (m *TelegramMessenger) SendLocation(chatID int64, lat, lon float64) error {
	_, err := m.api.Send(tgbotapi.NewLocation(chatID, lat, lon))
	return err
}

func inlineMarkup(kb Keyboard) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, row := range kb {
		var buttons []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Label, b.URL))
			} else {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Action.Data()))
			}
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// Bot feeds Telegram updates into the router, one at a time.
type Bot struct {
	api       *tgbotapi.BotAPI
	router    *Router
	messenger Messenger
	stopOnce  sync.Once
}

func NewBot(api *tgbotapi.BotAPI, router *Router, messenger Messenger) *Bot {
	return &Bot{api: api, router: router, messenger: messenger}
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	// `updates` is a golang channel which receives telegram updates
	updates := b.api.GetUpdatesChan(u)
	defer b.Stop()

	observability.Logger().Info("listening for updates", slog.String("account", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// Stop ends long polling. It is safe to call more than once.
func (b *Bot) Stop() {
	b.stopOnce.Do(b.api.StopReceivingUpdates)
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	id := uuid.NewString()
	ctx = observability.WithUpdateID(ctx, id)
	log := observability.WithFields(slog.String("update_id", id), slog.Int("telegram_update_id", update.UpdateID))

	if q := update.CallbackQuery; q != nil {
		if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
			log.Warn("failed to answer callback", slog.Any("error", err))
		}
	}

	ev, ok := DecodeUpdate(update)
	if !ok {
		return
	}
	log = log.With(slog.Int64("user_id", ev.UserID))

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic while handling update", slog.Any("panic", rec), slog.String("stack", string(debug.Stack())))
			b.apologize(log, ev.ChatID)
		}
	}()

	if err := b.router.Handle(ctx, ev); err != nil {
		log.Error("failed to handle update", slog.Any("error", err))
		b.apologize(log, ev.ChatID)
	}
}

func (b *Bot) apologize(log *slog.Logger, chatID int64) {
	if err := b.messenger.SendText(chatID, apologyMessage); err != nil {
		log.Error("failed to send apology", slog.Any("error", err))
	}
}

// DecodeUpdate turns a Telegram update into a router event. Updates without
// a user or chat are ignored.
func DecodeUpdate(update tgbotapi.Update) (Event, bool) {
	switch {
	case update.Message != nil:
		msg := update.Message
		if msg.From == nil || msg.Chat == nil {
			return Event{}, false
		}
		ev := Event{UserID: msg.From.ID, ChatID: msg.Chat.ID, MessageID: msg.MessageID}
		switch {
		case msg.WebAppData != nil:
			ev.Kind = EventWebApp
			ev.Payload = msg.WebAppData.Data
		case msg.IsCommand():
			ev.Kind = EventCommand
			ev.Command = msg.Command()
		case msg.Text != "":
			ev.Kind = EventText
			ev.Text = msg.Text
		default:
			ev.Kind = EventUnsupported
		}
		return ev, true

	case update.CallbackQuery != nil:
		q := update.CallbackQuery
		if q.From == nil || q.Message == nil || q.Message.Chat == nil {
			return Event{}, false
		}
		ev := Event{UserID: q.From.ID, ChatID: q.Message.Chat.ID, MessageID: q.Message.MessageID}
		action, err := ParseAction(q.Data)
		if err != nil {
			ev.Kind = EventUnsupported
			return ev, true
		}
		ev.Kind = EventButton
		ev.Action = action
		return ev, true
	}
	return Event{}, false
}
