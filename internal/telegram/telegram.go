// Package telegram connects the navigator to the Telegram Bot API over long
// polling. Each update runs in its own goroutine, bounded by a semaphore.
package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/semaphore"

	"fines/internal/log"
	"fines/internal/navigator"
)

// MaxCallbackData is Telegram's limit on inline button payloads.
const MaxCallbackData = 64

// API is the subset of *tgbotapi.BotAPI the adapter uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handler is satisfied by *navigator.Navigator.
type Handler interface {
	Handle(ctx context.Context, ev navigator.Event) (navigator.Screen, error)
}

type Adapter struct {
	api     API
	handler Handler
	sem     *semaphore.Weighted
	logger  *log.Logger
	wg      sync.WaitGroup
}

func New(api API, handler Handler, maxConcurrent int, logger *log.Logger) *Adapter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Adapter{
		api:     api,
		handler: handler,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		logger:  logger.WithComponent(log.ComponentTelegram),
	}
}

// Run dispatches updates until ctx is done or updates is closed, then waits
// for in-flight updates to finish.
func (a *Adapter) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	defer a.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			if err := a.sem.Acquire(ctx, 1); err != nil {
				return nil
			}
			a.wg.Add(1)
			go func() {
				defer a.wg.Done()
				defer a.sem.Release(1)
				a.process(ctx, upd)
			}()
		}
	}
}

func (a *Adapter) process(ctx context.Context, upd tgbotapi.Update) {
	logger := a.logger.With(log.FieldUpdateID, upd.UpdateID)
	ctx = log.NewContext(ctx, logger)

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Panic while handling update", "panic", r)
		}
	}()

	switch {
	case upd.CallbackQuery != nil:
		a.handleCallback(ctx, logger, upd.CallbackQuery)
	case upd.Message != nil && upd.Message.IsCommand() && upd.Message.Command() == "start":
		a.handleStart(ctx, logger, upd.Message)
	}
}

func operator(u *tgbotapi.User) navigator.Operator {
	if u == nil {
		return navigator.Operator{}
	}
	return navigator.Operator{ID: u.ID, Username: u.UserName}
}

func (a *Adapter) handleStart(ctx context.Context, logger *log.Logger, msg *tgbotapi.Message) {
	screen, err := a.handler.Handle(ctx, navigator.Event{Operator: operator(msg.From), Start: true})
	if err != nil {
		logger.ErrorContext(ctx, "Start failed", log.FieldError, err)
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, screen.Text)
	if screen.Markdown {
		out.ParseMode = tgbotapi.ModeMarkdown
	}
	if kb := a.keyboard(ctx, logger, screen); kb != nil {
		out.ReplyMarkup = *kb
	}
	if _, err := a.api.Send(out); err != nil {
		logger.ErrorContext(ctx, "Failed to send message", log.FieldError, err, log.FieldErrorType, log.ErrorTypeNetwork)
	}
}

func (a *Adapter) handleCallback(ctx context.Context, logger *log.Logger, cq *tgbotapi.CallbackQuery) {
	screen, err := a.handler.Handle(ctx, navigator.Event{Operator: operator(cq.From), Token: cq.Data})
	if err != nil {
		logger.ErrorContext(ctx, "Callback failed", log.FieldAction, cq.Data, log.FieldError, err)
	}

	// Answer first so the client stops its spinner even if the edit fails.
	if _, err := a.api.Request(tgbotapi.NewCallback(cq.ID, screen.Notice)); err != nil {
		logger.WarnContext(ctx, "Failed to answer callback", log.FieldError, err)
	}
	if screen.NoticeOnly() || cq.Message == nil {
		return
	}

	edit := tgbotapi.NewEditMessageText(cq.Message.Chat.ID, cq.Message.MessageID, screen.Text)
	if screen.Markdown {
		edit.ParseMode = tgbotapi.ModeMarkdown
	}
	if kb := a.keyboard(ctx, logger, screen); kb != nil {
		edit.ReplyMarkup = kb
	}
	if _, err := a.api.Send(edit); err != nil && !isNotModified(err) {
		logger.ErrorContext(ctx, "Failed to edit message", log.FieldError, err, log.FieldErrorType, log.ErrorTypeNetwork)
	}
}

// keyboard renders the screen's buttons, or nil when there are none.
func (a *Adapter) keyboard(ctx context.Context, logger *log.Logger, screen navigator.Screen) *tgbotapi.InlineKeyboardMarkup {
	if len(screen.Keyboard) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(screen.Keyboard))
	for _, r := range screen.Keyboard {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			if len(b.Token) > MaxCallbackData {
				logger.WarnContext(ctx, "Callback data exceeds Telegram limit", log.FieldAction, b.Token, "bytes", len(b.Token))
			}
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Token))
		}
		rows = append(rows, row)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func isNotModified(err error) bool {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		return strings.Contains(tgErr.Message, "message is not modified")
	}
	return strings.Contains(err.Error(), "message is not modified")
}
