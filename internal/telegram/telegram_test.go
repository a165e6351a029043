package telegram

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fines/internal/log"
	"fines/internal/navigator"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.sendErr
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

type handlerFunc func(ctx context.Context, ev navigator.Event) (navigator.Screen, error)

func (f handlerFunc) Handle(ctx context.Context, ev navigator.Event) (navigator.Screen, error) {
	return f(ctx, ev)
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

var menu = navigator.Screen{
	Text: "Главное меню:",
	Keyboard: [][]navigator.Button{
		{{Label: "📊 Проверить штрафы", Token: "check_fines"}},
		{{Label: "📚 Архив штрафов", Token: "show_months"}},
	},
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 10,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb-1",
			From:    &tgbotapi.User{ID: 42, UserName: "boss"},
			Data:    data,
			Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: 99}},
		},
	}
}

func startUpdate() tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 11,
		Message: &tgbotapi.Message{
			MessageID: 1,
			From:      &tgbotapi.User{ID: 42, UserName: "boss"},
			Chat:      &tgbotapi.Chat{ID: 99},
			Text:      "/start",
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
		},
	}
}

func TestStartSendsMenu(t *testing.T) {
	api := &fakeAPI{}
	var got navigator.Event
	a := New(api, handlerFunc(func(_ context.Context, ev navigator.Event) (navigator.Screen, error) {
		got = ev
		return menu, nil
	}), 1, quietLogger())

	a.process(context.Background(), startUpdate())

	assert.True(t, got.Start)
	assert.Equal(t, navigator.Operator{ID: 42, Username: "boss"}, got.Operator)
	require.Len(t, api.sent, 1)
	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(99), msg.ChatID)
	assert.Equal(t, menu.Text, msg.Text)
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "check_fines", *kb.InlineKeyboard[0][0].CallbackData)
}

func TestCallbackAnswersThenEdits(t *testing.T) {
	api := &fakeAPI{}
	screen := navigator.Screen{Text: "👤 *Катя*", Markdown: true, Notice: "ok", Keyboard: menu.Keyboard}
	a := New(api, handlerFunc(func(_ context.Context, ev navigator.Event) (navigator.Screen, error) {
		assert.Equal(t, "view_employee_Катя", ev.Token)
		return screen, nil
	}), 1, quietLogger())

	a.process(context.Background(), callbackUpdate("view_employee_Катя"))

	require.Len(t, api.requests, 1)
	answer := api.requests[0].(tgbotapi.CallbackConfig)
	assert.Equal(t, "cb-1", answer.CallbackQueryID)
	assert.Equal(t, "ok", answer.Text)

	require.Len(t, api.sent, 1)
	edit := api.sent[0].(tgbotapi.EditMessageTextConfig)
	assert.Equal(t, int64(99), edit.ChatID)
	assert.Equal(t, 7, edit.MessageID)
	assert.Equal(t, tgbotapi.ModeMarkdown, edit.ParseMode)
	require.NotNil(t, edit.ReplyMarkup)
	assert.Len(t, edit.ReplyMarkup.InlineKeyboard, 2)
}

func TestNoticeOnlyDoesNotEdit(t *testing.T) {
	api := &fakeAPI{}
	a := New(api, handlerFunc(func(context.Context, navigator.Event) (navigator.Screen, error) {
		return navigator.Screen{Notice: "Нет доступных действий"}, nil
	}), 1, quietLogger())

	a.process(context.Background(), callbackUpdate("no_action"))

	assert.Len(t, api.requests, 1)
	assert.Empty(t, api.sent)
}

func TestHandlerErrorStillRendersScreen(t *testing.T) {
	api := &fakeAPI{}
	a := New(api, handlerFunc(func(context.Context, navigator.Event) (navigator.Screen, error) {
		return navigator.FailureScreen(), errors.New("disk I/O error")
	}), 1, quietLogger())

	a.process(context.Background(), callbackUpdate("check_fines"))

	require.Len(t, api.sent, 1)
	assert.Equal(t, navigator.FailureScreen().Text, api.sent[0].(tgbotapi.EditMessageTextConfig).Text)
}

func TestPlainTextIgnored(t *testing.T) {
	api := &fakeAPI{}
	called := false
	a := New(api, handlerFunc(func(context.Context, navigator.Event) (navigator.Screen, error) {
		called = true
		return navigator.Screen{}, nil
	}), 1, quietLogger())

	a.process(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: 1}}})

	assert.False(t, called)
	assert.Empty(t, api.sent)
}

func TestRunBoundsConcurrency(t *testing.T) {
	const limit = 2
	var inFlight, peak, done atomic.Int32
	release := make(chan struct{})

	a := New(&fakeAPI{}, handlerFunc(func(context.Context, navigator.Event) (navigator.Screen, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		inFlight.Add(-1)
		done.Add(1)
		return navigator.Screen{Notice: "ok"}, nil
	}), limit, quietLogger())

	updates := make(chan tgbotapi.Update, 6)
	for range 6 {
		updates <- callbackUpdate("no_action")
	}
	close(updates)

	finished := make(chan error, 1)
	go func() { finished <- a.Run(context.Background(), updates) }()

	require.Eventually(t, func() bool { return inFlight.Load() == limit }, time.Second, time.Millisecond)
	close(release)

	select {
	case err := <-finished:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after updates closed")
	}
	assert.Equal(t, int32(6), done.Load())
	assert.LessOrEqual(t, peak.Load(), int32(limit))
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := New(&fakeAPI{}, handlerFunc(func(context.Context, navigator.Event) (navigator.Screen, error) {
		return navigator.Screen{}, nil
	}), 1, quietLogger())

	finished := make(chan error, 1)
	go func() { finished <- a.Run(ctx, make(chan tgbotapi.Update)) }()
	cancel()

	select {
	case err := <-finished:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestIsNotModified(t *testing.T) {
	assert.True(t, isNotModified(&tgbotapi.Error{Code: 400, Message: "Bad Request: message is not modified"}))
	assert.False(t, isNotModified(errors.New("Forbidden: bot was blocked by the user")))
}
