package bot

import (
	"context"
	"strings"

	tele "gopkg.in/telebot.v4"

	"log/slog"

	coreconfig "github.com/earnify/paybot/core/config"
	"github.com/earnify/paybot/core/logger"
	"github.com/earnify/paybot/core/metrics"
	"github.com/earnify/paybot/core/telegram"
	"github.com/earnify/paybot/core/telegram/helpers"
	"github.com/earnify/paybot/session"
)

// Handlers holds the conversation handlers and their dependencies.
type Handlers struct {
	store    Store
	sessions *session.Store
	channel  coreconfig.ChannelConfig
	menu     *telegram.Registry
}

func NewHandlers(store Store, sessions *session.Store, channel coreconfig.ChannelConfig) *Handlers {
	h := &Handlers{store: store, sessions: sessions, channel: channel, menu: telegram.NewRegistry()}
	h.menu.RegisterAction(h.menuAction(h.checkBalance), btnCheckBalance)
	h.menu.RegisterAction(h.menuAction(h.startWithdraw), btnWithdraw)
	h.menu.RegisterAction(h.menuAction(h.joinChannel), btnJoinChannel)
	h.menu.RegisterAction(h.menuAction(h.startProfile), btnUpdateProfile)
	h.menu.RegisterAction(h.logout, btnLogout)
	return h
}

// menuAction adapts a session-aware menu handler to the registry signature.
func (h *Handlers) menuAction(fn func(tele.Context, *session.Session) error) tele.HandlerFunc {
	return func(c tele.Context) error {
		return fn(c, h.sessions.Get(c.Chat().ID))
	}
}

// Start handles /start: the conversation restarts from the welcome screen
// and any previous login is dropped.
func (h *Handlers) Start(c tele.Context) error {
	h.sessions.Clear(c.Chat().ID)
	h.sessions.Get(c.Chat().ID)
	return h.observe(c, "start", func(c tele.Context) error {
		return c.Send(msgWelcome, welcomeKeyboard())
	})
}

// OnText routes every plain text message to the step the chat is in.
func (h *Handlers) OnText(c tele.Context) error {
	sess := h.sessions.Get(c.Chat().ID)
	text := strings.TrimSpace(c.Text())

	name, step := h.step(sess.State)
	if step == nil {
		// unknown state, recover by resetting the conversation
		logger.Warn(helpers.BuildContext(c), "bot", "state.unknown",
			slog.String("state", string(sess.State)))
		sess = h.sessions.Reset(c.Chat().ID)
		if sess.State == session.StateMainMenu {
			return c.Send(msgLostTrack+"\n\n"+msgMainMenu, mainMenuKeyboard())
		}
		return c.Send(msgLostTrack+"\n\n"+msgWelcome, welcomeKeyboard())
	}

	return h.observe(c, name, func(c tele.Context) error {
		return step(c, sess, text)
	})
}

type stepFunc func(c tele.Context, sess *session.Session, text string) error

func (h *Handlers) step(state session.State) (string, stepFunc) {
	switch state {
	case session.StateWelcome:
		return "welcome", h.stepWelcome
	case session.StateSignupUsername:
		return "signup.username", h.stepSignupUsername
	case session.StateSignupFirstName:
		return "signup.first_name", h.stepSignupFirstName
	case session.StateSignupLastName:
		return "signup.last_name", h.stepSignupLastName
	case session.StateSignupPaymentMode:
		return "signup.payment_mode", h.stepSignupPaymentMode
	case session.StateSignupUPIID:
		return "signup.upi_id", h.stepSignupUPIID
	case session.StateSignupBankAccount:
		return "signup.bank_account", h.stepSignupBankAccount
	case session.StateSignupIFSCCode:
		return "signup.ifsc_code", h.stepSignupIFSCCode
	case session.StateSignupConfirm:
		return "signup.confirm", h.stepSignupConfirm
	case session.StateLoginUsername:
		return "login.username", h.stepLoginUsername
	case session.StateMainMenu:
		return "menu", h.stepMainMenu
	case session.StateWithdrawAmount:
		return "withdraw.amount", h.stepWithdrawAmount
	case session.StateWithdrawModeConfirm:
		return "withdraw.mode_confirm", h.stepWithdrawModeConfirm
	case session.StateWithdrawNewMode:
		return "withdraw.new_mode", h.stepWithdrawNewMode
	case session.StateWithdrawUPIID:
		return "withdraw.upi_id", h.stepWithdrawUPIID
	case session.StateWithdrawBankAccount:
		return "withdraw.bank_account", h.stepWithdrawBankAccount
	case session.StateWithdrawIFSCCode:
		return "withdraw.ifsc_code", h.stepWithdrawIFSCCode
	case session.StateProfileField:
		return "profile.field", h.stepProfileField
	case session.StateProfileValue:
		return "profile.value", h.stepProfileValue
	}
	return "", nil
}

// observe runs fn and records its outcome in logs and metrics under a stable
// handler name.
func (h *Handlers) observe(c tele.Context, name string, fn tele.HandlerFunc) error {
	ctx := helpers.WithHandler(c, name)
	err := fn(c)
	outcome := logger.Status(err)
	metrics.HandlerOutcomes.WithLabelValues(name, outcome).Inc()
	attrs := []slog.Attr{slog.String("status", outcome)}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
		logger.Error(ctx, "bot", "handler.done", attrs...)
		return err
	}
	logger.Debug(ctx, "bot", "handler.done", attrs...)
	return nil
}

func (h *Handlers) ctx(c tele.Context) context.Context {
	return helpers.BuildContext(c)
}

// stepWelcome handles the signup/login choice.
func (h *Handlers) stepWelcome(c tele.Context, sess *session.Session, text string) error {
	switch text {
	case btnSignup:
		sess.State = session.StateSignupUsername
		return c.Send(msgAskUsername)
	case btnLogin:
		sess.State = session.StateLoginUsername
		return c.Send(msgAskUsername)
	}
	return c.Send(msgWelcome, welcomeKeyboard())
}

// stepMainMenu dispatches the authenticated menu through the action registry.
func (h *Handlers) stepMainMenu(c tele.Context, _ *session.Session, text string) error {
	if fn, ok := h.menu.LookupAction(text); ok {
		return fn(c)
	}
	return c.Send(msgMainMenu, mainMenuKeyboard())
}

func (h *Handlers) startProfile(c tele.Context, sess *session.Session) error {
	sess.State = session.StateProfileField
	return c.Send(msgProfileWhichField, profileFieldKeyboard())
}

func (h *Handlers) logout(c tele.Context) error {
	h.sessions.Clear(c.Chat().ID)
	logger.Info(h.ctx(c), "bot", "session.logout")
	return c.Send(msgLoggedOut, welcomeKeyboard())
}

func (h *Handlers) toMainMenu(c tele.Context, sess *session.Session, prefix string) error {
	sess.State = session.StateMainMenu
	msg := msgMainMenu
	if prefix != "" {
		msg = prefix + "\n\n" + msgMainMenu
	}
	return c.Send(msg, mainMenuKeyboard())
}
