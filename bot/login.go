package bot

import (
	"errors"

	tele "gopkg.in/telebot.v4"

	"log/slog"

	"github.com/earnify/paybot/core/logger"
	"github.com/earnify/paybot/session"
	"github.com/earnify/paybot/sheets"
)

func (h *Handlers) stepLoginUsername(c tele.Context, sess *session.Session, text string) error {
	if text == "" {
		return c.Send(msgAskUsername)
	}
	u, err := h.store.FindUser(h.ctx(c), text)
	switch {
	case errors.Is(err, sheets.ErrUserNotFound):
		// stay in this state so the user can retry
		return c.Send(msgLoginUnknown)
	case err != nil:
		return h.fail(c, err)
	}

	sess.Username = u.Username
	sess.Authenticated = true
	logger.Info(h.ctx(c), "bot", "login.success",
		slog.String("username", u.Username))
	return h.toMainMenu(c, sess, msgLoginSuccess(u.FirstName))
}
