package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/earnify/paybot/session"
)

func (h *Handlers) checkBalance(c tele.Context, sess *session.Session) error {
	balance, err := h.store.Balance(h.ctx(c), sess.Username)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Send(msgBalance(balance), mainMenuKeyboard())
}
