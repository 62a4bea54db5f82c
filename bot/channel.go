package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/earnify/paybot/core/telegram/keyboard"
	"github.com/earnify/paybot/session"
)

func (h *Handlers) joinChannel(c tele.Context, _ *session.Session) error {
	markup := keyboard.InlineURLButton("Open channel", h.channel.InviteLink)
	if err := c.Send(msgJoinChannel(h.channel.InviteLink), markup); err != nil {
		return err
	}
	return c.Send(msgMainMenu, mainMenuKeyboard())
}
