package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/earnify/paybot/core/telegram/keyboard"
	"github.com/earnify/paybot/session"
	"github.com/earnify/paybot/sheets"
)

var profileFields = map[string]sheets.UserField{
	btnFieldFirstName:   sheets.FieldFirstName,
	btnFieldLastName:    sheets.FieldLastName,
	btnFieldPaymentMode: sheets.FieldPaymentMode,
	btnFieldUPIID:       sheets.FieldUPIID,
	btnFieldBankAccount: sheets.FieldBankAccount,
	btnFieldIFSCCode:    sheets.FieldIFSCCode,
}

func (h *Handlers) stepProfileField(c tele.Context, sess *session.Session, text string) error {
	if text == btnBack {
		return h.toMainMenu(c, sess, "")
	}
	field, ok := profileFields[text]
	if !ok {
		return c.Send(msgProfileWhichField, profileFieldKeyboard())
	}
	sess.ProfileField = field
	sess.State = session.StateProfileValue
	if field == sheets.FieldPaymentMode {
		return c.Send(msgAskPaymentMode, paymentModeKeyboard())
	}
	// free-text answer, drop the field picker keyboard
	return c.Send(msgProfileAskValue, keyboard.RemoveKeyboard())
}

func (h *Handlers) stepProfileValue(c tele.Context, sess *session.Session, text string) error {
	if text == "" {
		return c.Send(msgProfileAskValue)
	}
	if sess.ProfileField == sheets.FieldPaymentMode && !sheets.ValidPaymentMode(text) {
		return c.Send(msgChooseMode, paymentModeKeyboard())
	}
	if err := h.store.UpdateUserField(h.ctx(c), sess.Username, sess.ProfileField, text); err != nil {
		return h.fail(c, err)
	}
	sess.ProfileField = ""
	return h.toMainMenu(c, sess, msgProfileUpdated)
}
