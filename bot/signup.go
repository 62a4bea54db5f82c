package bot

import (
	"errors"

	tele "gopkg.in/telebot.v4"

	"log/slog"

	"github.com/earnify/paybot/core/logger"
	"github.com/earnify/paybot/core/metrics"
	"github.com/earnify/paybot/session"
	"github.com/earnify/paybot/sheets"
)

func (h *Handlers) stepSignupUsername(c tele.Context, sess *session.Session, text string) error {
	if text == "" {
		return c.Send(msgAskUsername)
	}
	_, err := h.store.FindUser(h.ctx(c), text)
	switch {
	case err == nil:
		return c.Send(msgUsernameTaken)
	case errors.Is(err, sheets.ErrUserNotFound):
	default:
		return h.fail(c, err)
	}
	sess.Signup.Username = text
	sess.State = session.StateSignupFirstName
	return c.Send(msgAskFirstName)
}

func (h *Handlers) stepSignupFirstName(c tele.Context, sess *session.Session, text string) error {
	if text == "" {
		return c.Send(msgAskFirstName)
	}
	sess.Signup.FirstName = text
	sess.State = session.StateSignupLastName
	return c.Send(msgAskLastName)
}

func (h *Handlers) stepSignupLastName(c tele.Context, sess *session.Session, text string) error {
	if text == "" {
		return c.Send(msgAskLastName)
	}
	sess.Signup.LastName = text
	sess.State = session.StateSignupPaymentMode
	return c.Send(msgAskPaymentMode, paymentModeKeyboard())
}

func (h *Handlers) stepSignupPaymentMode(c tele.Context, sess *session.Session, text string) error {
	if !sheets.ValidPaymentMode(text) {
		return c.Send(msgChooseMode, paymentModeKeyboard())
	}
	sess.Signup.PaymentMode = sheets.PaymentMode(text)
	if sess.Signup.PaymentMode == sheets.PaymentModeUPI {
		sess.State = session.StateSignupUPIID
		return c.Send(msgAskUPIID)
	}
	sess.State = session.StateSignupBankAccount
	return c.Send(msgAskBankAccount)
}

func (h *Handlers) stepSignupUPIID(c tele.Context, sess *session.Session, text string) error {
	if text == "" {
		return c.Send(msgAskUPIID)
	}
	sess.Signup.UPIID = text
	return h.askSignupConfirm(c, sess)
}

func (h *Handlers) stepSignupBankAccount(c tele.Context, sess *session.Session, text string) error {
	if text == "" {
		return c.Send(msgAskBankAccount)
	}
	sess.Signup.BankAccount = text
	sess.State = session.StateSignupIFSCCode
	return c.Send(msgAskIFSCCode)
}

func (h *Handlers) stepSignupIFSCCode(c tele.Context, sess *session.Session, text string) error {
	if text == "" {
		return c.Send(msgAskIFSCCode)
	}
	sess.Signup.IFSCCode = text
	return h.askSignupConfirm(c, sess)
}

func (h *Handlers) askSignupConfirm(c tele.Context, sess *session.Session) error {
	sess.State = session.StateSignupConfirm
	return c.Send(msgSignupSummary(signupRecord(sess.Signup)), yesNoKeyboard())
}

func (h *Handlers) stepSignupConfirm(c tele.Context, sess *session.Session, text string) error {
	switch text {
	case btnYes:
	case btnNo:
		sess.Signup = session.SignupForm{}
		sess.State = session.StateWelcome
		return c.Send(msgSignupCancelled+"\n\n"+msgWelcome, welcomeKeyboard())
	default:
		return c.Send(msgChooseYesNo, yesNoKeyboard())
	}

	rec := signupRecord(sess.Signup)
	if err := h.store.CreateUser(h.ctx(c), rec); err != nil {
		if errors.Is(err, sheets.ErrUserExists) {
			sess.State = session.StateSignupUsername
			return c.Send(msgUsernameTaken)
		}
		return h.fail(c, err)
	}

	metrics.SignupsCompleted.Inc()
	logger.Info(h.ctx(c), "bot", "signup.completed",
		slog.String("username", rec.Username))

	sess.Username = rec.Username
	sess.Authenticated = true
	sess.Signup = session.SignupForm{}
	return h.toMainMenu(c, sess, msgSignupDone)
}

func signupRecord(f session.SignupForm) sheets.UserRecord {
	return sheets.UserRecord{
		Username:    f.Username,
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		PaymentMode: f.PaymentMode,
		UPIID:       f.UPIID,
		BankAccount: f.BankAccount,
		IFSCCode:    f.IFSCCode,
	}
}

// fail reports a storage error to the user without leaking details. The
// error is still returned so the outcome is recorded as a failure.
func (h *Handlers) fail(c tele.Context, err error) error {
	if sendErr := c.Send(msgSomethingWentWrong); sendErr != nil {
		logger.Error(h.ctx(c), "bot", "send.failed",
			slog.String("err", sendErr.Error()))
	}
	return err
}
