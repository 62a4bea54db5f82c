package bot

import (
	"time"

	tele "gopkg.in/telebot.v4"

	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/earnify/paybot/core/logger"
	"github.com/earnify/paybot/core/metrics"
	"github.com/earnify/paybot/session"
	"github.com/earnify/paybot/sheets"
)

func (h *Handlers) startWithdraw(c tele.Context, sess *session.Session) error {
	sess.Withdraw = session.WithdrawForm{}
	sess.State = session.StateWithdrawAmount
	return c.Send(msgAskWithdrawAmount)
}

func (h *Handlers) stepWithdrawAmount(c tele.Context, sess *session.Session, text string) error {
	amount, err := decimal.NewFromString(text)
	if err != nil || !amount.IsPositive() {
		return c.Send(msgInvalidAmount)
	}

	user, err := h.store.FindUser(h.ctx(c), sess.Username)
	if err != nil {
		return h.fail(c, err)
	}
	if amount.GreaterThan(user.Balance) {
		return h.toMainMenu(c, sess, msgInsufficientBalance(user.Balance))
	}

	sess.Withdraw.Amount = amount
	sess.Withdraw.Mode = user.PaymentMode
	sess.State = session.StateWithdrawModeConfirm
	return c.Send(msgConfirmMode(user.PaymentMode), yesNoKeyboard())
}

func (h *Handlers) stepWithdrawModeConfirm(c tele.Context, sess *session.Session, text string) error {
	switch text {
	case btnYes:
	case btnNo:
		sess.State = session.StateWithdrawNewMode
		return c.Send(msgAskNewMode, paymentModeKeyboard())
	default:
		return c.Send(msgChooseYesNo, yesNoKeyboard())
	}

	user, err := h.store.FindUser(h.ctx(c), sess.Username)
	if err != nil {
		return h.fail(c, err)
	}
	if sess.Withdraw.Mode == sheets.PaymentModeBank {
		if user.BankAccount == "" {
			sess.State = session.StateWithdrawBankAccount
			return c.Send(msgAskBankAccount)
		}
		sess.Withdraw.Destination = user.BankAccount
		sess.Withdraw.IFSCCode = user.IFSCCode
		return h.finishWithdraw(c, sess)
	}
	if user.UPIID == "" {
		sess.State = session.StateWithdrawUPIID
		return c.Send(msgAskUPIID)
	}
	sess.Withdraw.Destination = user.UPIID
	return h.finishWithdraw(c, sess)
}

func (h *Handlers) stepWithdrawNewMode(c tele.Context, sess *session.Session, text string) error {
	if !sheets.ValidPaymentMode(text) {
		return c.Send(msgChooseMode, paymentModeKeyboard())
	}
	sess.Withdraw.Mode = sheets.PaymentMode(text)
	if sess.Withdraw.Mode == sheets.PaymentModeUPI {
		sess.State = session.StateWithdrawUPIID
		return c.Send(msgAskUPIID)
	}
	sess.State = session.StateWithdrawBankAccount
	return c.Send(msgAskBankAccount)
}

func (h *Handlers) stepWithdrawUPIID(c tele.Context, sess *session.Session, text string) error {
	if text == "" {
		return c.Send(msgAskUPIID)
	}
	sess.Withdraw.Destination = text
	return h.finishWithdraw(c, sess)
}

func (h *Handlers) stepWithdrawBankAccount(c tele.Context, sess *session.Session, text string) error {
	if text == "" {
		return c.Send(msgAskBankAccount)
	}
	sess.Withdraw.Destination = text
	sess.State = session.StateWithdrawIFSCCode
	return c.Send(msgAskIFSCCode)
}

func (h *Handlers) stepWithdrawIFSCCode(c tele.Context, sess *session.Session, text string) error {
	if text == "" {
		return c.Send(msgAskIFSCCode)
	}
	sess.Withdraw.IFSCCode = text
	return h.finishWithdraw(c, sess)
}

// finishWithdraw records the Pending request. The balance stays untouched;
// it is adjusted by the external process that settles approved payments.
func (h *Handlers) finishWithdraw(c tele.Context, sess *session.Session) error {
	pr := sheets.PaymentRequest{
		Username:    sess.Username,
		Amount:      sess.Withdraw.Amount,
		Mode:        sess.Withdraw.Mode,
		Destination: sess.Withdraw.Destination,
		IFSCCode:    sess.Withdraw.IFSCCode,
		RequestedAt: time.Now(),
		Status:      sheets.StatusPending,
	}
	if err := h.store.AppendPaymentRequest(h.ctx(c), pr); err != nil {
		return h.fail(c, err)
	}

	metrics.PaymentRequestsCreated.Inc()
	logger.Info(h.ctx(c), "bot", "withdraw.recorded",
		slog.String("username", pr.Username),
		slog.String("amount", pr.Amount.String()),
		slog.String("mode", string(pr.Mode)))

	done := msgWithdrawDone(pr.Amount, h.channel.InvoiceBotUsername, h.channel.PaymentDate)
	sess.Withdraw = session.WithdrawForm{}
	return h.toMainMenu(c, sess, done)
}
