package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/earnify/paybot/core/telegram/keyboard"
)

func welcomeKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{btnSignup},
		[]string{btnLogin},
	)
}

func mainMenuKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{btnCheckBalance},
		[]string{btnWithdraw},
		[]string{btnJoinChannel},
		[]string{btnUpdateProfile},
		[]string{btnLogout},
	)
}

func paymentModeKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{btnModeUPI, btnModeBank})
}

func yesNoKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{btnYes, btnNo})
}

func profileFieldKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{btnFieldFirstName, btnFieldLastName},
		[]string{btnFieldPaymentMode, btnFieldUPIID},
		[]string{btnFieldBankAccount, btnFieldIFSCCode},
		[]string{btnBack},
	)
}
