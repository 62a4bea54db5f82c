package bot

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/earnify/paybot/sheets"
)

// Button labels. These double as the match keys for incoming text, so they
// must stay byte-identical to what the keyboards send.
const (
	btnSignup = "1. Signup"
	btnLogin  = "2. Login"

	btnCheckBalance  = "1. Check Balance"
	btnWithdraw      = "2. Withdraw Funds"
	btnJoinChannel   = "3. Join Channel"
	btnUpdateProfile = "4. Update Profile"
	btnLogout        = "Logout"

	btnModeUPI  = "UPI"
	btnModeBank = "Bank Account"

	btnYes = "Yes"
	btnNo  = "No"

	btnFieldFirstName   = "First Name"
	btnFieldLastName    = "Last Name"
	btnFieldPaymentMode = "Payment Mode"
	btnFieldUPIID       = "UPI ID"
	btnFieldBankAccount = "Bank Account Number"
	btnFieldIFSCCode    = "IFSC Code"
	btnBack             = "Back"
)

const (
	msgWelcome = "Welcome to the Earnify payout bot!\n" +
		"Please choose an option to continue:"

	msgAskUsername        = "Please enter your username:"
	msgUsernameTaken      = "That username is already registered. Please choose another one:"
	msgAskFirstName       = "Please enter your first name:"
	msgAskLastName        = "Please enter your last name:"
	msgAskPaymentMode     = "Select your preferred payment mode:"
	msgAskUPIID           = "Please enter your UPI ID:"
	msgAskBankAccount     = "Please enter your bank account number:"
	msgAskIFSCCode        = "Please enter your IFSC code:"
	msgChooseMode         = "Please choose one of the options on the keyboard."
	msgChooseYesNo        = "Please answer Yes or No."
	msgSignupCancelled    = "Signup cancelled."
	msgSignupDone         = "You are all set! You are now logged in."
	msgLoginUnknown       = "No account found for that username. Please try again, or go back with /start to sign up."
	msgMainMenu           = "Main menu. What would you like to do?"
	msgAskWithdrawAmount  = "Enter the amount you would like to withdraw:"
	msgInvalidAmount      = "That does not look like a valid amount. Please enter a positive number:"
	msgAskNewMode         = "Select the payment mode for this withdrawal:"
	msgProfileWhichField  = "Which detail would you like to update?"
	msgProfileAskValue    = "Enter the new value:"
	msgProfileUpdated     = "Your profile has been updated."
	msgLoggedOut          = "You have been logged out. Send /start to begin again."
	msgSomethingWentWrong = "Something went wrong on our side. Please try again."
	msgLostTrack          = "Sorry, I lost track of our conversation. Let's start over."
)

func msgLoginSuccess(firstName string) string {
	return fmt.Sprintf("Welcome back, %s!", firstName)
}

func msgBalance(balance decimal.Decimal) string {
	return fmt.Sprintf("Your current balance is ₹%s.", balance.String())
}

func msgInsufficientBalance(balance decimal.Decimal) string {
	return fmt.Sprintf("You cannot withdraw more than your balance of ₹%s.", balance.String())
}

func msgConfirmMode(mode sheets.PaymentMode) string {
	return fmt.Sprintf("Your preferred payment mode is %s. Use it for this withdrawal?", mode)
}

func msgWithdrawDone(amount decimal.Decimal, invoiceBot, paymentDate string) string {
	return fmt.Sprintf(
		"Your withdrawal request for ₹%s has been recorded and is pending approval.\n"+
			"Please submit your invoice to @%s.\n"+
			"Approved payments go out on the %s.",
		amount.String(), invoiceBot, paymentDate)
}

func msgJoinChannel(inviteLink string) string {
	return fmt.Sprintf("Join our employee channel: %s", inviteLink)
}

func msgSignupSummary(f sheets.UserRecord) string {
	dest := f.UPIID
	if f.PaymentMode == sheets.PaymentModeBank {
		dest = fmt.Sprintf("%s (IFSC %s)", f.BankAccount, f.IFSCCode)
	}
	return fmt.Sprintf(
		"Please confirm your details:\n"+
			"Username: %s\n"+
			"Name: %s %s\n"+
			"Payment mode: %s\n"+
			"Payout destination: %s\n"+
			"Is this correct?",
		f.Username, f.FirstName, f.LastName, f.PaymentMode, dest)
}
