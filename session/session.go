// Package session keeps per-chat conversation state in memory. State lives
// for the lifetime of the process; a restart drops all sessions, which is
// acceptable because every flow restarts cleanly from the welcome screen.
package session

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/earnify/paybot/sheets"
)

// State names the step of the conversation a chat is currently in.
type State string

const (
	StateWelcome State = "welcome"

	StateSignupUsername    State = "signup_username"
	StateSignupFirstName   State = "signup_first_name"
	StateSignupLastName    State = "signup_last_name"
	StateSignupPaymentMode State = "signup_payment_mode"
	StateSignupUPIID       State = "signup_upi_id"
	StateSignupBankAccount State = "signup_bank_account"
	StateSignupIFSCCode    State = "signup_ifsc_code"
	StateSignupConfirm     State = "signup_confirm"

	StateLoginUsername State = "login_username"

	StateMainMenu State = "main_menu"

	StateWithdrawAmount      State = "withdraw_amount"
	StateWithdrawModeConfirm State = "withdraw_mode_confirm"
	StateWithdrawNewMode     State = "withdraw_new_mode"
	StateWithdrawUPIID       State = "withdraw_upi_id"
	StateWithdrawBankAccount State = "withdraw_bank_account"
	StateWithdrawIFSCCode    State = "withdraw_ifsc_code"

	StateProfileField State = "profile_field"
	StateProfileValue State = "profile_value"
)

// SignupForm accumulates answers while a registration is in progress.
type SignupForm struct {
	Username    string
	FirstName   string
	LastName    string
	PaymentMode sheets.PaymentMode
	UPIID       string
	BankAccount string
	IFSCCode    string
}

// WithdrawForm accumulates answers while a withdrawal is in progress.
type WithdrawForm struct {
	Amount      decimal.Decimal
	Mode        sheets.PaymentMode
	Destination string
	IFSCCode    string
}

// Session is the conversation state of one chat.
type Session struct {
	State         State
	Username      string // set after login or signup
	Authenticated bool
	Signup        SignupForm
	Withdraw      WithdrawForm
	ProfileField  sheets.UserField
}

// Store is a concurrency-safe session map keyed by chat ID.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Get returns the session for chatID, creating a fresh welcome-state session
// on first contact.
func (s *Store) Get(chatID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	if !ok {
		sess = &Session{State: StateWelcome}
		s.sessions[chatID] = sess
	}
	return sess
}

// Reset drops all in-progress form data but keeps the login, returning the
// chat to the main menu when authenticated and to welcome otherwise.
func (s *Store) Reset(chatID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	if !ok {
		sess = &Session{State: StateWelcome}
		s.sessions[chatID] = sess
		return sess
	}
	sess.Signup = SignupForm{}
	sess.Withdraw = WithdrawForm{}
	sess.ProfileField = ""
	if sess.Authenticated {
		sess.State = StateMainMenu
	} else {
		sess.State = StateWelcome
	}
	return sess
}

// Clear forgets the chat entirely. Used by logout.
func (s *Store) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
