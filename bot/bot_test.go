package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/shopspring/decimal"

	coreconfig "github.com/earnify/paybot/core/config"
	"github.com/earnify/paybot/session"
	"github.com/earnify/paybot/sheets"
)

// fakeStore is an in-memory Store for handler tests.
type fakeStore struct {
	users    map[string]sheets.UserRecord
	payments []sheets.PaymentRequest
	err      error // when set, every call fails with it
}

func newFakeStore(users ...sheets.UserRecord) *fakeStore {
	s := &fakeStore{users: make(map[string]sheets.UserRecord)}
	for _, u := range users {
		s.users[u.Username] = u
	}
	return s
}

func (s *fakeStore) FindUser(_ context.Context, username string) (sheets.UserRecord, error) {
	if s.err != nil {
		return sheets.UserRecord{}, s.err
	}
	u, ok := s.users[username]
	if !ok {
		return sheets.UserRecord{}, sheets.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeStore) CreateUser(_ context.Context, u sheets.UserRecord) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.users[u.Username]; ok {
		return sheets.ErrUserExists
	}
	s.users[u.Username] = u
	return nil
}

func (s *fakeStore) Balance(_ context.Context, username string) (decimal.Decimal, error) {
	u, err := s.FindUser(context.Background(), username)
	if err != nil {
		return decimal.Zero, err
	}
	return u.Balance, nil
}

func (s *fakeStore) UpdateUserField(_ context.Context, username string, field sheets.UserField, value string) error {
	if s.err != nil {
		return s.err
	}
	u, ok := s.users[username]
	if !ok {
		return sheets.ErrUserNotFound
	}
	switch field {
	case sheets.FieldFirstName:
		u.FirstName = value
	case sheets.FieldLastName:
		u.LastName = value
	case sheets.FieldPaymentMode:
		u.PaymentMode = sheets.PaymentMode(value)
	case sheets.FieldUPIID:
		u.UPIID = value
	case sheets.FieldBankAccount:
		u.BankAccount = value
	case sheets.FieldIFSCCode:
		u.IFSCCode = value
	default:
		return sheets.ErrUnknownField
	}
	s.users[username] = u
	return nil
}

func (s *fakeStore) AppendPaymentRequest(_ context.Context, pr sheets.PaymentRequest) error {
	if s.err != nil {
		return s.err
	}
	s.payments = append(s.payments, pr)
	return nil
}

// testContext stubs the tele.Context methods the handlers touch.
type testContext struct {
	tele.Context
	chatID  int64
	text    string
	sent    []string
	markups []*tele.ReplyMarkup
	vals    map[string]interface{}
}

func newTestContext(chatID int64, text string) *testContext {
	return &testContext{chatID: chatID, text: text, vals: make(map[string]interface{})}
}

func (c *testContext) Chat() *tele.Chat    { return &tele.Chat{ID: c.chatID} }
func (c *testContext) Sender() *tele.User  { return &tele.User{ID: c.chatID} }
func (c *testContext) Update() tele.Update { return tele.Update{ID: 1} }
func (c *testContext) Text() string        { return c.text }

func (c *testContext) Get(k string) interface{}    { return c.vals[k] }
func (c *testContext) Set(k string, v interface{}) { c.vals[k] = v }

func (c *testContext) Send(what interface{}, opts ...interface{}) error {
	if s, ok := what.(string); ok {
		c.sent = append(c.sent, s)
	}
	for _, opt := range opts {
		if m, ok := opt.(*tele.ReplyMarkup); ok {
			c.markups = append(c.markups, m)
		}
	}
	return nil
}

func (c *testContext) lastSent(t *testing.T) string {
	t.Helper()
	if len(c.sent) == 0 {
		t.Fatal("nothing was sent")
	}
	return c.sent[len(c.sent)-1]
}

var testChannel = coreconfig.ChannelConfig{
	InviteLink:         "https://t.me/employeechannel",
	InvoiceBotUsername: "invoice_earnifybot",
	PaymentDate:        "15th of the month",
}

func newTestHandlers(store Store) (*Handlers, *session.Store) {
	sessions := session.NewStore()
	return NewHandlers(store, sessions, testChannel), sessions
}

func send(t *testing.T, h *Handlers, chatID int64, text string) *testContext {
	t.Helper()
	c := newTestContext(chatID, text)
	if err := h.OnText(c); err != nil {
		t.Fatalf("OnText(%q): %v", text, err)
	}
	return c
}

func loginAs(t *testing.T, h *Handlers, sessions *session.Store, chatID int64, username string) {
	t.Helper()
	sess := sessions.Get(chatID)
	sess.State = session.StateMainMenu
	sess.Username = username
	sess.Authenticated = true
}

func TestStartShowsWelcome(t *testing.T) {
	h, sessions := newTestHandlers(newFakeStore())
	c := newTestContext(1, "/start")
	if err := h.Start(c); err != nil {
		t.Fatal(err)
	}
	if got := c.lastSent(t); got != msgWelcome {
		t.Fatalf("sent %q", got)
	}
	if sessions.Get(1).State != session.StateWelcome {
		t.Fatal("state not welcome")
	}
}

func TestStartDropsExistingLogin(t *testing.T) {
	h, sessions := newTestHandlers(newFakeStore())
	loginAs(t, h, sessions, 1, "alice")

	if err := h.Start(newTestContext(1, "/start")); err != nil {
		t.Fatal(err)
	}
	if sessions.Get(1).Authenticated {
		t.Fatal("login survived /start")
	}
}

func TestSignupHappyPathUPI(t *testing.T) {
	store := newFakeStore()
	h, sessions := newTestHandlers(store)

	send(t, h, 1, btnSignup)
	send(t, h, 1, "alice")
	send(t, h, 1, "Alice")
	send(t, h, 1, "Kumar")
	send(t, h, 1, btnModeUPI)
	send(t, h, 1, "alice@upi")
	c := send(t, h, 1, btnYes)

	u, ok := store.users["alice"]
	if !ok {
		t.Fatal("user not created")
	}
	if u.FirstName != "Alice" || u.PaymentMode != sheets.PaymentModeUPI || u.UPIID != "alice@upi" {
		t.Fatalf("stored %+v", u)
	}
	if !u.Balance.IsZero() {
		t.Fatalf("new user balance = %s", u.Balance)
	}

	sess := sessions.Get(1)
	if sess.State != session.StateMainMenu || !sess.Authenticated || sess.Username != "alice" {
		t.Fatalf("session %+v", sess)
	}
	if !strings.Contains(c.lastSent(t), msgMainMenu) {
		t.Fatalf("sent %q", c.lastSent(t))
	}
}

func TestSignupBankModeAsksIFSC(t *testing.T) {
	store := newFakeStore()
	h, sessions := newTestHandlers(store)

	send(t, h, 1, btnSignup)
	send(t, h, 1, "bob")
	send(t, h, 1, "Bob")
	send(t, h, 1, "Singh")
	send(t, h, 1, btnModeBank)
	c := send(t, h, 1, "000111222333")
	if c.lastSent(t) != msgAskIFSCCode {
		t.Fatalf("sent %q", c.lastSent(t))
	}
	send(t, h, 1, "HDFC0001234")
	send(t, h, 1, btnYes)

	u := store.users["bob"]
	if u.BankAccount != "000111222333" || u.IFSCCode != "HDFC0001234" {
		t.Fatalf("stored %+v", u)
	}
	if sessions.Get(1).State != session.StateMainMenu {
		t.Fatal("not in main menu")
	}
}

func TestSignupRejectsTakenUsername(t *testing.T) {
	store := newFakeStore(sheets.UserRecord{Username: "alice"})
	h, sessions := newTestHandlers(store)

	send(t, h, 1, btnSignup)
	c := send(t, h, 1, "alice")
	if c.lastSent(t) != msgUsernameTaken {
		t.Fatalf("sent %q", c.lastSent(t))
	}
	if sessions.Get(1).State != session.StateSignupUsername {
		t.Fatal("state advanced past username")
	}
}

func TestSignupInvalidModeRetries(t *testing.T) {
	h, sessions := newTestHandlers(newFakeStore())

	send(t, h, 1, btnSignup)
	send(t, h, 1, "carol")
	send(t, h, 1, "Carol")
	send(t, h, 1, "Mehta")
	c := send(t, h, 1, "cash please")
	if c.lastSent(t) != msgChooseMode {
		t.Fatalf("sent %q", c.lastSent(t))
	}
	if sessions.Get(1).State != session.StateSignupPaymentMode {
		t.Fatal("state advanced past payment mode")
	}
}

func TestSignupCancelAtConfirm(t *testing.T) {
	store := newFakeStore()
	h, sessions := newTestHandlers(store)

	send(t, h, 1, btnSignup)
	send(t, h, 1, "dave")
	send(t, h, 1, "Dave")
	send(t, h, 1, "Rao")
	send(t, h, 1, btnModeUPI)
	send(t, h, 1, "dave@upi")
	send(t, h, 1, btnNo)

	if _, ok := store.users["dave"]; ok {
		t.Fatal("user created after cancel")
	}
	sess := sessions.Get(1)
	if sess.State != session.StateWelcome || sess.Signup != (session.SignupForm{}) {
		t.Fatalf("session %+v", sess)
	}
}

func TestLoginSuccess(t *testing.T) {
	store := newFakeStore(sheets.UserRecord{Username: "alice", FirstName: "Alice"})
	h, sessions := newTestHandlers(store)

	send(t, h, 1, btnLogin)
	c := send(t, h, 1, "alice")

	sess := sessions.Get(1)
	if !sess.Authenticated || sess.Username != "alice" || sess.State != session.StateMainMenu {
		t.Fatalf("session %+v", sess)
	}
	if !strings.Contains(c.sent[len(c.sent)-1], "Alice") {
		t.Fatalf("sent %v", c.sent)
	}
}

func TestLoginUnknownUserRetries(t *testing.T) {
	h, sessions := newTestHandlers(newFakeStore())

	send(t, h, 1, btnLogin)
	c := send(t, h, 1, "ghost")
	if c.lastSent(t) != msgLoginUnknown {
		t.Fatalf("sent %q", c.lastSent(t))
	}
	sess := sessions.Get(1)
	if sess.Authenticated || sess.State != session.StateLoginUsername {
		t.Fatalf("session %+v", sess)
	}
}

func TestCheckBalance(t *testing.T) {
	store := newFakeStore(sheets.UserRecord{
		Username: "alice",
		Balance:  decimal.RequireFromString("512.75"),
	})
	h, sessions := newTestHandlers(store)
	loginAs(t, h, sessions, 1, "alice")

	c := send(t, h, 1, btnCheckBalance)
	if got := c.lastSent(t); got != "Your current balance is ₹512.75." {
		t.Fatalf("sent %q", got)
	}
	if sessions.Get(1).State != session.StateMainMenu {
		t.Fatal("left main menu")
	}
}

func TestWithdrawPreferredModeUPI(t *testing.T) {
	store := newFakeStore(sheets.UserRecord{
		Username:    "alice",
		PaymentMode: sheets.PaymentModeUPI,
		UPIID:       "alice@upi",
		Balance:     decimal.NewFromInt(1000),
	})
	h, sessions := newTestHandlers(store)
	loginAs(t, h, sessions, 1, "alice")

	send(t, h, 1, btnWithdraw)
	send(t, h, 1, "250.50")
	c := send(t, h, 1, btnYes)

	if len(store.payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(store.payments))
	}
	pr := store.payments[0]
	if pr.Username != "alice" || pr.Mode != sheets.PaymentModeUPI || pr.Destination != "alice@upi" {
		t.Fatalf("payment %+v", pr)
	}
	if !pr.Amount.Equal(decimal.RequireFromString("250.50")) {
		t.Fatalf("amount = %s", pr.Amount)
	}
	if pr.Status != sheets.StatusPending {
		t.Fatalf("status = %q", pr.Status)
	}

	// the balance is settled externally, never by the bot
	if !store.users["alice"].Balance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("balance changed to %s", store.users["alice"].Balance)
	}

	got := c.lastSent(t)
	if !strings.Contains(got, "invoice_earnifybot") || !strings.Contains(got, "15th of the month") {
		t.Fatalf("sent %q", got)
	}
	if sessions.Get(1).State != session.StateMainMenu {
		t.Fatal("not back in main menu")
	}
}

func TestWithdrawInvalidAmountRetries(t *testing.T) {
	store := newFakeStore(sheets.UserRecord{Username: "alice", Balance: decimal.NewFromInt(100)})
	h, sessions := newTestHandlers(store)
	loginAs(t, h, sessions, 1, "alice")

	send(t, h, 1, btnWithdraw)
	for _, bad := range []string{"abc", "-5", "0"} {
		c := send(t, h, 1, bad)
		if c.lastSent(t) != msgInvalidAmount {
			t.Fatalf("input %q: sent %q", bad, c.lastSent(t))
		}
		if sessions.Get(1).State != session.StateWithdrawAmount {
			t.Fatalf("input %q: left amount state", bad)
		}
	}
}

func TestWithdrawOverBalanceReturnsToMenu(t *testing.T) {
	store := newFakeStore(sheets.UserRecord{Username: "alice", Balance: decimal.NewFromInt(100)})
	h, sessions := newTestHandlers(store)
	loginAs(t, h, sessions, 1, "alice")

	send(t, h, 1, btnWithdraw)
	c := send(t, h, 1, "100.01")

	if len(store.payments) != 0 {
		t.Fatal("payment appended despite insufficient balance")
	}
	if !strings.Contains(c.lastSent(t), "₹100") {
		t.Fatalf("sent %q", c.lastSent(t))
	}
	if sessions.Get(1).State != session.StateMainMenu {
		t.Fatal("not back in main menu")
	}
}

func TestWithdrawExactBalanceAllowed(t *testing.T) {
	store := newFakeStore(sheets.UserRecord{
		Username:    "alice",
		PaymentMode: sheets.PaymentModeUPI,
		UPIID:       "alice@upi",
		Balance:     decimal.NewFromInt(100),
	})
	h, sessions := newTestHandlers(store)
	loginAs(t, h, sessions, 1, "alice")

	send(t, h, 1, btnWithdraw)
	send(t, h, 1, "100")
	send(t, h, 1, btnYes)

	if len(store.payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(store.payments))
	}
}

func TestWithdrawSwitchToBankCollectsDetails(t *testing.T) {
	store := newFakeStore(sheets.UserRecord{
		Username:    "alice",
		PaymentMode: sheets.PaymentModeUPI,
		UPIID:       "alice@upi",
		Balance:     decimal.NewFromInt(500),
	})
	h, sessions := newTestHandlers(store)
	loginAs(t, h, sessions, 1, "alice")

	send(t, h, 1, btnWithdraw)
	send(t, h, 1, "200")
	send(t, h, 1, btnNo)
	send(t, h, 1, btnModeBank)
	send(t, h, 1, "000111222333")
	send(t, h, 1, "ICIC0004321")

	if len(store.payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(store.payments))
	}
	pr := store.payments[0]
	if pr.Mode != sheets.PaymentModeBank || pr.Destination != "000111222333" || pr.IFSCCode != "ICIC0004321" {
		t.Fatalf("payment %+v", pr)
	}
	// switching mode for a withdrawal must not touch the stored profile
	if store.users["alice"].PaymentMode != sheets.PaymentModeUPI {
		t.Fatal("profile payment mode changed")
	}
}

func TestWithdrawMissingProfileUPIAsksForIt(t *testing.T) {
	store := newFakeStore(sheets.UserRecord{
		Username:    "alice",
		PaymentMode: sheets.PaymentModeUPI,
		Balance:     decimal.NewFromInt(500),
	})
	h, sessions := newTestHandlers(store)
	loginAs(t, h, sessions, 1, "alice")

	send(t, h, 1, btnWithdraw)
	send(t, h, 1, "50")
	c := send(t, h, 1, btnYes)
	if c.lastSent(t) != msgAskUPIID {
		t.Fatalf("sent %q", c.lastSent(t))
	}
	send(t, h, 1, "alice@fresh")

	if len(store.payments) != 1 || store.payments[0].Destination != "alice@fresh" {
		t.Fatalf("payments %+v", store.payments)
	}
}

func TestProfileUpdateUPIID(t *testing.T) {
	store := newFakeStore(sheets.UserRecord{Username: "alice", UPIID: "old@upi"})
	h, sessions := newTestHandlers(store)
	loginAs(t, h, sessions, 1, "alice")

	send(t, h, 1, btnUpdateProfile)
	send(t, h, 1, btnFieldUPIID)
	c := send(t, h, 1, "new@upi")

	if store.users["alice"].UPIID != "new@upi" {
		t.Fatalf("upi = %q", store.users["alice"].UPIID)
	}
	if !strings.Contains(c.lastSent(t), msgMainMenu) {
		t.Fatalf("sent %q", c.lastSent(t))
	}
}

func TestProfileUpdateModeValidates(t *testing.T) {
	store := newFakeStore(sheets.UserRecord{Username: "alice", PaymentMode: sheets.PaymentModeUPI})
	h, sessions := newTestHandlers(store)
	loginAs(t, h, sessions, 1, "alice")

	send(t, h, 1, btnUpdateProfile)
	send(t, h, 1, btnFieldPaymentMode)
	c := send(t, h, 1, "cheque")
	if c.lastSent(t) != msgChooseMode {
		t.Fatalf("sent %q", c.lastSent(t))
	}
	send(t, h, 1, btnModeBank)

	if store.users["alice"].PaymentMode != sheets.PaymentModeBank {
		t.Fatal("mode not updated")
	}
}

func TestProfileFreeTextPromptRemovesKeyboard(t *testing.T) {
	store := newFakeStore(sheets.UserRecord{Username: "alice"})
	h, sessions := newTestHandlers(store)
	loginAs(t, h, sessions, 1, "alice")

	send(t, h, 1, btnUpdateProfile)
	c := send(t, h, 1, btnFieldFirstName)

	if len(c.markups) == 0 || !c.markups[len(c.markups)-1].RemoveKeyboard {
		t.Fatalf("markups = %+v, want reply keyboard removed", c.markups)
	}
}

func TestProfileBackReturnsToMenu(t *testing.T) {
	h, sessions := newTestHandlers(newFakeStore())
	loginAs(t, h, sessions, 1, "alice")

	send(t, h, 1, btnUpdateProfile)
	send(t, h, 1, btnBack)
	if sessions.Get(1).State != session.StateMainMenu {
		t.Fatal("not back in main menu")
	}
}

func TestLogoutForgetsChat(t *testing.T) {
	h, sessions := newTestHandlers(newFakeStore())
	loginAs(t, h, sessions, 1, "alice")

	c := send(t, h, 1, btnLogout)
	if c.lastSent(t) != msgLoggedOut {
		t.Fatalf("sent %q", c.lastSent(t))
	}
	sess := sessions.Get(1)
	if sess.Authenticated || sess.State != session.StateWelcome {
		t.Fatalf("session %+v", sess)
	}
}

func TestJoinChannelSendsInvite(t *testing.T) {
	h, sessions := newTestHandlers(newFakeStore())
	loginAs(t, h, sessions, 1, "alice")

	c := send(t, h, 1, btnJoinChannel)
	if !strings.Contains(c.sent[0], testChannel.InviteLink) {
		t.Fatalf("sent %v", c.sent)
	}
	if sessions.Get(1).State != session.StateMainMenu {
		t.Fatal("left main menu")
	}
}

func TestUnknownStateRecovers(t *testing.T) {
	h, sessions := newTestHandlers(newFakeStore())
	sessions.Get(1).State = session.State("limbo")

	c := send(t, h, 1, "hello")
	if !strings.Contains(c.lastSent(t), msgLostTrack) {
		t.Fatalf("sent %q", c.lastSent(t))
	}
	if sessions.Get(1).State != session.StateWelcome {
		t.Fatalf("state = %q", sessions.Get(1).State)
	}
}

func TestStorageErrorSurfacesAndKeepsState(t *testing.T) {
	store := newFakeStore(sheets.UserRecord{Username: "alice", Balance: decimal.NewFromInt(10)})
	h, sessions := newTestHandlers(store)
	loginAs(t, h, sessions, 1, "alice")
	store.err = errors.New("quota exceeded")

	c := newTestContext(1, btnCheckBalance)
	if err := h.OnText(c); err == nil {
		t.Fatal("want error")
	}
	if c.lastSent(t) != msgSomethingWentWrong {
		t.Fatalf("sent %q", c.lastSent(t))
	}
	if sessions.Get(1).State != session.StateMainMenu {
		t.Fatal("left main menu")
	}
}

func TestMenuActionsNeedLogin(t *testing.T) {
	store := newFakeStore(sheets.UserRecord{
		Username: "alice",
		Balance:  decimal.NewFromInt(999),
	})
	h, sessions := newTestHandlers(store)

	for _, label := range []string{btnCheckBalance, btnWithdraw} {
		c := send(t, h, 1, label)
		if got := c.lastSent(t); got != msgWelcome {
			t.Fatalf("label %q: sent %q", label, got)
		}
		if strings.Contains(c.lastSent(t), "999") {
			t.Fatal("balance leaked to unauthenticated chat")
		}
		if sessions.Get(1).State != session.StateWelcome {
			t.Fatalf("label %q: left welcome", label)
		}
	}
	if len(store.payments) != 0 {
		t.Fatal("payment created without login")
	}
}

func TestMenuRegistryCoversAllLabels(t *testing.T) {
	h, _ := newTestHandlers(newFakeStore())

	want := []string{btnCheckBalance, btnWithdraw, btnJoinChannel, btnUpdateProfile, btnLogout}
	got := h.menu.ListActions()
	if len(got) != len(want) {
		t.Fatalf("actions = %v", got)
	}
	for i, label := range want {
		if got[i] != label {
			t.Fatalf("actions[%d] = %q, want %q", i, got[i], label)
		}
		if _, ok := h.menu.LookupAction(label); !ok {
			t.Fatalf("label %q not registered", label)
		}
	}
	if _, ok := h.menu.LookupAction("5. Cash Out"); ok {
		t.Fatal("unknown label resolved")
	}
}

func TestUnrecognizedTextReshowsMenu(t *testing.T) {
	h, sessions := newTestHandlers(newFakeStore())
	loginAs(t, h, sessions, 1, "alice")

	c := send(t, h, 1, "what can you do?")
	if got := c.lastSent(t); got != msgMainMenu {
		t.Fatalf("sent %q", got)
	}
	if sessions.Get(1).State != session.StateMainMenu {
		t.Fatal("left main menu")
	}
}

func TestChatsAreIsolated(t *testing.T) {
	store := newFakeStore(sheets.UserRecord{Username: "alice"})
	h, sessions := newTestHandlers(store)
	loginAs(t, h, sessions, 1, "alice")

	send(t, h, 2, btnLogin)
	if sessions.Get(2).State != session.StateLoginUsername {
		t.Fatal("chat 2 did not enter login")
	}
	if sessions.Get(1).State != session.StateMainMenu {
		t.Fatal("chat 1 state leaked")
	}
}
