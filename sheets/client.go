package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/earnify/paybot/core/logger"
	"github.com/earnify/paybot/core/metrics"
)

// Table addresses one sheet inside one spreadsheet.
type Table struct {
	SpreadsheetID string
	SheetName     string
}

// Client provides the operations the bot needs over the Users and Payments
// tables. Row 1 of each table is a header; data starts at row 2.
type Client struct {
	backend  ValuesBackend
	users    Table
	payments Table
}

func NewClient(backend ValuesBackend, users, payments Table) *Client {
	return &Client{backend: backend, users: users, payments: payments}
}

// EnsureHeaders writes the header row of each table when it is missing or
// stale. Called once at startup so fresh spreadsheets work out of the box.
func (c *Client) EnsureHeaders(ctx context.Context) error {
	if err := c.ensureHeader(ctx, c.users, UserHeaders); err != nil {
		return fmt.Errorf("users header: %w", err)
	}
	if err := c.ensureHeader(ctx, c.payments, PaymentHeaders); err != nil {
		return fmt.Errorf("payments header: %w", err)
	}
	return nil
}

func (c *Client) ensureHeader(ctx context.Context, t Table, want []string) error {
	rng := fmt.Sprintf("%s!A1:%s1", t.SheetName, columnLetter(len(want)-1))
	rows, err := c.get(ctx, t, rng)
	if err != nil {
		return err
	}
	if len(rows) > 0 && equalRow(rows[0], want) {
		return nil
	}
	return c.update(ctx, t, rng, want)
}

// FindUser returns the Users row for username, matched case-sensitively.
func (c *Client) FindUser(ctx context.Context, username string) (UserRecord, error) {
	u, _, err := c.findUserRow(ctx, username)
	return u, err
}

// CreateUser appends a new Users row. The username is re-checked immediately
// before the append to narrow the window for duplicate registrations.
func (c *Client) CreateUser(ctx context.Context, u UserRecord) error {
	if _, _, err := c.findUserRow(ctx, u.Username); err == nil {
		return ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	rng := fmt.Sprintf("%s!A:H", c.users.SheetName)
	if err := c.append(ctx, c.users, rng, userToRow(u)); err != nil {
		return err
	}
	logger.Info(ctx, "sheets", "user.created", slog.String("username", u.Username))
	return nil
}

// Balance returns the current balance of username.
func (c *Client) Balance(ctx context.Context, username string) (decimal.Decimal, error) {
	u, _, err := c.findUserRow(ctx, username)
	if err != nil {
		return decimal.Zero, err
	}
	return u.Balance, nil
}

// UpdateUserField overwrites a single editable cell of the user's row.
func (c *Client) UpdateUserField(ctx context.Context, username string, field UserField, value string) error {
	col, ok := userFieldColumns[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	_, rowNum, err := c.findUserRow(ctx, username)
	if err != nil {
		return err
	}
	rng := fmt.Sprintf("%s!%s%d", c.users.SheetName, columnLetter(col), rowNum)
	if err := c.update(ctx, c.users, rng, []string{value}); err != nil {
		return err
	}
	logger.Info(ctx, "sheets", "user.updated",
		slog.String("username", username),
		slog.String("field", string(field)))
	return nil
}

// SetBalance overwrites the balance cell of the user's row. The bot never
// calls this for withdrawals; it exists for the external reconciliation
// process that settles approved payments.
func (c *Client) SetBalance(ctx context.Context, username string, balance decimal.Decimal) error {
	_, rowNum, err := c.findUserRow(ctx, username)
	if err != nil {
		return err
	}
	rng := fmt.Sprintf("%s!%s%d", c.users.SheetName, columnLetter(balanceColumn), rowNum)
	return c.update(ctx, c.users, rng, []string{balance.String()})
}

// AppendPaymentRequest records a new Pending row in the Payments table.
func (c *Client) AppendPaymentRequest(ctx context.Context, pr PaymentRequest) error {
	if pr.Status == "" {
		pr.Status = StatusPending
	}
	if pr.RequestedAt.IsZero() {
		pr.RequestedAt = time.Now()
	}
	rng := fmt.Sprintf("%s!A:G", c.payments.SheetName)
	if err := c.append(ctx, c.payments, rng, requestToRow(pr)); err != nil {
		return err
	}
	logger.Info(ctx, "sheets", "payment.appended",
		slog.String("username", pr.Username),
		slog.String("amount", pr.Amount.String()),
		slog.String("mode", string(pr.Mode)))
	return nil
}

// findUserRow scans the Users table for username and returns the parsed
// record plus its one-based sheet row number.
func (c *Client) findUserRow(ctx context.Context, username string) (UserRecord, int, error) {
	rng := fmt.Sprintf("%s!A2:H", c.users.SheetName)
	rows, err := c.get(ctx, c.users, rng)
	if err != nil {
		return UserRecord{}, 0, err
	}
	for i, row := range rows {
		if len(row) > 0 && row[0] == username {
			return userFromRow(row), i + 2, nil
		}
	}
	return UserRecord{}, 0, ErrUserNotFound
}

func (c *Client) get(ctx context.Context, t Table, rng string) ([][]string, error) {
	start := time.Now()
	rows, err := c.backend.Get(ctx, t.SpreadsheetID, rng)
	c.observe(ctx, "get", t, rng, start, err)
	return rows, err
}

func (c *Client) append(ctx context.Context, t Table, rng string, row []string) error {
	start := time.Now()
	err := c.backend.Append(ctx, t.SpreadsheetID, rng, row)
	c.observe(ctx, "append", t, rng, start, err)
	return err
}

func (c *Client) update(ctx context.Context, t Table, rng string, row []string) error {
	start := time.Now()
	err := c.backend.Update(ctx, t.SpreadsheetID, rng, row)
	c.observe(ctx, "update", t, rng, start, err)
	return err
}

func (c *Client) observe(ctx context.Context, op string, t Table, rng string, start time.Time, err error) {
	attrs := []slog.Attr{
		slog.String("sheet", t.SheetName),
		slog.String("range", rng),
		slog.String("status", logger.Status(err)),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		metrics.SheetErrors.WithLabelValues(op).Inc()
		attrs = append(attrs, slog.String("err", err.Error()))
		logger.Error(ctx, "sheets", "sheets."+op, attrs...)
		return
	}
	logger.Debug(ctx, "sheets", "sheets."+op, attrs...)
}

func columnLetter(idx int) string {
	return string(rune('A' + idx))
}

func equalRow(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
