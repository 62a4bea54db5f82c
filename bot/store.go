package bot

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/earnify/paybot/sheets"
)

// Store is the persistence surface the conversation handlers need.
// *sheets.Client satisfies it; tests supply a fake.
type Store interface {
	FindUser(ctx context.Context, username string) (sheets.UserRecord, error)
	CreateUser(ctx context.Context, u sheets.UserRecord) error
	Balance(ctx context.Context, username string) (decimal.Decimal, error)
	UpdateUserField(ctx context.Context, username string, field sheets.UserField, value string) error
	AppendPaymentRequest(ctx context.Context, pr sheets.PaymentRequest) error
}
