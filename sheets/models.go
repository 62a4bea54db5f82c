package sheets

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMode is the payout channel stored in the Users table.
type PaymentMode string

const (
	// PaymentModeUPI pays out to a UPI ID.
	PaymentModeUPI PaymentMode = "UPI"
	// PaymentModeBank pays out to a bank account with an IFSC code.
	PaymentModeBank PaymentMode = "Bank Account"
)

// ValidPaymentMode reports whether s is one of the supported payout channels.
func ValidPaymentMode(s string) bool {
	return s == string(PaymentModeUPI) || s == string(PaymentModeBank)
}

// RequestStatus tracks the lifecycle of a payment request.
// The bot only ever writes StatusPending; the other values are set by the
// external approval process.
type RequestStatus string

const (
	StatusPending  RequestStatus = "Pending"
	StatusApproved RequestStatus = "Approved"
	StatusRejected RequestStatus = "Rejected"
)

// UserRecord is one row of the Users table.
type UserRecord struct {
	Username    string
	FirstName   string
	LastName    string
	PaymentMode PaymentMode
	UPIID       string
	BankAccount string
	IFSCCode    string
	Balance     decimal.Decimal
}

// PaymentRequest is one row of the Payments table.
type PaymentRequest struct {
	Username    string
	Amount      decimal.Decimal
	Mode        PaymentMode
	Destination string // UPI ID or bank account number, depending on Mode
	IFSCCode    string
	RequestedAt time.Time
	Status      RequestStatus
}

// requestDateLayout matches the timestamp format used in the Payments table.
const requestDateLayout = "2006-01-02 15:04:05"

// Fixed column schemas of the two tables.
var (
	UserHeaders = []string{
		"Username",
		"First Name",
		"Last Name",
		"Preferred Payment Mode",
		"UPI ID",
		"Bank Account",
		"IFSC Code",
		"Balance",
	}

	PaymentHeaders = []string{
		"Username",
		"Amount",
		"Payment Mode",
		"UPI ID/Bank Account",
		"IFSC Code",
		"Request Date",
		"Status",
	}
)

// UserField identifies a single editable column of the Users table.
type UserField string

const (
	FieldFirstName   UserField = "first_name"
	FieldLastName    UserField = "last_name"
	FieldPaymentMode UserField = "payment_mode"
	FieldUPIID       UserField = "upi_id"
	FieldBankAccount UserField = "bank_account"
	FieldIFSCCode    UserField = "ifsc_code"
)

// userFieldColumns maps editable fields to zero-based column indexes.
var userFieldColumns = map[UserField]int{
	FieldFirstName:   1,
	FieldLastName:    2,
	FieldPaymentMode: 3,
	FieldUPIID:       4,
	FieldBankAccount: 5,
	FieldIFSCCode:    6,
}

const balanceColumn = 7

func userFromRow(row []string) UserRecord {
	get := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	balance, err := decimal.NewFromString(get(balanceColumn))
	if err != nil {
		balance = decimal.Zero
	}
	return UserRecord{
		Username:    get(0),
		FirstName:   get(1),
		LastName:    get(2),
		PaymentMode: PaymentMode(get(3)),
		UPIID:       get(4),
		BankAccount: get(5),
		IFSCCode:    get(6),
		Balance:     balance,
	}
}

func userToRow(u UserRecord) []string {
	return []string{
		u.Username,
		u.FirstName,
		u.LastName,
		string(u.PaymentMode),
		u.UPIID,
		u.BankAccount,
		u.IFSCCode,
		u.Balance.String(),
	}
}

func requestToRow(pr PaymentRequest) []string {
	return []string{
		pr.Username,
		pr.Amount.String(),
		string(pr.Mode),
		pr.Destination,
		pr.IFSCCode,
		pr.RequestedAt.Format(requestDateLayout),
		string(pr.Status),
	}
}
