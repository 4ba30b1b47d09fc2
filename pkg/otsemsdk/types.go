package otsemsdk

import "time"

// ============================================================================
// Auth
// ============================================================================

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`

	// TwoFactorCode is sent when the account has TOTP enabled.
	TwoFactorCode string `json:"twoFactorCode,omitempty" validate:"omitempty,len=6,numeric"`

	// TOTPSecret, when set and TwoFactorCode is empty, is used to generate
	// the code locally. It never leaves the process.
	TOTPSecret string `json:"-"`
}

// LoginResponse is the body returned by a successful login.
type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// User is an account as the API describes it.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role,omitempty"`
	KYCStatus     string    `json:"kycStatus,omitempty"`
	AccountStatus string    `json:"accountStatus,omitempty"`
	BalanceBRL    float64   `json:"balanceBRL"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ============================================================================
// Admin
// ============================================================================

// ListUsersParams filters GET /admin/users.
type ListUsersParams struct {
	Page   int
	Limit  int
	Search string
}

// UsersPage is one page of GET /admin/users.
type UsersPage struct {
	Data       []User `json:"data"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
	HasNext    bool   `json:"hasNext"`
	HasPrev    bool   `json:"hasPrev"`
}

// AdjustmentType is the direction of a manual balance adjustment.
type AdjustmentType string

const (
	AdjustmentCredit AdjustmentType = "CREDIT"
	AdjustmentDebit  AdjustmentType = "DEBIT"
)

// BalanceAdjustment is the body of POST /accounts/{id}/balance-adjustment.
type BalanceAdjustment struct {
	Type   AdjustmentType `json:"type" validate:"required,oneof=CREDIT DEBIT"`
	Amount float64        `json:"amount" validate:"gte=0.01"`
	Reason string         `json:"reason" validate:"min=5"`
}

// Transaction is a ledger entry.
type Transaction struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	SubType       string  `json:"subType,omitempty"`
	Amount        float64 `json:"amount"`
	BalanceBefore float64 `json:"balanceBefore"`
	BalanceAfter  float64 `json:"balanceAfter"`
	Description   string  `json:"description,omitempty"`
	Status        string  `json:"status"`
}

// AdjustmentResult is the response to a balance adjustment.
type AdjustmentResult struct {
	Transaction Transaction `json:"transaction"`
	NewBalance  float64     `json:"newBalance"`
}

// ============================================================================
// Transactions
// ============================================================================

// ReceiptParty is one side of a PIX transfer.
type ReceiptParty struct {
	Name            string `json:"name"`
	MaskedTaxNumber string `json:"maskedTaxNumber"`
	PixKey          string `json:"pixKey,omitempty"`
	BankCode        string `json:"bankCode,omitempty"`
}

// Receipt is the data behind a transaction receipt.
type Receipt struct {
	Title          string        `json:"title"`
	Amount         float64       `json:"amount"`
	Date           time.Time     `json:"date"`
	CompletionDate *time.Time    `json:"completionDate,omitempty"`
	Payer          ReceiptParty  `json:"payer"`
	Receiver       ReceiptParty  `json:"receiver"`
	TransactionID  string        `json:"transactionId"`
	EndToEndID     string        `json:"endToEndId,omitempty"`
	TxID           string        `json:"txid,omitempty"`
	BankProvider   string        `json:"bankProvider,omitempty"`
	PayerMessage   string        `json:"payerMessage,omitempty"`
}

// ============================================================================
// Public
// ============================================================================

// Quote holds the USDT/BRL rates. A nil rate is unknown.
type Quote struct {
	BuyRate  *float64 `json:"buyRate"`
	SellRate *float64 `json:"sellRate"`
}
