package types

import "time"

// TransactionStatus is the persisted lifecycle of a swap record.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// TransactionRecord is a swap as persisted by the backend.
type TransactionRecord struct {
	ID            string            `json:"id,omitempty"`
	WalletAddress string            `json:"wallet_address"`
	FromToken     string            `json:"from_token"`
	ToToken       string            `json:"to_token"`
	FromAmount    string            `json:"from_amount"`
	ToAmount      string            `json:"to_amount"`
	TxHash        string            `json:"tx_hash,omitempty"`
	Status        TransactionStatus `json:"status,omitempty"`
	FeeAmount     string            `json:"fee_amount,omitempty"`
	Slippage      string            `json:"slippage,omitempty"`
	CreatedAt     *time.Time        `json:"created_at,omitempty"`
	UpdatedAt     *time.Time        `json:"updated_at,omitempty"`
}

// TransactionUpdate is the mutable subset of a record.
type TransactionUpdate struct {
	Status TransactionStatus `json:"status,omitempty"`
	TxHash string            `json:"tx_hash,omitempty"`
}

// User is a backend account.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	WalletAddress string     `json:"wallet_address,omitempty"`
	Username      string     `json:"username,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// Session is an authenticated backend session.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}
