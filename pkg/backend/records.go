package backend

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"sol-swap/pkg/apperror"
	"sol-swap/pkg/types"
)

type transactionEnvelope struct {
	Success     bool                    `json:"success"`
	Transaction types.TransactionRecord `json:"transaction"`
}

type listEnvelope struct {
	Transactions []types.TransactionRecord `json:"transactions"`
}

// TestResult is the response of the connectivity probe.
type TestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// Create persists a new swap record.
func (c *Client) Create(ctx context.Context, rec types.TransactionRecord) (*types.TransactionRecord, error) {
	var env transactionEnvelope
	rb := c.builder("/transactions").Method(http.MethodPost).BodyJSON(rec)
	if err := c.do(ctx, rb, &env); err != nil {
		return nil, err
	}
	c.log.Debug("transaction record created",
		zap.String("id", env.Transaction.ID),
		zap.String("txHash", env.Transaction.TxHash))
	return &env.Transaction, nil
}

// ListRecent returns the latest public records, optionally for one wallet.
// Public listings never carry a status.
func (c *Client) ListRecent(ctx context.Context, walletAddress string) ([]types.TransactionRecord, error) {
	var env listEnvelope
	rb := c.builder("/transactions/recent")
	if walletAddress != "" {
		rb = rb.Param("wallet_address", walletAddress)
	}
	if err := c.do(ctx, rb, &env); err != nil {
		return nil, err
	}
	return env.Transactions, nil
}

// ListForWallet returns the records of the wallet linked to the
// authenticated caller's profile.
func (c *Client) ListForWallet(ctx context.Context) ([]types.TransactionRecord, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var env listEnvelope
	if err := c.do(ctx, c.builder("/transactions/user"), &env); err != nil {
		return nil, err
	}
	return env.Transactions, nil
}

// Get fetches one record by id.
func (c *Client) Get(ctx context.Context, id string) (*types.TransactionRecord, error) {
	if id == "" {
		return nil, apperror.Validation("transaction id is required")
	}
	var env transactionEnvelope
	if err := c.do(ctx, c.builder("/transactions/"+url.PathEscape(id)), &env); err != nil {
		return nil, err
	}
	return &env.Transaction, nil
}

// Update changes a record's status and/or tx hash.
func (c *Client) Update(ctx context.Context, id string, upd types.TransactionUpdate) (*types.TransactionRecord, error) {
	if id == "" {
		return nil, apperror.Validation("transaction id is required")
	}
	if upd.Status != "" && !upd.Status.Valid() {
		return nil, apperror.Validation("invalid status '" + string(upd.Status) + "'")
	}
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var env transactionEnvelope
	rb := c.builder("/transactions/" + url.PathEscape(id)).
		Method(http.MethodPatch).
		BodyJSON(upd)
	if err := c.do(ctx, rb, &env); err != nil {
		return nil, err
	}
	return &env.Transaction, nil
}

// Test checks that the backend can reach its database.
func (c *Client) Test(ctx context.Context) (*TestResult, error) {
	var res TestResult
	if err := c.do(ctx, c.builder("/transactions/test"), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Health pings the service.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, c.builder("/health"), nil)
}
