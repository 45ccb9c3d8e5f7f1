package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"sol-swap/pkg/types"
)

const transactionColumns = `id::text, wallet_address, from_token, to_token, from_amount, to_amount,
	COALESCE(tx_hash, ''), status, COALESCE(fee_amount, ''), COALESCE(slippage, ''), created_at, updated_at`

func scanTransaction(row pgx.Row) (*types.TransactionRecord, error) {
	var (
		rec     types.TransactionRecord
		status  string
		created time.Time
	)
	err := row.Scan(&rec.ID, &rec.WalletAddress, &rec.FromToken, &rec.ToToken, &rec.FromAmount, &rec.ToAmount,
		&rec.TxHash, &status, &rec.FeeAmount, &rec.Slippage, &created, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.Status = types.TransactionStatus(status)
	rec.CreatedAt = &created
	return &rec, nil
}

func collectTransactions(rows pgx.Rows) ([]types.TransactionRecord, error) {
	defer rows.Close()
	result := make([]types.TransactionRecord, 0)
	for rows.Next() {
		rec, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	return result, rows.Err()
}

// ListRecent returns the newest records, optionally for one wallet.
func (s *Store) ListRecent(ctx context.Context, wallet string, limit int) ([]types.TransactionRecord, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if wallet != "" {
		rows, err = s.pool.Query(ctx, `SELECT `+transactionColumns+` FROM transactions
			WHERE wallet_address = $1 ORDER BY created_at DESC LIMIT $2`, wallet, limit)
	} else {
		rows, err = s.pool.Query(ctx, `SELECT `+transactionColumns+` FROM transactions
			ORDER BY created_at DESC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// ListByWallet returns a wallet's records, newest first.
func (s *Store) ListByWallet(ctx context.Context, wallet string, limit int) ([]types.TransactionRecord, error) {
	return s.ListRecent(ctx, wallet, limit)
}

// CreateTransaction inserts rec and returns the stored row.
func (s *Store) CreateTransaction(ctx context.Context, rec types.TransactionRecord) (*types.TransactionRecord, error) {
	status := rec.Status
	if status == "" {
		status = types.StatusPending
	}
	created := time.Now().UTC()
	if rec.CreatedAt != nil {
		created = *rec.CreatedAt
	}
	return scanTransaction(s.pool.QueryRow(ctx, `INSERT INTO transactions
		(id, wallet_address, from_token, to_token, from_amount, to_amount, tx_hash, status, fee_amount, slippage, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''),$8,NULLIF($9,''),NULLIF($10,''),$11)
		RETURNING `+transactionColumns,
		uuid.NewString(), rec.WalletAddress, rec.FromToken, rec.ToToken, rec.FromAmount, rec.ToAmount,
		rec.TxHash, string(status), rec.FeeAmount, rec.Slippage, created,
	))
}

// UpdateTransaction changes status and tx hash of a wallet's record. Empty
// fields are left unchanged.
func (s *Store) UpdateTransaction(ctx context.Context, id, wallet string, upd types.TransactionUpdate) (*types.TransactionRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return scanTransaction(s.pool.QueryRow(ctx, `UPDATE transactions SET
		status = COALESCE(NULLIF($3,''), status),
		tx_hash = COALESCE(NULLIF($4,''), tx_hash),
		updated_at = NOW()
		WHERE id = $1 AND wallet_address = $2
		RETURNING `+transactionColumns,
		id, wallet, string(upd.Status), upd.TxHash,
	))
}

// GetTransaction returns a record by id.
func (s *Store) GetTransaction(ctx context.Context, id string) (*types.TransactionRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return scanTransaction(s.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
}

// CountTransactions returns the number of stored records.
func (s *Store) CountTransactions(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*)::int FROM transactions`).Scan(&count)
	return count, err
}

const userColumns = `id::text, email, COALESCE(wallet_address, ''), COALESCE(username, ''), created_at`

func scanUser(row pgx.Row, extra ...any) (*types.User, error) {
	var (
		u       types.User
		created time.Time
	)
	dest := append([]any{&u.ID, &u.Email, &u.WalletAddress, &u.Username, &created}, extra...)
	err := row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = &created
	return &u, nil
}

// CreateUser inserts a user with an already hashed password.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash, wallet string) (*types.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `INSERT INTO users (id, email, password_hash, wallet_address)
		VALUES ($1,$2,$3,NULLIF($4,''))
		RETURNING `+userColumns,
		uuid.NewString(), email, passwordHash, wallet,
	))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return nil, ErrDuplicate
	}
	return u, err
}

// UserByEmail returns a user and its password hash.
func (s *Store) UserByEmail(ctx context.Context, email string) (*types.User, string, error) {
	var hash string
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+`, password_hash FROM users WHERE email = $1`, email), &hash)
	if err != nil {
		return nil, "", err
	}
	return u, hash, nil
}

// UpdateUserWallet sets the wallet linked to a user.
func (s *Store) UpdateUserWallet(ctx context.Context, userID, wallet string) (*types.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `UPDATE users SET wallet_address = NULLIF($2,'')
		WHERE id = $1 RETURNING `+userColumns, userID, wallet))
}

// CreateSession issues an opaque token for userID valid for ttl.
func (s *Store) CreateSession(ctx context.Context, userID string, ttl time.Duration) (*types.Session, error) {
	sess := types.Session{
		AccessToken: uuid.NewString(),
		ExpiresAt:   time.Now().UTC().Add(ttl),
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO sessions (token, user_id, expires_at) VALUES ($1,$2,$3)`,
		sess.AccessToken, userID, sess.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// UserBySession resolves an unexpired session token.
func (s *Store) UserBySession(ctx context.Context, token string) (*types.User, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrNotFound
	}
	return scanUser(s.pool.QueryRow(ctx, `SELECT u.id::text, u.email, COALESCE(u.wallet_address, ''),
		COALESCE(u.username, ''), u.created_at
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = $1 AND s.expires_at > NOW()`, token))
}

// DeleteSession revokes a token.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if _, err := uuid.Parse(token); err != nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}
