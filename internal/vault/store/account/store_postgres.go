package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tokenvault/internal/platform/postgres"
	"tokenvault/internal/vault/models"
	id "tokenvault/pkg/domain"
	"tokenvault/pkg/platform/sentinel"
	txcontext "tokenvault/pkg/platform/tx"
)

// PostgresStore persists accounts in PostgreSQL.
// Dedup is enforced by the partial unique index on
// (fingerprint_prefix, fingerprint_suffix, client_id) WHERE NOT disabled, so
// the losing side of a concurrent insert gets sentinel.ErrConflict.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed account store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const accountColumns = `
	id, token, client_id, fingerprint_prefix, fingerprint_suffix,
	encrypted_number, encryption_iv, encryption_key_id,
	expiration_date, holder_email, card_bin_id,
	disabled, created_at, updated_at, disabled_at`

func (s *PostgresStore) FindByFingerprint(ctx context.Context, fingerprint models.Fingerprint, clientID id.ClientID) (*models.Account, error) {
	query := `SELECT` + accountColumns + `
		FROM accounts
		WHERE fingerprint_prefix = $1 AND fingerprint_suffix = $2 AND client_id = $3 AND NOT disabled`
	account, err := scanAccount(s.execer(ctx).QueryRowContext(ctx, query, fingerprint.Prefix, fingerprint.Suffix, int64(clientID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account by fingerprint: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find account by fingerprint: %w", err)
	}
	return account, nil
}

func (s *PostgresStore) FindByToken(ctx context.Context, token string, clientID id.ClientID) (*models.Account, error) {
	query := `SELECT` + accountColumns + `
		FROM accounts
		WHERE token = $1 AND client_id = $2 AND NOT disabled`
	account, err := scanAccount(s.execer(ctx).QueryRowContext(ctx, query, token, int64(clientID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account by token: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find account by token: %w", err)
	}
	return account, nil
}

func (s *PostgresStore) Insert(ctx context.Context, account *models.Account) (id.AccountID, error) {
	accountID := id.AccountID(uuid.New())
	query := `
		INSERT INTO accounts (
			id, token, client_id, fingerprint_prefix, fingerprint_suffix,
			encrypted_number, encryption_iv, encryption_key_id,
			expiration_date, holder_email, card_bin_id,
			disabled, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, FALSE, $12, $13)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(accountID),
		account.Token,
		int64(account.ClientID),
		account.Fingerprint.Prefix,
		account.Fingerprint.Suffix,
		account.Encrypted.Ciphertext,
		account.Encrypted.IV,
		account.Encrypted.KeyID,
		account.ExpirationDate,
		account.HolderEmail,
		int(account.CardBinID),
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return id.AccountID{}, fmt.Errorf("insert account: %w", sentinel.ErrConflict)
		}
		return id.AccountID{}, fmt.Errorf("insert account: %w", err)
	}
	return accountID, nil
}

func (s *PostgresStore) Update(ctx context.Context, accountID id.AccountID, update models.AccountUpdate) error {
	if err := update.Validate(); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	query := `
		UPDATE accounts
		SET fingerprint_prefix = $2,
			fingerprint_suffix = $3,
			encrypted_number = $4,
			encryption_iv = $5,
			encryption_key_id = $6,
			expiration_date = $7,
			holder_email = $8,
			updated_at = $9
		WHERE id = $1 AND NOT disabled
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(accountID),
		update.Fingerprint.Prefix,
		update.Fingerprint.Suffix,
		update.Encrypted.Ciphertext,
		update.Encrypted.IV,
		update.Encrypted.KeyID,
		update.ExpirationDate,
		update.HolderEmail,
		update.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("update account: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("update account: %w", err)
	}
	return requireOneRow(result, "update account")
}

func (s *PostgresStore) Disable(ctx context.Context, accountID id.AccountID, at time.Time) error {
	query := `
		UPDATE accounts
		SET disabled = TRUE, disabled_at = $2, updated_at = $2
		WHERE id = $1 AND NOT disabled
	`
	result, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(accountID), at)
	if err != nil {
		return fmt.Errorf("disable account: %w", err)
	}
	return requireOneRow(result, "disable account")
}

func (s *PostgresStore) ListEncryptedWithOtherKey(ctx context.Context, keyID string, after id.AccountID, limit int) ([]*models.Account, error) {
	query := `SELECT` + accountColumns + `
		FROM accounts
		WHERE encryption_key_id <> $1 AND NOT disabled AND id > $2
		ORDER BY id
		LIMIT $3`
	rows, err := s.execer(ctx).QueryContext(ctx, query, keyID, uuid.UUID(after), limit)
	if err != nil {
		return nil, fmt.Errorf("list stale accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stale account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale accounts: %w", err)
	}
	return accounts, nil
}

// RotateEncryption is a compare-and-set on (encryption_key_id, updated_at).
// Zero rows affected means the account moved on since it was listed.
func (s *PostgresStore) RotateEncryption(ctx context.Context, accountID id.AccountID, expectedKeyID string, expectedUpdatedAt time.Time, encrypted models.EncryptedNumber) error {
	if encrypted.IsZero() {
		return errors.New("rotate account key: encrypted number is required")
	}
	if err := encrypted.Validate(); err != nil {
		return fmt.Errorf("rotate account key: %w", err)
	}
	query := `
		UPDATE accounts
		SET encrypted_number = $2,
			encryption_iv = $3,
			encryption_key_id = $4
		WHERE id = $1
			AND encryption_key_id = $5
			AND updated_at = $6
			AND NOT disabled
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(accountID),
		encrypted.Ciphertext,
		encrypted.IV,
		encrypted.KeyID,
		expectedKeyID,
		expectedUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("rotate account key: %w", err)
	}
	return requireOneRow(result, "rotate account key")
}

func requireOneRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	return nil
}

type accountRow interface {
	Scan(dest ...any) error
}

func scanAccount(row accountRow) (*models.Account, error) {
	var (
		account    models.Account
		accountID  uuid.UUID
		clientID   int64
		cardBinID  int
		disabledAt sql.NullTime
	)
	if err := row.Scan(
		&accountID,
		&account.Token,
		&clientID,
		&account.Fingerprint.Prefix,
		&account.Fingerprint.Suffix,
		&account.Encrypted.Ciphertext,
		&account.Encrypted.IV,
		&account.Encrypted.KeyID,
		&account.ExpirationDate,
		&account.HolderEmail,
		&cardBinID,
		&account.Disabled,
		&account.CreatedAt,
		&account.UpdatedAt,
		&disabledAt,
	); err != nil {
		return nil, err
	}
	account.ID = id.AccountID(accountID)
	account.ClientID = id.ClientID(clientID)
	account.CardBinID = id.CardBinID(cardBinID)
	if disabledAt.Valid {
		account.DisabledAt = &disabledAt.Time
	}
	return &account, nil
}
