package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "tokenvault/pkg/domain"
	"tokenvault/pkg/platform/sentinel"
)

// PostgresStore keeps the directory in the account_directory table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const entryColumns = `account_id, client_id, token, masked, card_bin_id, registered_at, updated_at`

func (s *PostgresStore) Register(ctx context.Context, entry Entry) error {
	updatedAt := entry.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = entry.RegisteredAt
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO account_directory (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (account_id) DO NOTHING`,
		uuid.UUID(entry.AccountID), int64(entry.ClientID), entry.Token, entry.Masked,
		int(entry.CardBinID), entry.RegisteredAt, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("register directory entry: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("register directory entry: %w", err)
	}
	if rows == 0 {
		return ErrAlreadyRegistered
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, clientID id.ClientID, accountID id.AccountID, update EntryUpdate) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE account_directory
		SET token = $1, masked = $2, updated_at = $3
		WHERE account_id = $4 AND client_id = $5`,
		update.Token, update.Masked, update.UpdatedAt, uuid.UUID(accountID), int64(clientID),
	)
	if err != nil {
		return fmt.Errorf("update directory entry: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update directory entry: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("directory entry: %w", sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Deregister(ctx context.Context, clientID id.ClientID, accountID id.AccountID) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM account_directory WHERE account_id = $1 AND client_id = $2`,
		uuid.UUID(accountID), int64(clientID),
	)
	if err != nil {
		return fmt.Errorf("deregister directory entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, clientID id.ClientID, accountID id.AccountID) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+` FROM account_directory
		WHERE account_id = $1 AND client_id = $2`,
		uuid.UUID(accountID), int64(clientID),
	)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("directory entry: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get directory entry: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) List(ctx context.Context, clientID id.ClientID) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM account_directory
		WHERE client_id = $1
		ORDER BY registered_at, account_id`,
		int64(clientID),
	)
	if err != nil {
		return nil, fmt.Errorf("list directory entries: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan directory entry: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate directory entries: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		accountID uuid.UUID
		clientID  int64
		cardBinID int
		entry     Entry
	)
	if err := row.Scan(&accountID, &clientID, &entry.Token, &entry.Masked, &cardBinID, &entry.RegisteredAt, &entry.UpdatedAt); err != nil {
		return nil, err
	}
	entry.AccountID = id.AccountID(accountID)
	entry.ClientID = id.ClientID(clientID)
	entry.CardBinID = id.CardBinID(cardBinID)
	return &entry, nil
}
