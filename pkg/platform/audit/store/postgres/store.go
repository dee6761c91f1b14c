package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	id "tokenvault/pkg/domain"
	audit "tokenvault/pkg/platform/audit"
	txcontext "tokenvault/pkg/platform/tx"
)

// Store persists audit events in the audit_events table.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const insertColumns = 8

// Append writes events with a single multi-row insert.
func (s *Store) Append(ctx context.Context, events ...audit.Event) error {
	if len(events) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO audit_events
		(id, category, action, client_id, account_id, outcome, request_id, occurred_at)
		VALUES `)
	args := make([]any, 0, len(events)*insertColumns)
	for i, event := range events {
		if i > 0 {
			b.WriteString(", ")
		}
		n := i * insertColumns
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8)

		var accountID *uuid.UUID
		if !event.AccountID.IsNil() {
			u := uuid.UUID(event.AccountID)
			accountID = &u
		}
		args = append(args,
			uuid.New(),
			string(event.Action.Category()),
			string(event.Action),
			int64(event.ClientID),
			accountID,
			event.Outcome,
			event.RequestID,
			event.Timestamp,
		)
	}
	if _, err := s.execer(ctx).ExecContext(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("insert audit events: %w", err)
	}
	return nil
}

// ListByClient returns up to limit events for clientID, newest first.
func (s *Store) ListByClient(ctx context.Context, clientID id.ClientID, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT action, client_id, account_id, outcome, request_id, occurred_at
		FROM audit_events
		WHERE client_id = $1
		ORDER BY occurred_at DESC, id
		LIMIT $2`, int64(clientID), limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event     audit.Event
			action    string
			client    int64
			accountID uuid.NullUUID
		)
		if err := rows.Scan(&action, &client, &accountID, &event.Outcome, &event.RequestID, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = audit.Action(action)
		event.ClientID = id.ClientID(client)
		if accountID.Valid {
			event.AccountID = id.AccountID(accountID.UUID)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
