package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"tokenvault/internal/vault/metrics"
	"tokenvault/internal/vault/models"
	"tokenvault/internal/vault/ports"
	id "tokenvault/pkg/domain"
	"tokenvault/pkg/platform/sentinel"
)

// Rotator re-encrypts accounts sealed under a key other than the active one.
// Updates already re-encrypt lazily; the rotator is the batch pass run as a
// maintenance job when old keys must be retired.
type Rotator struct {
	accounts    ports.KeyRotationStore
	encryption  ports.EncryptionPort
	batchSize   int
	concurrency int
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// RotationReport summarizes one Run. Skipped counts accounts that were
// updated or disabled after they were listed; a later pass picks them up if
// they are still stale.
type RotationReport struct {
	Scanned int
	Rotated int
	Skipped int
	Failed  int
}

type RotatorOption func(r *Rotator)

func WithBatchSize(n int) RotatorOption {
	return func(r *Rotator) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithConcurrency(n int) RotatorOption {
	return func(r *Rotator) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func WithRotatorLogger(logger *slog.Logger) RotatorOption {
	return func(r *Rotator) {
		r.logger = logger
	}
}

func WithRotatorMetrics(m *metrics.Metrics) RotatorOption {
	return func(r *Rotator) {
		r.metrics = m
	}
}

func NewRotator(accounts ports.KeyRotationStore, encryption ports.EncryptionPort, opts ...RotatorOption) (*Rotator, error) {
	if accounts == nil {
		return nil, errors.New("rotation store is required")
	}
	if encryption == nil {
		return nil, errors.New("encryption port is required")
	}
	r := &Rotator{
		accounts:    accounts,
		encryption:  encryption,
		batchSize:   100,
		concurrency: 4,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run walks every stale account once. A failure on one account is logged and
// counted; it does not stop the pass. Run returns early only when ctx ends or
// the store cannot be listed.
func (r *Rotator) Run(ctx context.Context) (RotationReport, error) {
	activeKey := r.encryption.ActiveKeyID()
	var report RotationReport
	var rotated, skipped, failed atomic.Int64
	var cursor id.AccountID

	for {
		batch, err := r.accounts.ListEncryptedWithOtherKey(ctx, activeKey, cursor, r.batchSize)
		if err != nil {
			return report, fmt.Errorf("list stale accounts: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		report.Scanned += len(batch)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.concurrency)
		for _, account := range batch {
			g.Go(func() error {
				done, err := r.rotate(gctx, account)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					failed.Add(1)
					r.logger.ErrorContext(gctx, "failed to rotate account key",
						"account_id", account.ID,
						"key_id", account.Encrypted.KeyID,
						"error", err,
					)
					if r.metrics != nil {
						r.metrics.RotationFailures.Inc()
					}
					return nil
				}
				if !done {
					skipped.Add(1)
					r.logger.DebugContext(gctx, "account changed since listing, rotation skipped",
						"account_id", account.ID,
					)
					return nil
				}
				rotated.Add(1)
				if r.metrics != nil {
					r.metrics.AccountsRotated.Inc()
				}
				return nil
			})
		}
		err = g.Wait()
		report.Rotated = int(rotated.Load())
		report.Skipped = int(skipped.Load())
		report.Failed = int(failed.Load())
		if err != nil {
			return report, err
		}

		cursor = batch[len(batch)-1].ID
		if len(batch) < r.batchSize {
			break
		}
	}

	r.logger.InfoContext(ctx, "key rotation pass finished",
		"active_key_id", activeKey,
		"scanned", report.Scanned,
		"rotated", report.Rotated,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

// rotate re-seals one account. It writes only the encrypted number and only if
// the account still carries the key id and updated_at it was listed with, so a
// concurrent update or disable always wins. done is false when it lost.
func (r *Rotator) rotate(ctx context.Context, account *models.Account) (done bool, err error) {
	if err := account.Encrypted.Validate(); err != nil {
		return false, err
	}
	plaintext, err := r.encryption.Decrypt(ctx, account.Encrypted)
	if err != nil {
		return false, fmt.Errorf("decrypt: %w", err)
	}
	encrypted, err := r.encryption.Encrypt(ctx, plaintext)
	clear(plaintext)
	if err != nil {
		return false, fmt.Errorf("encrypt: %w", err)
	}
	err = r.accounts.RotateEncryption(ctx, account.ID, account.Encrypted.KeyID, account.UpdatedAt, encrypted)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
