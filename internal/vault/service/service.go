package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	eventmodels "tokenvault/internal/events/models"
	"tokenvault/internal/vault/metrics"
	"tokenvault/internal/vault/models"
	"tokenvault/internal/vault/ports"
	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
	"tokenvault/pkg/platform/audit"
	"tokenvault/pkg/platform/sentinel"
	"tokenvault/pkg/requestcontext"
)

const (
	opCreate  = "create_account"
	opUpdate  = "update_account"
	opFind    = "find_token"
	opDisable = "disable_account"
	opResolve = "resolve_token"
)

// TokenGenerator mints tokens for new accounts.
type TokenGenerator func() (string, error)

// Service is the tokenization core. It owns dedup and idempotency rules and
// keeps no mutable state of its own: every request is independent and all
// state lives behind the AccountStore.
type Service struct {
	accounts   ports.AccountStore
	encryption ports.EncryptionPort
	cardBins   ports.CardBinPort
	tokens     TokenGenerator
	events     ports.EventPublisher
	auditor    ports.AuditPublisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithEventPublisher announces created, updated and disabled accounts.
func WithEventPublisher(p ports.EventPublisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

// WithAuditPublisher records resolutions, creations and disables.
func WithAuditPublisher(p ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func WithTokenGenerator(gen TokenGenerator) Option {
	return func(s *Service) {
		if gen != nil {
			s.tokens = gen
		}
	}
}

// New constructs a Service.
func New(accounts ports.AccountStore, encryption ports.EncryptionPort, cardBins ports.CardBinPort, opts ...Option) (*Service, error) {
	if accounts == nil {
		return nil, errors.New("account store is required")
	}
	if encryption == nil {
		return nil, errors.New("encryption port is required")
	}
	if cardBins == nil {
		return nil, errors.New("card bin port is required")
	}
	s := &Service{
		accounts:   accounts,
		encryption: encryption,
		cardBins:   cardBins,
		tokens:     GenerateToken,
		logger:     slog.New(slog.DiscardHandler),
		tracer:     otel.Tracer("tokenvault/internal/vault/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GenerateToken returns 32 hex characters drawn from a random (v4) UUID.
// The value is unrelated to the account number and to any earlier token.
func GenerateToken() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(u.String(), "-", ""), nil
}

// CreateAccount tokenizes an account number for a tenant. Tokenizing a
// fingerprint that already exists updates the account in place and returns
// its existing token with NewAccountCreated=false.
func (s *Service) CreateAccount(ctx context.Context, req *models.CreateAccountRequest) (result *models.CreateAccountResult, err error) {
	ctx, finish := s.begin(ctx, opCreate, req.ClientID)
	defer func() { finish(err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	fingerprint, err := models.DeriveFingerprint(req.AccountNumber)
	if err != nil {
		return nil, err
	}

	existing, err := s.findByFingerprint(ctx, fingerprint, req.ClientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeFailedToTokenize, "failed to tokenize account")
	}

	encrypted, err := s.encrypt(ctx, req.AccountNumber)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeFailedToTokenize, "failed to tokenize account")
	}

	update := models.AccountUpdate{
		Fingerprint:    fingerprint,
		Encrypted:      encrypted,
		ExpirationDate: req.ExpirationDate,
		HolderEmail:    req.HolderEmail,
		UpdatedAt:      requestcontext.Now(ctx),
	}
	if existing != nil {
		return s.updateExisting(ctx, existing, update)
	}

	cardBinID, found, err := s.cardBins.Classify(ctx, fingerprint.Prefix)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeFailedToTokenize, "failed to classify card bin")
	}
	if !found {
		return nil, dErrors.New(dErrors.CodeInvalidCardBrand, "card brand is not supported")
	}

	token, err := s.resolveTokenSource(req.TokenSource)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeFailedToTokenize, "failed to generate token")
	}

	account, err := models.NewAccount(token, req.ClientID, fingerprint, encrypted,
		req.ExpirationDate, req.HolderEmail, cardBinID, update.UpdatedAt)
	if err != nil {
		return nil, err
	}

	accountID, err := s.accounts.Insert(ctx, account)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// A concurrent create for the same fingerprint won the insert;
			// converge on its token instead of minting a second one.
			return s.convergeAfterConflict(ctx, fingerprint, req.ClientID, update, err)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeFailedToTokenize, "failed to persist account")
	}

	s.logger.InfoContext(ctx, "account tokenized",
		"account_id", accountID,
		"client_id", req.ClientID,
		"fingerprint", fingerprint.Masked(),
		"card_bin_id", cardBinID,
	)
	s.publish(ctx, eventmodels.TypeAccountCreated, req.ClientID, eventmodels.AccountCreated{
		AccountID: accountID.String(),
		Token:     token,
		Masked:    fingerprint.Masked(),
		CardBinID: int(cardBinID),
	})
	s.recordAccess(ctx, audit.ActionAccountCreated, req.ClientID, accountID, "success")
	return &models.CreateAccountResult{AccountID: accountID, Token: token, NewAccountCreated: true}, nil
}

// UpdateAccount rewrites the account owning req.Token. It refuses to move a
// token onto a fingerprint already owned by a different token.
func (s *Service) UpdateAccount(ctx context.Context, req *models.UpdateAccountRequest) (token string, err error) {
	ctx, finish := s.begin(ctx, opUpdate, req.ClientID)
	defer func() { finish(err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return "", err
	}
	fingerprint, err := models.DeriveFingerprint(req.AccountNumber)
	if err != nil {
		return "", err
	}

	account, err := s.accounts.FindByToken(ctx, req.Token, req.ClientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeAccountNotFound, "account not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeFailedToUpdateAccount, "failed to load account")
	}

	if account.Fingerprint != fingerprint {
		other, err := s.findByFingerprint(ctx, fingerprint, req.ClientID)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeFailedToUpdateAccount, "failed to check fingerprint")
		}
		if other != nil && other.Token != account.Token {
			return "", dErrors.New(dErrors.CodeAccountAlreadyExists, "another token already owns this account number")
		}
	}

	encrypted, err := s.encrypt(ctx, req.AccountNumber)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return "", err
		}
		return "", dErrors.Wrap(err, dErrors.CodeFailedToUpdateAccount, "failed to encrypt account number")
	}

	update := models.AccountUpdate{
		Fingerprint:    fingerprint,
		Encrypted:      encrypted,
		ExpirationDate: req.ExpirationDate,
		HolderEmail:    req.HolderEmail,
		UpdatedAt:      requestcontext.Now(ctx),
	}
	if err := s.accounts.Update(ctx, account.ID, update); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return "", dErrors.New(dErrors.CodeAccountNotFound, "account not found")
		case errors.Is(err, sentinel.ErrConflict):
			return "", dErrors.New(dErrors.CodeAccountAlreadyExists, "another token already owns this account number")
		}
		return "", dErrors.Wrap(err, dErrors.CodeFailedToUpdateAccount, "failed to update account")
	}

	s.logger.InfoContext(ctx, "account updated",
		"account_id", account.ID,
		"client_id", req.ClientID,
		"fingerprint", fingerprint.Masked(),
	)
	s.publish(ctx, eventmodels.TypeAccountUpdated, req.ClientID, eventmodels.AccountUpdated{
		AccountID: account.ID.String(),
		Token:     account.Token,
		Masked:    fingerprint.Masked(),
	})
	return account.Token, nil
}

// FindToken returns the token of the active account matching accountNumber.
// It never mutates.
func (s *Service) FindToken(ctx context.Context, accountNumber string, clientID id.ClientID) (token string, err error) {
	ctx, finish := s.begin(ctx, opFind, clientID)
	defer func() { finish(err) }()

	fingerprint, err := models.DeriveFingerprint(strings.TrimSpace(accountNumber))
	if err != nil {
		return "", err
	}
	account, err := s.accounts.FindByFingerprint(ctx, fingerprint, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeTokenNotFound, "token not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeFailedToFindToken, "failed to find token")
	}
	return account.Token, nil
}

// DisableAccount excludes the account owning token from every later lookup.
// Disabling is terminal; the token is never handed out again.
func (s *Service) DisableAccount(ctx context.Context, token string, clientID id.ClientID) (err error) {
	ctx, finish := s.begin(ctx, opDisable, clientID)
	defer func() { finish(err) }()

	account, err := s.accounts.FindByToken(ctx, strings.TrimSpace(token), clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeAccountNotFound, "account not found")
		}
		return dErrors.Wrap(err, dErrors.CodeFailedToDisableAccount, "failed to load account")
	}
	if err := s.accounts.Disable(ctx, account.ID, requestcontext.Now(ctx)); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeAccountNotFound, "account not found")
		}
		return dErrors.Wrap(err, dErrors.CodeFailedToDisableAccount, "failed to disable account")
	}

	s.logger.InfoContext(ctx, "account disabled",
		"account_id", account.ID,
		"client_id", clientID,
	)
	s.publish(ctx, eventmodels.TypeAccountDeleted, clientID, eventmodels.AccountDeleted{
		AccountID: account.ID.String(),
	})
	s.recordAccess(ctx, audit.ActionAccountDisabled, clientID, account.ID, "success")
	return nil
}

// ResolveToken resolves a token back to its clear account number. Every
// attempt is audited, including refused ones.
func (s *Service) ResolveToken(ctx context.Context, token string, clientID id.ClientID) (resolved *models.ResolvedAccount, err error) {
	ctx, finish := s.begin(ctx, opResolve, clientID)
	defer func() { finish(err) }()
	var accountID id.AccountID
	defer func() {
		if err != nil {
			s.recordAccess(ctx, audit.ActionResolveRefused, clientID, accountID, string(dErrors.CodeOf(err)))
			return
		}
		s.recordAccess(ctx, audit.ActionAccountResolved, clientID, accountID, "success")
	}()

	account, err := s.accounts.FindByToken(ctx, strings.TrimSpace(token), clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeAccountNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeFailedToResolveToken, "failed to load account")
	}
	accountID = account.ID
	if err := account.Encrypted.Validate(); err != nil {
		return nil, err
	}
	plaintext, err := s.encryption.Decrypt(ctx, account.Encrypted)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeFailedToResolveToken, "failed to decrypt account number")
	}
	return &models.ResolvedAccount{
		AccountID:      account.ID,
		Token:          account.Token,
		AccountNumber:  string(plaintext),
		ExpirationDate: account.ExpirationDate,
		HolderEmail:    account.HolderEmail,
		CardBinID:      account.CardBinID,
	}, nil
}

// findByFingerprint maps ErrNotFound onto a nil account.
func (s *Service) findByFingerprint(ctx context.Context, fingerprint models.Fingerprint, clientID id.ClientID) (*models.Account, error) {
	account, err := s.accounts.FindByFingerprint(ctx, fingerprint, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return account, nil
}

func (s *Service) encrypt(ctx context.Context, accountNumber string) (models.EncryptedNumber, error) {
	encrypted, err := s.encryption.Encrypt(ctx, []byte(accountNumber))
	if err != nil {
		return models.EncryptedNumber{}, err
	}
	if encrypted.IsZero() {
		return models.EncryptedNumber{}, dErrors.New(dErrors.CodeInvariantViolation, "encryption returned an empty payload")
	}
	if err := encrypted.Validate(); err != nil {
		return models.EncryptedNumber{}, err
	}
	return encrypted, nil
}

// updateExisting is the update-in-place branch of CreateAccount. The card bin
// is not re-validated: it was established at creation.
func (s *Service) updateExisting(ctx context.Context, existing *models.Account, update models.AccountUpdate) (*models.CreateAccountResult, error) {
	if err := s.accounts.Update(ctx, existing.ID, update); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeFailedToTokenize, "failed to update existing account")
	}
	s.logger.InfoContext(ctx, "account re-tokenized",
		"account_id", existing.ID,
		"client_id", existing.ClientID,
		"fingerprint", update.Fingerprint.Masked(),
	)
	s.publish(ctx, eventmodels.TypeAccountUpdated, existing.ClientID, eventmodels.AccountUpdated{
		AccountID: existing.ID.String(),
		Token:     existing.Token,
		Masked:    update.Fingerprint.Masked(),
	})
	return &models.CreateAccountResult{AccountID: existing.ID, Token: existing.Token, NewAccountCreated: false}, nil
}

func (s *Service) convergeAfterConflict(ctx context.Context, fingerprint models.Fingerprint, clientID id.ClientID, update models.AccountUpdate, cause error) (*models.CreateAccountResult, error) {
	winner, err := s.findByFingerprint(ctx, fingerprint, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeFailedToTokenize, "failed to tokenize account")
	}
	if winner == nil {
		// The conflict was not on the dedup key (e.g. a reused external token).
		return nil, dErrors.Wrap(cause, dErrors.CodeFailedToTokenize, "failed to persist account")
	}
	return s.updateExisting(ctx, winner, update)
}

// publish is fire-and-forget: the account change is already committed.
func (s *Service) publish(ctx context.Context, eventType eventmodels.EventType, clientID id.ClientID, payload any) {
	if s.events == nil {
		return
	}
	event, err := eventmodels.NewEvent(eventType, clientID, requestcontext.Now(ctx), payload)
	if err == nil {
		err = s.events.Publish(ctx, event)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account event",
			"event_type", eventType,
			"client_id", clientID,
			"error", err,
		)
		if s.metrics != nil {
			s.metrics.PublishFailures.WithLabelValues(string(eventType)).Inc()
		}
	}
}

func (s *Service) recordAccess(ctx context.Context, action audit.Action, clientID id.ClientID, accountID id.AccountID, outcome string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Action:    action,
		ClientID:  clientID,
		AccountID: accountID,
		Outcome:   outcome,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record audit event",
			"action", action,
			"client_id", clientID,
			"error", err,
		)
	}
}

func (s *Service) resolveTokenSource(source models.TokenSource) (string, error) {
	switch src := source.(type) {
	case models.CallerSupplied:
		return src.Value, nil
	case models.Generated, nil:
		return s.tokens()
	default:
		return "", errors.New("unknown token source")
	}
}

// begin opens a span and returns a finisher that records the outcome.
// Business-rule outcomes are not span errors; infrastructure faults are.
func (s *Service) begin(ctx context.Context, operation string, clientID id.ClientID) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, operation, trace.WithAttributes(
		attribute.Int64("tokenvault.client_id", int64(clientID)),
	))
	return ctx, func(err error) {
		outcome := "success"
		if err != nil {
			code := dErrors.CodeOf(err)
			outcome = string(code)
			if code.IsInfrastructure() || code == dErrors.CodeInvariantViolation {
				span.RecordError(err)
				span.SetStatus(codes.Error, outcome)
				s.logger.ErrorContext(ctx, "vault operation failed",
					"operation", operation,
					"client_id", clientID,
					"outcome", outcome,
					"error", err,
				)
			} else {
				s.logger.DebugContext(ctx, "vault operation rejected",
					"operation", operation,
					"client_id", clientID,
					"outcome", outcome,
				)
			}
		}
		span.SetAttributes(attribute.String("tokenvault.outcome", outcome))
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveOperation(operation, outcome, start)
		}
	}
}
