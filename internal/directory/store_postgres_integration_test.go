//go:build integration

package directory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tokenvault/internal/directory"
	id "tokenvault/pkg/domain"
	"tokenvault/pkg/platform/sentinel"
	"tokenvault/pkg/testutil/containers"
)

type PostgresDirectorySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *directory.PostgresStore
}

func TestPostgresDirectorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresDirectorySuite))
}

func (s *PostgresDirectorySuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = directory.NewPostgres(s.postgres.DB)
}

func (s *PostgresDirectorySuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "account_directory"))
}

func entry(clientID id.ClientID, at time.Time) directory.Entry {
	return directory.Entry{
		AccountID:    id.AccountID(uuid.New()),
		ClientID:     clientID,
		Token:        "tok-" + uuid.NewString(),
		Masked:       "41111111****1111",
		CardBinID:    1,
		RegisteredAt: at,
	}
}

func (s *PostgresDirectorySuite) TestLifecycle() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	e := entry(7, now)

	s.Require().NoError(s.store.Register(ctx, e))
	s.ErrorIs(s.store.Register(ctx, e), directory.ErrAlreadyRegistered)

	later := now.Add(time.Minute)
	s.Require().NoError(s.store.Update(ctx, 7, e.AccountID, directory.EntryUpdate{Token: "moved", Masked: "55555555****4444", UpdatedAt: later}))
	got, err := s.store.Get(ctx, 7, e.AccountID)
	s.Require().NoError(err)
	s.Equal("moved", got.Token)
	s.True(later.Equal(got.UpdatedAt))
	s.True(now.Equal(got.RegisteredAt))

	s.ErrorIs(s.store.Update(ctx, 8, e.AccountID, directory.EntryUpdate{Token: "x", UpdatedAt: later}), sentinel.ErrNotFound)

	s.Require().NoError(s.store.Deregister(ctx, 7, e.AccountID))
	_, err = s.store.Get(ctx, 7, e.AccountID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.NoError(s.store.Deregister(ctx, 7, e.AccountID))
}

func (s *PostgresDirectorySuite) TestList() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	second := entry(7, now.Add(time.Second))
	first := entry(7, now)
	s.Require().NoError(s.store.Register(ctx, second))
	s.Require().NoError(s.store.Register(ctx, first))
	s.Require().NoError(s.store.Register(ctx, entry(8, now)))

	entries, err := s.store.List(ctx, 7)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(first.AccountID, entries[0].AccountID)
	s.Equal(second.AccountID, entries[1].AccountID)
}
