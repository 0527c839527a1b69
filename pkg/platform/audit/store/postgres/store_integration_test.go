//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	audit "pawtrail/pkg/platform/audit"
	"pawtrail/pkg/testutil/containers"
)

type StoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = New(s.pg.DB)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *StoreSuite) SetupTest() {
	_, err := s.pg.DB.ExecContext(context.Background(), "TRUNCATE audit_archive")
	s.Require().NoError(err)
}

func (s *StoreSuite) record(source audit.Source, at time.Time, tags ...string) audit.Record {
	return audit.Record{
		ID:        uuid.New(),
		Timestamp: at,
		Entry: audit.Entry{
			Source:   source,
			Action:   audit.ActionBackupCreated,
			Category: audit.CategoryCompliance,
			Actor:    "front-desk",
			Target:   "nightly.tar",
			Tags:     tags,
		},
	}
}

func (s *StoreSuite) TestMigrateIsRepeatable() {
	s.NoError(s.store.Migrate(context.Background()))
}

func (s *StoreSuite) TestWriteAndListRecent() {
	ctx := context.Background()
	base := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

	for i := range 5 {
		s.Require().NoError(s.store.Write(ctx, s.record(audit.SourceBackup, base.Add(time.Duration(i)*time.Minute), "nightly")))
	}
	s.Require().NoError(s.store.Write(ctx, s.record(audit.SourceExport, base)))

	records, err := s.store.ListRecent(ctx, audit.SourceBackup, 3)
	s.Require().NoError(err)
	s.Require().Len(records, 3)
	s.True(records[0].Timestamp.Equal(base.Add(2 * time.Minute)))
	s.True(records[2].Timestamp.Equal(base.Add(4 * time.Minute)))
	s.Equal([]string{"nightly"}, records[0].Entry.Tags)
	s.Equal("front-desk", records[0].Entry.Actor)
	s.Equal(audit.CategoryCompliance, records[0].Entry.Category)

	exports, err := s.store.ListRecent(ctx, audit.SourceExport, 10)
	s.Require().NoError(err)
	s.Require().Len(exports, 1)
	s.Nil(exports[0].Entry.Tags)
}

func (s *StoreSuite) TestWriteIsIdempotent() {
	ctx := context.Background()
	rec := s.record(audit.SourceMigration, time.Now().UTC())

	s.Require().NoError(s.store.Write(ctx, rec))
	s.Require().NoError(s.store.Write(ctx, rec))

	n, err := s.store.Count(ctx, audit.SourceMigration)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *StoreSuite) TestWriteBatch() {
	ctx := context.Background()
	base := time.Date(2026, 7, 2, 9, 0, 0, 0, time.UTC)

	batch := []audit.Record{
		s.record(audit.SourceDemoData, base),
		s.record(audit.SourceDemoData, base.Add(time.Second)),
		s.record(audit.SourceDemoData, base.Add(2*time.Second)),
	}
	s.Require().NoError(s.store.WriteBatch(ctx, batch))

	n, err := s.store.Count(ctx, audit.SourceDemoData)
	s.Require().NoError(err)
	s.Equal(3, n)
}

func (s *StoreSuite) TestWriteBatchRollsBackOnFailure() {
	ctx := context.Background()
	base := time.Date(2026, 7, 3, 9, 0, 0, 0, time.UTC)

	bad := s.record(audit.SourceMigration, base.Add(time.Second))
	bad.Entry.Detail = "broken\x00detail"

	err := s.store.WriteBatch(ctx, []audit.Record{
		s.record(audit.SourceMigration, base),
		bad,
	})
	s.Require().Error(err)

	n, err := s.store.Count(ctx, audit.SourceMigration)
	s.Require().NoError(err)
	s.Zero(n)
}
