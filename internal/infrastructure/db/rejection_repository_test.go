package db

import (
	"context"
	"testing"
	"time"

	"github.com/agentmesh/commandcenter/internal/core/ports"
	"github.com/agentmesh/commandcenter/internal/domain"
	"github.com/agentmesh/commandcenter/internal/infrastructure/logger"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) ports.RejectionRepository {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// every connection to :memory: is a separate database
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, RunMigrations(gdb))
	return NewRejectionRepository(gdb, logger.NewNop())
}

func seed(t *testing.T, repo ports.RejectionRepository, frames ...domain.RejectedFrame) {
	t.Helper()
	for i := range frames {
		require.NoError(t, repo.Create(context.Background(), &frames[i]))
	}
}

func frameAt(reason domain.RejectionReason, raw string, at time.Time) domain.RejectedFrame {
	return domain.RejectedFrame{Source: "test", Reason: reason, Raw: raw, CreatedAt: at}
}

func raws(frames []domain.RejectedFrame) []string {
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = f.Raw
	}
	return out
}

func TestRejectionRepository_ListNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo,
		frameAt(domain.RejectionDecodeFailed, "oldest", base),
		frameAt(domain.RejectionDecodeFailed, "tie-1", base.Add(time.Minute)),
		frameAt(domain.RejectionUnrecognizedShape, "tie-2", base.Add(time.Minute)),
		frameAt(domain.RejectionInvalidHealth, "newest", base.Add(time.Hour)),
	)
	ctx := context.Background()

	frames, err := repo.List(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"newest", "tie-2", "tie-1", "oldest"}, raws(frames))

	frames, err = repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"newest", "tie-2"}, raws(frames))
}

func TestRejectionRepository_CountByReason(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	counts, err := repo.CountByReason(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)

	seed(t, repo,
		frameAt(domain.RejectionDecodeFailed, "a", base),
		frameAt(domain.RejectionDecodeFailed, "b", base),
		frameAt(domain.RejectionDecodeFailed, "c", base),
		frameAt(domain.RejectionInvalidHealth, "d", base),
	)

	counts, err = repo.CountByReason(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[domain.RejectionReason]int64{
		domain.RejectionDecodeFailed:  3,
		domain.RejectionInvalidHealth: 1,
	}, counts)
}

func TestRejectionRepository_DeleteOlderThan(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo,
		frameAt(domain.RejectionDecodeFailed, "old-1", base),
		frameAt(domain.RejectionUnrecognizedShape, "old-2", base.Add(time.Minute)),
		frameAt(domain.RejectionDecodeFailed, "at-cutoff", base.Add(time.Hour)),
		frameAt(domain.RejectionInvalidHealth, "fresh", base.Add(2*time.Hour)),
	)
	ctx := context.Background()

	deleted, err := repo.DeleteOlderThan(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	frames, err := repo.List(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh", "at-cutoff"}, raws(frames))

	deleted, err = repo.DeleteOlderThan(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestRejectionRepository_PayloadRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	withPayload := frameAt(domain.RejectionUnrecognizedShape, `{"foo":"x"}`, base)
	withPayload.Payload = domain.JSONB{"foo": "x\x00y", "n": 2.0}
	seed(t, repo, withPayload, frameAt(domain.RejectionDecodeFailed, "oops", base.Add(time.Second)))

	frames, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, frames, 2)

	assert.Nil(t, frames[0].Payload)
	assert.Equal(t, domain.JSONB{"foo": "x�y", "n": 2.0}, frames[1].Payload)
	assert.NotZero(t, frames[1].ID)
}
