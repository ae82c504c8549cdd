package db

import (
	"context"
	"testing"

	"github.com/agentmesh/commandcenter/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRejectionRepoStub_KeepsNothing(t *testing.T) {
	repo := NewRejectionRepoStub(nil)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.RejectedFrame{Source: "test", Reason: domain.RejectionDecodeFailed}))

	frames, err := repo.List(ctx, 10)
	require.NoError(t, err)
	assert.NotNil(t, frames)
	assert.Empty(t, frames)

	counts, err := repo.CountByReason(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)
}
