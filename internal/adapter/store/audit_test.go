package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
)

func TestMemoryAuditLog(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryAuditLog(3)

	for i := 0; i < 5; i++ {
		action := domain.AuditActionChat
		if i%2 == 1 {
			action = domain.AuditActionLookup
		}
		require.NoError(t, l.WriteAudit(ctx, domain.AuditEvent{Path: fmt.Sprintf("/%d", i), Action: action}))
	}

	all, err := l.ListAudit(ctx, 0, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "/4", all[0].Path)
	assert.Equal(t, "/2", all[2].Path)

	chats, err := l.ListAudit(ctx, 10, domain.AuditActionChat)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "/4", chats[0].Path)

	one, err := l.ListAudit(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, one, 1)

	none, err := l.ListAudit(ctx, 10, domain.AuditActionIngest)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestClampAuditLimit(t *testing.T) {
	assert.Equal(t, MaxAuditList, clampAuditLimit(0))
	assert.Equal(t, MaxAuditList, clampAuditLimit(MaxAuditList+1))
	assert.Equal(t, 20, clampAuditLimit(20))
}
