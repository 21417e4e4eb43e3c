package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eirem/relay/internal/adapters/store"
	"github.com/eirem/relay/internal/domain"
)

func newTestStore(t *testing.T) *store.SQLite {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})
	return s
}

func TestAppendAndQueryBothDirections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, &domain.Message{From: "7", To: "9", Text: "hi", Timestamp: 100}))
	require.NoError(t, s.Append(ctx, &domain.Message{From: "9", To: "7", Text: "hey", Timestamp: 200}))
	require.NoError(t, s.Append(ctx, &domain.Message{From: "7", To: "5", Text: "other chat", Timestamp: 150}))

	msgs, err := s.Between(ctx, "7", "9")
	require.NoError(t, err)
	require.Len(t, msgs, 2, "conversation covers both directions, but no third parties")
	assert.Equal(t, "hi", msgs[0].Text)
	assert.Equal(t, "hey", msgs[1].Text)

	// Symmetric regardless of argument order.
	reversed, err := s.Between(ctx, "9", "7")
	require.NoError(t, err)
	assert.Equal(t, msgs, reversed)
}

func TestQueryOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, &domain.Message{From: "7", To: "9", Text: "third", Timestamp: 300}))
	require.NoError(t, s.Append(ctx, &domain.Message{From: "7", To: "9", Text: "first", Timestamp: 100}))
	require.NoError(t, s.Append(ctx, &domain.Message{From: "9", To: "7", Text: "tie-a", Timestamp: 200}))
	require.NoError(t, s.Append(ctx, &domain.Message{From: "7", To: "9", Text: "tie-b", Timestamp: 200}))

	msgs, err := s.Between(ctx, "7", "9")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "first", msgs[0].Text)
	assert.Equal(t, "tie-a", msgs[1].Text, "insertion order breaks timestamp ties")
	assert.Equal(t, "tie-b", msgs[2].Text)
	assert.Equal(t, "third", msgs[3].Text)
}

func TestEmptyConversation(t *testing.T) {
	s := newTestStore(t)

	msgs, err := s.Between(context.Background(), "7", "9")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestAppendRejectsInvalidMessage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Append(ctx, &domain.Message{From: "7", To: "9", Text: "", Timestamp: 100})
	require.ErrorIs(t, err, domain.ErrMessageTextEmpty)

	msgs, err := s.Between(ctx, "7", "9")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
