package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmalhado/crisiscast/internal/config"
	"github.com/jmalhado/crisiscast/internal/protocol"
	"github.com/jmalhado/crisiscast/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(config.DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "alerts.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestSaveAndFindAlert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	expires := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	alert := protocol.Alert{
		ID:          "alert-1",
		Title:       "Flood Warning",
		Description: "Severe flooding expected.",
		Type:        "WEATHER",
		Severity:    protocol.SeverityHigh,
		Region:      "California",
		IssuedAt:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		ExpiresAt:   &expires,
		Actions:     "Move to higher ground.",
		Source:      "NWS",
		Contact:     "nws@example.org",
	}
	require.NoError(t, store.SaveAlert(ctx, &alert))

	found, err := store.FindAlert(ctx, "alert-1")
	require.NoError(t, err)
	assert.Equal(t, alert.Title, found.Title)
	assert.Equal(t, alert.Region, found.Region)
	assert.Equal(t, alert.Severity, found.Severity)
	require.NotNil(t, found.ExpiresAt)
	assert.True(t, found.ExpiresAt.Equal(expires))
}

func TestFindAlert_UnknownIDReturnsNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.FindAlert(context.Background(), "missing")

	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSaveAlert_RejectsNilAndDuplicateID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.SaveAlert(ctx, nil))

	alert := protocol.Alert{
		ID:          "alert-1",
		Title:       "Flood Warning",
		Description: "Severe flooding expected.",
		Type:        "WEATHER",
		Severity:    protocol.SeverityHigh,
		Region:      "California",
		IssuedAt:    time.Now().UTC(),
	}
	require.NoError(t, store.SaveAlert(ctx, &alert))
	assert.Error(t, store.SaveAlert(ctx, &alert), "primary key collision must surface")
}
