package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteSettings(t *testing.T) {
	s := newTestSQLiteStore(t)
	settings := s.Settings()

	_, ok := settings.Get(SettingTelegramBotToken)
	assert.False(t, ok)

	require.NoError(t, settings.Set(SettingTelegramBotToken, "test-token"))

	value, ok := settings.Get(SettingTelegramBotToken)
	require.True(t, ok)
	assert.Equal(t, "test-token", value)

	// Overwrite
	require.NoError(t, settings.Set(SettingTelegramBotToken, "new-token"))
	value, _ = settings.Get(SettingTelegramBotToken)
	assert.Equal(t, "new-token", value)

	require.NoError(t, settings.Delete(SettingTelegramBotToken))
	_, ok = settings.Get(SettingTelegramBotToken)
	assert.False(t, ok)
}

func TestSQLiteSettingsInt(t *testing.T) {
	s := newTestSQLiteStore(t)
	settings := s.Settings()

	assert.Equal(t, 42, settings.GetInt(SettingForwardChatID, 42))

	require.NoError(t, settings.SetInt(SettingForwardChatID, 777))
	assert.Equal(t, 777, settings.GetInt(SettingForwardChatID, 42))
}

func TestRecordDelivery(t *testing.T) {
	s := newTestSQLiteStore(t)

	require.NoError(t, s.RecordDelivery("72d3162e-cc78-11e3-81ab-4c9367dc0958", "push", DeliveryForwarded, ""))
	require.NoError(t, s.RecordDelivery("", "ping", DeliveryRejected, "invalid webhook signature"))
	require.NoError(t, s.RecordDelivery("a8e9f702-cc78-11e3-81ab-4c9367dc0958", "issues", DeliveryFailed, "chat unreachable"))

	deliveries, err := s.RecentDeliveries(10)
	require.NoError(t, err)
	require.Len(t, deliveries, 3)

	// Most recent first
	assert.Equal(t, "issues", deliveries[0].EventType)
	assert.Equal(t, "a8e9f702-cc78-11e3-81ab-4c9367dc0958", deliveries[0].DeliveryID)
	assert.Equal(t, DeliveryFailed, deliveries[0].Outcome)
	assert.Equal(t, "chat unreachable", deliveries[0].Detail)

	// A delivery without the header records an empty ID
	assert.Empty(t, deliveries[1].DeliveryID)
	assert.Equal(t, "push", deliveries[2].EventType)
}

func TestRecentDeliveriesLimit(t *testing.T) {
	s := newTestSQLiteStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordDelivery("", "push", DeliveryForwarded, ""))
	}

	deliveries, err := s.RecentDeliveries(3)
	require.NoError(t, err)
	assert.Len(t, deliveries, 3)

	// Non-positive limit falls back to the default
	deliveries, err = s.RecentDeliveries(0)
	require.NoError(t, err)
	assert.Len(t, deliveries, 5)
}
