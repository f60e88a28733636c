package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogCapture(t *testing.T) {
	t.Run("captures records and attrs", func(t *testing.T) {
		logger, h := NewTestLogger(t)
		logger.Info("report retrieved", slog.Int("records", 2))
		logger.Error("fetch failed", slog.String("url", "https://x"))

		require.Len(t, h.Records(), 2)
		rec, ok := h.Find("retrieved")
		require.True(t, ok)
		assert.Equal(t, int64(2), rec.Attrs["records"])
	})

	t.Run("derived loggers share the store", func(t *testing.T) {
		logger, h := NewTestLogger(t)
		logger.With("component", "directory").Warn("refresh failed")

		records := h.RecordsAt(slog.LevelWarn)
		require.Len(t, records, 1)
		assert.Equal(t, "directory", records[0].Attrs["component"])
		AssertLogged(t, h, slog.LevelWarn, "refresh")
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, h := NewTestLogger(nil)
		logger.Debug("d")
		logger.Info("i")
		logger.Info("i2")
		assert.Len(t, h.RecordsAt(slog.LevelInfo), 2)
		assert.Len(t, h.RecordsAt(slog.LevelError), 0)
	})
}
