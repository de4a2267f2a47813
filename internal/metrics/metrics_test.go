package metrics

import (
	"path/filepath"
	"testing"
	"time"

	"kitchen-ai/internal/database"
	"kitchen-ai/internal/shared"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db.SQL)
}

func TestStore(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.RecordMeta(shared.AgentMeta{
		AgentName: "week",
		Usage:     shared.TokenUsage{PromptTokens: 100, CompletionTokens: 900, Model: "m"},
		Latency:   1500 * time.Millisecond,
		Outcome:   shared.OutcomeAI,
	}))
	require.NoError(t, store.RecordMeta(shared.AgentMeta{AgentName: "shopping", Outcome: shared.OutcomeFallback}))
	// Neither used the model nor fell back: skipped.
	require.NoError(t, store.RecordMeta(shared.AgentMeta{AgentName: "shopping", Outcome: shared.OutcomeAI}))
	require.NoError(t, store.Record(ExecutionMetric{AgentName: "meal", Timestamp: time.Now().AddDate(0, 0, -40)}))

	t.Run("GetDailyUsage", func(t *testing.T) {
		usage, err := store.GetDailyUsage(7)
		require.NoError(t, err)
		require.Len(t, usage, 1)
		assert.Equal(t, time.Now().UTC().Format("2006-01-02"), usage[0].Date)
		assert.Equal(t, 100, usage[0].TotalPrompt)
		assert.Equal(t, 900, usage[0].TotalCompletion)
		assert.Equal(t, 2, usage[0].TotalExecution)
		assert.Equal(t, 1, usage[0].Fallbacks)
	})

	t.Run("Cleanup", func(t *testing.T) {
		removed, err := store.Cleanup(30)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)
	})
}

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewCollector(reg)
	store := newTestStore(t)
	rec := NewRecorder(store, collector)

	require.NoError(t, rec.RecordMeta(shared.AgentMeta{
		AgentName: "week",
		Usage:     shared.TokenUsage{PromptTokens: 10, CompletionTokens: 20},
		Latency:   time.Second,
		Outcome:   shared.OutcomeAI,
	}))
	require.NoError(t, rec.RecordMeta(shared.AgentMeta{AgentName: "week", Outcome: shared.OutcomeFallback}))

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.generations.WithLabelValues("week", "ai")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.generations.WithLabelValues("week", "fallback")))
	assert.Equal(t, 10.0, testutil.ToFloat64(collector.tokens.WithLabelValues("week", "prompt")))
	assert.Equal(t, 20.0, testutil.ToFloat64(collector.tokens.WithLabelValues("week", "completion")))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.duration))

	usage, err := store.GetDailyUsage(1)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 2, usage[0].TotalExecution)
}

func TestReport(t *testing.T) {
	out := Report(
		[]DailyUsage{{Date: "2024-12-09", TotalPrompt: 100, TotalCompletion: 50, TotalExecution: 3, Fallbacks: 1}},
		SysHealth{AllocMB: 12, SysMB: 40, Goroutines: 8, Uptime: time.Minute, DataDiskSize: "1.5 MB"},
	)
	assert.Contains(t, out, "2024-12-09: 150 tokens (3 calls, 1 fallbacks)")
	assert.Contains(t, out, "RAM: 12MB (Alloc) / 40MB (Sys)")
	assert.Contains(t, out, "Disk data: 1.5 MB")

	assert.Contains(t, Report(nil, SysHealth{}), "no data yet")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2*1024*1024))
}
