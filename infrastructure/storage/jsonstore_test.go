package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openboycott/scorecard/internal/domain"
)

func newTestStore(t *testing.T) (*JSONStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "companies.json")
	store, err := NewJSONStore(path, zap.NewNop())
	require.NoError(t, err)
	return store, path
}

func record(score float64) domain.CompanyRecord {
	return domain.NewCompanyRecord(
		domain.ObservationSet{"ENV": {Confidence: 100, Score: score}},
		"Acme Corp",
		[]string{"Globex"},
		[]string{"Acme Corporation"},
		[]string{"https://example.com/article"},
	)
}

func TestJSONStoreLoadMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	records, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestJSONStoreMergeRoundTrip(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Merge(ctx, map[string]domain.CompanyRecord{
		"acmecorp": record(40),
	}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, loaded, "acmecorp")

	got := loaded["acmecorp"]
	assert.Equal(t, "Acme Corp", got.FullName)
	assert.Equal(t, []string{"Globex"}, got.Competitors)
	assert.InDelta(t, 40.0, got.Metrics["ENV"].Score, 1e-9)
	assert.NotZero(t, got.Date)
}

func TestJSONStoreMergeOnlyTouchesWrittenKeys(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Merge(ctx, map[string]domain.CompanyRecord{
		"acmecorp": record(40),
		"globex":   record(70),
	}))
	require.NoError(t, store.Merge(ctx, map[string]domain.CompanyRecord{
		"acmecorp": record(55),
	}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.InDelta(t, 55.0, loaded["acmecorp"].Metrics["ENV"].Score, 1e-9)
	assert.InDelta(t, 70.0, loaded["globex"].Metrics["ENV"].Score, 1e-9)
}

func TestJSONStoreMergeNothingIsNoop(t *testing.T) {
	t.Parallel()

	store, path := newTestStore(t)
	require.NoError(t, store.Merge(context.Background(), nil))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty merge must not create the file")
}

func TestJSONStorePersistedShape(t *testing.T) {
	t.Parallel()

	store, path := newTestStore(t)
	require.NoError(t, store.Merge(context.Background(), map[string]domain.CompanyRecord{
		"acmecorp": record(40),
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "acmecorp")

	entry := raw["acmecorp"]
	assert.Contains(t, entry, "metrics")
	assert.Contains(t, entry, "full_name")
	assert.Contains(t, entry, "competitors")
	assert.Contains(t, entry, "alt_names")
	assert.Contains(t, entry, "sources")
	assert.Contains(t, entry, "date")

	// Observations persist as [confidence, score] pairs.
	metrics := entry["metrics"].(map[string]any)
	pair := metrics["ENV"].([]any)
	require.Len(t, pair, 2)
	assert.InDelta(t, 100.0, pair[0].(float64), 1e-9)
	assert.InDelta(t, 40.0, pair[1].(float64), 1e-9)
}

func TestJSONStoreRejectsCorruptFile(t *testing.T) {
	t.Parallel()

	store, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := store.Load(context.Background())
	require.Error(t, err)
}

func TestNewJSONStoreRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := NewJSONStore("", zap.NewNop())
	require.Error(t, err)
}
