package fadc

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	db, err := ConnectToDatabase("sqlite", filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	catalog := NewCatalog(db, 0)
	require.NoError(t, catalog.Init())
	// Init is idempotent
	require.NoError(t, catalog.Init())
	return catalog
}

func TestCatalogRunLifecycle(t *testing.T) {
	catalog := newTestCatalog(t)

	settings := DefaultRunSettings()
	settings.SID = 4
	settings.Threshold = 80
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	runID, err := catalog.StartRun(settings, "run_004.h5", start)
	require.NoError(t, err)
	require.Len(t, runID, 36)

	entry, err := catalog.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, 4, entry.SID)
	assert.Equal(t, "run_004.h5", entry.OutputFile)
	assert.True(t, start.Equal(entry.Started()))
	assert.False(t, entry.Finished())

	stored, err := entry.RunSettings()
	require.NoError(t, err)
	assert.Equal(t, settings, stored)

	summary := RunSummary{
		End:          start.Add(90 * time.Second),
		TotalEvents:  1800,
		DecodeErrors: 2,
		BytesRead:    1 << 20,
		Rate:         20,
		StopReason:   StopTargetEvents,
	}
	require.NoError(t, catalog.FinishRun(runID, summary))

	entry, err = catalog.GetRun(runID)
	require.NoError(t, err)
	assert.True(t, entry.Finished())
	assert.Equal(t, int64(1800), entry.TotalEvents)
	assert.Equal(t, int64(2), entry.DecodeErrors)
	assert.Equal(t, int64(1<<20), entry.BytesRead)
	assert.Equal(t, 20.0, entry.Rate)
	assert.Equal(t, string(StopTargetEvents), entry.StopReason)
}

func TestCatalogListRuns(t *testing.T) {
	catalog := newTestCatalog(t)
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	late, err := catalog.StartRun(DefaultRunSettings(), "late.h5", start.Add(time.Hour))
	require.NoError(t, err)
	early, err := catalog.StartRun(DefaultRunSettings(), "early.h5", start)
	require.NoError(t, err)

	runs, err := catalog.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, early, runs[0].RunID)
	assert.Equal(t, late, runs[1].RunID)
}

func TestCatalogUnknownRun(t *testing.T) {
	catalog := newTestCatalog(t)

	_, err := catalog.GetRun("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	err = catalog.FinishRun("missing", RunSummary{End: time.Now()})
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestConnectToDatabaseUnsupportedDriver(t *testing.T) {
	_, err := ConnectToDatabase("postgres", "host=localhost")
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "db_driver", configErr.Field)
}
