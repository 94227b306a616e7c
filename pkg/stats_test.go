package fadc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStatisticsTriggerTypes(t *testing.T) {
	stats := NewRunStatistics()
	for i := 0; i < 3; i++ {
		stats.Record(0, 1)
	}
	stats.Record(7, 1)
	stats.Record(2, 1)
	stats.Record(2, 1)

	summary := stats.Summary()
	require.Equal(t, int64(6), summary.TotalEvents)
	require.Equal(t, int64(6), stats.Total())
	require.Len(t, summary.TriggerTypes, 3)

	assert.Equal(t, TriggerTypeCount{Code: 0, Name: "TCB trigger", Count: 3, Percentage: 50}, summary.TriggerTypes[0])
	assert.Equal(t, "Software trigger", summary.TriggerTypes[1].Name)
	assert.Equal(t, "Unknown", summary.TriggerTypes[2].Name)

	var count int64
	var percentage float64
	for _, row := range summary.TriggerTypes {
		count += row.Count
		percentage += row.Percentage
	}
	assert.Equal(t, summary.TotalEvents, count)
	assert.InDelta(t, 100.0, percentage, 1e-9)
}

func TestTriggerTypeName(t *testing.T) {
	assert.Equal(t, "TCB trigger", TriggerTypeName(0))
	assert.Equal(t, "Pedestal trigger", TriggerTypeName(1))
	assert.Equal(t, "Software trigger", TriggerTypeName(2))
	assert.Equal(t, "External trigger", TriggerTypeName(3))
	assert.Equal(t, "Unknown", TriggerTypeName(4))
	assert.Equal(t, "Unknown", TriggerTypeName(15))
}

func TestRunStatisticsPatternTieBreak(t *testing.T) {
	stats := NewRunStatistics()
	for _, pattern := range []uint32{5, 9, 5, 2, 2, 5, 2} {
		stats.Record(0, pattern)
	}

	summary := stats.Summary()
	require.Len(t, summary.TopPatterns, 3)
	assert.Equal(t, uint32(2), summary.TopPatterns[0].Pattern)
	assert.Equal(t, uint32(5), summary.TopPatterns[1].Pattern)
	assert.Equal(t, uint32(9), summary.TopPatterns[2].Pattern)
	assert.Equal(t, int64(3), summary.TopPatterns[0].Count)
	assert.InDelta(t, 100.0/7, summary.TopPatterns[2].Percentage, 1e-9)
	assert.Zero(t, summary.OtherPatterns)
}

func TestRunStatisticsTopPatterns(t *testing.T) {
	stats := NewRunStatistics()
	// pattern i is seen i+1 times
	for pattern := uint32(0); pattern < 12; pattern++ {
		for n := uint32(0); n <= pattern; n++ {
			stats.Record(0, pattern)
		}
	}

	summary := stats.Summary()
	require.Len(t, summary.TopPatterns, TopPatterns)
	assert.Equal(t, 2, summary.OtherPatterns)
	for i, row := range summary.TopPatterns {
		assert.Equal(t, uint32(11-i), row.Pattern)
		assert.Equal(t, int64(12-i), row.Count)
	}
}

func TestRunStatisticsEmpty(t *testing.T) {
	summary := NewRunStatistics().Summary()
	assert.Zero(t, summary.TotalEvents)
	assert.Empty(t, summary.TriggerTypes)
	assert.Empty(t, summary.TopPatterns)
	assert.Zero(t, summary.OtherPatterns)
}

func TestRunSummaryLogReport(t *testing.T) {
	stats := NewRunStatistics()
	for pattern := uint32(0); pattern < 11; pattern++ {
		stats.Record(1, pattern)
	}
	summary := stats.Summary()
	summary.StopReason = StopRequested

	l := &recordingLogger{}
	summary.LogReport(l)
	assert.Contains(t, l.infos, "[summary] Stop reason: stopped by request")
	assert.Contains(t, l.infos, "[summary] ... and 1 other patterns.")
	assert.Contains(t, l.infos, "[summary]   - Pedestal trigger  :       11 times (100.00%)")
}
