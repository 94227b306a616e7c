package fadc

import (
	"fmt"
	"time"

	"golang.org/x/exp/slices"
)

const TopPatterns = 10

type TriggerTypeCount struct {
	Code       uint8
	Name       string
	Count      int64
	Percentage float64
}

type PatternCount struct {
	Pattern    uint32
	Count      int64
	Percentage float64
}

type StopReason string

const (
	StopTargetEvents StopReason = "event target reached"
	StopDuration     StopReason = "duration reached"
	StopRequested    StopReason = "stopped by request"
	StopError        StopReason = "stopped by error"
)

type RunSummary struct {
	Start        time.Time
	End          time.Time
	Elapsed      float64 // seconds
	Rate         float64 // Hz
	TotalEvents  int64
	DecodeErrors int64
	BytesRead    int64
	StopReason   StopReason
	TriggerTypes []TriggerTypeCount
	// Most frequent patterns first, at most TopPatterns entries.
	TopPatterns []PatternCount
	// Number of distinct patterns not listed in TopPatterns.
	OtherPatterns int
}

// RunStatistics counts trigger types and patterns of the decoded events. It
// is not safe for concurrent use.
type RunStatistics struct {
	typeCounts    map[uint8]int64
	patternCounts map[uint32]int64
	total         int64
}

func NewRunStatistics() *RunStatistics {
	return &RunStatistics{
		typeCounts:    make(map[uint8]int64),
		patternCounts: make(map[uint32]int64),
	}
}

func (s *RunStatistics) Record(triggerType uint8, triggerPattern uint32) {
	s.typeCounts[triggerType]++
	s.patternCounts[triggerPattern]++
	s.total++
}

func (s *RunStatistics) Total() int64 {
	return s.total
}

func TriggerTypeName(code uint8) string {
	switch code {
	case 0:
		return "TCB trigger"
	case 1:
		return "Pedestal trigger"
	case 2:
		return "Software trigger"
	case 3:
		return "External trigger"
	default:
		return "Unknown"
	}
}

func (s *RunStatistics) percentage(count int64) float64 {
	if s.total == 0 {
		return 0
	}
	return 100.0 * float64(count) / float64(s.total)
}

// Summary fills the statistics part of a RunSummary. Trigger types are listed
// by ascending code. Patterns are ranked by descending count; equal counts
// are ordered by ascending pattern value.
func (s *RunStatistics) Summary() RunSummary {
	summary := RunSummary{TotalEvents: s.total}

	types := make([]TriggerTypeCount, 0, len(s.typeCounts))
	for code, count := range s.typeCounts {
		types = append(types, TriggerTypeCount{
			Code:       code,
			Name:       TriggerTypeName(code),
			Count:      count,
			Percentage: s.percentage(count),
		})
	}
	slices.SortFunc(types, func(a, b TriggerTypeCount) int {
		return int(a.Code) - int(b.Code)
	})
	summary.TriggerTypes = types

	patterns := make([]PatternCount, 0, len(s.patternCounts))
	for pattern, count := range s.patternCounts {
		patterns = append(patterns, PatternCount{
			Pattern:    pattern,
			Count:      count,
			Percentage: s.percentage(count),
		})
	}
	slices.SortFunc(patterns, func(a, b PatternCount) int {
		switch {
		case a.Count != b.Count:
			if a.Count > b.Count {
				return -1
			}
			return 1
		case a.Pattern < b.Pattern:
			return -1
		case a.Pattern > b.Pattern:
			return 1
		}
		return 0
	})
	if len(patterns) > TopPatterns {
		summary.OtherPatterns = len(patterns) - TopPatterns
		patterns = patterns[:TopPatterns]
	}
	summary.TopPatterns = patterns
	return summary
}

// LogReport prints the end of run report.
func (r RunSummary) LogReport(l Logger) {
	l.Info("---- DAQ Summary ----", "summary")
	l.Info(fmt.Sprintf("DAQ finished at: %s", r.End.Format(time.DateTime)), "summary")
	l.Info(fmt.Sprintf("Stop reason: %s", r.StopReason), "summary")
	l.Info(fmt.Sprintf("Total elapsed time: %.2f seconds", r.Elapsed), "summary")
	l.Info(fmt.Sprintf("Total events collected: %d", r.TotalEvents), "summary")
	l.Info(fmt.Sprintf("Average trigger rate: %.2f Hz", r.Rate), "summary")
	l.Info(fmt.Sprintf("Bytes read: %d, decode failures: %d", r.BytesRead, r.DecodeErrors), "summary")

	l.Info("--- Trigger Type Statistics ---", "summary")
	for _, t := range r.TriggerTypes {
		l.Info(fmt.Sprintf("  - %-18s: %8d times (%.2f%%)", t.Name, t.Count, t.Percentage), "summary")
	}

	l.Info("--- Trigger Pattern Statistics ---", "summary")
	l.Info(fmt.Sprintf("Top %d most frequent trigger patterns:", TopPatterns), "summary")
	for _, p := range r.TopPatterns {
		l.Info(fmt.Sprintf("  - Pattern %5d (0x%04x): %d times (%.2f%%)", p.Pattern, p.Pattern, p.Count, p.Percentage), "summary")
	}
	if r.OtherPatterns > 0 {
		l.Info(fmt.Sprintf("... and %d other patterns.", r.OtherPatterns), "summary")
	}
}
