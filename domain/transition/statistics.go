package transition

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"stagegate/domain/core"
)

// Statistics are the audit/display metrics derived from an entity's
// history. Day counts are whole calendar days.
type Statistics struct {
	TotalChanges         int             `json:"total_changes"`
	CurrentStageDays     int             `json:"current_stage_days"`
	AverageDaysPerStatus int             `json:"average_days_per_status"`
	MedianDaysPerStatus  int             `json:"median_days_per_status"`
	LongestStayDays      int             `json:"longest_stay_days"`
	StatusStartDate      *core.Timestamp `json:"status_start_date,omitempty"`
}

// CalculateStatistics derives metrics from pre-filtered history rows
// (non-voided, no reason_updated rows, most recent first). With no
// history every numeric field is zero and the start date is nil; a
// single record has no gap to measure.
func CalculateStatistics(history []HistoryRecord, now time.Time) Statistics {
	if len(history) == 0 {
		return Statistics{}
	}

	latest := history[0].RecordedAt
	result := Statistics{
		TotalChanges:     len(history) - 1, // the initial record is creation, not a change
		CurrentStageDays: core.DaysBetween(latest, core.NewTimestamp(now)),
		StatusStartDate:  &latest,
	}

	if len(history) < 2 {
		return result
	}

	gaps := make([]float64, 0, len(history)-1)
	for i := 0; i < len(history)-1; i++ {
		gap := core.DaysBetween(history[i+1].RecordedAt, history[i].RecordedAt)
		gaps = append(gaps, float64(gap))
	}

	if mean, err := stats.Mean(gaps); err == nil {
		result.AverageDaysPerStatus = int(math.Round(mean))
	}
	if median, err := stats.Median(gaps); err == nil {
		result.MedianDaysPerStatus = int(math.Round(median))
	}
	if max, err := stats.Max(gaps); err == nil {
		result.LongestStayDays = int(max)
	}

	return result
}
