package transition

import (
	"testing"
	"time"

	"stagegate/domain/core"
)

func recordAt(at time.Time) HistoryRecord {
	return HistoryRecord{
		ID:         core.RecordID(core.NewID()),
		EntityID:   "e1",
		Type:       EventProgress,
		RecordedAt: core.NewTimestamp(at),
	}
}

func TestCalculateStatisticsEmptyHistory(t *testing.T) {
	s := CalculateStatistics(nil, testNow)
	if s.TotalChanges != 0 || s.CurrentStageDays != 0 || s.StatusStartDate != nil {
		t.Fatalf("empty history must yield the zero value, got %+v", s)
	}
}

func TestCalculateStatisticsSingleRecord(t *testing.T) {
	history := []HistoryRecord{recordAt(testNow.AddDate(0, 0, -9))}

	s := CalculateStatistics(history, testNow)
	if s.TotalChanges != 0 {
		t.Fatalf("a lone creation record is not a change, got %d", s.TotalChanges)
	}
	if s.CurrentStageDays != 9 {
		t.Fatalf("current stage days = %d, want 9", s.CurrentStageDays)
	}
	if s.AverageDaysPerStatus != 0 || s.LongestStayDays != 0 {
		t.Fatal("one record has no gaps to measure")
	}
	if s.StatusStartDate == nil {
		t.Fatal("status start date should be the latest record")
	}
}

func TestCalculateStatisticsGaps(t *testing.T) {
	// Most recent first: gaps of 4, 10 and 2 days.
	history := []HistoryRecord{
		recordAt(testNow.AddDate(0, 0, -3)),
		recordAt(testNow.AddDate(0, 0, -7)),
		recordAt(testNow.AddDate(0, 0, -17)),
		recordAt(testNow.AddDate(0, 0, -19)),
	}

	s := CalculateStatistics(history, testNow)
	if s.TotalChanges != 3 {
		t.Fatalf("total changes = %d, want 3", s.TotalChanges)
	}
	if s.CurrentStageDays != 3 {
		t.Fatalf("current stage days = %d, want 3", s.CurrentStageDays)
	}
	// Mean of 4,10,2 is 5.33, rounded to 5. Median is 4. Max is 10.
	if s.AverageDaysPerStatus != 5 {
		t.Fatalf("average = %d, want 5", s.AverageDaysPerStatus)
	}
	if s.MedianDaysPerStatus != 4 {
		t.Fatalf("median = %d, want 4", s.MedianDaysPerStatus)
	}
	if s.LongestStayDays != 10 {
		t.Fatalf("longest stay = %d, want 10", s.LongestStayDays)
	}
}
