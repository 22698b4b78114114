package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"stagegate/domain/core"
	"stagegate/domain/stage"
	"stagegate/domain/transition"
)

// ReportWriter exports an entity's transition history and statistics to
// an xlsx workbook for the back office.
type ReportWriter struct {
	catalog *stage.Catalog
}

// NewReportWriter creates a report writer bound to one domain catalog
// so stage ids render as display names.
func NewReportWriter(catalog *stage.Catalog) *ReportWriter {
	return &ReportWriter{catalog: catalog}
}

var historyHeaders = []string{
	"Recorded At", "Event", "From Stage", "To Stage",
	"Target Date", "Tone", "Note", "Changed By", "Acknowledged",
}

// WriteHistoryReport writes one sheet of history rows and one sheet of
// statistics for the given entity.
func (w *ReportWriter) WriteHistoryReport(path string, entityID core.EntityID, records []transition.HistoryRecord, statistics transition.Statistics) error {
	f := excelize.NewFile()

	sheet := "History"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	// Header row
	for i, h := range historyHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	// Data rows
	for r, rec := range records {
		values := []interface{}{
			rec.RecordedAt.Time().Format(time.RFC3339),
			string(rec.Type),
			w.catalog.NameOf(rec.FromStageID),
			w.catalog.NameOf(rec.ToStageID),
			formatDate(rec.TargetDate),
			string(rec.Tone),
			rec.Note,
			rec.ChangedBy,
			rec.AlertAcknowledged,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	if err := w.writeStatisticsSheet(f, entityID, statistics); err != nil {
		return err
	}

	return f.SaveAs(path)
}

func (w *ReportWriter) writeStatisticsSheet(f *excelize.File, entityID core.EntityID, s transition.Statistics) error {
	sheet := "Statistics"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Entity", entityID.String()},
		{"Total Changes", s.TotalChanges},
		{"Days In Current Stage", s.CurrentStageDays},
		{"Average Days Per Status", s.AverageDaysPerStatus},
		{"Median Days Per Status", s.MedianDaysPerStatus},
		{"Longest Stay (Days)", s.LongestStayDays},
		{"Status Start Date", formatDate(s.StatusStartDate)},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func formatDate(t *core.Timestamp) string {
	if t == nil {
		return ""
	}
	return t.Time().Format("2006-01-02")
}

// ReportFilename builds the conventional export filename for an entity.
func ReportFilename(entityID core.EntityID) string {
	return fmt.Sprintf("transitions_%s.xlsx", entityID.String())
}
