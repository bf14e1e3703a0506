// Package export renders quizzes and time entries as .xlsx workbooks.
package export

import (
	"fmt"
	"time"

	"promptdesk-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	QuizSheet = "Quiz"
	TimeSheet = "Time entries"
)

// newSheet creates a workbook whose only sheet is name, with a bold,
// frozen header row.
func newSheet(name string, header []interface{}) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", name); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(name, "A1", last, bold); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetPanes(name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return nil
}

func finish(f *excelize.File) ([]byte, error) {
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// QuizWorkbook lays out one question per row with up to four options.
func QuizWorkbook(title string, questions []models.Question) ([]byte, error) {
	f, err := newSheet(QuizSheet, []interface{}{"#", "Question", "Option A", "Option B", "Option C", "Option D", "Answer", "Explanation"})
	if err != nil {
		return nil, err
	}
	rows := make([][]interface{}, 0, len(questions))
	for i, q := range questions {
		row := []interface{}{i + 1, q.QuestionText}
		for j := 0; j < 4; j++ {
			opt := ""
			if j < len(q.Options) {
				opt = q.Options[j]
			}
			row = append(row, opt)
		}
		row = append(row, q.CorrectAnswer, q.Explanation)
		rows = append(rows, row)
	}
	if err := writeRows(f, QuizSheet, rows); err != nil {
		f.Close()
		return nil, err
	}
	if title != "" {
		if err := f.SetDocProps(&excelize.DocProperties{Title: title}); err != nil {
			f.Close()
			return nil, err
		}
	}
	_ = f.SetColWidth(QuizSheet, "B", "B", 60)
	_ = f.SetColWidth(QuizSheet, "C", "G", 24)
	_ = f.SetColWidth(QuizSheet, "H", "H", 60)
	return finish(f)
}

// TimeEntriesWorkbook lists entries with start, end and duration in hours.
// Running entries have an empty end.
func TimeEntriesWorkbook(entries []models.TimeEntry, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	f, err := newSheet(TimeSheet, []interface{}{"Project", "Task", "Started", "Ended", "Hours"})
	if err != nil {
		return nil, err
	}
	const layout = "2006-01-02 15:04"
	rows := make([][]interface{}, 0, len(entries))
	var total int64
	for _, e := range entries {
		ended := ""
		if e.EndedAt != nil {
			ended = e.EndedAt.In(loc).Format(layout)
		}
		total += e.DurationSeconds
		rows = append(rows, []interface{}{e.Project, e.Task, e.StartedAt.In(loc).Format(layout), ended, hours(e.DurationSeconds)})
	}
	rows = append(rows, []interface{}{"Total", "", "", "", hours(total)})
	if err := writeRows(f, TimeSheet, rows); err != nil {
		f.Close()
		return nil, err
	}
	_ = f.SetColWidth(TimeSheet, "A", "B", 30)
	_ = f.SetColWidth(TimeSheet, "C", "D", 18)
	return finish(f)
}

func hours(seconds int64) float64 {
	return float64(seconds*100/3600) / 100
}
