package calendar

import (
	"errors"
	"strings"
	"time"

	"github.com/atinyakov/hacklearn/internal/models"
)

// ErrNothingToExport is returned when the index holds no entries.
var ErrNothingToExport = errors.New("no scheduled machines to export")

var csvHeader = []string{"Fecha", "Máquina", "Dificultad", "Sistema Operativo"}

const unknownField = "Unknown"

// ExportRow is one line of the schedule export.
type ExportRow struct {
	Date       string
	Machine    string
	Difficulty string
	OS         string
}

func exportRow(date string, e models.ScheduledEntry) ExportRow {
	row := ExportRow{Date: date, Machine: unknownField, Difficulty: unknownField, OS: unknownField}
	if m := e.Machine; m != nil {
		if m.Name != "" {
			row.Machine = m.Name
		}
		if m.Difficulty != "" {
			row.Difficulty = string(m.Difficulty)
		}
		if m.OS != "" {
			row.OS = m.OS
		}
	}
	return row
}

// ExportRows returns one row per loaded entry, ordered by date.
func (s *Scheduler) ExportRows() []ExportRow {
	sessions := s.snapshot()
	rows := make([]ExportRow, 0, len(sessions))
	for _, sess := range sessions {
		rows = append(rows, exportRow(sess.Date, sess.Entry))
	}
	return rows
}

// ExportCSV renders the loaded entries as CSV.
func (s *Scheduler) ExportCSV() (string, error) {
	rows := s.ExportRows()
	if len(rows) == 0 {
		return "", ErrNothingToExport
	}
	return FormatCSV(rows), nil
}

// FormatCSV renders rows under the Fecha,Máquina,Dificultad,Sistema
// Operativo header. The machine name is always quoted. Lines are joined
// with \n and there is no trailing newline.
func FormatCSV(rows []ExportRow) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(csvHeader, ","))
	for _, r := range rows {
		lines = append(lines, strings.Join([]string{
			r.Date,
			quote(r.Machine),
			r.Difficulty,
			r.OS,
		}, ","))
	}
	return strings.Join(lines, "\n")
}

func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// ExportFileName names the export file produced at now.
func ExportFileName(now time.Time) string {
	return "hacklearn-schedule-" + now.UTC().Format(time.DateOnly) + ".csv"
}
