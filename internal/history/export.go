package history

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Decisions"

var headers = []string{"Decided At", "Session", "Application", "Candidate", "Role", "Selected", "Experience", "Feedback", "Meeting ID", "Join URL"}

// ExportXLSX writes the records to an Excel workbook at path.
func ExportXLSX(records *Records, path string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return "", err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return "", err
	}

	selectedStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
	})
	if err != nil {
		return "", err
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return "", err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return "", err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return "", err
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 22); err != nil {
		return "", err
	}
	if err := f.SetColWidth(sheetName, "D", "E", 28); err != nil {
		return "", err
	}
	if err := f.SetColWidth(sheetName, "H", "H", 60); err != nil {
		return "", err
	}

	if records != nil {
		for i, r := range records.Items {
			row := i + 2
			values := []any{
				r.DecidedAt.Format(time.RFC3339),
				r.SessionID,
				r.ApplicationID,
				r.Email,
				r.Role,
				yesNo(r.Selected),
				r.ExperienceLevel,
				r.Feedback,
				meetingID(r.MeetingID),
				r.JoinURL,
			}

			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return "", err
			}
			if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
				return "", fmt.Errorf("write row %d: %w", row, err)
			}

			if r.Selected {
				last, _ := excelize.CoordinatesToCellName(len(headers), row)
				if err := f.SetCellStyle(sheetName, cell, last, selectedStyle); err != nil {
					return "", err
				}
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	return path, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func meetingID(id int64) string {
	if id == 0 {
		return ""
	}
	return fmt.Sprintf("%d", id)
}
