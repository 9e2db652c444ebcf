// Package export renders the matches of a job post as a spreadsheet.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/xuri/excelize/v2"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	matchesSheet = "Matches"
	skillsSheet  = "Skill Breakdown"
)

var matchHeaders = []string{
	"Rank", "Candidate", "Email", "Phone", "Score", "Status", "Feedback",
	"Seniority Match", "Email Sent", "Reasoning",
}

// FileName returns the download name for the export of post.
func FileName(post *models.JobPost, now time.Time) string {
	title := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, post.Title)
	return fmt.Sprintf("matches_%s_%s.xlsx", title, now.Format("20060102"))
}

// WriteMatches writes an xlsx workbook with one row per match, in the
// given order, and a second sheet with the per-skill breakdown.
func WriteMatches(w io.Writer, post *models.JobPost, matches []models.Match) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", matchesSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(skillsSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	if err := writeMatchesSheet(f, headerStyle, post, matches); err != nil {
		return fmt.Errorf("matches sheet: %w", err)
	}
	if err := writeSkillsSheet(f, headerStyle, matches); err != nil {
		return fmt.Errorf("skills sheet: %w", err)
	}

	_, err = f.WriteTo(w)
	return err
}

func writeMatchesSheet(f *excelize.File, headerStyle int, post *models.JobPost, matches []models.Match) error {
	if err := f.SetCellValue(matchesSheet, "A1", post.Title); err != nil {
		return err
	}
	if err := f.SetRowStyle(matchesSheet, 3, 3, headerStyle); err != nil {
		return err
	}
	if err := setRow(f, matchesSheet, 3, toRow(matchHeaders)); err != nil {
		return err
	}

	for i, m := range matches {
		md, _ := m.MatchMetadata()
		var name, email, phone string
		if m.Candidate != nil {
			name, email, phone = m.Candidate.Name, m.Candidate.Email, m.Candidate.Phone
		}
		row := []interface{}{
			i + 1, name, email, phone, m.Score, string(m.Status), feedbackLabel(m.Feedback),
			md.SeniorityMatch, m.EmailSent, m.Reasoning,
		}
		if err := setRow(f, matchesSheet, i+4, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(matchesSheet, "B", "C", 28); err != nil {
		return err
	}
	return f.SetColWidth(matchesSheet, "J", "J", 80)
}

func writeSkillsSheet(f *excelize.File, headerStyle int, matches []models.Match) error {
	if err := f.SetRowStyle(skillsSheet, 1, 1, headerStyle); err != nil {
		return err
	}
	header := []interface{}{"Candidate", "Skill", "Required Level", "Candidate Level", "Match"}
	if err := setRow(f, skillsSheet, 1, header); err != nil {
		return err
	}

	row := 2
	for _, m := range matches {
		md, err := m.MatchMetadata()
		if err != nil {
			continue
		}
		name := ""
		if m.Candidate != nil {
			name = m.Candidate.Name
		}
		for _, sm := range md.SkillMatches {
			if err := setRow(f, skillsSheet, row, []interface{}{name, sm.Skill, sm.RequiredLevel, sm.CandidateLevel, sm.Match}); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

func feedbackLabel(v int) string {
	switch {
	case v > 0:
		return "positive"
	case v < 0:
		return "negative"
	}
	return ""
}
