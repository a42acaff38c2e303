package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/survey"
	"github.com/xuri/excelize/v2"
)

const exportTimeLayout = "2006-01-02 15:04:05"

// ExportService renders session results and the submission archive as
// spreadsheets.
type ExportService interface {
	ExportSessionToExcel(ctx context.Context, sessionID string) ([]byte, error)
	ExportSubmissionsToExcel(ctx context.Context, filters models.SubmissionFilters) ([]byte, error)
	ExportSubmissionsToCSV(ctx context.Context, filters models.SubmissionFilters) ([]byte, error)
}

type exportService struct {
	sessions    SessionService
	submissions SubmissionService
	logger      *slog.Logger
}

func NewExportService(sessions SessionService, submissions SubmissionService, logger *slog.Logger) ExportService {
	return &exportService{
		sessions:    sessions,
		submissions: submissions,
		logger:      logger,
	}
}

var submissionHeaders = []string{
	"Submission ID", "Source", "Session ID", "Submitted At", "Nickname", "Age", "Gender",
	"Country", "University", "Faculty", "Major", "Overall Score", "Delivered", "Status Code", "Delivery Error",
}

// ===== SESSION EXPORT =====

func (s *exportService) ExportSessionToExcel(ctx context.Context, sessionID string) ([]byte, error) {
	report, err := s.sessions.Report(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	// Summary sheet replaces the default one
	summary := "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	info := report.PersonalInfo
	details := [][]interface{}{
		{"Session ID", report.ID},
		{"Generated At", report.GeneratedAt.Format(exportTimeLayout)},
		{"Nickname", info.Nickname},
		{"Age", info.Age},
		{"Gender", info.Gender},
		{"Country", info.Country},
		{"University", info.University},
		{"Faculty", info.Faculty},
		{"Major", info.Major},
		{"Overall Score", report.Result.Overall},
		{"Normalized Score", report.Result.NormalizedOverall()},
		{"Questions", report.Result.QuestionCount},
		{"Delivered", report.Delivered},
	}
	for i, row := range details {
		if err := writeRow(f, summary, i+1, row); err != nil {
			return nil, err
		}
	}

	// Category table below the details
	start := len(details) + 2
	if err := writeRow(f, summary, start, []interface{}{"Category", "Answered", "Questions", "Sum", "Average", "Complete"}); err != nil {
		return nil, err
	}
	progress := make(map[string]survey.CategoryProgress, len(report.Progress))
	for _, p := range report.Progress {
		progress[p.Key] = p
	}
	for i, cs := range report.Result.Categories {
		p := progress[cs.Category]
		complete := "no"
		if p.Complete() {
			complete = "yes"
		}
		row := []interface{}{cs.Category, p.Answered, p.Total, cs.Sum, cs.Average, complete}
		if err := writeRow(f, summary, start+i+1, row); err != nil {
			return nil, err
		}
	}

	// Answers sheet
	answers := "Answers"
	if _, err := f.NewSheet(answers); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := writeRow(f, answers, 1, []interface{}{"Category", "Question ID", "Question", "Answer"}); err != nil {
		return nil, err
	}
	for i, r := range report.Rows {
		var value interface{} = ""
		switch {
		case r.Answer == nil:
			value = "unanswered"
		case r.Answer.IsNotRelevant():
			value = "not relevant"
		default:
			value, _ = r.Answer.Value()
		}
		if err := writeRow(f, answers, i+2, []interface{}{r.Category, r.QuestionID, r.Text, value}); err != nil {
			return nil, err
		}
	}

	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported session", "session_id", sessionID, "rows", len(report.Rows))
	return buf.Bytes(), nil
}

// ===== ARCHIVE EXPORT =====

func (s *exportService) ExportSubmissionsToExcel(ctx context.Context, filters models.SubmissionFilters) ([]byte, error) {
	records, _, err := s.submissions.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Submissions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to prepare workbook: %w", err)
	}

	headers := make([]interface{}, len(submissionHeaders))
	for i, h := range submissionHeaders {
		headers[i] = h
	}
	if err := writeRow(f, sheetName, 1, headers); err != nil {
		return nil, err
	}

	for rowIndex, record := range records {
		if err := writeRow(f, sheetName, rowIndex+2, submissionRow(record)); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported submissions", "rows", len(records), "format", "xlsx")
	return buf.Bytes(), nil
}

func (s *exportService) ExportSubmissionsToCSV(ctx context.Context, filters models.SubmissionFilters) ([]byte, error) {
	records, _, err := s.submissions.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(submissionHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, record := range records {
		row := submissionRow(record)
		fields := make([]string, len(row))
		for i, v := range row {
			fields[i] = csvField(v)
		}
		if err := writer.Write(fields); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	s.logger.Info("Exported submissions", "rows", len(records), "format", "csv")
	return []byte(buf.String()), nil
}

// ===== HELPERS =====

func submissionRow(r *models.SubmissionRecord) []interface{} {
	sessionID := ""
	if r.SessionID != nil {
		sessionID = *r.SessionID
	}
	return []interface{}{
		r.ID,
		string(r.Source),
		sessionID,
		r.CreatedAt.Format(exportTimeLayout),
		r.Nickname,
		r.Age,
		r.Gender,
		r.Country,
		r.University,
		r.Faculty,
		r.Major,
		r.OverallScore,
		r.Delivered,
		r.SinkStatusCode,
		r.DeliveryError,
	}
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to address cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	return nil
}

func csvField(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
