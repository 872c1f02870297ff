package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/NarimanMilanfar/exam-analysis-service/internal/cache"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/events"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/repositories"
)

// ImportExportService moves student responses in and analysis reports out
// as CSV or Excel files.
type ImportExportService interface {
	ImportResponsesFromFile(ctx context.Context, examID string, file io.Reader, filename string) (*ImportResult, error)
	ExportAnalysisToCSV(ctx context.Context, examID string, config models.AnalysisConfig) ([]byte, error)
	ExportAnalysisToExcel(ctx context.Context, examID string, config models.AnalysisConfig) ([]byte, error)
}

// ImportRowError describes one rejected row of an import file.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarizes an import run.
type ImportResult struct {
	TotalRows     int              `json:"total_rows"`
	ProcessedRows int              `json:"processed_rows"`
	SuccessCount  int              `json:"success_count"`
	ErrorCount    int              `json:"error_count"`
	Errors        []ImportRowError `json:"errors,omitempty"`
}

type importExportService struct {
	variantRepo  repositories.VariantRepository
	responseRepo repositories.ResponseRepository
	analysis     AnalysisService
	publisher    events.EventPublisher
	cache        cache.CacheService
	logger       *slog.Logger
}

func NewImportExportService(
	variantRepo repositories.VariantRepository,
	responseRepo repositories.ResponseRepository,
	analysisService AnalysisService,
	publisher events.EventPublisher,
	cacheService cache.CacheService,
	logger *slog.Logger,
) ImportExportService {
	return &importExportService{
		variantRepo:  variantRepo,
		responseRepo: responseRepo,
		analysis:     analysisService,
		publisher:    publisher,
		cache:        cacheService,
		logger:       logger,
	}
}

// ===== IMPORT OPERATIONS =====

// ImportResponsesFromFile dispatches on the file extension. The file needs
// a header row with "student_id" and "variant_code" columns; every other
// column is treated as a question id and its cell as that student's answer
// (variant-local letter or option text). Answers are graded against the
// stored variant on the spot.
func (s *importExportService) ImportResponsesFromFile(ctx context.Context, examID string, file io.Reader, filename string) (*ImportResult, error) {
	s.logger.Info("Starting response import", "exam_id", examID, "filename", filename)

	ext := strings.ToLower(filepath.Ext(filename))

	var rows [][]string
	var err error
	switch ext {
	case ".csv":
		rows, err = readCSVRows(file)
	case ".xlsx", ".xls":
		rows, err = readExcelRows(file)
	default:
		return nil, NewValidationError("file", "unsupported file format", ext)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, NewValidationError("file", "file must have a header row and at least one data row", len(rows))
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range []string{"student_id", "variant_code"} {
		if _, exists := headerMap[col]; !exists {
			return nil, NewValidationError("headers", fmt.Sprintf("missing required column: %s", col), col)
		}
	}

	result := &ImportResult{TotalRows: len(rows) - 1}
	keys := newVariantKeyCache(s.variantRepo)

	var records []*models.StudentResponseRecord
	for rowIndex, row := range rows[1:] {
		record, rowErr := s.parseResponseRow(ctx, examID, row, rows[0], headerMap, keys)
		if rowErr != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: rowIndex + 2, Message: rowErr.Error()})
			result.ErrorCount++
		} else {
			records = append(records, record)
			result.SuccessCount++
		}
		result.ProcessedRows++
	}

	if len(records) > 0 {
		if err := s.responseRepo.CreateBatch(ctx, records); err != nil {
			return nil, wrapRepoErr("failed to save responses", err)
		}
		if err := s.cache.DeletePattern(ctx, analysisCachePattern(examID)); err != nil {
			s.logger.Warn("Failed to invalidate analysis cache", "exam_id", examID, "error", err)
		}
	}

	event := events.NewEvent(events.EventResponsesImported, events.ResponsesImportedData{
		ExamID:        examID,
		ImportedCount: result.SuccessCount,
		SkippedCount:  result.ErrorCount,
		FileName:      filename,
	})
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish responses.imported event", "exam_id", examID, "error", err)
	}

	s.logger.Info("Response import completed",
		"exam_id", examID,
		"total_rows", result.TotalRows,
		"success_count", result.SuccessCount,
		"error_count", result.ErrorCount)

	return result, nil
}

func (s *importExportService) parseResponseRow(ctx context.Context, examID string, row, headers []string, headerMap map[string]int, keys *variantKeyCache) (*models.StudentResponseRecord, error) {
	cell := func(name string) string {
		idx, ok := headerMap[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	studentID := cell("student_id")
	if studentID == "" {
		return nil, fmt.Errorf("student_id is empty")
	}
	variantCode := cell("variant_code")
	if variantCode == "" {
		return nil, fmt.Errorf("variant_code is empty")
	}

	key, err := keys.get(ctx, variantCode)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, fmt.Errorf("unknown variant code %q", variantCode)
	}

	now := time.Now().UTC()
	response := models.StudentResponse{
		StudentID:   studentID,
		VariantCode: variantCode,
		CompletedAt: &now,
	}

	// Remaining columns are question ids; grade each answer against the
	// variant's answer key.
	for i, header := range headers {
		name := strings.ToLower(strings.TrimSpace(header))
		if name == "student_id" || name == "variant_code" || name == "" {
			continue
		}
		questionID := strings.TrimSpace(header)
		entry, known := key.byQuestion[questionID]
		if !known {
			continue
		}

		answer := ""
		if i < len(row) {
			answer = strings.TrimSpace(row[i])
		}
		correct := answer != "" && key.isCorrect(entry, answer)

		points := 0.0
		if correct {
			points = entry.points
		}
		response.Responses = append(response.Responses, models.QuestionResponse{
			QuestionID:    questionID,
			StudentAnswer: answer,
			IsCorrect:     correct,
			Points:        points,
			MaxPoints:     entry.points,
		})
		response.TotalScore += points
		response.MaxPossibleScore += entry.points
	}

	if len(response.Responses) == 0 {
		return nil, fmt.Errorf("no answer columns matched variant %q", variantCode)
	}

	encoded, err := json.Marshal(response.Responses)
	if err != nil {
		return nil, fmt.Errorf("failed to encode responses: %w", err)
	}

	return &models.StudentResponseRecord{
		ExamID:           examID,
		StudentID:        studentID,
		VariantCode:      variantCode,
		Responses:        datatypes.JSON(encoded),
		TotalScore:       response.TotalScore,
		MaxPossibleScore: response.MaxPossibleScore,
		CompletedAt:      response.CompletedAt,
	}, nil
}

// ===== EXPORT OPERATIONS =====

func (s *importExportService) ExportAnalysisToCSV(ctx context.Context, examID string, config models.AnalysisConfig) ([]byte, error) {
	result, err := s.analysis.AnalyzeExam(ctx, examID, config)
	if err != nil {
		return nil, err
	}

	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(analysisReportHeaders()); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, q := range result.Questions {
		if err := writer.Write(questionToReportRow(q)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return []byte(buf.String()), nil
}

func (s *importExportService) ExportAnalysisToExcel(ctx context.Context, examID string, config models.AnalysisConfig) ([]byte, error) {
	result, err := s.analysis.AnalyzeExam(ctx, examID, config)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "Item Analysis"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	for i, header := range analysisReportHeaders() {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}
	for rowIndex, q := range result.Questions {
		for colIndex, value := range questionToReportRow(q) {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	summarySheet := "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	writeSummarySheet(f, summarySheet, result)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	return buf.Bytes(), nil
}

func analysisReportHeaders() []string {
	return []string{
		"Question ID", "Question Text", "Type", "Sample Size", "Correct Count",
		"Difficulty Index", "Discrimination Index", "Point Biserial",
		"Test Used", "P-Value", "Significant", "Omitted Count",
	}
}

func questionToReportRow(q models.QuestionAnalysisResult) []string {
	testUsed, pValue, significant := "", "", ""
	if q.Significance != nil {
		testUsed = q.Significance.TestUsed
		pValue = fmt.Sprintf("%.4f", q.Significance.PValue)
		significant = fmt.Sprintf("%t", q.Significance.Significant)
	}
	omitted := ""
	if q.Distractors != nil {
		omitted = fmt.Sprintf("%d", q.Distractors.OmittedCount)
	}
	return []string{
		q.QuestionID,
		q.QuestionText,
		string(q.QuestionType),
		fmt.Sprintf("%d", q.SampleSize),
		fmt.Sprintf("%d", q.CorrectCount),
		fmt.Sprintf("%.4f", q.DifficultyIndex),
		fmt.Sprintf("%.4f", q.DiscriminationIndex),
		fmt.Sprintf("%.4f", q.PointBiserial),
		testUsed,
		pValue,
		significant,
		omitted,
	}
}

func writeSummarySheet(f *excelize.File, sheet string, result *models.BiPointAnalysisResult) {
	dist := result.Summary.ScoreDistribution
	rows := [][]interface{}{
		{"Exam ID", result.ExamID},
		{"Students Included", result.Metadata.IncludedResponses},
		{"Questions", result.Metadata.QuestionCount},
		{"Variants", result.Metadata.VariantCount},
		{"Mean Difficulty", result.Summary.MeanDifficulty},
		{"Mean Discrimination", result.Summary.MeanDiscrimination},
		{"Mean Point Biserial", result.Summary.MeanPointBiserial},
		{"Mean Score", dist.Mean},
		{"Median Score", dist.Median},
		{"Std Dev", dist.StdDev},
		{"Min", dist.Min},
		{"Max", dist.Max},
	}
	if alpha := result.Summary.CronbachAlpha; alpha != nil {
		rows = append(rows, []interface{}{"Cronbach's Alpha", alpha.Alpha})
	}
	for rowIndex, row := range rows {
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+1)
			f.SetCellValue(sheet, cell, value)
		}
	}
}

// ===== FILE READERS =====

func readCSVRows(reader io.Reader) ([][]string, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return rows, nil
}

func readExcelRows(reader io.Reader) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	f, err := excelize.OpenReader(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "Excel file has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	return rows, nil
}

// ===== VARIANT KEY CACHE =====

type answerKeyEntry struct {
	correct string
	points  float64
	options []string
}

type variantKey struct {
	byQuestion map[string]answerKeyEntry
}

// isCorrect accepts either the full option text or the variant-local letter
// of the correct option.
func (k *variantKey) isCorrect(entry answerKeyEntry, answer string) bool {
	if models.EqualAnswers(answer, entry.correct) {
		return true
	}
	if len(answer) == 1 {
		c := answer[0]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c >= 'A' && c < 'A'+byte(len(entry.options)) {
			return models.EqualAnswers(entry.options[c-'A'], entry.correct)
		}
	}
	return false
}

// variantKeyCache memoizes parsed answer keys per variant code for the
// duration of one import.
type variantKeyCache struct {
	repo repositories.VariantRepository
	keys map[string]*variantKey
}

func newVariantKeyCache(repo repositories.VariantRepository) *variantKeyCache {
	return &variantKeyCache{repo: repo, keys: make(map[string]*variantKey)}
}

func (c *variantKeyCache) get(ctx context.Context, code string) (*variantKey, error) {
	if key, ok := c.keys[code]; ok {
		return key, nil
	}

	record, err := c.repo.GetByVariantCode(ctx, code)
	if err != nil {
		return nil, wrapRepoErr("failed to load variant", err)
	}
	if record == nil {
		c.keys[code] = nil
		return nil, nil
	}

	variant, err := RecordToVariant(record)
	if err != nil {
		return nil, err
	}

	key := &variantKey{
		byQuestion: make(map[string]answerKeyEntry, len(variant.Questions)),
	}
	for _, q := range variant.Questions {
		key.byQuestion[q.ID] = answerKeyEntry{
			correct: q.CorrectAnswer,
			points:  q.Points,
			options: q.Options,
		}
	}
	c.keys[code] = key
	return key, nil
}
