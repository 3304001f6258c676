package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edulog/workload-api/internal/models"
	"github.com/edulog/workload-api/pkg/export"
	"github.com/edulog/workload-api/pkg/storage"
)

type rangeActivityStore interface {
	ListRange(ctx context.Context, instructorID string, from, to time.Time) ([]models.ActivityRecord, error)
}

type instructorDirectory interface {
	ListInstructors(ctx context.Context) ([]models.User, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Format       models.ReportFormat
}

// ExportService aggregates activity rows into report datasets and persists
// the rendered files.
type ExportService struct {
	activities rangeActivityStore
	directory  instructorDirectory
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(activities rangeActivityStore, directory instructorDirectory, store fileStorage, signer *storage.SignedURLSigner, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		activities: activities,
		directory:  directory,
		storage:    store,
		csv:        csv,
		pdf:        pdf,
		signer:     signer,
		logger:     logger,
	}
}

// Generate builds the dataset for the job's report type and stores the
// rendered file, returning its relative path.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}

	records, err := s.activities.ListRange(ctx, job.InstructorScope, job.StartDate, job.EndDate)
	if err != nil {
		return nil, fmt.Errorf("load activity range: %w", err)
	}
	names := s.instructorNames(ctx)

	var (
		dataset export.Dataset
		title   string
	)
	switch job.Type {
	case models.ReportActivitySummary:
		dataset = buildActivitySummary(records, names)
		title = "Activity Summary"
	case models.ReportPerformanceAnalysis:
		dataset = buildPerformanceAnalysis(records, names)
		title = "Performance Analysis"
	default:
		return nil, fmt.Errorf("unsupported report type %s", job.Type)
	}

	var payload []byte
	switch job.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := buildReportFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}
	return &ExportResult{RelativePath: relPath, Format: job.Format}, nil
}

// SignedToken issues a download token for a stored artifact.
func (s *ExportService) SignedToken(jobID, relPath string) (string, time.Time, error) {
	return s.signer.Generate(jobID, relPath)
}

// ParseToken validates a download token.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle on a stored artifact.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored artifact.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup purges artifacts older than the TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) instructorNames(ctx context.Context) map[string]string {
	names := map[string]string{}
	if s.directory == nil {
		return names
	}
	instructors, err := s.directory.ListInstructors(ctx)
	if err != nil {
		s.logger.Warn("failed to resolve instructor names", zap.Error(err))
		return names
	}
	for _, u := range instructors {
		names[u.ID] = u.FullName
	}
	return names
}

// buildActivitySummary groups records by instructor, course and type,
// reporting record counts and summed units (replies, marked items).
func buildActivitySummary(records []models.ActivityRecord, names map[string]string) export.Dataset {
	type key struct {
		instructor string
		course     string
		activity   models.ActivityType
	}
	counts := map[key]int{}
	units := map[key]int{}
	order := make([]key, 0)

	for i := range records {
		record := &records[i]
		k := key{instructor: record.InstructorID, course: record.CourseID, activity: record.Type}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
		units[k] += unitCount(record)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].instructor != order[j].instructor {
			return order[i].instructor < order[j].instructor
		}
		if order[i].course != order[j].course {
			return order[i].course < order[j].course
		}
		return order[i].activity < order[j].activity
	})

	headers := []string{"Instructor", "Course", "Activity Type", "Records", "Units"}
	rows := make([]map[string]string, 0, len(order))
	for _, k := range order {
		rows = append(rows, map[string]string{
			"Instructor":    displayName(names, k.instructor),
			"Course":        k.course,
			"Activity Type": ActivityLabel(k.activity),
			"Records":       strconv.Itoa(counts[k]),
			"Units":         strconv.Itoa(units[k]),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

// buildPerformanceAnalysis reports per-instructor totals over the range.
func buildPerformanceAnalysis(records []models.ActivityRecord, names map[string]string) export.Dataset {
	type stats struct {
		total      int
		units      int
		activeDays map[string]struct{}
		byType     map[models.ActivityType]int
	}
	perInstructor := map[string]*stats{}
	order := make([]string, 0)

	for i := range records {
		record := &records[i]
		st, seen := perInstructor[record.InstructorID]
		if !seen {
			st = &stats{activeDays: map[string]struct{}{}, byType: map[models.ActivityType]int{}}
			perInstructor[record.InstructorID] = st
			order = append(order, record.InstructorID)
		}
		st.total++
		st.units += unitCount(record)
		st.activeDays[record.LoggedAt.UTC().Format("2006-01-02")] = struct{}{}
		st.byType[record.Type]++
	}
	sort.Strings(order)

	headers := []string{"Instructor", "Total Activities", "Units Logged", "Active Days", "Top Activity Type"}
	rows := make([]map[string]string, 0, len(order))
	for _, instructor := range order {
		st := perInstructor[instructor]
		rows = append(rows, map[string]string{
			"Instructor":        displayName(names, instructor),
			"Total Activities":  strconv.Itoa(st.total),
			"Units Logged":      strconv.Itoa(st.units),
			"Active Days":       strconv.Itoa(len(st.activeDays)),
			"Top Activity Type": topActivityType(st.byType),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

// unitCount extracts the countable measure of a record: replies posted or
// items marked. Types without a count contribute a single unit.
func unitCount(record *models.ActivityRecord) int {
	if n := intOrZero(record.Details, "number_of_replies"); n > 0 {
		return n
	}
	if n := intOrZero(record.Details, "number_marked"); n > 0 {
		return n
	}
	return 1
}

func topActivityType(byType map[models.ActivityType]int) string {
	best := ""
	bestCount := -1
	types := make([]models.ActivityType, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		if byType[t] > bestCount {
			best = ActivityLabel(t)
			bestCount = byType[t]
		}
	}
	if best == "" {
		return "N/A"
	}
	return best
}

func displayName(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return id
}

func buildReportFilename(job *models.ReportJob) string {
	return fmt.Sprintf("%s_%s_%s_%s.%s",
		strings.ToLower(string(job.Type)),
		job.StartDate.Format("20060102"),
		job.EndDate.Format("20060102"),
		job.ID,
		job.Format,
	)
}
