package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jmagsino/shs-registrar-api/internal/models"
	"github.com/jmagsino/shs-registrar-api/internal/repository"
	"github.com/jmagsino/shs-registrar-api/pkg/config"
	appErrors "github.com/jmagsino/shs-registrar-api/pkg/errors"
	"github.com/jmagsino/shs-registrar-api/pkg/export"
	"github.com/jmagsino/shs-registrar-api/pkg/storage"
)

type reportRepository interface {
	EnrollmentSummary(ctx context.Context, schoolYearID string) (*repository.EnrollmentSummary, error)
	PendingByType(ctx context.Context, schoolYearID string) (map[models.EnrollmentType]int, error)
}

type corLineReader interface {
	ListCORLines(ctx context.Context, enrollmentID string) ([]models.CORLine, error)
}

type rosterReader interface {
	Roster(ctx context.Context, sectionID string) ([]models.RosterEntry, error)
}

// SignedExport points a client at a rendered report artifact.
type SignedExport struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ReportService produces registrar dashboard aggregates, CSV exports and
// certificates of registration.
type ReportService struct {
	repo        reportRepository
	enrollments enrollmentRepository
	corLines    corLineReader
	roster      rosterReader

	cache    *redis.Client
	cacheTTL time.Duration
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	cor      *export.CORExporter
	store    *storage.LocalStorage
	signer   *storage.SignedURLSigner
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(
	repo reportRepository,
	enrollments enrollmentRepository,
	corLines corLineReader,
	roster rosterReader,
	cache *redis.Client,
	cfg config.ReportsConfig,
	corExporter *export.CORExporter,
	store *storage.LocalStorage,
	metrics *MetricsService,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.SummaryCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ReportService{
		repo:        repo,
		enrollments: enrollments,
		corLines:    corLines,
		roster:      roster,
		cache:       cache,
		cacheTTL:    ttl,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		cor:         corExporter,
		store:       store,
		signer:      storage.NewSignedURLSigner(cfg.SignedURLSecret, cfg.SignedURLTTL),
		metrics:     metrics,
		logger:      logger,
	}
}

// Summary returns the dashboard aggregates for a school year, cached briefly
// since the numbers feed a polling dashboard.
func (s *ReportService) Summary(ctx context.Context, schoolYearID string) (*repository.EnrollmentSummary, error) {
	cacheKey := "reports:summary:" + schoolYearID
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached repository.EnrollmentSummary
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	start := time.Now()
	summary, err := s.repo.EnrollmentSummary(ctx, schoolYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build enrollment summary")
	}
	s.metrics.ObserveDBQuery("report_summary", time.Since(start))

	if s.cache != nil {
		if raw, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("failed to cache enrollment summary", zap.Error(err))
			}
		}
	}
	return summary, nil
}

// PendingByType counts applications awaiting review, per enrollment type.
func (s *ReportService) PendingByType(ctx context.Context, schoolYearID string) (map[models.EnrollmentType]int, error) {
	start := time.Now()
	counts, err := s.repo.PendingByType(ctx, schoolYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending applications")
	}
	s.metrics.ObserveDBQuery("report_pending", time.Since(start))
	return counts, nil
}

// ExportSummary renders the by-section summary as CSV or PDF, stores it and
// returns a signed download link.
func (s *ReportService) ExportSummary(ctx context.Context, schoolYearID, format string) (*SignedExport, error) {
	summary, err := s.Summary(ctx, schoolYearID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Section", "Strand", "Grade", "Enrolled", "Capacity"},
	}
	for _, row := range summary.BySection {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Section":  row.SectionName,
			"Strand":   row.StrandCode,
			"Grade":    strconv.Itoa(row.GradeLevel),
			"Enrolled": strconv.Itoa(row.Enrolled),
			"Capacity": strconv.Itoa(row.Capacity),
		})
	}

	var payload []byte
	switch format {
	case "", "csv":
		format = "csv"
		payload, err = s.csv.Render(dataset)
	case "pdf":
		payload, err = s.pdf.Render(dataset, "Enrollment Summary")
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render summary export")
	}

	relPath := fmt.Sprintf("summary/%s-%d.%s", schoolYearID, time.Now().Unix(), format)
	if _, err := s.store.Save(relPath, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store summary export")
	}
	return s.sign(schoolYearID, relPath)
}

// ExportRoster renders a section roster as CSV, stores it and returns a
// signed download link.
func (s *ReportService) ExportRoster(ctx context.Context, sectionID string) (*SignedExport, error) {
	entries, err := s.roster.Roster(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section roster")
	}

	dataset := export.Dataset{
		Headers: []string{"LRN", "Name", "Registration No", "Status"},
	}
	for _, entry := range entries {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"LRN":             entry.StudentLRN,
			"Name":            entry.StudentName,
			"Registration No": orEmpty(entry.RegistrationNumber),
			"Status":          entry.Status,
		})
	}

	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster export")
	}

	relPath := fmt.Sprintf("roster/%s-%d.csv", sectionID, time.Now().Unix())
	if _, err := s.store.Save(relPath, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store roster export")
	}
	return s.sign(sectionID, relPath)
}

// COR assembles the certificate of registration for an enrolled student.
func (s *ReportService) COR(ctx context.Context, enrollmentID string) (*models.COR, error) {
	detail, err := s.enrollments.FindDetailByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if detail.Status != models.EnrollmentStatusEnrolled || detail.RegistrationNumber == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "certificate of registration requires an enrolled student")
	}

	lines, err := s.corLines.ListCORLines(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration lines")
	}

	cor := &models.COR{
		RegistrationNumber: *detail.RegistrationNumber,
		StudentName:        detail.StudentName,
		StudentLRN:         detail.StudentLRN,
		GradeLevel:         detail.GradeLevel,
		SectionName:        orEmpty(detail.SectionName),
		StrandCode:         orEmpty(detail.StrandCode),
		SchoolYear:         detail.SchoolYearName,
		Lines:              lines,
	}
	if detail.EnrolledAt != nil {
		cor.EnrolledAt = *detail.EnrolledAt
	}
	return cor, nil
}

// ExportCOR renders the COR as a PDF, stores it and returns a signed link.
func (s *ReportService) ExportCOR(ctx context.Context, enrollmentID string) (*SignedExport, error) {
	cor, err := s.COR(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	payload, err := s.cor.Render(*cor)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}

	relPath := fmt.Sprintf("cor/%s.pdf", cor.RegistrationNumber)
	if _, err := s.store.Save(relPath, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store certificate")
	}
	return s.sign(enrollmentID, relPath)
}

// OpenExport validates a signed token and opens the artifact behind it.
func (s *ReportService) OpenExport(token string) (string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")
	}
	return s.store.Path(relPath), nil
}

func (s *ReportService) sign(resourceID, relPath string) (*SignedExport, error) {
	url, expiresAt, err := s.signer.Generate(resourceID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return &SignedExport{URL: url, ExpiresAt: expiresAt}, nil
}

func orEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
