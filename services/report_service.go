package services

import (
	"context"
	"io"
	"strings"

	"github.com/infieles/reportes/config"
	"github.com/infieles/reportes/db"
	errs "github.com/infieles/reportes/errors"
	"github.com/infieles/reportes/logger"
	"github.com/infieles/reportes/models"
	"github.com/infieles/reportes/storage"
)

// Upload is one file submitted with a report.
type Upload struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

type ReportService interface {
	CreateReport(ctx context.Context, report *models.Report, uploads []Upload) (*models.Report, error)
	GetReport(ctx context.Context, id uint) (*models.Report, error)
	ListReports(ctx context.Context, page, perPage int) (*models.ReportPage, error)
	UpdateReport(ctx context.Context, id uint, update models.ReportUpdate) (*models.Report, error)
	DeleteReport(ctx context.Context, id uint) error
}

type ReportManager struct {
	Config     *config.Config
	reportRepo db.ReportRepository
	files      storage.FileStore
	log        logger.LoggerService
}

func NewReportService(reportRepo db.ReportRepository, files storage.FileStore, conf *config.Config, log logger.LoggerService) *ReportManager {
	return &ReportManager{
		Config:     conf,
		reportRepo: reportRepo,
		files:      files,
		log:        log.Named("reports"),
	}
}

// CreateReport stores the report and its photos as one unit. Uploads with an
// empty name are ignored; uploads with a disallowed extension still count
// toward the limit but are skipped. If anything fails the rows are rolled
// back and the files already stored are removed.
func (s *ReportManager) CreateReport(ctx context.Context, report *models.Report, uploads []Upload) (*models.Report, error) {
	if !report.HasName() {
		return nil, errs.ErrMissingName
	}

	submitted := make([]Upload, 0, len(uploads))
	for _, u := range uploads {
		if strings.TrimSpace(u.Filename) != "" {
			submitted = append(submitted, u)
		}
	}
	if len(submitted) > models.MaxEvidencePerReport {
		return nil, errs.ErrTooManyFiles
	}

	var saved []string
	err := s.reportRepo.Transaction(ctx, func(repo db.ReportRepository) error {
		if err := repo.Create(ctx, report); err != nil {
			return err
		}
		for _, u := range submitted {
			if !s.files.IsAllowed(u.Filename) {
				s.log.Debug("skipping %q: extension not allowed", u.Filename)
				continue
			}
			ref, err := s.store(ctx, u)
			if err != nil {
				return err
			}
			saved = append(saved, ref)

			evidence, err := repo.AttachEvidence(ctx, report.ID, ref)
			if err != nil {
				return err
			}
			report.Evidence = append(report.Evidence, *evidence)
		}
		return nil
	})
	if err != nil {
		for _, ref := range saved {
			s.files.Delete(ctx, ref)
		}
		return nil, err
	}

	s.log.Info("report %d created with %d photo(s)", report.ID, len(report.Evidence))
	return report, nil
}

func (s *ReportManager) store(ctx context.Context, u Upload) (string, error) {
	rc, err := u.Open()
	if err != nil {
		return "", errs.Storage(err, "error al leer el archivo")
	}
	defer rc.Close()
	return s.files.Save(ctx, rc, u.Filename)
}

func (s *ReportManager) GetReport(ctx context.Context, id uint) (*models.Report, error) {
	return s.reportRepo.GetByID(ctx, id)
}

// ListReports returns one page, newest first. The page size is capped by
// MAX_PER_PAGE.
func (s *ReportManager) ListReports(ctx context.Context, page, perPage int) (*models.ReportPage, error) {
	page, perPage = models.NormalizePage(page, perPage, s.Config.MaxPerPage)
	return s.reportRepo.List(ctx, page, perPage)
}

func (s *ReportManager) UpdateReport(ctx context.Context, id uint, update models.ReportUpdate) (*models.Report, error) {
	report, err := s.reportRepo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	s.log.Info("report %d updated", id)
	return report, nil
}

// DeleteReport removes the report and then, best effort, its stored photos.
func (s *ReportManager) DeleteReport(ctx context.Context, id uint) error {
	report, err := s.reportRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	for _, e := range report.Evidence {
		s.files.Delete(ctx, e.URL)
	}
	s.log.Info("report %d deleted along with %d photo(s)", id, len(report.Evidence))
	return nil
}
