package db

import (
	"context"

	errs "github.com/infieles/reportes/errors"
	"github.com/infieles/reportes/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint) (*models.Report, error)
	List(ctx context.Context, page, perPage int) (*models.ReportPage, error)
	Update(ctx context.Context, id uint, update models.ReportUpdate) (*models.Report, error)
	Delete(ctx context.Context, id uint) (*models.Report, error)
	AttachEvidence(ctx context.Context, reportID uint, ref string) (*models.Evidence, error)
	// Transaction runs fn against a repository bound to one transaction.
	// Any error returned by fn rolls the whole unit back.
	Transaction(ctx context.Context, fn func(repo ReportRepository) error) error
}

type reportRepo struct {
	DB *gorm.DB
}

func NewReportRepo(db *GormDB) ReportRepository {
	return &reportRepo{db.DB}
}

func preloadEvidence(db *gorm.DB) *gorm.DB {
	return db.Preload("Evidence", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

func (r *reportRepo) Create(ctx context.Context, report *models.Report) error {
	if !report.HasName() {
		return errs.ErrMissingName
	}
	if err := r.DB.WithContext(ctx).Create(report).Error; err != nil {
		return errs.Database(err, "error creating report")
	}
	return nil
}

func (r *reportRepo) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	err := preloadEvidence(r.DB.WithContext(ctx)).First(&report, id).Error
	if err != nil {
		return nil, notFoundOr(err, "error fetching report")
	}
	return &report, nil
}

func (r *reportRepo) List(ctx context.Context, page, perPage int) (*models.ReportPage, error) {
	page, perPage = models.NormalizePage(page, perPage, 0)

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Report{}).Count(&total).Error; err != nil {
		return nil, errs.Database(err, "error counting reports")
	}

	reports := []models.Report{}
	offset := (page - 1) * perPage
	err := preloadEvidence(r.DB.WithContext(ctx)).
		Order("id DESC").
		Limit(perPage).
		Offset(offset).
		Find(&reports).Error
	if err != nil {
		return nil, errs.Database(err, "error listing reports")
	}

	return &models.ReportPage{
		Items:      reports,
		TotalCount: total,
		TotalPages: models.TotalPages(total, perPage),
		Page:       page,
		PerPage:    perPage,
	}, nil
}

func (r *reportRepo) Update(ctx context.Context, id uint, update models.ReportUpdate) (*models.Report, error) {
	if update.FullName != nil && *update.FullName == "" {
		return nil, errs.ErrMissingName
	}

	var report models.Report
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&report, id).Error; err != nil {
			return notFoundOr(err, "error fetching report")
		}
		if update.IsEmpty() {
			return nil
		}
		if err := tx.Model(&report).Updates(update.Columns()).Error; err != nil {
			return errs.Database(err, "error updating report")
		}
		update.Apply(&report)
		return nil
	})
	if err != nil {
		return nil, asDatabaseError(err)
	}
	return &report, nil
}

// Delete removes the report and its evidence rows and returns what was
// removed so the caller can clean up the stored files.
func (r *reportRepo) Delete(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := preloadEvidence(tx).First(&report, id).Error; err != nil {
			return notFoundOr(err, "error fetching report")
		}
		if err := tx.Where("reporte_id = ?", report.ID).Delete(&models.Evidence{}).Error; err != nil {
			return errs.Database(err, "error deleting evidence")
		}
		if err := tx.Delete(&models.Report{}, report.ID).Error; err != nil {
			return errs.Database(err, "error deleting report")
		}
		return nil
	})
	if err != nil {
		return nil, asDatabaseError(err)
	}
	return &report, nil
}

func (r *reportRepo) AttachEvidence(ctx context.Context, reportID uint, ref string) (*models.Evidence, error) {
	db := r.DB.WithContext(ctx)

	var exists int64
	if err := db.Model(&models.Report{}).Where("id = ?", reportID).Count(&exists).Error; err != nil {
		return nil, errs.Database(err, "error fetching report")
	}
	if exists == 0 {
		return nil, errs.ErrReportNotFound
	}

	var attached int64
	if err := db.Model(&models.Evidence{}).Where("reporte_id = ?", reportID).Count(&attached).Error; err != nil {
		return nil, errs.Database(err, "error counting evidence")
	}
	if attached >= models.MaxEvidencePerReport {
		return nil, errs.ErrTooManyFiles
	}

	evidence := &models.Evidence{ReportID: reportID, URL: ref}
	if err := db.Create(evidence).Error; err != nil {
		return nil, errs.Database(err, "error saving evidence")
	}
	return evidence, nil
}

func (r *reportRepo) Transaction(ctx context.Context, fn func(repo ReportRepository) error) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&reportRepo{DB: tx})
	})
	return asDatabaseError(err)
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrReportNotFound
	}
	return errs.Database(err, msg)
}

// asDatabaseError leaves classified errors alone and wraps anything else,
// such as a failed commit.
func asDatabaseError(err error) error {
	if err == nil {
		return nil
	}
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	return errs.Database(err, "database error")
}
