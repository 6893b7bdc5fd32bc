package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/uspto-tools/pairwatch/internal/domain/tracking"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/monitoring/logging"
	appErrors "github.com/uspto-tools/pairwatch/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// PatentRepository
// ─────────────────────────────────────────────────────────────────────────────

// PatentRepository is the SQLite implementation of tracking.PatentRepository.
// Every public method accepts a context.Context for cancellation propagation.
type PatentRepository struct {
	db     *gorm.DB
	logger logging.Logger
}

// NewPatentRepository constructs a ready-to-use PatentRepository.
func NewPatentRepository(db *gorm.DB, logger logging.Logger) *PatentRepository {
	return &PatentRepository{db: db, logger: logger}
}

// Add begins tracking an application.  The number is normalized and validated
// before insert; adding an already-tracked application is rejected with
// CodePatentExists so the caller can report it without a prior lookup.
func (r *PatentRepository) Add(ctx context.Context, applicationNumber string) (*tracking.Patent, error) {
	normalized, err := tracking.ValidateApplicationNumber(applicationNumber)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("PatentRepository.Add", logging.String("application_number", normalized))

	var existing tracking.Patent
	err = r.db.WithContext(ctx).Where("application_number = ?", normalized).First(&existing).Error
	if err == nil {
		return nil, appErrors.New(appErrors.CodePatentExists, "application is already tracked").
			WithDetail(fmt.Sprintf("application_number=%s", normalized))
	}
	if !isNotFound(err) {
		r.logger.Error("PatentRepository.Add: lookup", logging.Err(err))
		return nil, wrapDB(err, "failed to check for existing patent")
	}

	p := tracking.Patent{ApplicationNumber: normalized}
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		r.logger.Error("PatentRepository.Add: insert", logging.Err(err))
		return nil, wrapDB(err, "failed to insert patent")
	}
	return &p, nil
}

// Upsert inserts the patent if absent and otherwise applies a partial update
// of exactly the supplied fields.  Columns not named in fields keep their
// stored values, so a refresh stage that was skipped cannot erase data a
// previous cycle fetched.
func (r *PatentRepository) Upsert(ctx context.Context, applicationNumber string, fields tracking.FieldMap) (*tracking.Patent, error) {
	normalized := tracking.NormalizeApplicationNumber(applicationNumber)
	r.logger.Debug("PatentRepository.Upsert",
		logging.String("application_number", normalized),
		logging.Int("fields", len(fields)))

	var p tracking.Patent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("application_number = ?", normalized).First(&p).Error
		if isNotFound(err) {
			p = tracking.Patent{ApplicationNumber: normalized}
			if err := tx.Create(&p).Error; err != nil {
				return wrapDB(err, "failed to insert patent")
			}
		} else if err != nil {
			return wrapDB(err, "failed to load patent")
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&p).Updates(map[string]interface{}(fields)).Error; err != nil {
			return wrapDB(err, "failed to update patent fields")
		}
		return wrapDB(tx.First(&p, p.ID).Error, "failed to reload patent")
	})
	if err != nil {
		r.logger.Error("PatentRepository.Upsert", logging.Err(err))
		return nil, err
	}
	return &p, nil
}

// FindByNumber returns the tracked patent or CodePatentNotFound.
func (r *PatentRepository) FindByNumber(ctx context.Context, applicationNumber string) (*tracking.Patent, error) {
	normalized := tracking.NormalizeApplicationNumber(applicationNumber)

	var p tracking.Patent
	err := r.db.WithContext(ctx).Where("application_number = ?", normalized).First(&p).Error
	if isNotFound(err) {
		return nil, appErrors.New(appErrors.CodePatentNotFound, "application is not tracked").
			WithDetail(fmt.Sprintf("application_number=%s", normalized))
	}
	if err != nil {
		r.logger.Error("PatentRepository.FindByNumber", logging.Err(err))
		return nil, wrapDB(err, "failed to query patent")
	}
	return &p, nil
}

// List returns all tracked patents in stable application-number order.
func (r *PatentRepository) List(ctx context.Context) ([]tracking.Patent, error) {
	var patents []tracking.Patent
	err := r.db.WithContext(ctx).Order("application_number ASC").Find(&patents).Error
	if err != nil {
		r.logger.Error("PatentRepository.List", logging.Err(err))
		return nil, wrapDB(err, "failed to list patents")
	}
	return patents, nil
}

// Remove stops tracking an application.  The patent and every owned event,
// continuity, document, and assignment row go in one transaction; a partial
// delete is never visible.  Returns false when the application is not tracked.
func (r *PatentRepository) Remove(ctx context.Context, applicationNumber string) (bool, error) {
	normalized := tracking.NormalizeApplicationNumber(applicationNumber)
	r.logger.Debug("PatentRepository.Remove", logging.String("application_number", normalized))

	found := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p tracking.Patent
		err := tx.Where("application_number = ?", normalized).First(&p).Error
		if isNotFound(err) {
			return nil
		}
		if err != nil {
			return wrapDB(err, "failed to load patent for removal")
		}
		found = true

		// Child rows are deleted explicitly rather than left to the FK
		// cascade so the invariant holds even on a database file created
		// before cascade constraints were part of the schema.
		if err := tx.Where("patent_id = ?", p.ID).Delete(&tracking.Event{}).Error; err != nil {
			return wrapDB(err, "failed to delete events")
		}
		if err := tx.Where("patent_id = ?", p.ID).Delete(&tracking.Continuity{}).Error; err != nil {
			return wrapDB(err, "failed to delete continuity records")
		}
		if err := tx.Where("patent_id = ?", p.ID).Delete(&tracking.Document{}).Error; err != nil {
			return wrapDB(err, "failed to delete documents")
		}
		if err := tx.Where("patent_id = ?", p.ID).Delete(&tracking.Assignment{}).Error; err != nil {
			return wrapDB(err, "failed to delete assignments")
		}
		if err := tx.Delete(&p).Error; err != nil {
			return wrapDB(err, "failed to delete patent")
		}
		return nil
	})
	if err != nil {
		r.logger.Error("PatentRepository.Remove", logging.Err(err))
		return false, err
	}
	return found, nil
}

// TouchChecked records a refresh attempt timestamp regardless of outcome.
func (r *PatentRepository) TouchChecked(ctx context.Context, patentID uint, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&tracking.Patent{}).
		Where("id = ?", patentID).
		Update("last_checked", at).Error
	if err != nil {
		r.logger.Error("PatentRepository.TouchChecked", logging.Err(err))
		return wrapDB(err, "failed to record check timestamp")
	}
	return nil
}

var _ tracking.PatentRepository = (*PatentRepository)(nil)
