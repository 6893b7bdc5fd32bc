package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/uspto-tools/pairwatch/internal/domain/tracking"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Child replacers: continuity, documents, assignments
// ─────────────────────────────────────────────────────────────────────────────

// childRepo is the shared implementation behind the three replace-on-refresh
// repositories.  Upstream serves these record kinds unversioned, so each
// refresh clears the stored set and reinserts the fetched one inside a single
// transaction; a failure mid-replace rolls back to the previous complete set.
type childRepo[T any] struct {
	db     *gorm.DB
	logger logging.Logger
	name   string
	setID  func(*T, uint)
}

func (r *childRepo[T]) ReplaceForPatent(ctx context.Context, patentID uint, records []T) error {
	r.logger.Debug(r.name+".ReplaceForPatent",
		logging.Int("patent_id", int(patentID)),
		logging.Int("records", len(records)))

	for i := range records {
		r.setID(&records[i], patentID)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var zero T
		if err := tx.Where("patent_id = ?", patentID).Delete(&zero).Error; err != nil {
			return wrapDB(err, "failed to clear existing records")
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.Create(&records).Error; err != nil {
			return wrapDB(err, "failed to insert replacement records")
		}
		return nil
	})
	if err != nil {
		r.logger.Error(r.name+".ReplaceForPatent", logging.Err(err))
		return err
	}
	return nil
}

func (r *childRepo[T]) ForPatent(ctx context.Context, patentID uint) ([]T, error) {
	var out []T
	err := r.db.WithContext(ctx).
		Where("patent_id = ?", patentID).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		r.logger.Error(r.name+".ForPatent", logging.Err(err))
		return nil, wrapDB(err, "failed to query records")
	}
	return out, nil
}

// ContinuityRepository is the SQLite implementation of
// tracking.ContinuityRepository.
type ContinuityRepository struct {
	childRepo[tracking.Continuity]
}

// NewContinuityRepository constructs a ready-to-use ContinuityRepository.
func NewContinuityRepository(db *gorm.DB, logger logging.Logger) *ContinuityRepository {
	return &ContinuityRepository{childRepo[tracking.Continuity]{
		db:     db,
		logger: logger,
		name:   "ContinuityRepository",
		setID:  func(c *tracking.Continuity, id uint) { c.ID = 0; c.PatentID = id },
	}}
}

// DocumentRepository is the SQLite implementation of
// tracking.DocumentRepository.
type DocumentRepository struct {
	childRepo[tracking.Document]
}

// NewDocumentRepository constructs a ready-to-use DocumentRepository.
func NewDocumentRepository(db *gorm.DB, logger logging.Logger) *DocumentRepository {
	return &DocumentRepository{childRepo[tracking.Document]{
		db:     db,
		logger: logger,
		name:   "DocumentRepository",
		setID:  func(d *tracking.Document, id uint) { d.ID = 0; d.PatentID = id },
	}}
}

// AssignmentRepository is the SQLite implementation of
// tracking.AssignmentRepository.
type AssignmentRepository struct {
	childRepo[tracking.Assignment]
}

// NewAssignmentRepository constructs a ready-to-use AssignmentRepository.
func NewAssignmentRepository(db *gorm.DB, logger logging.Logger) *AssignmentRepository {
	return &AssignmentRepository{childRepo[tracking.Assignment]{
		db:     db,
		logger: logger,
		name:   "AssignmentRepository",
		setID:  func(a *tracking.Assignment, id uint) { a.ID = 0; a.PatentID = id },
	}}
}

var (
	_ tracking.ContinuityRepository = (*ContinuityRepository)(nil)
	_ tracking.DocumentRepository   = (*DocumentRepository)(nil)
	_ tracking.AssignmentRepository = (*AssignmentRepository)(nil)
)
