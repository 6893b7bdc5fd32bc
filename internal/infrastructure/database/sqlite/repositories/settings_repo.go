package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/uspto-tools/pairwatch/internal/domain/tracking"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/monitoring/logging"
	appErrors "github.com/uspto-tools/pairwatch/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// SettingsRepository
// ─────────────────────────────────────────────────────────────────────────────

// SettingsRepository is the SQLite implementation of
// tracking.SettingsRepository.  Settings are last-write-wins.
type SettingsRepository struct {
	db     *gorm.DB
	logger logging.Logger
}

// NewSettingsRepository constructs a ready-to-use SettingsRepository.
func NewSettingsRepository(db *gorm.DB, logger logging.Logger) *SettingsRepository {
	return &SettingsRepository{db: db, logger: logger}
}

// Get returns the stored value for key or CodeSettingNotFound.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var s tracking.Setting
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&s).Error
	if isNotFound(err) {
		return "", appErrors.New(appErrors.CodeSettingNotFound, "setting not found").
			WithDetail(fmt.Sprintf("key=%s", key))
	}
	if err != nil {
		r.logger.Error("SettingsRepository.Get", logging.Err(err))
		return "", wrapDB(err, "failed to query setting")
	}
	return s.Value, nil
}

// GetDefault returns the stored value for key, or fallback when absent.
func (r *SettingsRepository) GetDefault(ctx context.Context, key, fallback string) (string, error) {
	v, err := r.Get(ctx, key)
	if appErrors.IsCode(err, appErrors.CodeSettingNotFound) {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&tracking.Setting{Key: key, Value: value}).Error
	if err != nil {
		r.logger.Error("SettingsRepository.Set", logging.Err(err))
		return wrapDB(err, "failed to store setting")
	}
	return nil
}

var _ tracking.SettingsRepository = (*SettingsRepository)(nil)
