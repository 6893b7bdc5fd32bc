package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/uspto-tools/pairwatch/internal/domain/tracking"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// EventRepository
// ─────────────────────────────────────────────────────────────────────────────

// EventRepository is the SQLite implementation of tracking.EventRepository.
type EventRepository struct {
	db     *gorm.DB
	logger logging.Logger
}

// NewEventRepository constructs a ready-to-use EventRepository.
func NewEventRepository(db *gorm.DB, logger logging.Logger) *EventRepository {
	return &EventRepository{db: db, logger: logger}
}

// InsertNew inserts only the events not already stored for the patent and
// reports how many rows were added.  Uniqueness is the (patent, code, date)
// tuple, so re-fetching an identical transaction history inserts nothing and
// re-running a cycle is idempotent.
func (r *EventRepository) InsertNew(ctx context.Context, patentID uint, events []tracking.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	for i := range events {
		events[i].ID = 0
		events[i].PatentID = patentID
		events[i].IsNew = true
	}

	// ON CONFLICT DO NOTHING against the tuple index: RowsAffected counts
	// only the rows actually inserted.
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "patent_id"}, {Name: "event_code"}, {Name: "event_date"}},
			DoNothing: true,
		}).
		Create(&events)
	if res.Error != nil {
		r.logger.Error("EventRepository.InsertNew", logging.Err(res.Error))
		return 0, wrapDB(res.Error, "failed to insert events")
	}

	inserted := int(res.RowsAffected)
	if inserted > 0 {
		r.logger.Debug("EventRepository.InsertNew",
			logging.Int("patent_id", int(patentID)),
			logging.Int("inserted", inserted))
	}
	return inserted, nil
}

// Recent returns events whose upstream event date falls within the last
// sinceDays days, optionally restricted to the given event codes, newest
// first.  The window is measured against EventDate, not FirstSeen: a backlog
// of old history discovered by the first refresh of a new patent is not
// "recent activity".
func (r *EventRepository) Recent(ctx context.Context, sinceDays int, codes []string) ([]tracking.RecentEvent, error) {
	cutoff := time.Now().AddDate(0, 0, -sinceDays).Format(tracking.DateLayout)

	q := r.db.WithContext(ctx).
		Table("events").
		Select(`events.id AS event_id,
			patents.application_number,
			patents.title,
			patents.applicant,
			events.event_code,
			events.event_description,
			events.event_date,
			events.first_seen,
			events.is_new`).
		Joins("JOIN patents ON patents.id = events.patent_id").
		Where("events.event_date >= ?", cutoff).
		Order("events.event_date DESC, events.id DESC")
	if len(codes) > 0 {
		q = q.Where("events.event_code IN ?", codes)
	}

	var out []tracking.RecentEvent
	if err := q.Scan(&out).Error; err != nil {
		r.logger.Error("EventRepository.Recent", logging.Err(err))
		return nil, wrapDB(err, "failed to query recent events")
	}
	return out, nil
}

// RecentGrouped returns the same window as Recent grouped per application,
// applications ordered by their most recent event.
func (r *EventRepository) RecentGrouped(ctx context.Context, sinceDays int, codes []string) ([]tracking.PatentUpdates, error) {
	flat, err := r.Recent(ctx, sinceDays, codes)
	if err != nil {
		return nil, err
	}

	var (
		order   []string
		grouped = make(map[string]*tracking.PatentUpdates)
	)
	for _, ev := range flat {
		g, ok := grouped[ev.ApplicationNumber]
		if !ok {
			g = &tracking.PatentUpdates{
				ApplicationNumber: ev.ApplicationNumber,
				Title:             ev.Title,
				Applicant:         ev.Applicant,
			}
			grouped[ev.ApplicationNumber] = g
			order = append(order, ev.ApplicationNumber)
		}
		g.Events = append(g.Events, ev)
	}

	out := make([]tracking.PatentUpdates, 0, len(order))
	for _, num := range order {
		out = append(out, *grouped[num])
	}
	return out, nil
}

// ForPatent returns the full stored history of one patent, newest first.
func (r *EventRepository) ForPatent(ctx context.Context, patentID uint) ([]tracking.Event, error) {
	var events []tracking.Event
	err := r.db.WithContext(ctx).
		Where("patent_id = ?", patentID).
		Order("event_date DESC, id DESC").
		Find(&events).Error
	if err != nil {
		r.logger.Error("EventRepository.ForPatent", logging.Err(err))
		return nil, wrapDB(err, "failed to query events")
	}
	return events, nil
}

// MarkSeen clears the unread flag on all of a patent's events.
func (r *EventRepository) MarkSeen(ctx context.Context, patentID uint) error {
	err := r.db.WithContext(ctx).
		Model(&tracking.Event{}).
		Where("patent_id = ? AND is_new = ?", patentID, true).
		Update("is_new", false).Error
	if err != nil {
		r.logger.Error("EventRepository.MarkSeen", logging.Err(err))
		return wrapDB(err, "failed to mark events seen")
	}
	return nil
}

// DistinctCodes lists every event code present in storage, sorted.
func (r *EventRepository) DistinctCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&tracking.Event{}).
		Distinct("event_code").
		Order("event_code ASC").
		Pluck("event_code", &codes).Error
	if err != nil {
		r.logger.Error("EventRepository.DistinctCodes", logging.Err(err))
		return nil, wrapDB(err, "failed to list event codes")
	}
	return codes, nil
}

var _ tracking.EventRepository = (*EventRepository)(nil)
