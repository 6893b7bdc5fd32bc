package tracking

import (
	"context"
	"time"
)

// FieldMap carries a partial update for a patent row: only the columns the
// caller actually fetched this cycle, so previously known values from stages
// that were skipped or failed are preserved.  Keys are column names as
// understood by the persistence layer.
type FieldMap map[string]interface{}

// RecentEvent is the join of an event with the identifying fields of its
// patent, as consumed by the updates view.
type RecentEvent struct {
	EventID           uint      `json:"event_id"`
	ApplicationNumber string    `json:"application_number"`
	Title             string    `json:"title"`
	Applicant         string    `json:"applicant"`
	EventCode         string    `json:"event_code"`
	EventDescription  string    `json:"event_description"`
	EventDate         string    `json:"event_date"`
	FirstSeen         time.Time `json:"first_seen"`
	IsNew             bool      `json:"is_new"`
}

// PatentUpdates groups the recent events of one application.
type PatentUpdates struct {
	ApplicationNumber string        `json:"application_number"`
	Title             string        `json:"title"`
	Applicant         string        `json:"applicant"`
	Events            []RecentEvent `json:"events"`
}

// PatentRepository is the persistence contract for the aggregate root.
type PatentRepository interface {
	// Add begins tracking an application.  The number is normalized before
	// insert; adding an already-tracked application returns CodePatentExists.
	Add(ctx context.Context, applicationNumber string) (*Patent, error)

	// Upsert inserts the patent if absent and otherwise applies a partial
	// update of exactly the supplied fields.
	Upsert(ctx context.Context, applicationNumber string, fields FieldMap) (*Patent, error)

	// FindByNumber returns the tracked patent or CodePatentNotFound.
	FindByNumber(ctx context.Context, applicationNumber string) (*Patent, error)

	// List returns all tracked patents in stable application-number order.
	List(ctx context.Context) ([]Patent, error)

	// Remove stops tracking an application, deleting the patent and every
	// owned event, continuity, document, and assignment row in one
	// transaction.  Returns false when the application is not tracked.
	Remove(ctx context.Context, applicationNumber string) (bool, error)

	// TouchChecked records a refresh attempt timestamp.
	TouchChecked(ctx context.Context, patentID uint, at time.Time) error
}

// EventRepository is the persistence contract for transaction-history events.
type EventRepository interface {
	// InsertNew inserts only the events not already present under the
	// (patent, code, date) uniqueness invariant and reports how many rows
	// were added.  Re-fetching an identical history inserts nothing.
	InsertNew(ctx context.Context, patentID uint, events []Event) (int, error)

	// Recent returns events whose upstream EventDate falls within the last
	// sinceDays days, optionally restricted to the given event codes, newest
	// first.
	Recent(ctx context.Context, sinceDays int, codes []string) ([]RecentEvent, error)

	// RecentGrouped returns the same window grouped per application.
	RecentGrouped(ctx context.Context, sinceDays int, codes []string) ([]PatentUpdates, error)

	// ForPatent returns the full stored history of one patent, newest first.
	ForPatent(ctx context.Context, patentID uint) ([]Event, error)

	// MarkSeen clears the IsNew flag on all of a patent's events.
	MarkSeen(ctx context.Context, patentID uint) error

	// DistinctCodes lists every event code present in storage, sorted.
	DistinctCodes(ctx context.Context) ([]string, error)
}

// ChildReplacer is the shared contract for the entity kinds that upstream
// serves unversioned: the stored set is cleared and reinserted atomically on
// each refresh, so a mid-operation failure can never leave a patent with
// fewer rows than it had before.
type ChildReplacer[T any] interface {
	ReplaceForPatent(ctx context.Context, patentID uint, records []T) error
	ForPatent(ctx context.Context, patentID uint) ([]T, error)
}

// ContinuityRepository persists parent/child relationships.
type ContinuityRepository interface {
	ChildReplacer[Continuity]
}

// DocumentRepository persists file-wrapper document metadata.
type DocumentRepository interface {
	ChildReplacer[Document]
}

// AssignmentRepository persists recorded ownership transfers.
type AssignmentRepository interface {
	ChildReplacer[Assignment]
}

// SettingsRepository persists process-wide key/value preferences.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	GetDefault(ctx context.Context, key, fallback string) (string, error)
	Set(ctx context.Context, key, value string) error
}
