package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/uspto-tools/pairwatch/internal/domain/tracking"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/database/sqlite"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/monitoring/logging"
	appErrors "github.com/uspto-tools/pairwatch/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close(db) })
	return db
}

// ─────────────────────────────────────────────────────────────────────────────
// PatentRepository
// ─────────────────────────────────────────────────────────────────────────────

func TestPatentRepository_AddNormalizesNumber(t *testing.T) {
	db := newTestDB(t)
	repo := NewPatentRepository(db, logging.NewNopLogger())

	p, err := repo.Add(context.Background(), "17/940,142")
	require.NoError(t, err)
	assert.Equal(t, "17940142", p.ApplicationNumber)
}

func TestPatentRepository_AddDuplicateRejected(t *testing.T) {
	db := newTestDB(t)
	repo := NewPatentRepository(db, logging.NewNopLogger())
	ctx := context.Background()

	_, err := repo.Add(ctx, "17940142")
	require.NoError(t, err)

	// Same application in a different surface form is still a duplicate.
	_, err = repo.Add(ctx, "17/940,142")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.CodePatentExists))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPatentRepository_AddRejectsNonNumeric(t *testing.T) {
	db := newTestDB(t)
	repo := NewPatentRepository(db, logging.NewNopLogger())

	_, err := repo.Add(context.Background(), "17-940-142")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.CodeInvalidParam))
}

func TestPatentRepository_UpsertPartialUpdatePreservesOtherColumns(t *testing.T) {
	db := newTestDB(t)
	repo := NewPatentRepository(db, logging.NewNopLogger())
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "17940142", tracking.FieldMap{
		"title":       "Widget control system",
		"filing_date": "2022-09-07",
	})
	require.NoError(t, err)

	// A later cycle that only fetched status must not erase the title.
	p, err := repo.Upsert(ctx, "17940142", tracking.FieldMap{
		"current_status": "Docketed New Case - Ready for Examination",
	})
	require.NoError(t, err)
	assert.Equal(t, "Widget control system", p.Title)
	assert.Equal(t, "2022-09-07", p.FilingDate)
	assert.Equal(t, "Docketed New Case - Ready for Examination", p.CurrentStatus)
}

func TestPatentRepository_FindByNumberNotTracked(t *testing.T) {
	db := newTestDB(t)
	repo := NewPatentRepository(db, logging.NewNopLogger())

	_, err := repo.FindByNumber(context.Background(), "99999999")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.CodePatentNotFound))
}

func TestPatentRepository_RemoveCascades(t *testing.T) {
	db := newTestDB(t)
	log := logging.NewNopLogger()
	patents := NewPatentRepository(db, log)
	events := NewEventRepository(db, log)
	continuity := NewContinuityRepository(db, log)
	documents := NewDocumentRepository(db, log)
	assignments := NewAssignmentRepository(db, log)
	ctx := context.Background()

	p, err := patents.Add(ctx, "17940142")
	require.NoError(t, err)

	_, err = events.InsertNew(ctx, p.ID, []tracking.Event{
		{EventCode: "CTNF", EventDescription: "Non-Final Rejection", EventDate: "2024-03-01"},
	})
	require.NoError(t, err)
	require.NoError(t, continuity.ReplaceForPatent(ctx, p.ID, []tracking.Continuity{
		{RelatedApplicationNumber: "16555000", Relationship: tracking.RelationParent},
	}))
	require.NoError(t, documents.ReplaceForPatent(ctx, p.ID, []tracking.Document{
		{DocumentIdentifier: "DOC-1", DocumentCode: "CTNF"},
	}))
	require.NoError(t, assignments.ReplaceForPatent(ctx, p.ID, []tracking.Assignment{
		{ReelFrame: "61234/0567"},
	}))

	removed, err := patents.Remove(ctx, "17/940,142")
	require.NoError(t, err)
	assert.True(t, removed)

	for _, table := range []string{"events", "continuities", "documents", "assignments"} {
		var n int64
		require.NoError(t, db.Table(table).Where("patent_id = ?", p.ID).Count(&n).Error)
		assert.Zerof(t, n, "table %s should hold no rows for removed patent", table)
	}

	// Removing again reports not-tracked rather than erroring.
	removed, err = patents.Remove(ctx, "17940142")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPatentRepository_TouchChecked(t *testing.T) {
	db := newTestDB(t)
	repo := NewPatentRepository(db, logging.NewNopLogger())
	ctx := context.Background()

	p, err := repo.Add(ctx, "17940142")
	require.NoError(t, err)
	require.Nil(t, p.LastChecked)

	at := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.TouchChecked(ctx, p.ID, at))

	got, err := repo.FindByNumber(ctx, "17940142")
	require.NoError(t, err)
	require.NotNil(t, got.LastChecked)
	assert.True(t, got.LastChecked.Equal(at))
}

// ─────────────────────────────────────────────────────────────────────────────
// EventRepository
// ─────────────────────────────────────────────────────────────────────────────

func TestEventRepository_InsertNewIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	log := logging.NewNopLogger()
	patents := NewPatentRepository(db, log)
	events := NewEventRepository(db, log)
	ctx := context.Background()

	p, err := patents.Add(ctx, "17940142")
	require.NoError(t, err)

	history := []tracking.Event{
		{EventCode: "BRCE", EventDescription: "Workflow - Request for RCE - Begin", EventDate: "2025-12-08"},
		{EventCode: "CTFR", EventDescription: "Final Rejection", EventDate: "2025-09-15"},
	}

	n, err := events.InsertNew(ctx, p.ID, history)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Identical re-fetch inserts nothing.
	refetch := []tracking.Event{
		{EventCode: "BRCE", EventDescription: "Workflow - Request for RCE - Begin", EventDate: "2025-12-08"},
		{EventCode: "CTFR", EventDescription: "Final Rejection", EventDate: "2025-09-15"},
	}
	n, err = events.InsertNew(ctx, p.ID, refetch)
	require.NoError(t, err)
	assert.Zero(t, n)

	// A partially new history inserts only the new row.
	n, err = events.InsertNew(ctx, p.ID, []tracking.Event{
		{EventCode: "BRCE", EventDescription: "Workflow - Request for RCE - Begin", EventDate: "2025-12-08"},
		{EventCode: "NOA", EventDescription: "Notice of Allowance", EventDate: "2026-02-01"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := events.ForPatent(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestEventRepository_SameCodeOnDifferentDatesBothStored(t *testing.T) {
	db := newTestDB(t)
	log := logging.NewNopLogger()
	patents := NewPatentRepository(db, log)
	events := NewEventRepository(db, log)
	ctx := context.Background()

	p, err := patents.Add(ctx, "17940142")
	require.NoError(t, err)

	n, err := events.InsertNew(ctx, p.ID, []tracking.Event{
		{EventCode: "CTNF", EventDate: "2024-03-01"},
		{EventCode: "CTNF", EventDate: "2025-01-10"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEventRepository_RecentFiltersOnEventDate(t *testing.T) {
	db := newTestDB(t)
	log := logging.NewNopLogger()
	patents := NewPatentRepository(db, log)
	events := NewEventRepository(db, log)
	ctx := context.Background()

	p, err := patents.Add(ctx, "17940142")
	require.NoError(t, err)

	recentDate := time.Now().AddDate(0, 0, -3).Format(tracking.DateLayout)
	oldDate := time.Now().AddDate(0, 0, -90).Format(tracking.DateLayout)

	// Both rows share the same FirstSeen (just now); only EventDate differs.
	_, err = events.InsertNew(ctx, p.ID, []tracking.Event{
		{EventCode: "NOA", EventDescription: "Notice of Allowance", EventDate: recentDate},
		{EventCode: "CTNF", EventDescription: "Non-Final Rejection", EventDate: oldDate},
	})
	require.NoError(t, err)

	got, err := events.Recent(ctx, 30, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "NOA", got[0].EventCode)
	assert.Equal(t, "17940142", got[0].ApplicationNumber)
}

func TestEventRepository_RecentCodeFilter(t *testing.T) {
	db := newTestDB(t)
	log := logging.NewNopLogger()
	patents := NewPatentRepository(db, log)
	events := NewEventRepository(db, log)
	ctx := context.Background()

	p, err := patents.Add(ctx, "17940142")
	require.NoError(t, err)

	day := time.Now().AddDate(0, 0, -1).Format(tracking.DateLayout)
	_, err = events.InsertNew(ctx, p.ID, []tracking.Event{
		{EventCode: "NOA", EventDate: day},
		{EventCode: "WIDS", EventDate: day},
	})
	require.NoError(t, err)

	got, err := events.Recent(ctx, 7, []string{"NOA"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "NOA", got[0].EventCode)
}

func TestEventRepository_RecentGrouped(t *testing.T) {
	db := newTestDB(t)
	log := logging.NewNopLogger()
	patents := NewPatentRepository(db, log)
	events := NewEventRepository(db, log)
	ctx := context.Background()

	a, err := patents.Add(ctx, "17940142")
	require.NoError(t, err)
	b, err := patents.Add(ctx, "16555000")
	require.NoError(t, err)

	newer := time.Now().AddDate(0, 0, -1).Format(tracking.DateLayout)
	older := time.Now().AddDate(0, 0, -2).Format(tracking.DateLayout)
	_, err = events.InsertNew(ctx, a.ID, []tracking.Event{
		{EventCode: "NOA", EventDate: newer},
		{EventCode: "RESP", EventDate: older},
	})
	require.NoError(t, err)
	_, err = events.InsertNew(ctx, b.ID, []tracking.Event{
		{EventCode: "CTNF", EventDate: older},
	})
	require.NoError(t, err)

	groups, err := events.RecentGrouped(ctx, 7, nil)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	// Application with the newest event comes first and keeps both its rows.
	assert.Equal(t, "17940142", groups[0].ApplicationNumber)
	assert.Len(t, groups[0].Events, 2)
	assert.Equal(t, "16555000", groups[1].ApplicationNumber)
	assert.Len(t, groups[1].Events, 1)
}

func TestEventRepository_MarkSeen(t *testing.T) {
	db := newTestDB(t)
	log := logging.NewNopLogger()
	patents := NewPatentRepository(db, log)
	events := NewEventRepository(db, log)
	ctx := context.Background()

	p, err := patents.Add(ctx, "17940142")
	require.NoError(t, err)

	_, err = events.InsertNew(ctx, p.ID, []tracking.Event{
		{EventCode: "CTNF", EventDate: "2024-03-01"},
		{EventCode: "RESP", EventDate: "2024-06-01"},
	})
	require.NoError(t, err)

	require.NoError(t, events.MarkSeen(ctx, p.ID))

	all, err := events.ForPatent(ctx, p.ID)
	require.NoError(t, err)
	for _, ev := range all {
		assert.False(t, ev.IsNew)
	}
}

func TestEventRepository_DistinctCodes(t *testing.T) {
	db := newTestDB(t)
	log := logging.NewNopLogger()
	patents := NewPatentRepository(db, log)
	events := NewEventRepository(db, log)
	ctx := context.Background()

	p, err := patents.Add(ctx, "17940142")
	require.NoError(t, err)

	_, err = events.InsertNew(ctx, p.ID, []tracking.Event{
		{EventCode: "RESP", EventDate: "2024-06-01"},
		{EventCode: "CTNF", EventDate: "2024-03-01"},
		{EventCode: "CTNF", EventDate: "2025-01-10"},
	})
	require.NoError(t, err)

	codes, err := events.DistinctCodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"CTNF", "RESP"}, codes)
}

// ─────────────────────────────────────────────────────────────────────────────
// Child replacers
// ─────────────────────────────────────────────────────────────────────────────

func TestContinuityRepository_ReplaceIsWholesale(t *testing.T) {
	db := newTestDB(t)
	log := logging.NewNopLogger()
	patents := NewPatentRepository(db, log)
	repo := NewContinuityRepository(db, log)
	ctx := context.Background()

	p, err := patents.Add(ctx, "17940142")
	require.NoError(t, err)

	require.NoError(t, repo.ReplaceForPatent(ctx, p.ID, []tracking.Continuity{
		{RelatedApplicationNumber: "16555000", Relationship: tracking.RelationParent},
		{RelatedApplicationNumber: "18111222", Relationship: tracking.RelationChild},
	}))

	// The next refresh saw only one relationship; the other must be gone.
	require.NoError(t, repo.ReplaceForPatent(ctx, p.ID, []tracking.Continuity{
		{RelatedApplicationNumber: "16555000", Relationship: tracking.RelationParent},
	}))

	got, err := repo.ForPatent(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "16555000", got[0].RelatedApplicationNumber)
	assert.Equal(t, tracking.RelationParent, got[0].Relationship)
}

func TestChildReplacers_EmptyFetchClearsSet(t *testing.T) {
	db := newTestDB(t)
	log := logging.NewNopLogger()
	patents := NewPatentRepository(db, log)
	docs := NewDocumentRepository(db, log)
	ctx := context.Background()

	p, err := patents.Add(ctx, "17940142")
	require.NoError(t, err)

	require.NoError(t, docs.ReplaceForPatent(ctx, p.ID, []tracking.Document{
		{DocumentIdentifier: "DOC-1"},
	}))
	require.NoError(t, docs.ReplaceForPatent(ctx, p.ID, nil))

	got, err := docs.ForPatent(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAssignmentRepository_ScopedToPatent(t *testing.T) {
	db := newTestDB(t)
	log := logging.NewNopLogger()
	patents := NewPatentRepository(db, log)
	repo := NewAssignmentRepository(db, log)
	ctx := context.Background()

	a, err := patents.Add(ctx, "17940142")
	require.NoError(t, err)
	b, err := patents.Add(ctx, "16555000")
	require.NoError(t, err)

	require.NoError(t, repo.ReplaceForPatent(ctx, a.ID, []tracking.Assignment{{ReelFrame: "61234/0567"}}))
	require.NoError(t, repo.ReplaceForPatent(ctx, b.ID, []tracking.Assignment{{ReelFrame: "70001/0002"}}))

	// Replacing one patent's set leaves the other untouched.
	require.NoError(t, repo.ReplaceForPatent(ctx, a.ID, nil))

	got, err := repo.ForPatent(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "70001/0002", got[0].ReelFrame)
}

// ─────────────────────────────────────────────────────────────────────────────
// SettingsRepository
// ─────────────────────────────────────────────────────────────────────────────

func TestSettingsRepository_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewSettingsRepository(db, logging.NewNopLogger())
	ctx := context.Background()

	_, err := repo.Get(ctx, tracking.SettingPollInterval)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.CodeSettingNotFound))

	v, err := repo.GetDefault(ctx, tracking.SettingPollInterval, "24h")
	require.NoError(t, err)
	assert.Equal(t, "24h", v)

	require.NoError(t, repo.Set(ctx, tracking.SettingPollInterval, "6h"))
	require.NoError(t, repo.Set(ctx, tracking.SettingPollInterval, "12h"))

	v, err = repo.Get(ctx, tracking.SettingPollInterval)
	require.NoError(t, err)
	assert.Equal(t, "12h", v)
}
