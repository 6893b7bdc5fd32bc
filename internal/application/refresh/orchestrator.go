// Package refresh reconciles one tracked patent against the USPTO API: it
// runs the fetch/parse/persist stages in a fixed order and reports a typed
// outcome per stage instead of a single collapsed error.
package refresh

import (
	"context"
	"time"

	"github.com/uspto-tools/pairwatch/internal/domain/tracking"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/monitoring/logging"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/uspto"
	appErrors "github.com/uspto-tools/pairwatch/pkg/errors"
)

// Stage identifies one step of a patent refresh.
type Stage string

// Refresh stages.  Metadata and events are mandatory: if either fails the
// patent's refresh fails.  The rest are optional and independent; a failure
// is recorded and the run continues.
const (
	StageMetadata        Stage = "metadata"
	StageEvents          Stage = "events"
	StagePTA             Stage = "pta"
	StageContinuity      Stage = "continuity"
	StageDocuments       Stage = "documents"
	StageAssignment      Stage = "assignment"
	StageAttorney        Stage = "attorney"
	StageForeignPriority Stage = "foreign_priority"
)

// optionalStages is the execution order after the mandatory pair.
var optionalStages = []Stage{
	StagePTA,
	StageContinuity,
	StageDocuments,
	StageAssignment,
	StageAttorney,
	StageForeignPriority,
}

// StageFailure records one failed stage of a refresh run.
type StageFailure struct {
	Stage Stage
	Err   error
}

// Result is the outcome of refreshing one patent.
type Result struct {
	ApplicationNumber string
	NewEventCount     int
	FailedStages      []StageFailure

	// Fatal is set when the run hit a condition that poisons the whole
	// poll cycle, not just this patent: a rejected API key would fail
	// every subsequent request identically.
	Fatal bool
}

// Failed reports whether the given stage is among the failures.
func (r *Result) Failed(stage Stage) bool {
	for _, f := range r.FailedStages {
		if f.Stage == stage {
			return true
		}
	}
	return false
}

// Repos bundles the persistence collaborators of the orchestrator.
type Repos struct {
	Patents     tracking.PatentRepository
	Events      tracking.EventRepository
	Continuity  tracking.ContinuityRepository
	Documents   tracking.DocumentRepository
	Assignments tracking.AssignmentRepository
}

// Orchestrator runs the refresh pipeline for single patents.
type Orchestrator struct {
	client uspto.Client
	repos  Repos
	logger logging.Logger
	now    func() time.Time
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(client uspto.Client, repos Repos, logger logging.Logger) *Orchestrator {
	return &Orchestrator{
		client: client,
		repos:  repos,
		logger: logger,
		now:    time.Now,
	}
}

// RefreshPatent reconciles one tracked application against the upstream API.
//
// Each stage persists its own data as soon as it succeeds, so a later
// failure never discards earlier progress.  The returned error is non-nil
// only when the mandatory metadata/events stages failed; optional-stage
// failures are reported through Result.FailedStages.
func (o *Orchestrator) RefreshPatent(ctx context.Context, applicationNumber string) (*Result, error) {
	patent, err := o.repos.Patents.FindByNumber(ctx, applicationNumber)
	if err != nil {
		return nil, err
	}
	result := &Result{ApplicationNumber: patent.ApplicationNumber}

	// Record the attempt before anything can fail, matching the meaning of
	// last_checked: "when we last tried", not "when we last succeeded".
	if err := o.repos.Patents.TouchChecked(ctx, patent.ID, o.now()); err != nil {
		o.logger.Warn("failed to record check timestamp",
			logging.String("application_number", patent.ApplicationNumber),
			logging.Err(err))
	}

	// Mandatory: metadata + transaction history, one root fetch.
	metaFields, events, err := o.fetchApplication(ctx, patent.ApplicationNumber)
	if err != nil {
		result.Fatal = appErrors.IsAuth(err) || appErrors.IsCode(err, appErrors.CodeSourceNoAPIKey)
		result.FailedStages = append(result.FailedStages,
			StageFailure{Stage: StageMetadata, Err: err},
			StageFailure{Stage: StageEvents, Err: err})
		return result, err
	}

	if _, err := o.repos.Patents.Upsert(ctx, patent.ApplicationNumber, metaFields); err != nil {
		result.FailedStages = append(result.FailedStages, StageFailure{Stage: StageMetadata, Err: err})
		return result, err
	}

	newCount, err := o.repos.Events.InsertNew(ctx, patent.ID, events)
	if err != nil {
		result.FailedStages = append(result.FailedStages, StageFailure{Stage: StageEvents, Err: err})
		return result, err
	}
	result.NewEventCount = newCount

	ptaDays := patent.PTATotalDays
	for _, stage := range optionalStages {
		days, err := o.runOptionalStage(ctx, stage, patent)
		if err != nil {
			if appErrors.IsAuth(err) {
				// The key worked a moment ago on the root fetch; a
				// revocation mid-run still poisons the cycle.
				result.Fatal = true
			}
			result.FailedStages = append(result.FailedStages, StageFailure{Stage: stage, Err: err})
			o.logger.Warn("refresh stage failed",
				logging.String("application_number", patent.ApplicationNumber),
				logging.String("stage", string(stage)),
				logging.Err(err))
			if result.Fatal {
				return result, err
			}
			continue
		}
		if stage == StagePTA {
			ptaDays = days
		}
	}

	// Expiration depends on filing date (metadata) and PTA; both were
	// persisted above, so recompute from the freshest values.
	filingDate, _ := metaFields["filing_date"].(string)
	if filingDate == "" {
		filingDate = patent.FilingDate
	}
	if exp := tracking.CalculateExpirationDate(filingDate, ptaDays); exp != "" {
		if _, err := o.repos.Patents.Upsert(ctx, patent.ApplicationNumber, tracking.FieldMap{"expiration_date": exp}); err != nil {
			o.logger.Warn("failed to persist expiration date",
				logging.String("application_number", patent.ApplicationNumber),
				logging.Err(err))
		}
	}

	return result, nil
}

// fetchApplication retrieves and parses the root application resource.
func (o *Orchestrator) fetchApplication(ctx context.Context, applicationNumber string) (tracking.FieldMap, []tracking.Event, error) {
	raw, err := o.client.FetchResource(ctx, applicationNumber, uspto.ResourceApplication)
	if err != nil {
		return nil, nil, err
	}
	return uspto.ParseApplication(raw)
}

// runOptionalStage executes one optional stage end to end: fetch, parse,
// persist.  A NOT_FOUND from the sub-resource means the application simply
// has no such data and is treated as an empty result, as upstream does.
// Returns the PTA total for StagePTA, 0 otherwise.
func (o *Orchestrator) runOptionalStage(ctx context.Context, stage Stage, patent *tracking.Patent) (int, error) {
	resource := map[Stage]uspto.Resource{
		StagePTA:             uspto.ResourceAdjustment,
		StageContinuity:      uspto.ResourceContinuity,
		StageDocuments:       uspto.ResourceDocuments,
		StageAssignment:      uspto.ResourceAssignment,
		StageAttorney:        uspto.ResourceAttorney,
		StageForeignPriority: uspto.ResourceForeignPriority,
	}[stage]

	raw, err := o.client.FetchResource(ctx, patent.ApplicationNumber, resource)
	if appErrors.IsCode(err, appErrors.CodeSourceNotFound) {
		raw = nil
		err = nil
	}
	if err != nil {
		return 0, err
	}

	switch stage {
	case StagePTA:
		fields, total, err := uspto.ParseAdjustment(raw)
		if err != nil {
			return 0, err
		}
		if len(fields) == 0 {
			return patent.PTATotalDays, nil
		}
		if _, err := o.repos.Patents.Upsert(ctx, patent.ApplicationNumber, fields); err != nil {
			return 0, err
		}
		return total, nil

	case StageContinuity:
		records, err := uspto.ParseContinuity(raw)
		if err != nil {
			return 0, err
		}
		return 0, o.repos.Continuity.ReplaceForPatent(ctx, patent.ID, records)

	case StageDocuments:
		records, err := uspto.ParseDocuments(raw)
		if err != nil {
			return 0, err
		}
		return 0, o.repos.Documents.ReplaceForPatent(ctx, patent.ID, records)

	case StageAssignment:
		records, err := uspto.ParseAssignments(raw)
		if err != nil {
			return 0, err
		}
		return 0, o.repos.Assignments.ReplaceForPatent(ctx, patent.ID, records)

	case StageAttorney:
		fields, err := uspto.ParseAttorneys(raw)
		if err != nil {
			return 0, err
		}
		_, err = o.repos.Patents.Upsert(ctx, patent.ApplicationNumber, fields)
		return 0, err

	case StageForeignPriority:
		fields, err := uspto.ParseForeignPriority(raw)
		if err != nil {
			return 0, err
		}
		_, err = o.repos.Patents.Upsert(ctx, patent.ApplicationNumber, fields)
		return 0, err
	}
	return 0, nil
}
