package uspto

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"

	"github.com/uspto-tools/pairwatch/internal/domain/tracking"
	appErrors "github.com/uspto-tools/pairwatch/pkg/errors"
)

// The parsers below turn raw Open Data Portal payloads into domain values.
// They are pure: no I/O, no storage.  Absent optional containers yield empty
// results; structurally invalid JSON yields CodeParseMalformed.

// ─────────────────────────────────────────────────────────────────────────────
// Application (metadata + transaction history)
// ─────────────────────────────────────────────────────────────────────────────

type applicationEnvelope struct {
	Count                    int           `json:"count"`
	PatentFileWrapperDataBag []fileWrapper `json:"patentFileWrapperDataBag"`
}

type fileWrapper struct {
	ApplicationNumberText string          `json:"applicationNumberText"`
	ApplicationMetaData   applicationMeta `json:"applicationMetaData"`
	EventDataBag          []eventEntry    `json:"eventDataBag"`
}

type eventEntry struct {
	EventCode            string `json:"eventCode"`
	EventDescriptionText string `json:"eventDescriptionText"`
	EventDate            string `json:"eventDate"`
}

type applicationMeta struct {
	InventionTitle                   string      `json:"inventionTitle"`
	FilingDate                       string      `json:"filingDate"`
	EffectiveFilingDate              string      `json:"effectiveFilingDate"`
	ApplicationStatusDescriptionText string      `json:"applicationStatusDescriptionText"`
	ApplicationStatusCode            *int        `json:"applicationStatusCode"`
	ApplicationStatusDate            string      `json:"applicationStatusDate"`
	ExaminerNameText                 string      `json:"examinerNameText"`
	GroupArtUnitNumber               string      `json:"groupArtUnitNumber"`
	CustomerNumber                   json.Number `json:"customerNumber"`

	PatentNumber              string `json:"patentNumber"`
	GrantDate                 string `json:"grantDate"`
	EarliestPublicationNumber string `json:"earliestPublicationNumber"`
	EarliestPublicationDate   string `json:"earliestPublicationDate"`

	PCTPublicationNumber   string `json:"pctPublicationNumber"`
	PCTPublicationDate     string `json:"pctPublicationDate"`
	NationalStageIndicator bool   `json:"nationalStageIndicator"`

	ApplicationTypeCode      string `json:"applicationTypeCode"`
	ApplicationTypeLabelName string `json:"applicationTypeLabelName"`
	ApplicationTypeCategory  string `json:"applicationTypeCategory"`
	Class                    string `json:"class"`
	Subclass                 string `json:"subclass"`
	USPCSymbolText           string `json:"uspcSymbolText"`

	DocketNumber                  string      `json:"docketNumber"`
	ApplicationConfirmationNumber json.Number `json:"applicationConfirmationNumber"`
	FirstInventorToFileIndicator  string      `json:"firstInventorToFileIndicator"`

	EntityStatusData struct {
		BusinessEntityStatusCategory string `json:"businessEntityStatusCategory"`
		SmallEntityStatusIndicator   bool   `json:"smallEntityStatusIndicator"`
	} `json:"entityStatusData"`

	ApplicantBag []struct {
		ApplicantNameText string `json:"applicantNameText"`
	} `json:"applicantBag"`
	InventorBag []struct {
		InventorNameText string `json:"inventorNameText"`
	} `json:"inventorBag"`

	CPCClassificationBag            json.RawMessage `json:"cpcClassificationBag"`
	PublicationDateBag              json.RawMessage `json:"publicationDateBag"`
	PublicationSequenceNumberBag    json.RawMessage `json:"publicationSequenceNumberBag"`
	PublicationCategoryBag          json.RawMessage `json:"publicationCategoryBag"`
}

// rawBags re-reads the two name bags in raw form so the stored copies keep
// every upstream field, not just the names extracted for display.
type rawBags struct {
	ApplicantBag json.RawMessage `json:"applicantBag"`
	InventorBag  json.RawMessage `json:"inventorBag"`
}

// ParseApplication extracts the metadata field map and the transaction
// history from a root application payload.  A payload whose wrapper bag is
// empty means the application does not exist upstream.
func ParseApplication(raw json.RawMessage) (tracking.FieldMap, []tracking.Event, error) {
	var env applicationEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.CodeParseMalformed, "malformed application payload")
	}
	if len(env.PatentFileWrapperDataBag) == 0 {
		return nil, nil, appErrors.New(appErrors.CodeSourceNotFound, "application not present in USPTO response")
	}

	wrapper := env.PatentFileWrapperDataBag[0]
	meta := wrapper.ApplicationMetaData

	var applicants, inventors []string
	for _, a := range meta.ApplicantBag {
		if a.ApplicantNameText != "" {
			applicants = append(applicants, a.ApplicantNameText)
		}
	}
	for _, inv := range meta.InventorBag {
		if inv.InventorNameText != "" {
			inventors = append(inventors, inv.InventorNameText)
		}
	}
	applicant := ""
	if len(applicants) > 0 {
		applicant = applicants[0]
	}

	fields := tracking.FieldMap{
		"title":                 meta.InventionTitle,
		"applicant":             applicant,
		"inventor":              strings.Join(inventors, ", "),
		"filing_date":           meta.FilingDate,
		"effective_filing_date": meta.EffectiveFilingDate,
		"current_status":        meta.ApplicationStatusDescriptionText,
		"status_date":           meta.ApplicationStatusDate,
		"examiner":              meta.ExaminerNameText,
		"art_unit":              meta.GroupArtUnitNumber,
		"customer_number":       meta.CustomerNumber.String(),

		"patent_number":      meta.PatentNumber,
		"grant_date":         meta.GrantDate,
		"publication_number": meta.EarliestPublicationNumber,
		"publication_date":   meta.EarliestPublicationDate,

		"pct_publication_number":   meta.PCTPublicationNumber,
		"pct_publication_date":     meta.PCTPublicationDate,
		"national_stage_indicator": meta.NationalStageIndicator,

		"application_type_code":     meta.ApplicationTypeCode,
		"application_type_label":    meta.ApplicationTypeLabelName,
		"application_type_category": meta.ApplicationTypeCategory,
		"uspc_class":                meta.Class,
		"uspc_subclass":             meta.Subclass,
		"uspc_symbol":               meta.USPCSymbolText,

		"docket_number":          meta.DocketNumber,
		"confirmation_number":    meta.ApplicationConfirmationNumber.String(),
		"first_inventor_to_file": meta.FirstInventorToFileIndicator,
		"entity_status":          meta.EntityStatusData.BusinessEntityStatusCategory,
		"small_entity_indicator": meta.EntityStatusData.SmallEntityStatusIndicator,

		"cpc_classification_bag":          bagOrEmpty(meta.CPCClassificationBag),
		"publication_date_bag":            bagOrEmpty(meta.PublicationDateBag),
		"publication_sequence_number_bag": bagOrEmpty(meta.PublicationSequenceNumberBag),
		"publication_category_bag":        bagOrEmpty(meta.PublicationCategoryBag),
	}
	if meta.ApplicationStatusCode != nil {
		fields["status_code"] = *meta.ApplicationStatusCode
	}

	// Keep the untouched name bags alongside the extracted display values.
	var wrapperBags struct {
		ApplicationMetaData rawBags `json:"applicationMetaData"`
	}
	var bagsEnv struct {
		PatentFileWrapperDataBag []json.RawMessage `json:"patentFileWrapperDataBag"`
	}
	if json.Unmarshal(raw, &bagsEnv) == nil && len(bagsEnv.PatentFileWrapperDataBag) > 0 {
		if json.Unmarshal(bagsEnv.PatentFileWrapperDataBag[0], &wrapperBags) == nil {
			fields["applicant_bag"] = bagOrEmpty(wrapperBags.ApplicationMetaData.ApplicantBag)
			fields["inventor_bag"] = bagOrEmpty(wrapperBags.ApplicationMetaData.InventorBag)
		}
	}

	events := make([]tracking.Event, 0, len(wrapper.EventDataBag))
	for _, e := range wrapper.EventDataBag {
		events = append(events, tracking.Event{
			EventCode:        e.EventCode,
			EventDescription: e.EventDescriptionText,
			EventDate:        e.EventDate,
		})
	}
	return fields, events, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Patent Term Adjustment
// ─────────────────────────────────────────────────────────────────────────────

type adjustmentPayload struct {
	AdjustmentTotalQuantity            int             `json:"adjustmentTotalQuantity"`
	ADelayQuantity                     int             `json:"aDelayQuantity"`
	BDelayQuantity                     int             `json:"bDelayQuantity"`
	CDelayQuantity                     int             `json:"cDelayQuantity"`
	ApplicantDayDelayQuantity          int             `json:"applicantDayDelayQuantity"`
	OverlappingDayQuantity             int             `json:"overlappingDayQuantity"`
	NonOverlappingDayQuantity          int             `json:"nonOverlappingDayQuantity"`
	PatentTermAdjustmentHistoryDataBag json.RawMessage `json:"patentTermAdjustmentHistoryDataBag"`
}

// ParseAdjustment extracts the PTA day counts.  The total is also returned
// directly because the expiration recomputation needs it.  An empty payload
// (the sub-resource 404s for pre-grant applications) yields no fields.
func ParseAdjustment(raw json.RawMessage) (tracking.FieldMap, int, error) {
	if len(raw) == 0 {
		return tracking.FieldMap{}, 0, nil
	}
	var p adjustmentPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.CodeParseMalformed, "malformed adjustment payload")
	}
	return tracking.FieldMap{
		"pta_total_days":        p.AdjustmentTotalQuantity,
		"pta_a_delay":           p.ADelayQuantity,
		"pta_b_delay":           p.BDelayQuantity,
		"pta_c_delay":           p.CDelayQuantity,
		"pta_applicant_delay":   p.ApplicantDayDelayQuantity,
		"pta_overlap_delay":     p.OverlappingDayQuantity,
		"pta_non_overlap_delay": p.NonOverlappingDayQuantity,
		"pta_history_bag":       bagOrEmpty(p.PatentTermAdjustmentHistoryDataBag),
	}, p.AdjustmentTotalQuantity, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Continuity
// ─────────────────────────────────────────────────────────────────────────────

type continuityPayload struct {
	ParentContinuityBag []continuityEntry `json:"parentContinuityBag"`
	ChildContinuityBag  []continuityEntry `json:"childContinuityBag"`
}

type continuityEntry struct {
	ParentApplicationNumberText            string `json:"parentApplicationNumberText"`
	ParentPatentNumber                     string `json:"parentPatentNumber"`
	ParentApplicationFilingDate            string `json:"parentApplicationFilingDate"`
	ParentApplicationStatusDescriptionText string `json:"parentApplicationStatusDescriptionText"`
	ParentApplicationStatusCode            int    `json:"parentApplicationStatusCode"`

	ChildApplicationNumberText            string `json:"childApplicationNumberText"`
	ChildPatentNumber                     string `json:"childPatentNumber"`
	ChildApplicationFilingDate            string `json:"childApplicationFilingDate"`
	ChildApplicationStatusDescriptionText string `json:"childApplicationStatusDescriptionText"`
	ChildApplicationStatusCode            int    `json:"childApplicationStatusCode"`

	ClaimParentageTypeCode                string `json:"claimParentageTypeCode"`
	ClaimParentageTypeCodeDescriptionText string `json:"claimParentageTypeCodeDescriptionText"`
	FirstInventorToFileIndicator          bool   `json:"firstInventorToFileIndicator"`
}

// ParseContinuity flattens the parent and child bags into one relationship
// list, each row tagged with its direction relative to the owning patent.
func ParseContinuity(raw json.RawMessage) ([]tracking.Continuity, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var p continuityPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeParseMalformed, "malformed continuity payload")
	}

	out := make([]tracking.Continuity, 0, len(p.ParentContinuityBag)+len(p.ChildContinuityBag))
	for _, e := range p.ParentContinuityBag {
		out = append(out, tracking.Continuity{
			RelatedApplicationNumber: e.ParentApplicationNumberText,
			Relationship:             tracking.RelationParent,
			PatentNumber:             e.ParentPatentNumber,
			FilingDate:               e.ParentApplicationFilingDate,
			Status:                   e.ParentApplicationStatusDescriptionText,
			StatusCode:               e.ParentApplicationStatusCode,
			ClaimType:                e.ClaimParentageTypeCode,
			ClaimTypeDescription:     e.ClaimParentageTypeCodeDescriptionText,
			FirstInventorToFile:      e.FirstInventorToFileIndicator,
		})
	}
	for _, e := range p.ChildContinuityBag {
		out = append(out, tracking.Continuity{
			RelatedApplicationNumber: e.ChildApplicationNumberText,
			Relationship:             tracking.RelationChild,
			PatentNumber:             e.ChildPatentNumber,
			FilingDate:               e.ChildApplicationFilingDate,
			Status:                   e.ChildApplicationStatusDescriptionText,
			StatusCode:               e.ChildApplicationStatusCode,
			ClaimType:                e.ClaimParentageTypeCode,
			ClaimTypeDescription:     e.ClaimParentageTypeCodeDescriptionText,
			FirstInventorToFile:      e.FirstInventorToFileIndicator,
		})
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Documents
// ─────────────────────────────────────────────────────────────────────────────

type documentsPayload struct {
	DocumentBag []struct {
		DocumentIdentifier          string `json:"documentIdentifier"`
		DocumentCode                string `json:"documentCode"`
		DocumentCodeDescriptionText string `json:"documentCodeDescriptionText"`
		OfficialDate                string `json:"officialDate"`
		DocumentDirectionCategory   string `json:"documentDirectionCategory"`
		DownloadOptionBag           []struct {
			PageTotalQuantity int `json:"pageTotalQuantity"`
		} `json:"downloadOptionBag"`
	} `json:"documentBag"`
}

// ParseDocuments extracts file-wrapper document metadata.  Official dates
// arrive as timestamps; only the date part is kept.
func ParseDocuments(raw json.RawMessage) ([]tracking.Document, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var p documentsPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeParseMalformed, "malformed documents payload")
	}

	var rawOptions struct {
		DocumentBag []struct {
			DownloadOptionBag json.RawMessage `json:"downloadOptionBag"`
		} `json:"documentBag"`
	}
	_ = json.Unmarshal(raw, &rawOptions)

	out := make([]tracking.Document, 0, len(p.DocumentBag))
	for i, d := range p.DocumentBag {
		officialDate := d.OfficialDate
		if idx := strings.Index(officialDate, "T"); idx >= 0 {
			officialDate = officialDate[:idx]
		}
		pageCount := 0
		for _, opt := range d.DownloadOptionBag {
			if opt.PageTotalQuantity > 0 {
				pageCount = opt.PageTotalQuantity
				break
			}
		}
		var options json.RawMessage
		if i < len(rawOptions.DocumentBag) {
			options = rawOptions.DocumentBag[i].DownloadOptionBag
		}
		out = append(out, tracking.Document{
			DocumentIdentifier: d.DocumentIdentifier,
			DocumentCode:       d.DocumentCode,
			Description:        d.DocumentCodeDescriptionText,
			OfficialDate:       officialDate,
			Direction:          d.DocumentDirectionCategory,
			PageCount:          pageCount,
			DownloadOptions:    bagOrEmpty(options),
		})
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Assignments
// ─────────────────────────────────────────────────────────────────────────────

type assignmentsPayload struct {
	PatentAssignmentBag []struct {
		ReelNumber                     json.Number     `json:"reelNumber"`
		FrameNumber                    json.Number     `json:"frameNumber"`
		ReelAndFrameNumber             string          `json:"reelAndFrameNumber"`
		PageTotalQuantity              int             `json:"pageTotalQuantity"`
		AssignmentReceivedDate         string          `json:"assignmentReceivedDate"`
		AssignmentRecordedDate         string          `json:"assignmentRecordedDate"`
		AssignmentMailedDate           string          `json:"assignmentMailedDate"`
		ConveyanceText                 string          `json:"conveyanceText"`
		AssignorBag                    json.RawMessage `json:"assignorBag"`
		AssigneeBag                    json.RawMessage `json:"assigneeBag"`
		AssignmentDocumentLocationURI  string          `json:"assignmentDocumentLocationURI"`
	} `json:"patentAssignmentBag"`
}

// ParseAssignments extracts recorded ownership transfers.
func ParseAssignments(raw json.RawMessage) ([]tracking.Assignment, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var p assignmentsPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeParseMalformed, "malformed assignment payload")
	}

	out := make([]tracking.Assignment, 0, len(p.PatentAssignmentBag))
	for _, a := range p.PatentAssignmentBag {
		out = append(out, tracking.Assignment{
			ReelFrame:      a.ReelAndFrameNumber,
			ReelNumber:     a.ReelNumber.String(),
			FrameNumber:    a.FrameNumber.String(),
			PageCount:      a.PageTotalQuantity,
			ReceivedDate:   a.AssignmentReceivedDate,
			RecordedDate:   a.AssignmentRecordedDate,
			MailedDate:     a.AssignmentMailedDate,
			ConveyanceText: a.ConveyanceText,
			AssignorBag:    bagOrEmpty(a.AssignorBag),
			AssigneeBag:    bagOrEmpty(a.AssigneeBag),
			DocumentURL:    a.AssignmentDocumentLocationURI,
		})
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Attorney and foreign priority, stored whole as display bags
// ─────────────────────────────────────────────────────────────────────────────

// ParseAttorneys validates the attorney payload and returns it for storage.
func ParseAttorneys(raw json.RawMessage) (tracking.FieldMap, error) {
	if len(raw) == 0 {
		return tracking.FieldMap{"attorney_bag": emptyBag()}, nil
	}
	if !json.Valid(raw) {
		return nil, appErrors.New(appErrors.CodeParseMalformed, "malformed attorney payload")
	}
	return tracking.FieldMap{"attorney_bag": datatypes.JSON(raw)}, nil
}

type foreignPriorityPayload struct {
	ForeignPriorityBag json.RawMessage `json:"foreignPriorityBag"`
}

// ParseForeignPriority extracts the foreign priority claim bag for storage.
func ParseForeignPriority(raw json.RawMessage) (tracking.FieldMap, error) {
	if len(raw) == 0 {
		return tracking.FieldMap{"foreign_priority_bag": emptyBag()}, nil
	}
	var p foreignPriorityPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeParseMalformed, "malformed foreign priority payload")
	}
	return tracking.FieldMap{"foreign_priority_bag": bagOrEmpty(p.ForeignPriorityBag)}, nil
}

func bagOrEmpty(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 || string(raw) == "null" {
		return emptyBag()
	}
	return datatypes.JSON(raw)
}

func emptyBag() datatypes.JSON {
	return datatypes.JSON("[]")
}
