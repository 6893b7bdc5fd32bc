// Package tracking implements the tracked-application bounded context:
// entities, repository contracts, and the domain rules for application
// numbers, patent term, and event significance.  All business rules that
// concern tracked patents live here; persistence and the upstream API are
// handled by separate adapter layers.
package tracking

import (
	"time"

	"gorm.io/datatypes"
)

// Patent is the aggregate root: one USPTO application under tracking.
// Events, continuity records, documents, and assignments are owned
// compositions: they are meaningless without their patent and are removed
// with it.
//
// Dates coming from the upstream API are stored in their wire form
// (YYYY-MM-DD strings): they are calendar dates at the agency, not instants,
// and the string form compares correctly lexicographically.
type Patent struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	ApplicationNumber string `gorm:"uniqueIndex;not null" json:"application_number"`

	Title          string `json:"title"`
	Applicant      string `json:"applicant"`
	Inventor       string `json:"inventor"`
	Examiner       string `json:"examiner"`
	ArtUnit        string `json:"art_unit"`
	CustomerNumber string `json:"customer_number"`

	FilingDate          string `json:"filing_date"`
	EffectiveFilingDate string `json:"effective_filing_date"`
	CurrentStatus       string `json:"current_status"`
	StatusCode          *int   `json:"status_code"`
	StatusDate          string `json:"status_date"`

	PatentNumber      string `json:"patent_number"`
	GrantDate         string `json:"grant_date"`
	ExpirationDate    string `json:"expiration_date"`
	PublicationNumber string `json:"publication_number"`
	PublicationDate   string `json:"publication_date"`

	ApplicationTypeCode     string `json:"application_type_code"`
	ApplicationTypeLabel    string `json:"application_type_label"`
	ApplicationTypeCategory string `json:"application_type_category"`
	USPCClass               string `json:"uspc_class"`
	USPCSubclass            string `json:"uspc_subclass"`
	USPCSymbol              string `json:"uspc_symbol"`

	DocketNumber         string `json:"docket_number"`
	ConfirmationNumber   string `json:"confirmation_number"`
	FirstInventorToFile  string `json:"first_inventor_to_file"`
	EntityStatus         string `json:"entity_status"`
	SmallEntityIndicator bool   `json:"small_entity_indicator"`

	PCTPublicationNumber   string `json:"pct_publication_number"`
	PCTPublicationDate     string `json:"pct_publication_date"`
	NationalStageIndicator bool   `json:"national_stage_indicator"`

	// Patent Term Adjustment day counts from the adjustment sub-resource.
	PTATotalDays       int `json:"pta_total_days"`
	PTAADelay          int `gorm:"column:pta_a_delay" json:"pta_a_delay"`
	PTABDelay          int `gorm:"column:pta_b_delay" json:"pta_b_delay"`
	PTACDelay          int `gorm:"column:pta_c_delay" json:"pta_c_delay"`
	PTAApplicantDelay  int `json:"pta_applicant_delay"`
	PTAOverlapDelay    int `json:"pta_overlap_delay"`
	PTANonOverlapDelay int `json:"pta_non_overlap_delay"`

	// Denormalized display caches.  Each bag is rewritten in full whenever
	// the data it mirrors is re-fetched; it is never read back, modified, and
	// rewritten independently of the upstream payload.
	ApplicantBag                 datatypes.JSON `json:"applicant_bag"`
	InventorBag                  datatypes.JSON `json:"inventor_bag"`
	CPCClassificationBag         datatypes.JSON `json:"cpc_classification_bag"`
	PublicationDateBag           datatypes.JSON `json:"publication_date_bag"`
	PublicationSequenceNumberBag datatypes.JSON `json:"publication_sequence_number_bag"`
	PublicationCategoryBag       datatypes.JSON `json:"publication_category_bag"`
	PTAHistoryBag                datatypes.JSON `json:"pta_history_bag"`
	AttorneyBag                  datatypes.JSON `json:"attorney_bag"`
	ForeignPriorityBag           datatypes.JSON `json:"foreign_priority_bag"`

	LastChecked *time.Time `json:"last_checked"`
	CreatedAt   time.Time  `json:"created_at"`

	Events      []Event      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Continuity  []Continuity `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Documents   []Document   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Assignments []Assignment `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Event is one USPTO transaction-history entry.  The upstream history is
// append-only; rows are unique per (patent, code, date), never mutated after
// insert, and deleted only via patent cascade.
type Event struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	PatentID         uint   `gorm:"not null;index;uniqueIndex:uq_events_tuple" json:"patent_id"`
	EventCode        string `gorm:"uniqueIndex:uq_events_tuple" json:"event_code"`
	EventDescription string `json:"event_description"`
	EventDate        string `gorm:"index;uniqueIndex:uq_events_tuple" json:"event_date"`

	// FirstSeen is the local discovery timestamp; EventDate is when the
	// transaction happened at the agency.  "Recent updates" filters on
	// EventDate because users care about agency activity, not polling latency.
	FirstSeen time.Time `gorm:"autoCreateTime;index" json:"first_seen"`

	// IsNew drives unread badges in the presentation layer; cleared by
	// MarkSeen once the user has viewed the patent.
	IsNew bool `gorm:"default:true" json:"is_new"`
}

// Continuity is a parent or child relationship with another application.
// Upstream does not version these, so the set is replaced wholesale on each
// refresh.
type Continuity struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	PatentID uint `gorm:"not null;index;uniqueIndex:uq_continuity_tuple" json:"patent_id"`

	// RelatedApplicationNumber is the other application in the relationship.
	RelatedApplicationNumber string `gorm:"uniqueIndex:uq_continuity_tuple" json:"related_application_number"`
	// Relationship is RelationParent or RelationChild relative to the owner.
	Relationship string `gorm:"uniqueIndex:uq_continuity_tuple" json:"relationship"`

	PatentNumber         string `json:"patent_number"`
	FilingDate           string `json:"filing_date"`
	Status               string `json:"status"`
	StatusCode           int    `json:"status_code"`
	ClaimType            string `json:"claim_type"`
	ClaimTypeDescription string `json:"claim_type_description"`
	FirstInventorToFile  bool   `json:"first_inventor_to_file"`
}

// Continuity relationship directions.
const (
	RelationParent = "parent"
	RelationChild  = "child"
)

// Document is file-wrapper document metadata.
type Document struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	PatentID uint `gorm:"not null;index;uniqueIndex:uq_documents_tuple" json:"patent_id"`

	DocumentIdentifier string         `gorm:"uniqueIndex:uq_documents_tuple" json:"document_identifier"`
	DocumentCode       string         `json:"document_code"`
	Description        string         `json:"description"`
	OfficialDate       string         `json:"official_date"`
	Direction          string         `json:"direction"`
	PageCount          int            `json:"page_count"`
	DownloadOptions    datatypes.JSON `json:"download_options"`
}

// Assignment is one recorded ownership transfer.  ReelFrame is the USPTO
// recordation key; uniqueness on it makes the replace-on-refresh idempotent.
type Assignment struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	PatentID uint `gorm:"not null;index;uniqueIndex:uq_assignments_tuple" json:"patent_id"`

	ReelFrame      string         `gorm:"uniqueIndex:uq_assignments_tuple" json:"reel_frame"`
	ReelNumber     string         `json:"reel_number"`
	FrameNumber    string         `json:"frame_number"`
	PageCount      int            `json:"page_count"`
	ReceivedDate   string         `json:"received_date"`
	RecordedDate   string         `json:"recorded_date"`
	MailedDate     string         `json:"mailed_date"`
	ConveyanceText string         `json:"conveyance_text"`
	AssignorBag    datatypes.JSON `json:"assignor_bag"`
	AssigneeBag    datatypes.JSON `json:"assignee_bag"`
	DocumentURL    string         `json:"document_url"`
}

// Setting is one process-wide key/value preference.  Not versioned;
// last-write-wins.
type Setting struct {
	Key   string `gorm:"primaryKey" json:"key"`
	Value string `json:"value"`
}

// Well-known setting keys.
const (
	SettingPollInterval = "poll_interval"
	SettingLastPoll     = "last_poll"
)
