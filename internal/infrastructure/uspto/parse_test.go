package uspto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/uspto-tools/pairwatch/internal/domain/tracking"
	appErrors "github.com/uspto-tools/pairwatch/pkg/errors"
)

const sampleApplication = `{
	"count": 1,
	"patentFileWrapperDataBag": [{
		"applicationNumberText": "17940142",
		"applicationMetaData": {
			"inventionTitle": "Widget control system",
			"filingDate": "2022-09-07",
			"effectiveFilingDate": "2022-09-07",
			"applicationStatusDescriptionText": "Docketed New Case - Ready for Examination",
			"applicationStatusCode": 30,
			"applicationStatusDate": "2023-01-15",
			"examinerNameText": "DOE, JANE",
			"groupArtUnitNumber": "2876",
			"customerNumber": 12345,
			"applicationConfirmationNumber": 1044,
			"applicationTypeCode": "UTL",
			"applicationTypeLabelName": "Utility",
			"entityStatusData": {
				"businessEntityStatusCategory": "Small",
				"smallEntityStatusIndicator": true
			},
			"applicantBag": [{"applicantNameText": "Acme Corp"}],
			"inventorBag": [
				{"inventorNameText": "Jane Doe"},
				{"inventorNameText": "John Roe"}
			],
			"cpcClassificationBag": ["G06F 3/041"]
		},
		"eventDataBag": [
			{"eventCode": "CTNF", "eventDescriptionText": "Non-Final Rejection", "eventDate": "2024-03-01"},
			{"eventCode": "DOCK", "eventDescriptionText": "Docketed New Case", "eventDate": "2023-01-15"}
		]
	}]
}`

func TestParseApplication(t *testing.T) {
	fields, events, err := ParseApplication(json.RawMessage(sampleApplication))
	require.NoError(t, err)

	assert.Equal(t, "Widget control system", fields["title"])
	assert.Equal(t, "Acme Corp", fields["applicant"])
	assert.Equal(t, "Jane Doe, John Roe", fields["inventor"])
	assert.Equal(t, "2022-09-07", fields["filing_date"])
	assert.Equal(t, "Docketed New Case - Ready for Examination", fields["current_status"])
	assert.Equal(t, 30, fields["status_code"])
	assert.Equal(t, "DOE, JANE", fields["examiner"])
	assert.Equal(t, "2876", fields["art_unit"])
	assert.Equal(t, "12345", fields["customer_number"])
	assert.Equal(t, "1044", fields["confirmation_number"])
	assert.Equal(t, "Small", fields["entity_status"])
	assert.Equal(t, true, fields["small_entity_indicator"])
	assert.JSONEq(t, `["G06F 3/041"]`, string(fields["cpc_classification_bag"].(datatypes.JSON)))

	require.Len(t, events, 2)
	assert.Equal(t, "CTNF", events[0].EventCode)
	assert.Equal(t, "Non-Final Rejection", events[0].EventDescription)
	assert.Equal(t, "2024-03-01", events[0].EventDate)
}

func TestParseApplication_PreservesFullNameBags(t *testing.T) {
	fields, _, err := ParseApplication(json.RawMessage(sampleApplication))
	require.NoError(t, err)

	assert.JSONEq(t, `[{"applicantNameText":"Acme Corp"}]`,
		string(fields["applicant_bag"].(datatypes.JSON)))
}

func TestParseApplication_EmptyWrapperIsNotFound(t *testing.T) {
	_, _, err := ParseApplication(json.RawMessage(`{"count":0,"patentFileWrapperDataBag":[]}`))
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.CodeSourceNotFound))
}

func TestParseApplication_MalformedJSON(t *testing.T) {
	_, _, err := ParseApplication(json.RawMessage(`<html>maintenance</html>`))
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.CodeParseMalformed))
}

func TestParseAdjustment(t *testing.T) {
	raw := json.RawMessage(`{
		"adjustmentTotalQuantity": 152,
		"aDelayQuantity": 101,
		"bDelayQuantity": 60,
		"cDelayQuantity": 0,
		"applicantDayDelayQuantity": 9,
		"patentTermAdjustmentHistoryDataBag": [{"caseActionDescriptionText": "Mailroom Date of NOA"}]
	}`)

	fields, total, err := ParseAdjustment(raw)
	require.NoError(t, err)
	assert.Equal(t, 152, total)
	assert.Equal(t, 152, fields["pta_total_days"])
	assert.Equal(t, 101, fields["pta_a_delay"])
	assert.Equal(t, 60, fields["pta_b_delay"])
	assert.Equal(t, 9, fields["pta_applicant_delay"])
}

func TestParseAdjustment_EmptyPayload(t *testing.T) {
	fields, total, err := ParseAdjustment(nil)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, fields)
}

func TestParseContinuity(t *testing.T) {
	raw := json.RawMessage(`{
		"parentContinuityBag": [{
			"parentApplicationNumberText": "16555000",
			"parentPatentNumber": "11222333",
			"parentApplicationFilingDate": "2019-08-28",
			"parentApplicationStatusDescriptionText": "Patented Case",
			"parentApplicationStatusCode": 150,
			"claimParentageTypeCode": "CON",
			"claimParentageTypeCodeDescriptionText": "Continuation",
			"firstInventorToFileIndicator": true
		}],
		"childContinuityBag": [{
			"childApplicationNumberText": "18111222",
			"childApplicationFilingDate": "2023-02-01",
			"childApplicationStatusDescriptionText": "Pending",
			"claimParentageTypeCode": "DIV"
		}]
	}`)

	got, err := ParseContinuity(raw)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, tracking.RelationParent, got[0].Relationship)
	assert.Equal(t, "16555000", got[0].RelatedApplicationNumber)
	assert.Equal(t, "11222333", got[0].PatentNumber)
	assert.Equal(t, 150, got[0].StatusCode)
	assert.Equal(t, "CON", got[0].ClaimType)
	assert.True(t, got[0].FirstInventorToFile)

	assert.Equal(t, tracking.RelationChild, got[1].Relationship)
	assert.Equal(t, "18111222", got[1].RelatedApplicationNumber)
	assert.Equal(t, "DIV", got[1].ClaimType)
}

func TestParseContinuity_MissingBagsYieldEmpty(t *testing.T) {
	got, err := ParseContinuity(json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseDocuments(t *testing.T) {
	raw := json.RawMessage(`{
		"documentBag": [{
			"documentIdentifier": "KXABCDE123",
			"documentCode": "CTNF",
			"documentCodeDescriptionText": "Non-Final Rejection",
			"officialDate": "2024-03-01T04:00:00.000Z",
			"documentDirectionCategory": "OUTGOING",
			"downloadOptionBag": [
				{"mimeTypeIdentifier": "PDF", "pageTotalQuantity": 12}
			]
		}]
	}`)

	got, err := ParseDocuments(raw)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "KXABCDE123", got[0].DocumentIdentifier)
	assert.Equal(t, "2024-03-01", got[0].OfficialDate)
	assert.Equal(t, "OUTGOING", got[0].Direction)
	assert.Equal(t, 12, got[0].PageCount)
	assert.Contains(t, string(got[0].DownloadOptions), "PDF")
}

func TestParseAssignments(t *testing.T) {
	raw := json.RawMessage(`{
		"patentAssignmentBag": [{
			"reelNumber": 61234,
			"frameNumber": 567,
			"reelAndFrameNumber": "61234/0567",
			"pageTotalQuantity": 5,
			"assignmentRecordedDate": "2022-10-01",
			"conveyanceText": "ASSIGNMENT OF ASSIGNORS INTEREST",
			"assignorBag": [{"assignorName": "Jane Doe"}],
			"assigneeBag": [{"assigneeNameText": "Acme Corp"}]
		}]
	}`)

	got, err := ParseAssignments(raw)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "61234/0567", got[0].ReelFrame)
	assert.Equal(t, "61234", got[0].ReelNumber)
	assert.Equal(t, "567", got[0].FrameNumber)
	assert.Equal(t, 5, got[0].PageCount)
	assert.Contains(t, string(got[0].AssigneeBag), "Acme Corp")
}

func TestParseForeignPriority(t *testing.T) {
	fields, err := ParseForeignPriority(json.RawMessage(`{
		"foreignPriorityBag": [{"ipOfficeName": "JAPAN", "filingDate": "2021-09-08"}]
	}`))
	require.NoError(t, err)
	assert.Contains(t, string(fields["foreign_priority_bag"].(datatypes.JSON)), "JAPAN")
}

func TestParseAttorneys_EmptyBecomesEmptyArray(t *testing.T) {
	fields, err := ParseAttorneys(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(fields["attorney_bag"].(datatypes.JSON)))
}
