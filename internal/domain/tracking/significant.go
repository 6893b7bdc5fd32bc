package tracking

import "strings"

// significantEventCodes maps the transaction codes that mark prosecution
// milestones to their display labels.  Used by the updates view to let users
// filter routine docketing noise out of the event stream.
var significantEventCodes = map[string]string{
	"CTNF":  "Non-Final Rejection",
	"CTFR":  "Final Rejection",
	"NOA":   "Notice of Allowance",
	"IEXX":  "Initial Examination",
	"DOCK":  "Docketed to Examiner",
	"ABN":   "Abandonment",
	"ISSUE": "Patent Issued",
	"RCE":   "RCE Filed",
	"BRCE":  "RCE - Begin",
	"IDSC":  "IDS Considered",
	"WIDS":  "IDS Filed",
	"RESP":  "Response Filed",
	"A...":  "Amendment/Response",
}

// significantPrefixes covers the code families with per-variant suffixes
// (CTNF/CTFR/CT*, NOA variants, mailing codes).
var significantPrefixes = []string{"CT", "NOA", "ABN", "ISSUE", "RCE", "MAIL"}

// IsSignificantEvent reports whether an event code represents a prosecution
// milestone rather than routine docketing.
func IsSignificantEvent(code string) bool {
	if _, ok := significantEventCodes[code]; ok {
		return true
	}
	for _, prefix := range significantPrefixes {
		if strings.HasPrefix(code, prefix) {
			return true
		}
	}
	return false
}

// SignificantEventLabel returns the display label for a known significant
// code, or "" when the code has no canonical label.
func SignificantEventLabel(code string) string {
	return significantEventCodes[code]
}
