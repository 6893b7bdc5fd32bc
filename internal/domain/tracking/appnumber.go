package tracking

import (
	"strings"

	"github.com/uspto-tools/pairwatch/pkg/errors"
)

// appNumberCleaner strips the separators users paste in from Patent Center
// and docketing systems: "17/940,142" and "17 940 142" both normalize to
// "17940142".
var appNumberCleaner = strings.NewReplacer("/", "", ",", "", " ", "")

// NormalizeApplicationNumber reduces an application number to its digits-only
// canonical form.  All storage and API calls key on this form.
func NormalizeApplicationNumber(raw string) string {
	return appNumberCleaner.Replace(strings.TrimSpace(raw))
}

// ValidateApplicationNumber normalizes raw and rejects input that cannot be a
// US application number (empty or non-digit after separator stripping).
func ValidateApplicationNumber(raw string) (string, error) {
	n := NormalizeApplicationNumber(raw)
	if n == "" {
		return "", errors.InvalidParam("application number is empty")
	}
	for _, r := range n {
		if r < '0' || r > '9' {
			return "", errors.InvalidParam("application number must contain only digits").
				WithDetail("got " + raw)
		}
	}
	return n, nil
}

// FormatApplicationNumber renders the canonical form for display in the
// conventional SS/NNN,NNN layout (e.g. "17940142" → "17/940,142").  Numbers
// too short for that layout are returned as-is.
func FormatApplicationNumber(raw string) string {
	n := NormalizeApplicationNumber(raw)
	if len(n) < 8 {
		return n
	}
	return n[:2] + "/" + n[2:5] + "," + n[5:]
}

// PatentCenterURL returns the Patent Center landing page for an application.
func PatentCenterURL(applicationNumber string) string {
	return "https://patentcenter.uspto.gov/applications/" + NormalizeApplicationNumber(applicationNumber)
}

// PatentCenterDocumentsURL returns the Patent Center file-wrapper documents
// view, which loads more reliably than the landing page.
func PatentCenterDocumentsURL(applicationNumber string) string {
	return PatentCenterURL(applicationNumber) + "/ifw/docs"
}

// PublicPairURL returns the legacy Public PAIR query URL for an application.
func PublicPairURL(applicationNumber string) string {
	return "https://portal.uspto.gov/pair/PublicPair?appNumber=" + NormalizeApplicationNumber(applicationNumber)
}
