package tracking

import "time"

// DateLayout is the wire format for all upstream calendar dates.
const DateLayout = "2006-01-02"

// patentTermYears is the standard utility-patent term from the effective
// filing date.
const patentTermYears = 20

// CalculateExpirationDate computes the projected expiration date:
// filing date + 20 years + PTA days.  Inputs and output use DateLayout.
//
// A Feb 29 filing date whose 20-year anniversary lands in a non-leap year is
// clamped to Feb 28 rather than rolling into March; 20-year offsets cross
// leap-year boundaries routinely and the clamp matches how the term is
// actually docketed.  Empty or unparseable filing dates yield "".
func CalculateExpirationDate(filingDate string, ptaDays int) string {
	if filingDate == "" {
		return ""
	}
	filing, err := time.Parse(DateLayout, filingDate)
	if err != nil {
		return ""
	}

	year := filing.Year() + patentTermYears
	month := filing.Month()
	day := filing.Day()
	if month == time.February && day == 29 && !isLeapYear(year) {
		day = 28
	}

	expiration := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if ptaDays != 0 {
		expiration = expiration.AddDate(0, 0, ptaDays)
	}
	return expiration.Format(DateLayout)
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
