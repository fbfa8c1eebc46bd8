package licensesdk

import "time"

// ExpiryTimeFormat matches the ISO-8601 form the API stores (millisecond
// precision, "Z" suffix).
const ExpiryTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ExpiryAfter returns now plus the given number of whole calendar months, in UTC.
//
// Month arithmetic uses time.AddDate, which normalizes overflowing days into the
// following month: 2024-01-31 plus one month is 2024-03-02. The time of day is
// kept. Negative months are allowed and move the expiry into the past.
func ExpiryAfter(now time.Time, months int) time.Time {
	return now.UTC().AddDate(0, months, 0)
}

// FormatExpiry renders t the way CreateLicense sends it.
func FormatExpiry(t time.Time) string {
	return t.UTC().Format(ExpiryTimeFormat)
}
