package payroll

import (
	"regexp"
	"strings"
	"time"
)

var (
	nonAlnum    = regexp.MustCompile(`[^A-Za-z0-9]+`)
	periodRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
)

// DeriveCode builds an upper-snake component code from its name and optional
// department, e.g. "House Allowance"/"Teaching" -> HOUSE_ALLOWANCE_TEACHING.
func DeriveCode(name, department string) string {
	raw := name
	if d := strings.TrimSpace(department); d != "" {
		raw = name + " " + d
	}
	code := nonAlnum.ReplaceAllString(raw, "_")
	return strings.ToUpper(strings.Trim(code, "_"))
}

// ParsePeriod validates a YYYY-MM period and returns its [start, end) bounds in UTC
func ParsePeriod(period string) (time.Time, time.Time, bool) {
	if !periodRegex.MatchString(period) {
		return time.Time{}, time.Time{}, false
	}
	start, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, start.AddDate(0, 1, 0), true
}
