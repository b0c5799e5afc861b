package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	reYMD  = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})$`)
	reDMY  = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})$`)
	reDMY2 = regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})[-/](\d{2})$`)
)

// Date normalizes a raw date string to canonical YYYY-MM-DD. Accepted
// forms: YYYY-MM-DD, YYYY/MM/DD, DD-MM-YYYY, DD/MM/YYYY, DD.MM.YYYY and
// the two-digit-year DD-MM-YY (expanded to 20YY). Input longer than ten
// bytes is truncated first, so a trailing time component is ignored.
// When no pattern matches, the raw string comes back unmodified with
// ok=false; callers that tolerate free text keep it, callers that need
// a real date drop it.
func Date(raw string) (string, bool) {
	s := raw
	if len(s) > 10 {
		s = s[:10]
	}

	if m := reYMD.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], m[2], m[3], raw)
	}
	if m := reDMY.FindStringSubmatch(s); m != nil {
		return buildDate(m[3], m[2], m[1], raw)
	}
	if m := reDMY2.FindStringSubmatch(s); m != nil {
		return buildDate("20"+m[3], m[2], m[1], raw)
	}
	return raw, false
}

func buildDate(ys, ms, ds, raw string) (string, bool) {
	y, _ := strconv.Atoi(ys)
	mo, _ := strconv.Atoi(ms)
	d, _ := strconv.Atoi(ds)
	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return raw, false
	}
	// time.Date normalizes overflow (e.g. Feb 30 -> Mar 2); reject that.
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || t.Month() != time.Month(mo) || t.Day() != d {
		return raw, false
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, mo, d), true
}
