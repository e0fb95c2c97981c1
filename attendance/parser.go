/*
parser.go - Attendance cell parser

PURPOSE:
  Turns one raw spreadsheet cell into a normalized attendance fragment
  {checkIn, checkOut, hoursWorked, status}. Sheets come from many sources
  with inconsistent conventions, so parsing never fails: a cell that matches
  nothing becomes Absent with zero hours and is logged.

RESOLUTION ORDER (first match wins):
  1. empty       "", "-", "undefined", "null", numeric zero      -> Absent, 0h
  2. range       "09:00-17:30", "9:00 to 17:30", "09:00 17:30"   -> computed hours
  3. times       two or more HH:MM tokens anywhere (first..last) -> computed hours
  4. check-in    exactly one HH:MM token                         -> HalfDay, 4h
  5. keyword     present/p/1/yes/y, half/h/hd/0.5, absent/a/0/no/n/leave/holiday
  6. hours       bare number in (0, 24]                          -> that many hours
  7. day number  integer 25..31                                  -> Present, 8h
  8. otherwise                                                   -> Absent, 0h

  Keywords are checked before bare numbers so "1" and "0.5" keep their
  status meaning instead of being read as one or half an hour.

STATUS FROM HOURS:
  >= 6h Present, >= 4h HalfDay, otherwise Present. Short but non-zero
  attendance still counts as present.
*/
package attendance

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Rule names the resolution step that classified a cell.
type Rule string

const (
	RuleEmpty        Rule = "empty"
	RuleRange        Rule = "range"
	RuleTimes        Rule = "times"
	RuleCheckIn      Rule = "check_in_only"
	RuleKeyword      Rule = "keyword"
	RuleHours        Rule = "hours"
	RuleDayNumber    Rule = "day_number"
	RuleUnrecognized Rule = "unrecognized"
)

// Fragment is the parsed content of one cell.
type Fragment struct {
	CheckIn     string          `json:"checkIn,omitempty"`
	CheckOut    string          `json:"checkOut,omitempty"`
	HoursWorked decimal.Decimal `json:"hoursWorked"`
	Status      Status          `json:"status"`
	Rule        Rule            `json:"rule"`
}

var (
	fullDayHours = decimal.NewFromInt(8)
	halfDayHours = decimal.NewFromInt(4)
	presentHours = decimal.NewFromInt(6)
	maxHours     = decimal.NewFromInt(24)

	rangePattern = regexp.MustCompile(`(?i)(\d{1,2}:\d{2})\s*(?:-|–|to|\s)\s*(\d{1,2}:\d{2})`)
	timePattern  = regexp.MustCompile(`\b\d{1,2}:\d{2}\b`)
)

var emptyValues = map[string]bool{
	"": true, "-": true, "--": true, "–": true, "—": true,
	"undefined": true, "null": true, "nil": true, "nan": true,
}

var presentWords = map[string]bool{"present": true, "p": true, "1": true, "yes": true, "y": true}

var halfWords = map[string]bool{
	"half": true, "h": true, "hd": true, "0.5": true,
	"half day": true, "half-day": true, "halfday": true,
}

var absentWords = map[string]bool{
	"absent": true, "a": true, "0": true, "no": true, "n": true,
	"leave": true, "holiday": true,
}

// Parser classifies raw attendance cells.
type Parser struct {
	logger logrus.FieldLogger
}

// NewParser creates a parser logging unrecognized cells to logger.
func NewParser(logger logrus.FieldLogger) *Parser {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Parser{logger: logger}
}

// Parse classifies one cell.
func (p *Parser) Parse(raw string) Fragment {
	value := strings.TrimSpace(raw)
	lower := strings.ToLower(value)

	if emptyValues[lower] {
		return absent(RuleEmpty)
	}
	if n, err := strconv.ParseFloat(lower, 64); err == nil && n == 0 {
		return absent(RuleEmpty)
	}

	if m := rangePattern.FindStringSubmatch(value); m != nil {
		if in, out, ok := clockPair(m[1], m[2]); ok {
			return fromTimes(in, out, RuleRange)
		}
	}

	tokens := validClocks(timePattern.FindAllString(value, -1))
	switch {
	case len(tokens) >= 2:
		return fromTimes(tokens[0], tokens[len(tokens)-1], RuleTimes)
	case len(tokens) == 1:
		return Fragment{CheckIn: tokens[0], HoursWorked: halfDayHours, Status: StatusHalfDay, Rule: RuleCheckIn}
	}

	switch {
	case presentWords[lower]:
		return Fragment{CheckIn: "09:00", CheckOut: "18:00", HoursWorked: fullDayHours, Status: StatusPresent, Rule: RuleKeyword}
	case halfWords[lower] || strings.Contains(lower, "half"):
		return Fragment{CheckIn: "09:00", CheckOut: "13:00", HoursWorked: halfDayHours, Status: StatusHalfDay, Rule: RuleKeyword}
	case absentWords[lower]:
		return absent(RuleKeyword)
	}

	if n, err := decimal.NewFromString(lower); err == nil {
		if n.IsPositive() && n.LessThanOrEqual(maxHours) {
			hours := n.Round(2)
			return Fragment{HoursWorked: hours, Status: statusFromHours(hours), Rule: RuleHours}
		}
		if n.IsInteger() && n.IntPart() >= 25 && n.IntPart() <= 31 {
			return Fragment{HoursWorked: fullDayHours, Status: StatusPresent, Rule: RuleDayNumber}
		}
	}

	p.logger.WithField("value", raw).Warn("Unrecognized attendance value, marking absent")
	return absent(RuleUnrecognized)
}

// ParseValue classifies a cell value as returned by spreadsheet readers.
func (p *Parser) ParseValue(v any) Fragment {
	switch val := v.(type) {
	case nil:
		return absent(RuleEmpty)
	case string:
		return p.Parse(val)
	case float64:
		return p.Parse(strconv.FormatFloat(val, 'f', -1, 64))
	case float32:
		return p.Parse(strconv.FormatFloat(float64(val), 'f', -1, 32))
	case int:
		return p.Parse(strconv.Itoa(val))
	case int64:
		return p.Parse(strconv.FormatInt(val, 10))
	case bool:
		if val {
			return p.Parse("present")
		}
		return absent(RuleKeyword)
	case decimal.Decimal:
		return p.Parse(val.String())
	case time.Time:
		return p.Parse(val.Format("15:04"))
	case fmt.Stringer:
		return p.Parse(val.String())
	default:
		return p.Parse(fmt.Sprint(val))
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func absent(rule Rule) Fragment {
	return Fragment{HoursWorked: decimal.Zero, Status: StatusAbsent, Rule: rule}
}

func statusFromHours(hours decimal.Decimal) Status {
	switch {
	case hours.GreaterThanOrEqual(presentHours):
		return StatusPresent
	case hours.GreaterThanOrEqual(halfDayHours):
		return StatusHalfDay
	default:
		return StatusPresent
	}
}

func fromTimes(in, out string, rule Rule) Fragment {
	hours := HoursBetween(in, out)
	return Fragment{CheckIn: in, CheckOut: out, HoursWorked: hours, Status: statusFromHours(hours), Rule: rule}
}

// HoursBetween returns the hours from in to out (both HH:MM), wrapping past
// midnight when out is earlier than in. Rounded to two decimals.
func HoursBetween(in, out string) decimal.Decimal {
	a, okA := clockMinutes(in)
	b, okB := clockMinutes(out)
	if !okA || !okB {
		return decimal.Zero
	}
	if b < a {
		b += 24 * 60
	}
	return decimal.NewFromInt(int64(b - a)).Div(decimal.NewFromInt(60)).Round(2)
}

func clockPair(a, b string) (string, string, bool) {
	in, okA := normalizeClock(a)
	out, okB := normalizeClock(b)
	return in, out, okA && okB
}

func validClocks(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if c, ok := normalizeClock(t); ok {
			out = append(out, c)
		}
	}
	return out
}

// normalizeClock zero-pads "9:05" to "09:05" and rejects out of range values.
func normalizeClock(s string) (string, bool) {
	minutes, ok := clockMinutes(s)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60), true
}

func clockMinutes(s string) (int, bool) {
	h, m, found := strings.Cut(s, ":")
	if !found {
		return 0, false
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 23 {
		return 0, false
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 {
		return 0, false
	}
	return hh*60 + mm, true
}
