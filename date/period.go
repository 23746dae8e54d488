package date

import (
	"fmt"
	"slices"
	"strings"
)

// Period is a standard calendar period.
type Period int

const (
	Daily Period = iota
	Weekly
	Monthly
	Quarterly
	Yearly
)

// periodNames are indexed by Period, and parsed along with their singular form.
var periodNames = []struct{ name, unit string }{
	{"daily", "day"},
	{"weekly", "week"},
	{"monthly", "month"},
	{"quarterly", "quarter"},
	{"yearly", "year"},
}

func (p Period) String() string {
	if p < 0 || int(p) >= len(periodNames) {
		return fmt.Sprintf("Period(%d)", int(p))
	}
	return periodNames[p].name
}

// Range returns the range of this period containing d.
func (p Period) Range(d Date) Range { return NewRange(d.StartOf(p), d.EndOf(p)) }

// ParsePeriod parses a period name like "monthly" or "month".
func ParsePeriod(p string) (Period, error) {
	p = strings.ToLower(strings.TrimSpace(p))
	i := slices.IndexFunc(periodNames, func(n struct{ name, unit string }) bool { return n.name == p || n.unit == p })
	if i < 0 {
		return Daily, fmt.Errorf("unknown period %q", p)
	}
	return Period(i), nil
}
