package date

import (
	"encoding/json"
	"testing"
	"time"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		// Note that usually time.Time are not comparable (there is a pointer for the timezone) this
		// tests also checks that the property remain true
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected Date
		err      bool
	}{
		{"2025-01-15", New(2025, time.January, 15), false},
		{"2025-7-1", New(2025, time.July, 1), false},
		{"2010-01-29 00:00:00", New(2010, time.January, 29), false},
		{"2010-01-29T00:00:00Z", New(2010, time.January, 29), false},
		{"invalid-date", Date{}, true},
		{"", Date{}, true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.input)
		if (err != nil) != tt.err {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.err)
			continue
		}
		if got != tt.expected {
			t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestBusinessMonthEnd(t *testing.T) {
	tests := []struct {
		in   Date
		want Date
	}{
		{New(2010, time.January, 4), New(2010, time.January, 29)},  // 31st is a Sunday
		{New(2010, time.July, 15), New(2010, time.July, 30)},       // 31st is a Saturday
		{New(2010, time.March, 31), New(2010, time.March, 31)},     // Wednesday
		{New(2012, time.February, 1), New(2012, time.February, 29)}, // leap year
	}
	for _, tt := range tests {
		if got := tt.in.BusinessMonthEnd(); got != tt.want {
			t.Errorf("%v.BusinessMonthEnd() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStartEndOf(t *testing.T) {
	d := New(2025, time.August, 27) // a Wednesday
	tests := []struct {
		period     Period
		start, end Date
	}{
		{Daily, d, d},
		{Weekly, New(2025, time.August, 25), New(2025, time.August, 31)},
		{Monthly, New(2025, time.August, 1), New(2025, time.August, 31)},
		{Quarterly, New(2025, time.July, 1), New(2025, time.September, 30)},
		{Yearly, New(2025, time.January, 1), New(2025, time.December, 31)},
	}
	for _, tt := range tests {
		if got := d.StartOf(tt.period); got != tt.start {
			t.Errorf("StartOf(%v) = %v, want %v", tt.period, got, tt.start)
		}
		if got := d.EndOf(tt.period); got != tt.end {
			t.Errorf("EndOf(%v) = %v, want %v", tt.period, got, tt.end)
		}
	}
}

func TestDateJSON(t *testing.T) {
	d := New(2012, time.December, 31)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2012-12-31"` {
		t.Errorf("json.Marshal(%v) = %s", d, b)
	}
	var got Date
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got != d {
		t.Errorf("json.Unmarshal() = %v, want %v", got, d)
	}
}

func TestRangeIdentifier(t *testing.T) {
	tests := []struct {
		r    Range
		want string
	}{
		{Monthly.Range(New(2025, 3, 12)), "2025-03"},
		{Quarterly.Range(New(2025, 5, 12)), "2025-Q2"},
		{Yearly.Range(New(2025, 5, 12)), "2025"},
		{Daily.Range(New(2025, 5, 12)), "2025-05-12"},
		{NewRange(New(2025, 5, 12), New(2025, 5, 14)), "2025-05-12_2025-05-14"},
	}
	for _, tt := range tests {
		if got := tt.r.Identifier(); got != tt.want {
			t.Errorf("%v.Identifier() = %q, want %q", tt.r, got, tt.want)
		}
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"daily", Daily, false},
		{" Week", Weekly, false},
		{"MONTHLY", Monthly, false},
		{"quarter", Quarterly, false},
		{"yearly", Yearly, false},
		{"hourly", Daily, true},
	}
	for _, tt := range tests {
		got, err := ParsePeriod(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParsePeriod(%q) = %v, %v want %v (error %v)", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
	if got := Period(42).String(); got != "Period(42)" {
		t.Errorf("Period(42).String() = %q", got)
	}
}
