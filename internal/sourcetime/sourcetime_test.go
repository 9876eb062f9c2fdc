package sourcetime

import (
	"testing"
	"time"
)

func TestParseInstant(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  string
		ok    bool
	}{
		{"iso with offset", "2025-10-06T04:12:09+02:00", "2025-10-06T02:12:09Z", true},
		{"iso zulu", "2025-10-06T04:12:09Z", "2025-10-06T04:12:09Z", true},
		{"iso subsecond", "2025-10-06T04:12:09.123456Z", "2025-10-06T04:12:09Z", true},
		{"naive datetime", "2025-10-06 04:12:09", "2025-10-06T04:12:09Z", true},
		{"naive subsecond", "2025-10-06 04:12:09.5", "2025-10-06T04:12:09Z", true},
		{"bare date", "2025-10-06", "2025-10-06T00:00:00Z", true},
		{"padded", "  2025-10-06 04:12:09  ", "2025-10-06T04:12:09Z", true},
		{"empty", "", "", false},
		{"garbage", "last tuesday", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseInstant(tc.value)
			if ok != tc.ok {
				t.Fatalf("ParseInstant(%q) ok = %v, want %v", tc.value, ok, tc.ok)
			}
			if !tc.ok {
				return
			}
			if got.Location() != time.UTC {
				t.Fatalf("ParseInstant(%q) not in UTC", tc.value)
			}
			if got.Truncate(time.Second).Format(time.RFC3339) != tc.want {
				t.Fatalf("ParseInstant(%q) = %s, want %s", tc.value, got.Format(time.RFC3339Nano), tc.want)
			}
		})
	}
}

func TestExtractLastUpdated(t *testing.T) {
	cases := []struct {
		name string
		html string
		want string
		ok   bool
	}{
		{
			"slash date",
			`<span>Last updated: 2025/10/06</span>`,
			"2025-10-06T00:00:00Z", true,
		},
		{
			"slash date with time",
			`Last updated 2025/10/06 04:12:09`,
			"2025-10-06T04:12:09Z", true,
		},
		{
			"dashed datetime",
			`<div>Last updated: 2025-10-06 04:12:09</div>`,
			"2025-10-06T04:12:09Z", true,
		},
		{
			"dashed date only",
			`Last updated: 2025-10-06`,
			"2025-10-06T00:00:00Z", true,
		},
		{
			"month first",
			`Last updated: 10/06/2025`,
			"2025-10-06T00:00:00Z", true,
		},
		{
			"absent",
			`<html><body>no marker here</body></html>`,
			"", false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractLastUpdated(tc.html)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if tc.ok && got.Format(time.RFC3339) != tc.want {
				t.Fatalf("got %s, want %s", got.Format(time.RFC3339), tc.want)
			}
		})
	}
}

func TestBusinessDateDayBoundary(t *testing.T) {
	cases := []struct {
		instant string
		offset  int
		want    string
	}{
		{"2025-10-05T23:50:00Z", 1, "2025-10-04"},
		{"2025-10-06T00:10:00Z", 1, "2025-10-05"},
		{"2025-10-06T04:12:09Z", 1, "2025-10-05"},
		{"2025-10-06T04:12:09Z", 0, "2025-10-06"},
		{"2025-10-06T04:12:09Z", 2, "2025-10-04"},
	}
	for _, tc := range cases {
		instant, err := time.Parse(time.RFC3339, tc.instant)
		if err != nil {
			t.Fatalf("parse fixture: %v", err)
		}
		if got := BusinessDate(instant, tc.offset); got != tc.want {
			t.Fatalf("BusinessDate(%s, %d) = %s, want %s", tc.instant, tc.offset, got, tc.want)
		}
	}
}

func TestBusinessDateNormalizesZone(t *testing.T) {
	loc := time.FixedZone("plus2", 2*3600)
	// 01:30 at +02:00 is 23:30 UTC the previous day.
	instant := time.Date(2025, 10, 6, 1, 30, 0, 0, loc)
	if got := BusinessDate(instant, 1); got != "2025-10-04" {
		t.Fatalf("BusinessDate = %s, want 2025-10-04", got)
	}
}
