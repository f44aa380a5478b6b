package schedule

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEnrollmentReminderDateSkipsWeekends(t *testing.T) {
	// Monday 2026-02-09 minus 4 business days -> Tuesday 2026-02-03.
	got := EnrollmentReminderDate(date(2026, 2, 9), 4)
	want := date(2026, 2, 3)
	if !got.Equal(want) {
		t.Fatalf("got %s want %s", got.Format(DateLayout), want.Format(DateLayout))
	}
}

func TestEnrollmentReminderDateWeekendHearing(t *testing.T) {
	// Saturday hearing: scan begins from Friday, still counts 4 weekdays back.
	got := EnrollmentReminderDate(date(2026, 2, 14), 4)
	want := date(2026, 2, 10)
	if !got.Equal(want) {
		t.Fatalf("got %s want %s", got.Format(DateLayout), want.Format(DateLayout))
	}
}

func TestEnrollmentReminderDateAlwaysWeekdayBeforeHearing(t *testing.T) {
	start := date(2026, 1, 1)
	for i := 0; i < 120; i++ {
		h := start.AddDate(0, 0, i)
		r := EnrollmentReminderDate(h, 4)
		if !r.Before(Midnight(h)) {
			t.Fatalf("reminder %s not before hearing %s", r, h)
		}
		if isWeekend(r) {
			t.Fatalf("reminder %s falls on weekend for hearing %s", r, h)
		}
	}
}

func TestAppealDeadline(t *testing.T) {
	got := AppealDeadline(date(2026, 1, 26), 10)
	want := time.Date(2026, 2, 5, 23, 59, 59, 999000000, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, 3, 10, 17, 45, 0, 0, time.UTC)
	cases := []struct {
		target time.Time
		want   int
	}{
		{time.Date(2026, 3, 11, 1, 0, 0, 0, time.UTC), 1},
		{time.Date(2026, 3, 11, 23, 0, 0, 0, time.UTC), 1},
		{time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), 0},
		{time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC), -1},
		{time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), 10},
	}
	for _, c := range cases {
		if got := DaysUntil(now, c.target); got != c.want {
			t.Fatalf("DaysUntil(%s) = %d, want %d", c.target, got, c.want)
		}
	}
}

func TestDaysUntilMonotone(t *testing.T) {
	now := date(2026, 5, 1)
	prev := DaysUntil(now, now.AddDate(0, 0, -30))
	for i := -29; i <= 30; i++ {
		cur := DaysUntil(now, now.AddDate(0, 0, i))
		if cur < prev {
			t.Fatalf("DaysUntil not monotone at offset %d: %d < %d", i, cur, prev)
		}
		prev = cur
	}
}

func TestShowReminderToday(t *testing.T) {
	hearing := date(2026, 4, 10)
	reminder := date(2026, 4, 6)
	cases := []struct {
		now  time.Time
		want bool
	}{
		{date(2026, 4, 5), false},                                 // before window
		{date(2026, 4, 6), true},                                  // inclusive start
		{time.Date(2026, 4, 8, 14, 30, 0, 0, time.UTC), true},     // mid window, any hour
		{date(2026, 4, 10), false},                                // hearing day, exclusive end
		{date(2026, 4, 11), false},                                // after
	}
	for _, c := range cases {
		if got := ShowReminderToday(c.now, hearing, reminder); got != c.want {
			t.Fatalf("ShowReminderToday(%s) = %v, want %v", c.now, got, c.want)
		}
	}
}
