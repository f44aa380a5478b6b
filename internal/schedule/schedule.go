package schedule

import "time"

// DateLayout is the storage format for scheduled dates and deadlines.
const DateLayout = "2006-01-02"

// Midnight truncates a timestamp to 00:00:00 in its location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay normalizes a timestamp to 23:59:59.999 so same-day deadline
// checks are inclusive.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999000000, t.Location())
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// EnrollmentReminderDate returns the date exactly leadDays business days
// (Mon-Fri) before hearingDate. The scan walks backward one calendar day at a
// time and only counts weekdays, so weekends never shrink the lead window.
// If hearingDate itself falls on a weekend, the scan still begins from the
// day immediately before it.
func EnrollmentReminderDate(hearingDate time.Time, leadDays int) time.Time {
	d := Midnight(hearingDate)
	remaining := leadDays
	for remaining > 0 {
		d = d.AddDate(0, 0, -1)
		if !isWeekend(d) {
			remaining--
		}
	}
	return d
}

// AppealDeadline returns deliberationDate + windowDays calendar days,
// normalized to end-of-day.
func AppealDeadline(deliberationDate time.Time, windowDays int) time.Time {
	return EndOfDay(Midnight(deliberationDate).AddDate(0, 0, windowDays))
}

// DaysUntil returns the whole-calendar-day difference from now to target.
// Both ends are normalized to midnight and the division rounds up, so
// "tomorrow at any hour" is always exactly 1.
func DaysUntil(now, target time.Time) int {
	from := Midnight(now)
	to := Midnight(target)
	diff := to.Sub(from)
	days := diff / (24 * time.Hour)
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return int(days)
}

// ShowReminderToday reports whether an enrollment reminder should fire:
// today >= reminderDate and today < hearingDate. The window closes once the
// hearing itself begins.
func ShowReminderToday(now, hearingDate, reminderDate time.Time) bool {
	today := Midnight(now)
	return !today.Before(Midnight(reminderDate)) && today.Before(Midnight(hearingDate))
}
