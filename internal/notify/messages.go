// Package notify generates human-readable booking notifications and stores
// them for pickup. Delivery (push, email) belongs to a calling layer; this
// package is fire-and-forget message generation only.
package notify

import (
	"fmt"
	"time"
)

type BookingDetails struct {
	CourtName string
	Start     time.Time
	End       time.Time
	Cost      int64
}

// FormatDateTimeRange renders a booking window as a date line and a time
// range line.
func FormatDateTimeRange(start, end time.Time) (string, string) {
	date := start.Format("Monday, Jan 2, 2006")
	timeRange := fmt.Sprintf("%s - %s", start.Format("3:04 PM"), end.Format("3:04 PM"))
	return date, timeRange
}

func BookingConfirmed(d BookingDetails) string {
	date, timeRange := FormatDateTimeRange(d.Start, d.End)
	msg := fmt.Sprintf("Your booking on %s is confirmed for %s, %s.", d.CourtName, date, timeRange)
	if d.Cost > 0 {
		msg += fmt.Sprintf(" %d credits were charged.", d.Cost)
	}
	return msg
}

func BookingCancelled(d BookingDetails, refund int64) string {
	date, timeRange := FormatDateTimeRange(d.Start, d.End)
	msg := fmt.Sprintf("Your booking on %s for %s, %s was cancelled.", d.CourtName, date, timeRange)
	if refund > 0 {
		msg += fmt.Sprintf(" %d credits were refunded.", refund)
	}
	return msg
}

func GroupSessionScheduled(groupName string, d BookingDetails) string {
	date, timeRange := FormatDateTimeRange(d.Start, d.End)
	return fmt.Sprintf("'%s' session scheduled on %s for %s, %s.", groupName, d.CourtName, date, timeRange)
}

func OccurrenceCancelled(groupName string, d BookingDetails) string {
	date, _ := FormatDateTimeRange(d.Start, d.End)
	return fmt.Sprintf("The '%s' session on %s was cancelled for %s.", groupName, d.CourtName, date)
}

func SeriesScheduled(groupName, courtName string, weekdays string, timeRange string) string {
	return fmt.Sprintf("'%s' now meets on %s, %s, %s.", groupName, courtName, weekdays, timeRange)
}

func SeriesCancelled(groupName string) string {
	return fmt.Sprintf("All remaining '%s' sessions were cancelled.", groupName)
}

func BookingReminder(d BookingDetails) string {
	date, timeRange := FormatDateTimeRange(d.Start, d.End)
	return fmt.Sprintf("Reminder: %s is booked for you on %s, %s.", d.CourtName, date, timeRange)
}
