package notify

import (
	"strings"
	"testing"
	"time"
)

var testDetails = BookingDetails{
	CourtName: "Court 3",
	Start:     time.Date(2026, time.March, 3, 18, 0, 0, 0, time.UTC),
	End:       time.Date(2026, time.March, 3, 19, 30, 0, 0, time.UTC),
}

func TestFormatDateTimeRange(t *testing.T) {
	date, timeRange := FormatDateTimeRange(testDetails.Start, testDetails.End)
	if date != "Tuesday, Mar 3, 2026" {
		t.Errorf("date = %q", date)
	}
	if timeRange != "6:00 PM - 7:30 PM" {
		t.Errorf("time range = %q", timeRange)
	}
}

func TestBookingConfirmedMentionsCharge(t *testing.T) {
	plain := BookingConfirmed(testDetails)
	if strings.Contains(plain, "credits") {
		t.Errorf("free booking mentions credits: %q", plain)
	}

	paid := testDetails
	paid.Cost = 5
	msg := BookingConfirmed(paid)
	if !strings.Contains(msg, "5 credits were charged") {
		t.Errorf("paid booking message = %q", msg)
	}
}

func TestBookingCancelledMentionsRefund(t *testing.T) {
	msg := BookingCancelled(testDetails, 5)
	if !strings.Contains(msg, "cancelled") || !strings.Contains(msg, "5 credits were refunded") {
		t.Errorf("message = %q", msg)
	}

	plain := BookingCancelled(testDetails, 0)
	if strings.Contains(plain, "refunded") {
		t.Errorf("free cancellation mentions refund: %q", plain)
	}
}

func TestGroupMessagesNameTheGroup(t *testing.T) {
	for _, msg := range []string{
		GroupSessionScheduled("Juniors", testDetails),
		OccurrenceCancelled("Juniors", testDetails),
		SeriesScheduled("Juniors", "Court 3", "Tuesdays/Thursdays", "18:00-19:30"),
		SeriesCancelled("Juniors"),
	} {
		if !strings.Contains(msg, "'Juniors'") {
			t.Errorf("message does not name the group: %q", msg)
		}
	}
}
