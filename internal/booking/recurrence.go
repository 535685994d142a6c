package booking

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rallyclub/courtbook/internal/store"
)

const occurrenceDateLayout = "2006-01-02"

// OccurrenceDate is the calendar-date key used to match a rule occurrence
// with its exception.
func OccurrenceDate(t time.Time) string {
	return t.Format(occurrenceDateLayout)
}

// InstanceID derives a deterministic identity for a materialized occurrence,
// so repeated materializations yield the same IDs and exceptions can be
// addressed by the instance a caller saw.
func InstanceID(ruleID uuid.UUID, start time.Time) uuid.UUID {
	return uuid.NewSHA1(ruleID, []byte(strconv.FormatInt(start.Unix(), 10)))
}

func combineDateTime(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}

func truncateDate(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

func weekdayMatches(days []time.Weekday, day time.Weekday) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

// MaterializeInstances expands a recurring rule into concrete bookings over
// [from, to] (zero values mean the rule's full series range). Dates with a
// cancellation exception are skipped; dates with an override exception emit
// the override instead of the default-derived instance. Generated instances
// always carry zero cost.
func MaterializeInstances(rule store.RecurringRule, exceptions []store.Booking, from, to time.Time) []store.Booking {
	byDate := make(map[string]store.Booking, len(exceptions))
	for _, exc := range exceptions {
		byDate[exc.OccurrenceDate] = exc
	}

	first := truncateDate(rule.SeriesStart)
	last := truncateDate(rule.SeriesEnd)
	if !from.IsZero() && truncateDate(from).After(first) {
		first = truncateDate(from)
	}
	if !to.IsZero() && truncateDate(to).Before(last) {
		last = truncateDate(to)
	}

	var instances []store.Booking
	for date := first; !date.After(last); date = date.AddDate(0, 0, 1) {
		if !weekdayMatches(rule.Weekdays, date.Weekday()) {
			continue
		}
		if exc, ok := byDate[OccurrenceDate(date)]; ok {
			if exc.Cancelled {
				continue
			}
			instances = append(instances, exc)
			continue
		}
		start := combineDateTime(date, rule.StartHour, rule.StartMinute)
		end := combineDateTime(date, rule.EndHour, rule.EndMinute)
		instances = append(instances, store.Booking{
			ID:             InstanceID(rule.ID, start),
			CourtID:        rule.CourtID,
			GroupID:        rule.GroupID,
			StartTime:      start,
			EndTime:        end,
			Notes:          rule.Notes,
			RuleID:         rule.ID,
			OccurrenceDate: OccurrenceDate(date),
		})
	}
	return instances
}

// FirstOccurrence returns the rule's earliest generated instance, or false
// when the rule produces none (empty weekday set or an exhausted range).
func FirstOccurrence(rule store.RecurringRule) (store.Booking, bool) {
	instances := MaterializeInstances(rule, nil, time.Time{}, time.Time{})
	if len(instances) == 0 {
		return store.Booking{}, false
	}
	return instances[0], true
}
