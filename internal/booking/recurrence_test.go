package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rallyclub/courtbook/internal/store"
)

func tueThuRule() store.RecurringRule {
	return store.RecurringRule{
		ID:          uuid.New(),
		GroupID:     1,
		CourtID:     2,
		StartHour:   18,
		StartMinute: 0,
		EndHour:     19,
		EndMinute:   30,
		Weekdays:    []time.Weekday{time.Tuesday, time.Thursday},
		SeriesStart: time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
		SeriesEnd:   time.Date(2026, time.March, 29, 0, 0, 0, 0, time.UTC),
	}
}

func TestMaterializeInstances(t *testing.T) {
	rule := tueThuRule()

	instances := MaterializeInstances(rule, nil, time.Time{}, time.Time{})
	if len(instances) != 8 {
		t.Fatalf("expected 8 occurrences over 4 weeks, got %d", len(instances))
	}

	first := instances[0]
	wantStart := time.Date(2026, time.March, 3, 18, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, time.March, 3, 19, 30, 0, 0, time.UTC)
	if !first.StartTime.Equal(wantStart) || !first.EndTime.Equal(wantEnd) {
		t.Errorf("first occurrence = %v-%v, want %v-%v", first.StartTime, first.EndTime, wantStart, wantEnd)
	}
	if first.CourtID != rule.CourtID || first.GroupID != rule.GroupID {
		t.Errorf("occurrence court/group = %d/%d, want %d/%d", first.CourtID, first.GroupID, rule.CourtID, rule.GroupID)
	}
	if first.Cost != 0 {
		t.Errorf("generated occurrence has cost %d, want 0", first.Cost)
	}

	for _, inst := range instances {
		day := inst.StartTime.Weekday()
		if day != time.Tuesday && day != time.Thursday {
			t.Errorf("occurrence on %s, want Tuesday or Thursday", day)
		}
	}
}

func TestMaterializeInstancesIsIdempotent(t *testing.T) {
	rule := tueThuRule()

	a := MaterializeInstances(rule, nil, time.Time{}, time.Time{})
	b := MaterializeInstances(rule, nil, time.Time{}, time.Time{})
	if len(a) != len(b) {
		t.Fatalf("repeated expansion produced %d then %d instances", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("instance %d id changed between expansions: %s vs %s", i, a[i].ID, b[i].ID)
		}
	}
}

func TestMaterializeInstancesSkipsCancelledDates(t *testing.T) {
	rule := tueThuRule()
	cancelledDate := time.Date(2026, time.March, 10, 18, 0, 0, 0, time.UTC)

	exceptions := []store.Booking{{
		ID:             InstanceID(rule.ID, cancelledDate),
		RuleID:         rule.ID,
		OccurrenceDate: OccurrenceDate(cancelledDate),
		Cancelled:      true,
	}}

	instances := MaterializeInstances(rule, exceptions, time.Time{}, time.Time{})
	if len(instances) != 7 {
		t.Fatalf("expected 7 occurrences after one cancellation, got %d", len(instances))
	}
	for _, inst := range instances {
		if inst.OccurrenceDate == OccurrenceDate(cancelledDate) {
			t.Errorf("cancelled date %s still materialized", inst.OccurrenceDate)
		}
	}
}

func TestMaterializeInstancesEmitsOverrides(t *testing.T) {
	rule := tueThuRule()
	date := time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC)

	override := store.Booking{
		ID:             uuid.New(),
		CourtID:        5,
		GroupID:        rule.GroupID,
		StartTime:      time.Date(2026, time.March, 12, 9, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2026, time.March, 12, 10, 0, 0, 0, time.UTC),
		RuleID:         rule.ID,
		OccurrenceDate: OccurrenceDate(date),
	}

	instances := MaterializeInstances(rule, []store.Booking{override}, time.Time{}, time.Time{})
	if len(instances) != 8 {
		t.Fatalf("expected 8 occurrences, got %d", len(instances))
	}

	var found bool
	for _, inst := range instances {
		if inst.OccurrenceDate == override.OccurrenceDate {
			found = true
			if inst.ID != override.ID || inst.CourtID != 5 {
				t.Errorf("override date produced %+v, want the stored override", inst)
			}
		}
	}
	if !found {
		t.Fatal("override date missing from expansion")
	}
}

func TestMaterializeInstancesHonorsWindow(t *testing.T) {
	rule := tueThuRule()

	from := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	instances := MaterializeInstances(rule, nil, from, to)
	if len(instances) != 2 {
		t.Fatalf("expected 2 occurrences in one week, got %d", len(instances))
	}
}

func TestInstanceIDIsDeterministic(t *testing.T) {
	ruleID := uuid.New()
	start := time.Date(2026, time.March, 3, 18, 0, 0, 0, time.UTC)

	if InstanceID(ruleID, start) != InstanceID(ruleID, start) {
		t.Error("same rule and start produced different ids")
	}
	if InstanceID(ruleID, start) == InstanceID(uuid.New(), start) {
		t.Error("different rules produced the same id")
	}
	if InstanceID(ruleID, start) == InstanceID(ruleID, start.Add(time.Hour)) {
		t.Error("different starts produced the same id")
	}
}

func TestFirstOccurrence(t *testing.T) {
	rule := tueThuRule()
	first, ok := FirstOccurrence(rule)
	if !ok {
		t.Fatal("expected a first occurrence")
	}
	if got := first.StartTime.Weekday(); got != time.Tuesday {
		t.Errorf("first occurrence on %s, want Tuesday", got)
	}

	rule.Weekdays = nil
	if _, ok := FirstOccurrence(rule); ok {
		t.Error("rule without weekdays should produce no occurrences")
	}
}
