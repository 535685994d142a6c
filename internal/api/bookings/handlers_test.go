package bookings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rallyclub/courtbook/internal/booking"
	appdb "github.com/rallyclub/courtbook/internal/db"
)

var testDB *appdb.DB

// Handlers bind to package globals once, so the whole test binary shares one
// database. Tests keep to their own courts and days to stay independent.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "bookings-api-test")
	if err != nil {
		fmt.Fprintln(os.Stderr, "create temp dir:", err)
		os.Exit(1)
	}

	testDB, err = appdb.New(filepath.Join(dir, "test.db"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "create test db:", err)
		os.Exit(1)
	}
	svc, err := booking.NewService(testDB, booking.Options{})
	if err != nil {
		fmt.Fprintln(os.Stderr, "create service:", err)
		os.Exit(1)
	}
	InitHandlers(testDB, svc)

	code := m.Run()
	_ = testDB.Close()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newMember(t *testing.T, name string, balance int64) int64 {
	t.Helper()

	id, err := testDB.Store.CreateMember(context.Background(), name, balance)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	return id
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(raw))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()

	if err := json.NewDecoder(w.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHandleCreateBooking(t *testing.T) {
	memberID := newMember(t, "Alice", 0)
	day := time.Date(2026, time.April, 6, 0, 0, 0, 0, time.UTC)

	w := postJSON(t, HandleCreateBooking, "/api/v1/bookings", map[string]any{
		"court_id":  1,
		"member_id": memberID,
		"start":     day.Add(10 * time.Hour),
		"end":       day.Add(11 * time.Hour),
		"payment":   "front_desk",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var payload bookingPayload
	decodeBody(t, w, &payload)
	if payload.ID == "" || payload.CourtID != 1 || payload.MemberID != memberID {
		t.Errorf("payload = %+v", payload)
	}
}

func TestHandleCreateBookingConflict(t *testing.T) {
	memberID := newMember(t, "Bob", 0)
	day := time.Date(2026, time.April, 7, 0, 0, 0, 0, time.UTC)

	req := map[string]any{
		"court_id":  2,
		"member_id": memberID,
		"start":     day.Add(10 * time.Hour),
		"end":       day.Add(11 * time.Hour),
		"payment":   "front_desk",
	}
	if w := postJSON(t, HandleCreateBooking, "/api/v1/bookings", req); w.Code != http.StatusCreated {
		t.Fatalf("first booking status = %d", w.Code)
	}

	req["start"] = day.Add(10*time.Hour + 30*time.Minute)
	req["end"] = day.Add(11*time.Hour + 30*time.Minute)
	w := postJSON(t, HandleCreateBooking, "/api/v1/bookings", req)
	if w.Code != http.StatusConflict {
		t.Fatalf("conflict status = %d, body = %s", w.Code, w.Body.String())
	}

	var failure failureResponse
	decodeBody(t, w, &failure)
	if failure.Reason != string(booking.KindCourtConflict) {
		t.Errorf("failure reason = %q, want court", failure.Reason)
	}
	if failure.Message == "" {
		t.Error("failure carries no message")
	}
}

func TestHandleCreateBookingInsufficientCredits(t *testing.T) {
	memberID := newMember(t, "Cara", 2)
	day := time.Date(2026, time.April, 8, 0, 0, 0, 0, time.UTC)

	w := postJSON(t, HandleCreateBooking, "/api/v1/bookings", map[string]any{
		"court_id":  3,
		"member_id": memberID,
		"start":     day.Add(10 * time.Hour),
		"end":       day.Add(11 * time.Hour),
		"cost":      10,
		"payment":   "credits",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var failure failureResponse
	decodeBody(t, w, &failure)
	if failure.Reason != string(booking.KindInsufficientCredits) {
		t.Errorf("failure reason = %q", failure.Reason)
	}
}

func TestHandleCreateBookingBadBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	HandleCreateBooking(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleCancelBookingNotFound(t *testing.T) {
	w := postJSON(t, HandleCancelBooking, "/api/v1/bookings/cancel", map[string]any{
		"id": "0b3d2f68-33c9-4a6e-9b3e-0f6f6a3b7c11",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404, body = %s", w.Code, w.Body.String())
	}
}

func TestHandleCancelBookingInvalidID(t *testing.T) {
	w := postJSON(t, HandleCancelBooking, "/api/v1/bookings/cancel", map[string]any{
		"id": "not-a-uuid",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleCancelBookingRoundTrip(t *testing.T) {
	memberID := newMember(t, "Dan", 0)
	day := time.Date(2026, time.April, 9, 0, 0, 0, 0, time.UTC)

	w := postJSON(t, HandleCreateBooking, "/api/v1/bookings", map[string]any{
		"court_id":  4,
		"member_id": memberID,
		"start":     day.Add(10 * time.Hour),
		"end":       day.Add(11 * time.Hour),
		"payment":   "front_desk",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	var payload bookingPayload
	decodeBody(t, w, &payload)

	w = postJSON(t, HandleCancelBooking, "/api/v1/bookings/cancel", map[string]any{"id": payload.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, body = %s", w.Code, w.Body.String())
	}

	// Slot is free again.
	w = postJSON(t, HandleCreateBooking, "/api/v1/bookings", map[string]any{
		"court_id":  4,
		"member_id": memberID,
		"start":     day.Add(10 * time.Hour),
		"end":       day.Add(11 * time.Hour),
		"payment":   "front_desk",
	})
	if w.Code != http.StatusCreated {
		t.Errorf("rebook status = %d", w.Code)
	}
}

func TestHandleBlockAndCheckConflict(t *testing.T) {
	day := time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC)

	w := postJSON(t, HandleBlockSlot, "/api/v1/blocks", map[string]any{
		"court_id": 5,
		"start":    day.Add(9 * time.Hour),
		"end":      day.Add(12 * time.Hour),
		"reason":   "resurfacing",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("block status = %d, body = %s", w.Code, w.Body.String())
	}

	check := func(start, end time.Time) map[string]any {
		t.Helper()
		target := fmt.Sprintf("/api/v1/conflicts/check?court_id=5&start=%s&end=%s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		HandleCheckConflict(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("check status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var body map[string]any
		decodeBody(t, rec, &body)
		return body
	}

	blocked := check(day.Add(10*time.Hour), day.Add(11*time.Hour))
	if blocked["conflict"] != true || blocked["reason"] != string(booking.KindBlockedConflict) {
		t.Errorf("blocked window check = %v", blocked)
	}

	free := check(day.Add(13*time.Hour), day.Add(14*time.Hour))
	if free["conflict"] != false {
		t.Errorf("free window check = %v", free)
	}
}

func TestHandleSchedule(t *testing.T) {
	memberID := newMember(t, "Eve", 0)
	day := time.Date(2026, time.April, 13, 0, 0, 0, 0, time.UTC)

	w := postJSON(t, HandleCreateBooking, "/api/v1/bookings", map[string]any{
		"court_id":  6,
		"member_id": memberID,
		"start":     day.Add(10 * time.Hour),
		"end":       day.Add(11 * time.Hour),
		"payment":   "front_desk",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}

	target := fmt.Sprintf("/api/v1/schedule?from=%s&to=%s",
		day.Format(time.RFC3339), day.Add(24*time.Hour).Format(time.RFC3339))
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	HandleSchedule(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("schedule status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var entries []map[string]any
	decodeBody(t, rec, &entries)
	if len(entries) != 1 {
		t.Fatalf("schedule entries = %d, want 1", len(entries))
	}
	if entries[0]["kind"] != "booking" {
		t.Errorf("entry kind = %v", entries[0]["kind"])
	}
}

func TestHandleMemberCredits(t *testing.T) {
	memberID := newMember(t, "Fay", 12)
	day := time.Date(2026, time.April, 14, 0, 0, 0, 0, time.UTC)

	w := postJSON(t, HandleCreateBooking, "/api/v1/bookings", map[string]any{
		"court_id":  1,
		"member_id": memberID,
		"start":     day.Add(10 * time.Hour),
		"end":       day.Add(11 * time.Hour),
		"cost":      5,
		"payment":   "credits",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/members/credits?member_id=%d", memberID), nil)
	rec := httptest.NewRecorder()
	HandleMemberCredits(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("credits status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Balance      int64 `json:"balance"`
		Transactions []struct {
			Amount int64 `json:"amount"`
		} `json:"transactions"`
	}
	decodeBody(t, rec, &body)
	if body.Balance != 7 {
		t.Errorf("balance = %d, want 7", body.Balance)
	}
	if len(body.Transactions) != 1 || body.Transactions[0].Amount != -5 {
		t.Errorf("transactions = %+v", body.Transactions)
	}
}

func TestHandleMemberCreditsRejectsMalformedID(t *testing.T) {
	// Trailing garbage must not silently truncate to a valid id.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/members/credits?member_id=12abc", nil)
	rec := httptest.NewRecorder()
	HandleMemberCredits(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleListCourts(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/courts", nil)
	rec := httptest.NewRecorder()
	HandleListCourts(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var courts []struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		Indoor bool   `json:"indoor"`
	}
	decodeBody(t, rec, &courts)
	if len(courts) != 6 {
		t.Fatalf("got %d courts, want 6", len(courts))
	}
	if courts[0].Name != "Court 1" || courts[0].Indoor {
		t.Errorf("first court = %+v", courts[0])
	}
	if !courts[5].Indoor {
		t.Errorf("court 6 should be indoor: %+v", courts[5])
	}
}

func TestHandleTemplateListAndDelete(t *testing.T) {
	w := postJSON(t, HandleSaveTemplate, "/api/v1/templates/save", map[string]any{
		"name":       "spring week",
		"week_start": time.Date(2026, time.April, 20, 0, 0, 0, 0, time.UTC),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("save status = %d, body = %s", w.Code, w.Body.String())
	}
	var saved map[string]string
	decodeBody(t, w, &saved)
	templateID := saved["template_id"]
	if templateID == "" {
		t.Fatal("save response carries no template id")
	}

	listTemplates := func() map[string]string {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/templates", nil)
		rec := httptest.NewRecorder()
		HandleListTemplates(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("list status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var templates []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		decodeBody(t, rec, &templates)
		byID := make(map[string]string, len(templates))
		for _, tpl := range templates {
			byID[tpl.ID] = tpl.Name
		}
		return byID
	}

	if name := listTemplates()[templateID]; name != "spring week" {
		t.Errorf("listed template name = %q, want %q", name, "spring week")
	}

	w = postJSON(t, HandleDeleteTemplate, "/api/v1/templates/delete", map[string]any{"id": templateID})
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body = %s", w.Code, w.Body.String())
	}
	if _, ok := listTemplates()[templateID]; ok {
		t.Error("deleted template still listed")
	}

	w = postJSON(t, HandleDeleteTemplate, "/api/v1/templates/delete", map[string]any{"id": templateID})
	if w.Code != http.StatusNotFound {
		t.Errorf("re-delete status = %d, want 404", w.Code)
	}
}

func TestHandleAddRecurringRule(t *testing.T) {
	groupID, err := testDB.Store.CreateGroup(context.Background(), "Evening Clinic")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	w := postJSON(t, HandleAddRecurringRule, "/api/v1/rules", map[string]any{
		"group_id":     groupID,
		"court_id":     2,
		"start_hour":   20,
		"end_hour":     21,
		"weekdays":     []int{5},
		"series_start": time.Date(2026, time.May, 4, 0, 0, 0, 0, time.UTC),
		"series_end":   time.Date(2026, time.May, 31, 0, 0, 0, 0, time.UTC),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("rule status = %d, body = %s", w.Code, w.Body.String())
	}

	var body map[string]string
	decodeBody(t, w, &body)
	if body["rule_id"] == "" {
		t.Error("rule response carries no id")
	}

	w = postJSON(t, HandleAddRecurringRule, "/api/v1/rules", map[string]any{
		"group_id": groupID,
		"court_id": 2,
		"weekdays": []int{9},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid weekday status = %d, want 400", w.Code)
	}
}
