// internal/api/bookings/handlers.go
package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rallyclub/courtbook/internal/booking"
	"github.com/rallyclub/courtbook/internal/credits"
	appdb "github.com/rallyclub/courtbook/internal/db"
	"github.com/rallyclub/courtbook/internal/store"
)

var (
	service     *booking.Service
	database    *appdb.DB
	serviceOnce sync.Once
)

const bookingQueryTimeout = 5 * time.Second

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(db *appdb.DB, svc *booking.Service) {
	if db == nil || svc == nil {
		return
	}
	serviceOnce.Do(func() {
		database = db
		service = svc
	})
}

func loadService(w http.ResponseWriter, r *http.Request) *booking.Service {
	if service == nil {
		log.Ctx(r.Context()).Error().Msg("Booking service not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil
	}
	return service
}

type failureResponse struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func failureStatus(kind booking.Kind) int {
	switch kind {
	case booking.KindCourtConflict, booking.KindBlockedConflict, booking.KindCoachConflict,
		booking.KindInsufficientCredits:
		return http.StatusConflict
	case booking.KindBookingNotFound, booking.KindRuleNotFound, booking.KindTemplateNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// writeError maps business failures to structured JSON responses and
// everything else to a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var f *booking.Failure
	if errors.As(err, &f) {
		writeJSON(w, failureStatus(f.Kind), failureResponse{Reason: string(f.Kind), Message: f.Message})
		return
	}
	log.Ctx(r.Context()).Error().Err(err).Msg("Booking operation failed")
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), bookingQueryTimeout)
}

type bookingPayload struct {
	ID             string    `json:"id"`
	CourtID        int64     `json:"court_id"`
	MemberID       int64     `json:"member_id,omitempty"`
	GroupID        int64     `json:"group_id,omitempty"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Cost           int64     `json:"cost"`
	Notes          string    `json:"notes,omitempty"`
	RuleID         string    `json:"rule_id,omitempty"`
	OccurrenceDate string    `json:"occurrence_date,omitempty"`
}

func toBookingPayload(b store.Booking) bookingPayload {
	payload := bookingPayload{
		ID:             b.ID.String(),
		CourtID:        b.CourtID,
		MemberID:       b.MemberID,
		GroupID:        b.GroupID,
		Start:          b.StartTime,
		End:            b.EndTime,
		Cost:           b.Cost,
		Notes:          b.Notes,
		OccurrenceDate: b.OccurrenceDate,
	}
	if b.RuleID != uuid.Nil {
		payload.RuleID = b.RuleID.String()
	}
	return payload
}

// POST /api/v1/bookings
func HandleCreateBooking(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	var req struct {
		CourtID  int64     `json:"court_id"`
		MemberID int64     `json:"member_id"`
		Start    time.Time `json:"start"`
		End      time.Time `json:"end"`
		Cost     int64     `json:"cost"`
		Notes    string    `json:"notes"`
		Payment  string    `json:"payment"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	payment := booking.PaymentMethod(req.Payment)
	if payment == "" {
		payment = booking.PayWithCredits
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	created, err := svc.CreateSingleBooking(ctx, booking.CreateSingleBookingParams{
		CourtID:  req.CourtID,
		MemberID: req.MemberID,
		Start:    req.Start,
		End:      req.End,
		Cost:     req.Cost,
		Notes:    req.Notes,
		Payment:  payment,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingPayload(created))
}

// POST /api/v1/bookings/group
func HandleCreateGroupBooking(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	var req struct {
		GroupID int64     `json:"group_id"`
		CourtID int64     `json:"court_id"`
		Start   time.Time `json:"start"`
		End     time.Time `json:"end"`
		Notes   string    `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	created, err := svc.CreateGroupBooking(ctx, booking.CreateGroupBookingParams{
		GroupID: req.GroupID,
		CourtID: req.CourtID,
		Start:   req.Start,
		End:     req.End,
		Notes:   req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingPayload(created))
}

// POST /api/v1/bookings/cancel
func HandleCancelBooking(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	var req struct {
		ID    string `json:"id"`
		Scope string `json:"scope"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		http.Error(w, "invalid booking id", http.StatusBadRequest)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := svc.CancelBooking(ctx, id, booking.CancelScope(req.Scope)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// POST /api/v1/bookings/update
func HandleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	var req struct {
		ID         string     `json:"id"`
		CourtID    *int64     `json:"court_id"`
		Start      *time.Time `json:"start"`
		End        *time.Time `json:"end"`
		Notes      *string    `json:"notes"`
		EditSeries bool       `json:"edit_series"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		http.Error(w, "invalid booking id", http.StatusBadRequest)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	updated, err := svc.UpdateBooking(ctx, id, booking.BookingChanges{
		CourtID: req.CourtID,
		Start:   req.Start,
		End:     req.End,
		Notes:   req.Notes,
	}, req.EditSeries)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingPayload(updated))
}

// POST /api/v1/bookings/cancel-batch
func HandleCancelMultiple(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	var req struct {
		IDs []string `json:"ids"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	ids, ok := parseIDs(w, req.IDs)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	cancelled, err := svc.CancelMultipleBookings(ctx, ids)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cancelled": cancelled})
}

// POST /api/v1/bookings/move
func HandleMoveMultiple(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	var req struct {
		IDs            []string  `json:"ids"`
		AnchorID       string    `json:"anchor_id"`
		NewAnchorStart time.Time `json:"new_anchor_start"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	ids, ok := parseIDs(w, req.IDs)
	if !ok {
		return
	}
	anchorID, err := uuid.Parse(req.AnchorID)
	if err != nil {
		http.Error(w, "invalid anchor id", http.StatusBadRequest)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := svc.MoveMultipleBookings(ctx, ids, anchorID, req.NewAnchorStart); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "moved"})
}

func parseIDs(w http.ResponseWriter, raw []string) ([]uuid.UUID, bool) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, "invalid booking id: "+s, http.StatusBadRequest)
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

// POST /api/v1/rules
func HandleAddRecurringRule(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	var req struct {
		GroupID     int64     `json:"group_id"`
		CourtID     int64     `json:"court_id"`
		StartHour   int       `json:"start_hour"`
		StartMinute int       `json:"start_minute"`
		EndHour     int       `json:"end_hour"`
		EndMinute   int       `json:"end_minute"`
		Weekdays    []int     `json:"weekdays"`
		SeriesStart time.Time `json:"series_start"`
		SeriesEnd   time.Time `json:"series_end"`
		Notes       string    `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	weekdays := make([]time.Weekday, 0, len(req.Weekdays))
	for _, d := range req.Weekdays {
		if d < 0 || d > 6 {
			http.Error(w, "invalid weekday", http.StatusBadRequest)
			return
		}
		weekdays = append(weekdays, time.Weekday(d))
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	rule, err := svc.AddRecurringRule(ctx, booking.AddRecurringRuleParams{
		GroupID:     req.GroupID,
		CourtID:     req.CourtID,
		StartHour:   req.StartHour,
		StartMinute: req.StartMinute,
		EndHour:     req.EndHour,
		EndMinute:   req.EndMinute,
		Weekdays:    weekdays,
		SeriesStart: req.SeriesStart,
		SeriesEnd:   req.SeriesEnd,
		Notes:       req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"rule_id": rule.ID.String()})
}

// POST /api/v1/blocks
func HandleBlockSlot(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	var req struct {
		CourtID int64     `json:"court_id"`
		Start   time.Time `json:"start"`
		End     time.Time `json:"end"`
		Reason  string    `json:"reason"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	slot, err := svc.BlockSlot(ctx, booking.BlockSlotParams{
		CourtID: req.CourtID,
		Start:   req.Start,
		End:     req.End,
		Reason:  req.Reason,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"slot_id": slot.ID.String()})
}

// POST /api/v1/blocks/unblock
func HandleUnblockSlot(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	var req struct {
		ID string `json:"id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		http.Error(w, "invalid slot id", http.StatusBadRequest)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := svc.UnblockSlot(ctx, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unblocked"})
}

// POST /api/v1/templates/save
func HandleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	var req struct {
		Name      string    `json:"name"`
		WeekStart time.Time `json:"week_start"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	template, err := svc.SaveAsTemplate(ctx, req.Name, req.WeekStart)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"template_id": template.ID.String()})
}

// POST /api/v1/templates/apply
func HandleApplyTemplate(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	var req struct {
		TemplateID      string    `json:"template_id"`
		TargetWeekStart time.Time `json:"target_week_start"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		http.Error(w, "invalid template id", http.StatusBadRequest)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	created, err := svc.ApplyTemplate(ctx, templateID, req.TargetWeekStart)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payloads := make([]bookingPayload, 0, len(created))
	for _, b := range created {
		payloads = append(payloads, toBookingPayload(b))
	}
	writeJSON(w, http.StatusCreated, payloads)
}

// GET /api/v1/templates
func HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		log.Ctx(r.Context()).Error().Msg("Database not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	templates, err := database.Store.ListScheduleTemplates(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}

	type templatePayload struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"`
	}
	payloads := make([]templatePayload, 0, len(templates))
	for _, t := range templates {
		payloads = append(payloads, templatePayload{ID: t.ID.String(), Name: t.Name, CreatedAt: t.CreatedAt})
	}
	writeJSON(w, http.StatusOK, payloads)
}

// POST /api/v1/templates/delete
func HandleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	var req struct {
		ID string `json:"id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		http.Error(w, "invalid template id", http.StatusBadRequest)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := svc.DeleteTemplate(ctx, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GET /api/v1/courts
func HandleListCourts(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		log.Ctx(r.Context()).Error().Msg("Database not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	courts, err := database.Store.ListCourts(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}

	type courtPayload struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		Indoor bool   `json:"indoor"`
	}
	payloads := make([]courtPayload, 0, len(courts))
	for _, c := range courts {
		payloads = append(payloads, courtPayload{ID: c.ID, Name: c.Name, Indoor: c.Indoor})
	}
	writeJSON(w, http.StatusOK, payloads)
}

// GET /api/v1/schedule?from=RFC3339&to=RFC3339
func HandleSchedule(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, "invalid from time", http.StatusBadRequest)
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, "invalid to time", http.StatusBadRequest)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	items, err := svc.Schedule(ctx, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}

	type scheduleEntry struct {
		Kind    string          `json:"kind"`
		Booking *bookingPayload `json:"booking,omitempty"`
		Blocked any             `json:"blocked,omitempty"`
	}
	entries := make([]scheduleEntry, 0, len(items))
	for _, item := range items {
		switch item.Kind {
		case booking.ItemBooking:
			payload := toBookingPayload(*item.Booking)
			entries = append(entries, scheduleEntry{Kind: string(item.Kind), Booking: &payload})
		case booking.ItemBlocked:
			entries = append(entries, scheduleEntry{Kind: string(item.Kind), Blocked: map[string]any{
				"id":       item.Blocked.ID.String(),
				"court_id": item.Blocked.CourtID,
				"start":    item.Blocked.StartTime,
				"end":      item.Blocked.EndTime,
				"reason":   item.Blocked.Reason,
			}})
		}
	}
	writeJSON(w, http.StatusOK, entries)
}

func parseInt64(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

// GET /api/v1/members/credits?member_id=
func HandleMemberCredits(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		log.Ctx(r.Context()).Error().Msg("Database not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	memberID, err := parseInt64(r.URL.Query().Get("member_id"))
	if err != nil {
		http.Error(w, "invalid member id", http.StatusBadRequest)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	balance, err := credits.Balance(ctx, database.Store, memberID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := credits.Transactions(ctx, database.Store, memberID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	type transactionPayload struct {
		Amount      int64     `json:"amount"`
		Description string    `json:"description"`
		Method      string    `json:"method"`
		CreatedAt   time.Time `json:"created_at"`
	}
	payloads := make([]transactionPayload, 0, len(txs))
	for _, tx := range txs {
		payloads = append(payloads, transactionPayload{
			Amount:      tx.Amount,
			Description: tx.Description,
			Method:      tx.Method,
			CreatedAt:   tx.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"balance":      balance,
		"transactions": payloads,
	})
}

// GET /api/v1/notifications?recipient_id=
func HandleNotifications(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		log.Ctx(r.Context()).Error().Msg("Database not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	recipientID, err := parseInt64(r.URL.Query().Get("recipient_id"))
	if err != nil {
		http.Error(w, "invalid recipient id", http.StatusBadRequest)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	notifications, err := database.Store.ListNotifications(ctx, recipientID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	type notificationPayload struct {
		Message   string    `json:"message"`
		CreatedAt time.Time `json:"created_at"`
	}
	payloads := make([]notificationPayload, 0, len(notifications))
	for _, n := range notifications {
		payloads = append(payloads, notificationPayload{Message: n.Message, CreatedAt: n.CreatedAt})
	}
	writeJSON(w, http.StatusOK, payloads)
}

// GET /api/v1/conflicts/check?court_id=&start=&end=&group_id=
func HandleCheckConflict(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	query := r.URL.Query()
	courtID, err := parseInt64(query.Get("court_id"))
	if err != nil {
		http.Error(w, "invalid court id", http.StatusBadRequest)
		return
	}
	start, err := time.Parse(time.RFC3339, query.Get("start"))
	if err != nil {
		http.Error(w, "invalid start time", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(time.RFC3339, query.Get("end"))
	if err != nil {
		http.Error(w, "invalid end time", http.StatusBadRequest)
		return
	}
	opts := booking.ConflictOptions{}
	if raw := query.Get("group_id"); raw != "" {
		if opts.GroupID, err = parseInt64(raw); err != nil {
			http.Error(w, "invalid group id", http.StatusBadRequest)
			return
		}
	}
	if raw := query.Get("exclude_booking_id"); raw != "" {
		if opts.ExcludeBookingID, err = uuid.Parse(raw); err != nil {
			http.Error(w, "invalid exclude booking id", http.StatusBadRequest)
			return
		}
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	conflict, err := svc.CheckConflict(ctx, courtID, start, end, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if conflict == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"conflict": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conflict": true,
		"reason":   string(conflict.Kind),
		"message":  conflict.Message,
	})
}
