// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rallyclub/courtbook/internal/api"
	apibookings "github.com/rallyclub/courtbook/internal/api/bookings"
	"github.com/rallyclub/courtbook/internal/booking"
	"github.com/rallyclub/courtbook/internal/config"
	appdb "github.com/rallyclub/courtbook/internal/db"
	"github.com/rallyclub/courtbook/internal/ratelimit"
)

func newServer(cfg *config.Config, database *appdb.DB, service *booking.Service) *http.Server {
	router := http.NewServeMux()

	limiter := ratelimit.New(nil)

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithRateLimit(limiter, cfg.App.Environment == "production"),
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithJSONContentType,
	)

	apibookings.InitHandlers(database, service)
	registerRoutes(router)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Booking routes
	mux.HandleFunc("/api/v1/bookings", apibookings.HandleCreateBooking)
	mux.HandleFunc("/api/v1/bookings/group", apibookings.HandleCreateGroupBooking)
	mux.HandleFunc("/api/v1/bookings/cancel", apibookings.HandleCancelBooking)
	mux.HandleFunc("/api/v1/bookings/update", apibookings.HandleUpdateBooking)
	mux.HandleFunc("/api/v1/bookings/cancel-batch", apibookings.HandleCancelMultiple)
	mux.HandleFunc("/api/v1/bookings/move", apibookings.HandleMoveMultiple)

	// Recurring rules
	mux.HandleFunc("/api/v1/rules", apibookings.HandleAddRecurringRule)

	// Maintenance blocks
	mux.HandleFunc("/api/v1/blocks", apibookings.HandleBlockSlot)
	mux.HandleFunc("/api/v1/blocks/unblock", apibookings.HandleUnblockSlot)

	// Weekly templates
	mux.HandleFunc("/api/v1/templates", apibookings.HandleListTemplates)
	mux.HandleFunc("/api/v1/templates/save", apibookings.HandleSaveTemplate)
	mux.HandleFunc("/api/v1/templates/apply", apibookings.HandleApplyTemplate)
	mux.HandleFunc("/api/v1/templates/delete", apibookings.HandleDeleteTemplate)

	// Reads
	mux.HandleFunc("/api/v1/courts", apibookings.HandleListCourts)
	mux.HandleFunc("/api/v1/schedule", apibookings.HandleSchedule)
	mux.HandleFunc("/api/v1/conflicts/check", apibookings.HandleCheckConflict)
	mux.HandleFunc("/api/v1/members/credits", apibookings.HandleMemberCredits)
	mux.HandleFunc("/api/v1/notifications", apibookings.HandleNotifications)
}
