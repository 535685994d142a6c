package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/rallyclub/courtbook/internal/booking"
	"github.com/rallyclub/courtbook/internal/db"
	"github.com/rallyclub/courtbook/internal/directory"
	"github.com/rallyclub/courtbook/internal/notify"
	"github.com/rallyclub/courtbook/internal/store"
)

const reminderJobWindow = 15 * time.Minute

// RegisterReminderJob registers the scheduled task that notifies occupants
// of sessions starting leadTime from now, recurring instances included.
// Personal bookings notify the member; group sessions notify the group's
// coach.
func RegisterReminderJob(database *db.DB, svc *booking.Service, sink notify.Sink, cronExpr string, leadTime time.Duration) error {
	if database == nil {
		return fmt.Errorf("reminder job requires database")
	}
	if svc == nil {
		return fmt.Errorf("reminder job requires booking service")
	}
	if sink == nil {
		return fmt.Errorf("reminder job requires a notification sink")
	}

	jobName := "booking_reminders"
	jobLogger := log.With().
		Str("component", "booking_reminders_job").
		Str("job_name", jobName).
		Str("cron", cronExpr).
		Dur("lead_time", leadTime).
		Logger()

	_, err := AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		windowStart := time.Now().Add(leadTime)
		windowEnd := windowStart.Add(reminderJobWindow)

		// The materialized view, not the bookings table: standing recurring
		// sessions have no stored row until someone edits an occurrence.
		sessions, err := svc.UpcomingSessions(ctx, windowStart, windowEnd)
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to load sessions for reminder job")
			return
		}

		for _, session := range sessions {
			if err := sendBookingReminder(ctx, database.Store, sink, session); err != nil {
				jobLogger.Error().Err(err).Str("booking_id", session.ID.String()).Msg("Failed to send reminder")
			}
		}
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add booking reminder job: %w", err)
	}

	jobLogger.Info().Msg("Booking reminder job registered")
	return nil
}

func sendBookingReminder(ctx context.Context, st *store.Store, sink notify.Sink, session store.Booking) error {
	recipientID := session.MemberID
	if recipientID == 0 && session.GroupID != 0 {
		coach, err := directory.GroupCoach(ctx, st, session.GroupID)
		if err != nil {
			return err
		}
		if coach == nil {
			return nil
		}
		recipientID = coach.MemberID
	}
	if recipientID == 0 {
		return nil
	}

	court, err := st.GetCourt(ctx, session.CourtID)
	if err != nil {
		return fmt.Errorf("load court %d: %w", session.CourtID, err)
	}
	sink.Notify(ctx, recipientID, notify.BookingReminder(notify.BookingDetails{
		CourtName: court.Name,
		Start:     session.StartTime,
		End:       session.EndTime,
	}))
	return nil
}
