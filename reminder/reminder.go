package reminder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"

	"chequereminder/tracing"
)

// Reminders go out this many days before the payment is due.
const reminderLeadDays = 3

// ReminderRow is one cheque payment due for a reminder.
type ReminderRow struct {
	Mode string
	Due  time.Time
}

// RunResult is the outcome of one reminder check, as surfaced to the
// trigger (exit code, HTTP response).
type RunResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
	RemindersFound int    `json:"reminders_found"`
	EmailsSent     int    `json:"emails_sent"`
	Timestamp      string `json:"timestamp"`
}

// Sender delivers a rendered reminder to every configured recipient and
// reports how many deliveries succeeded.
type Sender func(subject, html string, ctx context.Context) (int, error)

// Checker wires the pipeline together: resolve candidate URLs, fetch,
// locate the header, resolve columns, normalize dates, select rows and
// hand the rendered email to the sender.
type Checker struct {
	Fetcher *Fetcher
	Send    Sender
}

func NewChecker(send Sender) *Checker {
	return &Checker{Fetcher: NewFetcher(), Send: send}
}

// RunCheck performs one full reminder check. Stage errors are logged and
// converted into a failed result, never propagated.
func (c *Checker) RunCheck(ctx context.Context) RunResult {
	ctx, span := tracing.NewSpan("reminder.runcheck", ctx)
	defer span.End()

	log.Info().Msg("Starting cheque payment due reminder check")

	if missing := missingConfig(); len(missing) > 0 {
		return fail(fmt.Errorf("missing configuration: %s", strings.Join(missing, ", ")), 0)
	}

	candidates := CandidateURLs(viper.GetString("sharepoint.shared_url"))
	data, err := c.Fetcher.Fetch(ctx, candidates)
	if err != nil {
		return fail(err, 0)
	}

	table, header, err := ParseWorkbook(data)
	if err != nil {
		return fail(err, 0)
	}
	log.Debug().Msgf("Parsed %d rows using header row %d", table.Len(), header)

	if _, err := ResolveColumns(table); err != nil {
		return fail(err, 0)
	}

	dates := NormalizeDates(table)

	rows := DueReminders(table, dates)
	span.SetAttributes(attribute.Int("reminders.found", len(rows)))
	if len(rows) == 0 {
		return ok("No cheque payment reminders needed today", 0, 0)
	}

	subject, html := RenderEmail(rows)
	sent, err := c.Send(subject, html, ctx)
	if sent == 0 {
		if err != nil {
			log.Error().Err(err).Msg("All recipients failed")
		}
		return fail(ErrMailDelivery, len(rows))
	}
	if err != nil {
		log.Warn().Err(err).Msgf("Some recipients failed, %d emails sent", sent)
	}
	return ok(fmt.Sprintf("Reminder check completed. %d reminders found, %d emails sent.", len(rows), sent), len(rows), sent)
}

// DueReminders selects the cheque rows whose due date lands exactly
// three days from now. Dates are compared as naive local calendar days.
func DueReminders(t *Table, dates []time.Time) []ReminderRow {
	target := time.Now().AddDate(0, 0, reminderLeadDays)
	ty, tm, td := target.Date()
	modes := t.Column(ColPaymentMode)

	var out []ReminderRow
	for i, due := range dates {
		mode := strings.ToLower(modes[i])
		if !strings.Contains(mode, "cheque") && !strings.Contains(mode, "check") {
			continue
		}
		y, m, d := due.Date()
		if y == ty && m == tm && d == td {
			out = append(out, ReminderRow{Mode: modes[i], Due: due})
		}
	}
	log.Info().Msgf("Found %d reminders due on %s", len(out), target.Format("2006-01-02"))
	return out
}

var requiredSettings = []string{"sharepoint.shared_url", "smtp.username", "smtp.password"}

func missingConfig() (missing []string) {
	for _, k := range requiredSettings {
		if viper.GetString(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(viper.GetStringSlice("smtp.recipients")) == 0 {
		missing = append(missing, "smtp.recipients")
	}
	return missing
}

func fail(err error, found int) RunResult {
	log.Error().Err(err).Msg("Reminder check failed")
	return RunResult{
		Success:        false,
		Error:          err.Error(),
		RemindersFound: found,
		Timestamp:      time.Now().Format(time.RFC3339),
	}
}

func ok(message string, found, sent int) RunResult {
	log.Info().Msg(message)
	return RunResult{
		Success:        true,
		Message:        message,
		RemindersFound: found,
		EmailsSent:     sent,
		Timestamp:      time.Now().Format(time.RFC3339),
	}
}
