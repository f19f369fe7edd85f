package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"

	"chequereminder/config"
	"chequereminder/tracing"
)

// Settings is the smtp subtree of the config. Recipients accepts either
// a YAML list or a comma-separated string.
type Settings struct {
	Server     string   `mapstructure:"server"`
	Port       int      `mapstructure:"port"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	Recipients []string `mapstructure:"recipients"`
}

// dialAndSend is swapped out in tests.
var dialAndSend = func(d *gomail.Dialer, m *gomail.Message) error {
	return d.DialAndSend(m)
}

// Notify emails the rendered reminder to every configured recipient and
// reports how many deliveries succeeded. An error is returned only when
// no recipient could be reached.
func Notify(subject, html string, ctx context.Context) (sent int, err error) {
	_, span := tracing.NewSpan("notify", ctx)
	defer span.End()

	var settings *Settings
	if err := config.Unmarshal("smtp", &settings); err != nil || settings == nil {
		log.Error().Err(err).Msg("Unable to load smtp config")
		return 0, fmt.Errorf("unable to load smtp settings")
	}
	recipients := cleanRecipients(settings.Recipients)
	if settings.Username == "" || settings.Password == "" || len(recipients) == 0 {
		log.Error().Msg("Notify missing config")
		return 0, fmt.Errorf("missing smtp config")
	}

	dialer := gomail.NewDialer(settings.Server, settings.Port, settings.Username, settings.Password)

	var lastErr error
	for _, to := range recipients {
		if viper.GetBool("dryrun") {
			log.Info().Msgf("(DRYRUN) %q -> %s", subject, to)
			sent++
			continue
		}

		m := gomail.NewMessage()
		m.SetHeader("From", settings.Username)
		m.SetHeader("To", to)
		m.SetHeader("Subject", subject)
		m.SetBody("text/html", html)

		if err := dialAndSend(dialer, m); err != nil {
			log.Error().Err(err).Msgf("Failed to send reminder to %s", to)
			lastErr = err
			continue
		}
		log.Info().Msgf("Reminder sent to %s", to)
		sent++
	}

	if sent == 0 {
		return 0, fmt.Errorf("failed to send reminder to all recipients: %w", lastErr)
	}
	log.Debug().Msgf("Reminders sent to %d/%d recipients", sent, len(recipients))
	return sent, nil
}

func cleanRecipients(recipients []string) []string {
	out := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
