package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"chequereminder/config"
	"chequereminder/notify"
	"chequereminder/reminder"
	"chequereminder/tracing"
)

func main() {
	godotenv.Load()

	shutdown, err := tracing.InitTraceProvider("chequereminder")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracing")
	}
	defer shutdown()

	ctx := context.Background()
	ctx, span := tracing.NewSpan("main", ctx)
	defer span.End()

	config.Init(ctx)

	checker := reminder.NewChecker(notify.Notify)

	switch {
	case viper.GetString("schedule") != "":
		runSchedule(checker, viper.GetString("schedule"))
	case viper.GetBool("serve"):
		if err := RunServer(checker); err != nil {
			log.Fatal().Err(err).Msg("Server failed")
		}
	default:
		if result := checker.RunCheck(ctx); !result.Success {
			span.End()
			shutdown()
			os.Exit(1)
		}
	}
}

// runSchedule keeps the process up and fires the check on a cron
// expression, for deployments without an external scheduler.
func runSchedule(checker *reminder.Checker, expr string) {
	c := cron.New()
	if _, err := c.AddFunc(expr, func() {
		checker.RunCheck(context.Background())
	}); err != nil {
		log.Fatal().Err(err).Msgf("Invalid schedule %q", expr)
	}
	log.Info().Msgf("Scheduler running with %q", expr)
	c.Start()
	select {}
}
