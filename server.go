package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"chequereminder/reminder"
)

// RunServer exposes the reminder check as an HTTP trigger. The check
// endpoint always answers 200 with a RunResult body; failures are
// reported inside the payload, matching the cron trigger contract.
func RunServer(checker *reminder.Checker) error {
	http.HandleFunc("/", CheckHandler(checker))
	http.HandleFunc("/healthz", HealthHandler)
	log.Info().Msg("Reminder trigger listening on port " + viper.GetString("port"))
	return http.ListenAndServe("0.0.0.0:"+viper.GetString("port"), nil)
}

func CheckHandler(checker *reminder.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug().Msgf("%s %s", r.Method, r.RequestURI)
		writeCORS(w)
		switch r.Method {
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
			return
		case http.MethodGet, http.MethodPost:
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		result := checker.RunCheck(r.Context())
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func writeCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}
