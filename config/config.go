package config

import (
	"bytes"
	"context"
	"encoding/base64"
	"flag"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"filippo.io/age"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"chequereminder/tracing"
)

var ageIdentity *age.X25519Identity

// Init wires flags, environment and the optional config file into viper.
// The environment contract matches the cron deployment: every setting can
// be driven by env vars alone, a config.yaml is optional.
func Init(ctx context.Context) {
	_, span := tracing.NewSpan("load.config", ctx)
	defer span.End()

	flag.Bool("v", false, "Verbose")
	flag.String("c", "config.yaml", "Config YAML")
	flag.String("a", "age.key", "Age private key")
	flag.Bool("dryrun", false, "Log reminders instead of emailing them")
	flag.Bool("serve", false, "Expose the HTTP trigger instead of running once")
	flag.String("schedule", "", "Cron expression to run the check on a schedule")
	flag.Int("log-level", int(zerolog.InfoLevel), "Log level")

	viper.RegisterAlias("verbose", "v")
	viper.RegisterAlias("config", "c")
	viper.RegisterAlias("agekey", "a")

	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)

	loadAgeIdentity()

	viper.SetDefault("port", "8080")
	viper.SetDefault("smtp.server", "smtp.gmail.com")
	viper.SetDefault("smtp.port", 587)

	viper.BindEnv("sharepoint.shared_url", "SHAREPOINT_SHARED_URL")
	viper.BindEnv("smtp.server", "SMTP_SERVER")
	viper.BindEnv("smtp.port", "SMTP_PORT")
	viper.BindEnv("smtp.username", "EMAIL_USERNAME")
	viper.BindEnv("smtp.password", "EMAIL_PASSWORD")
	viper.BindEnv("smtp.recipients", "RECIPIENT_EMAILS")
	viper.BindEnv("port", "PORT")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(filepath.Dir(viper.GetString("config")))
	viper.AddConfigPath("/etc/chequereminder/")

	if err := viper.ReadInConfig(); err != nil {
		if _, notfound := err.(viper.ConfigFileNotFoundError); !notfound {
			log.Fatal().Msg(err.Error())
		}
		log.Debug().Msg("No config file found, running from environment")
	} else {
		log.Debug().Msgf("Config: `%s`", viper.ConfigFileUsed())
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if viper.GetBool("verbose") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if viper.IsSet("log-level") {
		zerolog.SetGlobalLevel(zerolog.Level(viper.GetInt("log-level")))
	}
}

// Unmarshal decodes a config subtree into target. The subtree is
// rebuilt key by key because viper.UnmarshalKey resolves only the
// config file, not env bindings, and the env-only deployment has no
// config file at all. String values with an "age:" prefix are
// decrypted, comma-separated strings decode into slices.
func Unmarshal(key string, target interface{}) error {
	prefix := key + "."
	subtree := map[string]interface{}{}
	for _, k := range viper.AllKeys() {
		if strings.HasPrefix(k, prefix) {
			subtree[strings.TrimPrefix(k, prefix)] = viper.Get(k)
		}
	}
	if len(subtree) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			ageHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(subtree)
}

func loadAgeIdentity() {
	path := viper.GetString("agekey")
	b, err := os.ReadFile(path)
	if err != nil {
		log.Debug().Msgf("No age key loaded: %s", err.Error())
		return
	}
	re := regexp.MustCompile(`(s?)#.*\n`)
	c := re.ReplaceAll(b, nil)
	ageIdentity, err = age.ParseX25519Identity(strings.Trim(string(c), "\n"))
	if err != nil {
		log.Fatal().Msgf("Failed to load age key: %s", err.Error())
	}
}

func decodeAge(s string) string {
	enc := strings.TrimPrefix(s, "age:")
	eb, _ := base64.StdEncoding.DecodeString(enc)
	d, err := age.Decrypt(bytes.NewReader(eb), ageIdentity)
	if err != nil {
		log.Error().Err(err).Msg("Failed to decrypt age value")
		return s
	}
	b := &bytes.Buffer{}
	io.Copy(b, d)
	return b.String()
}

func ageHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t.Kind() != reflect.String {
			return data, nil
		}
		if !strings.HasPrefix(data.(string), "age:") {
			return data, nil
		}
		if ageIdentity == nil {
			log.Warn().Msg("Encrypted value found but no age key loaded")
			return data, nil
		}
		return decodeAge(data.(string)), nil
	}
}
