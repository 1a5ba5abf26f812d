package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config contains runtime configuration required by the service. It is
// built once in main and passed down explicitly; core packages never read
// the environment themselves.
type Config struct {
	Env        string
	DBURL      string
	ListenAddr string

	// AuthTokens is the set of device tokens the static gate accepts.
	AuthTokens []string

	// HoursPath points at the business-hours YAML; empty means always-open.
	HoursPath string

	// KafkaBrokers/EventsTopic enable the downstream event feed when set.
	KafkaBrokers []string
	EventsTopic  string
}

// Load reads required values from environment variables, after sourcing a
// local .env file when present (ignored if missing).
//
//	DB_URL        required, Postgres connection string
//	LISTEN_ADDR   default ":8080"
//	AUTH_TOKENS   comma-separated device tokens
//	HOURS_CONFIG  path to business-hours YAML
//	KAFKA_BROKERS comma-separated brokers (empty disables the event feed)
//	EVENTS_TOPIC  default "device-events"
//	APP_ENV       "production" switches the logger to JSON
func Load() (Config, error) {
	_ = godotenv.Load()

	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		return Config{}, errors.New("DB_URL required")
	}

	addr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if addr == "" {
		addr = ":8080"
	}

	tokens := splitList(os.Getenv("AUTH_TOKENS"))
	// Local dev fallback so the service runs out-of-the-box.
	if len(tokens) == 0 {
		tokens = []string{"device-token-123"}
	}

	brokers := splitList(os.Getenv("KAFKA_BROKERS"))

	topic := strings.TrimSpace(os.Getenv("EVENTS_TOPIC"))
	if topic == "" {
		topic = "device-events"
	}

	return Config{
		Env:          strings.TrimSpace(os.Getenv("APP_ENV")),
		DBURL:        dbURL,
		ListenAddr:   addr,
		AuthTokens:   tokens,
		HoursPath:    strings.TrimSpace(os.Getenv("HOURS_CONFIG")),
		KafkaBrokers: brokers,
		EventsTopic:  topic,
	}, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
