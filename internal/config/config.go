package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config keeps runtime settings for the API, the bot and the background jobs.
type Config struct {
	Env            string
	Debug          bool
	HTTPAddr       string
	DatabaseDriver string
	DatabaseURL    string
	MongoDatabase  string
	GeminiAPIKey   string
	GeminiModel    string
	OracleTimeout  time.Duration
	JWTSecret      string
	TelegramToken  string
	ReminderTime   string
	HabitsTime     string
	Location       *time.Location
	RollbarToken   string
}

// Load reads .env files (if present) and environment variables.
// Variables already set in the environment win over .env files.
func Load() (Config, error) {
	env := strings.ToLower(strings.TrimSpace(os.Getenv("ENV")))
	if env == "" {
		env = "dev"
	}
	for _, path := range []string{".env." + env, ".env"} {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, fmt.Errorf("stat %s: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return fromViper(v, env)
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", false)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("database_driver", DriverSQLite)
	v.SetDefault("database_url", "study_planner.db")
	v.SetDefault("mongo_database", "studyplanner")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_model", "gemini-2.5-flash")
	v.SetDefault("oracle_timeout", 60*time.Second)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("telegram_token", "")
	v.SetDefault("reminder_time", "09:00")
	v.SetDefault("habits_time", "20:00")
	v.SetDefault("timezone", "")
	v.SetDefault("rollbar_token", "")
}

func fromViper(v *viper.Viper, env string) (Config, error) {
	cfg := Config{
		Env:            env,
		Debug:          v.GetBool("debug"),
		HTTPAddr:       strings.TrimSpace(v.GetString("http_addr")),
		DatabaseDriver: strings.ToLower(strings.TrimSpace(v.GetString("database_driver"))),
		DatabaseURL:    strings.TrimSpace(v.GetString("database_url")),
		MongoDatabase:  strings.TrimSpace(v.GetString("mongo_database")),
		GeminiAPIKey:   strings.TrimSpace(v.GetString("gemini_api_key")),
		GeminiModel:    strings.TrimSpace(v.GetString("gemini_model")),
		OracleTimeout:  v.GetDuration("oracle_timeout"),
		JWTSecret:      v.GetString("jwt_secret"),
		TelegramToken:  strings.TrimSpace(v.GetString("telegram_token")),
		ReminderTime:   strings.TrimSpace(v.GetString("reminder_time")),
		HabitsTime:     strings.TrimSpace(v.GetString("habits_time")),
		RollbarToken:   strings.TrimSpace(v.GetString("rollbar_token")),
		Location:       time.Local,
	}

	switch cfg.DatabaseDriver {
	case DriverSQLite, DriverMongo:
	default:
		return cfg, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverMongo, cfg.DatabaseDriver)
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.OracleTimeout <= 0 {
		return cfg, fmt.Errorf("ORACLE_TIMEOUT must be positive")
	}
	if _, err := time.Parse("15:04", cfg.ReminderTime); err != nil {
		return cfg, fmt.Errorf("REMINDER_TIME %q, expected HH:MM", cfg.ReminderTime)
	}
	if _, err := time.Parse("15:04", cfg.HabitsTime); err != nil {
		return cfg, fmt.Errorf("HABITS_TIME %q, expected HH:MM", cfg.HabitsTime)
	}
	if tz := strings.TrimSpace(v.GetString("timezone")); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return cfg, fmt.Errorf("TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}
	return cfg, nil
}

// OracleEnabled reports whether a Gemini key was configured.
func (c Config) OracleEnabled() bool {
	return c.GeminiAPIKey != ""
}
