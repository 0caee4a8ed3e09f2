package config

import (
	"log"
	"time"

	"cleanly/models"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	StorageDriver     string `mapstructure:"STORAGE_DRIVER"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisLockDB   int    `mapstructure:"REDIS_LOCK_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Notification delivery: "queue" pushes through asynq + FCM, "log" only logs.
	Notifier                string `mapstructure:"NOTIFIER"`
	FirebaseCredentialsPath string `mapstructure:"FIREBASE_CREDENTIALS_PATH"`

	// Booking policy.
	BookingResponseWindow    time.Duration `mapstructure:"BOOKING_RESPONSE_WINDOW"`
	PenaltyWindowDays        int           `mapstructure:"PENALTY_WINDOW_DAYS"`
	PenaltyRollingMonths     int           `mapstructure:"PENALTY_ROLLING_MONTHS"`
	FreezeThreshold          int           `mapstructure:"FREEZE_THRESHOLD"`
	MaxRebookingAttempts     int           `mapstructure:"MAX_REBOOKING_ATTEMPTS"`
	CountdownRefreshInterval time.Duration `mapstructure:"COUNTDOWN_REFRESH_INTERVAL"`
	ExpirySweepInterval      time.Duration `mapstructure:"EXPIRY_SWEEP_INTERVAL"`
	PolicyTimezone           string        `mapstructure:"POLICY_TIMEZONE"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	d := models.DefaultPolicy()

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "cleanly")
	v.SetDefault("STORAGE_DRIVER", "mongo")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_LOCK_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("NOTIFIER", "log")
	v.SetDefault("FIREBASE_CREDENTIALS_PATH", "./config/firebase.json")

	v.SetDefault("BOOKING_RESPONSE_WINDOW", d.ResponseWindow)
	v.SetDefault("PENALTY_WINDOW_DAYS", d.PenaltyWindowDays)
	v.SetDefault("PENALTY_ROLLING_MONTHS", d.PenaltyRollingMonths)
	v.SetDefault("FREEZE_THRESHOLD", d.FreezeThreshold)
	v.SetDefault("MAX_REBOOKING_ATTEMPTS", d.MaxRebookingAttempts)
	v.SetDefault("COUNTDOWN_REFRESH_INTERVAL", d.CountdownRefresh)
	v.SetDefault("EXPIRY_SWEEP_INTERVAL", time.Minute)
	v.SetDefault("POLICY_TIMEZONE", "UTC")
}

// LoadConfig reads config.yaml (if any) and the environment into AppConfig.
func LoadConfig() {
	v := viper.New()
	// Look for a config file named "config.yaml" in the current and "config" directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	// Automatically use environment variables where available.
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	cfg, err := unmarshal(v)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

func unmarshal(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Policy builds the booking policy from the loaded configuration, falling
// back to the observed defaults for any unset or invalid value.
func (c Config) Policy() models.BookingPolicy {
	p := models.DefaultPolicy()
	if c.BookingResponseWindow > 0 {
		p.ResponseWindow = c.BookingResponseWindow
	}
	if c.PenaltyWindowDays > 0 {
		p.PenaltyWindowDays = c.PenaltyWindowDays
	}
	if c.PenaltyRollingMonths > 0 {
		p.PenaltyRollingMonths = c.PenaltyRollingMonths
	}
	if c.FreezeThreshold > 0 {
		p.FreezeThreshold = c.FreezeThreshold
	}
	if c.MaxRebookingAttempts > 0 {
		p.MaxRebookingAttempts = c.MaxRebookingAttempts
	}
	if c.CountdownRefreshInterval > 0 {
		p.CountdownRefresh = c.CountdownRefreshInterval
	}
	if c.PolicyTimezone != "" {
		if loc, err := time.LoadLocation(c.PolicyTimezone); err == nil {
			p.Location = loc
		} else {
			log.Printf("invalid POLICY_TIMEZONE %q, using UTC: %v", c.PolicyTimezone, err)
		}
	}
	return p
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
