package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like CHANNELS_SMS_TWILIO_AUTH_TOKEN
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored when absent.
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string config values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig backfills credentials from well-known env vars when the
// YAML left them empty.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Channels.SMS.Twilio.AccountSID == "" {
		if val := os.Getenv("TWILIO_ACCOUNT_SID"); val != "" {
			cfg.Channels.SMS.Twilio.AccountSID = val
		}
	}
	if cfg.Channels.SMS.Twilio.AuthToken == "" {
		if val := os.Getenv("TWILIO_AUTH_TOKEN"); val != "" {
			cfg.Channels.SMS.Twilio.AuthToken = val
		}
	}
	if cfg.Channels.SMS.MSG91.AuthKey == "" {
		if val := os.Getenv("MSG91_AUTH_KEY"); val != "" {
			cfg.Channels.SMS.MSG91.AuthKey = val
		}
	}
	if cfg.Channels.WhatsApp.Cloud.AccessToken == "" {
		if val := os.Getenv("WHATSAPP_ACCESS_TOKEN"); val != "" {
			cfg.Channels.WhatsApp.Cloud.AccessToken = val
		}
	}
	if cfg.Channels.Email.SMTP.Password == "" {
		if val := os.Getenv("SMTP_PASSWORD"); val != "" {
			cfg.Channels.Email.SMTP.Password = val
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Delivery.MaxRetries == 0 {
		cfg.Delivery.MaxRetries = 3
	}
	if cfg.Delivery.Concurrency == 0 {
		cfg.Delivery.Concurrency = 8
	}
	if cfg.Delivery.DefaultLanguage == "" {
		cfg.Delivery.DefaultLanguage = "en"
	}
	if cfg.Delivery.StatsCacheTTL == 0 {
		cfg.Delivery.StatsCacheTTL = 30
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Channels.SMS.Provider == "" {
		cfg.Channels.SMS.Provider = "simulated"
	}
	if cfg.Channels.WhatsApp.Provider == "" {
		cfg.Channels.WhatsApp.Provider = "simulated"
	}
	if cfg.Channels.Email.Provider == "" {
		cfg.Channels.Email.Provider = "simulated"
	}
	if cfg.Channels.SMS.BatchSize == 0 {
		cfg.Channels.SMS.BatchSize = 100
	}
	if cfg.Channels.WhatsApp.BatchSize == 0 {
		cfg.Channels.WhatsApp.BatchSize = 1
	}
	if cfg.Channels.Email.BatchSize == 0 {
		cfg.Channels.Email.BatchSize = 50
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}
}

// validateConfig validates critical configuration fields.
func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if cfg.Delivery.MaxRetries < 0 {
		return fmt.Errorf("delivery.max_retries must not be negative")
	}
	if cfg.Delivery.Concurrency < 1 {
		return fmt.Errorf("delivery.concurrency must be at least 1")
	}

	for name, provider := range map[string]string{
		"channels.sms.provider":      cfg.Channels.SMS.Provider,
		"channels.whatsapp.provider": cfg.Channels.WhatsApp.Provider,
		"channels.email.provider":    cfg.Channels.Email.Provider,
	} {
		if provider == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	return nil
}

// GetDuration converts seconds from config to time.Duration.
func GetDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
