package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Delivery DeliveryConfig `mapstructure:"delivery"`
	Channels ChannelsConfig `mapstructure:"channels"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DeliveryConfig holds the core settings of the delivery orchestrator.
type DeliveryConfig struct {
	MaxRetries      int    `mapstructure:"max_retries"`
	Concurrency     int    `mapstructure:"concurrency"`
	DefaultLanguage string `mapstructure:"default_language"`
	StatsCacheTTL   int    `mapstructure:"stats_cache_ttl"` // seconds
}

// ChannelsConfig selects and configures one backend per channel. The provider
// field picks the variant; everything else is credentials for that variant.
type ChannelsConfig struct {
	SMS      SMSChannelConfig      `mapstructure:"sms"`
	WhatsApp WhatsAppChannelConfig `mapstructure:"whatsapp"`
	Email    EmailChannelConfig    `mapstructure:"email"`
}

type SMSChannelConfig struct {
	Provider      string       `mapstructure:"provider"` // twilio | msg91 | sns | simulated
	RatePerSecond float64      `mapstructure:"rate_per_second"`
	BatchSize     int          `mapstructure:"batch_size"`
	Twilio        TwilioConfig `mapstructure:"twilio"`
	MSG91         MSG91Config  `mapstructure:"msg91"`
	SNS           SNSConfig    `mapstructure:"sns"`
}

type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	FromNumber string `mapstructure:"from_number"`
	BaseURL    string `mapstructure:"base_url"`
}

type MSG91Config struct {
	AuthKey  string `mapstructure:"auth_key"`
	SenderID string `mapstructure:"sender_id"`
	Route    string `mapstructure:"route"`
	BaseURL  string `mapstructure:"base_url"`
}

type SNSConfig struct {
	Region   string `mapstructure:"region"`
	SenderID string `mapstructure:"sender_id"`
}

type WhatsAppChannelConfig struct {
	Provider      string               `mapstructure:"provider"` // cloud | bridge | simulated
	RatePerSecond float64              `mapstructure:"rate_per_second"`
	BatchSize     int                  `mapstructure:"batch_size"`
	Cloud         WhatsAppCloudConfig  `mapstructure:"cloud"`
	Bridge        WhatsAppBridgeConfig `mapstructure:"bridge"`
}

type WhatsAppCloudConfig struct {
	AccessToken   string `mapstructure:"access_token"`
	PhoneNumberID string `mapstructure:"phone_number_id"`
	BaseURL       string `mapstructure:"base_url"`
}

type WhatsAppBridgeConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	SessionID string `mapstructure:"session_id"`
}

type EmailChannelConfig struct {
	Provider      string     `mapstructure:"provider"` // ses | smtp | simulated
	RatePerSecond float64    `mapstructure:"rate_per_second"`
	BatchSize     int        `mapstructure:"batch_size"`
	SES           SESConfig  `mapstructure:"ses"`
	SMTP          SMTPConfig `mapstructure:"smtp"`
}

type SESConfig struct {
	Region    string `mapstructure:"region"`
	FromEmail string `mapstructure:"from_email"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	UseTLS   bool   `mapstructure:"use_tls"`
	From     string `mapstructure:"from"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds the prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}
