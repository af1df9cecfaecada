package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	HTTPAddr = "HTTP_ADDR"

	PostgresURL = "POSTGRES_URL"
	RedisAddr   = "REDIS_ADDR"

	GatewayAddr   = "GATEWAY_ADDR"
	GatewayAPIKey = "GATEWAY_API_KEY"
	PublicBaseURL = "PUBLIC_BASE_URL"

	Currency       = "CURRENCY"
	TaxRate        = "TAX_RATE"
	OrderTTL       = "ORDER_TTL"
	ExpiryInterval = "EXPIRY_INTERVAL"
	LockTTL        = "LOCK_TTL"

	SMTPAddr     = "SMTP_ADDR"
	SMTPUser     = "SMTP_USER"
	SMTPPassword = "SMTP_PASSWORD"
	MailFrom     = "MAIL_FROM"

	AdminUser     = "ADMIN_USER"
	AdminPassword = "ADMIN_PASSWORD"

	LogLevel       = "LOG_LEVEL"
	JaegerEndpoint = "JAEGER_ENDPOINT"

	// ConfigFile optionally points at a file with any of the keys above; env wins.
	ConfigFile = "CONFIG_FILE"
)

type Config struct {
	HTTPAddr string

	PostgresURL string
	RedisAddr   string

	GatewayAddr   string
	GatewayAPIKey string
	PublicBaseURL string

	Currency       string
	TaxRate        decimal.Decimal
	OrderTTL       time.Duration
	ExpiryInterval time.Duration
	LockTTL        time.Duration

	SMTPAddr     string
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	AdminUser     string
	AdminPassword string

	LogLevel       logrus.Level
	JaegerEndpoint string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(HTTPAddr, ":8080")
	v.SetDefault(Currency, "EUR")
	v.SetDefault(TaxRate, "0")
	v.SetDefault(OrderTTL, "30m")
	v.SetDefault(ExpiryInterval, "1m")
	v.SetDefault(LockTTL, "30s")
	v.SetDefault(LogLevel, "info")
	v.SetDefault(MailFrom, "tickets@boxoffice.local")
}

// Load reads the configuration from the environment of v.
func Load(v *viper.Viper) (Config, error) {
	v.AutomaticEnv()
	setDefaults(v)

	if file := v.GetString(ConfigFile); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("could not read config file %s: %w", file, err)
		}
	}

	for _, key := range []string{PostgresURL, RedisAddr, GatewayAddr, PublicBaseURL, SMTPAddr, AdminUser, AdminPassword} {
		if v.GetString(key) == "" {
			return Config{}, fmt.Errorf("%s is required", key)
		}
	}

	taxRate, err := decimal.NewFromString(v.GetString(TaxRate))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", TaxRate, err)
	}
	if taxRate.IsNegative() {
		return Config{}, fmt.Errorf("%s must not be negative", TaxRate)
	}

	level, err := logrus.ParseLevel(v.GetString(LogLevel))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", LogLevel, err)
	}

	cfg := Config{
		HTTPAddr:       v.GetString(HTTPAddr),
		PostgresURL:    v.GetString(PostgresURL),
		RedisAddr:      v.GetString(RedisAddr),
		GatewayAddr:    v.GetString(GatewayAddr),
		GatewayAPIKey:  v.GetString(GatewayAPIKey),
		PublicBaseURL:  v.GetString(PublicBaseURL),
		Currency:       v.GetString(Currency),
		TaxRate:        taxRate,
		OrderTTL:       v.GetDuration(OrderTTL),
		ExpiryInterval: v.GetDuration(ExpiryInterval),
		LockTTL:        v.GetDuration(LockTTL),
		SMTPAddr:       v.GetString(SMTPAddr),
		SMTPUser:       v.GetString(SMTPUser),
		SMTPPassword:   v.GetString(SMTPPassword),
		MailFrom:       v.GetString(MailFrom),
		AdminUser:      v.GetString(AdminUser),
		AdminPassword:  v.GetString(AdminPassword),
		LogLevel:       level,
		JaegerEndpoint: v.GetString(JaegerEndpoint),
	}

	if cfg.OrderTTL <= 0 {
		return Config{}, fmt.Errorf("%s must be positive", OrderTTL)
	}
	if cfg.ExpiryInterval <= 0 {
		return Config{}, fmt.Errorf("%s must be positive", ExpiryInterval)
	}
	if cfg.LockTTL <= 0 {
		return Config{}, fmt.Errorf("%s must be positive", LockTTL)
	}

	return cfg, nil
}

func (c Config) WebhookURL() string {
	return c.PublicBaseURL + "/webhooks/payments"
}

func (c Config) RedirectURL() string {
	return c.PublicBaseURL + "/orders/thanks"
}
