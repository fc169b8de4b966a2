package config

import "github.com/caarlos0/env/v9"

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	DBUser     string `env:"DB_USER,required"`
	DBPassword string `env:"DB_PASSWORD,required"`
	DBHost     string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName     string `env:"DB_NAME,required"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`

	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	// Payment gateway.
	GatewayURL         string `env:"GATEWAY_URL,required"`
	GatewayLogin       string `env:"GATEWAY_LOGIN,required"`
	GatewayKey         string `env:"GATEWAY_TRANSACTION_KEY,required"`
	WebhookSecret      string `env:"GATEWAY_WEBHOOK_SECRET"`
	GatewayEventPrefix string `env:"GATEWAY_EVENT_PREFIX" envDefault:"net.payment"`

	// Upstream account-management service.
	AccountBaseURL      string `env:"ACCOUNT_BASE_URL,required"`
	AccountTokenURL     string `env:"ACCOUNT_TOKEN_URL,required"`
	AccountClientID     string `env:"ACCOUNT_CLIENT_ID,required"`
	AccountClientSecret string `env:"ACCOUNT_CLIENT_SECRET,required"`

	// Outbound mail.
	SMTPHost   string `env:"SMTP_HOST"`
	SMTPPort   string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser   string `env:"SMTP_USERNAME"`
	SMTPPass   string `env:"SMTP_PASSWORD"`
	SMTPSender string `env:"SMTP_SENDER"`
	AdminEmail string `env:"ADMIN_EMAIL"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
