package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port             int    `envconfig:"PORT" default:"8080"`
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL      string `envconfig:"DATABASE_URL" required:"true"`
	JWTSecret        string `envconfig:"JWT_SECRET" required:"true"`
	JWTExpiryMinutes int    `envconfig:"JWT_EXPIRY_MINUTES" default:"480"`
	BcryptCost       int    `envconfig:"BCRYPT_COST" default:"12"`
	AdminEmail       string `envconfig:"ADMIN_EMAIL" default:"admin@sheetdesk.local"`
	AdminPassword    string `envconfig:"ADMIN_PASSWORD" default:""`
	SMTPHost         string `envconfig:"SMTP_HOST" default:""`
	SMTPPort         int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser         string `envconfig:"SMTP_USER" default:""`
	SMTPPassword     string `envconfig:"SMTP_PASSWORD" default:""`
	EmailFrom        string `envconfig:"EMAIL_FROM" default:"noreply@sheetdesk.local"`
	FrontendURL      string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
	Version          string `envconfig:"VERSION" default:"dev"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
