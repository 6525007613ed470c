// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Env         string `env:"FRIENDS_ENV" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`

	DB     DBConfig
	Redis  RedisConfig
	Mail   MailConfig
	Site   SiteConfig
	Invite InviteConfig

	// HookSecret authenticates calls from the email verification service.
	HookSecret string `env:"HOOK_SECRET"`
	// TokenExpireTime is "never", "0", "" or a time.ParseDuration string.
	TokenExpireTime string `env:"TOKEN_EXPIRE_TIME" envDefault:"72h"`
}

type DBConfig struct {
	User     string `env:"POSTGRES_USER" envDefault:"postgres"`
	Password string `env:"POSTGRES_PASSWORD"`
	Host     string `env:"PG_HOST" envDefault:"localhost"`
	Port     string `env:"PG_PORT" envDefault:"5432"`
	Database string `env:"PG_DATABASE" envDefault:"friends"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	Migrate  bool   `env:"DB_MIGRATE" envDefault:"false"`
}

// DSN builds the postgres:// connection string.
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + c.Port,
		Path:   "/" + c.Database,
	}
	return u.String()
}

type RedisConfig struct {
	Addr                 string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	DB                   int           `env:"REDIS_DB" envDefault:"0"`
	NoticeQueue          string        `env:"NOTICE_QUEUE_NAME" envDefault:"friends_notices"`
	NoticeChannelPrefix  string        `env:"NOTICE_CHANNEL_PREFIX" envDefault:"friends_notices:"`
	NotificationsEnabled bool          `env:"NOTIFICATIONS_ENABLED" envDefault:"true"`
	PairLockTTL          time.Duration `env:"PAIR_LOCK_TTL" envDefault:"5s"`
}

type MailConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"DEFAULT_FROM_EMAIL" envDefault:"noreply@localhost"`
}

// Enabled reports whether an SMTP relay was configured.
func (c MailConfig) Enabled() bool {
	return c.Host != ""
}

type SiteConfig struct {
	Name         string `env:"SITE_NAME" envDefault:"Friends"`
	URL          string `env:"SITE_URL" envDefault:"http://localhost:8080"`
	ContactEmail string `env:"CONTACT_EMAIL" envDefault:"support@localhost"`
}

type InviteConfig struct {
	// ConfirmationSecret keys the confirmation-key hash. Leave empty only in
	// development: keys are then unkeyed hashes of random input.
	ConfirmationSecret string        `env:"CONFIRMATION_SECRET"`
	JoinInvitationTTL  time.Duration `env:"JOIN_INVITATION_TTL" envDefault:"720h"`
	ExpireInterval     time.Duration `env:"EXPIRE_INTERVAL" envDefault:"1h"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.StoreDriver {
	case "postgres", "memory":
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	return cfg, nil
}

// Production reports whether the process runs in production mode.
func (c Config) Production() bool {
	return c.Env == "prod" || c.Env == "production"
}
