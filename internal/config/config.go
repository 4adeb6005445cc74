package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application-level knobs. Database and logger settings live
// with their packages; this covers auth policy, token signing, and mail.
type Config struct {
	ListenAddr    string
	ServerBaseURL string

	MaxLoginAttempts int
	SecretKey        string
	AccessTokenTTL   time.Duration

	MailSender   string // "log" or "smtp"
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// FromEnv reads config from environment variables with defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		ListenAddr:       env("LISTEN_ADDR", "0.0.0.0:8431"),
		ServerBaseURL:    strings.TrimRight(env("SERVER_BASE_URL", "http://localhost:8431"), "/"),
		MaxLoginAttempts: envInt("MAX_LOGIN_ATTEMPTS", 3),
		SecretKey:        env("SECRET_KEY", ""),
		AccessTokenTTL:   time.Duration(envInt("ACCESS_TOKEN_EXPIRE_MINUTES", 15)) * time.Minute,
		MailSender:       strings.ToLower(env("MAIL_SENDER", "log")),
		SMTPHost:         env("SMTP_HOST", "localhost"),
		SMTPPort:         envInt("SMTP_PORT", 2525),
		SMTPUsername:     env("SMTP_USERNAME", ""),
		SMTPPassword:     env("SMTP_PASSWORD", ""),
		SMTPFrom:         env("SMTP_FROM", "no-reply@example.com"),
	}
	if cfg.MaxLoginAttempts <= 0 {
		return Config{}, fmt.Errorf("MAX_LOGIN_ATTEMPTS must be positive")
	}
	if cfg.AccessTokenTTL <= 0 {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if len(cfg.SecretKey) < 16 {
		return Config{}, fmt.Errorf("SECRET_KEY must be set to at least 16 characters")
	}
	switch cfg.MailSender {
	case "log", "smtp":
	default:
		return Config{}, fmt.Errorf("MAIL_SENDER must be one of: log, smtp")
	}
	if cfg.MailSender == "smtp" && cfg.SMTPPort <= 0 {
		return Config{}, fmt.Errorf("invalid SMTP_PORT")
	}
	return cfg, nil
}

func env(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return d
	}
	return n
}
