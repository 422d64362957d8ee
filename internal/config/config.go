package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	AppName    = "InfoCollect"
	AppVersion = "1.0.0"
)

// UserAgent identifies outbound webhook requests.
var UserAgent = AppName + "/" + AppVersion

type Config struct {
	Addr     string
	DBPath   string
	DataDir  string
	LogLevel string

	// SiteURL is the externally visible base URL of this installation.
	// Redirect targets from form posts must share its origin.
	SiteURL  string
	SiteName string

	// AdminEmail is the fallback recipient for notification mail.
	AdminEmail string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// WebhookInsecureSkipVerify disables TLS certificate verification for
	// outbound webhook calls. Default is verified.
	WebhookInsecureSkipVerify bool
}

func Load() Config {
	_ = godotenv.Load()

	dataDir := getenv("INFOCOLLECT_DATA_DIR", "./data")
	dbPath := getenv("INFOCOLLECT_DB_PATH", filepath.Join(dataDir, "infocollect.db"))

	return Config{
		Addr:     getenv("INFOCOLLECT_ADDR", ":8080"),
		DBPath:   filepath.Clean(dbPath),
		DataDir:  filepath.Clean(dataDir),
		LogLevel: getenv("INFOCOLLECT_LOG_LEVEL", "info"),

		SiteURL:  getenv("INFOCOLLECT_SITE_URL", "http://localhost:8080"),
		SiteName: getenv("INFOCOLLECT_SITE_NAME", AppName),

		AdminEmail: os.Getenv("INFOCOLLECT_ADMIN_EMAIL"),

		SMTPHost:     os.Getenv("INFOCOLLECT_SMTP_HOST"),
		SMTPPort:     getenvInt("INFOCOLLECT_SMTP_PORT", 587),
		SMTPUsername: os.Getenv("INFOCOLLECT_SMTP_USERNAME"),
		SMTPPassword: os.Getenv("INFOCOLLECT_SMTP_PASSWORD"),
		SMTPFrom:     getenv("INFOCOLLECT_SMTP_FROM", os.Getenv("INFOCOLLECT_ADMIN_EMAIL")),

		WebhookInsecureSkipVerify: getenvBool("INFOCOLLECT_WEBHOOK_INSECURE_SKIP_VERIFY", false),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
