// Package config loads the service configuration from a YAML file.
// ${VAR} and ${VAR:-default} references in the file are replaced from the
// environment, which may itself be seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/drone/envsubst"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// OAuthProvider holds the client registration of one OAuth provider.
// AuthURL and TokenURL override the built-in endpoints.
type OAuthProvider struct {
	ClientID     string   `yaml:"CLIENT_ID"`
	ClientSecret string   `yaml:"CLIENT_SECRET"`
	RedirectURL  string   `yaml:"REDIRECT_URL"`
	AuthURL      string   `yaml:"AUTH_URL"`
	TokenURL     string   `yaml:"TOKEN_URL"`
	Scopes       []string `yaml:"SCOPES"`
}

type Config struct {
	GRPCPort int    `yaml:"GRPC_PORT"`
	HTTPPort int    `yaml:"HTTP_PORT"`
	AppURL   string `yaml:"APP_URL"`
	TimeZone string `yaml:"TIMEZONE"`

	DBHost           string        `yaml:"DB_HOST"`
	DBPort           int           `yaml:"DB_PORT"`
	DBUser           string        `yaml:"DB_USER"`
	DBPassword       string        `yaml:"DB_PASSWORD"`
	DBName           string        `yaml:"DB_NAME"`
	DBSSLMode        string        `yaml:"DB_SSLMODE"`
	DBConnectTimeout time.Duration `yaml:"DB_CONNECT_TIMEOUT"`

	KafkaBrokers []string `yaml:"KAFKA_BROKERS"`
	Topic        string   `yaml:"TOPIC"`
	GroupID      string   `yaml:"KAFKA_GROUP_ID"`
	// ScoreInline runs match scoring inside the upload request instead of
	// leaving it to the scorer worker.
	ScoreInline bool `yaml:"SCORE_INLINE"`

	JWTSecret string `yaml:"JWT_SECRET"`

	S3Bucket          string `yaml:"S3_BUCKET"`
	S3Region          string `yaml:"S3_REGION"`
	S3Endpoint        string `yaml:"S3_ENDPOINT"`
	S3AccessKeyID     string `yaml:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `yaml:"S3_SECRET_ACCESS_KEY"`

	OCRAPIURL      string        `yaml:"OCR_API_URL"`
	OCRAPIKey      string        `yaml:"OCR_API_KEY"`
	OCRTimeout     time.Duration `yaml:"OCR_TIMEOUT"`
	OCRMaxAttempts int           `yaml:"OCR_MAX_ATTEMPTS"`
	OCRBaseDelay   time.Duration `yaml:"OCR_BASE_DELAY"`

	GCPProject  string `yaml:"GCP_PROJECT"`
	GCPLocation string `yaml:"GCP_LOCATION"`
	LLMModel    string `yaml:"LLM_MODEL"`

	// UploadInterval is the minimum gap between two files of one upload.
	UploadInterval time.Duration `yaml:"UPLOAD_INTERVAL"`
	MaxUploadSize  int64         `yaml:"MAX_UPLOAD_SIZE"`

	SMTPHost     string        `yaml:"SMTP_HOST"`
	SMTPPort     int           `yaml:"SMTP_PORT"`
	SMTPUser     string        `yaml:"SMTP_USER"`
	SMTPPassword string        `yaml:"SMTP_PASSWORD"`
	SMTPFrom     string        `yaml:"SMTP_FROM"`
	SMTPTimeout  time.Duration `yaml:"SMTP_TIMEOUT"`

	OAuth map[string]OAuthProvider `yaml:"OAUTH"`

	LinkedInAPIURL          string `yaml:"LINKEDIN_API_URL"`
	LinkedInOrganizationURN string `yaml:"LINKEDIN_ORGANIZATION_URN"`

	IMAPHost           string `yaml:"IMAP_HOST"`
	IMAPUser           string `yaml:"IMAP_USER"`
	IMAPPassword       string `yaml:"IMAP_PASSWORD"`
	IMAPMailbox        string `yaml:"IMAP_MAILBOX"`
	IMAPOrganizationID string `yaml:"IMAP_ORGANIZATION_ID"`
	IMAPMaxMessages    uint32 `yaml:"IMAP_MAX_MESSAGES"`
}

// Load reads the optional .env files, then the YAML file at path, and
// applies defaults.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded, err := envsubst.EvalEnv(string(raw))
	if err != nil {
		return nil, fmt.Errorf("expand config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func loadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.GRPCPort == 0 {
		c.GRPCPort = 50051
	}
	if c.HTTPPort == 0 {
		c.HTTPPort = 8080
	}
	if c.TimeZone == "" {
		c.TimeZone = "UTC"
	}
	if c.DBPort == 0 {
		c.DBPort = 5432
	}
	if c.DBSSLMode == "" {
		c.DBSSLMode = "disable"
	}
	if c.Topic == "" {
		c.Topic = "recruit.events"
	}
	if c.GroupID == "" {
		c.GroupID = "recruit-scorer"
	}
	if c.OCRAPIURL == "" {
		c.OCRAPIURL = "https://api.ocr.space/parse/image"
	}
	if c.OCRTimeout == 0 {
		c.OCRTimeout = 30 * time.Second
	}
	if c.OCRMaxAttempts == 0 {
		c.OCRMaxAttempts = 3
	}
	if c.OCRBaseDelay == 0 {
		c.OCRBaseDelay = time.Second
	}
	if c.GCPLocation == "" {
		c.GCPLocation = "us-central1"
	}
	if c.LLMModel == "" {
		c.LLMModel = "gemini-1.5-flash"
	}
	if c.UploadInterval == 0 {
		c.UploadInterval = 2 * time.Second
	}
	if c.MaxUploadSize == 0 {
		c.MaxUploadSize = 32 << 20
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = 587
	}
	if c.SMTPTimeout == 0 {
		c.SMTPTimeout = 30 * time.Second
	}
	if c.LinkedInAPIURL == "" {
		c.LinkedInAPIURL = "https://api.linkedin.com"
	}
	if c.IMAPMailbox == "" {
		c.IMAPMailbox = "INBOX"
	}
	if c.IMAPMaxMessages == 0 {
		c.IMAPMaxMessages = 50
	}
}

// Validate checks the settings every binary needs.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.DBHost == "" || c.DBName == "" {
		errs = append(errs, errors.New("DB_HOST and DB_NAME are required"))
	}
	if len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required"))
	}
	if c.UploadInterval < 0 {
		errs = append(errs, errors.New("UPLOAD_INTERVAL must not be negative"))
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
	}
	for name := range c.OAuth {
		if strings.ToLower(name) != name {
			errs = append(errs, fmt.Errorf("OAUTH provider %q must be lower case", name))
		}
	}
	return errors.Join(errs...)
}

// Location returns the configured time zone, UTC when it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
