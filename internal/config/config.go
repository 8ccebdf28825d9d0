package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for the document archive.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether an archive endpoint has been configured.
func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != ""
}

// KeysConfig points at the PEM-encoded signing key material.
type KeysConfig struct {
	PrivateKeyPath string
	PublicKeyPath  string
}

// LedgerConfig selects and tunes the signature ledger backend.
type LedgerConfig struct {
	// Backend is either "postgres" or "badger".
	Backend    string
	BadgerPath string
	SyncWrites bool
	// CacheSize is the number of records held by the read-through LRU; 0 disables it.
	CacheSize int
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// ProofConfig controls how proof tokens are rendered for scanning.
type ProofConfig struct {
	// VerifyBaseURL, when set, makes QR codes carry "<base>/verify?doc_id=<id>" instead of the raw token.
	VerifyBaseURL string
	QRSize        int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string
	Port        string
	ServiceName string
	MaxUploadMB int
	Database    DatabaseConfig
	MinIO       MinIOConfig
	Keys        KeysConfig
	Ledger      LedgerConfig
	Log         LogConfig
	Proof       ProofConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:     getEnv("APP_HOST", "localhost:8080"),
		Port:        getEnv("PORT", "8080"),
		ServiceName: getEnv("SERVICE_NAME", "esign"),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 20),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Keys: KeysConfig{
			PrivateKeyPath: getEnv("KEYS_PRIVATE_PATH", "keys/private.pem"),
			PublicKeyPath:  getEnv("KEYS_PUBLIC_PATH", "keys/public.pem"),
		},
		Ledger: LedgerConfig{
			Backend:    getEnv("LEDGER_BACKEND", "postgres"),
			BadgerPath: getEnv("LEDGER_BADGER_PATH", "data/ledger"),
			SyncWrites: getEnvBool("LEDGER_SYNC_WRITES", true),
			CacheSize:  getEnvInt("LEDGER_CACHE_SIZE", 1024),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Proof: ProofConfig{
			VerifyBaseURL: getEnv("PROOF_VERIFY_BASE_URL", ""),
			QRSize:        getEnvInt("PROOF_QR_SIZE", 256),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
