package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	// Hierarchy
	RootLabel    string
	SeedFile     string // Empty = embedded sample tree
	SeedDisabled bool
	// Blob store for saved scan results
	BlobBackend string // memory, file, postgres, s3
	BlobDir     string
	DatabaseURL string
	TablePrefix string
	S3Endpoint  string
	S3Bucket    string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	// Transient view URLs
	BlobURLBase string
	// Logging
	LogDir      string
	LogMaxFiles int
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:         getEnv("PORT", "8080"),
		Environment:  env,
		CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:3000"),
		RootLabel:    getEnv("ROOT_LABEL", "Home"),
		SeedFile:     getEnv("SEED_FILE", ""),
		SeedDisabled: getEnv("SEED_DISABLED", "false") == "true",
		BlobBackend:  getEnv("BLOB_BACKEND", "memory"),
		BlobDir:      getEnv("BLOB_DIR", "./data"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		TablePrefix:  getTablePrefix(env),
		S3Endpoint:   getEnv("S3_ENDPOINT", ""),
		S3Bucket:     getEnv("S3_BUCKET", "stationdocs"),
		S3Region:     getEnv("S3_REGION", "us-east-1"),
		S3AccessKey:  getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:  getEnv("S3_SECRET_KEY", ""),
		BlobURLBase:  getEnv("BLOB_URL_BASE", "/blobs/"),
		LogDir:       getEnv("LOG_DIR", ""),
		LogMaxFiles:  getEnvInt("LOG_MAX_FILES", 10),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
