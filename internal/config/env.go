package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	SslCertPath string

	AIAPIKey   string
	GenModel   string
	EmbedModel string
	EmbedDim   int

	// Similar-ticket recall is optional; it needs the embedding column.
	SimilarTickets bool

	FirebaseProjectID   string
	FirebaseCredsPath   string
	FirebaseCredsBase64 string

	// Dev-mode HS256 secret. Used only when Firebase is not configured.
	JWTSecret string

	GitHubToken  string
	GitHubRepo   string // "owner/repo"
	GitHubBranch string

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	AllowedOrigins []string
}

// LoadConfig loads the environment variables and returns config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SslCertPath: getEnv("SSL_CERT_PATH", ""),

		AIAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GenModel:   getEnv("GEN_MODEL", "gemini-1.5-flash"),
		EmbedModel: getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:   getEnvInt("EMBED_DIM", 768),

		SimilarTickets: getEnvBool("SIMILAR_TICKETS", false),

		FirebaseProjectID:   getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredsPath:   getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		FirebaseCredsBase64: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		GitHubToken:  getEnv("GITHUB_TOKEN", ""),
		GitHubRepo:   getEnv("GITHUB_REPO", ""),
		GitHubBranch: getEnv("GITHUB_BRANCH", "main"),

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "ticketlens-exports"),

		AllowedOrigins: splitOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if cfg.FirebaseProjectID == "" && cfg.JWTSecret == "" {
		log.Fatal("neither FIREBASE_PROJECT_ID nor JWT_SECRET set; no way to verify tokens")
	}

	return cfg
}

// splitOrigins parses the comma-separated ALLOWED_ORIGINS value.
func splitOrigins(v string) []string {
	var out []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %v", key, v, def)
		return def
	}
	return b
}
