// internal/infra/config/config.go
package config

import "os"

// Config はアプリケーション全体の環境変数設定を保持します。
type Config struct {
	Port string

	// Document store backend: "firestore" (default) or "postgres".
	StoreBackend string

	FirestoreProjectID       string
	FirestoreCredentialsFile string

	// Firebase Auth 用のプロジェクトID
	FirebaseProjectID string

	GCSBucket string
	GCPCreds  string

	// Postgres (used when StoreBackend == "postgres")
	DatabaseURL string

	// SendGrid: the key may come from the env directly or from Secret
	// Manager (SENDGRID_KEY_SECRET holds the secret resource name).
	SendGridAPIKey    string
	SendGridKeySecret string
	MailFrom          string
}

// Load は環境変数を読み込み Config を返します。
func Load() *Config {
	defaultProject := getenvDefault("GCP_PROJECT_ID", "messenger-backend")

	return &Config{
		Port:         getenvDefault("PORT", "8080"),
		StoreBackend: getenvDefault("STORE_BACKEND", "firestore"),

		FirestoreProjectID:       getenvDefault("FIRESTORE_PROJECT_ID", defaultProject),
		FirestoreCredentialsFile: os.Getenv("FIRESTORE_CREDENTIALS_FILE"),

		// FIREBASE_PROJECT_ID が未指定なら GCP のデフォルトを使う
		FirebaseProjectID: getenvDefault("FIREBASE_PROJECT_ID", defaultProject),

		GCSBucket: os.Getenv("GCS_BUCKET"),
		GCPCreds:  os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		SendGridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
		SendGridKeySecret: os.Getenv("SENDGRID_KEY_SECRET"),
		MailFrom:          os.Getenv("MAIL_FROM"),
	}
}

// UsePostgres reports whether the Postgres adapters back the sync ports.
func (c *Config) UsePostgres() bool {
	return c.StoreBackend == "postgres"
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
