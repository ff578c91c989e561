package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DatabaseURL     string // CADENCE_DATABASE_URL (required)
	HTTPAddr        string // CADENCE_HTTP_ADDR (default ":8080")
	NATSURL         string // CADENCE_NATS_URL (optional, empty = no events)
	AuthToken       string // CADENCE_AUTH_TOKEN (optional, empty = auth disabled)
	MetricsDisabled bool   // CADENCE_METRICS_DISABLED (daily endpoints answer 501)

	// Backup settings
	BackupInterval   time.Duration // CADENCE_BACKUP_INTERVAL (default 3m; 0 = disabled)
	BackupS3Bucket   string        // CADENCE_BACKUP_S3_BUCKET (enables S3 when set)
	BackupS3Endpoint string        // CADENCE_BACKUP_S3_ENDPOINT (custom endpoint for MinIO)
	BackupS3Region   string        // CADENCE_BACKUP_S3_REGION (default "us-east-1")
	BackupS3Key      string        // CADENCE_BACKUP_S3_KEY (default "cadence/backup.jsonl")
	BackupGitRepo    string        // CADENCE_BACKUP_GIT_REPO (enables git when set; path to clone)
	BackupGitFile    string        // CADENCE_BACKUP_GIT_FILE (default "cadence.jsonl")
	BackupGitBranch  string        // CADENCE_BACKUP_GIT_BRANCH (default "main")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:      os.Getenv("CADENCE_DATABASE_URL"),
		HTTPAddr:         envOrDefault("CADENCE_HTTP_ADDR", ":8080"),
		NATSURL:          os.Getenv("CADENCE_NATS_URL"),
		AuthToken:        os.Getenv("CADENCE_AUTH_TOKEN"),
		MetricsDisabled:  os.Getenv("CADENCE_METRICS_DISABLED") != "",
		BackupS3Bucket:   os.Getenv("CADENCE_BACKUP_S3_BUCKET"),
		BackupS3Endpoint: os.Getenv("CADENCE_BACKUP_S3_ENDPOINT"),
		BackupS3Region:   envOrDefault("CADENCE_BACKUP_S3_REGION", "us-east-1"),
		BackupS3Key:      envOrDefault("CADENCE_BACKUP_S3_KEY", "cadence/backup.jsonl"),
		BackupGitRepo:    os.Getenv("CADENCE_BACKUP_GIT_REPO"),
		BackupGitFile:    envOrDefault("CADENCE_BACKUP_GIT_FILE", "cadence.jsonl"),
		BackupGitBranch:  envOrDefault("CADENCE_BACKUP_GIT_BRANCH", "main"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("CADENCE_DATABASE_URL is required")
	}

	intervalStr := envOrDefault("CADENCE_BACKUP_INTERVAL", "3m")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("CADENCE_BACKUP_INTERVAL: %w", err)
		}
		c.BackupInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
