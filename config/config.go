package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Telemetry TelemetryConfig
	Session   SessionConfig
	Media     MediaConfig
	Recording RecordingConfig
	Redis     RedisConfig
	AWS       AWSConfig
}

// ServerConfig holds HTTP server settings for the control API.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:3000,http://localhost:3001)
}

// BackendConfig points at the interview REST API.
type BackendConfig struct {
	BaseURL    string
	TimeoutSec int
}

// TelemetryConfig points at the analysis WebSocket endpoint.
type TelemetryConfig struct {
	BaseURL          string // e.g. ws://localhost:8000
	FrameIntervalSec int
}

// SessionConfig holds interview session settings.
type SessionConfig struct {
	JobRole string
}

// MediaConfig holds capture settings.
type MediaConfig struct {
	VideoWidth  int
	VideoHeight int
	Synthetic   bool // use the built-in synthetic provider instead of real devices
}

// RecordingConfig holds recording spool settings.
type RecordingConfig struct {
	OutputDir string // directory for spooled recording files; empty = os.TempDir()
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AWSConfig holds AWS credentials and the recordings bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	RecordingsBucket     string
	PresignExpireMinutes int
}

// Timeout returns the backend HTTP client timeout.
func (c BackendConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// FrameInterval returns how often frames are sent for emotion analysis.
func (c TelemetryConfig) FrameInterval() time.Duration {
	if c.FrameIntervalSec <= 0 {
		return time.Second
	}
	return time.Duration(c.FrameIntervalSec) * time.Second
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
		},
		Backend: BackendConfig{
			BaseURL:    getEnv("BACKEND_BASE_URL", "http://localhost:8000"),
			TimeoutSec: getEnvInt("BACKEND_TIMEOUT_SEC", 30),
		},
		Telemetry: TelemetryConfig{
			BaseURL:          getEnv("TELEMETRY_WS_URL", "ws://localhost:8000"),
			FrameIntervalSec: getEnvInt("TELEMETRY_FRAME_INTERVAL_SEC", 1),
		},
		Session: SessionConfig{
			JobRole: getEnv("JOB_ROLE", "Software Engineer"),
		},
		Media: MediaConfig{
			VideoWidth:  getEnvInt("VIDEO_WIDTH", 1280),
			VideoHeight: getEnvInt("VIDEO_HEIGHT", 720),
			Synthetic:   getEnv("MEDIA_SYNTHETIC", "") == "true",
		},
		Recording: RecordingConfig{
			OutputDir: getEnv("RECORDING_OUTPUT_DIR", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", ""),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			RecordingsBucket:     getEnv("AWS_S3_RECORDINGS_BUCKET", "interview-recordings-bucket"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
