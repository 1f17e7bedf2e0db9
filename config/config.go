package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/joho/godotenv"
)

// Struct untuk data yang disimpan di dalam Token
type JWTClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Config holds every runtime setting, read from the environment.
type Config struct {
	Port   int
	JWTKey []byte
	// TokenTTL is how long an issued login token stays valid.
	TokenTTL     time.Duration
	CookieSecure bool
	CORSOrigins  []string

	DBDriver    string
	DatabaseURL string

	UploadDir    string
	DeveloperDir string

	CameraDevice      int
	CascadePath       string
	LandmarkModelPath string
	Tolerance         float64
	MaxDistance       float64
	FrameStride       int
	CloseDelay        time.Duration
	LockDir           string

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string

	SentryDSN string
	LogLevel  slog.Level
}

// Load reads an optional .env file and then the process environment.
// Missing values fall back to the defaults of a local single-machine install.
func Load(envFiles ...string) *Config {
	// File .env hanya ada di mesin lokal; di produksi variabel datang dari environment.
	if err := godotenv.Load(envFiles...); err != nil {
		slog.Debug("no .env file loaded, using system environment", "error", err)
	}

	return &Config{
		Port:         getInt("PORT", 5000),
		JWTKey:       []byte(os.Getenv("JWT_KEY")),
		TokenTTL:     getDuration("TOKEN_TTL", 12*time.Hour),
		CookieSecure: getBool("COOKIE_SECURE", false),
		CORSOrigins:  getList("CORS_ORIGINS", []string{"http://localhost:5000"}),

		DBDriver:    getString("DB_DRIVER", "sqlite"),
		DatabaseURL: getString("DATABASE_URL", "face_recognition.db"),

		UploadDir:    getString("UPLOAD_DIR", "static/images/student_photos"),
		DeveloperDir: getString("DEVELOPER_DIR", "static/images/developer_photos"),

		CameraDevice:      getInt("CAMERA_DEVICE", 0),
		CascadePath:       getString("CASCADE_PATH", "models/haarcascade_frontalface_default.xml"),
		LandmarkModelPath: getString("LANDMARK_MODEL_PATH", "models/face_landmarks.onnx"),
		Tolerance:         getFloat("MATCH_TOLERANCE", 0.85),
		MaxDistance:       getFloat("MATCH_MAX_DISTANCE", 0.15),
		FrameStride:       getInt("FRAME_STRIDE", 3),
		CloseDelay:        getDuration("CLOSE_DELAY", 2*time.Second),
		LockDir:           getString("LOCK_DIR", os.TempDir()),

		MQTTBroker:   os.Getenv("MQTT_BROKER"),
		MQTTTopic:    getString("MQTT_TOPIC", "campusface/attendance"),
		MQTTClientID: getString("MQTT_CLIENT_ID", "campusface"),

		SentryDSN: os.Getenv("SENTRY_DSN"),
		LogLevel:  getLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if len(c.JWTKey) == 0 {
		return errors.New("JWT_KEY is not set in the environment or .env file")
	}
	switch c.DBDriver {
	case "mysql", "sqlite":
	default:
		return errors.New("DB_DRIVER must be mysql or sqlite, got " + strconv.Quote(c.DBDriver))
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	if c.FrameStride < 1 {
		return errors.New("FRAME_STRIDE must be at least 1")
	}
	return nil
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getLevel(key string, fallback slog.Level) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(os.Getenv(key)))); err != nil {
		return fallback
	}
	return lvl
}
