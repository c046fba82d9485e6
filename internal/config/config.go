package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed thresholds.yaml
var thresholdsYAML []byte

type Config struct {
	Camera     CameraConfig
	Extractor  ExtractorConfig
	Database   DatabaseConfig
	MariaDB    MariaDBConfig
	Evidence   EvidenceConfig
	Web        WebConfig
	Thresholds ThresholdsConfig
}

type CameraConfig struct {
	ID        string // checkpoint camera identifier (e.g., gate-1)
	EventType string // entry or exit
}

type ExtractorConfig struct {
	URL string // defaults to http://localhost:8000
	Dim int    // embedding dimension, defaults to 512
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
	EmbeddingDim int    // pgvector column dimension
}

type MariaDBConfig struct {
	DSN string // optional MariaDB DSN (e.g., sentry:sentry@tcp(mariadb:3306)/sentry)
}

type EvidenceConfig struct {
	Dir string // defaults to ./evidence
}

type WebConfig struct {
	Port int // defaults to 8080
}

// ThresholdsConfig carries the detection tuning. Defaults come from the
// embedded thresholds.yaml; each value can be overridden through the
// environment.
type ThresholdsConfig struct {
	Recognition RecognitionThresholds `yaml:"recognition"`
	Blink       BlinkThresholds       `yaml:"blink"`
	Liveness    LivenessThresholds    `yaml:"liveness"`
	Spoof       SpoofThresholds       `yaml:"spoof"`
	Cooldown    CooldownThresholds    `yaml:"cooldown"`
}

type RecognitionThresholds struct {
	DistanceThreshold float64 `yaml:"distance_threshold"`
}

type BlinkThresholds struct {
	EARThreshold      float64 `yaml:"ear_threshold"`
	ConsecutiveFrames int     `yaml:"consecutive_frames"`
}

type LivenessThresholds struct {
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
}

func (l LivenessThresholds) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds * float64(time.Second))
}

type SpoofThresholds struct {
	PitchThreshold float64 `yaml:"pitch_threshold"`
	DepthThreshold float64 `yaml:"depth_threshold"`
	PassScore      int     `yaml:"pass_score"`
}

type CooldownThresholds struct {
	WindowSeconds float64 `yaml:"window_seconds"`
}

func (c CooldownThresholds) Window() time.Duration {
	return time.Duration(c.WindowSeconds * float64(time.Second))
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float. Returns
// the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var thresholds ThresholdsConfig
	if err := yaml.Unmarshal(thresholdsYAML, &thresholds); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded thresholds.yaml: " + err.Error())
	}

	dim := envInt("EMBEDDING_DIM", 512)

	return &Config{
		Camera: CameraConfig{
			ID:        envString("CAMERA_ID", "gate-1"),
			EventType: envString("EVENT_TYPE", "entry"),
		},
		Extractor: ExtractorConfig{
			URL: os.Getenv("EXTRACTOR_URL"),
			Dim: dim,
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
			EmbeddingDim: dim,
		},
		MariaDB: MariaDBConfig{
			DSN: os.Getenv("MARIADB_DSN"),
		},
		Evidence: EvidenceConfig{
			Dir: envString("EVIDENCE_DIR", "evidence"),
		},
		Web: WebConfig{
			Port: envInt("WEB_PORT", 8080),
		},
		Thresholds: ThresholdsConfig{
			Recognition: RecognitionThresholds{
				DistanceThreshold: envFloat("RECOGNITION_THRESHOLD", thresholds.Recognition.DistanceThreshold),
			},
			Blink: BlinkThresholds{
				EARThreshold:      envFloat("EAR_THRESHOLD", thresholds.Blink.EARThreshold),
				ConsecutiveFrames: envInt("BLINK_CONSEC_FRAMES", thresholds.Blink.ConsecutiveFrames),
			},
			Liveness: LivenessThresholds{
				TimeoutSeconds: envFloat("LIVENESS_TIMEOUT_SECONDS", thresholds.Liveness.TimeoutSeconds),
			},
			Spoof: SpoofThresholds{
				PitchThreshold: envFloat("PITCH_THRESHOLD", thresholds.Spoof.PitchThreshold),
				DepthThreshold: envFloat("DEPTH_THRESHOLD", thresholds.Spoof.DepthThreshold),
				PassScore:      envInt("SPOOF_PASS_SCORE", thresholds.Spoof.PassScore),
			},
			Cooldown: CooldownThresholds{
				WindowSeconds: envFloat("COOLDOWN_WINDOW_SECONDS", thresholds.Cooldown.WindowSeconds),
			},
		},
	}
}

// Validate rejects threshold combinations a checkpoint cannot run with.
// Called once at startup; an error here is fatal.
func (c *Config) Validate() error {
	t := c.Thresholds
	if t.Recognition.DistanceThreshold <= 0 || t.Recognition.DistanceThreshold > 2 {
		return fmt.Errorf("recognition distance threshold must be in (0, 2], got %v", t.Recognition.DistanceThreshold)
	}
	if t.Blink.EARThreshold <= 0 || t.Blink.EARThreshold >= 1 {
		return fmt.Errorf("blink EAR threshold must be in (0, 1), got %v", t.Blink.EARThreshold)
	}
	if t.Blink.ConsecutiveFrames < 2 {
		return fmt.Errorf("blink consecutive frames must be at least 2, got %d", t.Blink.ConsecutiveFrames)
	}
	if t.Liveness.TimeoutSeconds <= 0 {
		return fmt.Errorf("liveness timeout must be positive, got %v", t.Liveness.TimeoutSeconds)
	}
	if t.Spoof.PitchThreshold <= 0 {
		return fmt.Errorf("pitch threshold must be positive, got %v", t.Spoof.PitchThreshold)
	}
	if t.Spoof.DepthThreshold <= 0 {
		return fmt.Errorf("depth threshold must be positive, got %v", t.Spoof.DepthThreshold)
	}
	if t.Spoof.PassScore <= 0 || t.Spoof.PassScore > 100 {
		return fmt.Errorf("spoof pass score must be in (0, 100], got %d", t.Spoof.PassScore)
	}
	if t.Cooldown.WindowSeconds <= 0 {
		return fmt.Errorf("cooldown window must be positive, got %v", t.Cooldown.WindowSeconds)
	}
	if c.Camera.EventType != "entry" && c.Camera.EventType != "exit" {
		return fmt.Errorf("event type must be entry or exit, got %q", c.Camera.EventType)
	}
	if c.Extractor.Dim <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.Extractor.Dim)
	}
	return nil
}
