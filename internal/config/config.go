package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Database DatabaseConfig
	Encoder  EncoderConfig
	Office   OfficeConfig
	Matcher  MatcherConfig
	Workday  WorkdayConfig
	Admin    AdminConfig
	Web      WebConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type EncoderConfig struct {
	URL     string        // face encoder sidecar, defaults to http://localhost:8000
	Dim     int           // encoding dimension, fixed by the sidecar model (default 128)
	Timeout time.Duration // bound on a single encode call (default 30s)
}

type OfficeConfig struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64 // allowed distance from the office (default 0.5 km)
	Enforce   bool    // reject check-in/out outside the radius; advisory logging otherwise
}

type MatcherConfig struct {
	Tolerance float64 // maximum Euclidean distance for a face match (default 0.6)
}

type WorkdayConfig struct {
	Start            string `yaml:"start"` // HH:MM
	End              string `yaml:"end"`   // HH:MM
	LateToleranceMin int    `yaml:"late_tolerance_minutes"`
	MaxShiftHours    int    `yaml:"max_shift_hours"`
}

type AdminConfig struct {
	Username string
	Password string
}

type WebConfig struct {
	SessionSecret   string        // HMAC secret for admin session cookies
	FaceTokenSecret string        // HMAC secret for employee face tokens
	FaceTokenTTL    time.Duration // how long a face authentication stays valid (default 5m)
}

// defaults mirrors the embedded defaults.yaml structure.
type defaults struct {
	Workday WorkdayConfig `yaml:"workday"`
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

// envFloat reads an environment variable and parses it as a float.
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

// envBool treats "1", "true" and "yes" as true; anything else is false.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	return s == "1" || s == "true" || s == "yes"
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var def defaults
	if err := yaml.Unmarshal(defaultsYAML, &def); err != nil {
		// Embedded file, this cannot happen in practice.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Encoder: EncoderConfig{
			URL:     envString("ENCODER_URL", "http://localhost:8000"),
			Dim:     envInt("ENCODER_DIM", 128),
			Timeout: time.Duration(envInt("ENCODER_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Office: OfficeConfig{
			Latitude:  envFloat("OFFICE_LATITUDE", 0),
			Longitude: envFloat("OFFICE_LONGITUDE", 0),
			RadiusKm:  envFloat("OFFICE_RADIUS_KM", 0.5),
			Enforce:   envBool("OFFICE_ENFORCE_GEOFENCE", false),
		},
		Matcher: MatcherConfig{
			Tolerance: envFloat("MATCH_TOLERANCE", 0.6),
		},
		Workday: WorkdayConfig{
			Start:            envString("WORKDAY_START", def.Workday.Start),
			End:              envString("WORKDAY_END", def.Workday.End),
			LateToleranceMin: envInt("WORKDAY_LATE_TOLERANCE_MINUTES", def.Workday.LateToleranceMin),
			MaxShiftHours:    envInt("WORKDAY_MAX_SHIFT_HOURS", def.Workday.MaxShiftHours),
		},
		Admin: AdminConfig{
			Username: os.Getenv("ADMIN_USERNAME"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
		Web: WebConfig{
			SessionSecret:   os.Getenv("WEB_SESSION_SECRET"),
			FaceTokenSecret: os.Getenv("FACE_TOKEN_SECRET"),
			FaceTokenTTL:    time.Duration(envInt("FACE_TOKEN_TTL_SECONDS", 300)) * time.Second,
		},
	}
}
