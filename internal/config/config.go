package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeDev  Mode = "dev"
	ModeProd Mode = "prod"
)

type Config struct {
	Mode     Mode   `yaml:"mode"`
	HTTPAddr string `yaml:"http_addr"`

	DBDriver string `yaml:"db_driver"` // sqlite|postgres
	DBDSN    string `yaml:"db_dsn"`

	AuthSecret string `yaml:"auth_secret"`

	CORSOrigins []string `yaml:"cors_origins"`

	// AI form generation (external generative-model collaborator)
	EnableAI     bool   `yaml:"enable_ai"`
	AIBaseURL    string `yaml:"ai_base_url"`
	AIModel      string `yaml:"ai_model"`
	AIAPIKey     string `yaml:"ai_api_key"`
	AICreditCost int64  `yaml:"ai_credit_cost"`

	// Credits granted to a freshly registered user.
	SignupCredits int64 `yaml:"signup_credits"`
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeDev
	}
	return Config{
		Mode:          mode,
		HTTPAddr:      envOr("HTTP_ADDR", ":8080"),
		DBDriver:      envOr("DB_DRIVER", "sqlite"),
		DBDSN:         envOr("DB_DSN", ""),
		AuthSecret:    envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		CORSOrigins:   csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		EnableAI:      envBool("ENABLE_AI", false),
		AIBaseURL:     envOr("AI_BASE_URL", "https://generativelanguage.googleapis.com"),
		AIModel:       envOr("AI_MODEL", "gemini-2.0-flash"),
		AIAPIKey:      os.Getenv("AI_API_KEY"),
		AICreditCost:  envInt64("AI_CREDIT_COST", 1),
		SignupCredits: envInt64("SIGNUP_CREDITS", 10),
	}
}

// LoadFile overlays values from a YAML file onto cfg. Missing file is fine:
// env (and defaults) stay in effect.
func LoadFile(path string, cfg Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt64(k string, def int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
