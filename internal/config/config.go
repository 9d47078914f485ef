package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// EvaluatorPolicy selects how conflicts between provider definitions are judged.
type EvaluatorPolicy string

const (
	// PolicyHeuristic flags a conflict when providers return differing
	// definition strings. Deterministic, needs no credentials.
	PolicyHeuristic EvaluatorPolicy = "heuristic"
	// PolicyArbiter delegates the judgement to a remote arbiter model.
	// Requires OPENAI_API_KEY.
	PolicyArbiter EvaluatorPolicy = "arbiter"
)

type Config struct {
	DatabaseURL     string
	HTTPPort        string
	LogLevel        string
	JWTSecret       string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GoogleAPIKey    string
	EvaluatorPolicy EvaluatorPolicy
}

// Load reads configuration from the environment, honoring a .env file if one
// exists. Provider keys are optional; a client without its key reports itself
// unavailable at call time rather than failing startup.
func Load() (Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := Config{
		DatabaseURL:     getEnv("DATABASE_URL", "neologe.db"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		GoogleAPIKey:    getEnv("GOOGLE_API_KEY", ""),
		EvaluatorPolicy: EvaluatorPolicy(getEnv("EVALUATOR_POLICY", string(PolicyHeuristic))),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	switch cfg.EvaluatorPolicy {
	case PolicyHeuristic, PolicyArbiter:
	default:
		return Config{}, fmt.Errorf("invalid EVALUATOR_POLICY %q (want %q or %q)",
			cfg.EvaluatorPolicy, PolicyHeuristic, PolicyArbiter)
	}

	return cfg, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}
