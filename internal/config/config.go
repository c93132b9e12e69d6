package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Worker    WorkerConfig
	Simulator SimulatorConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	JwtSecret          string
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
}

type DatabaseConfig struct {
	// Driver selects the repository implementation: "postgres" or "memory".
	Driver     string
	Connection string
}

type APIKeys struct {
	HuggingFace  string
	GoogleGemini string
}

type AIConfig struct {
	LLMProvider   string // "ollama", "huggingface" or "gemini"
	LLMModel      string
	LLMFastModel  string
	OllamaBaseURL string
}

type WorkerConfig struct {
	// TaskQueueDriver is "watermill" (in-process) or "nats" (JetStream).
	TaskQueueDriver string
	// LockDriver is "local" or "redis".
	LockDriver               string
	TaskMaxRetries           int
	SessionSweepIntervalMins int
}

type SimulatorConfig struct {
	DefaultTurns int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", ""),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("STORE_DRIVER", "postgres"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:      getEnv("LLM_MODEL", "llama3"),
			LLMFastModel:  getEnv("LLM_FAST_MODEL", ""),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Worker: WorkerConfig{
			TaskQueueDriver:          getEnv("TASK_QUEUE_DRIVER", "watermill"),
			LockDriver:               getEnv("LOCK_DRIVER", "local"),
			TaskMaxRetries:           getEnvAsInt("TASK_MAX_RETRIES", 3),
			SessionSweepIntervalMins: getEnvAsInt("SESSION_SWEEP_INTERVAL_MINUTES", 30),
		},
		Simulator: SimulatorConfig{
			DefaultTurns: getEnvAsInt("SIM_DEFAULT_TURNS", 10),
		},
	}
}

// IsProduction reports whether GO_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
