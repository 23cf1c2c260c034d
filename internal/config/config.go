package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Agent    AgentConfig
	Memory   MemoryConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	NatsEnabled        bool
	RedisURL           string
	RedisEnabled       bool
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	Tavily string
}

type AIConfig struct {
	LLMProvider       string // "ollama"
	LLMModel          string // e.g. "llama3", "qwen2.5"
	OllamaBaseURL     string
	EmbeddingProvider string // "ollama"
	EmbeddingModel    string // e.g. "nomic-embed-text"
	RerankerURL       string // empty disables reranking
}

type AgentConfig struct {
	RetrievalK       int
	RerankTopK       int
	WebMaxResults    int
	InteractionTopic string
	GeoMetadataPath  string
}

type MemoryConfig struct {
	ShortTermWindow int
	ShortTermTTLMin int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			NatsEnabled:        getEnvAsBool("NATS_ENABLED", false),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			RedisEnabled:       getEnvAsBool("REDIS_ENABLED", false),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			Tavily: getEnv("TAVILY_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			RerankerURL:       getEnv("RERANKER_URL", ""),
		},
		Agent: AgentConfig{
			RetrievalK:       getEnvAsInt("AGENT_RETRIEVAL_K", 5),
			RerankTopK:       getEnvAsInt("AGENT_RERANK_TOP_K", 3),
			WebMaxResults:    getEnvAsInt("AGENT_WEB_MAX_RESULTS", 5),
			InteractionTopic: getEnv("AGENT_INTERACTION_TOPIC", "agent.interactions"),
			GeoMetadataPath:  getEnv("GEO_METADATA_PATH", "data/geo/images.jsonl"),
		},
		Memory: MemoryConfig{
			ShortTermWindow: getEnvAsInt("SHORT_TERM_WINDOW", 5),
			ShortTermTTLMin: getEnvAsInt("SHORT_TERM_TTL_MINUTES", 60),
		},
	}
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
