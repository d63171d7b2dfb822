package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log    Log    `yaml:"log"`
	Server Server `yaml:"server"`
	OpenAI OpenAI `yaml:"openai"`
	Vector Vector `yaml:"vector"`
	Agent  Agent  `yaml:"agent"`
}

type OpenAI struct {
	Chat ModelConfig `yaml:"chat" validate:"required"`
	// Embedding model used by the vector store
	EmbeddingModel string `yaml:"embedding_model" example:"text-embedding-3-small"`
}

type ModelConfig struct {
	// OpenAI base url
	BaseURL string `yaml:"base_url" example:"https://api.openai.com/v1" validate:"required"`
	// OpenAI token
	Token string `yaml:"token" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX" validate:"required"`
	// OpenAI model
	Model string `yaml:"model" example:"gpt-4o-mini" validate:"required"`
	// Sampling temperature
	Temperature float32 `yaml:"temperature" example:"0.0"`
}

type Vector struct {
	// Enable the vector-store retrieval tiers
	Enabled bool `yaml:"enabled" example:"true"`
	// Pinecone API key
	APIKey string `yaml:"api_key" example:"pcsk_abc123"`
	// Pinecone index name
	Index string `yaml:"index" example:"education-content"`
	// Pinecone namespace
	Namespace string `yaml:"namespace" example:"default"`
}

type Agent struct {
	// Maximum questions to retrieve or generate per round
	MaxQuestions int `yaml:"max_questions" example:"3"`
}

type Server struct {
	// HTTP listen address
	Addr string `yaml:"addr" example:":5000"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load() (*Config, error) {
	var result Config

	data, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	if result.Server.Addr == "" {
		result.Server.Addr = ":5000"
	}
	if result.Agent.MaxQuestions <= 0 {
		result.Agent.MaxQuestions = 3
	}
	if result.OpenAI.EmbeddingModel == "" {
		result.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if result.Vector.Namespace == "" {
		result.Vector.Namespace = "default"
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}
