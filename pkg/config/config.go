package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	News struct {
		BaseURL            string   `yaml:"base_url"`
		APIKey             string   `yaml:"api_key"`
		Language           string   `yaml:"language"`
		RelevanceThreshold *float64 `yaml:"relevance_threshold"` // nil means 0.7; 0 is allowed
		MaxResults         int      `yaml:"max_results"`
		MaxCandidates      int      `yaml:"max_candidates"`
		RateLimit          float64  `yaml:"rate_limit"`
		TimeoutSeconds     int      `yaml:"timeout_seconds"`
		Timezone           string   `yaml:"timezone"`
	} `yaml:"news"`

	Topics struct {
		Defaults []string `yaml:"defaults"`
		Selected string   `yaml:"selected"`
	} `yaml:"topics"`

	Reader struct {
		RateLimit      float64  `yaml:"rate_limit"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		UserAgent      string   `yaml:"user_agent"`
		NoisePatterns  []string `yaml:"noise_patterns"`
	} `yaml:"reader"`

	LLM struct {
		BaseURL        string  `yaml:"base_url"`
		Model          string  `yaml:"model"`
		EmbeddingModel string  `yaml:"embedding_model"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float64 `yaml:"temperature"`
	} `yaml:"llm"`

	Database struct {
		URL         string `yaml:"url"`
		TablePrefix string `yaml:"table_prefix"`
		VectorDim   int    `yaml:"vector_dim"`
		Archive     bool   `yaml:"archive"`
	} `yaml:"database"`

	Processor struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
	} `yaml:"processor"`

	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"` // empty = same-origin only
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/topicnews/config.yaml"),
			"/etc/topicnews/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.News.BaseURL == "" {
		config.News.BaseURL = "https://newsapi.org/v2"
	}
	if config.News.Language == "" {
		config.News.Language = "en"
	}
	if config.News.RelevanceThreshold == nil {
		threshold := 0.7
		config.News.RelevanceThreshold = &threshold
	}
	if config.News.MaxResults == 0 {
		config.News.MaxResults = 10
	}
	if config.News.MaxCandidates == 0 {
		config.News.MaxCandidates = 50
	}
	if config.News.RateLimit == 0 {
		config.News.RateLimit = 1.0
	}
	if config.News.TimeoutSeconds == 0 {
		config.News.TimeoutSeconds = 15
	}

	if len(config.Topics.Defaults) == 0 {
		config.Topics.Defaults = []string{"AI", "Tech"}
	}
	if config.Topics.Selected == "" {
		config.Topics.Selected = config.Topics.Defaults[0]
	}

	if config.Reader.RateLimit == 0 {
		config.Reader.RateLimit = 2.0
	}
	if config.Reader.TimeoutSeconds == 0 {
		config.Reader.TimeoutSeconds = 30
	}
	if config.Reader.UserAgent == "" {
		config.Reader.UserAgent = "topicnews/0.1"
	}

	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "mistral"
	}
	if config.LLM.EmbeddingModel == "" {
		config.LLM.EmbeddingModel = "nomic-embed-text:latest"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 400
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.3
	}

	if config.Database.TablePrefix == "" {
		config.Database.TablePrefix = "topicnews_"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}

	if config.Processor.ChunkSize == 0 {
		config.Processor.ChunkSize = 1000
	}
	if config.Processor.ChunkOverlap == 0 {
		config.Processor.ChunkOverlap = 200
	}

	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
}

func mergeWithEnv(config *Config) {
	if key := os.Getenv("NEWSAPI_KEY"); key != "" {
		config.News.APIKey = key
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
	if level := os.Getenv("TOPICNEWS_LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
}
